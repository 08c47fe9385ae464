package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rfjolnisson/belmond-bug-tracker/internal/domain"
)

// priorityOrder is the board's severity ranking, used wherever a view
// orders by priority rather than alphabetically.
var priorityOrder = map[string]int{
	"Blocker":  0,
	"Critical": 1,
	"Major":    2,
	"Minor":    3,
	"Trivial":  4,
}

func priorityRank(p string) int {
	if r, ok := priorityOrder[p]; ok {
		return r
	}
	return len(priorityOrder)
}

// ExcludeRejected drops discarded bugs. Rejected in any of its guises
// never reaches a view; every report works on the remaining set.
func ExcludeRejected(bugs []domain.Bug) []domain.Bug {
	out := make([]domain.Bug, 0, len(bugs))
	for _, b := range bugs {
		switch b.Status {
		case "Rejected", "Won't Fix", "Cancelled", "Won't Do":
			continue
		}
		out = append(out, b)
	}
	return out
}

func BuildSummary(bugs []domain.Bug) domain.Summary {
	var sum domain.Summary
	sum.Total = len(bugs)
	type cell struct{ priority, status string }
	matrix := map[cell]int{}
	for _, b := range bugs {
		switch {
		case domain.IsDone(b.Status):
			sum.Done++
		case domain.IsDev(b.Status):
			sum.InDev++
		case domain.IsQA(b.Status):
			sum.InQA++
		case domain.IsTodo(b.Status):
			sum.ToDo++
		}
		if domain.IsActive(b.Status) {
			switch b.Priority {
			case "Blocker":
				sum.ActiveBlockers++
			case "Critical":
				sum.ActiveCriticals++
			}
		}
		matrix[cell{b.Priority, b.Status}]++

		// Alert on blockers that are still in play.
		if b.Priority == "Blocker" && !isClosedOut(b.Status) {
			stuck := b.TimeInStatusDays != nil && *b.TimeInStatusDays > 3
			sum.Alerts = append(sum.Alerts, domain.Alert{
				Key:          b.Key,
				Summary:      b.Summary,
				Status:       b.Status,
				Assignee:     b.Assignee,
				DaysInStatus: b.TimeInStatusDays,
				Stuck:        stuck,
				URL:          b.URL,
			})
		}
	}
	if sum.Total > 0 {
		sum.DonePct = round1(float64(sum.Done) / float64(sum.Total) * 100)
	}
	sum.Matrix = make([]domain.MatrixCell, 0, len(matrix))
	for c, n := range matrix {
		sum.Matrix = append(sum.Matrix, domain.MatrixCell{Priority: c.priority, Status: c.status, Count: n})
	}
	sort.Slice(sum.Matrix, func(i, j int) bool {
		a, b := sum.Matrix[i], sum.Matrix[j]
		if ra, rb := priorityRank(a.Priority), priorityRank(b.Priority); ra != rb {
			return ra < rb
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Status < b.Status
	})
	return sum
}

func isClosedOut(status string) bool {
	switch status {
	case "Done", "Rejected", "Closed", "Resolved":
		return true
	}
	return false
}

var agingLabels = []string{"0-7 days", "8-14 days", "15-30 days", "30+ days"}

func ageBucket(days int) string {
	switch {
	case days <= 7:
		return agingLabels[0]
	case days <= 14:
		return agingLabels[1]
	case days <= 30:
		return agingLabels[2]
	}
	return agingLabels[3]
}

// BuildAging buckets open bugs by age; bugs with no creation date land
// in the oldest bucket so stuck work cannot hide behind missing data.
func BuildAging(bugs []domain.Bug) domain.AgingReport {
	byLabel := map[string]*domain.AgingBucket{}
	for _, l := range agingLabels {
		byLabel[l] = &domain.AgingBucket{Label: l, ByPriority: map[string]int{}}
	}
	var open int
	for _, b := range bugs {
		if !domain.IsOpen(b.Status) {
			continue
		}
		open++
		label := agingLabels[3]
		if b.AgeDays != nil {
			label = ageBucket(*b.AgeDays)
		}
		bk := byLabel[label]
		bk.Count++
		bk.ByPriority[b.Priority]++
	}
	buckets := make([]domain.AgingBucket, 0, len(agingLabels))
	for _, l := range agingLabels {
		buckets = append(buckets, *byLabel[l])
	}
	return domain.AgingReport{OpenTotal: open, Buckets: buckets}
}

func BuildCycleTime(bugs []domain.Bug) []domain.CycleTimeStat {
	byPriority := map[string][]float64{}
	for _, b := range bugs {
		if b.Resolved == nil || b.Created == nil {
			continue
		}
		days := float64(int(b.Resolved.Sub(*b.Created).Hours() / 24))
		byPriority[b.Priority] = append(byPriority[b.Priority], days)
	}
	out := make([]domain.CycleTimeStat, 0, len(byPriority))
	for p, days := range byPriority {
		out = append(out, domain.CycleTimeStat{
			Priority:   p,
			AvgDays:    round1(mean(days)),
			MedianDays: round1(median(days)),
			Resolved:   len(days),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgDays != out[j].AvgDays {
			return out[i].AvgDays < out[j].AvgDays
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}

func BuildVelocity(bugs []domain.Bug) domain.VelocityReport {
	created := map[string]int{}
	resolved := map[string]int{}
	for _, b := range bugs {
		if b.Created != nil {
			created[b.Created.Format("2006-01")]++
		}
		if b.Resolved != nil {
			resolved[b.Resolved.Format("2006-01")]++
		}
	}
	months := map[string]struct{}{}
	for m := range created {
		months[m] = struct{}{}
	}
	for m := range resolved {
		months[m] = struct{}{}
	}
	keys := make([]string, 0, len(months))
	for m := range months {
		keys = append(keys, m)
	}
	sort.Strings(keys)
	if len(keys) > 12 {
		keys = keys[len(keys)-12:]
	}
	var rep domain.VelocityReport
	for _, m := range keys {
		rep.Months = append(rep.Months, domain.MonthlyVelocity{Month: m, Created: created[m], Resolved: resolved[m]})
	}
	tail := rep.Months
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	for _, m := range tail {
		rep.NetChange += m.Resolved - m.Created
	}
	return rep
}

func BuildWorkload(bugs []domain.Bug) domain.WorkloadReport {
	// The workload view's QA grouping is narrower than the summary's:
	// review sits with the reviewer, not the QA queue.
	inQA := func(status string) bool {
		switch status {
		case "Ready for QA", "In QA", "Testing":
			return true
		}
		return false
	}

	type acc struct {
		load       domain.AssigneeLoad
		statusDays []float64
		cycleDays  []float64
	}
	byAssignee := map[string]*acc{}
	get := func(name string) *acc {
		a, ok := byAssignee[name]
		if !ok {
			a = &acc{load: domain.AssigneeLoad{Assignee: name}}
			byAssignee[name] = a
		}
		return a
	}

	var rep domain.WorkloadReport
	for _, b := range bugs {
		if b.Assignee == "Unassigned" {
			if (b.Priority == "Blocker" || b.Priority == "Critical") && b.Status != "Done" {
				rep.UnassignedHighPriority = append(rep.UnassignedHighPriority, b)
			}
			continue
		}
		a := get(b.Assignee)
		// Historical resolution record counts every resolved bug, not
		// just the currently active ones.
		if b.Resolved != nil {
			a.load.Resolved++
			if b.Created != nil {
				a.cycleDays = append(a.cycleDays, float64(int(b.Resolved.Sub(*b.Created).Hours()/24)))
			}
		}
		if b.Status == "Done" {
			continue
		}
		a.load.Active++
		switch b.Priority {
		case "Blocker":
			a.load.Blockers++
		case "Critical":
			a.load.Criticals++
		}
		if domain.IsDev(b.Status) {
			a.load.InDev++
		}
		if inQA(b.Status) {
			a.load.InQA++
		}
		if b.TimeInStatusDays != nil {
			a.statusDays = append(a.statusDays, float64(*b.TimeInStatusDays))
		}
	}

	for _, a := range byAssignee {
		if a.load.Active == 0 {
			continue
		}
		if len(a.cycleDays) > 0 {
			v := round1(mean(a.cycleDays))
			a.load.AvgResolutionDays = &v
		}
		if len(a.statusDays) > 0 {
			v := round1(mean(a.statusDays))
			a.load.AvgDaysInStatus = &v
		}
		a.load.Overloaded = a.load.Active > 5
		rep.Assignees = append(rep.Assignees, a.load)
	}
	sort.Slice(rep.Assignees, func(i, j int) bool {
		if rep.Assignees[i].Active != rep.Assignees[j].Active {
			return rep.Assignees[i].Active > rep.Assignees[j].Active
		}
		return rep.Assignees[i].Assignee < rep.Assignees[j].Assignee
	})
	return rep
}

func BuildBlockers(bugs []domain.Bug, f Filter) domain.BlockerReport {
	var rep domain.BlockerReport
	var high []domain.Bug
	for _, b := range bugs {
		if b.Priority != "Blocker" && b.Priority != "Critical" {
			continue
		}
		if isClosedOut(b.Status) {
			continue
		}
		high = append(high, b)
		if b.Priority == "Blocker" {
			rep.Blockers++
		} else {
			rep.Criticals++
		}
		if b.TimeInStatusDays != nil && *b.TimeInStatusDays > 3 {
			rep.StuckOver3d++
		}
		if b.Assignee == "Unassigned" {
			rep.Unassigned++
		}
	}
	for _, b := range FilterBugs(high, f) {
		rep.Rows = append(rep.Rows, domain.BlockerRow{Bug: b, Flag: statusFlag(b.TimeInStatusDays)})
	}
	sort.SliceStable(rep.Rows, func(i, j int) bool {
		a, b := rep.Rows[i], rep.Rows[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return dayOrZero(a.TimeInStatusDays) > dayOrZero(b.TimeInStatusDays)
	})
	return rep
}

func statusFlag(days *int) string {
	d := dayOrZero(days)
	switch {
	case d > 7:
		return "red"
	case d > 3:
		return "yellow"
	}
	return "green"
}

func BuildFixVersions(bugs []domain.Bug) []domain.FixVersionProgress {
	byVersion := map[string]*domain.FixVersionProgress{}
	for _, b := range bugs {
		if b.FixVersion == "None" {
			continue
		}
		p, ok := byVersion[b.FixVersion]
		if !ok {
			p = &domain.FixVersionProgress{Version: b.FixVersion}
			byVersion[b.FixVersion] = p
		}
		p.Total++
		switch {
		case domain.IsDone(b.Status):
			p.Done++
		case b.Status == "In Progress" || b.Status == "In Development" || b.Status == "Ready for QA" || b.Status == "In QA":
			p.InProgress++
		case b.Status == "To Do" || b.Status == "Open" || b.Status == "Backlog":
			p.ToDo++
		}
		switch b.Priority {
		case "Blocker":
			p.Blockers++
		case "Critical":
			p.Criticals++
		}
	}
	out := make([]domain.FixVersionProgress, 0, len(byVersion))
	for _, p := range byVersion {
		if p.Total > 0 {
			p.PctComplete = round1(float64(p.Done) / float64(p.Total) * 100)
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

func BuildStatusFlow(bugs []domain.Bug) domain.StatusFlowReport {
	var rep domain.StatusFlowReport
	days := map[string][]float64{}
	counts := map[string]int{}
	for _, b := range bugs {
		counts[b.Status]++
		if b.TimeInStatusDays != nil {
			days[b.Status] = append(days[b.Status], float64(*b.TimeInStatusDays))
		}
		if b.TimeInStatusDays != nil && *b.TimeInStatusDays > 7 {
			rep.Stuck = append(rep.Stuck, b)
		}
	}
	for status, d := range days {
		maxDays := 0
		for _, v := range d {
			if int(v) > maxDays {
				maxDays = int(v)
			}
		}
		rep.TimeInStatus = append(rep.TimeInStatus, domain.StatusTime{
			Status:     status,
			AvgDays:    round1(mean(d)),
			MedianDays: round1(median(d)),
			MaxDays:    maxDays,
			Count:      len(d),
		})
	}
	sort.Slice(rep.TimeInStatus, func(i, j int) bool {
		if rep.TimeInStatus[i].AvgDays != rep.TimeInStatus[j].AvgDays {
			return rep.TimeInStatus[i].AvgDays > rep.TimeInStatus[j].AvgDays
		}
		return rep.TimeInStatus[i].Status < rep.TimeInStatus[j].Status
	})
	sort.SliceStable(rep.Stuck, func(i, j int) bool {
		return dayOrZero(rep.Stuck[i].TimeInStatusDays) > dayOrZero(rep.Stuck[j].TimeInStatusDays)
	})
	for status, n := range counts {
		rep.Distribution = append(rep.Distribution, domain.StatusCount{Status: status, Count: n})
	}
	sort.Slice(rep.Distribution, func(i, j int) bool {
		if rep.Distribution[i].Count != rep.Distribution[j].Count {
			return rep.Distribution[i].Count > rep.Distribution[j].Count
		}
		return rep.Distribution[i].Status < rep.Distribution[j].Status
	})
	return rep
}

// Filter narrows the bug list. Empty slices mean no constraint.
type Filter struct {
	Priorities []string
	Statuses   []string
	Assignees  []string
	Epics      []string
	Search     string
}

func FilterBugs(bugs []domain.Bug, f Filter) []domain.Bug {
	out := make([]domain.Bug, 0, len(bugs))
	search := strings.ToLower(strings.TrimSpace(f.Search))
	for _, b := range bugs {
		if !matchOne(b.Priority, f.Priorities) {
			continue
		}
		if !matchOne(b.Status, f.Statuses) {
			continue
		}
		if !matchOne(b.Assignee, f.Assignees) {
			continue
		}
		if !matchOne(b.ParentKey, f.Epics) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(b.Summary), search) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matchOne(v string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		if v == w {
			return true
		}
	}
	return false
}

// SortBugs orders in place by the named field; unknown fields fall back
// to key order. Missing timestamps and day counts sort first ascending.
func SortBugs(bugs []domain.Bug, sortBy string, desc bool) {
	less := func(a, b domain.Bug) bool { return a.Key < b.Key }
	switch sortBy {
	case "priority":
		less = func(a, b domain.Bug) bool {
			if ra, rb := priorityRank(a.Priority), priorityRank(b.Priority); ra != rb {
				return ra < rb
			}
			return a.Key < b.Key
		}
	case "status":
		less = func(a, b domain.Bug) bool { return a.Status < b.Status }
	case "assignee":
		less = func(a, b domain.Bug) bool { return a.Assignee < b.Assignee }
	case "created":
		less = func(a, b domain.Bug) bool { return timeOrZero(a.Created).Before(timeOrZero(b.Created)) }
	case "updated":
		less = func(a, b domain.Bug) bool { return timeOrZero(a.Updated).Before(timeOrZero(b.Updated)) }
	case "time_in_status_days":
		less = func(a, b domain.Bug) bool { return dayOrZero(a.TimeInStatusDays) < dayOrZero(b.TimeInStatusDays) }
	case "age_days":
		less = func(a, b domain.Bug) bool { return dayOrZero(a.AgeDays) < dayOrZero(b.AgeDays) }
	}
	sort.SliceStable(bugs, func(i, j int) bool {
		if desc {
			return less(bugs[j], bugs[i])
		}
		return less(bugs[i], bugs[j])
	})
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func dayOrZero(d *int) int {
	if d == nil {
		return 0
	}
	return *d
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
