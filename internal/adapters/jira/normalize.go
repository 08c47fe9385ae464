package jira

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/rfjolnisson/belmond-bug-tracker/internal/domain"
)

// Normalize flattens one raw issue into a domain.Bug. It is total:
// missing or malformed fields degrade to documented defaults, never an
// error. now is the fetch clock used for the day-count fields.
func Normalize(raw RawIssue, baseURL string, now time.Time) domain.Bug {
	f := raw.Fields

	key := raw.Key
	if key == "" {
		key = "N/A"
	}

	b := domain.Bug{
		Key:           key,
		Summary:       orDefault(f.Summary, "N/A"),
		Status:        namedOr(f.Status, "Unknown"),
		Priority:      namedOr(f.Priority, "None"),
		Assignee:      "Unassigned",
		Reporter:      "Unknown",
		ParentKey:     "N/A",
		ParentSummary: "N/A",
		IssueType:     namedOr(f.IssueType, "Unknown"),
		URL:           strings.TrimRight(baseURL, "/") + "/browse/" + key,
	}

	if f.Assignee != nil {
		b.Assignee = f.Assignee.DisplayName
		email := f.Assignee.EmailAddress
		b.AssigneeEmail = &email
	}
	if f.Reporter != nil {
		b.Reporter = f.Reporter.DisplayName
	}

	b.Created = parseTime(f.Created)
	b.Updated = parseTime(f.Updated)
	b.Resolved = parseTime(f.ResolutionDate)
	b.TimeInStatusDays = wholeDays(now, b.Updated)
	b.AgeDays = wholeDays(now, b.Created)

	b.FixVersions = names(f.FixVersions)
	b.FixVersion = "None"
	if len(b.FixVersions) > 0 {
		b.FixVersion = b.FixVersions[0]
	}

	if f.Parent != nil {
		if f.Parent.Key != "" {
			b.ParentKey = f.Parent.Key
		}
		if f.Parent.Fields != nil && f.Parent.Fields.Summary != "" {
			b.ParentSummary = f.Parent.Fields.Summary
		}
	}

	b.Labels = f.Labels
	if b.Labels == nil {
		b.Labels = []string{}
	}
	b.Components = names(f.Components)

	b.TimeOriginalEstimateHours = secondsToHours(f.TimeOriginalEstimate)
	b.TimeEstimateHours = secondsToHours(f.TimeEstimate)
	b.TimeSpentHours = secondsToHours(f.TimeSpent)

	if f.Resolution != nil {
		name := f.Resolution.Name
		b.Resolution = &name
	}

	b.Description = extractText(f.Description)

	return b
}

func orDefault(s, def string) string {
	if s == "" { return def }
	return s
}

func namedOr(n *Named, def string) string {
	if n == nil || n.Name == "" { return def }
	return n.Name
}

func names(in []Named) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		out = append(out, n.Name)
	}
	return out
}

// Jira renders timestamps like 2024-01-15T10:30:00.000+0000, and some
// fields come back date-only or with a trailing Z.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime yields a naive timestamp: the offset (Z taken as +00:00) is
// parsed and then stripped, keeping the literal wall-clock reading.
// Anything unparsable is nil, never an error.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		naive := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
		return &naive
	}
	return nil
}

// wholeDays floors, matching timedelta-style day counts: a timestamp
// slightly ahead of the fetch clock counts as -1, not 0.
func wholeDays(now time.Time, t *time.Time) *int {
	if t == nil {
		return nil
	}
	d := int(math.Floor(now.Sub(*t).Hours() / 24))
	return &d
}

func secondsToHours(seconds *int64) *float64 {
	if seconds == nil {
		return nil
	}
	h := math.Round(float64(*seconds)/3600*10) / 10
	return &h
}

// extractText handles the two shapes the description field takes: a
// plain string passes through, an ADF tree is flattened depth-first
// collecting every "text" node payload joined by single spaces.
func extractText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var doc ADFNode
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	var parts []string
	var walk func(n ADFNode)
	walk = func(n ADFNode) {
		if n.Type == "text" {
			parts = append(parts, n.Text)
		}
		for _, child := range n.Content {
			walk(child)
		}
	}
	walk(doc)
	return strings.Join(parts, " ")
}
