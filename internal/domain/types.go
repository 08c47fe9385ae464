package domain

import "time"

// Bug is the flat, strongly-typed form of a Jira issue. Every field is
// derived during normalization; missing or malformed source data
// degrades to the documented default instead of failing.
type Bug struct {
	Key           string     `json:"key"`
	Summary       string     `json:"summary"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	Assignee      string     `json:"assignee"`
	AssigneeEmail *string    `json:"assignee_email"`
	Reporter      string     `json:"reporter"`
	Created       *time.Time `json:"created"`
	Updated       *time.Time `json:"updated"`
	Resolved      *time.Time `json:"resolved"`

	// Whole days between the fetch clock and Updated/Created; nil when
	// the source timestamp is missing.
	TimeInStatusDays *int `json:"time_in_status_days"`
	AgeDays          *int `json:"age_days"`

	FixVersion  string   `json:"fix_version"`
	FixVersions []string `json:"fix_versions"`

	ParentKey     string `json:"parent_key"`
	ParentSummary string `json:"parent_summary"`

	IssueType  string   `json:"issue_type"`
	Labels     []string `json:"labels"`
	Components []string `json:"components"`

	TimeOriginalEstimateHours *float64 `json:"time_original_estimate_hours"`
	TimeEstimateHours         *float64 `json:"time_estimate_hours"`
	TimeSpentHours            *float64 `json:"time_spent_hours"`

	Resolution  *string `json:"resolution"`
	Description string  `json:"description"`
	URL         string  `json:"url"`
}

// Snapshot is one complete fetch cycle. Identity does not persist
// across fetches: every refresh produces a fresh snapshot.
type Snapshot struct {
	ID        string    `json:"snapshot_id"`
	FetchedAt time.Time `json:"fetched_at"`
	Bugs      []Bug     `json:"bugs"`
}

// Status groupings used across the reporting views. These mirror the
// board's workflow names, not Jira status categories.
var (
	doneStatuses     = set("Done", "Resolved", "Closed")
	devStatuses      = set("In Progress", "In Development")
	qaStatuses       = set("Ready for QA", "In QA", "Testing", "In Review")
	todoStatuses     = set("To Do", "Open", "Backlog", "Selected for Development")
	inactiveStatuses = set("Done", "Rejected", "Closed", "Resolved", "Won't Fix", "Cancelled")
)

func set(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func IsDone(status string) bool { _, ok := doneStatuses[status]; return ok }
func IsDev(status string) bool  { _, ok := devStatuses[status]; return ok }
func IsQA(status string) bool   { _, ok := qaStatuses[status]; return ok }
func IsTodo(status string) bool { _, ok := todoStatuses[status]; return ok }

// IsActive reports whether a bug still needs work: anything not closed
// out in one form or another.
func IsActive(status string) bool { _, ok := inactiveStatuses[status]; return !ok }

// IsOpen is the aging-analysis notion of open: not finished and not
// discarded. It differs from IsActive only in not excluding Cancelled.
func IsOpen(status string) bool {
	switch status {
	case "Done", "Resolved", "Closed", "Rejected", "Won't Fix":
		return false
	}
	return true
}
