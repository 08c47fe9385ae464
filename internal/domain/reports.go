package domain

// Report payloads served by the HTTP layer. Shapes follow what the
// dashboard views need, nothing more.

type Summary struct {
	Total           int          `json:"total"`
	Done            int          `json:"done"`
	DonePct         float64      `json:"done_pct"`
	InDev           int          `json:"in_dev"`
	InQA            int          `json:"in_qa"`
	ToDo            int          `json:"to_do"`
	ActiveBlockers  int          `json:"active_blockers"`
	ActiveCriticals int          `json:"active_criticals"`
	Matrix          []MatrixCell `json:"priority_status_matrix"`
	Alerts          []Alert      `json:"blocker_alerts"`
}

type MatrixCell struct {
	Priority string `json:"priority"`
	Status   string `json:"status"`
	Count    int    `json:"count"`
}

// Alert is an active blocker surfaced at the top of the summary.
type Alert struct {
	Key          string `json:"key"`
	Summary      string `json:"summary"`
	Status       string `json:"status"`
	Assignee     string `json:"assignee"`
	DaysInStatus *int   `json:"days_in_status"`
	Stuck        bool   `json:"stuck"`
	URL          string `json:"url"`
}

type AgingBucket struct {
	Label      string         `json:"label"`
	Count      int            `json:"count"`
	ByPriority map[string]int `json:"by_priority"`
}

type AgingReport struct {
	OpenTotal int           `json:"open_total"`
	Buckets   []AgingBucket `json:"buckets"`
}

type CycleTimeStat struct {
	Priority   string  `json:"priority"`
	AvgDays    float64 `json:"avg_days"`
	MedianDays float64 `json:"median_days"`
	Resolved   int     `json:"resolved"`
}

type MonthlyVelocity struct {
	Month    string `json:"month"` // YYYY-MM
	Created  int    `json:"created"`
	Resolved int    `json:"resolved"`
}

type VelocityReport struct {
	Months    []MonthlyVelocity `json:"months"`
	NetChange int               `json:"net_change_last_3_months"`
}

type AssigneeLoad struct {
	Assignee          string   `json:"assignee"`
	Active            int      `json:"active"`
	Blockers          int      `json:"blockers"`
	Criticals         int      `json:"criticals"`
	InDev             int      `json:"in_dev"`
	InQA              int      `json:"in_qa"`
	Resolved          int      `json:"resolved"`
	AvgResolutionDays *float64 `json:"avg_resolution_days"`
	AvgDaysInStatus   *float64 `json:"avg_days_in_status"`
	Overloaded        bool     `json:"overloaded"`
}

type WorkloadReport struct {
	Assignees              []AssigneeLoad `json:"assignees"`
	UnassignedHighPriority []Bug          `json:"unassigned_high_priority"`
}

type BlockerRow struct {
	Bug
	Flag string `json:"flag"` // red / yellow / green by days in status
}

type BlockerReport struct {
	Blockers    int          `json:"blockers"`
	Criticals   int          `json:"criticals"`
	StuckOver3d int          `json:"stuck_over_3_days"`
	Unassigned  int          `json:"unassigned"`
	Rows        []BlockerRow `json:"rows"`
}

type FixVersionProgress struct {
	Version     string  `json:"version"`
	Total       int     `json:"total"`
	Done        int     `json:"done"`
	InProgress  int     `json:"in_progress"`
	ToDo        int     `json:"to_do"`
	PctComplete float64 `json:"pct_complete"`
	Blockers    int     `json:"blockers"`
	Criticals   int     `json:"criticals"`
}

type StatusTime struct {
	Status     string  `json:"status"`
	AvgDays    float64 `json:"avg_days"`
	MedianDays float64 `json:"median_days"`
	MaxDays    int     `json:"max_days"`
	Count      int     `json:"count"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type StatusFlowReport struct {
	TimeInStatus []StatusTime  `json:"time_in_status"`
	Stuck        []Bug         `json:"stuck_over_7_days"`
	Distribution []StatusCount `json:"distribution"`
}
