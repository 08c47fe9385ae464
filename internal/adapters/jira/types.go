package jira

import "encoding/json"

// Raw wire shapes for /rest/api/3/search/jql. The API is weakly typed:
// nearly everything is optional, so pointer fields mark absence. None
// of these types escape this package; normalization converts them to
// domain.Bug at the boundary.

type searchResponse struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []RawIssue `json:"issues"`
}

type RawIssue struct {
	ID     string    `json:"id"`
	Key    string    `json:"key"`
	Fields RawFields `json:"fields"`
}

type RawFields struct {
	Summary        string   `json:"summary"`
	Status         *Named   `json:"status"`
	Priority       *Named   `json:"priority"`
	Assignee       *User    `json:"assignee"`
	Reporter       *User    `json:"reporter"`
	Created        string   `json:"created"`
	Updated        string   `json:"updated"`
	ResolutionDate string   `json:"resolutiondate"`
	FixVersions    []Named  `json:"fixVersions"`
	Parent         *Parent  `json:"parent"`
	IssueType      *Named   `json:"issuetype"`
	Labels         []string `json:"labels"`
	Components     []Named  `json:"components"`

	// Time tracking, in seconds. nil means not estimated/logged.
	TimeOriginalEstimate          *int64 `json:"timeoriginalestimate"`
	TimeEstimate                  *int64 `json:"timeestimate"`
	TimeSpent                     *int64 `json:"timespent"`
	AggregateTimeOriginalEstimate *int64 `json:"aggregatetimeoriginalestimate"`
	AggregateTimeEstimate         *int64 `json:"aggregatetimeestimate"`
	AggregateTimeSpent            *int64 `json:"aggregatetimespent"`

	// Either a plain string (API v2 style) or an ADF document tree.
	// Kept raw and decoded during normalization.
	Description json.RawMessage `json:"description"`
	Resolution  *Named          `json:"resolution"`
}

type Named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

type Parent struct {
	Key    string        `json:"key"`
	Fields *ParentFields `json:"fields"`
}

type ParentFields struct {
	Summary string `json:"summary"`
}

// ADFNode is one node of an Atlassian Document Format tree: a "text"
// leaf carrying a payload, or a container with nested content.
type ADFNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []ADFNode `json:"content"`
}

// ChangeHistory is one changelog entry from the issue-history endpoint.
type ChangeHistory struct {
	ID      string       `json:"id"`
	Author  *User        `json:"author"`
	Created string       `json:"created"`
	Items   []ChangeItem `json:"items"`
}

type ChangeItem struct {
	Field      string `json:"field"`
	FromString string `json:"fromString"`
	ToString   string `json:"toString"`
}
