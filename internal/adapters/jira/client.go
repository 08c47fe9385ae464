package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rfjolnisson/belmond-bug-tracker/internal/config"
	"github.com/rs/zerolog"
)

// searchFields is the explicit allow-list requested per page. Asking for
// exactly what normalization consumes keeps response payloads small.
var searchFields = []string{
	"summary",
	"status",
	"priority",
	"assignee",
	"reporter",
	"created",
	"updated",
	"resolutiondate",
	"fixVersions",
	"parent",
	"issuetype",
	"labels",
	"components",
	"timeoriginalestimate",
	"timeestimate",
	"timespent",
	"aggregatetimeoriginalestimate",
	"aggregatetimeestimate",
	"aggregatetimespent",
	"description",
	"resolution",
}

// TransportError wraps any network or HTTP-level failure. 4xx and 5xx
// are not distinguished: every non-2xx aborts the fetch without retry.
type TransportError struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("jira: %s %s: status=%d", e.Op, e.URL, e.Status)
	}
	return fmt.Sprintf("jira: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type Client struct {
	baseURL  string
	username string
	token    string
	jql      string
	pageSize int
	http     *http.Client
	ping     *http.Client
	log      zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.JiraBaseURL, "/"),
		username: cfg.JiraUsername,
		token:    cfg.JiraAPIToken,
		jql:      cfg.JQL(),
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: cfg.SearchTimeout},
		ping:     &http.Client{Timeout: cfg.PingTimeout},
		log:      log,
	}
}

func (c *Client) apiURL(path string, q url.Values) string {
	u := c.baseURL + path
	if len(q) > 0 {
		u = u + "?" + q.Encode()
	}
	return u
}

func (c *Client) get(ctx context.Context, hc *http.Client, op, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &TransportError{Op: op, URL: u, Err: err}
	}
	req.SetBasicAuth(c.username, c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return &TransportError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Warn().Int("status", resp.StatusCode).Str("op", op).Str("body", strings.TrimSpace(string(b))).Msg("jira request failed")
		return &TransportError{Op: op, URL: u, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, URL: u, Err: err}
	}
	return nil
}

// SearchAll pages through every issue matching the configured JQL and
// returns them in server order. The result is all-or-nothing: the first
// transport failure aborts the fetch with no partial slice.
func (c *Client) SearchAll(ctx context.Context) ([]RawIssue, error) {
	var all []RawIssue
	startAt := 0
	for {
		page, err := c.searchPage(ctx, startAt)
		if err != nil {
			return nil, err
		}
		if len(page.Issues) == 0 {
			break
		}
		all = append(all, page.Issues...)
		if len(all) >= page.Total {
			break
		}
		startAt += c.pageSize
	}
	c.log.Info().Int("issues", len(all)).Str("jql", c.jql).Msg("jira search complete")
	return all, nil
}

func (c *Client) searchPage(ctx context.Context, startAt int) (*searchResponse, error) {
	q := url.Values{}
	q.Set("jql", c.jql)
	q.Set("startAt", strconv.Itoa(startAt))
	q.Set("maxResults", strconv.Itoa(c.pageSize))
	q.Set("fields", strings.Join(searchFields, ","))
	u := c.apiURL("/rest/api/3/search/jql", q)

	var page searchResponse
	if err := c.get(ctx, c.http, "search", u, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TestConnection probes /myself. It is a diagnostic: failures are
// reported as false rather than propagated.
func (c *Client) TestConnection(ctx context.Context) bool {
	u := c.apiURL("/rest/api/3/myself", nil)
	var me struct {
		AccountID string `json:"accountId"`
	}
	if err := c.get(ctx, c.ping, "myself", u, &me); err != nil {
		c.log.Warn().Err(err).Msg("jira connection test failed")
		return false
	}
	return true
}

// IssueHistory fetches the changelog for one issue. Errors degrade to
// an empty history so a missing changelog never breaks a view.
func (c *Client) IssueHistory(ctx context.Context, key string) []ChangeHistory {
	if key == "" {
		return nil
	}
	q := url.Values{}
	q.Set("expand", "changelog")
	u := c.apiURL("/rest/api/3/issue/"+url.PathEscape(key), q)

	var out struct {
		Changelog struct {
			Histories []ChangeHistory `json:"histories"`
		} `json:"changelog"`
	}
	if err := c.get(ctx, c.http, "history", u, &out); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("jira history fetch failed")
		return nil
	}
	return out.Changelog.Histories
}
