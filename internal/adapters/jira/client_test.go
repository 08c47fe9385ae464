package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rfjolnisson/belmond-bug-tracker/internal/config"
	"github.com/rs/zerolog"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		JiraBaseURL:   baseURL,
		JiraUsername:  "user@example.com",
		JiraAPIToken:  "token",
		EpicKeys:      []string{"ST-1746", "ST-2049"},
		PageSize:      100,
		SearchTimeout: 5 * time.Second,
		PingTimeout:   2 * time.Second,
	}
}

func issuesPage(start, n int) []RawIssue {
	out := make([]RawIssue, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, RawIssue{Key: fmt.Sprintf("ST-%d", start+i+1)})
	}
	return out
}

func TestSearchAll_Pagination(t *testing.T) {
	const total = 250
	var offsets []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/search/jql" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if _, _, ok := r.BasicAuth(); !ok {
			t.Errorf("missing basic auth")
		}
		q := r.URL.Query()
		if got := q.Get("jql"); !strings.Contains(got, "ST-1746") {
			t.Errorf("jql = %q", got)
		}
		if fields := q.Get("fields"); !strings.Contains(fields, "timeoriginalestimate") || !strings.Contains(fields, "description") {
			t.Errorf("fields allow-list incomplete: %q", fields)
		}
		start, _ := strconv.Atoi(q.Get("startAt"))
		offsets = append(offsets, start)
		n := total - start
		if n > 100 {
			n = 100
		}
		_ = json.NewEncoder(w).Encode(searchResponse{
			StartAt: start, MaxResults: 100, Total: total, Issues: issuesPage(start, n),
		})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	issues, err := c.SearchAll(context.Background())
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	if len(issues) != total {
		t.Fatalf("got %d issues, want %d", len(issues), total)
	}
	wantOffsets := []int{0, 100, 200}
	if len(offsets) != len(wantOffsets) {
		t.Fatalf("made %d requests (%v), want %v", len(offsets), offsets, wantOffsets)
	}
	for i, want := range wantOffsets {
		if offsets[i] != want {
			t.Fatalf("request %d at offset %d, want %d", i, offsets[i], want)
		}
	}
	// Server order preserved.
	if issues[0].Key != "ST-1" || issues[249].Key != "ST-250" {
		t.Fatalf("order not preserved: first=%s last=%s", issues[0].Key, issues[249].Key)
	}
}

func TestSearchAll_EmptyResult(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_ = json.NewEncoder(w).Encode(searchResponse{Total: 0})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	issues, err := c.SearchAll(context.Background())
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("got %d issues, want 0", len(issues))
	}
	if requests != 1 {
		t.Fatalf("made %d requests, want 1", requests)
	}
}

func TestSearchAll_SecondPageFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		if start > 0 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(searchResponse{Total: 250, Issues: issuesPage(0, 100)})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	issues, err := c.SearchAll(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if issues != nil {
		t.Fatalf("expected no partial result, got %d issues", len(issues))
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error type %T, want *TransportError", err)
	}
	if te.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d", te.Status)
	}
}

func TestSearchAll_NonOKIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	if _, err := c.SearchAll(context.Background()); err == nil {
		t.Fatalf("expected error on 401")
	}
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/myself" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"accountId": "abc"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	if !c.TestConnection(context.Background()) {
		t.Fatalf("expected connection ok")
	}
}

func TestTestConnection_FailureIsBoolean(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	if c.TestConnection(context.Background()) {
		t.Fatalf("expected false on 403")
	}
}

func TestIssueHistory_DegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	if got := c.IssueHistory(context.Background(), "ST-1"); len(got) != 0 {
		t.Fatalf("expected empty history, got %d", len(got))
	}
}

func TestIssueHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue/ST-1" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("expand") != "changelog" {
			t.Errorf("expand = %q", r.URL.Query().Get("expand"))
		}
		_, _ = w.Write([]byte(`{"changelog":{"histories":[{"id":"100","items":[{"field":"status","fromString":"To Do","toString":"In Progress"}]}]}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), zerolog.Nop())
	got := c.IssueHistory(context.Background(), "ST-1")
	if len(got) != 1 || len(got[0].Items) != 1 || got[0].Items[0].ToString != "In Progress" {
		t.Fatalf("history = %#v", got)
	}
}
