package config

import (
	"errors"
	"testing"
	"time"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("JIRA_USERNAME", "bot@belmond.example")
	t.Setenv("JIRA_API_TOKEN", "secret")
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("JIRA_USERNAME", "")
	t.Setenv("JIRA_API_TOKEN", "")
	if _, err := Load(); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}

	t.Setenv("JIRA_USERNAME", "bot@belmond.example")
	if _, err := Load(); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("token still missing, err = %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setCredentials(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.PageSize != 100 {
		t.Fatalf("PageSize = %d", cfg.PageSize)
	}
	if cfg.SearchTimeout != 30*time.Second || cfg.PingTimeout != 10*time.Second {
		t.Fatalf("timeouts = %v / %v", cfg.SearchTimeout, cfg.PingTimeout)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("CacheTTL = %v", cfg.CacheTTL)
	}
	if len(cfg.EpicKeys) != 2 || cfg.EpicKeys[0] != "ST-1746" || cfg.EpicKeys[1] != "ST-2049" {
		t.Fatalf("EpicKeys = %v", cfg.EpicKeys)
	}
}

func TestLoad_TrimsBaseURL(t *testing.T) {
	setCredentials(t)
	t.Setenv("JIRA_BASE_URL", "https://jira.example.com/")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JiraBaseURL != "https://jira.example.com" {
		t.Fatalf("JiraBaseURL = %q", cfg.JiraBaseURL)
	}
}

func TestLoad_ClampsPageSize(t *testing.T) {
	setCredentials(t)
	for _, v := range []string{"0", "-5", "500", "garbage"} {
		t.Setenv("PAGE_SIZE", v)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load with PAGE_SIZE=%q: %v", v, err)
		}
		if cfg.PageSize != 100 {
			t.Fatalf("PAGE_SIZE=%q clamped to %d", v, cfg.PageSize)
		}
	}
	t.Setenv("PAGE_SIZE", "50")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 50 {
		t.Fatalf("PageSize = %d", cfg.PageSize)
	}
}

func TestLoad_EmptyEpicKeys(t *testing.T) {
	setCredentials(t)
	t.Setenv("EPIC_KEYS", " , ,")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for empty EPIC_KEYS")
	}
}

func TestJQL(t *testing.T) {
	c := Config{EpicKeys: []string{"ST-1746", "ST-2049"}}
	want := "parent IN (ST-1746, ST-2049) ORDER BY fixVersion ASC, rank"
	if got := c.JQL(); got != want {
		t.Fatalf("JQL() = %q, want %q", got, want)
	}
}
