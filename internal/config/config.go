package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingCredentials is returned by Load when the required Jira
// credentials are absent. There is no local recovery: callers are
// expected to treat it as fatal at startup.
var ErrMissingCredentials = errors.New("config: JIRA_USERNAME and JIRA_API_TOKEN must be set")

type Config struct {
	AppEnv   string
	HTTPAddr string

	JiraBaseURL  string
	JiraUsername string
	JiraAPIToken string
	EpicKeys     []string
	PageSize     int

	SearchTimeout time.Duration
	PingTimeout   time.Duration

	CacheTTL    time.Duration
	RefreshCron string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" { return def }
	return v
}

func atoi(key string, def int) int {
	v := os.Getenv(key)
	if v == "" { return def }
	i, err := strconv.Atoi(v)
	if err != nil { return def }
	return i
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" { return def }
	d, err := time.ParseDuration(v)
	if err != nil { return def }
	return d
}

func parseStrings(csv string) []string {
	if csv == "" { return nil }
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" { continue }
		out = append(out, p)
	}
	return out
}

func Load() (Config, error) {
	// .env is optional; env vars win when both are present.
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:   getenv("APP_ENV", "dev"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		JiraBaseURL:  strings.TrimRight(getenv("JIRA_BASE_URL", "https://kaptio.atlassian.net"), "/"),
		JiraUsername: getenv("JIRA_USERNAME", ""),
		JiraAPIToken: getenv("JIRA_API_TOKEN", ""),
		EpicKeys:     parseStrings(getenv("EPIC_KEYS", "ST-1746,ST-2049")),
		PageSize:     atoi("PAGE_SIZE", 100),

		SearchTimeout: dur("SEARCH_TIMEOUT", 30*time.Second),
		PingTimeout:   dur("PING_TIMEOUT", 10*time.Second),

		CacheTTL:    dur("CACHE_TTL", 5*time.Minute),
		RefreshCron: getenv("REFRESH_CRON", ""),
	}

	if cfg.JiraUsername == "" || cfg.JiraAPIToken == "" {
		return Config{}, ErrMissingCredentials
	}
	if len(cfg.EpicKeys) == 0 {
		return Config{}, fmt.Errorf("config: EPIC_KEYS must name at least one epic")
	}
	// Jira rejects pages above 100; clamp rather than fail.
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		cfg.PageSize = 100
	}
	return cfg, nil
}

// JQL renders the fixed search expression for the configured epics.
func (c Config) JQL() string {
	return fmt.Sprintf("parent IN (%s) ORDER BY fixVersion ASC, rank", strings.Join(c.EpicKeys, ", "))
}
