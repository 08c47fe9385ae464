package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/config"
	"github.com/rs/zerolog"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc service) *gin.Engine {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		c.Next()
		log.Info().Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
	})

	h := NewHandlers(cfg, log, svc)

	r.GET("/healthz", h.Healthz)
	r.GET("/api/health/jira", h.JiraHealth)

	r.GET("/api/bugs", h.ListBugs)
	r.GET("/api/bugs/:key/history", h.BugHistory)
	r.GET("/api/summary", h.Summary)
	r.GET("/api/aging", h.Aging)
	r.GET("/api/cycle-time", h.CycleTime)
	r.GET("/api/velocity", h.Velocity)
	r.GET("/api/workload", h.Workload)
	r.GET("/api/blockers", h.Blockers)
	r.GET("/api/fix-versions", h.FixVersions)
	r.GET("/api/status-flow", h.StatusFlow)
	r.GET("/api/export.csv", h.ExportCSV)
	r.GET("/api/export.xlsx", h.ExportXLSX)

	r.POST("/admin/refresh", h.Refresh)

	return r
}
