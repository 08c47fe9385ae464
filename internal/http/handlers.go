package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/adapters/jira"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/config"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/domain"
	"github.com/rfjolnisson/belmond-bug-tracker/internal/services"
	"github.com/rs/zerolog"
)

type service interface {
	Bugs(ctx context.Context) (*domain.Snapshot, error)
	ForceRefresh(ctx context.Context) (*domain.Snapshot, error)
	CheckConnection(ctx context.Context) bool
	History(ctx context.Context, key string) []jira.ChangeHistory
	Summary(ctx context.Context) (*domain.Snapshot, *domain.Summary, error)
	Aging(ctx context.Context) (*domain.Snapshot, *domain.AgingReport, error)
	CycleTime(ctx context.Context) (*domain.Snapshot, []domain.CycleTimeStat, error)
	Velocity(ctx context.Context) (*domain.Snapshot, *domain.VelocityReport, error)
	Workload(ctx context.Context) (*domain.Snapshot, *domain.WorkloadReport, error)
	Blockers(ctx context.Context, f services.Filter) (*domain.Snapshot, *domain.BlockerReport, error)
	FixVersions(ctx context.Context) (*domain.Snapshot, []domain.FixVersionProgress, error)
	StatusFlow(ctx context.Context) (*domain.Snapshot, *domain.StatusFlowReport, error)
	List(ctx context.Context, f services.Filter, sortBy string, desc bool) (*domain.Snapshot, []domain.Bug, error)
}

type Handlers struct {
	cfg config.Config
	log zerolog.Logger
	svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service) *Handlers {
	return &Handlers{cfg: cfg, log: log, svc: svc}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) JiraHealth(c *gin.Context) {
	connected := h.svc.CheckConnection(c.Request.Context())
	code := http.StatusOK
	if !connected {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"connected": connected})
}

func queryFilter(c *gin.Context) services.Filter {
	return services.Filter{
		Priorities: c.QueryArray("priority"),
		Statuses:   c.QueryArray("status"),
		Assignees:  c.QueryArray("assignee"),
		Epics:      c.QueryArray("epic"),
		Search:     c.Query("q"),
	}
}

func (h *Handlers) ListBugs(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", "key")
	desc := c.Query("order") == "desc"
	snap, bugs, err := h.svc.List(c.Request.Context(), queryFilter(c), sortBy, desc)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot_id": snap.ID,
		"fetched_at":  snap.FetchedAt,
		"count":       len(bugs),
		"bugs":        bugs,
	})
}

func (h *Handlers) BugHistory(c *gin.Context) {
	key := c.Param("key")
	histories := h.svc.History(c.Request.Context(), key)
	c.JSON(http.StatusOK, gin.H{"key": key, "count": len(histories), "histories": histories})
}

func (h *Handlers) Summary(c *gin.Context) {
	snap, sum, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, withMeta(snap, "summary", sum))
}

func (h *Handlers) Aging(c *gin.Context) {
	snap, rep, err := h.svc.Aging(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, withMeta(snap, "aging", rep))
}

func (h *Handlers) CycleTime(c *gin.Context) {
	snap, stats, err := h.svc.CycleTime(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, withMeta(snap, "cycle_time", stats))
}

func (h *Handlers) Velocity(c *gin.Context) {
	snap, rep, err := h.svc.Velocity(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, withMeta(snap, "velocity", rep))
}

func (h *Handlers) Workload(c *gin.Context) {
	snap, rep, err := h.svc.Workload(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, withMeta(snap, "workload", rep))
}

func (h *Handlers) Blockers(c *gin.Context) {
	snap, rep, err := h.svc.Blockers(c.Request.Context(), queryFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, withMeta(snap, "blockers", rep))
}

func (h *Handlers) FixVersions(c *gin.Context) {
	snap, progress, err := h.svc.FixVersions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, withMeta(snap, "fix_versions", progress))
}

func (h *Handlers) StatusFlow(c *gin.Context) {
	snap, rep, err := h.svc.StatusFlow(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, withMeta(snap, "status_flow", rep))
}

func (h *Handlers) ExportCSV(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", "key")
	desc := c.Query("order") == "desc"
	_, bugs, err := h.svc.List(c.Request.Context(), queryFilter(c), sortBy, desc)
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := services.ExportCSV(bugs)
	if err != nil {
		h.fail(c, err)
		return
	}
	name := "belmond_bugs_" + time.Now().Format("20060102") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *Handlers) ExportXLSX(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", "key")
	desc := c.Query("order") == "desc"
	_, bugs, err := h.svc.List(c.Request.Context(), queryFilter(c), sortBy, desc)
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := services.ExportXLSX(bugs)
	if err != nil {
		h.fail(c, err)
		return
	}
	name := "belmond_bugs_" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handlers) Refresh(c *gin.Context) {
	snap, err := h.svc.ForceRefresh(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot_id": snap.ID,
		"fetched_at":  snap.FetchedAt,
		"count":       len(snap.Bugs),
	})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	var te *jira.TransportError
	if errors.As(err, &te) {
		h.log.Error().Err(err).Msg("jira fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func withMeta(snap *domain.Snapshot, key string, payload any) gin.H {
	return gin.H{
		"snapshot_id": snap.ID,
		"fetched_at":  snap.FetchedAt,
		key:           payload,
	}
}
