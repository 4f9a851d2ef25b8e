package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-relay/app/tasks"
)

func NewHandler(scheduler tasks.TaskSchedulerInterface, version string) *Handler {
	return &Handler{
		scheduler: scheduler,
		version:   version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if report := h.scheduler.LastReport(); report != nil {
		health["last_run_at"] = report.FinishedAt.Format(time.RFC3339)
		health["last_run_aborted"] = report.Aborted
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	report := h.scheduler.LastReport()
	if report == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, report)
}
