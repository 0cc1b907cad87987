package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/propdesk/propdesk/internal/job"
	"github.com/propdesk/propdesk/internal/pkg/response"
	"github.com/propdesk/propdesk/internal/repo"
)

type AdminHandler struct {
	retention *job.RetentionJob
	runs      *repo.RetentionRepo
}

func NewAdminHandler(retention *job.RetentionJob, runs *repo.RetentionRepo) *AdminHandler {
	return &AdminHandler{retention: retention, runs: runs}
}

// RunRetention triggers a retention pass inline. The job serializes
// against the scheduled run, so this can only delay, never duplicate.
func (h *AdminHandler) RunRetention(c *gin.Context) {
	if err := h.retention.Run(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	lastRun, err := h.runs.LastRunAt(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true, "last_run_at": lastRun})
}
