package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/propdesk/propdesk/internal/pkg/errcode"
	"github.com/propdesk/propdesk/internal/pkg/response"
	"github.com/propdesk/propdesk/internal/service"
)

type SessionHandler struct {
	sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) List(c *gin.Context) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 20)
	days := intQuery(c, "days", 0)
	if page < 0 || limit < 0 || days < 0 {
		response.Error(c, errcode.ErrInvalid, "invalid paging")
		return
	}
	result, err := h.sessions.List(c.Request.Context(), getCaller(c), page, limit, days)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *SessionHandler) Recent(c *gin.Context) {
	days := intQuery(c, "days", 0)
	limit := intQuery(c, "limit", 0)
	if days < 0 || limit < 0 {
		response.Error(c, errcode.ErrInvalid, "invalid paging")
		return
	}
	items, err := h.sessions.Recent(c.Request.Context(), getCaller(c), days, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

func (h *SessionHandler) Messages(c *gin.Context) {
	limit := intQuery(c, "limit", 0)
	if limit < 0 {
		response.Error(c, errcode.ErrInvalid, "invalid paging")
		return
	}
	items, err := h.sessions.ListMessages(c.Request.Context(), getCaller(c), c.Param("id"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), getCaller(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
