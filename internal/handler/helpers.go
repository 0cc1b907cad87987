package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/propdesk/propdesk/internal/ai"
	"github.com/propdesk/propdesk/internal/middleware"
	"github.com/propdesk/propdesk/internal/pkg/errcode"
	appErr "github.com/propdesk/propdesk/internal/pkg/errors"
	"github.com/propdesk/propdesk/internal/pkg/response"
	"github.com/propdesk/propdesk/internal/service"
)

func getCaller(c *gin.Context) service.Caller {
	uid, _ := c.Get(middleware.ContextUserIDKey)
	role, _ := c.Get(middleware.ContextRoleKey)
	userID, _ := uid.(string)
	roleStr, _ := role.(string)
	return service.Caller{UserID: userID, Role: roleStr}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value := c.Query(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return parsed
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrUnsupportedFormat):
		response.Error(c, errcode.ErrUnsupportedFormat, "unsupported document format")
	case errors.Is(err, appErr.ErrGenerateFailed):
		response.Error(c, errcode.ErrGenerateFailed, "answer generation failed")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "model unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
