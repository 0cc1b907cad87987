package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRequest(t *testing.T, handler gin.HandlerFunc, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, "/api/v1/conversations", nil)
	if origin != "" {
		c.Request.Header.Set("Origin", origin)
	}
	handler(c)
	return rec
}

func TestCORSAllowlistedOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := CORS([]string{"https://portal.example.com"})

	rec := corsRequest(t, handler, "GET", "https://portal.example.com")
	require.Equal(t, "https://portal.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", rec.Header().Get("Vary"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCORSUnknownOriginGetsNoGrant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := CORS([]string{"https://portal.example.com"})

	rec := corsRequest(t, handler, "GET", "https://evil.example.net")
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSEmptyAllowlistGrantsAny(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := CORS(nil)

	rec := corsRequest(t, handler, "GET", "https://anywhere.example.com")
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := CORS(nil)

	rec := corsRequest(t, handler, "OPTIONS", "https://portal.example.com")
	require.Equal(t, http.StatusNoContent, rec.Code)
}
