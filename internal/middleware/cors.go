package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// The /api/v1 surface is consumed by external presentation layers (broker
// portals, back-office tools); only the methods and headers those actually
// send are advertised.
const (
	corsMethods = "GET, POST, DELETE, OPTIONS"
	corsHeaders = "Authorization, Content-Type"
	corsMaxAge  = "600"
)

// CORS admits the configured origins. An empty allowlist grants any origin,
// the usual local-development setting.
func CORS(allowlist []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, origin := range allowlist {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			allowed[trimmed] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		grant := ""
		switch {
		case len(allowed) == 0:
			grant = "*"
		default:
			origin := c.GetHeader("Origin")
			if _, ok := allowed[origin]; ok && origin != "" {
				grant = origin
				c.Writer.Header().Set("Vary", "Origin")
			}
		}
		if grant != "" {
			header := c.Writer.Header()
			header.Set("Access-Control-Allow-Origin", grant)
			header.Set("Access-Control-Allow-Methods", corsMethods)
			header.Set("Access-Control-Allow-Headers", corsHeaders)
			header.Set("Access-Control-Max-Age", corsMaxAge)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
