package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/propdesk/propdesk/internal/model"
	"github.com/propdesk/propdesk/internal/pkg/errcode"
	"github.com/propdesk/propdesk/internal/pkg/jwt"
	"github.com/propdesk/propdesk/internal/pkg/response"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

// JWTAuth verifies the bearer token minted by the external auth service
// and exposes the owner id and role to handlers. Tokens with an unknown
// role are rejected here so handlers can trust the role value.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, errcode.ErrUnauthorized, "missing authorization")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, errcode.ErrUnauthorized, "invalid authorization")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(parts[1], secret)
		if err != nil {
			response.Error(c, errcode.ErrUnauthorized, "invalid token")
			c.Abort()
			return
		}
		if claims.UserID == "" || !model.IsValidRole(claims.Role) {
			response.Error(c, errcode.ErrUnauthorized, "invalid token claims")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// RequireAdmin guards the operational endpoints. It must run after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextRoleKey)
		if role != model.RoleAdmin {
			response.Error(c, errcode.ErrForbidden, "admin only")
			c.Abort()
			return
		}
		c.Next()
	}
}
