package middleware

import (
	"strings"

	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/gin-gonic/gin"
)

const (
	principalContextKey = "email"
	roleContextKey      = "role_id"
)

// Authenticate resolves the request principal from a bearer token. Requests
// without a valid token are rejected with 401.
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			util.LogUnauthorizedAccess("", "", c.ClientIP(), c.Request.URL.Path, "missing bearer token")
			util.CallAppError(c, "Authentication required", util.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := util.ParseToken(strings.TrimSpace(token))
		if err != nil {
			util.LogUnauthorizedAccess("", "", c.ClientIP(), c.Request.URL.Path, "invalid token")
			util.CallAppError(c, "Invalid or expired token", err)
			c.Abort()
			return
		}

		c.Set(principalContextKey, claims.Email)
		c.Set(roleContextKey, claims.Role)
		c.Next()
	}
}

// GetPrincipal returns the e-mail of the authenticated caller.
func GetPrincipal(c *gin.Context) (string, bool) {
	email := c.GetString(principalContextKey)
	return email, email != ""
}

// GetRoleID returns the role carried by the caller's token.
func GetRoleID(c *gin.Context) (uint32, bool) {
	v, ok := c.Get(roleContextKey)
	if !ok {
		return 0, false
	}
	role, ok := v.(uint32)
	return role, ok
}
