package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireSession gates protected HTML routes. Unauthenticated requests are
// redirected to the login page instead of running the handler.
func RequireSession(sessions *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := sessions.UserID(c.Request)
		if !ok {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// BearerAuth enforces bearer JWT tokens signed with HS256 on API routes.
func BearerAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}
