package middleware

import (
	"net/http"
	"strings"

	"github.com/FRI2020/talk-trace/internal/auth"

	"github.com/gin-gonic/gin"
)

// OperatorAuth protects the dashboard endpoints with a bearer token issued
// by /auth/login. jwtManager may be nil when no operator credentials are
// configured, in which case the routes stay open.
func OperatorAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtManager == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		claims, err := jwtManager.Verify(header[len("Bearer "):])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("operator", claims.Username)
		c.Next()
	}
}
