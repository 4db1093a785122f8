package middleware

import (
	"net/http"

	"github.com/edirooss/nvr-server/internal/service"
	"github.com/gin-gonic/gin"
)

// APIKeyParam is the path parameter carrying the API key on /api/:apikey/... routes.
const APIKeyParam = "apikey"

// RequireSession blocks access unless the request carries a valid operator
// session. Responds with 401 Unauthorized otherwise.
func RequireSession(authsvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authsvc.AuthenticateWithSession(c); !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// RequireAPIKey blocks access unless the :apikey path parameter matches the
// configured key. Responds with 401 Unauthorized otherwise.
func RequireAPIKey(authsvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authsvc.AuthenticateWithAPIKey(c, c.Param(APIKeyParam)); !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
