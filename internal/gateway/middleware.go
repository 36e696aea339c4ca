package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/daoch4n/zen-router/internal/gwerrors"
)

// corsMiddleware sets the wide-open CORS headers every response (success
// or error) carries, and short-circuits OPTIONS preflight requests with
// a bare 204 before the auth and colo-gating middleware run.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "*")
		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// coloGateMiddleware rejects requests originating from a denylisted
// edge colo, identified by the cf.colo header the edge runtime injects.
// The deny list is read fresh from denyList on every request so a
// config hot-reload takes effect without restarting the process.
func coloGateMiddleware(denyList func() []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		colo := c.GetHeader("cf.colo")
		if colo != "" {
			for _, denied := range denyList() {
				if strings.EqualFold(colo, denied) {
					c.Error(gwerrors.New(http.StatusTooManyRequests, gwerrors.CodeRateLimited, "requests from colo "+colo+" are not accepted"))
					c.Abort()
					return
				}
			}
		}
		c.Next()
	}
}

// clientAuthMiddleware authenticates the client's bearer token against
// the configured gateway password via credpool.Authenticate.
func clientAuthMiddleware(authenticate func(bearer string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if bearer == "" || !authenticate(bearer) {
			c.Error(gwerrors.Unauthorized("missing or invalid bearer token"))
			c.Abort()
			return
		}
		c.Next()
	}
}
