package gateway

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/daoch4n/zen-router/internal/gwerrors"
)

// attachUpstreamError records err on the gin context so gwerrors.Middleware
// renders it; a plain error not already a *gwerrors.Error is wrapped as a
// generic upstream failure.
func attachUpstreamError(c *gin.Context, err error) {
	var gwErr *gwerrors.Error
	if errors.As(err, &gwErr) {
		c.Error(gwErr)
		return
	}
	c.Error(gwerrors.Upstream("upstream request failed", err))
}
