package gwerrors

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddlewareRendersGWError(t *testing.T) {
	r := gin.New()
	r.Use(Middleware())
	r.GET("/x", func(c *gin.Context) {
		c.Error(BadRequest("bad model name"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMiddlewareFallsBackOnPlainError(t *testing.T) {
	r := gin.New()
	r.Use(Middleware())
	r.GET("/x", func(c *gin.Context) {
		c.Error(errors.New("boom"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 fallback, got %d", w.Code)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("upstream timed out")
	e := UpstreamTimeout("gemini request timed out", cause)
	if !errors.Is(e, cause) {
		t.Fatalf("expected Unwrap to expose cause")
	}
}
