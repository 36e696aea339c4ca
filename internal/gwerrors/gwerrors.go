// Package gwerrors defines the gateway's unified error type and the
// gin middleware that renders it as an OpenAI-compatible error body.
// Every handler returns one of these instead of writing JSON directly,
// so all error paths — dialect translation, credential auth, upstream
// failures, TTS job failures — funnel through one response shape.
package gwerrors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Code is a stable machine-readable error identifier, distinct from the
// HTTP status, so clients can branch on it without parsing messages.
type Code string

const (
	CodeInvalidRequest   Code = "invalid_request_error"
	CodeAuthentication   Code = "authentication_error"
	CodeNotFound         Code = "not_found_error"
	CodeMethodNotAllowed Code = "method_not_allowed_error"
	CodeRateLimited      Code = "rate_limit_error"
	CodeUpstream         Code = "upstream_error"
	CodeUpstreamTimeout  Code = "upstream_timeout_error"
	CodeContentFiltered  Code = "content_filter_error"
	CodeInternal         Code = "internal_error"
)

// Error is the gateway's unified error value. It implements the error
// interface so it can flow through normal Go error handling and still
// carry the HTTP status/code pair needed to render a response.
type Error struct {
	Status  int
	Code    Code
	Message string
	// Cause, if set, is wrapped for %w-style inspection but never
	// rendered to the client — upstream error text may contain details
	// that shouldn't leak (keys, internal hostnames).
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no wrapped cause.
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Wrap builds an Error that carries cause for logging, without leaking
// cause's text to the client response body.
func Wrap(status int, code Code, message string, cause error) *Error {
	return &Error{Status: status, Code: code, Message: message, Cause: cause}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeInvalidRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeAuthentication, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func MethodNotAllowed(message string) *Error {
	return New(http.StatusMethodNotAllowed, CodeMethodNotAllowed, message)
}

func Upstream(message string, cause error) *Error {
	return Wrap(http.StatusBadGateway, CodeUpstream, message, cause)
}

func UpstreamTimeout(message string, cause error) *Error {
	return Wrap(http.StatusGatewayTimeout, CodeUpstreamTimeout, message, cause)
}

func Internal(message string, cause error) *Error {
	return Wrap(http.StatusInternalServerError, CodeInternal, message, cause)
}

// body is the OpenAI-compatible error envelope.
type body struct {
	Error bodyDetail `json:"error"`
}

type bodyDetail struct {
	Message string `json:"message"`
	Type    Code   `json:"type"`
}

// Render writes e as a JSON error response in the OpenAI error shape.
func Render(c *gin.Context, e *Error) {
	c.AbortWithStatusJSON(e.Status, body{Error: bodyDetail{Message: e.Message, Type: e.Code}})
}

// Middleware catches errors attached to the gin context via c.Error and
// renders the last one attached if it is an *Error, falling back to a generic 500 for any
// other error type so a forgotten gwerrors.Wrap never leaks a raw Go
// error string to the client.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var gwErr *Error
		if errors.As(err, &gwErr) {
			Render(c, gwErr)
			return
		}
		Render(c, Internal("internal error", err))
	}
}
