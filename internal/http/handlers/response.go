// Package handlers provides HTTP handler implementations for the public API.
//
// Every failure is written as an ErrorResponse with a stable code. Workflow
// failures carry their services.ErrorKind as the code, so a client sees the
// same vocabulary the orchestrator uses:
//
//	HTTP/1.1 502 Bad Gateway
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "malformed_output",
//	  "message": "generation output is not valid JSON"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-offer-engine/internal/http/middleware"
	"github.com/tbourn/go-offer-engine/internal/services"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Safe to show to users
	Message string `json:"message" example:"offer not found"`
}

// fail aborts with an ErrorResponse. 5xx responses are logged with the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is fail for the router's fallback handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// failResult writes the envelope for a failed workflow Result.
func failResult(c *gin.Context, r services.Result) {
	fail(c, statusForKind(r.ErrorKind), string(r.ErrorKind), r.Message)
}

// failErr classifies a service error and writes the matching envelope.
// Unclassified storage errors keep their detail out of the response.
func failErr(c *gin.Context, err error) {
	kind := services.Classify(err)
	msg := err.Error()
	if kind == services.KindPersistenceFailure && !errors.Is(err, services.ErrPersistence) {
		_ = c.Error(err)
		msg = "storage error"
	}
	fail(c, statusForKind(kind), string(kind), msg)
}
