// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case.
//   - Generic codes (e.g., bad_request, not_found) mirror common HTTP status semantics.
//   - Workflow codes are the services.ErrorKind values verbatim, so a client sees the
//     same category whether it calls the library or the API.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "contract_violation",
//	  "message": "contract violation: bonus_stack must contain at least one item"
//	}
package handlers

import (
	"net/http"

	"github.com/tbourn/go-offer-engine/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeListFailed       = "list_failed"

	// Workflow kinds.
	ErrCodeProviderUnavailable = string(services.KindProviderUnavailable)
	ErrCodeProviderRateLimited = string(services.KindProviderRateLimited)
	ErrCodeMalformedOutput     = string(services.KindMalformedOutput)
	ErrCodeContractViolation   = string(services.KindContractViolation)
	ErrCodePersistenceFailure  = string(services.KindPersistenceFailure)
	ErrCodeInvalidInput        = string(services.KindInvalidInput)
)

// statusForKind maps a workflow ErrorKind onto its HTTP status.
func statusForKind(k services.ErrorKind) int {
	switch k {
	case services.KindInvalidInput:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindProviderRateLimited:
		return http.StatusTooManyRequests
	case services.KindProviderUnavailable, services.KindMalformedOutput, services.KindContractViolation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
