// Package services defines the business logic of the offer engine: the
// version store that keeps every offer paired with its iteration history, the
// orchestrator that runs the expand, evolve and save workflows, and the read
// side used by the HTTP layer.
//
// This file centralizes service-level error values and the ErrorKind
// classification so that handlers can translate outcomes into HTTP results
// consistently.
package services

import (
	"errors"

	"github.com/tbourn/go-offer-engine/internal/contract"
	"github.com/tbourn/go-offer-engine/internal/llm"
	"github.com/tbourn/go-offer-engine/internal/prompt"
)

var (
	// ErrNotFound indicates that the requested offer (or report) does not
	// exist or is not owned by the caller's brand.
	ErrNotFound = errors.New("offer not found")

	// ErrPersistence wraps storage failures, including failed compensation.
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrorKind is the stable, caller-facing failure category of a workflow.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	KindProviderRateLimited ErrorKind = "provider_rate_limited"
	KindMalformedOutput     ErrorKind = "malformed_output"
	KindContractViolation   ErrorKind = "contract_violation"
	KindNotFound            ErrorKind = "not_found"
	KindPersistenceFailure  ErrorKind = "persistence_failure"
	KindInvalidInput        ErrorKind = "invalid_input"
)

// Classify maps an error from any layer below the orchestrator onto a kind.
// Unknown errors are treated as persistence failures since storage is the
// only remaining dependency.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, llm.ErrProviderRateLimited):
		return KindProviderRateLimited
	case errors.Is(err, llm.ErrProviderUnavailable):
		return KindProviderUnavailable
	case errors.Is(err, contract.ErrMalformedOutput):
		return KindMalformedOutput
	case errors.Is(err, contract.ErrContractViolation):
		return KindContractViolation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, prompt.ErrInvalidContext):
		return KindInvalidInput
	default:
		return KindPersistenceFailure
	}
}
