package llm

import (
	"context"
	"fmt"

	"github.com/tbourn/go-offer-engine/internal/prompt"
)

// StaticPayload is a contract-valid response used for local runs.
const StaticPayload = `{"full_offer":{
  "promise":"Book 10 qualified sales calls in 30 days without paid ads",
  "mechanism":"The Warm Signal Outreach system",
  "bonus_stack":[
    {"title":"Done-for-you outreach scripts","value":"$497"},
    {"title":"Weekly pipeline review call","value":"$1,200"},
    {"title":"Private client community","value":"$300"}
  ],
  "guarantee":"10 calls in 30 days or we work with you free until you get them",
  "value_equation_math":{"score":8.2,"factors":{"outcome":9,"likelihood":8,"delay":3,"effort":4}}
}}`

// Static answers every request with the same text. The zero value returns
// StaticPayload.
type Static struct {
	Response string
	Err      error
}

// NewStatic returns a Static client serving StaticPayload.
func NewStatic() *Static { return &Static{Response: StaticPayload} }

// Generate returns s.Response, or s.Err when set.
func (s *Static) Generate(ctx context.Context, _ prompt.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if s.Err != nil {
		return "", s.Err
	}
	if s.Response == "" {
		return StaticPayload, nil
	}
	return s.Response, nil
}

// Func adapts a plain function to Client.
type Func func(ctx context.Context, p prompt.Prompt) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, p prompt.Prompt) (string, error) { return f(ctx, p) }
