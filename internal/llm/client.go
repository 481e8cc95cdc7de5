// Package llm is the offer engine's only outbound dependency on a generative
// text provider. A Client performs exactly one call per Generate: no retries,
// no caching, no inspection of the returned text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tbourn/go-offer-engine/internal/prompt"
)

var (
	// ErrProviderUnavailable covers network failures, timeouts, non-2xx
	// responses and empty completions.
	ErrProviderUnavailable = errors.New("generation provider unavailable")
	// ErrProviderRateLimited is returned when the provider answers 429.
	ErrProviderRateLimited = errors.New("generation provider rate limited")
)

// Client sends a composed prompt and returns the provider's raw text.
type Client interface {
	Generate(ctx context.Context, p prompt.Prompt) (string, error)
}

// Settings configures a provider client.
type Settings struct {
	Provider    string        // openai|static
	Model       string        // e.g. gpt-4o-mini
	APIKey      string        // bearer key
	BaseURL     string        // optional OpenAI-compatible gateway
	Temperature float64       // [0,2]
	Timeout     time.Duration // per call; 0 means caller's deadline only
}

// New returns the client named by s.Provider.
func New(s Settings) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "static":
		return Instrument("static", NewStatic()), nil
	case "openai", "":
		c, err := NewOpenAI(s)
		if err != nil {
			return nil, err
		}
		return Instrument("openai", c), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", s.Provider)
	}
}

// OpenAI implements Client with chat completions.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

// NewOpenAI validates s and builds the SDK client once.
func NewOpenAI(s Settings) (*OpenAI, error) {
	if s.APIKey == "" {
		return nil, errors.New("llm api key missing; set LLM_API_KEY")
	}
	if s.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       s.Model,
		temperature: s.Temperature,
		timeout:     s.Timeout,
	}, nil
}

// Generate sends p as a system + user message pair.
func (o *OpenAI) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(p.System),
		openai.UserMessage(p.Text),
	}
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    msgs,
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrProviderUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps SDK errors onto the package sentinels, keeping the cause.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrProviderRateLimited, err)
	}
	return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
}
