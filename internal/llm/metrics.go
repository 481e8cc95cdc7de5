package llm

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-offer-engine/internal/prompt"
)

var (
	// genReqs counts provider calls by provider and outcome
	// (ok|rate_limited|unavailable|error).
	genReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_generation_requests_total",
			Help: "Total number of generation provider calls.",
		},
		[]string{"provider", "outcome"},
	)

	// genLat records provider latency. Generation is slow, so buckets reach a minute.
	genLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "offer_generation_duration_seconds",
			Help:    "Duration of generation provider calls in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(genReqs, genLat)
}

const tracerName = "github.com/tbourn/go-offer-engine/internal/llm"

type instrumented struct {
	provider string
	next     Client
}

// Instrument wraps c with Prometheus metrics and an OpenTelemetry span.
func Instrument(provider string, c Client) Client {
	return &instrumented{provider: provider, next: c}
}

func (i *instrumented) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", i.provider),
		attribute.Int("llm.prompt_chars", len(p.Text)),
	)

	start := time.Now()
	out, err := i.next.Generate(ctx, p)
	genLat.WithLabelValues(i.provider).Observe(time.Since(start).Seconds())
	genReqs.WithLabelValues(i.provider, outcome(err)).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome(err))
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_chars", len(out)))
	return out, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrProviderRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrProviderUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
