// Package services – Orchestrator
//
// The Orchestrator runs the three public workflows of the engine:
//
//   - Expand: concept (+ optional research) -> candidate content, not persisted
//   - Evolve: current content + history + feedback -> candidate content, not persisted
//   - Save:   candidate content -> new offer, or next version of an existing one
//
// Each workflow returns a Result instead of an error so callers get one
// stable failure taxonomy (ErrorKind) regardless of which layer failed.
// Only Save writes to durable storage; a user may discard any number of
// Expand/Evolve candidates before committing one.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-offer-engine/internal/contract"
	"github.com/tbourn/go-offer-engine/internal/domain"
	"github.com/tbourn/go-offer-engine/internal/llm"
	"github.com/tbourn/go-offer-engine/internal/prompt"
	"github.com/tbourn/go-offer-engine/internal/research"
)

// ResearchStore supplies the text of a report owned by brandID.
type ResearchStore interface {
	ResearchText(ctx context.Context, brandID, reportID string) (string, error)
}

// Result is the outcome of a workflow. On success Value holds a
// domain.ContentBody (Expand, Evolve) or *domain.Offer (Save).
type Result struct {
	Success   bool      `json:"success"`
	Value     any       `json:"value,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
}

func ok(v any) Result { return Result{Success: true, Value: v} }

func failure(err error) Result {
	return Result{ErrorKind: Classify(err), Message: err.Error()}
}

// ExpandInput is the input of Expand.
type ExpandInput struct {
	Concept          prompt.Concept
	BrandID          string
	ResearchReportID string
}

// EvolveInput is the input of Evolve. History must be oldest first.
type EvolveInput struct {
	Offer    domain.ContentBody
	Feedback string
	History  []domain.IterationRecord
}

// SaveInput is the input of Save. An empty OfferID creates a new offer.
type SaveInput struct {
	BrandID          string             `validate:"required,max=64"`
	OfferID          string             `validate:"omitempty,max=36"`
	Title            string             `validate:"max=255"`
	OfferType        domain.OfferType   `validate:"required,offer_type"`
	Pricing          domain.Pricing
	Content          domain.ContentBody
	Rationale        string
	RefinementPrompt string
}

// Orchestrator wires the composer, the generation client, the contract codec
// and the version store.
type Orchestrator struct {
	LLM      llm.Client
	Store    *VersionStore
	Research ResearchStore // optional

	// ResearchMaxRunes caps research text embedded in a prompt; 0 disables condensing.
	ResearchMaxRunes int
	// TitleLocale drives title casing of derived titles.
	TitleLocale language.Tag

	validate *validator.Validate
}

// NewOrchestrator builds an Orchestrator with its input validator.
func NewOrchestrator(client llm.Client, store *VersionStore, rs ResearchStore) *Orchestrator {
	return &Orchestrator{
		LLM:              client,
		Store:            store,
		Research:         rs,
		ResearchMaxRunes: 6000,
		TitleLocale:      language.English,
		validate:         NewValidator(),
	}
}

// NewValidator returns a validator that also understands the offer_type and
// offer_status tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("offer_type", func(fl validator.FieldLevel) bool {
		return domain.OfferType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("offer_status", func(fl validator.FieldLevel) bool {
		return domain.OfferStatus(fl.Field().String()).Valid()
	})
	return v
}

// Expand turns a concept into a first full content body.
func (o *Orchestrator) Expand(ctx context.Context, in ExpandInput) Result {
	ctx, span := otel.Tracer("services/Orchestrator").Start(ctx, "Expand",
		trace.WithAttributes(
			attribute.String("brand.id", in.BrandID),
			attribute.Bool("research.requested", in.ResearchReportID != ""),
		),
	)
	defer span.End()
	log := zerolog.Ctx(ctx).With().Str("workflow", "expand").Str("brand_id", in.BrandID).Logger()

	researchText := o.loadResearch(ctx, &log, in)
	concept := in.Concept
	p, err := prompt.Compose(prompt.Context{Mode: prompt.Expand, Concept: &concept, ResearchText: researchText})
	if err != nil {
		return o.finish(span, &log, time.Now(), failure(err))
	}
	return o.generate(ctx, span, &log, p)
}

// Evolve adjusts current content according to feedback, informed by history.
func (o *Orchestrator) Evolve(ctx context.Context, in EvolveInput) Result {
	ctx, span := otel.Tracer("services/Orchestrator").Start(ctx, "Evolve",
		trace.WithAttributes(attribute.Int("history.len", len(in.History))),
	)
	defer span.End()
	log := zerolog.Ctx(ctx).With().Str("workflow", "evolve").Int("history_len", len(in.History)).Logger()

	current := in.Offer
	p, err := prompt.Compose(prompt.Context{
		Mode:     prompt.Evolve,
		Current:  &current,
		History:  in.History,
		Feedback: in.Feedback,
	})
	if err != nil {
		return o.finish(span, &log, time.Now(), failure(err))
	}
	return o.generate(ctx, span, &log, p)
}

// Save commits content as a new offer or as the next version of an existing one.
func (o *Orchestrator) Save(ctx context.Context, in SaveInput) Result {
	ctx, span := otel.Tracer("services/Orchestrator").Start(ctx, "Save",
		trace.WithAttributes(
			attribute.String("brand.id", in.BrandID),
			attribute.String("offer.id", in.OfferID),
		),
	)
	defer span.End()
	start := time.Now()
	log := zerolog.Ctx(ctx).With().Str("workflow", "save").Str("brand_id", in.BrandID).Str("offer_id", in.OfferID).Logger()

	if err := o.validator().Struct(&in); err != nil {
		return o.finish(span, &log, start, failure(invalidInput(err)))
	}
	if err := in.Content.Validate(); err != nil {
		return o.finish(span, &log, start, failure(fmt.Errorf("%w: %v", ErrInvalidInput, err)))
	}

	title := normalizeTitle(in.Title)
	if title == "" {
		title = o.titleFromPromise(in.Content.Promise)
	}
	currency := strings.ToUpper(in.Pricing.Currency)
	pricing := domain.Pricing{Price: in.Pricing.Price, Currency: currency, PaymentModel: in.Pricing.PaymentModel}

	var (
		offer *domain.Offer
		err   error
	)
	if in.OfferID == "" {
		offer, err = o.Store.CreateOffer(ctx, NewOffer{
			BrandID:          in.BrandID,
			Title:            title,
			OfferType:        in.OfferType,
			Pricing:          pricing,
			Content:          in.Content,
			Rationale:        in.Rationale,
			RefinementPrompt: strings.TrimSpace(in.RefinementPrompt),
		})
	} else {
		label := strings.TrimSpace(in.RefinementPrompt)
		if label == "" {
			label = domain.PromptInitialExpansion
		}
		offer, err = o.Store.UpdateOffer(ctx, OfferUpdate{
			OfferID:          in.OfferID,
			BrandID:          in.BrandID,
			Title:            title,
			OfferType:        in.OfferType,
			Pricing:          pricing,
			Content:          in.Content,
			Rationale:        in.Rationale,
			RefinementPrompt: label,
		})
	}
	if err != nil {
		return o.finish(span, &log, start, failure(err))
	}
	span.SetAttributes(attribute.Int("offer.version", offer.Version))
	return o.finish(span, &log, start, ok(offer))
}

// generate runs provider call and decode, the steps Expand and Evolve share.
func (o *Orchestrator) generate(ctx context.Context, span trace.Span, log *zerolog.Logger, p prompt.Prompt) Result {
	start := time.Now()
	raw, err := o.LLM.Generate(ctx, p)
	if err != nil {
		if !errors.Is(err, llm.ErrProviderUnavailable) && !errors.Is(err, llm.ErrProviderRateLimited) {
			err = fmt.Errorf("%w: %w", llm.ErrProviderUnavailable, err)
		}
		return o.finish(span, log, start, failure(err))
	}
	body, err := contract.Decode(raw)
	if err != nil {
		return o.finish(span, log, start, failure(err))
	}
	return o.finish(span, log, start, ok(body))
}

// finish records the outcome on the span and in the log.
func (o *Orchestrator) finish(span trace.Span, log *zerolog.Logger, start time.Time, r Result) Result {
	lat := time.Since(start)
	if r.Success {
		log.Info().Dur("latency", lat).Msg("workflow succeeded")
		return r
	}
	span.SetStatus(codes.Error, string(r.ErrorKind))
	span.SetAttributes(attribute.String("error.kind", string(r.ErrorKind)))
	ev := log.Warn()
	if r.ErrorKind == KindPersistenceFailure {
		ev = log.Error()
	}
	ev.Str("error_kind", string(r.ErrorKind)).Str("error", r.Message).Dur("latency", lat).Msg("workflow failed")
	return r
}

// loadResearch fetches and condenses research text. Any problem degrades to
// "no research" rather than failing the expansion.
func (o *Orchestrator) loadResearch(ctx context.Context, log *zerolog.Logger, in ExpandInput) string {
	if in.ResearchReportID == "" || o.Research == nil {
		return ""
	}
	text, err := o.Research.ResearchText(ctx, in.BrandID, in.ResearchReportID)
	if err != nil {
		log.Warn().Err(err).Str("report_id", in.ResearchReportID).Msg("research unavailable; continuing without it")
		return ""
	}
	if strings.TrimSpace(text) == "" {
		log.Warn().Str("report_id", in.ResearchReportID).Msg("research report is empty; continuing without it")
		return ""
	}
	return research.Condense(text, conceptQuery(in.Concept), o.ResearchMaxRunes)
}

func (o *Orchestrator) validator() *validator.Validate {
	if o.validate == nil {
		o.validate = NewValidator()
	}
	return o.validate
}

// conceptQuery is the text research paragraphs are ranked against.
func conceptQuery(c prompt.Concept) string {
	return strings.Join([]string{c.Name, c.Audience, c.Problem, c.Notes}, " ")
}

// invalidInput flattens validator errors into one ErrInvalidInput message.
func invalidInput(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		parts := make([]string, 0, len(ves))
		for _, fe := range ves {
			parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(parts, "; "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// --- Title helpers ---

const titleMaxRunes = 60

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	titleWordRE  = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)
)

// normalizeTitle trims whitespace and collapses runs of spaces.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// titleFromPromise derives a short title-cased title from the promise.
func (o *Orchestrator) titleFromPromise(promise string) string {
	words := titleWordRE.FindAllString(strings.ToLower(promise), -1)
	if len(words) == 0 {
		return "Untitled offer"
	}
	tag := o.TitleLocale
	if tag == language.Und {
		tag = language.English
	}
	caser := cases.Title(tag)
	if len(words) > 8 {
		words = words[:8]
	}
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return clip(strings.Join(words, " "), titleMaxRunes)
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) > n {
		return strings.TrimSpace(string([]rune(s)[:n]))
	}
	return s
}
