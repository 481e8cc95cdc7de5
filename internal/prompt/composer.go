// Package prompt assembles generation requests for the offer engine.
//
// Compose is a pure function: the same Context always yields the same
// Prompt, history is rendered in the order given (oldest first) and nothing
// is read from the environment. Both modes share one pipeline and differ only
// in the context section they render, so the decoder and the version store
// never need to know which mode produced a candidate.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tbourn/go-offer-engine/internal/contract"
	"github.com/tbourn/go-offer-engine/internal/domain"
)

// Mode selects how the request is framed.
type Mode int

const (
	// Expand turns a concept (plus optional research) into a first full offer.
	Expand Mode = iota + 1
	// Evolve adjusts an existing offer according to new feedback.
	Evolve
)

func (m Mode) String() string {
	switch m {
	case Expand:
		return "expand"
	case Evolve:
		return "evolve"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ErrInvalidContext is returned when a Context lacks what its mode needs.
var ErrInvalidContext = errors.New("invalid prompt context")

// Concept is the seed of an Expand request.
type Concept struct {
	Name      string           `json:"name"`
	OfferType domain.OfferType `json:"offer_type"`
	Audience  string           `json:"audience"`
	Problem   string           `json:"problem"`
	Notes     string           `json:"notes"`
	Pricing   *domain.Pricing  `json:"pricing,omitempty"`
}

// Context is the typed bundle a request is built from. Only the fields the
// mode uses are read.
type Context struct {
	Mode         Mode
	Concept      *Concept
	Current      *domain.ContentBody
	History      []domain.IterationRecord
	Feedback     string
	ResearchText string
}

// Prompt is what the generation client sends: a fixed persona line and the
// single composed request.
type Prompt struct {
	System string
	Text   string
}

// System is the persona line sent with every request.
const System = "You are an offer strategist. You answer with a single JSON object and nothing else."

// Compose builds the request for ctx.
func Compose(ctx Context) (Prompt, error) {
	var b strings.Builder

	switch ctx.Mode {
	case Expand:
		if ctx.Concept == nil || strings.TrimSpace(ctx.Concept.Name) == "" {
			return Prompt{}, fmt.Errorf("%w: expand requires a concept", ErrInvalidContext)
		}
		writeExpand(&b, ctx)
	case Evolve:
		if ctx.Current == nil {
			return Prompt{}, fmt.Errorf("%w: evolve requires current content", ErrInvalidContext)
		}
		if strings.TrimSpace(ctx.Feedback) == "" {
			return Prompt{}, fmt.Errorf("%w: evolve requires feedback", ErrInvalidContext)
		}
		writeEvolve(&b, ctx)
	default:
		return Prompt{}, fmt.Errorf("%w: unknown %s", ErrInvalidContext, ctx.Mode)
	}

	b.WriteString("\n## Required output\n")
	b.WriteString("Respond with JSON only, no commentary, exactly in this shape:\n")
	b.WriteString(contract.Schema)
	b.WriteString("\n")

	return Prompt{System: System, Text: b.String()}, nil
}

func writeExpand(b *strings.Builder, ctx Context) {
	c := ctx.Concept
	b.WriteString("# Task: expand an offer concept\n")
	b.WriteString("Turn the concept below into a complete, irresistible offer.\n\n")

	b.WriteString("## Concept\n")
	line(b, "Name", c.Name)
	line(b, "Offer type", string(c.OfferType))
	line(b, "Audience", c.Audience)
	line(b, "Core problem", c.Problem)
	line(b, "Notes", c.Notes)
	if c.Pricing != nil {
		line(b, "Price", strconv.FormatFloat(c.Pricing.Price, 'f', -1, 64)+" "+c.Pricing.Currency)
		line(b, "Payment model", c.Pricing.PaymentModel)
	}

	if r := strings.TrimSpace(ctx.ResearchText); r != "" {
		b.WriteString("\n## Market research\n")
		b.WriteString("Ground the promise, mechanism and guarantee in this research:\n")
		b.WriteString(r)
		b.WriteString("\n")
	}

	b.WriteString("\n## Instructions\n")
	b.WriteString("- Write a specific, measurable promise and a named mechanism.\n")
	b.WriteString("- Build a bonus stack of at least 3 items, each with a stated value.\n")
	b.WriteString("- Tailor the guarantee to the audience's main objection.\n")
	b.WriteString("- Score the value equation: raise outcome and likelihood, lower delay and effort.\n")
}

func writeEvolve(b *strings.Builder, ctx Context) {
	b.WriteString("# Task: evolve an existing offer\n")
	b.WriteString("Revise the current offer according to the new feedback.\n\n")

	if len(ctx.History) > 0 {
		b.WriteString("## Iteration history (oldest first)\n")
		for i, rec := range ctx.History {
			fmt.Fprintf(b, "### Iteration %d\n", i+1)
			line(b, "Prompt", rec.RefinementPrompt)
			b.WriteString("Snapshot:\n")
			b.WriteString(render(rec.Body()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Current offer\n")
	b.WriteString(render(*ctx.Current))
	b.WriteString("\n\n## New feedback\n")
	b.WriteString(strings.TrimSpace(ctx.Feedback))
	b.WriteString("\n\n## Instructions\n")
	b.WriteString("- Change only the fields the feedback implicates; copy every other field unchanged.\n")
	b.WriteString("- Recompute value_equation_math.score only if a contributing factor materially changed.\n")
	b.WriteString("- Keep at least one bonus in the bonus stack.\n")
}

func line(b *strings.Builder, label, v string) {
	if v = strings.TrimSpace(v); v == "" {
		return
	}
	b.WriteString("- ")
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(v)
	b.WriteString("\n")
}

// render prints content in the same envelope the provider must answer with.
func render(c domain.ContentBody) string {
	out, err := json.MarshalIndent(struct {
		FullOffer domain.ContentBody `json:"full_offer"`
	}{c}, "", "  ")
	if err != nil {
		// ContentBody holds only strings and floats; NaN/Inf is the only failure.
		return fmt.Sprintf("%+v", c)
	}
	return string(out)
}
