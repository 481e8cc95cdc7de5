package domain

import (
	"errors"
	"fmt"
	"math"
)

// OfferType classifies an offer within a brand's value ladder.
type OfferType string

const (
	OfferTypeCore       OfferType = "core"
	OfferTypeLeadMagnet OfferType = "lead_magnet"
	OfferTypeUpsell     OfferType = "upsell"
	OfferTypeDownsell   OfferType = "downsell"
	OfferTypeContinuity OfferType = "continuity"
	OfferTypeTripwire   OfferType = "tripwire"
)

// OfferTypes lists every accepted OfferType in display order.
var OfferTypes = []OfferType{
	OfferTypeCore, OfferTypeLeadMagnet, OfferTypeUpsell,
	OfferTypeDownsell, OfferTypeContinuity, OfferTypeTripwire,
}

// Valid reports whether t is one of the known offer types.
func (t OfferType) Valid() bool {
	for _, v := range OfferTypes {
		if v == t {
			return true
		}
	}
	return false
}

// OfferStatus is the lifecycle state of an offer. Transitions are plain
// field writes outside the generation loop.
type OfferStatus string

const (
	StatusDraft    OfferStatus = "draft"
	StatusActive   OfferStatus = "active"
	StatusArchived OfferStatus = "archived"
)

// Valid reports whether s is draft, active or archived.
func (s OfferStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived:
		return true
	}
	return false
}

// Pricing is stored as-is; the engine never interprets it beyond validation
// at the API edge.
type Pricing struct {
	Price        float64 `json:"price"         gorm:"not null"                  validate:"gte=0"`
	Currency     string  `json:"currency"      gorm:"type:varchar(3);not null"  validate:"required,len=3,alpha"`
	PaymentModel string  `json:"payment_model" gorm:"type:varchar(32);not null" validate:"required,max=32"`
}

// Bonus is a single entry of the bonus stack.
type Bonus struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// ValueFactors are the four inputs of the value equation.
type ValueFactors struct {
	Outcome    float64 `json:"outcome"`
	Likelihood float64 `json:"likelihood"`
	Delay      float64 `json:"delay"`
	Effort     float64 `json:"effort"`
}

// ValueEquation is the perceived-value summary of an offer.
type ValueEquation struct {
	Score   float64      `json:"score"`
	Factors ValueFactors `json:"factors"`
}

// ContentBody is the generated part of an offer. The same type is used for
// the live offer and for every iteration snapshot.
type ContentBody struct {
	Promise       string        `json:"promise"`
	Mechanism     string        `json:"mechanism"`
	BonusStack    []Bonus       `json:"bonus_stack"         validate:"min=1,dive"`
	Guarantee     string        `json:"guarantee"`
	ValueEquation ValueEquation `json:"value_equation_math"`
}

// ErrInvalidContent is returned by ContentBody.Validate.
var ErrInvalidContent = errors.New("invalid content body")

// Validate checks the structural shape required before an offer may be
// persisted: a non-empty bonus stack and finite value-equation numbers.
func (c ContentBody) Validate() error {
	if len(c.BonusStack) == 0 {
		return fmt.Errorf("%w: bonus_stack must contain at least one item", ErrInvalidContent)
	}
	nums := []struct {
		name string
		v    float64
	}{
		{"value_equation_math.score", c.ValueEquation.Score},
		{"value_equation_math.factors.outcome", c.ValueEquation.Factors.Outcome},
		{"value_equation_math.factors.likelihood", c.ValueEquation.Factors.Likelihood},
		{"value_equation_math.factors.delay", c.ValueEquation.Factors.Delay},
		{"value_equation_math.factors.effort", c.ValueEquation.Factors.Effort},
	}
	for _, n := range nums {
		if math.IsNaN(n.v) || math.IsInf(n.v, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidContent, n.name)
		}
	}
	return nil
}

// Clone returns a deep copy so snapshots never share the bonus slice with
// the live offer.
func (c ContentBody) Clone() ContentBody {
	out := c
	if c.BonusStack != nil {
		out.BonusStack = make([]Bonus, len(c.BonusStack))
		copy(out.BonusStack, c.BonusStack)
	}
	return out
}
