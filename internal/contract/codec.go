// Package contract is the trust boundary between free-text generation output
// and the typed offer model. It strips the code fences providers like to wrap
// JSON in, checks every required field of the output contract, and decodes
// the result into a domain.ContentBody.
//
// Nothing is repaired or defaulted: the first missing or mistyped field is
// reported by name.
package contract

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tbourn/go-offer-engine/internal/domain"
)

// Schema is the required output shape, embedded verbatim at the end of every
// composed prompt.
const Schema = `{ "full_offer": {
    "promise": string, "mechanism": string,
    "bonus_stack": [{ "title": string, "value": string }, ...>=1],
    "guarantee": string,
    "value_equation_math": { "score": number,
      "factors": { "outcome": number, "likelihood": number, "delay": number, "effort": number } } } }`

var (
	// ErrMalformedOutput means the response was not parseable JSON.
	ErrMalformedOutput = errors.New("malformed output")
	// ErrContractViolation means the JSON parsed but did not match Schema.
	ErrContractViolation = errors.New("contract violation")
)

// ViolationError names the first field that broke the contract.
// errors.Is(err, ErrContractViolation) holds for every ViolationError.
type ViolationError struct {
	Field  string
	Reason string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("contract violation: %s %s", e.Field, e.Reason)
}

// Is lets callers match with errors.Is(err, ErrContractViolation).
func (e *ViolationError) Is(target error) bool { return target == ErrContractViolation }

// StripFences removes a leading ``` (optionally followed by an info string
// such as "json") and a trailing ``` along with surrounding whitespace.
// Text without fences is returned trimmed.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop the info string up to the first newline or the JSON start.
		if i := strings.IndexAny(s, "\n{["); i >= 0 {
			if s[i] == '\n' {
				s = s[i+1:]
			} else {
				s = s[i:]
			}
		} else {
			s = ""
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Decode parses a provider response into a ContentBody.
//
// Errors:
//   - ErrMalformedOutput when the unfenced text is not valid JSON.
//   - *ViolationError (matching ErrContractViolation) for the first missing
//     or wrong-typed field, checked in schema order.
//
// The body is built from the same values the shape check inspected, so a
// duplicated key resolves to its first occurrence in both steps.
func Decode(raw string) (domain.ContentBody, error) {
	body := StripFences(raw)
	if body == "" || !gjson.Valid(body) {
		return domain.ContentBody{}, fmt.Errorf("%w: response is not valid JSON", ErrMalformedOutput)
	}

	root := gjson.Parse(body)
	if err := checkShape(root); err != nil {
		return domain.ContentBody{}, err
	}

	return build(root.Get("full_offer")), nil
}

// build copies a shape-checked full_offer object into a ContentBody.
func build(offer gjson.Result) domain.ContentBody {
	items := offer.Get("bonus_stack").Array()
	bonuses := make([]domain.Bonus, len(items))
	for i, it := range items {
		bonuses[i] = domain.Bonus{Title: it.Get("title").Str, Value: it.Get("value").Str}
	}
	ve := offer.Get("value_equation_math")
	f := ve.Get("factors")
	return domain.ContentBody{
		Promise:    offer.Get("promise").Str,
		Mechanism:  offer.Get("mechanism").Str,
		BonusStack: bonuses,
		Guarantee:  offer.Get("guarantee").Str,
		ValueEquation: domain.ValueEquation{
			Score: ve.Get("score").Num,
			Factors: domain.ValueFactors{
				Outcome:    f.Get("outcome").Num,
				Likelihood: f.Get("likelihood").Num,
				Delay:      f.Get("delay").Num,
				Effort:     f.Get("effort").Num,
			},
		},
	}
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindObject
)

func (k fieldKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	default:
		return "object"
	}
}

func matches(r gjson.Result, k fieldKind) bool {
	switch k {
	case kindString:
		return r.Type == gjson.String
	case kindNumber:
		return r.Type == gjson.Number
	default:
		return r.IsObject()
	}
}

func expect(r gjson.Result, path string, k fieldKind) error {
	if !r.Exists() {
		return &ViolationError{Field: path, Reason: "is missing"}
	}
	if !matches(r, k) {
		return &ViolationError{Field: path, Reason: "must be a " + k.String()}
	}
	if k == kindNumber && (math.IsInf(r.Num, 0) || math.IsNaN(r.Num)) {
		return &ViolationError{Field: path, Reason: "must be a finite number"}
	}
	return nil
}

// checkShape walks the contract in declaration order and stops at the first
// problem so the reported field is deterministic.
func checkShape(root gjson.Result) error {
	offer := root.Get("full_offer")
	if err := expect(offer, "full_offer", kindObject); err != nil {
		return err
	}
	for _, f := range []string{"promise", "mechanism"} {
		if err := expect(offer.Get(f), f, kindString); err != nil {
			return err
		}
	}

	stack := offer.Get("bonus_stack")
	if !stack.Exists() {
		return &ViolationError{Field: "bonus_stack", Reason: "is missing"}
	}
	if !stack.IsArray() {
		return &ViolationError{Field: "bonus_stack", Reason: "must be an array"}
	}
	items := stack.Array()
	if len(items) == 0 {
		return &ViolationError{Field: "bonus_stack", Reason: "must contain at least one item"}
	}
	for i, it := range items {
		p := fmt.Sprintf("bonus_stack[%d]", i)
		if err := expect(it, p, kindObject); err != nil {
			return err
		}
		for _, f := range []string{"title", "value"} {
			if err := expect(it.Get(f), p+"."+f, kindString); err != nil {
				return err
			}
		}
	}

	if err := expect(offer.Get("guarantee"), "guarantee", kindString); err != nil {
		return err
	}

	ve := offer.Get("value_equation_math")
	if err := expect(ve, "value_equation_math", kindObject); err != nil {
		return err
	}
	if err := expect(ve.Get("score"), "value_equation_math.score", kindNumber); err != nil {
		return err
	}
	factors := ve.Get("factors")
	if err := expect(factors, "value_equation_math.factors", kindObject); err != nil {
		return err
	}
	for _, f := range []string{"outcome", "likelihood", "delay", "effort"} {
		if err := expect(factors.Get(f), "value_equation_math.factors."+f, kindNumber); err != nil {
			return err
		}
	}
	return nil
}
