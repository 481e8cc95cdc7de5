// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for offer saves. It validates an
// Idempotency-Key request header, checks through a caller-supplied lookup
// whether the same (brand, scope, key) already completed, and annotates the
// Gin context so downstream handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - bypass rate limiting when a replay is served
//
// The scope separates keys of different operations: "create" for new offers
// and the offer ID for updates, so one key can be reused across offers.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set to "true" on responses served from a
// previously recorded result.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

// ScopeCreate is the idempotency scope of offer creation.
const ScopeCreate = "create"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: a stored result exists
	ctxKeyRateBypass = "rate.bypass" // bool: skip rate limiting
)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether a completed result exists for this request's key.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyScope returns the scope of the current request: the :id route
// parameter when present, ScopeCreate otherwise.
func IdempotencyScope(c *gin.Context) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	return ScopeCreate
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Routes limits the validator to these registered route paths
	// (c.FullPath()); empty applies it to every route.
	Routes []string
}

// IdempotencyLookup reports whether a still-valid result exists for
// (brandID, scope, key) at now. TTL is enforced by the implementation.
// Errors are treated as "no result" and never block the request.
type IdempotencyLookup func(ctx context.Context, brandID, scope, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header on unsafe
// methods, stashes it, and marks replays. It never serves a cached payload
// itself; handlers decide how to replay.
//
//   - No header, or a safe method: no-op.
//   - Invalid header: 400.
//   - Lookup hit: replay and rate-bypass flags are set.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}
	routes := make(map[string]struct{}, len(opts.Routes))
	for _, r := range opts.Routes {
		routes[r] = struct{}{}
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || !unsafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if _, ok := routes[c.FullPath()]; len(routes) > 0 && !ok {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			exists, err := lookup(c.Request.Context(), BrandFrom(c), IdempotencyScope(c), key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			}
			if exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

func unsafeMethod(m string) bool {
	switch m {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
