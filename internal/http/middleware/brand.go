// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the brand a request acts for. Offers, iterations and
// research reports are all owned by a brand; handlers, the rate limiter,
// idempotency and logging all key on it.
package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderBrandID carries the caller's brand identifier.
const HeaderBrandID = "X-Brand-ID"

const ctxKeyBrandID = "brandID"

var brandRE = regexp.MustCompile(`^[A-Za-z0-9._\-]{1,64}$`)

// Brand stores the brand from X-Brand-ID in the Gin context, falling back to
// defaultBrand when the header is absent. Malformed values are rejected with 400.
func Brand(defaultBrand string) gin.HandlerFunc {
	return func(c *gin.Context) {
		b := strings.TrimSpace(c.GetHeader(HeaderBrandID))
		if b == "" {
			b = defaultBrand
		}
		if !brandRE.MatchString(b) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_request",
				"message":    "invalid " + HeaderBrandID,
			})
			return
		}
		c.Set(ctxKeyBrandID, b)
		c.Next()
	}
}

// BrandFrom returns the brand set by Brand, or "" when none was set.
func BrandFrom(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyBrandID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
