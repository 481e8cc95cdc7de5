// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, brand resolution, logging/redaction, panic
// recovery, metrics, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → Brand → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-offer-engine/internal/config"
	"github.com/tbourn/go-offer-engine/internal/domain"
	"github.com/tbourn/go-offer-engine/internal/http/handlers"
	"github.com/tbourn/go-offer-engine/internal/http/middleware"
	"github.com/tbourn/go-offer-engine/internal/llm"
	"github.com/tbourn/go-offer-engine/internal/repo"
	"github.com/tbourn/go-offer-engine/internal/services"
	"github.com/tbourn/go-offer-engine/internal/sysutil"
)

// defaultBrand applies when neither X-Brand-ID nor DEFAULT_BRAND_ID is set.
const defaultBrand = "demo-brand"

// offerRepoShim adapts the repository free functions to the
// services.OfferRepo interface expected by the OfferService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type offerRepoShim struct{}

// GetOffer proxies repo.GetOffer.
func (offerRepoShim) GetOffer(ctx context.Context, db *gorm.DB, id, brandID string) (*domain.Offer, error) {
	return repo.GetOffer(ctx, db, id, brandID)
}

// CountOffers proxies repo.CountOffers (pagination support).
func (offerRepoShim) CountOffers(ctx context.Context, db *gorm.DB, brandID string) (int64, error) {
	return repo.CountOffers(ctx, db, brandID)
}

// ListOffersPage proxies repo.ListOffersPage (pagination support).
func (offerRepoShim) ListOffersPage(ctx context.Context, db *gorm.DB, brandID string, offset, limit int) ([]domain.Offer, error) {
	return repo.ListOffersPage(ctx, db, brandID, offset, limit)
}

// UpdateOfferStatus proxies repo.UpdateOfferStatus.
func (offerRepoShim) UpdateOfferStatus(ctx context.Context, db *gorm.DB, id, brandID string, status domain.OfferStatus) error {
	return repo.UpdateOfferStatus(ctx, db, id, brandID, status)
}

// ListIterations proxies repo.ListIterations.
func (offerRepoShim) ListIterations(ctx context.Context, db *gorm.DB, offerID string) ([]domain.IterationRecord, error) {
	return repo.ListIterations(ctx, db, offerID)
}

// CountIterations proxies repo.CountIterations.
func (offerRepoShim) CountIterations(ctx context.Context, db *gorm.DB, offerID string) (int64, error) {
	return repo.CountIterations(ctx, db, offerID)
}

// ListIterationsPage proxies repo.ListIterationsPage.
func (offerRepoShim) ListIterationsPage(ctx context.Context, db *gorm.DB, offerID string, offset, limit int) ([]domain.IterationRecord, error) {
	return repo.ListIterationsPage(ctx, db, offerID, offset, limit)
}

// CreateResearchReport proxies repo.CreateResearchReport.
func (offerRepoShim) CreateResearchReport(ctx context.Context, db *gorm.DB, brandID, sourceURL, content string) (*domain.ResearchReport, error) {
	return repo.CreateResearchReport(ctx, db, brandID, sourceURL, content)
}

// OffersStats proxies repo.OffersStats (ETag support).
func (offerRepoShim) OffersStats(ctx context.Context, db *gorm.DB, brandID string) (int64, *time.Time, error) {
	return repo.OffersStats(ctx, db, brandID)
}

// IterationsStats proxies repo.IterationsStats (ETag support).
func (offerRepoShim) IterationsStats(ctx context.Context, db *gorm.DB, offerID string) (int64, *time.Time, error) {
	return repo.IterationsStats(ctx, db, offerID)
}

// idempotencyStore backs handlers.IdempotencyStore with the idempotency table.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s idempotencyStore) Lookup(ctx context.Context, brandID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, brandID, scope, key, now)
}

// Remember stores the result; a concurrent duplicate already holds the same answer.
func (s idempotencyStore) Remember(ctx context.Context, brandID, scope, key, offerID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, brandID, scope, key, offerID, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Brand: resolve X-Brand-ID before anything logs or limits
//  4. RedactingLogger: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter and gzip
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per brand/IP, unsafe methods only, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, client llm.Client, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := cfg.APIBasePath // e.g. "/api/v1"

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Caller brand
	r.Use(middleware.Brand(sysutil.FirstNonEmpty(cfg.DefaultBrandID, defaultBrand)))

	// 4) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-LLM-Key"},
	}))

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit (1 MiB); research text is the largest payload.
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation on the save routes (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
			Routes: []string{joinPath(apiBase, "/offers"), joinPath(apiBase, "/offers/:id")},
		},
		func(ctx context.Context, brandID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, brandID, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return err == nil && rec != nil, err
		},
	))

	// 9) Token-bucket rate limiter per brand/IP; reads are not limited
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByBrandOrIP())
	r.Use(rl.Handler(http.MethodPost, http.MethodPut, http.MethodPatch))

	// 10) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderBrandID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", middleware.HeaderIdempotencyReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:        cfg.Security.EnableHSTS,
		HSTSMaxAge:        cfg.Security.HSTSMaxAge,
		NoStore:           false,
		EnablePolicy:      true,
		CSPExemptPrefixes: []string{"/swagger/"},
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/llm
	store := services.NewVersionStore(db, services.TxMode(cfg.DB.TxMode))
	flows := services.NewOrchestrator(client, store, repo.ResearchStore{DB: db})
	if cfg.ResearchMaxRunes > 0 {
		flows.ResearchMaxRunes = cfg.ResearchMaxRunes
	}
	offerSvc := services.NewOfferService(db, offerRepoShim{})

	h := handlers.New(flows, offerSvc, idempotencyStore{db: db, ttl: cfg.IdempotencyTTL})
	h.GenerationTimeout = cfg.LLM.Timeout

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Generation (never persists)
		api.POST("/offers/expand", h.ExpandOffer)
		api.POST("/offers/:id/evolve", h.EvolveOffer)

		// Versioned writes
		api.POST("/offers", h.CreateOffer)
		api.PUT("/offers/:id", h.UpdateOffer)

		// Reads and lifecycle
		api.GET("/offers", h.ListOffers)
		api.GET("/offers/:id", h.GetOffer)
		api.GET("/offers/:id/iterations", h.ListIterations)
		api.PATCH("/offers/:id/status", h.UpdateOfferStatus)

		// Research text from the crawler
		api.POST("/research", h.CreateResearch)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath builds the full route path gin reports from c.FullPath().
func joinPath(prefix, p string) string {
	if prefix == "" || prefix == "/" {
		return p
	}
	return prefix + p
}
