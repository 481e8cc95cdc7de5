// Offer HTTP handlers.
//
// This file exposes REST endpoints for offers:
//   - POST  /offers/expand          (generate a first offer from a concept)
//   - POST  /offers/{id}/evolve     (generate a revision from feedback)
//   - POST  /offers                 (save a new offer, idempotent)
//   - PUT   /offers/{id}            (save a new version, idempotent)
//   - GET   /offers                 (list, paginated, ETag support)
//   - GET   /offers/{id}            (fetch)
//   - GET   /offers/{id}/iterations (history, paginated, ETag support)
//   - PATCH /offers/{id}/status     (lifecycle status)
//
// Generation endpoints never persist anything; the client reviews the
// candidate and saves it explicitly.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-offer-engine/internal/domain"
	"github.com/tbourn/go-offer-engine/internal/http/middleware"
	"github.com/tbourn/go-offer-engine/internal/prompt"
	"github.com/tbourn/go-offer-engine/internal/services"
	"github.com/tbourn/go-offer-engine/internal/utils"
)

//
// Service contracts (context-aware)
//

// Workflows runs the generation and save workflows. Implementations never
// return an error value; failures are reported inside the Result.
type Workflows interface {
	Expand(ctx context.Context, in services.ExpandInput) services.Result
	Evolve(ctx context.Context, in services.EvolveInput) services.Result
	Save(ctx context.Context, in services.SaveInput) services.Result
}

// OfferService is the read side and the non-versioned writes.
type OfferService interface {
	Get(ctx context.Context, brandID, id string) (*domain.Offer, error)
	ListPage(ctx context.Context, brandID string, page, pageSize int) ([]domain.Offer, int64, error)
	History(ctx context.Context, brandID, offerID string) ([]domain.IterationRecord, error)
	IterationsPage(ctx context.Context, brandID, offerID string, page, pageSize int) ([]domain.IterationRecord, int64, error)
	SetStatus(ctx context.Context, brandID, id string, status domain.OfferStatus) (*domain.Offer, error)
	CreateResearch(ctx context.Context, brandID, sourceURL, content string) (*domain.ResearchReport, error)
	OffersStats(ctx context.Context, brandID string) (int64, *time.Time, error)
	IterationsStats(ctx context.Context, offerID string) (int64, *time.Time, error)
}

// IdempotencyStore remembers which offer a keyed save produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, brandID, scope, key string, now time.Time) (*domain.Idempotency, error)
	Remember(ctx context.Context, brandID, scope, key, offerID string, status int) error
}

//
// Handler wiring
//

// Handlers groups the offer and research endpoints.
type Handlers struct {
	flows  Workflows
	offers OfferService
	idem   IdempotencyStore // optional

	// GenerationTimeout bounds a single expand or evolve call; zero means
	// the request context alone applies.
	GenerationTimeout time.Duration
}

// New constructs Handlers bound to the given services.
func New(flows Workflows, offers OfferService, idem IdempotencyStore) *Handlers {
	return &Handlers{flows: flows, offers: offers, idem: idem}
}

// brandID returns the brand resolved by middleware.Brand.
func brandID(c *gin.Context) string { return middleware.BrandFrom(c) }

//
// DTOs
//

// ExpandRequest is the JSON payload for generating a first offer.
type ExpandRequest struct {
	Name      string           `json:"name"       binding:"required,max=255" example:"Clinic Growth Sprint"`
	OfferType domain.OfferType `json:"offer_type" example:"core"`
	Audience  string           `json:"audience"   example:"independent physiotherapy clinics"`
	Problem   string           `json:"problem"    example:"empty calendars on weekdays"`
	Notes     string           `json:"notes"`
	Pricing   *domain.Pricing  `json:"pricing,omitempty"`
	// ResearchReportID optionally names a stored research report to use as context.
	ResearchReportID string `json:"research_report_id,omitempty" example:"2b0b6d8e-6f4e-4b8c-9d4a-1f2e3d4c5b6a"`
}

// EvolveRequest is the JSON payload for revising an offer.
type EvolveRequest struct {
	Feedback string `json:"feedback" binding:"required" example:"Make the guarantee stronger"`
	// Content optionally replaces the stored content as the starting point,
	// for revising unsaved edits.
	Content *domain.ContentBody `json:"content,omitempty"`
}

// GenerateResponse carries a candidate that has not been saved.
type GenerateResponse struct {
	Content domain.ContentBody `json:"content"`
}

// SaveOfferRequest is the JSON payload for saving an offer.
type SaveOfferRequest struct {
	Title     string             `json:"title" example:"Clinic Growth Sprint"`
	OfferType domain.OfferType   `json:"offer_type" example:"core"`
	Pricing   domain.Pricing     `json:"pricing"`
	Content   domain.ContentBody `json:"content"`
	Rationale string             `json:"rationale"`
	// RefinementPrompt is recorded on the new iteration; defaults apply when empty.
	RefinementPrompt string `json:"refinement_prompt" example:"Make the guarantee stronger"`
}

// UpdateStatusRequest is the JSON payload for a status change.
type UpdateStatusRequest struct {
	Status domain.OfferStatus `json:"status" binding:"required" example:"active"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListOffersResponse wraps a page of offers and pagination information.
type ListOffersResponse struct {
	Offers     []domain.Offer `json:"offers"`
	Pagination Pagination     `json:"pagination"`
}

// ListIterationsResponse wraps a page of iteration records, oldest first.
type ListIterationsResponse struct {
	Iterations []domain.IterationRecord `json:"iterations"`
	Pagination Pagination               `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

func paginate(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// notModified sets a weak ETag and reports whether If-None-Match matched it.
func notModified(c *gin.Context, kind, scope string, count int64, latest *time.Time) bool {
	var ts int64
	if latest != nil {
		ts = latest.Unix()
	}
	etag := fmt.Sprintf(`W/"%s:%s:%d:%d"`, kind, scope, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

func (h *Handlers) generationContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.GenerationTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.GenerationTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

// writeCandidate renders a generation Result.
func writeCandidate(c *gin.Context, workflow string, r services.Result) {
	middleware.ObserveWorkflow(workflow, string(r.ErrorKind))
	if !r.Success {
		failResult(c, r)
		return
	}
	body, isBody := r.Value.(domain.ContentBody)
	if !isBody {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "unexpected workflow value")
		return
	}
	ok(c, http.StatusOK, GenerateResponse{Content: body})
}

//
// Handlers
//

// ExpandOffer godoc
// @ID          expandOffer
// @Summary     Generate an offer from a concept
// @Description Builds a full offer candidate from a concept and optional research. Nothing is saved.
// @Tags        Offers
// @Accept      json
// @Produce     json
//
// @Param       X-Brand-ID  header  string  false "Brand ID"  example(acme)
// @Param       body        body    handlers.ExpandRequest  true  "Concept"
//
// @Success     200  {object}  handlers.GenerateResponse
// @Failure     400  {object}  handlers.ErrorResponse "Invalid input"
// @Failure     429  {object}  handlers.ErrorResponse "Provider rate limited"
// @Failure     502  {object}  handlers.ErrorResponse "Provider unavailable or invalid output"
// @Router      /offers/expand [post]
func (h *Handlers) ExpandOffer(c *gin.Context) {
	var req ExpandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "concept name required")
		return
	}
	ctx, cancel := h.generationContext(c)
	defer cancel()

	r := h.flows.Expand(ctx, services.ExpandInput{
		Concept: prompt.Concept{
			Name:      strings.TrimSpace(req.Name),
			OfferType: req.OfferType,
			Audience:  strings.TrimSpace(req.Audience),
			Problem:   strings.TrimSpace(req.Problem),
			Notes:     strings.TrimSpace(req.Notes),
			Pricing:   req.Pricing,
		},
		BrandID:          brandID(c),
		ResearchReportID: strings.TrimSpace(req.ResearchReportID),
	})
	writeCandidate(c, "expand", r)
}

// EvolveOffer godoc
// @ID          evolveOffer
// @Summary     Revise an offer from feedback
// @Description Generates a revised candidate from the offer's content, its full history and the feedback. Nothing is saved.
// @Tags        Offers
// @Accept      json
// @Produce     json
//
// @Param       X-Brand-ID  header  string  false "Brand ID"  example(acme)
// @Param       id          path    string  true  "Offer ID (UUID)"  format(uuid)
// @Param       body        body    handlers.EvolveRequest  true  "Feedback"
//
// @Success     200  {object}  handlers.GenerateResponse
// @Failure     400  {object}  handlers.ErrorResponse "Invalid input"
// @Failure     404  {object}  handlers.ErrorResponse "Offer not found"
// @Failure     429  {object}  handlers.ErrorResponse "Provider rate limited"
// @Failure     502  {object}  handlers.ErrorResponse "Provider unavailable or invalid output"
// @Router      /offers/{id}/evolve [post]
func (h *Handlers) EvolveOffer(c *gin.Context) {
	var req EvolveRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Feedback) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "feedback required")
		return
	}
	brand, id := brandID(c), c.Param("id")

	offer, err := h.offers.Get(c.Request.Context(), brand, id)
	if err != nil {
		failErr(c, err)
		return
	}
	history, err := h.offers.History(c.Request.Context(), brand, id)
	if err != nil {
		failErr(c, err)
		return
	}
	current := offer.Body()
	if req.Content != nil {
		current = *req.Content
	}

	ctx, cancel := h.generationContext(c)
	defer cancel()
	r := h.flows.Evolve(ctx, services.EvolveInput{
		Offer:    current,
		Feedback: strings.TrimSpace(req.Feedback),
		History:  history,
	})
	writeCandidate(c, "evolve", r)
}

// CreateOffer godoc
// @ID          createOffer
// @Summary     Save a new offer
// @Description Creates the offer together with its first iteration record.
// @Description Supports idempotency via the Idempotency-Key header (same key → same offer).
// @Tags        Offers
// @Accept      json
// @Produce     json
//
// @Param       X-Brand-ID       header  string  false "Brand ID"  example(acme)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       body             body    handlers.SaveOfferRequest  true  "Offer"
//
// @Success     201  {object}  domain.Offer
// @Failure     400  {object}  handlers.ErrorResponse "Invalid input"
// @Failure     500  {object}  handlers.ErrorResponse "Persistence failure"
// @Router      /offers [post]
func (h *Handlers) CreateOffer(c *gin.Context) { h.saveOffer(c, "", http.StatusCreated) }

// UpdateOffer godoc
// @ID          updateOffer
// @Summary     Save a new version of an offer
// @Description Overwrites the offer's content and appends one iteration record in the same unit of work.
// @Description Supports idempotency via the Idempotency-Key header.
// @Tags        Offers
// @Accept      json
// @Produce     json
//
// @Param       X-Brand-ID       header  string  false "Brand ID"  example(acme)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       id               path    string  true  "Offer ID (UUID)"  format(uuid)
// @Param       body             body    handlers.SaveOfferRequest  true  "Offer"
//
// @Success     200  {object}  domain.Offer
// @Failure     400  {object}  handlers.ErrorResponse "Invalid input"
// @Failure     404  {object}  handlers.ErrorResponse "Offer not found"
// @Failure     500  {object}  handlers.ErrorResponse "Persistence failure"
// @Router      /offers/{id} [put]
func (h *Handlers) UpdateOffer(c *gin.Context) { h.saveOffer(c, c.Param("id"), http.StatusOK) }

func (h *Handlers) saveOffer(c *gin.Context, offerID string, status int) {
	ctx := c.Request.Context()
	var req SaveOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	brand := brandID(c)
	scope := middleware.IdempotencyScope(c)
	key, hasKey := middleware.GetIdempotencyKey(c)

	// Replay path. A record whose offer has since vanished falls through.
	if hasKey && h.idem != nil {
		if rec, err := h.idem.Lookup(ctx, brand, scope, key, time.Now().UTC()); err == nil && rec != nil {
			if prev, err := h.offers.Get(ctx, brand, rec.OfferID); err == nil {
				c.Header(middleware.HeaderIdempotencyReplayed, "true")
				ok(c, rec.Status, prev)
				return
			}
		}
	}

	r := h.flows.Save(ctx, services.SaveInput{
		BrandID:          brand,
		OfferID:          offerID,
		Title:            req.Title,
		OfferType:        req.OfferType,
		Pricing:          req.Pricing,
		Content:          req.Content,
		Rationale:        req.Rationale,
		RefinementPrompt: req.RefinementPrompt,
	})
	middleware.ObserveWorkflow("save", string(r.ErrorKind))
	if !r.Success {
		failResult(c, r)
		return
	}
	offer, isOffer := r.Value.(*domain.Offer)
	if !isOffer {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "unexpected workflow value")
		return
	}

	if hasKey && h.idem != nil {
		if err := h.idem.Remember(ctx, brand, scope, key, offer.ID, status); err != nil {
			lg := middleware.LoggerFrom(c)
			lg.Warn().Err(err).Str("offer_id", offer.ID).Msg("idempotency record not stored")
		}
	}
	ok(c, status, offer)
}

// ListOffers godoc
// @ID          listOffers
// @Summary     List offers (paginated)
// @Description Returns a page of the brand's offers, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Offers
// @Produce     json
//
// @Param       X-Brand-ID     header  string  false "Brand ID"                    example(acme)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListOffersResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /offers [get]
func (h *Handlers) ListOffers(c *gin.Context) {
	ctx := c.Request.Context()
	brand := brandID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, latest, err := h.offers.OffersStats(ctx, brand); err == nil {
		if notModified(c, "offers", brand, count, latest) {
			return
		}
	}

	items, total, err := h.offers.ListPage(ctx, brand, page, pageSize)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list offers")
		return
	}
	ok(c, http.StatusOK, ListOffersResponse{Offers: items, Pagination: paginate(page, pageSize, total)})
}

// GetOffer godoc
// @ID          getOffer
// @Summary     Fetch an offer
// @Tags        Offers
// @Produce     json
//
// @Param       X-Brand-ID  header  string  false "Brand ID"  example(acme)
// @Param       id          path    string  true  "Offer ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Offer
// @Failure     404  {object} handlers.ErrorResponse "Offer not found"
// @Router      /offers/{id} [get]
func (h *Handlers) GetOffer(c *gin.Context) {
	o, err := h.offers.Get(c.Request.Context(), brandID(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// ListIterations godoc
// @ID          listIterations
// @Summary     List an offer's history (paginated)
// @Description Returns iteration records oldest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Offers
// @Produce     json
//
// @Param       X-Brand-ID     header  string  false "Brand ID"  example(acme)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       id             path    string  true  "Offer ID (UUID)"  format(uuid)
// @Param       page           query   int     false "Page number"      minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"   minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListIterationsResponse
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Offer not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /offers/{id}/iterations [get]
func (h *Handlers) ListIterations(c *gin.Context) {
	ctx := c.Request.Context()
	brand, id := brandID(c), c.Param("id")
	page, pageSize := clampPagination(c)

	// Ownership first so a foreign offer's ETag never leaks.
	if _, err := h.offers.Get(ctx, brand, id); err != nil {
		failErr(c, err)
		return
	}
	if count, latest, err := h.offers.IterationsStats(ctx, id); err == nil {
		if notModified(c, "iterations", id, count, latest) {
			return
		}
	}

	items, total, err := h.offers.IterationsPage(ctx, brand, id, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListIterationsResponse{Iterations: items, Pagination: paginate(page, pageSize, total)})
}

// UpdateOfferStatus godoc
// @ID          updateOfferStatus
// @Summary     Change an offer's status
// @Description Sets draft, active or archived. No iteration record is created.
// @Tags        Offers
// @Accept      json
// @Produce     json
//
// @Param       X-Brand-ID  header  string  false "Brand ID"  example(acme)
// @Param       id          path    string  true  "Offer ID (UUID)"  format(uuid)
// @Param       body        body    handlers.UpdateStatusRequest  true  "New status"
//
// @Success     200  {object} domain.Offer
// @Failure     400  {object} handlers.ErrorResponse "Invalid status"
// @Failure     404  {object} handlers.ErrorResponse "Offer not found"
// @Router      /offers/{id}/status [patch]
func (h *Handlers) UpdateOfferStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	o, err := h.offers.SetStatus(c.Request.Context(), brandID(c), c.Param("id"), req.Status)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}
