// Package services – OfferService
//
// OfferService is the read side of the engine plus the two writes that do not
// create a version: lifecycle status changes and research report intake. It
// enforces brand ownership on every lookup so one brand can never see or
// change another brand's offers.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-offer-engine/internal/domain"
)

// OfferRepo defines the repository contract required by OfferService.
type OfferRepo interface {
	// GetOffer fetches an offer owned by brandID.
	GetOffer(ctx context.Context, db *gorm.DB, id, brandID string) (*domain.Offer, error)

	// CountOffers returns the total number of a brand's offers.
	CountOffers(ctx context.Context, db *gorm.DB, brandID string) (int64, error)

	// ListOffersPage returns a page of a brand's offers.
	ListOffersPage(ctx context.Context, db *gorm.DB, brandID string, offset, limit int) ([]domain.Offer, error)

	// UpdateOfferStatus sets an offer's lifecycle status.
	UpdateOfferStatus(ctx context.Context, db *gorm.DB, id, brandID string, status domain.OfferStatus) error

	// ListIterations returns every record of an offer, oldest first.
	ListIterations(ctx context.Context, db *gorm.DB, offerID string) ([]domain.IterationRecord, error)

	// CountIterations returns the number of records of an offer.
	CountIterations(ctx context.Context, db *gorm.DB, offerID string) (int64, error)

	// ListIterationsPage returns a page of an offer's records, oldest first.
	ListIterationsPage(ctx context.Context, db *gorm.DB, offerID string, offset, limit int) ([]domain.IterationRecord, error)

	// CreateResearchReport stores research text for a brand.
	CreateResearchReport(ctx context.Context, db *gorm.DB, brandID, sourceURL, content string) (*domain.ResearchReport, error)

	// OffersStats returns count and max(updated_at) of a brand's offers.
	OffersStats(ctx context.Context, db *gorm.DB, brandID string) (int64, *time.Time, error)

	// IterationsStats returns count and max(created_at) of an offer's records.
	IterationsStats(ctx context.Context, db *gorm.DB, offerID string) (int64, *time.Time, error)
}

// OfferService serves offer lookups, listings and status changes.
type OfferService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the repository used by this service.
	Repo OfferRepo

	// DefaultPageSize applies when a caller passes a non-positive size.
	DefaultPageSize int
	// MaxPageSize caps page sizes.
	MaxPageSize int
}

// NewOfferService constructs an OfferService with default paging.
func NewOfferService(db *gorm.DB, r OfferRepo) *OfferService {
	return &OfferService{DB: db, Repo: r, DefaultPageSize: 20, MaxPageSize: 100}
}

// Get returns offer id if brandID owns it.
func (s *OfferService) Get(ctx context.Context, brandID, id string) (*domain.Offer, error) {
	o, err := s.Repo.GetOffer(ctx, s.DB, id, brandID)
	if err != nil {
		return nil, lookup(err)
	}
	return o, nil
}

// ListPage returns a page of a brand's offers, newest first, and the total.
func (s *OfferService) ListPage(ctx context.Context, brandID string, page, pageSize int) ([]domain.Offer, int64, error) {
	offset, limit := s.window(page, pageSize)

	total, err := s.Repo.CountOffers(ctx, s.DB, brandID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Offer{}, 0, nil
	}
	items, err := s.Repo.ListOffersPage(ctx, s.DB, brandID, offset, limit)
	return items, total, err
}

// History returns every record of a brand's offer, oldest first.
func (s *OfferService) History(ctx context.Context, brandID, offerID string) ([]domain.IterationRecord, error) {
	if _, err := s.Get(ctx, brandID, offerID); err != nil {
		return nil, err
	}
	return s.Repo.ListIterations(ctx, s.DB, offerID)
}

// IterationsPage returns a page of a brand's offer history, oldest first.
func (s *OfferService) IterationsPage(ctx context.Context, brandID, offerID string, page, pageSize int) ([]domain.IterationRecord, int64, error) {
	if _, err := s.Get(ctx, brandID, offerID); err != nil {
		return nil, 0, err
	}
	offset, limit := s.window(page, pageSize)

	total, err := s.Repo.CountIterations(ctx, s.DB, offerID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.IterationRecord{}, 0, nil
	}
	items, err := s.Repo.ListIterationsPage(ctx, s.DB, offerID, offset, limit)
	return items, total, err
}

// SetStatus changes an offer's lifecycle status. It creates no record.
func (s *OfferService) SetStatus(ctx context.Context, brandID, id string, status domain.OfferStatus) (*domain.Offer, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if err := s.Repo.UpdateOfferStatus(ctx, s.DB, id, brandID, status); err != nil {
		return nil, lookup(err)
	}
	return s.Get(ctx, brandID, id)
}

// CreateResearch stores research text gathered for a brand.
func (s *OfferService) CreateResearch(ctx context.Context, brandID, sourceURL, content string) (*domain.ResearchReport, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: research content is empty", ErrInvalidInput)
	}
	r, err := s.Repo.CreateResearchReport(ctx, s.DB, brandID, strings.TrimSpace(sourceURL), content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return r, nil
}

// OffersStats returns inputs for the offers list ETag.
func (s *OfferService) OffersStats(ctx context.Context, brandID string) (int64, *time.Time, error) {
	return s.Repo.OffersStats(ctx, s.DB, brandID)
}

// IterationsStats returns inputs for the iterations list ETag.
func (s *OfferService) IterationsStats(ctx context.Context, offerID string) (int64, *time.Time, error) {
	return s.Repo.IterationsStats(ctx, s.DB, offerID)
}

// window converts 1-based paging into offset and limit.
func (s *OfferService) window(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.DefaultPageSize
		if pageSize <= 0 {
			pageSize = 20
		}
	}
	if s.MaxPageSize > 0 && pageSize > s.MaxPageSize {
		pageSize = s.MaxPageSize
	}
	return (page - 1) * pageSize, pageSize
}

// lookup maps a missing row onto ErrNotFound and passes other errors through.
func lookup(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
