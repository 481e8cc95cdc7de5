// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Offer model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an offer is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Usage:
//
//	offer, err := repo.GetOffer(ctx, db, id, brandID)
//	if errors.Is(err, repo.ErrNotFound) {
//	    // handle missing
//	} else if err != nil {
//	    // handle DB failure
//	}
//
// Version bookkeeping and the paired iteration append live in
// services.VersionStore.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-offer-engine/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateOffer inserts o. A missing ID is filled with a UUID and timestamps
// default to now (UTC).
func CreateOffer(ctx context.Context, db *gorm.DB, o *domain.Offer) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = now
	}
	return db.WithContext(ctx).Create(o).Error
}

// GetOffer fetches an offer by ID and owning brand. An empty brandID skips
// the ownership filter.
func GetOffer(ctx context.Context, db *gorm.DB, id, brandID string) (*domain.Offer, error) {
	var o domain.Offer
	q := db.WithContext(ctx).Where("id = ?", id)
	if brandID != "" {
		q = q.Where("brand_id = ?", brandID)
	}
	if err := q.First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// CountOffers returns the total number of offers owned by brandID.
func CountOffers(ctx context.Context, db *gorm.DB, brandID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Offer{}).
		Where("brand_id = ?", brandID).
		Count(&total).Error
	return total, err
}

// ListOffersPage returns a page of a brand's offers, most recently created first.
func ListOffersPage(ctx context.Context, db *gorm.DB, brandID string, offset, limit int) ([]domain.Offer, error) {
	var out []domain.Offer
	err := db.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// OfferFields are the columns a save overwrites.
type OfferFields struct {
	Title     string
	OfferType domain.OfferType
	Pricing   domain.Pricing
	Content   domain.ContentBody
	Rationale string
}

// UpdateOfferFields overwrites the saved fields of offer id and bumps its
// version by one in the same statement. It returns the new version, or
// ErrNotFound when no row matched.
func UpdateOfferFields(ctx context.Context, db *gorm.DB, id string, f OfferFields) (int, error) {
	res := db.WithContext(ctx).
		Model(&domain.Offer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":                 f.Title,
			"offer_type":            f.OfferType,
			"pricing_price":         f.Pricing.Price,
			"pricing_currency":      f.Pricing.Currency,
			"pricing_payment_model": f.Pricing.PaymentModel,
			"content":               datatypes.NewJSONType(f.Content),
			"rationale":             f.Rationale,
			"version":               gorm.Expr("version + 1"),
			"updated_at":            time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}

	var row struct{ Version int }
	if err := db.WithContext(ctx).Model(&domain.Offer{}).Select("version").Where("id = ?", id).Scan(&row).Error; err != nil {
		return 0, err
	}
	return row.Version, nil
}

// RestoreOffer writes prev's saved fields, version and UpdatedAt back over
// the stored row. Used to undo an update whose history append failed.
func RestoreOffer(ctx context.Context, db *gorm.DB, prev *domain.Offer) error {
	res := db.WithContext(ctx).
		Model(&domain.Offer{}).
		Where("id = ?", prev.ID).
		Updates(map[string]any{
			"title":                 prev.Title,
			"offer_type":            prev.OfferType,
			"pricing_price":         prev.Pricing.Price,
			"pricing_currency":      prev.Pricing.Currency,
			"pricing_payment_model": prev.Pricing.PaymentModel,
			"content":               prev.Content,
			"rationale":             prev.Rationale,
			"version":               prev.Version,
			"updated_at":            prev.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOffer removes an offer row. Iteration records cascade.
func DeleteOffer(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Offer{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateOfferStatus sets the lifecycle status of a brand's offer. It does not
// touch the version or history.
func UpdateOfferStatus(ctx context.Context, db *gorm.DB, id, brandID string, status domain.OfferStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Offer{}).
		Where("id = ? AND brand_id = ?", id, brandID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
