// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-offer-engine/internal/domain"
)

// OffersStats returns the number of a brand's offers and the greatest
// UpdatedAt among them. When the brand has no offers, the count is 0 and
// maxUpdatedAt is nil.
func OffersStats(ctx context.Context, db *gorm.DB, brandID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Offer{}).Where("brand_id = ?", brandID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Offer{}).Where("brand_id = ?", brandID).
		Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// IterationsStats returns the number of records for an offer and the
// CreatedAt of the newest one. Records are immutable, so this pair changes
// exactly when the history grows.
func IterationsStats(ctx context.Context, db *gorm.DB, offerID string) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.IterationRecord{}).Where("offer_id = ?", offerID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.IterationRecord{}).Where("offer_id = ?", offerID).
		Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
