// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// IterationRecord model. There is deliberately no update or delete.
package repo

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-offer-engine/internal/domain"
)

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// newIterationID returns a ULID that sorts after every ID previously issued
// by this process within the same millisecond.
func newIterationID(now time.Time) string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), ulidEntropy).String()
}

// AppendIteration inserts the record for version of offerID.
func AppendIteration(ctx context.Context, db *gorm.DB, offerID string, version int, refinementPrompt string, body domain.ContentBody) (*domain.IterationRecord, error) {
	now := time.Now().UTC()
	rec := &domain.IterationRecord{
		ID:               newIterationID(now),
		OfferID:          offerID,
		Version:          version,
		RefinementPrompt: refinementPrompt,
		Snapshot:         datatypes.NewJSONType(body.Clone()),
		CreatedAt:        now,
	}
	if err := db.WithContext(ctx).Omit("Offer").Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// ListIterations returns every record of an offer, oldest first.
func ListIterations(ctx context.Context, db *gorm.DB, offerID string) ([]domain.IterationRecord, error) {
	var out []domain.IterationRecord
	err := db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		Order("version ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountIterations returns the number of records for an offer.
func CountIterations(ctx context.Context, db *gorm.DB, offerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.IterationRecord{}).
		Where("offer_id = ?", offerID).
		Count(&total).Error
	return total, err
}

// ListIterationsPage returns a page of an offer's records, oldest first.
func ListIterationsPage(ctx context.Context, db *gorm.DB, offerID string, offset, limit int) ([]domain.IterationRecord, error) {
	var out []domain.IterationRecord
	err := db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		Order("version ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// LatestIteration returns the newest record of an offer.
func LatestIteration(ctx context.Context, db *gorm.DB, offerID string) (*domain.IterationRecord, error) {
	var rec domain.IterationRecord
	err := db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		Order("version DESC, id DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
