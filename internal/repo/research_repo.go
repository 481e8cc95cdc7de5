// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for research
// reports and the lookup the orchestrator uses to fetch report text.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-offer-engine/internal/domain"
)

// CreateResearchReport stores text extracted by the crawler for brandID.
func CreateResearchReport(ctx context.Context, db *gorm.DB, brandID, sourceURL, content string) (*domain.ResearchReport, error) {
	r := &domain.ResearchReport{
		ID:        uuid.NewString(),
		BrandID:   brandID,
		SourceURL: sourceURL,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetResearchReport fetches a report by ID. An empty brandID skips the
// ownership filter.
func GetResearchReport(ctx context.Context, db *gorm.DB, id, brandID string) (*domain.ResearchReport, error) {
	var r domain.ResearchReport
	q := db.WithContext(ctx).Where("id = ?", id)
	if brandID != "" {
		q = q.Where("brand_id = ?", brandID)
	}
	if err := q.First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ResearchStore serves report text to the orchestrator.
type ResearchStore struct {
	DB *gorm.DB
}

// ResearchText returns the content of report id. A report owned by another
// brand is reported as ErrNotFound.
func (s ResearchStore) ResearchText(ctx context.Context, brandID, id string) (string, error) {
	r, err := GetResearchReport(ctx, s.DB, id, brandID)
	if err != nil {
		return "", err
	}
	return r.Content, nil
}
