// Package domain defines the persistence models for offers, their iteration
// history and the research reports used as generation context. These types
// are mapped with GORM and shared across the repository and service layers.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Refinement prompts recorded on the first iteration of an offer.
const (
	PromptInitialGeneration = "Initial generation"
	PromptInitialExpansion  = "Initial deep dive expansion"
)

// Offer is the mutable artifact under refinement. Its content, pricing,
// title and rationale are overwritten on every accepted save; identity and
// CreatedAt never change.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - BrandID: owning brand; indexed with CreatedAt for listing.
//   - Status: draft, active or archived (enforced by DB constraint).
//   - Content: typed JSON column holding the current ContentBody.
//   - Version: number of iteration records; bumped in the same transaction
//     that appends a record.
type Offer struct {
	ID        string                          `json:"id"         gorm:"type:char(36);primaryKey"`
	BrandID   string                          `json:"brand_id"   gorm:"type:varchar(64);not null;index:idx_brand_offers,priority:1"`
	Title     string                          `json:"title"      gorm:"type:varchar(255);not null"`
	OfferType OfferType                       `json:"offer_type" gorm:"type:varchar(32);not null"`
	Status    OfferStatus                     `json:"status"     gorm:"type:varchar(16);not null;check:status IN ('draft','active','archived')"`
	Pricing   Pricing                         `json:"pricing"    gorm:"embedded;embeddedPrefix:pricing_"`
	Content   datatypes.JSONType[ContentBody] `json:"content"    gorm:"not null"`
	Rationale string                          `json:"rationale"  gorm:"type:text"`
	Version   int                             `json:"version"    gorm:"not null"`
	CreatedAt time.Time                       `json:"created_at" gorm:"index:idx_brand_offers,priority:2"`
	UpdatedAt time.Time                       `json:"updated_at"`
}

// TableName returns the database table name for Offer.
func (Offer) TableName() string { return "offers" }

// Body returns the offer's current content.
func (o *Offer) Body() ContentBody { return o.Content.Data() }

// IterationRecord is an immutable snapshot of an offer's content at one
// refinement step. Records are only ever inserted.
//
// Fields:
//   - ID: ULID (char(26)), monotonic so equal timestamps keep insert order.
//   - OfferID: owning offer (cascade on delete).
//   - Version: 1-based position in the offer's history, unique per offer.
//   - RefinementPrompt: the feedback (or sentinel) that produced Snapshot.
//   - Snapshot: full copy of the content body, not a diff.
type IterationRecord struct {
	ID               string                          `json:"id"                gorm:"type:char(26);primaryKey"`
	OfferID          string                          `json:"offer_id"          gorm:"type:char(36);not null;uniqueIndex:ux_offer_version,priority:1;index:idx_offer_iterations,priority:1"`
	Version          int                             `json:"version"           gorm:"not null;uniqueIndex:ux_offer_version,priority:2"`
	RefinementPrompt string                          `json:"refinement_prompt" gorm:"type:text;not null"`
	Snapshot         datatypes.JSONType[ContentBody] `json:"snapshot"          gorm:"not null"`
	CreatedAt        time.Time                       `json:"created_at"        gorm:"index:idx_offer_iterations,priority:2"`

	Offer Offer `json:"-" gorm:"foreignKey:OfferID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for IterationRecord.
func (IterationRecord) TableName() string { return "offer_iterations" }

// Body returns the snapshot content.
func (r *IterationRecord) Body() ContentBody { return r.Snapshot.Data() }

// ResearchReport holds text extracted from external pages by the crawler.
// The engine only ever reads Content.
type ResearchReport struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	BrandID   string    `json:"brand_id"   gorm:"type:varchar(64);not null;index"`
	SourceURL string    `json:"source_url" gorm:"type:text"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ResearchReport.
func (ResearchReport) TableName() string { return "research_reports" }
