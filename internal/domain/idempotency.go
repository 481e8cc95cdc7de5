package domain

import "time"

// Idempotency records the outcome of a completed save keyed by
// (brand_id, scope, key). Scope is "create" for new offers and the offer ID
// for updates, so the same client key can be reused across offers.
type Idempotency struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	BrandID   string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_brand_scope_key,priority:1"`
	Scope     string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_brand_scope_key,priority:2"`
	Key       string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_brand_scope_key,priority:3"`
	OfferID   string    `gorm:"type:varchar(36);not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
