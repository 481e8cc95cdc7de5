// Package services – VersionStore
//
// VersionStore is the only writer of offers and their iteration history. Every
// write pairs "mutate the offer" with "append one iteration record" so an
// offer always has at least one record and its latest snapshot equals its
// current content.
//
// Two modes are supported:
//   - TxAtomic: both writes run inside one database transaction.
//   - TxCompensate: writes run one after the other and a failed history append
//     is undone by deleting the new offer (create) or restoring the previous
//     fields (update). A failed undo is reported as ErrPersistence naming both
//     causes.
//
// There is no optimistic concurrency check: concurrent updates of the same
// offer are last-write-wins on the fields, and each still appends its own
// record.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-offer-engine/internal/domain"
	"github.com/tbourn/go-offer-engine/internal/repo"
)

// TxMode selects how the paired writes are made atomic.
type TxMode string

const (
	TxAtomic     TxMode = "atomic"
	TxCompensate TxMode = "compensate"
)

// NewOffer is the input of CreateOffer.
type NewOffer struct {
	BrandID   string
	Title     string
	OfferType domain.OfferType
	Pricing   domain.Pricing
	Content   domain.ContentBody
	Rationale string
	// RefinementPrompt labels the first record; empty means "Initial generation".
	RefinementPrompt string
}

// OfferUpdate is the input of UpdateOffer.
type OfferUpdate struct {
	OfferID          string
	BrandID          string // empty skips the ownership check
	Title            string
	OfferType        domain.OfferType
	Pricing          domain.Pricing
	Content          domain.ContentBody
	Rationale        string
	RefinementPrompt string
}

// VersionStore persists offers together with their history.
type VersionStore struct {
	DB   *gorm.DB
	Mode TxMode
}

// NewVersionStore returns a store using mode; unknown modes fall back to TxAtomic.
func NewVersionStore(db *gorm.DB, mode TxMode) *VersionStore {
	if mode != TxCompensate {
		mode = TxAtomic
	}
	return &VersionStore{DB: db, Mode: mode}
}

// CreateOffer inserts a draft offer at version 1 and its first record.
func (s *VersionStore) CreateOffer(ctx context.Context, in NewOffer) (*domain.Offer, error) {
	ctx, span := otel.Tracer("services/VersionStore").Start(ctx, "CreateOffer",
		trace.WithAttributes(attribute.String("brand.id", in.BrandID), attribute.String("tx.mode", string(s.Mode))),
	)
	defer span.End()

	if err := in.Content.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	label := in.RefinementPrompt
	if label == "" {
		label = domain.PromptInitialGeneration
	}
	o := &domain.Offer{
		BrandID:   in.BrandID,
		Title:     in.Title,
		OfferType: in.OfferType,
		Status:    domain.StatusDraft,
		Pricing:   in.Pricing,
		Content:   datatypes.NewJSONType(in.Content.Clone()),
		Rationale: in.Rationale,
		Version:   1,
	}

	if s.Mode == TxCompensate {
		if err := repo.CreateOffer(ctx, s.DB, o); err != nil {
			return nil, persistence(err)
		}
		if _, err := repo.AppendIteration(ctx, s.DB, o.ID, 1, label, in.Content); err != nil {
			if derr := repo.DeleteOffer(ctx, s.DB, o.ID); derr != nil {
				return nil, fmt.Errorf("%w: append history: %v; delete offer %s: %v", ErrPersistence, err, o.ID, derr)
			}
			return nil, persistence(err)
		}
		return o, nil
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateOffer(ctx, tx, o); err != nil {
			return err
		}
		_, err := repo.AppendIteration(ctx, tx, o.ID, 1, label, in.Content)
		return err
	})
	if err != nil {
		return nil, persistence(err)
	}
	return o, nil
}

// UpdateOffer overwrites the offer's saved fields, bumps its version and
// appends one record labelled with in.RefinementPrompt.
func (s *VersionStore) UpdateOffer(ctx context.Context, in OfferUpdate) (*domain.Offer, error) {
	ctx, span := otel.Tracer("services/VersionStore").Start(ctx, "UpdateOffer",
		trace.WithAttributes(attribute.String("offer.id", in.OfferID), attribute.String("tx.mode", string(s.Mode))),
	)
	defer span.End()

	if err := in.Content.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fields := repo.OfferFields{
		Title:     in.Title,
		OfferType: in.OfferType,
		Pricing:   in.Pricing,
		Content:   in.Content,
		Rationale: in.Rationale,
	}

	if s.Mode == TxCompensate {
		return s.updateCompensated(ctx, in, fields)
	}

	var out *domain.Offer
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetOffer(ctx, tx, in.OfferID, in.BrandID); err != nil {
			return err
		}
		v, err := repo.UpdateOfferFields(ctx, tx, in.OfferID, fields)
		if err != nil {
			return err
		}
		if _, err := repo.AppendIteration(ctx, tx, in.OfferID, v, in.RefinementPrompt, in.Content); err != nil {
			return err
		}
		out, err = repo.GetOffer(ctx, tx, in.OfferID, "")
		return err
	})
	if err != nil {
		return nil, persistence(err)
	}
	return out, nil
}

func (s *VersionStore) updateCompensated(ctx context.Context, in OfferUpdate, fields repo.OfferFields) (*domain.Offer, error) {
	prev, err := repo.GetOffer(ctx, s.DB, in.OfferID, in.BrandID)
	if err != nil {
		return nil, persistence(err)
	}
	v, err := repo.UpdateOfferFields(ctx, s.DB, in.OfferID, fields)
	if err != nil {
		return nil, persistence(err)
	}
	if _, err := repo.AppendIteration(ctx, s.DB, in.OfferID, v, in.RefinementPrompt, in.Content); err != nil {
		if rerr := repo.RestoreOffer(ctx, s.DB, prev); rerr != nil {
			return nil, fmt.Errorf("%w: append history: %v; restore offer %s: %v", ErrPersistence, err, in.OfferID, rerr)
		}
		return nil, persistence(err)
	}
	out, err := repo.GetOffer(ctx, s.DB, in.OfferID, "")
	if err != nil {
		return nil, persistence(err)
	}
	return out, nil
}

// History returns an offer's records, oldest first.
func (s *VersionStore) History(ctx context.Context, offerID string) ([]domain.IterationRecord, error) {
	recs, err := repo.ListIterations(ctx, s.DB, offerID)
	if err != nil {
		return nil, persistence(err)
	}
	return recs, nil
}

// persistence maps record-not-found onto ErrNotFound and everything else onto
// ErrPersistence, keeping the cause in the message.
func persistence(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
