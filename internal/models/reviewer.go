package models

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oralvis/oralvis-api/internal/config"
)

// Staff account allowed to annotate submissions and generate reports
type Reviewer struct {
	Token string // argon2id hash
	Note  string // will be logged nonsensitive
	Model
	Active datatypes.Null[bool]
}

func (Reviewer) TableName() string {
	return "reviewer"
}

func (r Reviewer) IsActive() bool {
	return r.Active.Valid && r.Active.V
}

// Config is the authoritative reviewer list
//
// 1. Upsert reviewer keys
// 2. Deactivate reviewers not currently contained in the config
func LoadReviewersFromConfig(ctx context.Context, db *gorm.DB, reviewers []config.Reviewer) error {
	ctx, span := tracer.Start(ctx, "LoadReviewersFromConfig")
	defer span.End()

	db = db.WithContext(ctx)

	toUpsert := make([]*Reviewer, len(reviewers))
	inConfig := make([]uuid.UUID, len(reviewers))
	for i, reviewer := range reviewers {
		hash, err := argon2id.CreateHash(reviewer.APIKey.Token, argon2id.DefaultParams)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "error creating hash for reviewer key")
			span.SetAttributes(attribute.String("failedReviewer", reviewer.ID))
			return err
		}

		reviewerID, err := uuid.Parse(reviewer.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "error parsing reviewer id")
			span.SetAttributes(attribute.String("failedReviewer", reviewer.ID))
			return err
		}

		toUpsert[i] = &Reviewer{
			Model:  Model{ID: reviewerID},
			Token:  hash,
			Note:   reviewer.Note,
			Active: NewNull(reviewer.APIKey.Active),
		}
		inConfig[i] = reviewerID
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "LoadReviewersFromConfig/Transaction")
		defer span.End()

		tx = tx.WithContext(ctx)

		if len(toUpsert) != 0 {
			span.AddEvent("upserting configured reviewers")
			result := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(toUpsert)
			if result.Error != nil {
				span.RecordError(result.Error)
				span.SetStatus(codes.Error, "failed to upsert configured reviewers")
				return fmt.Errorf("failed to upsert configured reviewers: %w", result.Error)
			}
		} else {
			span.AddEvent("no configured reviewers to upsert")
		}

		span.AddEvent("deactivating reviewers missing from config")

		query := tx.Model(&Reviewer{})
		if len(inConfig) != 0 {
			query = query.Where("id NOT IN ?", inConfig)
		} else {
			query = query.Where("1 = 1")
		}
		result := query.Updates(&Reviewer{Active: Set(false)})
		if result.Error != nil {
			span.RecordError(result.Error)
			span.SetStatus(codes.Error, "failed to deactivate reviewers missing from config")
			return fmt.Errorf("failed to deactivate reviewers missing from config: %w", result.Error)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "updated reviewers")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update reviewers")
		return fmt.Errorf("failed to update reviewers: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated reviewers")
	return nil
}
