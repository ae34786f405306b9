package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres backed submission records
type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, s *Submission) error {
	ctx, span := tracer.Start(ctx, "SubmissionRepository.Create")
	defer span.End()

	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create submission")
		return fmt.Errorf("failed to create submission: %w", err)
	}

	span.SetAttributes(attribute.String("submission.id", s.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created submission")
	return nil
}

func (r *SubmissionRepository) Get(ctx context.Context, id uuid.UUID) (*Submission, error) {
	return ByID[Submission](ctx, r.db, id)
}

// Applies `mutate` to the record while holding its row lock. Concurrent
// updates of the same id are serialized, different ids do not contend.
// Nothing is written when `mutate` returns an error.
func (r *SubmissionRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	mutate func(*Submission) error,
) (*Submission, error) {
	ctx, span := tracer.Start(ctx, "SubmissionRepository.Update", trace.WithAttributes(
		attribute.String("submission.id", id.String()),
	))
	defer span.End()

	var updated Submission
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Submission
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := mutate(&current); err != nil {
			return err
		}

		if err := tx.Save(&current).Error; err != nil {
			return err
		}

		updated = current
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update submission")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated submission")
	return &updated, nil
}

// Newest first
func (r *SubmissionRepository) ListAll(ctx context.Context) ([]Submission, error) {
	ctx, span := tracer.Start(ctx, "SubmissionRepository.ListAll")
	defer span.End()

	var submissions []Submission
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&submissions).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list submissions")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(submissions)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed submissions")
	return submissions, nil
}

// Newest first
func (r *SubmissionRepository) ListByEmail(ctx context.Context, email string) ([]Submission, error) {
	ctx, span := tracer.Start(ctx, "SubmissionRepository.ListByEmail")
	defer span.End()

	var submissions []Submission
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&submissions).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list submissions by email")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(submissions)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed submissions by email")
	return submissions, nil
}
