// Package models is the gorm persistence layer: row types, the submission
// repository and reviewer credential storage.
package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/oralvis/oralvis-api/internal/models")

var ErrNotFound = errors.New("record not found")

// Model carries the columns every table shares. Ids are uuidv7 so rows sort by
// creation time even when created_at ties.
type Model struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        uuid.UUID `gorm:"primaryKey"`
}

// BeforeCreate mints an id when the caller did not pick one.
func (m *Model) BeforeCreate(*gorm.DB) error {
	if m.ID != uuid.Nil {
		return nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("minting id: %w", err)
	}
	m.ID = id
	return nil
}

// Row is implemented by every table type that ByID can load.
type Row interface {
	Submission | Reviewer
	TableName() string
}

func ByID[T Row](ctx context.Context, db *gorm.DB, id uuid.UUID) (*T, error) {
	var row T

	ctx, span := tracer.Start(ctx, "ByID")
	defer span.End()
	span.SetAttributes(
		attribute.String("table", row.TableName()),
		attribute.String("id", id.String()),
	)

	err := db.WithContext(ctx).Take(&row, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "no such row")
		return nil, ErrNotFound
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load row")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "loaded row")
	return &row, nil
}

// NewNull converts an optional pointer into a nullable column value.
func NewNull[T any](v *T) datatypes.Null[T] {
	if v == nil {
		return datatypes.Null[T]{}
	}
	return datatypes.NewNull(*v)
}

// Set is shorthand for a present nullable column value.
func Set[T any](v T) datatypes.Null[T] {
	return datatypes.NewNull(v)
}
