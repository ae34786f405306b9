package middleware

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/oralvis/oralvis-api/cmd/server/internal/response"
	"github.com/oralvis/oralvis-api/internal/models"
)

var errBadCredentials = errors.New("bad reviewer credentials")

// Hash compared against when there is no real reviewer hash, so every
// rejected login costs one argon2id comparison.
var decoyHash = sync.OnceValue(func() string {
	hash, err := argon2id.CreateHash(uuid.NewString(), argon2id.DefaultParams)
	if err != nil {
		panic(err)
	}
	return hash
})

func burnHash(ctx context.Context, token string) {
	_, span := tracer.Start(ctx, "burnHash")
	defer span.End()

	if _, err := argon2id.ComparePasswordAndHash(token, decoyHash()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decoy comparison failed")
	}
}

// authenticateReviewer returns errBadCredentials for anything the caller
// should see as a plain 401. Other errors are server faults.
func (h *Handler) authenticateReviewer(ctx context.Context, rawID, token string) (*models.Reviewer, error) {
	ctx, span := tracer.Start(ctx, "authenticateReviewer")
	defer span.End()

	// A malformed id still costs a lookup so it cannot be told apart by latency.
	id, parseErr := uuid.Parse(rawID)
	if parseErr != nil {
		id = uuid.New()
	}

	reviewer, err := models.ByID[models.Reviewer](ctx, h.DB, id)
	switch {
	case parseErr != nil || errors.Is(err, models.ErrNotFound):
		burnHash(ctx, token)
		span.SetStatus(codes.Ok, "unknown reviewer")
		return nil, errBadCredentials
	case err != nil:
		burnHash(ctx, token)
		span.RecordError(err)
		span.SetStatus(codes.Error, "reviewer lookup failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("reviewer.id", reviewer.ID.String()),
		attribute.String("reviewer.note", reviewer.Note),
	)

	match, params, err := argon2id.CheckHash(token, reviewer.Token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stored hash is unreadable")
		return nil, err
	}
	if !match || !reviewer.IsActive() {
		span.AddEvent("rejected", trace.WithAttributes(attribute.Bool("reviewer.active", reviewer.IsActive())))
		span.SetStatus(codes.Ok, "rejected reviewer")
		return nil, errBadCredentials
	}

	if !reflect.DeepEqual(params, argon2id.DefaultParams) {
		if err := h.rehash(ctx, reviewer, token); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to upgrade token hash")
			return nil, err
		}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "authenticated reviewer")
	return reviewer, nil
}

// rehash upgrades a stored token hash to the current argon2id parameters.
func (h *Handler) rehash(ctx context.Context, reviewer *models.Reviewer, token string) error {
	hash, err := argon2id.CreateHash(token, argon2id.DefaultParams)
	if err != nil {
		return err
	}
	return h.DB.WithContext(ctx).
		Model(reviewer).
		Update("token", hash).Error
}

// BasicAuthValidator plugs reviewer authentication into echo's BasicAuth middleware.
func (h *Handler) BasicAuthValidator(rawID, token string, c echo.Context) (bool, error) {
	ctx, span := tracer.Start(c.Request().Context(), "BasicAuthValidator")
	defer span.End()

	reviewer, err := h.authenticateReviewer(ctx, rawID, token)
	switch {
	case errors.Is(err, errBadCredentials):
		span.AddEvent("failed login attempt")
		return false, nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "reviewer authentication errored")
		return false, response.InternalServerError
	}

	c.Set(ReviewerKey, reviewer)
	span.AddEvent("successful login attempt")
	return true, nil
}
