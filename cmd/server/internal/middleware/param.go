package middleware

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/oralvis/oralvis-api/cmd/server/internal/response"
	"github.com/oralvis/oralvis-api/internal/models"
)

const submissionKey = "submission"

// LoadSubmission resolves the submission named by the `param` path segment.
// A malformed id gets the same 404 as an unknown one.
func (h *Handler) LoadSubmission(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "LoadSubmission")
			defer span.End()

			raw := c.Param(param)
			span.SetAttributes(attribute.String("submission.id", raw))

			id, err := uuid.Parse(raw)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Ok, "submission id is not a uuid")
				return response.NotFoundError
			}

			sub, err := models.ByID[models.Submission](ctx, h.DB, id)
			switch {
			case errors.Is(err, models.ErrNotFound):
				span.RecordError(nil)
				span.SetStatus(codes.Ok, "no such submission")
				return response.NotFoundError
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to load submission")
				return response.InternalServerError
			}

			span.SetAttributes(attribute.String("submission.status", string(sub.Status)))
			c.Set(submissionKey, sub)

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "loaded submission")
			return next(c)
		}
	}
}

// Submission returns the record LoadSubmission attached to the request.
func Submission(c echo.Context) (*models.Submission, bool) {
	sub, ok := c.Get(submissionKey).(*models.Submission)
	return sub, ok
}
