package v1

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	servermiddleware "github.com/oralvis/oralvis-api/cmd/server/internal/middleware"
	"github.com/oralvis/oralvis-api/cmd/server/internal/response"
	"github.com/oralvis/oralvis-api/internal/artifact"
	"github.com/oralvis/oralvis-api/internal/patienttoken"
)

// Patients may only fetch artifacts referenced by their own submissions
func (h *Handler) ownedBy(ctx context.Context, email string, ref string) (bool, error) {
	subs, err := h.controller.ListByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	for _, sub := range subs {
		for _, refs := range sub.References() {
			if slices.Contains(refs, ref) {
				return true, nil
			}
		}
	}
	return false, nil
}

// Download streams a stored artifact
//
//	@Summary		Download artifact
//	@Tags			uploads
//	@Produce		octet-stream
//
//	@Security		BasicAuth
//	@Security		PatientJWT
//
//	@Param			ref	path		string	true	"Artifact reference"
//
//	@Success		200	{file}		binary
//
//	@Failure		401	{object}	types.Error
//	@Failure		404	{object}	types.Error
//
//	@Router			/uploads/{ref} [get]
func (h *Handler) Download(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Download")
	defer span.End()

	ref := c.Param("*")
	span.SetAttributes(attribute.String("ref", ref))

	if err := artifact.ValidateRef(ref); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "invalid reference")
		return response.NotFoundError
	}

	if patient, ok := c.Get(servermiddleware.PatientKey).(*patienttoken.Claims); ok {
		owned, err := h.ownedBy(ctx, patient.Email, ref)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to check ownership")
			return response.InternalServerError
		}
		if !owned {
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "artifact not owned by patient")
			return response.NotFoundError
		}
	}

	rc, err := h.store.Get(ctx, ref)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, artifact.ErrNotFound) {
			span.SetStatus(codes.Ok, "artifact not found")
			return response.NotFoundError
		}
		span.SetStatus(codes.Error, "failed to open artifact")
		return response.InternalServerError
	}
	defer rc.Close()

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "streaming artifact")
	return c.Stream(http.StatusOK, artifact.ContentType(ref), rc)
}
