package v1

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	servermiddleware "github.com/oralvis/oralvis-api/cmd/server/internal/middleware"
	"github.com/oralvis/oralvis-api/cmd/server/internal/response"
	"github.com/oralvis/oralvis-api/cmd/server/internal/srverr"
	"github.com/oralvis/oralvis-api/internal/lifecycle"
	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/models"
	"github.com/oralvis/oralvis-api/internal/types"
	"github.com/oralvis/oralvis-api/internal/validator"
)

// Attributes audit events to the authenticated reviewer
func withReviewer(c echo.Context) (*models.Reviewer, error) {
	reviewer, ok := c.Get(servermiddleware.ReviewerKey).(*models.Reviewer)
	if !ok {
		return nil, srverr.ErrTypeAssertMismatch
	}
	c.SetRequest(c.Request().WithContext(lifecycle.WithActor(c.Request().Context(), reviewer.ID.String())))
	return reviewer, nil
}

// ListSubmissions lists every submission, newest first
//
//	@Summary		List submissions
//	@Description	list every submission, newest first
//	@Tags			admin
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Success		200	{object}	types.SubmissionListResponse
//
//	@Failure		401	{object}	types.Error
//	@Failure		500	{object}	types.Error
//
//	@Router			/v1/admin/submissions/ [get]
func (h *Handler) ListSubmissions(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListSubmissions")
	defer span.End()

	subs, err := h.controller.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list submissions")
		return response.FromLifecycle(err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed submissions")
	return c.JSON(http.StatusOK, types.SubmissionListResponse{
		Message: "Submissions fetched",
		Data:    toAPI(subs),
	})
}

// GetSubmission fetches one submission
//
//	@Summary		Get submission
//	@Tags			admin
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			submission_id	path		string	true	"Submission ID"	Format(uuid)
//
//	@Success		200				{object}	types.SubmissionResponse
//
//	@Failure		401				{object}	types.Error
//	@Failure		404				{object}	types.Error
//	@Failure		500				{object}	types.Error
//
//	@Router			/v1/admin/submissions/{submission_id}/ [get]
func (h *Handler) GetSubmission(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "GetSubmission")
	defer span.End()

	sub, ok := servermiddleware.Submission(c)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("submission: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("submission.id", sub.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched submission")
	return c.JSON(http.StatusOK, types.SubmissionResponse{
		Message: "Submission fetched",
		Data:    sub.ToAPI(ArtifactURL),
	})
}

// Annotate composites a reviewer overlay onto the submission photograph
//
//	@Summary		Annotate submission
//	@Description	composite a transparent overlay onto the first photograph and store the markup payload
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			submission_id	path		string						true	"Submission ID"	Format(uuid)
//	@Param			payload			body		types.AnnotateSubmission	true	"Annotation"
//
//	@Success		200				{object}	types.SubmissionResponse
//
//	@Failure		400				{object}	types.Error
//	@Failure		401				{object}	types.Error
//	@Failure		404				{object}	types.Error
//	@Failure		409				{object}	types.Error
//	@Failure		500				{object}	types.Error
//
//	@Router			/v1/admin/submissions/{submission_id}/annotate/ [post]
func (h *Handler) Annotate(c echo.Context) error {
	reviewer, err := withReviewer(c)
	if err != nil {
		return response.InternalServerError
	}

	ctx, span := tracer.Start(c.Request().Context(), "Annotate")
	defer span.End()

	sub, ok := servermiddleware.Submission(c)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("submission: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(
		attribute.String("reviewer.id", reviewer.ID.String()),
		attribute.String("submission.id", sub.ID.String()),
	)

	var rdata types.AnnotateSubmission
	span.AddEvent("parsing request body")
	if err := c.Bind(&rdata); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "failed to parse request data")
		return echo.NewHTTPError(http.StatusBadRequest, types.StringError("failed to parse request data"))
	}

	span.AddEvent("validating request body")
	if err := c.Validate(rdata); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "failed to validate request data")
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	encoded := validator.StripDataURL(rdata.AnnotatedImage)
	if !validator.ValidateOverlaySize(len(encoded), h.config.Limits.MaxOverlayBytes) {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "overlay too large")
		return echo.NewHTTPError(http.StatusBadRequest, types.FieldError(
			"annotatedImage", fmt.Sprintf("must be <= %d bytes", h.config.Limits.MaxOverlayBytes),
		))
	}

	overlay, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "failed to decode overlay")
		return echo.NewHTTPError(http.StatusBadRequest, types.FieldError("annotatedImage", "must be valid base64"))
	}

	payload := rdata.AnnotationJSON
	if string(payload) == "null" {
		payload = nil
	}

	updated, err := h.controller.Annotate(ctx, sub.ID, overlay, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to annotate submission")
		return response.FromLifecycle(err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "annotated submission")
	return c.JSON(http.StatusOK, types.SubmissionResponse{
		Message: "Annotation saved",
		Data:    updated.ToAPI(ArtifactURL),
	})
}

// Report generates the submission report
//
//	@Summary		Generate report
//	@Description	streams the PDF. Annotated submissions also get it persisted; uploaded ones receive a preview.
//	@Tags			admin
//	@Produce		application/pdf
//
//	@Security		BasicAuth
//
//	@Param			submission_id	path		string	true	"Submission ID"	Format(uuid)
//
//	@Success		200				{file}		binary
//
//	@Failure		401				{object}	types.Error
//	@Failure		404				{object}	types.Error
//	@Failure		500				{object}	types.Error
//
//	@Router			/v1/admin/submissions/{submission_id}/report/ [post]
func (h *Handler) Report(c echo.Context) error {
	if _, err := withReviewer(c); err != nil {
		return response.InternalServerError
	}

	ctx, span := tracer.Start(c.Request().Context(), "Report")
	defer span.End()

	sub, ok := servermiddleware.Submission(c)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("submission: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}
	span.SetAttributes(attribute.String("submission.id", sub.ID.String()))

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/pdf")
	res.Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType(
		"attachment",
		map[string]string{"filename": lifecycle.ReportFilename(sub)},
	))

	result, err := h.controller.GenerateReport(ctx, sub.ID, res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate report")
		if res.Committed {
			// the document already reached the caller, only persistence failed
			logger.Logger.ErrorContext(ctx, "report delivered but not recorded", "submission_id", sub.ID, "error", err)
			return nil
		}
		res.Header().Del(echo.HeaderContentDisposition)
		res.Header().Del(echo.HeaderContentType)
		return response.FromLifecycle(err)
	}

	span.SetAttributes(
		attribute.Bool("report.persisted", result.Persisted),
		attribute.Int("report.size", result.Size),
	)
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "generated report")
	return nil
}

// Reconcile reports submission references whose artifact is gone
//
//	@Summary		Reconcile artifacts
//	@Tags			admin
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Success		200	{object}	types.ReconcileResponse
//
//	@Failure		401	{object}	types.Error
//	@Failure		500	{object}	types.Error
//
//	@Router			/v1/admin/reconcile/ [post]
func (h *Handler) Reconcile(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Reconcile")
	defer span.End()

	result, err := h.controller.Reconcile(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reconcile")
		return response.FromLifecycle(err)
	}

	span.SetAttributes(attribute.Int("missing", len(result.Missing)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "reconciled")
	return c.JSON(http.StatusOK, result)
}
