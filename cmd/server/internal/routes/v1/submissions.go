package v1

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	servermiddleware "github.com/oralvis/oralvis-api/cmd/server/internal/middleware"
	"github.com/oralvis/oralvis-api/cmd/server/internal/response"
	"github.com/oralvis/oralvis-api/cmd/server/internal/srverr"
	"github.com/oralvis/oralvis-api/internal/lifecycle"
	"github.com/oralvis/oralvis-api/internal/models"
	"github.com/oralvis/oralvis-api/internal/patienttoken"
	"github.com/oralvis/oralvis-api/internal/types"
)

func toAPI(subs []models.Submission) []types.Submission {
	out := make([]types.Submission, len(subs))
	for i, s := range subs {
		out[i] = s.ToAPI(ArtifactURL)
	}
	return out
}

func readUpload(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%s is larger than %d bytes", fh.Filename, maxBytes)
	}
	return data, nil
}

// CreateSubmission stores the photographs and creates an uploaded submission
//
//	@Summary		Create submission
//	@Description	upload one or more intraoral photographs with patient details
//	@Tags			submissions
//	@Accept			multipart/form-data
//	@Produce		json
//
//	@Security		PatientJWT
//
//	@Param			name		formData	string	true	"Patient name"
//	@Param			patientId	formData	string	true	"Patient ID"
//	@Param			email		formData	string	true	"Email, must match the token"
//	@Param			note		formData	string	true	"Patient note"
//	@Param			images		formData	file	true	"Photographs"
//
//	@Success		201			{object}	types.SubmissionResponse
//
//	@Failure		400			{object}	types.Error
//	@Failure		401			{object}	types.Error
//	@Failure		429			{object}	types.Error
//	@Failure		500			{object}	types.Error
//
//	@Router			/v1/submissions/ [post]
func (h *Handler) CreateSubmission(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateSubmission")
	defer span.End()

	patient, ok := c.Get(servermiddleware.PatientKey).(*patienttoken.Claims)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("patient: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	requestTime := servermiddleware.ReceivedAt(c)

	span.SetAttributes(
		attribute.String("patient.subject", patient.Subject),
		attribute.Int64("request.timestamp_ms", requestTime.UnixMilli()),
	)

	var rdata types.CreateSubmission
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

	if !strings.EqualFold(strings.TrimSpace(rdata.Email), patient.Email) {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "email does not match token")
		return echo.NewHTTPError(http.StatusBadRequest, types.FieldError("email", "must match the signed in account"))
	}

	form, err := c.MultipartForm()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "request is not multipart")
		return echo.NewHTTPError(http.StatusBadRequest, types.StringError("expected a multipart form"))
	}

	limits := h.config.Limits
	files := form.File["images"]
	if len(files) > limits.MaxImages {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "too many images")
		return echo.NewHTTPError(http.StatusBadRequest, types.FieldError(
			"images", fmt.Sprintf("at most %d images are accepted", limits.MaxImages),
		))
	}

	uploads := make([]lifecycle.Upload, 0, len(files))
	for i, fh := range files {
		data, err := readUpload(fh, limits.MaxImageBytes)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Ok, "unreadable image")
			return echo.NewHTTPError(http.StatusBadRequest, types.FieldError(fmt.Sprintf("images[%d]", i), err.Error()))
		}
		uploads = append(uploads, lifecycle.Upload{Filename: fh.Filename, Data: data})
	}

	ctx = lifecycle.WithActor(ctx, patient.Email)
	sub, err := h.controller.CreateSubmission(ctx, lifecycle.NewSubmission{
		PatientID: rdata.PatientID,
		Name:      rdata.Name,
		Email:     patient.Email,
		Note:      rdata.Note,
	}, uploads)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create submission")
		return response.FromLifecycle(err)
	}

	span.SetAttributes(attribute.String("submission.id", sub.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created submission")
	return c.JSON(http.StatusCreated, types.SubmissionResponse{
		Message: "Submission created",
		Data:    sub.ToAPI(ArtifactURL),
	})
}

// ListMine lists the submissions of the signed in patient
//
//	@Summary		List own submissions
//	@Tags			submissions
//	@Produce		json
//
//	@Security		PatientJWT
//
//	@Success		200	{object}	types.SubmissionListResponse
//
//	@Failure		401	{object}	types.Error
//	@Failure		500	{object}	types.Error
//
//	@Router			/v1/submissions/mine/ [get]
func (h *Handler) ListMine(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListMine")
	defer span.End()

	patient, ok := c.Get(servermiddleware.PatientKey).(*patienttoken.Claims)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("patient: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	subs, err := h.controller.ListByEmail(ctx, patient.Email)
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
