package lifecycle

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/oralvis/oralvis-api/internal/artifact"
	"github.com/oralvis/oralvis-api/internal/audit"
	"github.com/oralvis/oralvis-api/internal/hash"
	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/models"
	"github.com/oralvis/oralvis-api/internal/types"
)

type NewSubmission struct {
	PatientID string
	Name      string
	Email     string
	Note      string
}

// One uploaded photograph
type Upload struct {
	Filename string
	Data     []byte
}

func (c *Controller) validateNew(in NewSubmission, images []Upload) *Error {
	fields := map[string]string{}
	for field, value := range map[string]string{
		"patientId": in.PatientID,
		"name":      in.Name,
		"email":     in.Email,
		"note":      in.Note,
	} {
		if strings.TrimSpace(value) == "" {
			fields[field] = "required"
		}
	}
	if _, ok := fields["email"]; !ok {
		if err := c.validate.Var(in.Email, "email"); err != nil {
			fields["email"] = "must be a valid email address"
		}
	}

	switch {
	case len(images) == 0:
		fields["images"] = "at least one image is required"
	case c.limits.MaxImages > 0 && len(images) > c.limits.MaxImages:
		fields["images"] = fmt.Sprintf("at most %d images are accepted", c.limits.MaxImages)
	}
	for i, img := range images {
		key := fmt.Sprintf("images[%d]", i)
		switch {
		case len(img.Data) == 0:
			fields[key] = "empty file"
		case c.limits.MaxImageBytes > 0 && int64(len(img.Data)) > c.limits.MaxImageBytes:
			fields[key] = fmt.Sprintf("larger than %d bytes", c.limits.MaxImageBytes)
		case !strings.HasPrefix(http.DetectContentType(img.Data), "image/"):
			fields[key] = "not an image"
		}
	}

	if len(fields) != 0 {
		return validationError("invalid submission", fields)
	}
	return nil
}

// Stores every photograph then records a new submission in status uploaded
func (c *Controller) CreateSubmission(
	ctx context.Context,
	in NewSubmission,
	images []Upload,
) (*models.Submission, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "CreateSubmission", trace.WithAttributes(
		attribute.String("patient.id", in.PatientID),
		attribute.Int("images", len(images)),
	))
	defer span.End()

	if verr := c.validateNew(in, images); verr != nil {
		span.RecordError(verr)
		span.SetStatus(codes.Error, "invalid submission")
		return nil, verr
	}

	store := c.storeName(ctx)
	refs := make([]string, 0, len(images))
	for _, img := range images {
		ref, err := artifact.Save(ctx, c.store, artifact.DirImages, img.Filename, img.Data)
		if err != nil {
			logger.Logger.ErrorContext(ctx, "failed to store photograph", "filename", img.Filename, "error", err)
			c.orphaned(ctx, "", audit.ArtifactPhotograph, "sibling photograph could not be stored", refs...)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to store photograph")
			return nil, fmt.Errorf("storing photograph %q: %w", img.Filename, err)
		}
		refs = append(refs, ref)
		audit.LogArtifactStored(auditContext(ctx, ""), store, ref, hash.Sum(img.Data), audit.ArtifactPhotograph)
	}

	sub := &models.Submission{
		PatientID: strings.TrimSpace(in.PatientID),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Note:      in.Note,
		Images:    refs,
		Status:    types.SubmissionStatusUploaded,
	}
	if err := c.repo.Create(ctx, sub); err != nil {
		logger.Logger.ErrorContext(ctx, "failed to record submission", "error", err)
		c.orphaned(ctx, "", audit.ArtifactPhotograph, "submission record could not be written", refs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to record submission")
		return nil, fmt.Errorf("recording submission: %w", err)
	}

	span.SetAttributes(attribute.String("submission.id", sub.ID.String()))
	audit.LogSubmissionCreated(auditContext(ctx, sub.ID.String()), sub.PatientID, len(refs))
	c.recordTransition(ctx, sub.Status)
	logger.Logger.InfoContext(ctx, "submission created", "submission_id", sub.ID, "images", len(refs))

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created submission")
	return sub, nil
}
