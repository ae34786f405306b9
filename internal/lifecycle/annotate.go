package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/png"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/oralvis/oralvis-api/internal/artifact"
	"github.com/oralvis/oralvis-api/internal/audit"
	"github.com/oralvis/oralvis-api/internal/compositor"
	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/models"
	"github.com/oralvis/oralvis-api/internal/types"
)

func checkAnnotatable(sub *models.Submission) error {
	if sub.Status == types.SubmissionStatusReported {
		return newError(ErrPrecondition, "submission already has a report, annotating would regress its status", nil)
	}
	return nil
}

// Merges the reviewer overlay onto the subject photograph and moves the submission to annotated
func (c *Controller) Annotate(
	ctx context.Context,
	id uuid.UUID,
	overlay []byte,
	payload json.RawMessage,
) (*models.Submission, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "Annotate", trace.WithAttributes(
		attribute.String("submission.id", id.String()),
		attribute.Int("overlay.length", len(overlay)),
	))
	defer span.End()

	if len(overlay) == 0 {
		err := validationError("invalid annotation", map[string]string{"annotatedImage": "required"})
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty overlay")
		return nil, err
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(overlay)); err != nil {
		verr := validationError("invalid annotation", map[string]string{"annotatedImage": "not a decodable image"})
		verr.Err = err
		span.RecordError(verr)
		span.SetStatus(codes.Error, "undecodable overlay")
		return nil, verr
	}
	if len(payload) != 0 && !json.Valid(payload) {
		err := validationError("invalid annotation", map[string]string{"annotationJson": "not valid JSON"})
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payload")
		return nil, err
	}

	sub, err := c.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load submission")
		return nil, err
	}
	if err := checkAnnotatable(sub); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission not annotatable")
		return nil, err
	}

	subject := sub.SubjectImage()
	present, err := c.store.Exists(ctx, subject)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check subject photograph")
		return nil, fmt.Errorf("checking subject photograph: %w", err)
	}
	if !present {
		err := newError(ErrPrecondition, "subject photograph "+subject+" is not present on the store", nil)
		span.RecordError(err)
		span.SetStatus(codes.Error, "subject photograph missing")
		return nil, err
	}

	store := c.storeName(ctx)
	actx := auditContext(ctx, sub.ID.String())

	overlayRef, err := artifact.Save(ctx, c.store, artifact.DirOverlays, "overlay.png", overlay)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store overlay")
		return nil, fmt.Errorf("storing overlay: %w", err)
	}
	defer func() {
		if err := c.store.Delete(ctx, overlayRef); err != nil {
			logger.Logger.ErrorContext(ctx, "failed to delete transient overlay", "ref", overlayRef, "error", err)
			c.orphaned(ctx, sub.ID.String(), audit.ArtifactOverlay, "transient overlay could not be deleted", overlayRef)
		}
	}()

	result, err := c.composite(ctx, subject, overlayRef)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to composite")
		return nil, err
	}

	annotatedRef, err := artifact.Save(
		ctx, c.store, artifact.DirAnnotated, "annotated-"+sub.ID.String()+".png", result.PNG,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store annotated image")
		return nil, fmt.Errorf("storing annotated image: %w", err)
	}
	audit.LogArtifactStored(actx, store, annotatedRef, result.SHA256, audit.ArtifactAnnotated)

	var reannotation bool
	updated, err := c.repo.Update(ctx, id, func(cur *models.Submission) error {
		if err := checkAnnotatable(cur); err != nil {
			return err
		}
		reannotation = cur.Status == types.SubmissionStatusAnnotated
		cur.AnnotatedImageRef = models.Set(annotatedRef)
		if len(payload) != 0 {
			cur.AnnotationPayload = datatypes.JSON(payload)
		} else {
			cur.AnnotationPayload = nil
		}
		cur.Status = types.SubmissionStatusAnnotated
		return nil
	})
	if err != nil {
		c.orphaned(ctx, sub.ID.String(), audit.ArtifactAnnotated, "submission record could not be updated", annotatedRef)
		if errors.Is(err, models.ErrNotFound) {
			err = newError(ErrNotFound, "submission "+id.String()+" does not exist", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update submission")
		return nil, err
	}

	audit.LogSubmissionAnnotated(actx, annotatedRef, result.SHA256, reannotation)
	c.recordTransition(ctx, updated.Status)
	logger.Logger.InfoContext(ctx, "submission annotated",
		"submission_id", updated.ID,
		"ref", annotatedRef,
		"reannotation", reannotation,
	)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "annotated submission")
	return updated, nil
}

func (c *Controller) composite(ctx context.Context, subjectRef, overlayRef string) (*compositor.Result, error) {
	base, err := c.store.Get(ctx, subjectRef)
	if errors.Is(err, artifact.ErrNotFound) {
		return nil, newError(ErrAssetMissing, "subject photograph "+subjectRef+" disappeared", err)
	} else if err != nil {
		return nil, fmt.Errorf("opening subject photograph: %w", err)
	}
	defer base.Close()

	ov, err := c.store.Get(ctx, overlayRef)
	if err != nil {
		return nil, newError(ErrAssetMissing, "overlay "+overlayRef+" could not be read back", err)
	}
	defer ov.Close()

	result, err := c.compositor.Composite(ctx, base, ov)
	switch {
	case errors.Is(err, compositor.ErrUnreadable):
		return nil, newError(ErrAssetMissing, "subject photograph could not be read", err)
	case err != nil:
		return nil, newError(ErrGeneration, "could not composite annotated image", err)
	}
	return result, nil
}

