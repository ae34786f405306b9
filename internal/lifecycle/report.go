package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/oralvis/oralvis-api/internal/artifact"
	"github.com/oralvis/oralvis-api/internal/audit"
	"github.com/oralvis/oralvis-api/internal/hash"
	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/models"
	"github.com/oralvis/oralvis-api/internal/report"
	"github.com/oralvis/oralvis-api/internal/types"
)

type ReportResult struct {
	Submission *models.Submission
	// Download name, `<patientId or id>_report.pdf`
	Filename string
	// Empty for previews
	Ref    string
	SHA256 string
	Size   int
	// False when the submission was still uploaded and the document was only streamed
	Persisted bool
	// Whether the caller sink accepted every byte
	Delivered bool
}

// Filename the report of `sub` is served and stored under. Known before generation so
// transports can announce it up front.
func ReportFilename(sub *models.Submission) string {
	return artifact.ReportFilename(sub.ID.String(), sub.PatientID)
}

// Status the report prints: anything past uploaded is persisted and leaves the
// submission reported.
func reportStatus(sub *models.Submission) types.SubmissionStatus {
	if sub.Status == types.SubmissionStatusUploaded {
		return sub.Status
	}
	return types.SubmissionStatusReported
}

func (c *Controller) document(ctx context.Context, sub *models.Submission) report.Document {
	doc := report.Document{
		SubmittedAt:  sub.CreatedAt,
		GeneratedAt:  c.now(),
		SubmissionID: sub.ID.String(),
		PatientID:    sub.PatientID,
		Name:         sub.Name,
		Email:        sub.Email,
		Note:         sub.Note,
		Status:       reportStatus(sub),
	}
	if !sub.AnnotatedImageRef.Valid {
		return doc
	}

	img, err := artifact.Read(ctx, c.store, sub.AnnotatedImageRef.V)
	if err != nil {
		// the synthesizer renders a placeholder instead
		logger.Logger.WarnContext(ctx, "annotated image unavailable for report",
			"submission_id", sub.ID,
			"ref", sub.AnnotatedImageRef.V,
			"error", err,
		)
		return doc
	}
	doc.Image = img
	return doc
}

// Renders the report once and writes it to `sink`. Annotated and reported submissions also get the
// same bytes persisted and recorded; uploaded ones only receive a preview.
func (c *Controller) GenerateReport(ctx context.Context, id uuid.UUID, sink io.Writer) (*ReportResult, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "GenerateReport", trace.WithAttributes(
		attribute.String("submission.id", id.String()),
	))
	defer span.End()

	sub, err := c.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load submission")
		return nil, err
	}

	doc := c.document(ctx, sub)
	var buf bytes.Buffer
	if err := c.synthesizer.Synthesize(ctx, doc, &buf); err != nil {
		gerr := newError(ErrGeneration, "could not render report", err)
		span.RecordError(gerr)
		span.SetStatus(codes.Error, "failed to synthesize report")
		return nil, gerr
	}
	pdf := buf.Bytes()

	result := &ReportResult{
		Submission: sub,
		Filename:   ReportFilename(sub),
		SHA256:     hash.Sum(pdf),
		Size:       len(pdf),
	}
	span.SetAttributes(attribute.Int("report.size", result.Size))
	actx := auditContext(ctx, sub.ID.String())

	if sub.Status == types.SubmissionStatusUploaded {
		result.Delivered = c.deliver(ctx, sink, pdf)
		audit.LogReportPreviewed(actx, sub.Status)
		logger.Logger.InfoContext(ctx, "report previewed", "submission_id", sub.ID)

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "previewed report")
		return result, nil
	}

	ref := artifact.ReportRef(sub.ID.String(), sub.PatientID)

	// no derived context, a failing caller must not cancel persistence
	var g errgroup.Group
	g.Go(func() error {
		result.Delivered = c.deliver(ctx, sink, pdf)
		return nil
	})
	g.Go(func() error {
		return artifact.Overwrite(ctx, c.store, ref, pdf)
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist report")
		return nil, fmt.Errorf("persisting report: %w", err)
	}
	audit.LogArtifactStored(actx, c.storeName(ctx), ref, result.SHA256, audit.ArtifactReport)

	// the record already references ref, so a failed update orphans nothing
	regenerated := sub.Status == types.SubmissionStatusReported
	updated, err := c.repo.Update(ctx, id, func(cur *models.Submission) error {
		if cur.Status.Rank() < types.SubmissionStatusAnnotated.Rank() {
			return newError(ErrPrecondition, "submission is not annotated", nil)
		}
		cur.ReportRef = models.Set(ref)
		cur.Status = types.SubmissionStatusReported
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			err = newError(ErrNotFound, "submission "+id.String()+" does not exist", err)
		}
		if !regenerated {
			c.orphaned(ctx, sub.ID.String(), audit.ArtifactReport, "submission record could not be updated", ref)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update submission")
		return nil, err
	}

	result.Submission = updated
	result.Ref = ref
	result.Persisted = true

	audit.LogReportGenerated(actx, ref, result.SHA256, result.Size, regenerated)
	c.recordTransition(ctx, updated.Status)
	logger.Logger.InfoContext(ctx, "report generated",
		"submission_id", updated.ID,
		"ref", ref,
		"size", result.Size,
		"regenerated", regenerated,
	)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "generated report")
	return result, nil
}

func (c *Controller) deliver(ctx context.Context, sink io.Writer, pdf []byte) bool {
	if sink == nil {
		return false
	}
	if _, err := sink.Write(pdf); err != nil {
		logger.Logger.WarnContext(ctx, "failed to deliver report to caller", "error", err)
		return false
	}
	return true
}
