package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/oralvis/oralvis-api/internal/artifact"
	"github.com/oralvis/oralvis-api/internal/audit"
	"github.com/oralvis/oralvis-api/internal/compositor"
	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/models"
	"github.com/oralvis/oralvis-api/internal/report"
	"github.com/oralvis/oralvis-api/internal/types"
	"github.com/oralvis/oralvis-api/internal/validator"
)

const instrumentationName = "github.com/oralvis/oralvis-api/internal/lifecycle"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Repository

// Persistence of submission records. Update must run the mutator and the write atomically per id.
type Repository interface {
	Create(ctx context.Context, s *models.Submission) error
	Get(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	Update(ctx context.Context, id uuid.UUID, mutate func(*models.Submission) error) (*models.Submission, error)
	ListAll(ctx context.Context) ([]models.Submission, error)
	ListByEmail(ctx context.Context, email string) ([]models.Submission, error)
}

type Limits struct {
	MaxImages     int
	MaxImageBytes int64
}

type Option func(*Controller)

func WithLimits(l Limits) Option {
	return func(c *Controller) {
		c.limits = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Sole writer of submission records. Drives every status transition.
type Controller struct {
	repo        Repository
	store       artifact.Store
	compositor  *compositor.Compositor
	synthesizer *report.Synthesizer
	validate    validator.CustomValidator
	now         func() time.Time
	transitions metric.Int64Counter
	orphans     metric.Int64Counter
	limits      Limits
}

func NewController(
	repo Repository,
	store artifact.Store,
	comp *compositor.Compositor,
	synth *report.Synthesizer,
	opts ...Option,
) *Controller {
	c := &Controller{
		repo:        repo,
		store:       store,
		compositor:  comp,
		synthesizer: synth,
		validate:    validator.Create(),
		now:         time.Now,
		limits:      Limits{MaxImages: 5, MaxImageBytes: 10 << 20},
	}
	for _, opt := range opts {
		opt(c)
	}

	var err error
	c.transitions, err = meter.Int64Counter(
		"oralvis.submission.transitions",
		metric.WithDescription("lifecycle transitions by resulting status"),
	)
	if err != nil {
		logger.Logger.Warn("failed to create transition counter", "error", err)
		c.transitions = noop.Int64Counter{}
	}
	c.orphans, err = meter.Int64Counter(
		"oralvis.artifact.orphans",
		metric.WithDescription("artifacts stored without a record referencing them"),
	)
	if err != nil {
		logger.Logger.Warn("failed to create orphan counter", "error", err)
		c.orphans = noop.Int64Counter{}
	}

	return c
}

type actorKey struct{}

// Attaches the reviewer id or patient email that audit events are attributed to
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func auditContext(ctx context.Context, submissionID string) audit.Context {
	c := audit.Context{SubmissionID: submissionID}
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		c.ActorID = &actor
	}
	return c
}

func (c *Controller) storeName(ctx context.Context) string {
	id, err := c.store.StoreIdentifier(ctx)
	if err != nil {
		logger.Logger.WarnContext(ctx, "could not identify artifact store", "error", err)
		return "unknown"
	}
	return id
}

func (c *Controller) recordTransition(ctx context.Context, status types.SubmissionStatus) {
	c.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
}

func (c *Controller) orphaned(ctx context.Context, submissionID string, kind audit.ArtifactKind, reason string, refs ...string) {
	store := c.storeName(ctx)
	for _, ref := range refs {
		logger.Logger.ErrorContext(ctx, "artifact orphaned", "ref", ref, "reason", reason)
		audit.LogArtifactOrphaned(auditContext(ctx, submissionID), store, ref, kind, reason)
	}
	c.orphans.Add(ctx, int64(len(refs)), metric.WithAttributes(attribute.String("kind", string(kind))))
}

// Maps repository lookups onto lifecycle kinds
func (c *Controller) load(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	sub, err := c.repo.Get(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, newError(ErrNotFound, "submission "+id.String()+" does not exist", err)
	} else if err != nil {
		return nil, err
	}
	return sub, nil
}

func (c *Controller) Get(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	ctx, span := tracer.Start(ctx, "Get", trace.WithAttributes(
		attribute.String("submission.id", id.String()),
	))
	defer span.End()

	sub, err := c.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get submission")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "got submission")
	return sub, nil
}

// Every submission, newest first
func (c *Controller) ListAll(ctx context.Context) ([]models.Submission, error) {
	ctx, span := tracer.Start(ctx, "ListAll")
	defer span.End()

	subs, err := c.repo.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list submissions")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(subs)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed submissions")
	return subs, nil
}

// Submissions made with the given email, newest first
func (c *Controller) ListByEmail(ctx context.Context, email string) ([]models.Submission, error) {
	ctx, span := tracer.Start(ctx, "ListByEmail")
	defer span.End()

	if err := c.validate.Var(email, "required,email"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid email")
		return nil, validationError("invalid email", map[string]string{"email": "must be a valid email address"})
	}

	subs, err := c.repo.ListByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list submissions")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(subs)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed submissions")
	return subs, nil
}
