package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/models"
	"github.com/oralvis/oralvis-api/internal/types"
)

const reconcileConcurrency = 8

// Checks that every artifact referenced by a record exists. Read only, safe to run at any time.
func (c *Controller) Reconcile(ctx context.Context) (*types.ReconcileResponse, error) {
	ctx, span := tracer.Start(ctx, "Reconcile")
	defer span.End()

	subs, err := c.repo.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list submissions")
		return nil, err
	}

	var (
		mu      sync.Mutex
		missing = []types.MissingArtifact{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, sub := range subs {
		g.Go(func() error {
			found, err := c.missingArtifacts(gctx, sub)
			if err != nil {
				return err
			}
			mu.Lock()
			missing = append(missing, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check artifacts")
		return nil, err
	}

	sort.Slice(missing, func(i, j int) bool {
		if missing[i].SubmissionID != missing[j].SubmissionID {
			return missing[i].SubmissionID < missing[j].SubmissionID
		}
		if missing[i].Field != missing[j].Field {
			return missing[i].Field < missing[j].Field
		}
		return missing[i].Reference < missing[j].Reference
	})

	for _, m := range missing {
		logger.Logger.WarnContext(ctx, "referenced artifact missing",
			"submission_id", m.SubmissionID,
			"field", m.Field,
			"ref", m.Reference,
		)
	}

	span.SetAttributes(
		attribute.Int("checked", len(subs)),
		attribute.Int("missing", len(missing)),
	)
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "reconciled artifacts")
	return &types.ReconcileResponse{Checked: len(subs), Missing: missing}, nil
}

func (c *Controller) missingArtifacts(ctx context.Context, sub models.Submission) ([]types.MissingArtifact, error) {
	var missing []types.MissingArtifact
	for field, refs := range sub.References() {
		for _, ref := range refs {
			ok, err := c.store.Exists(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("checking %s of %s: %w", ref, sub.ID, err)
			}
			if !ok {
				missing = append(missing, types.MissingArtifact{
					SubmissionID: sub.ID.String(),
					Field:        field,
					Reference:    ref,
				})
			}
		}
	}
	return missing, nil
}
