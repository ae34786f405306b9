package artifact

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure RetryStore implements Store interface.
var _ Store = (*RetryStore)(nil)

// Meta store that wraps store operations in backoff loops
type RetryStore struct {
	store   Store
	backoff func() retry.Backoff
}

func NewRetryStoreBackoff(store Store, backoff func() retry.Backoff) *RetryStore {
	return &RetryStore{
		store:   store,
		backoff: backoff,
	}
}

// Request path friendly: a handful of quick attempts
func NewRetryStore(store Store, maxRetries uint64, base time.Duration) *RetryStore {
	if base <= 0 {
		base = 25 * time.Millisecond
	}
	return &RetryStore{
		store: store,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(base)
			b = retry.WithMaxRetries(maxRetries, b)
			b = retry.WithMaxDuration(time.Second*10, b)
			return b
		},
	}
}

// Invalid references and missing blobs do not get better by retrying
func retryable(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidRef) {
		return err
	}
	return retry.RetryableError(err)
}

// attempt runs fn under the store's backoff. Each try gets its own child span
// of a span named after op.
func attempt[T any](ctx context.Context, r *RetryStore, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "RetryStore."+op)
	defer span.End()

	tries := 0
	var out T
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		tries++
		ctx, try := tracer.Start(ctx, "RetryStore."+op+".Try", trace.WithAttributes(attribute.Int("try", tries)))
		defer try.End()

		v, err := fn(ctx)
		if err != nil {
			try.RecordError(err)
			try.SetStatus(codes.Error, op+" failed")
			return retryable(err)
		}
		out = v
		try.SetStatus(codes.Ok, op+" succeeded")
		return nil
	})
	span.SetAttributes(attribute.Int("tries", tries))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" gave up")
		var zero T
		return zero, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, op+" succeeded")
	return out, nil
}

// Put rewinds reader before every try.
func (r *RetryStore) Put(ctx context.Context, reader io.ReadSeeker, length int64, ref string) error {
	_, err := attempt(ctx, r, "Put", func(ctx context.Context) (struct{}, error) {
		if _, err := reader.Seek(0, io.SeekStart); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, r.store.Put(ctx, reader, length, ref)
	})
	return err
}

func (r *RetryStore) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	return attempt(ctx, r, "Get", func(ctx context.Context) (io.ReadCloser, error) {
		return r.store.Get(ctx, ref)
	})
}

func (r *RetryStore) Exists(ctx context.Context, ref string) (bool, error) {
	return attempt(ctx, r, "Exists", func(ctx context.Context) (bool, error) {
		return r.store.Exists(ctx, ref)
	})
}

func (r *RetryStore) Delete(ctx context.Context, ref string) error {
	_, err := attempt(ctx, r, "Delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.store.Delete(ctx, ref)
	})
	return err
}

func (r *RetryStore) StoreIdentifier(ctx context.Context) (string, error) {
	return attempt(ctx, r, "StoreIdentifier", r.store.StoreIdentifier)
}
