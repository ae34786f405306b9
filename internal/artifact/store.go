package artifact

import (
	"bytes"
	"context"
	"errors"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/oralvis/oralvis-api/internal/artifact")

var (
	ErrNotFound   = errors.New("artifact not found")
	ErrInvalidRef = errors.New("invalid artifact reference")
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Store

// Generic blob persistence keyed by slash separated references
type Store interface {
	// Create / Overwrite the blob stored under `ref`
	Put(ctx context.Context, reader io.ReadSeeker, length int64, ref string) error
	// Open the blob stored under `ref`. Returns ErrNotFound when it does not exist.
	Get(ctx context.Context, ref string) (io.ReadCloser, error)
	Exists(ctx context.Context, ref string) (bool, error)
	// Remove the blob stored under `ref`. Removing a missing blob is not an error.
	Delete(ctx context.Context, ref string) error
	// Provide an identifier for where files are being stored to. Useful for logging and auditing purposes.
	StoreIdentifier(ctx context.Context) (string, error)
}

// Stores `blob` under a freshly qualified name inside `dir` and returns its reference
func Save(ctx context.Context, s Store, dir string, name string, blob []byte) (string, error) {
	ref := Join(dir, DefaultNamer.Qualify(name))

	ctx, span := tracer.Start(ctx, "Save", trace.WithAttributes(
		attribute.String("ref", ref),
		attribute.Int("length", len(blob)),
	))
	defer span.End()

	if err := s.Put(ctx, bytes.NewReader(blob), int64(len(blob)), ref); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put blob")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "saved blob")
	return ref, nil
}

// Stores `blob` under the exact reference, replacing whatever was there
func Overwrite(ctx context.Context, s Store, ref string, blob []byte) error {
	ctx, span := tracer.Start(ctx, "Overwrite", trace.WithAttributes(
		attribute.String("ref", ref),
		attribute.Int("length", len(blob)),
	))
	defer span.End()

	if err := ValidateRef(ref); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return err
	}

	if err := s.Put(ctx, bytes.NewReader(blob), int64(len(blob)), ref); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put blob")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "overwrote blob")
	return nil
}

// Reads the full blob stored under `ref`
func Read(ctx context.Context, s Store, ref string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Read", trace.WithAttributes(
		attribute.String("ref", ref),
	))
	defer span.End()

	rc, err := s.Get(ctx, ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open blob")
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read blob")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "read blob")
	return b, nil
}
