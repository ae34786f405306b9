package artifact

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure FilesystemStore implements Store interface.
var _ Store = (*FilesystemStore)(nil)

// Local directory backed store. Writes land in a temp file and are renamed into place.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, err
	}

	return &FilesystemStore{root: abs}, nil
}

func (s *FilesystemStore) resolve(ref string) (string, error) {
	if err := ValidateRef(ref); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(ref)), nil
}

func (s *FilesystemStore) Put(
	ctx context.Context,
	reader io.ReadSeeker,
	length int64,
	ref string,
) error {
	_, span := tracer.Start(ctx, "FilesystemStore.Put", trace.WithAttributes(
		attribute.String("ref", ref),
		attribute.Int64("length", length),
	))
	defer span.End()

	target, err := s.resolve(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create directory")
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create temp file")
		return err
	}
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write temp file")
		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to sync temp file")
		return err
	}

	if err := tmp.Close(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to close temp file")
		return err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to move file into place")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "wrote file")
	return nil
}

func (s *FilesystemStore) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	_, span := tracer.Start(ctx, "FilesystemStore.Get", trace.WithAttributes(
		attribute.String("ref", ref),
	))
	defer span.End()

	target, err := s.resolve(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return nil, err
	}

	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "did not find file")
			return nil, ErrNotFound
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open file")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "opened file")
	return f, nil
}

func (s *FilesystemStore) Exists(ctx context.Context, ref string) (bool, error) {
	_, span := tracer.Start(ctx, "FilesystemStore.Exists", trace.WithAttributes(
		attribute.String("ref", ref),
	))
	defer span.End()

	target, err := s.resolve(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return false, err
	}

	stat, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "did not find file")
			return false, nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat file")
		return false, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "statted file")
	return stat.Mode().IsRegular(), nil
}

func (s *FilesystemStore) Delete(ctx context.Context, ref string) error {
	_, span := tracer.Start(ctx, "FilesystemStore.Delete", trace.WithAttributes(
		attribute.String("ref", ref),
	))
	defer span.End()

	target, err := s.resolve(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return err
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to remove file")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "removed file")
	return nil
}

func (s *FilesystemStore) StoreIdentifier(_ context.Context) (string, error) {
	return "file://" + filepath.ToSlash(s.root), nil
}
