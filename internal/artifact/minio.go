package artifact

import (
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure MinioStore implements Store interface.
var _ Store = (*MinioStore)(nil)

// Minio (S3) backed store
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinioStore(
	endpoint, id, secret string,
	ssl bool,
	bucket string,
	prefix string,
) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(id, secret, ""),
		Secure: ssl,
	})
	if err != nil {
		return nil, err
	}

	return NewMinioStoreFromClient(client, bucket, prefix), nil
}

func NewMinioStoreFromClient(client *minio.Client, bucket string, prefix string) *MinioStore {
	return &MinioStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Provision creates the bucket unless it is already there.
func (s *MinioStore) Provision(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil || exists {
		return err
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

func (s *MinioStore) key(ref string) (string, error) {
	if err := ValidateRef(ref); err != nil {
		return "", err
	}
	return path.Join(s.prefix, ref), nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (s *MinioStore) Put(
	ctx context.Context,
	reader io.ReadSeeker,
	length int64,
	ref string,
) error {
	ctx, span := tracer.Start(ctx, "MinioStore.Put", trace.WithAttributes(
		attribute.String("ref", ref),
		attribute.Int64("length", length),
	))
	defer span.End()

	key, err := s.key(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return err
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, reader, length, minio.PutObjectOptions{ContentType: ContentType(ref)})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put object")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "put object")
	return nil
}

func (s *MinioStore) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "MinioStore.Get", trace.WithAttributes(
		attribute.String("ref", ref),
	))
	defer span.End()

	key, err := s.key(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get object")
		return nil, err
	}

	// GetObject is lazy, stat surfaces a missing key before the caller reads
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "did not find object")
			return nil, ErrNotFound
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat object")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "opened object")
	return obj, nil
}

func (s *MinioStore) Exists(ctx context.Context, ref string) (bool, error) {
	ctx, span := tracer.Start(ctx, "MinioStore.Exists", trace.WithAttributes(
		attribute.String("ref", ref),
	))
	defer span.End()

	key, err := s.key(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return false, err
	}

	_, err = s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "did not find object")
			return false, nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat object")
		return false, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "statted object")
	return true, nil
}

func (s *MinioStore) Delete(ctx context.Context, ref string) error {
	ctx, span := tracer.Start(ctx, "MinioStore.Delete", trace.WithAttributes(
		attribute.String("ref", ref),
	))
	defer span.End()

	key, err := s.key(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return err
	}

	// S3 semantics: removing a missing key succeeds
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to remove object")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "removed object")
	return nil
}

func (s *MinioStore) StoreIdentifier(_ context.Context) (string, error) {
	return "s3://" + path.Join(s.bucket, s.prefix), nil
}
