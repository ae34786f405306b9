package artifact

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensures AzureStore implements Store interface.
var _ Store = (*AzureStore)(nil)

// Azure Blob store backed artifact store
type AzureStore struct {
	client *azblob.Client
	// `container` in the storage account where files are saved
	container string
	prefix    string
}

// `container` must be part of the storage account provided
func NewAzureStore(
	accountName, accountKey, serviceURL, container, prefix string,
) (*AzureStore, error) {
	if container == "" {
		return nil, errors.New("container is required")
	}

	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, err
	}

	return NewAzureStoreFromClient(client, container, prefix), nil
}

// `container` must be part of the storage account of `client`
func NewAzureStoreFromClient(client *azblob.Client, container string, prefix string) *AzureStore {
	return &AzureStore{
		client:    client,
		container: container,
		prefix:    prefix,
	}
}

// Provision creates the container, tolerating one that already exists.
func (s *AzureStore) Provision(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return err
	}
	return nil
}

func (s *AzureStore) blobName(ref string) (string, error) {
	if err := ValidateRef(ref); err != nil {
		return "", err
	}
	return path.Join(s.prefix, ref), nil
}

func (s *AzureStore) Put(
	ctx context.Context,
	reader io.ReadSeeker,
	length int64,
	ref string,
) error {
	ctx, span := tracer.Start(ctx, "AzureStore.Put", trace.WithAttributes(
		attribute.String("ref", ref),
		attribute.Int64("length", length),
	))
	defer span.End()

	name, err := s.blobName(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return err
	}

	contentType := ContentType(ref)
	_, err = s.client.UploadStream(ctx, s.container, name, reader, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload reader")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "uploaded blob")
	return nil
}

func (s *AzureStore) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "AzureStore.Get", trace.WithAttributes(
		attribute.String("ref", ref),
	))
	defer span.End()

	name, err := s.blobName(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "did not find blob")
			return nil, ErrNotFound
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to download blob")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "opened blob")
	return resp.Body, nil
}

func (s *AzureStore) Exists(ctx context.Context, ref string) (bool, error) {
	ctx, span := tracer.Start(ctx, "AzureStore.Exists", trace.WithAttributes(
		attribute.String("ref", ref),
	))
	defer span.End()

	name, err := s.blobName(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return false, err
	}

	_, err = s.client.ServiceClient().
		NewContainerClient(s.container).
		NewBlobClient(name).
		GetProperties(ctx, nil)
	if err != nil {
		// we hit an error only if the the error is not a blob not found error
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "did not find blob")
			return false, nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check blob exists")
		return false, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "found blob")
	return true, nil
}

func (s *AzureStore) Delete(ctx context.Context, ref string) error {
	ctx, span := tracer.Start(ctx, "AzureStore.Delete", trace.WithAttributes(
		attribute.String("ref", ref),
	))
	defer span.End()

	name, err := s.blobName(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid reference")
		return err
	}

	_, err = s.client.DeleteBlob(ctx, s.container, name, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete blob")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted blob")
	return nil
}

func (s *AzureStore) StoreIdentifier(_ context.Context) (string, error) {
	return path.Join(s.container, s.prefix), nil
}
