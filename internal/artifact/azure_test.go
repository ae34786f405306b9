package artifact_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/azure/azurite"

	"github.com/oralvis/oralvis-api/internal/artifact"
)

var container = "container"

func TestAzure(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	azuriteContainer, err := azurite.Run(
		ctx,
		"mcr.microsoft.com/azure-storage/azurite:latest",
		azurite.WithInMemoryPersistence(256),
	)
	require.NoError(t, err, "failed to make azurite container")
	defer func() {
		require.NoError(t, testcontainers.TerminateContainer(azuriteContainer))
	}()

	cred, err := azblob.NewSharedKeyCredential(azurite.AccountName, azurite.AccountKey)
	require.NoError(t, err, "failed to get creds")

	serviceURL, err := azuriteContainer.BlobServiceURL(ctx)
	require.NoError(t, err, "failed to get serviceURL")
	serviceURL = fmt.Sprintf("%s/%s", serviceURL, azurite.AccountName)

	azclient, err := azblob.NewClientWithSharedKeyCredential(
		serviceURL,
		cred,
		nil,
	)
	require.NoError(t, err, "failed to make azure blob client")

	store, err := artifact.NewAzureStore(
		azurite.AccountName,
		azurite.AccountKey,
		serviceURL,
		container,
		"uploads",
	)
	require.NoError(t, err, "failed to construct store")

	require.NoError(t, store.Provision(ctx), "failed to make container")
	require.NoError(t, store.Provision(ctx), "provisioning twice should be fine")

	t.Run("NotExists", func(t *testing.T) {
		exists, err := store.Exists(ctx, "images/abc")
		require.NoError(t, err, "failed to check if blob exists")
		assert.False(t, exists, "blob should not exist")

		_, err = store.Get(ctx, "images/abc")
		require.ErrorIs(t, err, artifact.ErrNotFound)
	})

	t.Run("Exists", func(t *testing.T) {
		ref := "images/" + uuid.NewString()
		_, err := azclient.UploadBuffer(
			ctx,
			container,
			"uploads/"+ref,
			[]byte("hello world"),
			nil,
		)
		require.NoError(t, err, "failed to upload blob for testing")

		exists, err := store.Exists(ctx, ref)
		require.NoError(t, err, "failed to check if blob exists")
		assert.True(t, exists, "blob should exist")
	})

	t.Run("PutGetDelete", func(t *testing.T) {
		ref := "annotated/" + uuid.NewString()
		expected := "abc"
		err := store.Put(
			ctx,
			strings.NewReader(expected),
			int64(len(expected)),
			ref,
		)
		require.NoError(t, err, "failed to put blob")

		buffer := make([]byte, len(expected))
		_, err = azclient.DownloadBuffer(ctx, container, "uploads/"+ref, buffer, nil)
		require.NoError(t, err, "failed to download blob to buffer")
		assert.Equal(t, expected, string(buffer), "content of blob should match")

		b, err := artifact.Read(ctx, store, ref)
		require.NoError(t, err)
		assert.Equal(t, expected, string(b))

		require.NoError(t, store.Delete(ctx, ref))
		require.NoError(t, store.Delete(ctx, ref), "deleting a missing blob is fine")

		exists, err := store.Exists(ctx, ref)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
