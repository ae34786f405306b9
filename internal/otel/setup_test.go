package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupOTelSDK(t *testing.T) {
	ctx := context.Background()

	shutdown, err := SetupOTelSDK(ctx, Options{ServiceName: "oralvis-test"})
	require.NoError(t, err)

	require.NoError(t, shutdown(ctx))
	assert.NoError(t, shutdown(ctx), "second shutdown is a no-op")
}

func TestNewResource(t *testing.T) {
	res, err := newResource("")
	require.NoError(t, err)

	name, ok := res.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "oralvis-api", name.AsString())
}
