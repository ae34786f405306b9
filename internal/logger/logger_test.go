package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerWritesJSON(t *testing.T) {
	SetLevel(int(slog.LevelInfo))
	t.Cleanup(func() { SetLevel(int(slog.LevelDebug)) })

	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf))

	l.DebugContext(context.Background(), "hidden")
	assert.Zero(t, buf.Len(), "debug should be filtered at info level")

	l.InfoContext(context.Background(), "stored", "submission_id", "abc")
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "stored", record["msg"])
	assert.Equal(t, "abc", record["submission_id"])
}
