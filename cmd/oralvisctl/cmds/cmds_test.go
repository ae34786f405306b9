package cmds

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralvis/oralvis-api/internal/patienttoken"
)

const testSecret = "a test secret that is long enough"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := Execute(context.Background())
	return out.String(), err
}

func TestToken(t *testing.T) {
	out, err := run(t, "token", "--email", "jane@example.com", "--subject", "user-1", "--secret", testSecret)
	require.NoError(t, err)

	claims, err := patienttoken.Parse([]byte(testSecret), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestTokenShortSecret(t *testing.T) {
	_, err := run(t, "token", "--email", "jane@example.com", "--secret", "short")
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	dir := t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 60, 40))
	for y := range 40 {
		for x := range 60 {
			img.Set(x, y, color.NRGBA{R: 200, G: 80, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	photo := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(photo, buf.Bytes(), 0o600))

	t.Run("WithImage", func(t *testing.T) {
		out := filepath.Join(dir, "with.pdf")
		_, err := run(t, "render", "--image", photo, "--out", out, "--note", "sensitive molar")
		require.NoError(t, err)

		pdf, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	})

	t.Run("Placeholder", func(t *testing.T) {
		out := filepath.Join(dir, "placeholder.pdf")
		_, err := run(t, "render", "--image", "", "--out", out)
		require.NoError(t, err)

		pdf, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	})

	t.Run("MissingImage", func(t *testing.T) {
		_, err := run(t, "render", "--image", filepath.Join(dir, "nope.png"), "--out", filepath.Join(dir, "x.pdf"))
		require.Error(t, err)
	})
}

func TestReportRejectsBadID(t *testing.T) {
	_, err := run(t, "report", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid submission id")
}
