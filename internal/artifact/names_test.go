package artifact_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralvis/oralvis-api/internal/artifact"
)

func TestQualify(t *testing.T) {
	t.Run("FrozenClockNeverRepeats", func(t *testing.T) {
		frozen := time.Unix(1700000000, 0)
		n := artifact.NewNamer(func() time.Time { return frozen })

		first := n.Qualify("photo.jpg")
		second := n.Qualify("photo.jpg")

		assert.NotEqual(t, first, second)
		assert.Equal(t, "1700000000000000000-photo.jpg", first)
		assert.Equal(t, "1700000000000000001-photo.jpg", second)
	})

	t.Run("ClockGoingBackwards", func(t *testing.T) {
		times := []time.Time{time.Unix(10, 0), time.Unix(5, 0)}
		i := 0
		n := artifact.NewNamer(func() time.Time {
			ts := times[i]
			i++
			return ts
		})

		first := n.Qualify("a")
		second := n.Qualify("a")

		assert.Equal(t, "10000000000-a", first)
		assert.Equal(t, "10000000001-a", second)
	})
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":                  "photo.jpg",
		"../../etc/passwd":           "passwd",
		`C:\Users\me\teeth front.png`: "teeth_front.png",
		".hidden":                    "hidden",
		"":                           "file",
		"..":                         "file",
		"smile 😀.jpg":                "smile__.jpg",
	}

	for in, expected := range cases {
		assert.Equal(t, expected, artifact.Sanitize(in), "input %q", in)
	}

	long := strings.Repeat("a", 300) + ".png"
	assert.Len(t, artifact.Sanitize(long), 100)
	assert.True(t, strings.HasSuffix(artifact.Sanitize(long), ".png"))
}

func TestValidateRef(t *testing.T) {
	for _, ok := range []string{"images/1-a.jpg", "reports/abc/PAT_report.pdf", "a"} {
		require.NoError(t, artifact.ValidateRef(ok), ok)
	}

	for _, bad := range []string{"", "/etc/passwd", "../x", "images/../../x", "images//a", "images/./a", `images\a`} {
		require.ErrorIs(t, artifact.ValidateRef(bad), artifact.ErrInvalidRef, bad)
	}
}

func TestReportRef(t *testing.T) {
	assert.Equal(t, "reports/sub-1/PAT-abc123_report.pdf", artifact.ReportRef("sub-1", "PAT-abc123"))
	assert.Equal(t, "reports/sub-1/sub-1_report.pdf", artifact.ReportRef("sub-1", "  "))
	assert.Equal(t, "PAT-abc123_report.pdf", artifact.ReportFilename("sub-1", "PAT-abc123"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", artifact.ContentType("reports/sub-1/PAT-abc123_report.pdf"))
	assert.Equal(t, "image/png", artifact.ContentType("annotated/1-a.png"))
	assert.Equal(t, "application/octet-stream", artifact.ContentType("images/1-noext"))
}
