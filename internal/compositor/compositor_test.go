package compositor_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralvis/oralvis-api/internal/compositor"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// transparent canvas with the left half painted
func leftHalf(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodePNG(t *testing.T, b []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img
}

func assertNear(t *testing.T, expected color.NRGBA, actual color.Color) {
	t.Helper()
	got := color.NRGBAModel.Convert(actual).(color.NRGBA)
	near := func(a, b uint8) bool {
		d := int(a) - int(b)
		return d >= -3 && d <= 3
	}
	assert.True(
		t,
		near(expected.R, got.R) && near(expected.G, got.G) && near(expected.B, got.B) && near(expected.A, got.A),
		"expected %v got %v", expected, got,
	)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestComposite(t *testing.T) {
	ctx := context.Background()
	c := compositor.New()

	t.Run("SameSize", func(t *testing.T) {
		base := encodePNG(t, solid(40, 20, red))
		overlay := encodePNG(t, leftHalf(40, 20, blue))

		result, err := c.Composite(ctx, bytes.NewReader(base), bytes.NewReader(overlay))
		require.NoError(t, err)

		assert.Equal(t, 40, result.Width)
		assert.Equal(t, 20, result.Height)
		assert.Len(t, result.SHA256, 64)

		img := decodePNG(t, result.PNG)
		assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())
		assertNear(t, blue, img.At(5, 10))
		assertNear(t, red, img.At(35, 10))
	})

	t.Run("OverlayScaledToBase", func(t *testing.T) {
		base := encodePNG(t, solid(100, 100, red))
		overlay := encodePNG(t, leftHalf(50, 50, blue))

		result, err := c.Composite(ctx, bytes.NewReader(base), bytes.NewReader(overlay))
		require.NoError(t, err)

		img := decodePNG(t, result.PNG)
		assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
		assertNear(t, blue, img.At(10, 50))
		assertNear(t, red, img.At(90, 50))
	})

	t.Run("Deterministic", func(t *testing.T) {
		base := encodePNG(t, solid(64, 48, red))
		overlay := encodePNG(t, leftHalf(32, 24, blue))

		first, err := c.Composite(ctx, bytes.NewReader(base), bytes.NewReader(overlay))
		require.NoError(t, err)
		second, err := c.Composite(ctx, bytes.NewReader(base), bytes.NewReader(overlay))
		require.NoError(t, err)

		assert.Equal(t, first.PNG, second.PNG)
		assert.Equal(t, first.SHA256, second.SHA256)
	})

	t.Run("TransparentOverlayKeepsBase", func(t *testing.T) {
		base := encodePNG(t, solid(10, 10, red))
		overlay := encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 10, 10)))

		result, err := c.Composite(ctx, bytes.NewReader(base), bytes.NewReader(overlay))
		require.NoError(t, err)

		img := decodePNG(t, result.PNG)
		assertNear(t, red, img.At(3, 3))
	})

	t.Run("JPEGBase", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, solid(30, 30, red), &jpeg.Options{Quality: 100}))
		overlay := encodePNG(t, leftHalf(30, 30, blue))

		result, err := c.Composite(ctx, &buf, bytes.NewReader(overlay))
		require.NoError(t, err)
		assert.Equal(t, 30, result.Width)

		img := decodePNG(t, result.PNG)
		assertNear(t, blue, img.At(2, 15))
	})

	t.Run("UndecodableBase", func(t *testing.T) {
		overlay := encodePNG(t, leftHalf(10, 10, blue))

		_, err := c.Composite(ctx, strings.NewReader("not an image"), bytes.NewReader(overlay))
		require.ErrorIs(t, err, compositor.ErrUndecodable)
	})

	t.Run("UnreadableBase", func(t *testing.T) {
		overlay := encodePNG(t, leftHalf(10, 10, blue))

		_, err := c.Composite(ctx, failingReader{}, bytes.NewReader(overlay))
		require.ErrorIs(t, err, compositor.ErrUnreadable)
	})

	t.Run("UndecodableOverlay", func(t *testing.T) {
		base := encodePNG(t, solid(10, 10, red))

		_, err := c.Composite(ctx, bytes.NewReader(base), strings.NewReader("nope"))
		require.ErrorIs(t, err, compositor.ErrUndecodable)
	})

	t.Run("PixelLimit", func(t *testing.T) {
		small := compositor.New().WithMaxPixels(50)
		base := encodePNG(t, solid(10, 10, red))
		overlay := encodePNG(t, leftHalf(5, 5, blue))

		_, err := small.Composite(ctx, bytes.NewReader(base), bytes.NewReader(overlay))
		require.ErrorIs(t, err, compositor.ErrTooLarge)
	})
}
