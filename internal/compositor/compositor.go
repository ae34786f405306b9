package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"

	// registered decoders for image.Decode
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"github.com/oralvis/oralvis-api/internal/hash"
)

var tracer = otel.Tracer("github.com/oralvis/oralvis-api/internal/compositor")

var (
	// The input could not be read at all
	ErrUnreadable = errors.New("image unreadable")
	// The input was read but is not an image in a supported format
	ErrUndecodable = errors.New("image undecodable")
	ErrTooLarge    = errors.New("image exceeds pixel limit")
)

// 8k x 8k
const DefaultMaxPixels = 8192 * 8192

type Result struct {
	PNG    []byte
	SHA256 string
	Width  int
	Height int
}

// Merges a transparent overlay onto a photograph. Safe for concurrent use.
type Compositor struct {
	kernel    draw.Interpolator
	encoder   png.Encoder
	maxPixels int
}

func New() *Compositor {
	return &Compositor{
		kernel:    draw.BiLinear,
		encoder:   png.Encoder{CompressionLevel: png.DefaultCompression},
		maxPixels: DefaultMaxPixels,
	}
}

func (c *Compositor) WithMaxPixels(maxPixels int) *Compositor {
	c.maxPixels = maxPixels
	return c
}

func (c *Compositor) decode(ctx context.Context, r io.Reader, role string) (image.Image, error) {
	_, span := tracer.Start(ctx, "Compositor.decode", trace.WithAttributes(
		attribute.String("role", role),
	))
	defer span.End()

	raw, err := io.ReadAll(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read image")
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, role, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode image config")
		return nil, fmt.Errorf("%w: %s: %w", ErrUndecodable, role, err)
	}
	span.SetAttributes(
		attribute.String("format", format),
		attribute.Int("width", cfg.Width),
		attribute.Int("height", cfg.Height),
	)

	if cfg.Width <= 0 || cfg.Height <= 0 {
		err := fmt.Errorf("%w: %s: empty image", ErrUndecodable, role)
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty image")
		return nil, err
	}

	if c.maxPixels > 0 && cfg.Width*cfg.Height > c.maxPixels {
		err := fmt.Errorf("%w: %s: %dx%d", ErrTooLarge, role, cfg.Width, cfg.Height)
		span.RecordError(err)
		span.SetStatus(codes.Error, "image too large")
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode image")
		return nil, fmt.Errorf("%w: %s: %w", ErrUndecodable, role, err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "decoded image")
	return img, nil
}

// Alpha blends `overlay` over `base` with the result sized to `base`.
// An overlay of a different size is scaled to the base bounds first.
// Output is always PNG and identical inputs produce identical bytes.
func (c *Compositor) Composite(ctx context.Context, base, overlay io.Reader) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Compositor.Composite")
	defer span.End()

	baseImg, err := c.decode(ctx, base, "base")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode base")
		return nil, err
	}

	overlayImg, err := c.decode(ctx, overlay, "overlay")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode overlay")
		return nil, err
	}

	bb := baseImg.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	draw.Draw(canvas, canvas.Bounds(), baseImg, bb.Min, draw.Src)

	ob := overlayImg.Bounds()
	scaled := ob.Dx() != bb.Dx() || ob.Dy() != bb.Dy()
	if scaled {
		c.kernel.Scale(canvas, canvas.Bounds(), overlayImg, ob, draw.Over, nil)
	} else {
		draw.Draw(canvas, canvas.Bounds(), overlayImg, ob.Min, draw.Over)
	}
	span.SetAttributes(
		attribute.Int("width", bb.Dx()),
		attribute.Int("height", bb.Dy()),
		attribute.Bool("overlay_scaled", scaled),
	)

	var out bytes.Buffer
	if err := c.encoder.Encode(&out, canvas); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode png")
		return nil, err
	}

	result := &Result{
		PNG:    out.Bytes(),
		SHA256: hash.Sum(out.Bytes()),
		Width:  bb.Dx(),
		Height: bb.Dy(),
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "composited image")
	return result, nil
}
