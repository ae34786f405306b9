package report

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Longest side of the raster embedded in the PDF
const maxEmbedPixels = 1600

var errNoImage = errors.New("no image")

type embeddedImage struct {
	jpeg   []byte
	width  int
	height int
}

// Flattens onto white, downsamples and re-encodes as baseline JPEG so any
// decodable input embeds the same way and the output stays small.
func prepareImage(ctx context.Context, raw []byte) (*embeddedImage, error) {
	_, span := tracer.Start(ctx, "prepareImage", trace.WithAttributes(
		attribute.Int("length", len(raw)),
	))
	defer span.End()

	if len(raw) == 0 {
		span.RecordError(errNoImage)
		span.SetStatus(codes.Error, "no image")
		return nil, errNoImage
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode image")
		return nil, err
	}
	span.SetAttributes(attribute.String("format", format))

	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if w == 0 || h == 0 {
		span.RecordError(errNoImage)
		span.SetStatus(codes.Error, "empty image")
		return nil, errNoImage
	}
	if w > maxEmbedPixels || h > maxEmbedPixels {
		if w >= h {
			h = h * maxEmbedPixels / w
			w = maxEmbedPixels
		} else {
			w = w * maxEmbedPixels / h
			h = maxEmbedPixels
		}
		w, h = max(w, 1), max(h, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode jpeg")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "prepared image")
	return &embeddedImage{jpeg: buf.Bytes(), width: w, height: h}, nil
}
