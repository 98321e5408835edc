package tilerenderer

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/jamesrr39/go-tracing"
)

func NewImageWithBackground(r image.Rectangle, c color.Color) *image.RGBA {
	img := image.NewRGBA(r)

	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)

	return img
}

// span is a tracing span that is only recorded when the context carries a trace,
// so rendering works the same outside of a traced HTTP request
type span struct {
	tracingSpan *tracing.Span
}

func startSpan(ctx context.Context, name string) *span {
	if ctx.Value(tracing.TracerCtxKey) == nil || ctx.Value(tracing.TraceCtxKey) == nil {
		return &span{}
	}

	return &span{tracing.StartSpan(ctx, name)}
}

func (s *span) End(ctx context.Context) {
	if s.tracingSpan == nil {
		return
	}

	s.tracingSpan.End(ctx)
}
