//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"fmt"
	"image"
	"math"

	"github.com/obinnaokechukwu/ffsnap/internal/metrics"
)

type converterFactory func(src Geometry, dst image.Point, format PixelFormat) (Converter, error)

type chainKey struct {
	src    Geometry
	dst    image.Point
	format PixelFormat
}

// filterChain converts frames to images, keeping its converter for as long
// as source geometry, output size and format stay the same.
type filterChain struct {
	build     converterFactory
	maxPixels int64
	key       chainKey
	conv      Converter
	builds    int
}

func newFilterChain(build converterFactory, maxPixels int64) *filterChain {
	return &filterChain{build: build, maxPixels: maxPixels}
}

// convert scales f to fit inside box and converts it to format. A zero box
// keeps the display size of the frame.
func (c *filterChain) convert(f Frame, box image.Point, format PixelFormat) (image.Image, error) {
	if format != FormatRGBA && format != FormatGray {
		return nil, fmt.Errorf("%w: unsupported output format %v", ErrFilterGraph, format)
	}
	g := f.Geometry()
	dst, err := fitSize(g, box, c.maxPixels)
	if err != nil {
		return nil, err
	}

	key := chainKey{src: g, dst: dst, format: format}
	if c.conv == nil || key != c.key {
		c.close()
		conv, err := c.build(g, dst, format)
		if err != nil {
			return nil, fmt.Errorf("%w: %dx%d fmt %d to %dx%d %v: %w",
				ErrFilterGraph, g.Width, g.Height, g.Format, dst.X, dst.Y, format, err)
		}
		c.conv, c.key = conv, key
		c.builds++
		metrics.FilterChainBuildsTotal.Inc()
	}

	img, err := c.conv.Convert(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilterGraph, err)
	}
	return img, nil
}

func (c *filterChain) close() {
	if c.conv != nil {
		_ = c.conv.Close()
		c.conv = nil
	}
}

// fitSize returns the largest size with the display aspect of g that fits
// inside box. Either box dimension may be 0 to leave it unconstrained.
// Enlarging past maxPixels is refused; a non-positive maxPixels disables
// the limit.
func fitSize(g Geometry, box image.Point, maxPixels int64) (image.Point, error) {
	w, h := g.DisplayWidth(), g.Height
	if w <= 0 || h <= 0 {
		return image.Point{}, fmt.Errorf("%w: invalid source size %dx%d", ErrFilterGraph, w, h)
	}
	if box.X < 0 || box.Y < 0 {
		return image.Point{}, fmt.Errorf("%w: invalid target size %dx%d", ErrFilterGraph, box.X, box.Y)
	}
	dst := scaleToFit(image.Pt(w, h), box)
	area := int64(dst.X) * int64(dst.Y)
	if maxPixels > 0 && area > maxPixels && area > int64(w)*int64(h) {
		return image.Point{}, fmt.Errorf("%w: output %dx%d exceeds %d pixels", ErrFilterGraph, dst.X, dst.Y, maxPixels)
	}
	return dst, nil
}

// scaleToFit scales size up or down to fit inside box, preserving aspect.
func scaleToFit(size, box image.Point) image.Point {
	if box.X == 0 && box.Y == 0 {
		return size
	}
	scale := math.Inf(1)
	if box.X > 0 {
		scale = float64(box.X) / float64(size.X)
	}
	if box.Y > 0 {
		scale = min(scale, float64(box.Y)/float64(size.Y))
	}
	return image.Pt(
		max(1, int(math.Round(float64(size.X)*scale))),
		max(1, int(math.Round(float64(size.Y)*scale))),
	)
}

// shrinkToFit is scaleToFit without enlarging.
func shrinkToFit(size, box image.Point) image.Point {
	if size.X <= 0 || size.Y <= 0 {
		return image.Point{}
	}
	if (box.X == 0 || size.X <= box.X) && (box.Y == 0 || size.Y <= box.Y) {
		return size
	}
	return scaleToFit(size, box)
}
