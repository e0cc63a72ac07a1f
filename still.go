//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// stillFormat marks geometry of pictures decoded in Go rather than by the
// backend.
const stillFormat = -2

// stillFrame presents a decoded picture as a Frame at time 0.
type stillFrame struct {
	img image.Image
}

func (f stillFrame) PTS() float64 { return 0 }

func (f stillFrame) Geometry() Geometry {
	b := f.img.Bounds()
	return Geometry{Width: b.Dx(), Height: b.Dy(), Format: stillFormat, SampleAspect: 1}
}

// decodeStill decodes a cover or picture blob (JPEG, PNG, GIF, BMP, TIFF
// or WebP), applying any EXIF orientation.
func decodeStill(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding picture: %w", err)
	}
	return img, nil
}

// stillConverter resizes Go images with imaging.
type stillConverter struct {
	dst    image.Point
	format PixelFormat
}

func newStillConverter(src Geometry, dst image.Point, format PixelFormat) (Converter, error) {
	if src.Format != stillFormat {
		return nil, errors.New("not a still picture")
	}
	return &stillConverter{dst: dst, format: format}, nil
}

func (c *stillConverter) Convert(f Frame) (image.Image, error) {
	sf, ok := f.(stillFrame)
	if !ok {
		return nil, fmt.Errorf("cannot convert %T as a still picture", f)
	}

	var out *image.NRGBA
	if sf.img.Bounds().Size() == c.dst {
		out = imaging.Clone(sf.img)
	} else {
		out = imaging.Resize(sf.img, c.dst.X, c.dst.Y, imaging.Lanczos)
	}
	if c.format == FormatGray {
		return toGray(out), nil
	}
	return out, nil
}

func (c *stillConverter) Close() error { return nil }

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}
