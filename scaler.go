//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/swscale"
)

const swsFlags = swscale.FlagBicubic | swscale.FlagAccurateRnd | swscale.FlagFullChrHInt

// swsConverter downloads hardware frames, then scales and converts them
// with libswscale into a reusable FFmpeg frame, and copies that into a Go
// image.
type swsConverter struct {
	src    Geometry
	dst    image.Point
	format PixelFormat

	sws       swscale.Context
	swsSrcFmt avutil.PixelFormat
	sw        avutil.Frame // system memory copy of hardware frames
	out       avutil.Frame
}

func newSWSConverter(src Geometry, dst image.Point, format PixelFormat) (_ *swsConverter, err error) {
	if !swscale.Available() {
		return nil, swscale.ErrUnavailable
	}
	if dst.X <= 0 || dst.Y <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", dst.X, dst.Y)
	}

	c := &swsConverter{src: src, dst: dst, format: format, swsSrcFmt: avutil.PixelFormatNone}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	c.out = avutil.FrameAlloc()
	if c.out == nil {
		return nil, errors.New("failed to allocate frame")
	}
	avutil.SetFrameGeometry(c.out, int32(dst.X), int32(dst.Y), c.outFormat())
	if err := avutil.FrameGetBuffer(c.out, 0); err != nil {
		return nil, err
	}

	if src.Hardware {
		// The download format is only known once a frame arrives.
		if c.sw = avutil.FrameAlloc(); c.sw == nil {
			return nil, errors.New("failed to allocate frame")
		}
		return c, nil
	}
	if err := c.prepare(avutil.PixelFormat(src.Format)); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *swsConverter) outFormat() avutil.PixelFormat {
	if c.format == FormatGray {
		return avutil.PixelFormatGray8
	}
	return avutil.PixelFormatRGBA
}

// prepare (re)creates the scaling context for frames of pixel format in.
func (c *swsConverter) prepare(in avutil.PixelFormat) error {
	if c.sws != nil && in == c.swsSrcFmt {
		return nil
	}
	swscale.FreeContext(c.sws)
	c.sws = nil

	if !swscale.IsSupportedInput(in) {
		return fmt.Errorf("pixel format %v not supported by swscale", in)
	}
	c.sws = swscale.GetContext(c.src.Width, c.src.Height, in, c.dst.X, c.dst.Y, c.outFormat(), swsFlags)
	if c.sws == nil {
		return fmt.Errorf("sws_getContext %dx%d %v -> %dx%d %v failed",
			c.src.Width, c.src.Height, in, c.dst.X, c.dst.Y, c.outFormat())
	}
	c.swsSrcFmt = in
	return nil
}

func (c *swsConverter) Convert(f Frame) (image.Image, error) {
	ff, ok := f.(*ffFrame)
	if !ok {
		return nil, fmt.Errorf("cannot convert %T with swscale", f)
	}

	in := ff.ptr
	if c.src.Hardware {
		// Transfer to system memory
		avutil.FrameUnref(c.sw)
		if err := avutil.HWFrameTransferData(c.sw, in); err != nil {
			return nil, err
		}
		in = c.sw
	}
	if err := c.prepare(avutil.GetFrameFormat(in)); err != nil {
		return nil, err
	}
	if err := swscale.ScaleFrame(c.sws, c.out, in); err != nil {
		return nil, err
	}
	return c.copyOut(), nil
}

// copyOut copies the scaled frame into Go memory, dropping row padding.
func (c *swsConverter) copyOut() image.Image {
	w, h := c.dst.X, c.dst.Y
	plane := avutil.GetFrameData(c.out)[0]
	stride := int(avutil.GetFrameLinesize(c.out)[0])

	var pix []byte
	var rowLen int
	var img image.Image
	if c.format == FormatGray {
		g := image.NewGray(image.Rect(0, 0, w, h))
		pix, rowLen, img = g.Pix, w, g
	} else {
		n := image.NewNRGBA(image.Rect(0, 0, w, h))
		pix, rowLen, img = n.Pix, 4*w, n
	}
	for y := 0; y < h; y++ {
		row := unsafe.Slice((*byte)(unsafe.Add(plane, y*stride)), rowLen)
		copy(pix[y*rowLen:], row)
	}
	return img
}

func (c *swsConverter) Close() error {
	swscale.FreeContext(c.sws)
	c.sws = nil
	if c.sw != nil {
		avutil.FrameFree(&c.sw)
	}
	if c.out != nil {
		avutil.FrameFree(&c.out)
	}
	return nil
}
