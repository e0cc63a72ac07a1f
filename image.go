//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/disintegration/imaging"
	"github.com/obinnaokechukwu/ffsnap/avcodec"
	"github.com/obinnaokechukwu/ffsnap/avutil"
)

// pngEncoder encodes images with libavcodec's png encoder. The codec
// context is opened on first use and reopened when the image size or
// pixel format changes.
type pngEncoder struct {
	codec avcodec.Codec
	ctx   avcodec.Context
	size  image.Point
	pix   avutil.PixelFormat

	frame avutil.Frame
	pkt   avcodec.Packet
}

func newPNGEncoder() (*pngEncoder, error) {
	codec := avcodec.FindEncoderByName("png")
	if codec == nil {
		return nil, errors.New("ffsnap: png encoder not found")
	}
	e := &pngEncoder{codec: codec, pix: avutil.PixelFormatNone}
	e.frame = avutil.FrameAlloc()
	e.pkt = avcodec.PacketAlloc()
	if e.frame == nil || e.pkt == nil {
		e.Close()
		return nil, errors.New("ffsnap: failed to allocate packet or frame")
	}
	return e, nil
}

func (e *pngEncoder) open(size image.Point, pix avutil.PixelFormat) error {
	if e.ctx != nil && size == e.size && pix == e.pix {
		return nil
	}
	if e.ctx != nil {
		avcodec.FreeContext(&e.ctx)
	}

	// Allocate codec context
	e.ctx = avcodec.AllocContext3(e.codec)
	if e.ctx == nil {
		return errors.New("ffsnap: failed to allocate encoder context")
	}

	// Configure encoder
	avcodec.SetEncoderGeometry(e.ctx, int32(size.X), int32(size.Y), pix, avutil.NewRational(1, 25))

	// Open encoder
	if err := avcodec.Open2(e.ctx, e.codec, nil); err != nil {
		avcodec.FreeContext(&e.ctx)
		return err
	}
	e.size, e.pix = size, pix
	return nil
}

func (e *pngEncoder) Encode(img image.Image) ([]byte, error) {
	if img.Bounds().Min != (image.Point{}) {
		img = imaging.Clone(img)
	}
	var pix []byte
	var stride int
	var format avutil.PixelFormat
	switch m := img.(type) {
	case *image.Gray:
		pix, stride, format = m.Pix, m.Stride, avutil.PixelFormatGray8
	case *image.NRGBA:
		pix, stride, format = m.Pix, m.Stride, avutil.PixelFormatRGBA
	default:
		n := imaging.Clone(img)
		pix, stride, format = n.Pix, n.Stride, avutil.PixelFormatRGBA
	}
	size := img.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("ffsnap: cannot encode %dx%d image", size.X, size.Y)
	}

	if err := e.open(size, format); err != nil {
		return nil, err
	}

	avutil.FrameUnref(e.frame)
	avutil.SetFrameGeometry(e.frame, int32(size.X), int32(size.Y), format)
	if err := avutil.FrameGetBuffer(e.frame, 0); err != nil {
		return nil, err
	}
	plane := avutil.GetFrameData(e.frame)[0]
	linesize := int(avutil.GetFrameLinesize(e.frame)[0])
	rowLen := size.X
	if format == avutil.PixelFormatRGBA {
		rowLen *= 4
	}
	for y := 0; y < size.Y; y++ {
		dst := unsafe.Slice((*byte)(unsafe.Add(plane, y*linesize)), rowLen)
		copy(dst, pix[y*stride:y*stride+rowLen])
	}

	// Send frame
	if err := avcodec.SendFrame(e.ctx, e.frame); err != nil {
		return nil, err
	}

	// Receive packet
	avcodec.PacketUnref(e.pkt)
	if err := avcodec.ReceivePacket(e.ctx, e.pkt); err != nil {
		return nil, err
	}
	data := avcodec.PacketBytes(e.pkt)
	avcodec.PacketUnref(e.pkt)
	if len(data) == 0 {
		return nil, errors.New("ffsnap: encoder produced no data")
	}
	return data, nil
}

func (e *pngEncoder) Close() error {
	if e.ctx != nil {
		avcodec.FreeContext(&e.ctx)
	}
	if e.frame != nil {
		avutil.FrameFree(&e.frame)
	}
	if e.pkt != nil {
		avcodec.PacketFree(&e.pkt)
	}
	return nil
}
