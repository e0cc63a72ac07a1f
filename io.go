//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"errors"
	"io"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/ffsnap/avformat"
	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/handles"
)

// avioBufferSize is the AVIOContext read buffer (64KB).
const avioBufferSize = 64 * 1024

// avioBridge feeds a ByteSource to libavformat through an AVIOContext.
type avioBridge struct {
	src    ByteSource
	ctx    avformat.IOContext
	handle uintptr
	err    error // last error other than io.EOF, for diagnostics
}

var bridges handles.Table[*avioBridge]

// The callbacks are created once and shared by every bridge: purego can
// only allocate a limited number of them.
var (
	avioCallbacksOnce sync.Once
	avioReadPtr       uintptr
	avioSeekPtr       uintptr
)

func initAVIOCallbacks() {
	avioCallbacksOnce.Do(func() {
		// int read_packet(void *opaque, uint8_t *buf, int buf_size)
		avioReadPtr = purego.NewCallback(func(_ purego.CDecl, opaque uintptr, buf *byte, bufSize int32) (ret int32) {
			defer func() {
				if r := recover(); r != nil {
					logger().Warn("recovered panic in read callback", "panic", r)
					ret = avutil.AVERROR_EIO
				}
			}()
			b, ok := bridges.Lookup(opaque)
			if !ok {
				return avutil.AVERROR_EIO
			}
			return b.read(unsafe.Slice(buf, bufSize))
		})

		// int64_t seek(void *opaque, int64_t offset, int whence)
		avioSeekPtr = purego.NewCallback(func(_ purego.CDecl, opaque uintptr, offset int64, whence int32) (ret int64) {
			defer func() {
				if r := recover(); r != nil {
					logger().Warn("recovered panic in seek callback", "panic", r)
					ret = int64(avutil.AVERROR_EIO)
				}
			}()
			b, ok := bridges.Lookup(opaque)
			if !ok {
				return int64(avutil.AVERROR_EIO)
			}
			return b.seek(offset, int(whence))
		})
	})
}

func newAVIOBridge(src ByteSource) (*avioBridge, error) {
	initAVIOCallbacks()

	b := &avioBridge{src: src}
	b.handle = bridges.Register(b)
	ctx, err := avformat.IOAllocContext(avioBufferSize, b.handle, avioReadPtr, avioSeekPtr)
	if err != nil {
		bridges.Unregister(b.handle)
		return nil, err
	}
	b.ctx = ctx
	return b, nil
}

// read returns the byte count, AVERROR_EOF at the end of the data or
// AVERROR(EIO) on failure.
func (b *avioBridge) read(buf []byte) int32 {
	if len(buf) == 0 {
		return 0
	}
	n, err := b.src.Read(buf)
	if n > 0 {
		return int32(n)
	}
	if err == nil || errors.Is(err, io.EOF) {
		return avutil.AVERROR_EOF
	}
	b.err = err
	return avutil.AVERROR_EIO
}

func (b *avioBridge) seek(offset int64, whence int) int64 {
	whence &^= avformat.SeekForce

	if whence == avformat.SeekSize {
		cur, err := b.src.Seek(0, io.SeekCurrent)
		if err != nil {
			b.err = err
			return int64(avutil.AVERROR_ENOSYS)
		}
		end, err := b.src.Seek(0, io.SeekEnd)
		if err != nil {
			b.err = err
			return int64(avutil.AVERROR_ENOSYS)
		}
		if _, err := b.src.Seek(cur, io.SeekStart); err != nil {
			b.err = err
			return int64(avutil.AVERROR_EIO)
		}
		return end
	}

	pos, err := b.src.Seek(offset, whence)
	if err != nil {
		b.err = err
		return int64(avutil.AVERROR_EIO)
	}
	return pos
}

func (b *avioBridge) close() {
	if b.ctx != nil {
		avformat.IOContextFree(&b.ctx)
	}
	if b.handle != 0 {
		bridges.Unregister(b.handle)
		b.handle = 0
	}
}
