//go:build !ios && !android && (amd64 || arm64)

package avformat

import (
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// IOContext is an opaque FFmpeg AVIOContext pointer.
type IOContext = unsafe.Pointer

// Whence values FFmpeg passes to a seek callback besides io.Seek*.
const (
	SeekSize  = 0x10000 // AVSEEK_SIZE: report the stream size, do not move
	SeekForce = 0x20000 // AVSEEK_FORCE: hint, may be ignored
)

var (
	avioAllocContext func(buffer unsafe.Pointer, bufferSize int32, writeFlag int32, opaque uintptr,
		readPacket, writePacket, seek uintptr) unsafe.Pointer
	avioContextFree func(ctx *unsafe.Pointer)
)

func registerIOBindings(lib bindings.Library) {
	bindings.Register(&avioAllocContext, lib, "avio_alloc_context")
	bindings.Register(&avioContextFree, lib, "avio_context_free")
}

// AVIOContext.buffer follows the class pointer.
const offsetIOBuffer = 8

// IOAllocContext creates a read-only AVIOContext over a buffer of
// bufferSize bytes allocated with avutil.Malloc. read and seek are purego
// callbacks; opaque is passed back to them untouched.
func IOAllocContext(bufferSize int, opaque uintptr, read, seek uintptr) (IOContext, error) {
	if avioAllocContext == nil {
		return nil, bindings.ErrNotLoaded
	}
	buf := avutil.Malloc(uintptr(bufferSize))
	if buf == nil {
		return nil, avutil.NewError(avutil.AVERROR_ENOMEM, "av_malloc")
	}
	ctx := avioAllocContext(buf, int32(bufferSize), 0, opaque, read, 0, seek)
	if ctx == nil {
		avutil.Free(buf)
		return nil, avutil.NewError(avutil.AVERROR_ENOMEM, "avio_alloc_context")
	}
	return ctx, nil
}

// IOContextFree frees the context and its current buffer, which FFmpeg may
// have replaced since allocation.
func IOContextFree(ctx *IOContext) {
	if ctx == nil || *ctx == nil || avioContextFree == nil {
		return
	}
	avutil.Freep((*unsafe.Pointer)(unsafe.Add(*ctx, offsetIOBuffer)))
	avioContextFree(ctx)
	*ctx = nil
}
