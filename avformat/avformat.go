//go:build !ios && !android && (amd64 || arm64)

// Package avformat provides bindings to FFmpeg's libavformat library for
// demuxing: opening containers through custom I/O, enumerating streams,
// reading packets and seeking.
package avformat

import (
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/avcodec"
	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// FormatContext is an opaque FFmpeg AVFormatContext pointer.
type FormatContext = unsafe.Pointer

// Stream is an opaque FFmpeg AVStream pointer.
type Stream = unsafe.Pointer

// AVFMT_FLAG_CUSTOM_IO tells avformat_close_input not to close pb.
const FlagCustomIO = 0x0080

// Seek flags for SeekFrame.
const (
	SeekFlagBackward = 1
	SeekFlagByte     = 2
	SeekFlagAny      = 4
)

// TimeBase is AV_TIME_BASE, the unit of container-level timestamps.
const TimeBase = 1000000

var (
	avformatOpenInput      func(ctx *unsafe.Pointer, url string, fmt unsafe.Pointer, options *unsafe.Pointer) int32
	avformatCloseInput     func(ctx *unsafe.Pointer)
	avformatFindStreamInfo func(ctx unsafe.Pointer, options unsafe.Pointer) int32
	avformatAllocContext   func() unsafe.Pointer
	avformatFreeContext    func(ctx unsafe.Pointer)
	avReadFrame            func(ctx, pkt unsafe.Pointer) int32
	avSeekFrame            func(ctx unsafe.Pointer, streamIndex int32, timestamp int64, flags int32) int32
)

func init() {
	bindings.OnLoad(registerBindings)
}

func registerBindings() {
	lib := bindings.AVFormat

	bindings.Register(&avformatOpenInput, lib, "avformat_open_input")
	bindings.Register(&avformatCloseInput, lib, "avformat_close_input")
	bindings.Register(&avformatFindStreamInfo, lib, "avformat_find_stream_info")
	bindings.Register(&avformatAllocContext, lib, "avformat_alloc_context")
	bindings.Register(&avformatFreeContext, lib, "avformat_free_context")
	bindings.Register(&avReadFrame, lib, "av_read_frame")
	bindings.Register(&avSeekFrame, lib, "av_seek_frame")

	registerIOBindings(lib)
	selectLayout(bindings.Major(bindings.Version(bindings.AVFormat)))
}

// AllocContext allocates an empty format context.
func AllocContext() FormatContext {
	if avformatAllocContext == nil {
		return nil
	}
	return avformatAllocContext()
}

// FreeContext frees a format context that was never opened.
func FreeContext(ctx FormatContext) {
	if ctx == nil || avformatFreeContext == nil {
		return
	}
	avformatFreeContext(ctx)
}

// OpenInput probes and opens a container. With custom I/O the url is "".
// On failure FFmpeg frees *ctx and sets it to nil.
func OpenInput(ctx *FormatContext, url string, options *avutil.Dictionary) error {
	if avformatOpenInput == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avformatOpenInput(ctx, url, nil, options); ret < 0 {
		*ctx = nil
		return avutil.NewError(ret, "avformat_open_input")
	}
	return nil
}

// CloseInput closes an opened container and sets it to nil.
func CloseInput(ctx *FormatContext) {
	if ctx == nil || *ctx == nil || avformatCloseInput == nil {
		return
	}
	avformatCloseInput(ctx)
	*ctx = nil
}

// FindStreamInfo reads packets to fill in stream parameters.
func FindStreamInfo(ctx FormatContext) error {
	if avformatFindStreamInfo == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avformatFindStreamInfo(ctx, nil); ret < 0 {
		return avutil.NewError(ret, "avformat_find_stream_info")
	}
	return nil
}

// ReadFrame reads the next packet of any stream.
func ReadFrame(ctx FormatContext, pkt avcodec.Packet) error {
	if avReadFrame == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avReadFrame(ctx, pkt); ret < 0 {
		return avutil.NewError(ret, "av_read_frame")
	}
	return nil
}

// SeekFrame seeks to timestamp, in the stream's time base, or in TimeBase
// units when streamIndex is -1.
func SeekFrame(ctx FormatContext, streamIndex int32, timestamp int64, flags int32) error {
	if avSeekFrame == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avSeekFrame(ctx, streamIndex, timestamp, flags); ret < 0 {
		return avutil.NewError(ret, "av_seek_frame")
	}
	return nil
}
