//go:build !ios && !android && (amd64 || arm64)

// Package swscale provides bindings to FFmpeg's libswscale library for
// scaling and pixel format conversion of decoded frames.
package swscale

import (
	"errors"
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// Context is an opaque SwsContext pointer.
type Context = unsafe.Pointer

// ErrUnavailable is returned when libswscale could not be loaded.
var ErrUnavailable = errors.New("swscale: libswscale not loaded")

// Scaling algorithm flags
const (
	FlagFastBilinear = 0x1
	FlagBilinear     = 0x2
	FlagBicubic      = 0x4
	FlagPoint        = 0x10
	FlagArea         = 0x20
	FlagLanczos      = 0x200
	FlagAccurateRnd  = 0x40000
	FlagFullChrHInt  = 0x2000
)

var (
	swsGetContext     func(srcW, srcH, srcFormat, dstW, dstH, dstFormat, flags int32, srcFilter, dstFilter, param unsafe.Pointer) unsafe.Pointer
	swsScale          func(ctx unsafe.Pointer, srcSlice, srcStride unsafe.Pointer, srcSliceY, srcSliceH int32, dst, dstStride unsafe.Pointer) int32
	swsFreeContext    func(ctx unsafe.Pointer)
	swsIsSupportedIn  func(format int32) int32
	swsIsSupportedOut func(format int32) int32
)

func init() {
	bindings.OnLoad(registerBindings)
}

func registerBindings() {
	if !bindings.Has(bindings.SWScale) {
		return
	}
	lib := bindings.SWScale

	bindings.Register(&swsGetContext, lib, "sws_getContext")
	bindings.Register(&swsScale, lib, "sws_scale")
	bindings.Register(&swsFreeContext, lib, "sws_freeContext")
	bindings.Register(&swsIsSupportedIn, lib, "sws_isSupportedInput")
	bindings.Register(&swsIsSupportedOut, lib, "sws_isSupportedOutput")
}

// Available reports whether libswscale is usable.
func Available() bool {
	return swsGetContext != nil
}

// GetContext creates a scaling context, or returns nil when the parameters
// are rejected.
func GetContext(srcW, srcH int, srcFormat avutil.PixelFormat, dstW, dstH int, dstFormat avutil.PixelFormat, flags int32) Context {
	if swsGetContext == nil {
		return nil
	}
	return swsGetContext(
		int32(srcW), int32(srcH), int32(srcFormat),
		int32(dstW), int32(dstH), int32(dstFormat),
		flags, nil, nil, nil,
	)
}

// FreeContext frees a scaling context.
// Safe to call with nil.
func FreeContext(ctx Context) {
	if ctx == nil || swsFreeContext == nil {
		return
	}
	swsFreeContext(ctx)
}

// ScaleFrame converts the whole of src into dst. Both frames live in
// FFmpeg memory; dst must already have buffers of the target geometry.
func ScaleFrame(ctx Context, dst, src avutil.Frame) error {
	if ctx == nil || swsScale == nil {
		return ErrUnavailable
	}
	ret := swsScale(ctx,
		avutil.FrameDataPtr(src), avutil.FrameLinesizePtr(src),
		0, avutil.GetFrameHeight(src),
		avutil.FrameDataPtr(dst), avutil.FrameLinesizePtr(dst),
	)
	if ret <= 0 {
		if ret == 0 {
			ret = avutil.AVERROR_EINVAL
		}
		return avutil.NewError(ret, "sws_scale")
	}
	return nil
}

// IsSupportedInput returns true if the pixel format is supported as input.
func IsSupportedInput(format avutil.PixelFormat) bool {
	if swsIsSupportedIn == nil {
		return false
	}
	return swsIsSupportedIn(int32(format)) > 0
}

// IsSupportedOutput returns true if the pixel format is supported as output.
func IsSupportedOutput(format avutil.PixelFormat) bool {
	if swsIsSupportedOut == nil {
		return false
	}
	return swsIsSupportedOut(int32(format)) > 0
}
