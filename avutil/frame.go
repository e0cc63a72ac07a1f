//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// Frame is an opaque FFmpeg AVFrame pointer.
type Frame = unsafe.Pointer

// NoPTSValue is AV_NOPTS_VALUE.
const NoPTSValue int64 = -0x8000000000000000

var (
	avFrameAlloc     func() unsafe.Pointer
	avFrameFree      func(frame *unsafe.Pointer)
	avFrameUnref     func(frame unsafe.Pointer)
	avFrameGetBuffer func(frame unsafe.Pointer, align int32) int32
)

func registerFrameBindings(lib bindings.Library) {
	bindings.Register(&avFrameAlloc, lib, "av_frame_alloc")
	bindings.Register(&avFrameFree, lib, "av_frame_free")
	bindings.Register(&avFrameUnref, lib, "av_frame_unref")
	bindings.Register(&avFrameGetBuffer, lib, "av_frame_get_buffer")
	selectFrameLayout(bindings.Major(bindings.Version(lib)))
}

// AVFrame field offsets that hold across avutil 56 through 60.
const (
	offsetFrameData     = 0
	offsetFrameLinesize = 64
	offsetFrameWidth    = 104
	offsetFrameHeight   = 108
	offsetFrameFormat   = 116
	offsetFramePts      = 136
	offsetFramePktDts   = 144
)

// avutil 60 drops key_frame, pulling sample_aspect_ratio back by four bytes.
const (
	offsetFrameSAR59 = 128
	offsetFrameSAR60 = 124
)

var offsetFrameSAR uintptr = offsetFrameSAR59

func selectFrameLayout(major int) {
	if major >= 60 {
		offsetFrameSAR = offsetFrameSAR60
	} else {
		offsetFrameSAR = offsetFrameSAR59
	}
}

// FrameAlloc allocates an AVFrame. Free it with FrameFree.
func FrameAlloc() Frame {
	if avFrameAlloc == nil {
		return nil
	}
	return avFrameAlloc()
}

// FrameFree frees an AVFrame and sets the pointer to nil.
// Safe to call with nil pointer.
func FrameFree(frame *Frame) {
	if frame == nil || *frame == nil || avFrameFree == nil {
		return
	}
	avFrameFree(frame)
	*frame = nil
}

// FrameUnref releases the buffers referenced by frame.
func FrameUnref(frame Frame) {
	if frame == nil || avFrameUnref == nil {
		return
	}
	avFrameUnref(frame)
}

// FrameGetBuffer allocates data planes for a frame whose width, height and
// format are set.
func FrameGetBuffer(frame Frame, align int32) error {
	if avFrameGetBuffer == nil {
		return bindings.ErrNotLoaded
	}
	if ret := avFrameGetBuffer(frame, align); ret < 0 {
		return NewError(ret, "av_frame_get_buffer")
	}
	return nil
}

func frameField[T any](frame Frame, off uintptr) *T {
	return (*T)(unsafe.Add(frame, off))
}

// GetFrameWidth returns the width of the frame.
func GetFrameWidth(frame Frame) int32 {
	if frame == nil {
		return 0
	}
	return *frameField[int32](frame, offsetFrameWidth)
}

// GetFrameHeight returns the height of the frame.
func GetFrameHeight(frame Frame) int32 {
	if frame == nil {
		return 0
	}
	return *frameField[int32](frame, offsetFrameHeight)
}

// GetFrameFormat returns the pixel format of a video frame.
func GetFrameFormat(frame Frame) PixelFormat {
	if frame == nil {
		return PixelFormatNone
	}
	return PixelFormat(*frameField[int32](frame, offsetFrameFormat))
}

// SetFrameGeometry sets width, height and format ahead of FrameGetBuffer.
func SetFrameGeometry(frame Frame, width, height int32, format PixelFormat) {
	if frame == nil {
		return
	}
	*frameField[int32](frame, offsetFrameWidth) = width
	*frameField[int32](frame, offsetFrameHeight) = height
	*frameField[int32](frame, offsetFrameFormat) = int32(format)
}

// GetFrameSampleAspectRatio returns the frame's pixel aspect ratio.
func GetFrameSampleAspectRatio(frame Frame) Rational {
	if frame == nil {
		return Rational{}
	}
	return *frameField[Rational](frame, offsetFrameSAR)
}

// GetFramePTS returns the best known timestamp of the frame: pts, falling
// back to the dts of the packet that produced it.
func GetFramePTS(frame Frame) int64 {
	if frame == nil {
		return NoPTSValue
	}
	if pts := *frameField[int64](frame, offsetFramePts); pts != NoPTSValue {
		return pts
	}
	return *frameField[int64](frame, offsetFramePktDts)
}

// SetFramePTS sets the presentation timestamp.
func SetFramePTS(frame Frame, pts int64) {
	if frame == nil {
		return
	}
	*frameField[int64](frame, offsetFramePts) = pts
}

// GetFrameData returns pointers to all data planes.
func GetFrameData(frame Frame) [8]unsafe.Pointer {
	if frame == nil {
		return [8]unsafe.Pointer{}
	}
	return *frameField[[8]unsafe.Pointer](frame, offsetFrameData)
}

// GetFrameLinesize returns the linesizes for all planes.
func GetFrameLinesize(frame Frame) [8]int32 {
	if frame == nil {
		return [8]int32{}
	}
	return *frameField[[8]int32](frame, offsetFrameLinesize)
}

// FrameDataPtr returns the address of the data pointer array, as sws_scale expects.
func FrameDataPtr(frame Frame) unsafe.Pointer {
	return unsafe.Add(frame, offsetFrameData)
}

// FrameLinesizePtr returns the address of the linesize array.
func FrameLinesizePtr(frame Frame) unsafe.Pointer {
	return unsafe.Add(frame, offsetFrameLinesize)
}
