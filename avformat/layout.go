//go:build !ios && !android && (amd64 || arm64)

package avformat

import (
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/avcodec"
	"github.com/obinnaokechukwu/ffsnap/avutil"
)

// ctxLayout holds the AVFormatContext offsets that moved between releases.
type ctxLayout struct {
	startTime uintptr
	duration  uintptr
	bitRate   uintptr
	flags     uintptr
	metadata  uintptr
}

// streamLayout holds AVStream offsets relative to the struct start.
type streamLayout struct {
	index       uintptr
	codecpar    uintptr
	timeBase    uintptr
	startTime   uintptr
	duration    uintptr
	disposition uintptr
	sar         uintptr
	metadata    uintptr
	attachedPic uintptr
}

const (
	offsetPB        = 32
	offsetNbStreams = 44
	offsetStreams   = 48
)

var (
	// avformat 59 and 60 (FFmpeg 5.x, 6.x)
	layout60 = ctxLayout{startTime: 64, duration: 72, bitRate: 80, flags: 96, metadata: 176}
	// avformat 61 (FFmpeg 7.x) adds stream groups and hoists chapters after streams.
	layout61 = ctxLayout{startTime: 96, duration: 104, bitRate: 112, flags: 128, metadata: 200}

	// avformat 60+ begins AVStream with an AVClass pointer.
	streamLayout60 = streamLayout{index: 8, codecpar: 16, timeBase: 32, startTime: 40, duration: 48,
		disposition: 64, sar: 72, metadata: 80, attachedPic: 96}
	streamLayout59 = streamLayout{index: 0, codecpar: 8, timeBase: 24, startTime: 32, duration: 40,
		disposition: 56, sar: 64, metadata: 72, attachedPic: 88}

	ctxOffsets    = layout60
	streamOffsets = streamLayout60
)

func selectLayout(major int) {
	switch {
	case major >= 61:
		ctxOffsets, streamOffsets = layout61, streamLayout60
	case major == 60:
		ctxOffsets, streamOffsets = layout60, streamLayout60
	default:
		ctxOffsets, streamOffsets = layout60, streamLayout59
	}
}

func field[T any](p unsafe.Pointer, off uintptr) *T {
	return (*T)(unsafe.Add(p, off))
}

// GetNumStreams returns the number of streams in the container.
func GetNumStreams(ctx FormatContext) int {
	if ctx == nil {
		return 0
	}
	return int(*field[uint32](ctx, offsetNbStreams))
}

// GetStream returns the stream at index, or nil when out of range.
func GetStream(ctx FormatContext, index int) Stream {
	if ctx == nil || index < 0 || index >= GetNumStreams(ctx) {
		return nil
	}
	streams := *field[unsafe.Pointer](ctx, offsetStreams)
	if streams == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(streams, uintptr(index)*unsafe.Sizeof(uintptr(0))))
}

// GetDuration returns the container duration in TimeBase units, or
// avutil.NoPTSValue when unknown.
func GetDuration(ctx FormatContext) int64 {
	if ctx == nil {
		return avutil.NoPTSValue
	}
	return *field[int64](ctx, ctxOffsets.duration)
}

// GetStartTime returns the container start time in TimeBase units.
func GetStartTime(ctx FormatContext) int64 {
	if ctx == nil {
		return avutil.NoPTSValue
	}
	return *field[int64](ctx, ctxOffsets.startTime)
}

// GetBitRate returns the total container bit rate, or 0 when unknown.
func GetBitRate(ctx FormatContext) int64 {
	if ctx == nil {
		return 0
	}
	return *field[int64](ctx, ctxOffsets.bitRate)
}

// AddFlags ORs flags into AVFormatContext.flags.
func AddFlags(ctx FormatContext, flags int32) {
	if ctx == nil {
		return
	}
	*field[int32](ctx, ctxOffsets.flags) |= flags
}

// GetMetadata returns a container-level metadata value such as "title".
func GetMetadata(ctx FormatContext, key string) string {
	if ctx == nil {
		return ""
	}
	return avutil.DictGet(*field[unsafe.Pointer](ctx, ctxOffsets.metadata), key)
}

// SetIOContext installs a custom AVIOContext before OpenInput.
func SetIOContext(ctx FormatContext, pb IOContext) {
	if ctx == nil {
		return
	}
	*field[unsafe.Pointer](ctx, offsetPB) = pb
}

// AV_DISPOSITION_ATTACHED_PIC marks cover art carried as a one-packet stream.
const DispositionAttachedPic = 0x0400

// GetStreamIndex returns the stream's index in the container.
func GetStreamIndex(s Stream) int32 {
	if s == nil {
		return -1
	}
	return *field[int32](s, streamOffsets.index)
}

// GetStreamCodecPar returns the stream's codec parameters.
func GetStreamCodecPar(s Stream) avcodec.Parameters {
	if s == nil {
		return nil
	}
	return *field[unsafe.Pointer](s, streamOffsets.codecpar)
}

// GetStreamTimeBase returns the unit of the stream's timestamps.
func GetStreamTimeBase(s Stream) avutil.Rational {
	if s == nil {
		return avutil.Rational{}
	}
	return *field[avutil.Rational](s, streamOffsets.timeBase)
}

// GetStreamStartTime returns the first pts of the stream, or NoPTSValue.
func GetStreamStartTime(s Stream) int64 {
	if s == nil {
		return avutil.NoPTSValue
	}
	return *field[int64](s, streamOffsets.startTime)
}

// GetStreamDuration returns the stream duration in its time base, or NoPTSValue.
func GetStreamDuration(s Stream) int64 {
	if s == nil {
		return avutil.NoPTSValue
	}
	return *field[int64](s, streamOffsets.duration)
}

// GetStreamDisposition returns the AV_DISPOSITION_* bits.
func GetStreamDisposition(s Stream) int32 {
	if s == nil {
		return 0
	}
	return *field[int32](s, streamOffsets.disposition)
}

// GetStreamSampleAspectRatio returns the container-declared pixel aspect.
func GetStreamSampleAspectRatio(s Stream) avutil.Rational {
	if s == nil {
		return avutil.Rational{}
	}
	return *field[avutil.Rational](s, streamOffsets.sar)
}

// GetStreamMetadata returns a stream-level metadata value.
func GetStreamMetadata(s Stream, key string) string {
	if s == nil {
		return ""
	}
	return avutil.DictGet(*field[unsafe.Pointer](s, streamOffsets.metadata), key)
}

// GetStreamAttachedPic returns the stream's attached picture packet, which
// is embedded in AVStream by value.
func GetStreamAttachedPic(s Stream) avcodec.Packet {
	if s == nil {
		return nil
	}
	return unsafe.Add(s, streamOffsets.attachedPic)
}
