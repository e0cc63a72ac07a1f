//go:build !ios && !android && (amd64 || arm64)

package avcodec

import (
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// Parameters is an opaque FFmpeg AVCodecParameters pointer.
type Parameters = unsafe.Pointer

// AVCodecParameters field offsets. Everything up to sample_aspect_ratio is
// identical from avcodec 58 to 61.
const (
	offsetParType          = 0
	offsetParCodecID       = 4
	offsetParCodecTag      = 8
	offsetParExtradata     = 16
	offsetParExtradataSize = 24
	offsetParFormat        = 28
	offsetParBitRate       = 32
	offsetParWidth         = 56
	offsetParHeight        = 60
	offsetParSAR           = 64

	// Audio channel count moved when the legacy channel fields were dropped.
	offsetParChannelsLegacy = 112 // int channels, avcodec <= 60
	offsetParChLayout60     = 148 // ch_layout.nb_channels, avcodec 59.24 - 60
	offsetParChLayout61     = 132 // ch_layout.nb_channels, avcodec 61
)

func parField[T any](par Parameters, off uintptr) T {
	return *(*T)(unsafe.Add(par, off))
}

// GetParMediaType returns the stream's media type.
func GetParMediaType(par Parameters) avutil.MediaType {
	if par == nil {
		return avutil.MediaTypeUnknown
	}
	return avutil.MediaType(parField[int32](par, offsetParType))
}

// GetParCodecID returns the stream's codec ID.
func GetParCodecID(par Parameters) CodecID {
	if par == nil {
		return CodecIDNone
	}
	return CodecID(parField[int32](par, offsetParCodecID))
}

// GetParCodecTag returns the container's fourcc for the stream.
func GetParCodecTag(par Parameters) uint32 {
	if par == nil {
		return 0
	}
	return parField[uint32](par, offsetParCodecTag)
}

// GetParExtradataSize returns the size of the codec-private header.
func GetParExtradataSize(par Parameters) int32 {
	if par == nil {
		return 0
	}
	if parField[unsafe.Pointer](par, offsetParExtradata) == nil {
		return 0
	}
	return parField[int32](par, offsetParExtradataSize)
}

// GetParExtradata copies the codec-private header into Go memory.
func GetParExtradata(par Parameters) []byte {
	size := GetParExtradataSize(par)
	if size <= 0 {
		return nil
	}
	return avutil.GoBytes(parField[unsafe.Pointer](par, offsetParExtradata), int(size))
}

// GetParFormat returns the pixel or sample format.
func GetParFormat(par Parameters) int32 {
	if par == nil {
		return -1
	}
	return parField[int32](par, offsetParFormat)
}

// GetParBitRate returns the declared bit rate, or 0 when unknown.
func GetParBitRate(par Parameters) int64 {
	if par == nil {
		return 0
	}
	return parField[int64](par, offsetParBitRate)
}

// GetParWidth returns the coded width of a video stream.
func GetParWidth(par Parameters) int32 {
	if par == nil {
		return 0
	}
	return parField[int32](par, offsetParWidth)
}

// GetParHeight returns the coded height of a video stream.
func GetParHeight(par Parameters) int32 {
	if par == nil {
		return 0
	}
	return parField[int32](par, offsetParHeight)
}

// GetParSampleAspectRatio returns the pixel aspect ratio, 0/1 when unknown.
func GetParSampleAspectRatio(par Parameters) avutil.Rational {
	if par == nil {
		return avutil.Rational{}
	}
	return parField[avutil.Rational](par, offsetParSAR)
}

// GetParChannels returns the audio channel count for the loaded libavcodec.
func GetParChannels(par Parameters) int32 {
	if par == nil {
		return 0
	}
	major := bindings.Major(bindings.Version(bindings.AVCodec))
	switch {
	case major >= 61:
		return parField[int32](par, offsetParChLayout61)
	case major >= 59:
		if n := parField[int32](par, offsetParChLayout60); n > 0 {
			return n
		}
	}
	return parField[int32](par, offsetParChannelsLegacy)
}
