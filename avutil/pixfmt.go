//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"fmt"
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// PixelFormat represents FFmpeg pixel formats.
type PixelFormat int32

// Pixel formats whose numeric values are stable across FFmpeg 4 to 7.
const (
	PixelFormatNone     PixelFormat = -1
	PixelFormatYUV420P  PixelFormat = 0
	PixelFormatYUYV422  PixelFormat = 1
	PixelFormatRGB24    PixelFormat = 2
	PixelFormatBGR24    PixelFormat = 3
	PixelFormatYUV422P  PixelFormat = 4
	PixelFormatYUV444P  PixelFormat = 5
	PixelFormatGray8    PixelFormat = 8
	PixelFormatPAL8     PixelFormat = 11
	PixelFormatYUVJ420P PixelFormat = 12
	PixelFormatNV12     PixelFormat = 23
	PixelFormatRGBA     PixelFormat = 26
	PixelFormatBGRA     PixelFormat = 28
)

// MediaType represents FFmpeg media types.
type MediaType int32

const (
	MediaTypeUnknown    MediaType = -1
	MediaTypeVideo      MediaType = 0
	MediaTypeAudio      MediaType = 1
	MediaTypeData       MediaType = 2
	MediaTypeSubtitle   MediaType = 3
	MediaTypeAttachment MediaType = 4
)

func (t MediaType) String() string {
	switch t {
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeData:
		return "data"
	case MediaTypeSubtitle:
		return "subtitle"
	case MediaTypeAttachment:
		return "attachment"
	}
	return "unknown"
}

// AV_PIX_FMT_FLAG_HWACCEL marks formats whose planes live in device memory.
const pixFmtFlagHWAccel = 1 << 3

// AVPixFmtDescriptor.flags sits after name, five uint8 fields and padding.
const offsetPixFmtDescFlags = 16

var (
	avPixFmtDescGet func(pixFmt int32) unsafe.Pointer
	avGetPixFmtName func(pixFmt int32) string
)

func registerPixFmtBindings(lib bindings.Library) {
	bindings.Register(&avPixFmtDescGet, lib, "av_pix_fmt_desc_get")
	bindings.Register(&avGetPixFmtName, lib, "av_get_pix_fmt_name")
}

// IsHardware reports whether frames of this format must be transferred to
// system memory before their pixels can be read.
func (p PixelFormat) IsHardware() bool {
	if p < 0 || avPixFmtDescGet == nil {
		return false
	}
	desc := avPixFmtDescGet(int32(p))
	if desc == nil {
		return false
	}
	return *(*uint64)(unsafe.Add(desc, offsetPixFmtDescFlags))&pixFmtFlagHWAccel != 0
}

func (p PixelFormat) String() string {
	if p >= 0 && avGetPixFmtName != nil {
		if s := avGetPixFmtName(int32(p)); s != "" {
			return s
		}
	}
	if p == PixelFormatNone {
		return "none"
	}
	return fmt.Sprintf("PixelFormat(%d)", int32(p))
}
