//go:build !ios && !android && (amd64 || arm64)

package avcodec

// CodecID represents FFmpeg codec identifiers.
type CodecID int32

// Codec IDs the extraction engine treats specially.
const (
	CodecIDNone  CodecID = 0
	CodecIDMJPEG CodecID = 7
	CodecIDMPEG4 CodecID = 12
	CodecIDH264  CodecID = 27
	CodecIDPNG   CodecID = 61
	CodecIDHEVC  CodecID = 173
	CodecIDAV1   CodecID = 226
)

// String returns FFmpeg's short name for the codec.
func (id CodecID) String() string {
	if id == CodecIDNone {
		return "none"
	}
	if name := GetName(id); name != "" {
		return name
	}
	switch id {
	case CodecIDMJPEG:
		return "mjpeg"
	case CodecIDMPEG4:
		return "mpeg4"
	case CodecIDH264:
		return "h264"
	case CodecIDPNG:
		return "png"
	case CodecIDHEVC:
		return "hevc"
	case CodecIDAV1:
		return "av1"
	}
	return "unknown"
}

// NeedsParameterSets reports whether decoding depends on out-of-band
// parameter sets (SPS/PPS, VPS, VOL) that may only travel in-band.
func (id CodecID) NeedsParameterSets() bool {
	switch id {
	case CodecIDH264, CodecIDHEVC, CodecIDMPEG4:
		return true
	}
	return false
}
