//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"image"
)

// Backend opens containers, builds pixel converters and image encoders.
// FFmpegBackend is the default; tests substitute their own.
type Backend interface {
	// OpenContainer probes src and parses its stream table.
	OpenContainer(src ByteSource, cfg *Config) (Container, error)

	// NewConverter builds a converter from frames of geometry src to
	// images of exactly dst pixels in format.
	NewConverter(src Geometry, dst image.Point, format PixelFormat) (Converter, error)

	// NewEncoder returns a PNG encoder.
	NewEncoder() (ImageEncoder, error)
}

// Container is an opened, probed media container.
type Container interface {
	Streams() []StreamInfo

	// Duration returns the container duration in seconds, or 0 if unknown.
	Duration() float64

	// Metadata returns a container-level tag such as "title", or "".
	Metadata(key string) string

	// AttachedPicture returns the encoded image carried by an attached
	// picture or image attachment stream.
	AttachedPicture(index int) ([]byte, error)

	// OpenDecoder opens a frame decoder for a stream. hwDevices lists the
	// hardware device types to try in order; none means software decode.
	// It fails when none of the listed devices can be used.
	OpenDecoder(index int, hwDevices []string) (FrameDecoder, error)

	Close() error
}

// FrameDecoder decodes one stream of a Container.
type FrameDecoder interface {
	// SeekTo positions the demuxer on the keyframe at or before seconds
	// and resets decoder state.
	SeekTo(seconds float64) error

	// Next returns the next decoded frame. It returns io.EOF at the end
	// of the stream and an error matching ErrCorruptPacket when a packet
	// was dropped. The frame stays valid until the following call.
	Next() (Frame, error)

	// Hardware reports whether frames come from a hardware decoder.
	Hardware() bool

	Close() error
}

// Frame is a decoded picture.
type Frame interface {
	// PTS is the presentation time in seconds from the stream start.
	PTS() float64
	Geometry() Geometry
}

// Geometry describes a frame's pixel layout.
type Geometry struct {
	Width, Height int
	Format        int     // backend-specific pixel format
	SampleAspect  float64 // pixel width / pixel height; 0 if unknown
	Hardware      bool    // pixels live in device memory
}

// DisplayWidth returns the width with the sample aspect ratio applied.
func (g Geometry) DisplayWidth() int {
	if g.SampleAspect <= 0 || g.SampleAspect == 1 {
		return g.Width
	}
	return int(float64(g.Width)*g.SampleAspect + 0.5)
}

// Converter turns frames of one geometry into Go images.
type Converter interface {
	Convert(f Frame) (image.Image, error)
	Close() error
}

// ImageEncoder encodes images as PNG.
type ImageEncoder interface {
	Encode(img image.Image) ([]byte, error)
	Close() error
}

// PixelFormat is the pixel format of images returned by the engine.
type PixelFormat int

const (
	FormatRGBA PixelFormat = iota // *image.NRGBA
	FormatGray                    // *image.Gray
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA:
		return "rgba"
	case FormatGray:
		return "gray"
	}
	return "unknown"
}

// StreamKind classifies container streams.
type StreamKind int

const (
	KindOther StreamKind = iota
	KindVideo
	KindAudio
	KindAttachment
)

func (k StreamKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindAttachment:
		return "attachment"
	}
	return "other"
}

func (k StreamKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// StreamInfo describes a container stream.
type StreamInfo struct {
	Index           int        `json:"index"`
	Kind            StreamKind `json:"kind"`
	AttachedPicture bool       `json:"attached_picture,omitempty"` // cover art stream or image attachment
	Codec           string     `json:"codec"`
	Decodable       bool       `json:"decodable"` // a decoder is available
	BitRate         int64      `json:"bit_rate,omitempty"`
	Channels        int        `json:"channels,omitempty"`      // audio only
	Width           int        `json:"width,omitempty"`         // video only
	Height          int        `json:"height,omitempty"`        // video only
	SampleAspect    float64    `json:"sample_aspect,omitempty"` // video only; 0 if unknown
}
