//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import "fmt"

// VisualSource is where a MediaSource takes its pictures from: a video
// stream, a picture blob inside the container, or nothing.
type VisualSource interface {
	fmt.Stringer
	isVisualSource()
}

// StreamSource selects a decodable video stream.
type StreamSource struct {
	Index int
}

// BlobSource is a pre-rendered still picture stored at a byte range of the
// container, as found in protected movies whose video cannot be decoded.
type BlobSource struct {
	Offset int64
	Size   int64
	Width  int
	Height int
}

// NoVisual means the source is audio-only or its video is undecodable.
type NoVisual struct{}

func (StreamSource) isVisualSource() {}
func (BlobSource) isVisualSource()   {}
func (NoVisual) isVisualSource()     {}

func (s StreamSource) String() string { return fmt.Sprintf("stream #%d", s.Index) }
func (b BlobSource) String() string {
	return fmt.Sprintf("picture %dx%d at %d+%d", b.Width, b.Height, b.Offset, b.Size)
}
func (NoVisual) String() string { return "none" }
