//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"time"

	"github.com/obinnaokechukwu/ffsnap/internal/metrics"
)

// ptsSlack absorbs rounding when comparing frame times against a target.
const ptsSlack = 1e-3

// Snapshot returns the picture shown at the given time, scaled to fit
// inside size (a zero size keeps the display size). Times outside the
// clip are clamped into it. In picture mode the time is ignored. It
// returns nil, nil when the source has nothing to show.
func (m *MediaSource) Snapshot(size image.Point, at float64) (image.Image, error) {
	return m.SnapshotAs(size, at, FormatRGBA)
}

// SnapshotAs is Snapshot with a choice of output format.
func (m *MediaSource) SnapshotAs(size image.Point, at float64, format PixelFormat) (img image.Image, err error) {
	defer observe("snapshot", time.Now(), &img, &err)
	defer recoverOp("snapshot", &err)
	if err := m.checkOpen("snapshot"); err != nil {
		return nil, err
	}

	img, err = m.snapshot(size, at, format)
	return img, wrapError("snapshot", err, ErrDecode)
}

func (m *MediaSource) snapshot(size image.Point, at float64, format PixelFormat) (image.Image, error) {
	switch v := m.visual.(type) {
	case BlobSource:
		pic, err := m.pictureImage(v)
		if err != nil {
			return nil, err
		}
		return m.stillChain.convert(stillFrame{img: pic}, size, format)

	case StreamSource:
		f, err := m.frameAt(clampTime(at, m.duration))
		if err != nil {
			return nil, err
		}
		return m.video.chain.convert(f, size, format)
	}
	return nil, nil
}

// EncodedImage is Snapshot encoded as PNG.
func (m *MediaSource) EncodedImage(size image.Point, at float64) (data []byte, err error) {
	defer recoverOp("encoded_image", &err)
	img, err := m.Snapshot(size, at)
	if err != nil || img == nil {
		return nil, err
	}
	return m.encode("encoded_image", img)
}

// Thumbnail returns the square cover art fitted to size when the source
// has any, and otherwise a snapshot a little way into the clip.
func (m *MediaSource) Thumbnail(size image.Point) (img image.Image, err error) {
	defer recoverOp("thumbnail", &err)
	if err := m.checkOpen("thumbnail"); err != nil {
		return nil, err
	}

	covers, err := m.coverImages()
	if err != nil {
		return nil, wrapError("thumbnail", err, ErrDecode)
	}
	if len(covers) > 0 {
		cover := chooseCover(covers, CoverArtThumbnail, m.opts.Config.AspectTolerance)
		img, err := m.stillChain.convert(stillFrame{img: cover}, size, FormatRGBA)
		return img, wrapError("thumbnail", err, ErrFilterGraph)
	}

	t := ThumbnailTime(m.Duration(), int(m.opts.Config.SnapshotTime))
	img, err = m.Snapshot(size, float64(t))
	if err != nil && t != 0 {
		logger().Debug("thumbnail snapshot failed, retrying at start", "at", t, "error", err)
		img, err = m.Snapshot(size, 0)
	}
	return img, err
}

// clampTime maps t into [0, duration).
func clampTime(t, duration float64) float64 {
	if duration <= 0 || t <= 0 || math.IsNaN(t) {
		return 0
	}
	if t >= duration {
		return math.Nextafter(duration, 0)
	}
	return t
}

// frameAt seeks to the keyframe at or before t and decodes up to the first
// frame at or after t. Running out of stream returns the last frame.
func (m *MediaSource) frameAt(t float64) (Frame, error) {
	s := m.video
	if err := s.seek(t); err != nil {
		return nil, err
	}

	var last Frame
	for skipped := 0; ; skipped++ {
		f, err := s.decodeNext()
		if errors.Is(err, io.EOF) {
			if last == nil {
				return nil, fmt.Errorf("%w: stream %d ended before any frame", ErrDecode, s.index)
			}
			return last, nil
		}
		if err != nil {
			return nil, err
		}
		if f.PTS() >= t-ptsSlack {
			return f, nil
		}
		if skipped >= m.opts.Config.MaxFrameSkip {
			return nil, fmt.Errorf("%w: %.3fs not reached after %d frames (at %.3fs)",
				ErrTimeout, t, skipped, f.PTS())
		}
		metrics.FramesSkippedTotal.Inc()
		last = f
	}
}

// pictureImage decodes the picture blob once.
func (m *MediaSource) pictureImage(b BlobSource) (image.Image, error) {
	if m.picture != nil {
		return m.picture, nil
	}
	data, err := readRegion(m.src, b.Offset, b.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: reading picture: %w", ErrDecode, err)
	}
	pic, err := decodeStill(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	m.picture = pic
	return pic, nil
}
