//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// CoverArtMode selects how cover art is chosen and shaped.
type CoverArtMode int

const (
	// CoverArtDefault returns the first cover as it is.
	CoverArtDefault CoverArtMode = iota
	// CoverArtThumbnail prefers the most nearly square cover and crops it
	// to 1:1.
	CoverArtThumbnail
	// CoverArtLandscape prefers the cover nearest 16:9 and crops it to 16:9.
	CoverArtLandscape
)

func (m CoverArtMode) String() string {
	switch m {
	case CoverArtDefault:
		return "default"
	case CoverArtThumbnail:
		return "thumbnail"
	case CoverArtLandscape:
		return "landscape"
	}
	return fmt.Sprintf("CoverArtMode(%d)", int(m))
}

// ParseCoverArtMode parses the String form of a mode.
func ParseCoverArtMode(s string) (CoverArtMode, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return CoverArtDefault, nil
	case "thumbnail":
		return CoverArtThumbnail, nil
	case "landscape":
		return CoverArtLandscape, nil
	}
	return CoverArtDefault, fmt.Errorf("ffsnap: unknown cover art mode %q", s)
}

// aspect is the target width/height, 0 for CoverArtDefault.
func (m CoverArtMode) aspect() float64 {
	switch m {
	case CoverArtThumbnail:
		return 1
	case CoverArtLandscape:
		return 16.0 / 9.0
	}
	return 0
}

// CoverArt returns the source's cover art at its own resolution: attached
// picture streams first, then the picture blob. A source with neither
// falls back to the first video frame. It returns nil, nil when there is
// nothing to show.
func (m *MediaSource) CoverArt(mode CoverArtMode) (img image.Image, err error) {
	defer observe("cover_art", time.Now(), &img, &err)
	defer recoverOp("cover_art", &err)
	if err := m.checkOpen("cover_art"); err != nil {
		return nil, err
	}

	img, err = m.coverArt(mode)
	return img, wrapError("cover_art", err, ErrDecode)
}

// CoverArtData is CoverArt encoded as PNG.
func (m *MediaSource) CoverArtData(mode CoverArtMode) (data []byte, err error) {
	defer recoverOp("cover_art_data", &err)
	img, err := m.CoverArt(mode)
	if err != nil || img == nil {
		return nil, err
	}
	return m.encode("cover_art_data", img)
}

// HasCoverArt reports whether the source carries cover art of its own.
func (m *MediaSource) HasCoverArt() bool {
	return len(coverStreams(m.streams)) > 0 || m.IsPictureMode()
}

func (m *MediaSource) coverArt(mode CoverArtMode) (image.Image, error) {
	covers, err := m.coverImages()
	if err != nil {
		return nil, err
	}
	if len(covers) == 0 {
		if _, ok := m.visual.(StreamSource); !ok {
			return nil, nil
		}
		f, err := m.frameAt(0)
		if err != nil {
			return nil, err
		}
		frame, err := m.video.chain.convert(f, image.Point{}, FormatRGBA)
		if err != nil {
			return nil, err
		}
		covers = []image.Image{frame}
	}
	return chooseCover(covers, mode, m.opts.Config.AspectTolerance), nil
}

// coverImages decodes the attached pictures and the picture blob once.
// Covers that fail to decode are skipped.
func (m *MediaSource) coverImages() ([]image.Image, error) {
	if m.coversRead {
		return m.covers, nil
	}

	var covers []image.Image
	for _, s := range coverStreams(m.streams) {
		data, err := m.container.AttachedPicture(s.Index)
		if err == nil {
			var img image.Image
			if img, err = decodeStill(data); err == nil {
				covers = append(covers, img)
				continue
			}
		}
		logger().Debug("skipping unreadable cover", "stream", s.Index, "codec", s.Codec, "error", err)
	}
	if b, ok := m.visual.(BlobSource); ok {
		pic, err := m.pictureImage(b)
		if err != nil {
			return nil, err
		}
		covers = append(covers, pic)
	}

	m.covers, m.coversRead = covers, true
	return covers, nil
}

// chooseCover picks the cover whose aspect is nearest the mode's target,
// earliest first on ties, and centre-crops it to the target unless it is
// already within tolerance.
func chooseCover(covers []image.Image, mode CoverArtMode, tolerance float64) *image.NRGBA {
	target := mode.aspect()
	if target == 0 {
		return imaging.Clone(covers[0])
	}

	best, bestDist := 0, math.Inf(1)
	for i, c := range covers {
		if d := aspectDistance(c.Bounds().Size(), target); d < bestDist {
			best, bestDist = i, d
		}
	}
	cover := covers[best]
	if bestDist <= tolerance {
		return imaging.Clone(cover)
	}
	return cropToAspect(cover, target)
}

// aspectDistance is |ln(aspect/target)|, symmetric in too wide and too tall.
func aspectDistance(size image.Point, target float64) float64 {
	if size.X <= 0 || size.Y <= 0 {
		return math.Inf(1)
	}
	return math.Abs(math.Log(float64(size.X) / float64(size.Y) / target))
}

func cropToAspect(img image.Image, target float64) *image.NRGBA {
	size := cropSize(img.Bounds().Size(), target)
	return imaging.CropCenter(img, size.X, size.Y)
}

// cropSize returns the centre crop of size closest to target. The result is
// within 1/(2n-1) of target in aspectDistance, n being the cropped side.
func cropSize(size image.Point, target float64) image.Point {
	var cands [2]image.Point
	if float64(size.X)/float64(size.Y) > target {
		exact := float64(size.Y) * target
		cands[0] = image.Pt(max(1, int(math.Floor(exact))), size.Y)
		cands[1] = image.Pt(min(size.X, int(math.Ceil(exact))), size.Y)
	} else {
		exact := float64(size.X) / target
		cands[0] = image.Pt(size.X, max(1, int(math.Floor(exact))))
		cands[1] = image.Pt(size.X, min(size.Y, int(math.Ceil(exact))))
	}

	best := size
	for _, c := range cands {
		if aspectDistance(c, target) < aspectDistance(best, target) {
			best = c
		}
	}
	return best
}
