//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"
)

// PictureProbe looks for a pre-rendered picture that the demuxer does not
// present as a stream. It returns nil when there is none. Probes may move
// the read position; the caller restores it.
type PictureProbe interface {
	ProbePicture(src ByteSource) (*BlobSource, error)
}

// PictureProbeFunc adapts a function to PictureProbe.
type PictureProbeFunc func(src ByteSource) (*BlobSource, error)

func (f PictureProbeFunc) ProbePicture(src ByteSource) (*BlobSource, error) {
	return f(src)
}

// MP4CoverProbe finds the iTunes cover image (moov/udta/meta/ilst/covr)
// of an MP4 or QuickTime file.
type MP4CoverProbe struct {
	// MaxBoxes bounds the number of box headers read; 0 means 4096.
	MaxBoxes int
}

var coverPath = []string{"moov", "udta", "meta", "ilst", "covr", "data"}

// ilst data box type indicators for images
const (
	dataTypeJPEG = 13
	dataTypePNG  = 14
	dataTypeBMP  = 27
)

func (p MP4CoverProbe) ProbePicture(src ByteSource) (*BlobSource, error) {
	end, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	w := &boxWalker{src: src, budget: p.MaxBoxes}
	if w.budget <= 0 {
		w.budget = 4096
	}

	start, stop := int64(0), end
	for depth, name := range coverPath {
		off, size, hdr, err := w.find(start, stop, name)
		if err != nil || size == 0 {
			return nil, err
		}
		start, stop = off+int64(hdr), off+size
		if name == "meta" {
			// ISO meta is a full box; QuickTime meta is not.
			if skip, err := w.fullBoxVersion(start); err != nil {
				return nil, err
			} else if skip {
				start += 4
			}
		}
		if depth == len(coverPath)-1 {
			return w.coverBlob(start, stop)
		}
	}
	return nil, nil
}

type boxWalker struct {
	src    ByteSource
	budget int
}

var errTooManyBoxes = errors.New("ffsnap: mp4 box budget exhausted")

// find returns offset, size and header length of the first box called name
// in [start, stop). A zero size means not found.
func (w *boxWalker) find(start, stop int64, name string) (int64, int64, int, error) {
	for pos := start; pos+8 <= stop; {
		if w.budget--; w.budget < 0 {
			return 0, 0, 0, errTooManyBoxes
		}
		if _, err := w.src.Seek(pos, io.SeekStart); err != nil {
			return 0, 0, 0, err
		}
		h, err := mp4.DecodeHeader(w.src)
		if err != nil {
			// Truncated or not an MP4 file at all.
			return 0, 0, 0, nil
		}
		size := int64(h.Size)
		if size == 0 {
			size = stop - pos
		}
		if size < int64(h.Hdrlen) || pos+size > stop {
			return 0, 0, 0, nil
		}
		if h.Name == name {
			return pos, size, h.Hdrlen, nil
		}
		pos += size
	}
	return 0, 0, 0, nil
}

func (w *boxWalker) fullBoxVersion(pos int64) (bool, error) {
	if _, err := w.src.Seek(pos, io.SeekStart); err != nil {
		return false, err
	}
	var vf [4]byte
	if _, err := io.ReadFull(w.src, vf[:]); err != nil {
		return false, nil
	}
	return vf == [4]byte{}, nil
}

// coverBlob reads the data box payload header (type indicator and locale)
// and the picture dimensions.
func (w *boxWalker) coverBlob(start, stop int64) (*BlobSource, error) {
	if stop-start <= 8 {
		return nil, nil
	}
	if _, err := w.src.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	var hdr [8]byte
	if _, err := io.ReadFull(w.src, hdr[:]); err != nil {
		return nil, nil
	}
	switch typ := int(hdr[1])<<16 | int(hdr[2])<<8 | int(hdr[3]); typ {
	case dataTypeJPEG, dataTypePNG, dataTypeBMP, 0:
	default:
		return nil, fmt.Errorf("ffsnap: cover data type %d is not an image", typ)
	}

	blob := &BlobSource{Offset: start + 8, Size: stop - start - 8}
	cfg, _, err := image.DecodeConfig(io.NewSectionReader(readerAt{w.src}, blob.Offset, blob.Size))
	if err != nil {
		return nil, fmt.Errorf("ffsnap: cover picture: %w", err)
	}
	blob.Width, blob.Height = cfg.Width, cfg.Height
	return blob, nil
}

// readerAt serves ReadAt from a ByteSource. It moves the read position.
type readerAt struct {
	src ByteSource
}

func (r readerAt) ReadAt(p []byte, off int64) (int, error) {
	if _, err := r.src.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(r.src, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}
