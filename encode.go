//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// encode PNG-encodes img with the source's encoder, created on first use.
// When the backend has no encoder the pure Go one is used instead.
func (m *MediaSource) encode(op string, img image.Image) ([]byte, error) {
	if err := m.checkOpen(op); err != nil {
		return nil, err
	}
	if m.encoder == nil {
		enc, err := m.opts.Backend.NewEncoder()
		if err != nil {
			logger().Debug("backend PNG encoder unavailable, using imaging", "error", err)
			enc = imagingEncoder{}
		}
		m.encoder = enc
	}

	data, err := m.encoder.Encode(img)
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("%w: %w", ErrEncode, err), ErrEncode)
	}
	return data, nil
}

// imagingEncoder encodes PNG in pure Go.
type imagingEncoder struct{}

func (imagingEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (imagingEncoder) Close() error { return nil }
