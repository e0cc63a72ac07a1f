//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"errors"
	"fmt"
	"io"

	"github.com/obinnaokechukwu/ffsnap/internal/metrics"
)

// streamContext owns the decoder of the selected video stream together
// with its failure accounting and conversion chain.
type streamContext struct {
	container   Container
	index       int
	hwDevices   []string
	maxFailures int

	dec      FrameDecoder
	failures int  // consecutive dropped packets
	software bool // hardware decode abandoned for good
	produced bool // a frame was decoded since the decoder was opened
	atStart  bool // nothing read since open or since seeking to 0
	lastSeek float64

	chain *filterChain
}

func newStreamContext(c Container, index int, cfg *Config, b Backend) *streamContext {
	return &streamContext{
		container:   c,
		index:       index,
		hwDevices:   cfg.hwDevices(),
		maxFailures: cfg.MaxDecodeFailures,
		chain:       newFilterChain(b.NewConverter, cfg.MaxOutputPixels),
	}
}

func (s *streamContext) open() error {
	if s.dec != nil {
		return nil
	}

	devices := s.hwDevices
	if s.software {
		devices = nil
	}
	dec, err := s.container.OpenDecoder(s.index, devices)
	if err != nil && len(devices) > 0 {
		logger().Debug("hardware decoder unavailable, falling back to software",
			"stream", s.index, "devices", devices, "error", err)
		metrics.HWAccelFallbacksTotal.WithLabelValues("init").Inc()
		s.software = true
		dec, err = s.container.OpenDecoder(s.index, nil)
	}
	if err != nil {
		return fmt.Errorf("%w: opening decoder for stream %d: %w", ErrDecode, s.index, err)
	}

	s.dec = dec
	s.failures = 0
	s.produced = false
	s.atStart = true
	return nil
}

// seek positions the decoder on the keyframe at or before t.
func (s *streamContext) seek(t float64) error {
	if err := s.open(); err != nil {
		return err
	}
	s.lastSeek = t
	s.failures = 0
	if t == 0 && s.atStart {
		return nil
	}
	if err := s.dec.SeekTo(t); err != nil {
		return fmt.Errorf("%w: stream %d to %.3fs: %w", ErrSeek, s.index, t, err)
	}
	s.atStart = t == 0
	return nil
}

// decodeNext returns the next frame, absorbing up to maxFailures
// consecutive corrupt packets.
func (s *streamContext) decodeNext() (Frame, error) {
	if err := s.open(); err != nil {
		return nil, err
	}
	s.atStart = false

	for {
		f, err := s.dec.Next()
		if err == nil {
			s.failures = 0
			s.produced = true
			return f, nil
		}
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}

		if s.dec.Hardware() && !s.produced {
			if ferr := s.fallback(err); ferr != nil {
				return nil, ferr
			}
			continue
		}
		if !errors.Is(err, ErrCorruptPacket) {
			return nil, fmt.Errorf("%w: stream %d: %w", ErrDecode, s.index, err)
		}

		s.failures++
		metrics.DecodeFailuresTotal.Inc()
		if s.failures > s.maxFailures {
			return nil, fmt.Errorf("%w: stream %d: %d consecutive packets rejected: %w",
				ErrDecode, s.index, s.failures, err)
		}
		logger().Debug("skipping corrupt packet", "stream", s.index, "failures", s.failures, "error", err)
	}
}

// fallback reopens the stream as software decode after the hardware
// decoder failed before producing anything, and restores the position.
func (s *streamContext) fallback(cause error) error {
	logger().Debug("hardware decode failed, falling back to software",
		"stream", s.index, "error", cause)
	metrics.HWAccelFallbacksTotal.WithLabelValues("decode").Inc()

	_ = s.dec.Close()
	s.dec = nil
	s.software = true
	if err := s.open(); err != nil {
		return err
	}
	s.atStart = false
	return s.seek(s.lastSeek)
}

func (s *streamContext) close() error {
	s.chain.close()
	if s.dec == nil {
		return nil
	}
	err := s.dec.Close()
	s.dec = nil
	return err
}
