//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ByteSource is the seekable byte stream a MediaSource reads from. Reads
// return io.EOF at the end of the data.
type ByteSource interface {
	io.Reader
	io.Seeker
}

// FileSource returns a ByteSource that opens path on first use. A
// MediaSource opened from it closes the file on Close.
func FileSource(path string) ByteSource {
	return &fileSource{path: path}
}

// BytesSource returns a ByteSource over an in-memory copy of a file.
func BytesSource(b []byte) ByteSource {
	return bytes.NewReader(b)
}

// SectionSource returns a ByteSource over n bytes of r starting at off,
// for media embedded in a larger file.
func SectionSource(r io.ReaderAt, off, n int64) ByteSource {
	return io.NewSectionReader(r, off, n)
}

type fileSource struct {
	path string
	f    *os.File
	err  error
}

func (s *fileSource) open() error {
	if s.f == nil && s.err == nil {
		s.f, s.err = os.Open(s.path)
	}
	return s.err
}

func (s *fileSource) Read(p []byte) (int, error) {
	if err := s.open(); err != nil {
		return 0, err
	}
	return s.f.Read(p)
}

func (s *fileSource) Seek(offset int64, whence int) (int64, error) {
	if err := s.open(); err != nil {
		return 0, err
	}
	return s.f.Seek(offset, whence)
}

func (s *fileSource) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	s.err = os.ErrClosed
	return err
}

func (s *fileSource) String() string {
	return s.path
}

// readRegion reads size bytes at off and puts the read position back where
// it was, so the demuxer sharing src does not notice.
func readRegion(src ByteSource, off, size int64) (data []byte, err error) {
	if off < 0 || size <= 0 {
		return nil, fmt.Errorf("ffsnap: invalid region %d+%d", off, size)
	}
	pos, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, serr := src.Seek(pos, io.SeekStart); serr != nil && err == nil {
			err = serr
		}
	}()

	if _, err := src.Seek(off, io.SeekStart); err != nil {
		return nil, err
	}
	data = make([]byte, size)
	if _, err := io.ReadFull(src, data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("ffsnap: region %d+%d past end of data: %w", off, size, err)
		}
		return nil, err
	}
	return data, nil
}
