//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"errors"
	"fmt"

	"github.com/obinnaokechukwu/ffsnap/avutil"
)

// FFmpegError is an error returned by an FFmpeg call.
// It contains the raw FFmpeg error code and a human-readable message.
type FFmpegError = avutil.Error

// Error kinds. Every error returned by a MediaSource operation matches
// exactly one of them with errors.Is.
var (
	// ErrOpen indicates no demuxer recognised the data or its stream table
	// could not be parsed.
	ErrOpen = errors.New("ffsnap: cannot open media")

	// ErrStreamSelection indicates the source has no usable audio, video
	// or picture content.
	ErrStreamSelection = errors.New("ffsnap: no usable stream")

	// ErrSeek indicates the demuxer could not seek to the requested time.
	ErrSeek = errors.New("ffsnap: seek failed")

	// ErrDecode indicates the decoder failed or rejected too many
	// consecutive packets.
	ErrDecode = errors.New("ffsnap: decode failed")

	// ErrTimeout indicates the target time was not reached within the
	// configured number of discarded frames.
	ErrTimeout = errors.New("ffsnap: target frame not reached")

	// ErrFilterGraph indicates the conversion chain could not be built.
	ErrFilterGraph = errors.New("ffsnap: cannot build conversion chain")

	// ErrEncode indicates PNG encoding failed.
	ErrEncode = errors.New("ffsnap: image encoding failed")

	// ErrClosed indicates the MediaSource has been closed.
	ErrClosed = errors.New("ffsnap: media source is closed")

	// ErrInternal indicates a recovered panic.
	ErrInternal = errors.New("ffsnap: internal error")
)

// ErrCorruptPacket is returned by a FrameDecoder when it dropped a packet
// it could not decode. The stream context counts these and escalates to
// ErrDecode; it never reaches callers of MediaSource.
var ErrCorruptPacket = errors.New("ffsnap: corrupt packet")

var errorKinds = []error{
	ErrClosed, ErrInternal, ErrOpen, ErrStreamSelection, ErrSeek,
	ErrTimeout, ErrFilterGraph, ErrEncode, ErrDecode,
}

// Error describes a failed MediaSource operation.
type Error struct {
	Op   string // "open", "snapshot", "cover_art", ...
	Kind error  // one of the Err* kinds
	Err  error  // underlying cause, often a *FFmpegError; may be nil
}

func (e *Error) Error() string {
	if e.Err == nil || e.Err == e.Kind {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// wrapError classifies err for the public operation op. Errors that do not
// carry a kind are reported as fallback.
func wrapError(op string, err, fallback error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	kind := fallback
	for _, k := range errorKinds {
		if errors.Is(err, k) {
			kind = k
			break
		}
	}
	if err == kind {
		err = nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}
