//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"errors"
	"fmt"
	"syscall"
)

// Common FFmpeg error codes (AVERROR values)
const (
	AVERROR_EOF               int32 = -541478725
	AVERROR_EAGAIN            int32 = -int32(syscall.EAGAIN)
	AVERROR_EINVAL            int32 = -int32(syscall.EINVAL)
	AVERROR_EIO               int32 = -int32(syscall.EIO)
	AVERROR_ENOMEM            int32 = -int32(syscall.ENOMEM)
	AVERROR_ENOSYS            int32 = -int32(syscall.ENOSYS)
	AVERROR_DECODER_NOT_FOUND int32 = -1128613112
	AVERROR_ENCODER_NOT_FOUND int32 = -1129203192
	AVERROR_DEMUXER_NOT_FOUND int32 = -1296385272
	AVERROR_STREAM_NOT_FOUND  int32 = -1381258232
	AVERROR_INVALIDDATA       int32 = -1094995529
	AVERROR_PATCHWELCOME      int32 = -1163346256
	AVERROR_BUG               int32 = -558323010
)

// Error represents an FFmpeg error.
type Error struct {
	Code    int32  // Raw FFmpeg error code
	Message string // Human-readable message
	Op      string // Operation that failed
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ffmpeg %s: %s (code %d)", e.Op, e.Message, e.Code)
}

// NewError creates a new FFmpeg error from an error code.
// Non-negative codes are success and yield nil.
func NewError(code int32, op string) error {
	if code >= 0 {
		return nil
	}
	return &Error{
		Code:    code,
		Message: ErrorString(code),
		Op:      op,
	}
}

// IsEOF returns true if the error indicates end of file.
func IsEOF(err error) bool {
	return Code(err) == AVERROR_EOF
}

// IsAgain returns true if the error indicates to try again (EAGAIN).
// This is common during decoding when more data is needed.
func IsAgain(err error) bool {
	return Code(err) == AVERROR_EAGAIN
}

// IsInvalidData returns true if the error indicates invalid data.
func IsInvalidData(err error) bool {
	return Code(err) == AVERROR_INVALIDDATA
}

// Code returns the FFmpeg error code from an error, or 0 if not an FFmpeg error.
func Code(err error) int32 {
	var ffErr *Error
	if errors.As(err, &ffErr) {
		return ffErr.Code
	}
	return 0
}
