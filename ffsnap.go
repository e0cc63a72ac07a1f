//go:build !ios && !android && (amd64 || arm64)

// Package ffsnap extracts representative still images from audio and video
// files: embedded cover art and time-indexed snapshots, for display by a
// file-browser preview host.
//
// FFmpeg is loaded at runtime with purego; no cgo is involved. Call Init
// (or InitWithConfig) once, then Open a MediaSource and ask it for a
// Snapshot, CoverArt or EncodedImage:
//
//	src, err := ffsnap.Open(ffsnap.FileSource(path))
//	if err != nil {
//		return err
//	}
//	defer src.Close()
//	img, err := src.Snapshot(image.Pt(320, 180), 60)
//
// A MediaSource is not safe for concurrent use. Distinct MediaSources are
// independent and may be used from different goroutines.
package ffsnap

import (
	"sync"

	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the FFmpeg libraries using DefaultConfig. It is safe to call
// multiple times; only the first call of Init or InitWithConfig has effect.
func Init() error {
	return InitWithConfig(DefaultConfig())
}

// InitWithConfig loads the FFmpeg libraries, searching cfg.LibraryPath
// before the platform defaults, and sets FFmpeg's log level.
func InitWithConfig(cfg Config) error {
	initOnce.Do(func() {
		bindings.SetSearchPaths(cfg.LibraryPath...)
		if initErr = bindings.Load(); initErr != nil {
			logger().Error("ffmpeg libraries not loaded", "error", initErr)
			return
		}

		level, err := avutil.ParseLogLevel(cfg.FFmpegLogLevel)
		if err != nil {
			logger().Warn("ignoring ffmpeg log level", "error", err)
		}
		avutil.SetLogLevel(level)

		avu, avc, avf := Version()
		logger().Debug("ffmpeg loaded", "avutil", avu, "avcodec", avc, "avformat", avf,
			"swscale", bindings.Has(bindings.SWScale))
	})
	return initErr
}

// IsLoaded returns true if the FFmpeg libraries have been loaded.
func IsLoaded() bool {
	return bindings.IsLoaded()
}

// Version returns the loaded library versions as "major.minor.micro".
func Version() (avutil, avcodec, avformat string) {
	return bindings.FormatVersion(bindings.Version(bindings.AVUtil)),
		bindings.FormatVersion(bindings.Version(bindings.AVCodec)),
		bindings.FormatVersion(bindings.Version(bindings.AVFormat))
}
