//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"fmt"
	"image"
	"os"

	"github.com/obinnaokechukwu/ffsnap/internal/platform"
	"gopkg.in/yaml.v3"
)

// HWAccel values with special meaning. Any other value names an FFmpeg
// hardware device type such as "vaapi" or "videotoolbox".
const (
	HWAccelAuto = "auto"
	HWAccelNone = "none"
)

// Config holds the engine settings.
type Config struct {
	// Decoding
	HWAccel           string `yaml:"hwaccel"`
	MaxDecodeFailures int    `yaml:"max_decode_failures"`
	MaxFrameSkip      int    `yaml:"max_frame_skip"`
	ProbeSize         int64  `yaml:"probe_size"`

	// Output
	PreviewMax      Size    `yaml:"preview_max"`
	SnapshotTime    float64 `yaml:"snapshot_time"`
	SnapshotCount   int     `yaml:"snapshot_count"`
	AspectTolerance float64 `yaml:"aspect_tolerance"`
	MaxOutputPixels int64   `yaml:"max_output_pixels"` // enlargement limit; 0 disables

	// FFmpeg
	FFmpegLogLevel string   `yaml:"ffmpeg_log_level"`
	LibraryPath    []string `yaml:"library_path"`
}

// Size is a width and height in pixels.
type Size struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Point converts s to an image.Point.
func (s Size) Point() image.Point {
	return image.Pt(s.Width, s.Height)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		HWAccel:           HWAccelAuto,
		MaxDecodeFailures: 16,
		MaxFrameSkip:      1000,
		ProbeSize:         5 << 20,

		PreviewMax:      Size{Width: 640, Height: 480},
		SnapshotTime:    60,
		SnapshotCount:   10,
		AspectTolerance: 0.02,
		MaxOutputPixels: 7680 * 4320,

		FFmpegLogLevel: "quiet",
	}
}

// LoadConfig loads configuration from a YAML file. Fields the file does
// not set keep their defaults; FFSNAP_LIBRARY_PATH is appended to
// LibraryPath by the library loader.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("ffsnap: parsing %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate reports settings the engine cannot work with.
func (c Config) Validate() error {
	switch {
	case c.MaxDecodeFailures < 0:
		return fmt.Errorf("ffsnap: max_decode_failures must not be negative")
	case c.MaxFrameSkip < 0:
		return fmt.Errorf("ffsnap: max_frame_skip must not be negative")
	case c.ProbeSize < 0:
		return fmt.Errorf("ffsnap: probe_size must not be negative")
	case c.PreviewMax.Width < 0 || c.PreviewMax.Height < 0:
		return fmt.Errorf("ffsnap: preview_max must not be negative")
	case c.AspectTolerance < 0:
		return fmt.Errorf("ffsnap: aspect_tolerance must not be negative")
	case c.MaxOutputPixels < 0:
		return fmt.Errorf("ffsnap: max_output_pixels must not be negative")
	case c.SnapshotCount < 0:
		return fmt.Errorf("ffsnap: snapshot_count must not be negative")
	}
	return nil
}

// hwDevices lists the device types to try, in order.
func (c Config) hwDevices() []string {
	switch c.HWAccel {
	case "", HWAccelNone:
		return nil
	case HWAccelAuto:
		return platform.PreferredHWDevices()
	}
	return []string{c.HWAccel}
}
