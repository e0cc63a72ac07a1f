//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"testing"
)

func TestLibraryString(t *testing.T) {
	if got := AVFormat.String(); got != "libavformat" {
		t.Errorf("AVFormat.String() = %q", got)
	}
	if got := Library(42).String(); got != "Library(42)" {
		t.Errorf("out of range String() = %q", got)
	}
}

func TestFormatVersion(t *testing.T) {
	v := uint32(60<<16 | 31<<8 | 102)
	if got := FormatVersion(v); got != "60.31.102" {
		t.Errorf("FormatVersion = %q", got)
	}
	if Major(v) != 60 {
		t.Errorf("Major = %d", Major(v))
	}
}

func TestHandleOutOfRange(t *testing.T) {
	if Handle(Library(-1)) != 0 || Handle(numLibraries) != 0 {
		t.Error("out of range libraries should have no handle")
	}
}

// Integration test - only runs if FFmpeg is available
func TestLoadFFmpeg(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping FFmpeg load in short mode")
	}

	ran := false
	OnLoad(func() { ran = true })

	if err := Load(); err != nil {
		t.Skipf("FFmpeg not available: %v", err)
	}
	if !IsLoaded() {
		t.Error("IsLoaded should be true after successful Load")
	}
	if !ran {
		t.Error("OnLoad registrations did not run")
	}

	ver := Version(AVUtil)
	if ver == 0 {
		t.Error("Version(AVUtil) should be non-zero after Load")
	}
	t.Logf("FFmpeg loaded: avutil %s", FormatVersion(ver))

	// Second call must return the same result without reloading.
	if err := Load(); err != nil {
		t.Errorf("second Load: %v", err)
	}
}
