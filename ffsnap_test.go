//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var ffmpegAvailable bool

func TestMain(m *testing.M) {
	cfg := DefaultConfig()
	cfg.HWAccel = HWAccelNone
	ffmpegAvailable = InitWithConfig(cfg) == nil
	os.Exit(m.Run())
}

// ffmpegCLI runs the ffmpeg command line tool to build a fixture, skipping
// the test when libraries or the tool are missing.
func ffmpegCLI(t *testing.T, name string, args ...string) string {
	t.Helper()
	if !ffmpegAvailable {
		t.Skip("FFmpeg not available")
	}
	out := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("ffmpeg", append(append([]string{"-y", "-loglevel", "error"}, args...), out)...)
	if err := cmd.Run(); err != nil {
		t.Skipf("ffmpeg not available or failed: %v", err)
	}
	return out
}

// createTestVideo writes a 2 s 320x240 clip with stereo audio and a title.
func createTestVideo(t *testing.T) string {
	return ffmpegCLI(t, "test.mp4",
		"-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=25",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=2",
		"-c:v", "mpeg4", "-c:a", "aac", "-ac", "2",
		"-metadata", "title=Test Pattern")
}

// createTestAlbumTrack writes a short AAC track with a 300x200 PNG cover.
func createTestAlbumTrack(t *testing.T) string {
	return ffmpegCLI(t, "track.m4a",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=1",
		"-f", "lavfi", "-i", "color=c=red:size=300x200:duration=1",
		"-map", "0:a", "-map", "1:v", "-frames:v", "1",
		"-c:a", "aac", "-c:v", "png", "-disposition:v", "attached_pic")
}

func openTest(t *testing.T, path string) *MediaSource {
	t.Helper()
	cfg := DefaultConfig()
	cfg.HWAccel = HWAccelNone
	m, err := OpenFile(path, WithConfig(cfg))
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func uniform(img image.Image) bool {
	r := img.Bounds()
	first := pixelAt(img, r.Min.X, r.Min.Y)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if pixelAt(img, x, y) != first {
				return false
			}
		}
	}
	return true
}

func TestInit(t *testing.T) {
	if !ffmpegAvailable {
		t.Skip("FFmpeg not available")
	}
	if !IsLoaded() {
		t.Error("IsLoaded returned false after Init")
	}
	avu, avc, avf := Version()
	if avu == "" || avc == "" || avf == "" {
		t.Errorf("Version() = %q %q %q", avu, avc, avf)
	}
	t.Logf("Versions: avutil=%s avcodec=%s avformat=%s", avu, avc, avf)
}

func TestFFmpegOpen(t *testing.T) {
	m := openTest(t, createTestVideo(t))

	if m.Duration() != 2 {
		t.Errorf("Duration() = %d, want 2", m.Duration())
	}
	if m.ChannelCount() != 2 {
		t.Errorf("ChannelCount() = %d, want 2", m.ChannelCount())
	}
	if m.Title() != "Test Pattern" {
		t.Errorf("Title() = %q", m.Title())
	}
	if m.VideoCodecName() != "mpeg4" {
		t.Errorf("VideoCodecName() = %q", m.VideoCodecName())
	}
	if m.DisplaySize() != image.Pt(320, 240) {
		t.Errorf("DisplaySize() = %v", m.DisplaySize())
	}
}

func TestFFmpegSnapshot(t *testing.T) {
	m := openTest(t, createTestVideo(t))

	img, err := m.Snapshot(image.Pt(160, 160), 1)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if img.Bounds().Size() != image.Pt(160, 120) {
		t.Fatalf("size = %v, want 160x120", img.Bounds().Size())
	}
	again, err := m.Snapshot(image.Pt(160, 160), 1)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !bytes.Equal(img.(*image.NRGBA).Pix, again.(*image.NRGBA).Pix) {
		t.Error("repeated snapshot differs")
	}

	// testsrc is colourful; a uniform image means conversion went wrong.
	if uniform(img) {
		t.Error("snapshot is a single colour")
	}

	for _, at := range []float64{-1, 0, 1.96, 30} {
		if _, err := m.Snapshot(image.Pt(64, 64), at); err != nil {
			t.Errorf("Snapshot(%v) failed: %v", at, err)
		}
	}

	gray, err := m.SnapshotAs(image.Point{}, 0.5, FormatGray)
	if err != nil {
		t.Fatalf("SnapshotAs failed: %v", err)
	}
	if _, ok := gray.(*image.Gray); !ok || gray.Bounds().Size() != image.Pt(320, 240) {
		t.Errorf("gray snapshot %T %v", gray, gray.Bounds())
	}
}

func TestFFmpegEncodedImage(t *testing.T) {
	m := openTest(t, createTestVideo(t))

	data, err := m.EncodedImage(image.Pt(100, 0), 1)
	if err != nil {
		t.Fatalf("EncodedImage failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	if img.Bounds().Size() != image.Pt(100, 75) {
		t.Errorf("size = %v, want 100x75", img.Bounds().Size())
	}
}

func TestFFmpegCustomIO(t *testing.T) {
	data, err := os.ReadFile(createTestVideo(t))
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.HWAccel = HWAccelNone
	m, err := Open(BytesSource(data), WithConfig(cfg))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer m.Close()

	if _, err := m.Snapshot(image.Pt(64, 48), 1); err != nil {
		t.Errorf("Snapshot failed: %v", err)
	}
}

func TestFFmpegCoverArt(t *testing.T) {
	m := openTest(t, createTestAlbumTrack(t))

	if !m.HasCoverArt() {
		t.Fatal("HasCoverArt() = false")
	}
	if _, ok := m.Visual().(NoVisual); !ok {
		t.Errorf("Visual() = %v; cover streams are not video", m.Visual())
	}
	img, err := m.CoverArt(CoverArtDefault)
	if err != nil {
		t.Fatalf("CoverArt failed: %v", err)
	}
	if img.Bounds().Size() != image.Pt(300, 200) {
		t.Errorf("cover size = %v, want 300x200", img.Bounds().Size())
	}
	if r, _, _, _ := img.At(150, 100).RGBA(); r < 0xf000 {
		t.Errorf("cover is not red: %v", img.At(150, 100))
	}

	thumb, err := m.Thumbnail(image.Pt(64, 64))
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if thumb.Bounds().Size() != image.Pt(64, 64) {
		t.Errorf("thumbnail size = %v", thumb.Bounds().Size())
	}
}

func TestFFmpegOpenGarbage(t *testing.T) {
	if !ffmpegAvailable {
		t.Skip("FFmpeg not available")
	}
	path := filepath.Join(t.TempDir(), "garbage.bin")
	os.WriteFile(path, bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 1024), 0o644)

	if _, err := OpenFile(path); !errors.Is(err, ErrOpen) {
		t.Errorf("got %v, want ErrOpen", err)
	}
	if _, err := OpenFile(filepath.Join(t.TempDir(), "missing.mp4")); !errors.Is(err, ErrOpen) {
		t.Errorf("missing file: got %v, want ErrOpen", err)
	}
}
