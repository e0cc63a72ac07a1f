//go:build !ios && !android && (amd64 || arm64)

package avformat

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/obinnaokechukwu/ffsnap/avcodec"
	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

var ffmpegAvailable bool

func TestMain(m *testing.M) {
	if err := bindings.Load(); err == nil {
		ffmpegAvailable = true
	}
	os.Exit(m.Run())
}

// createTestVideo writes a 2 s clip with a titled container using the ffmpeg CLI.
func createTestVideo(t *testing.T) string {
	t.Helper()
	if !ffmpegAvailable {
		t.Skip("FFmpeg not available")
	}

	testFile := filepath.Join(t.TempDir(), "test.mp4")
	cmd := exec.Command("ffmpeg", "-y",
		"-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=25",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=2",
		"-c:v", "mpeg4", "-c:a", "aac", "-ac", "2",
		"-metadata", "title=Test Pattern",
		testFile)
	if err := cmd.Run(); err != nil {
		t.Skipf("ffmpeg not available or failed: %v", err)
	}
	return testFile
}

func openTestVideo(t *testing.T) FormatContext {
	t.Helper()
	path := createTestVideo(t)

	var ctx FormatContext
	if err := OpenInput(&ctx, path, nil); err != nil {
		t.Fatalf("OpenInput: %v", err)
	}
	t.Cleanup(func() { CloseInput(&ctx) })
	if err := FindStreamInfo(ctx); err != nil {
		t.Fatalf("FindStreamInfo: %v", err)
	}
	return ctx
}

func TestOpenInputStreams(t *testing.T) {
	ctx := openTestVideo(t)

	if n := GetNumStreams(ctx); n != 2 {
		t.Fatalf("GetNumStreams = %d, want 2", n)
	}
	if GetStream(ctx, 2) != nil || GetStream(ctx, -1) != nil {
		t.Error("out of range GetStream should be nil")
	}

	var sawVideo, sawAudio bool
	for i := 0; i < GetNumStreams(ctx); i++ {
		s := GetStream(ctx, i)
		if int(GetStreamIndex(s)) != i {
			t.Errorf("stream %d reports index %d", i, GetStreamIndex(s))
		}
		if !GetStreamTimeBase(s).Valid() {
			t.Errorf("stream %d has invalid time base", i)
		}
		par := GetStreamCodecPar(s)
		switch avcodec.GetParMediaType(par) {
		case avutil.MediaTypeVideo:
			sawVideo = true
			if avcodec.GetParWidth(par) != 320 || avcodec.GetParHeight(par) != 240 {
				t.Errorf("video size %dx%d", avcodec.GetParWidth(par), avcodec.GetParHeight(par))
			}
			if GetStreamDisposition(s)&DispositionAttachedPic != 0 {
				t.Error("video stream marked as attached picture")
			}
		case avutil.MediaTypeAudio:
			sawAudio = true
			if ch := avcodec.GetParChannels(par); ch != 2 {
				t.Errorf("channels = %d, want 2", ch)
			}
		}
	}
	if !sawVideo || !sawAudio {
		t.Errorf("video=%v audio=%v", sawVideo, sawAudio)
	}
}

func TestContainerFields(t *testing.T) {
	ctx := openTestVideo(t)

	secs := float64(GetDuration(ctx)) / TimeBase
	if secs < 1.9 || secs > 2.2 {
		t.Errorf("duration = %.3fs, want ~2s", secs)
	}
	if got := GetMetadata(ctx, "title"); got != "Test Pattern" {
		t.Errorf("title = %q", got)
	}
}

func TestReadAndSeek(t *testing.T) {
	ctx := openTestVideo(t)

	pkt := avcodec.PacketAlloc()
	defer avcodec.PacketFree(&pkt)

	if err := ReadFrame(ctx, pkt); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if avcodec.GetPacketSize(pkt) <= 0 {
		t.Error("empty first packet")
	}
	avcodec.PacketUnref(pkt)

	if err := SeekFrame(ctx, -1, TimeBase, SeekFlagBackward); err != nil {
		t.Fatalf("SeekFrame: %v", err)
	}
	for {
		err := ReadFrame(ctx, pkt)
		avcodec.PacketUnref(pkt)
		if avutil.IsEOF(err) {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame after seek: %v", err)
		}
	}
}

func TestSelectLayout(t *testing.T) {
	defer selectLayout(bindings.Major(bindings.Version(bindings.AVFormat)))

	selectLayout(61)
	if ctxOffsets != layout61 || streamOffsets != streamLayout60 {
		t.Error("avformat 61 layout not selected")
	}
	selectLayout(59)
	if streamOffsets != streamLayout59 {
		t.Error("avformat 59 stream layout not selected")
	}
}

func TestNilAccessors(t *testing.T) {
	if GetNumStreams(nil) != 0 || GetStream(nil, 0) != nil {
		t.Error("nil context should have no streams")
	}
	if GetMetadata(nil, "title") != "" || GetStreamAttachedPic(nil) != nil {
		t.Error("nil accessors should be empty")
	}
}
