//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/ideamans/go-l10n"
)

// movie is a two minute 1280x720 clip with stereo audio.
func movie() *fakeBackend {
	return &fakeBackend{
		streams:  []*fakeStream{videoStream(0, 1280, 720, 120), audioStream(1, 2)},
		duration: 120,
		title:    "Clip",
	}
}

func wantFrame(t *testing.T, img image.Image, index int) {
	t.Helper()
	if img == nil {
		t.Fatal("nil image")
	}
	if got, want := pixelAt(img, 0, 0), frameColor(index); got != want {
		t.Errorf("pixel = %v, want frame %d (%v)", got, index, want)
	}
}

func TestOpenSelectsStreams(t *testing.T) {
	m := openFake(t, movie())

	if m.Duration() != 120 {
		t.Errorf("Duration() = %d, want 120", m.Duration())
	}
	if v, ok := m.Visual().(StreamSource); !ok || v.Index != 0 {
		t.Errorf("Visual() = %v, want stream #0", m.Visual())
	}
	if m.AudioStream() != 1 || m.ChannelCount() != 2 {
		t.Errorf("audio = %d with %d channels", m.AudioStream(), m.ChannelCount())
	}
	if m.IsPictureMode() || m.HasCoverArt() {
		t.Error("plain movie reported picture mode or cover art")
	}
	if m.VideoCodecName() != "h264" || m.Title() != "Clip" {
		t.Errorf("codec %q title %q", m.VideoCodecName(), m.Title())
	}
}

func TestSnapshotAtTime(t *testing.T) {
	m := openFake(t, movie())

	img, err := m.Snapshot(image.Pt(320, 180), 60)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if img.Bounds().Size() != image.Pt(320, 180) {
		t.Errorf("size = %v, want 320x180", img.Bounds().Size())
	}
	wantFrame(t, img, 1500)

	// 61.5s lies between frames 1537 (61.48s) and 1538 (61.52s).
	img, err = m.Snapshot(image.Pt(320, 180), 61.5)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	wantFrame(t, img, 1538)
}

func TestSnapshotClampsTime(t *testing.T) {
	m := openFake(t, movie())
	box := image.Pt(64, 36)

	start, err := m.Snapshot(box, 0)
	if err != nil {
		t.Fatalf("Snapshot(0) failed: %v", err)
	}
	before, err := m.Snapshot(box, -5)
	if err != nil {
		t.Fatalf("Snapshot(-5) failed: %v", err)
	}
	if !sameImage(start, before) {
		t.Error("negative time did not clamp to the start")
	}

	end, err := m.Snapshot(box, 119.99)
	if err != nil {
		t.Fatalf("Snapshot(119.99) failed: %v", err)
	}
	after, err := m.Snapshot(box, 500)
	if err != nil {
		t.Fatalf("Snapshot(500) failed: %v", err)
	}
	if !sameImage(end, after) {
		t.Error("time past the end did not clamp to the last frame")
	}
	wantFrame(t, after, 2999)
}

func TestSnapshotSizes(t *testing.T) {
	b := movie()
	b.streams[0].info.Width, b.streams[0].info.Height = 720, 480
	b.streams[0].info.SampleAspect = 32.0 / 27.0
	m := openFake(t, b)

	tests := []struct {
		box, want image.Point
	}{
		{image.Point{}, image.Pt(853, 480)},
		{image.Pt(427, 240), image.Pt(427, 240)},
		{image.Pt(1000, 100), image.Pt(178, 100)},
		{image.Pt(200, 0), image.Pt(200, 113)},
		{image.Pt(1706, 960), image.Pt(1706, 960)},
	}
	for _, tt := range tests {
		img, err := m.Snapshot(tt.box, 1)
		if err != nil {
			t.Fatalf("Snapshot(%v) failed: %v", tt.box, err)
		}
		if got := img.Bounds().Size(); got != tt.want {
			t.Errorf("Snapshot(%v) size = %v, want %v", tt.box, got, tt.want)
		}
	}

	if _, err := m.Snapshot(image.Pt(-1, 10), 1); !errors.Is(err, ErrFilterGraph) {
		t.Errorf("negative box: got %v, want ErrFilterGraph", err)
	}
}

func TestSnapshotGray(t *testing.T) {
	m := openFake(t, movie())

	img, err := m.SnapshotAs(image.Pt(32, 18), 2, FormatGray)
	if err != nil {
		t.Fatalf("SnapshotAs failed: %v", err)
	}
	g, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("got %T, want *image.Gray", img)
	}
	if g.Pix[0] != frameColor(50).R {
		t.Errorf("gray = %d, want %d", g.Pix[0], frameColor(50).R)
	}
	if _, err := m.SnapshotAs(image.Pt(32, 18), 2, PixelFormat(9)); !errors.Is(err, ErrFilterGraph) {
		t.Errorf("unknown format: got %v, want ErrFilterGraph", err)
	}
}

func TestFilterChainReuse(t *testing.T) {
	b := movie()
	m := openFake(t, b)
	box := image.Pt(160, 90)

	first, err := m.Snapshot(box, 30)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	second, err := m.Snapshot(box, 30)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !bytes.Equal(first.(*image.NRGBA).Pix, second.(*image.NRGBA).Pix) {
		t.Error("repeated snapshot differs")
	}
	if _, err := m.Snapshot(box, 90); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if b.converters != 1 {
		t.Errorf("converters built = %d, want 1", b.converters)
	}

	if _, err := m.Snapshot(image.Pt(80, 45), 90); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if _, err := m.SnapshotAs(image.Pt(80, 45), 90, FormatGray); err != nil {
		t.Fatalf("SnapshotAs failed: %v", err)
	}
	if b.converters != 3 {
		t.Errorf("converters built = %d, want 3", b.converters)
	}
}

func TestPictureMode(t *testing.T) {
	pic := encodePNG(t, 800, 600, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	data := append(append([]byte("JUNKJUNK"), pic...), "TAIL"...)
	src := bytes.NewReader(data)
	src.Seek(3, io.SeekStart)

	probe := PictureProbeFunc(func(s ByteSource) (*BlobSource, error) {
		s.Seek(0, io.SeekEnd)
		return &BlobSource{Offset: 8, Size: int64(len(pic)), Width: 800, Height: 600}, nil
	})
	m, err := Open(src, WithBackend(&fakeBackend{}), WithConfig(testConfig()), WithPictureProbes(probe))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer m.Close()

	if pos, _ := src.Seek(0, io.SeekCurrent); pos != 3 {
		t.Errorf("probe moved the read position to %d", pos)
	}
	if !m.IsPictureMode() || !m.HasCoverArt() {
		t.Fatal("expected picture mode")
	}
	if m.DisplaySize() != image.Pt(800, 600) || m.PreviewSize() != image.Pt(640, 480) {
		t.Errorf("display %v preview %v", m.DisplaySize(), m.PreviewSize())
	}

	late, err := m.Snapshot(image.Pt(100, 100), 999)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	early, err := m.Snapshot(image.Pt(100, 100), 0)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if late.Bounds().Size() != image.Pt(100, 75) {
		t.Errorf("size = %v, want 100x75", late.Bounds().Size())
	}
	if !sameImage(late, early) {
		t.Error("picture mode snapshot depends on time")
	}

	cover, err := m.CoverArt(CoverArtDefault)
	if err != nil {
		t.Fatalf("CoverArt failed: %v", err)
	}
	if cover.Bounds().Size() != image.Pt(800, 600) {
		t.Errorf("cover size = %v", cover.Bounds().Size())
	}
	if got := pixelAt(cover, 400, 300); got != (color.NRGBA{R: 10, G: 200, B: 30, A: 255}) {
		t.Errorf("cover pixel = %v", got)
	}
}

func TestAudioOnly(t *testing.T) {
	m := openFake(t, &fakeBackend{streams: []*fakeStream{audioStream(0, 1)}, duration: 180})

	if m.Duration() != 180 || m.ChannelCount() != 1 {
		t.Errorf("duration %d channels %d", m.Duration(), m.ChannelCount())
	}
	if _, ok := m.Visual().(NoVisual); !ok {
		t.Errorf("Visual() = %v, want none", m.Visual())
	}
	img, err := m.Snapshot(image.Pt(100, 100), 10)
	if img != nil || err != nil {
		t.Errorf("Snapshot = %v, %v; want nil, nil", img, err)
	}
	img, err = m.CoverArt(CoverArtThumbnail)
	if img != nil || err != nil {
		t.Errorf("CoverArt = %v, %v; want nil, nil", img, err)
	}
	img, err = m.Thumbnail(image.Pt(100, 100))
	if img != nil || err != nil {
		t.Errorf("Thumbnail = %v, %v; want nil, nil", img, err)
	}
	data, err := m.EncodedImage(image.Pt(100, 100), 0)
	if data != nil || err != nil {
		t.Errorf("EncodedImage = %d bytes, %v; want nil, nil", len(data), err)
	}
	if m.DisplaySize() != (image.Point{}) || m.VideoCodecName() != "" {
		t.Errorf("display %v codec %q", m.DisplaySize(), m.VideoCodecName())
	}
}

func TestUndecodableVideo(t *testing.T) {
	v := videoStream(0, 1920, 1080, 10)
	v.info.Decodable = false
	v.info.Codec = "hevc"
	m := openFake(t, &fakeBackend{streams: []*fakeStream{v, audioStream(1, 6)}, duration: 10})

	if _, ok := m.Visual().(NoVisual); !ok {
		t.Errorf("Visual() = %v, want none", m.Visual())
	}
	if m.VideoCodecName() != "hevc" {
		t.Errorf("VideoCodecName() = %q, want hevc", m.VideoCodecName())
	}
}

func TestCoverArtModes(t *testing.T) {
	square := encodePNG(t, 500, 500, color.White)
	wide := encodePNG(t, 1600, 900, color.Black)
	attachment := coverStream(3, wide, 1600, 900)
	attachment.info.Kind = KindAttachment
	b := &fakeBackend{
		streams: []*fakeStream{
			audioStream(0, 2),
			coverStream(1, square, 500, 500),
			coverStream(2, []byte("not an image"), 10, 10),
			attachment,
		},
		duration: 200,
	}
	m := openFake(t, b)

	if !m.HasCoverArt() || m.IsPictureMode() {
		t.Fatal("expected cover art without picture mode")
	}
	tests := []struct {
		mode CoverArtMode
		want image.Point
	}{
		{CoverArtDefault, image.Pt(500, 500)},
		{CoverArtThumbnail, image.Pt(500, 500)},
		{CoverArtLandscape, image.Pt(1600, 900)},
	}
	for _, tt := range tests {
		img, err := m.CoverArt(tt.mode)
		if err != nil {
			t.Fatalf("CoverArt(%v) failed: %v", tt.mode, err)
		}
		if got := img.Bounds().Size(); got != tt.want {
			t.Errorf("CoverArt(%v) = %v, want %v", tt.mode, got, tt.want)
		}
	}

	thumb, err := m.Thumbnail(image.Pt(200, 200))
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if thumb.Bounds().Size() != image.Pt(200, 200) {
		t.Errorf("thumbnail size = %v", thumb.Bounds().Size())
	}

	data, err := m.CoverArtData(CoverArtLandscape)
	if err != nil {
		t.Fatalf("CoverArtData failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("cover data is not PNG: %v", err)
	}
	if cfg.Width != 1600 || cfg.Height != 900 {
		t.Errorf("encoded cover %dx%d", cfg.Width, cfg.Height)
	}
}

func TestCoverArtCrop(t *testing.T) {
	b := &fakeBackend{
		streams:  []*fakeStream{audioStream(0, 2), coverStream(1, encodePNG(t, 800, 600, color.White), 800, 600)},
		duration: 30,
	}
	m := openFake(t, b)

	tests := []struct {
		mode CoverArtMode
		want image.Point
	}{
		{CoverArtDefault, image.Pt(800, 600)},
		{CoverArtThumbnail, image.Pt(600, 600)},
		{CoverArtLandscape, image.Pt(800, 450)},
	}
	for _, tt := range tests {
		img, err := m.CoverArt(tt.mode)
		if err != nil {
			t.Fatalf("CoverArt(%v) failed: %v", tt.mode, err)
		}
		if got := img.Bounds().Size(); got != tt.want {
			t.Errorf("CoverArt(%v) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestCoverArtFirstFrame(t *testing.T) {
	b := movie()
	b.streams[0].info.Width, b.streams[0].info.Height = 640, 360
	m := openFake(t, b)

	img, err := m.CoverArt(CoverArtDefault)
	if err != nil {
		t.Fatalf("CoverArt failed: %v", err)
	}
	if img.Bounds().Size() != image.Pt(640, 360) {
		t.Errorf("size = %v, want 640x360", img.Bounds().Size())
	}
	wantFrame(t, img, 0)

	img, err = m.CoverArt(CoverArtThumbnail)
	if err != nil {
		t.Fatalf("CoverArt failed: %v", err)
	}
	if img.Bounds().Size() != image.Pt(360, 360) {
		t.Errorf("size = %v, want 360x360", img.Bounds().Size())
	}
}

func TestThumbnailTime(t *testing.T) {
	m := openFake(t, movie())
	img, err := m.Thumbnail(image.Pt(128, 128))
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if img.Bounds().Size() != image.Pt(128, 72) {
		t.Errorf("size = %v, want 128x72", img.Bounds().Size())
	}
	wantFrame(t, img, 1500)

	short := &fakeBackend{streams: []*fakeStream{videoStream(0, 320, 240, 3)}, duration: 3}
	m = openFake(t, short)
	img, err = m.Thumbnail(image.Pt(128, 128))
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	wantFrame(t, img, 0)
}

func TestCorruptPackets(t *testing.T) {
	b := movie()
	b.streams[0].corrupt = func(i int) bool { return i < 16 }
	m := openFake(t, b)

	img, err := m.Snapshot(image.Pt(64, 36), 0)
	if err != nil {
		t.Fatalf("Snapshot with %d corrupt packets failed: %v", 16, err)
	}
	wantFrame(t, img, 16)

	b = movie()
	b.streams[0].corrupt = func(i int) bool { return true }
	m = openFake(t, b)

	_, err = m.Snapshot(image.Pt(64, 36), 30)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("got %v, want ErrDecode", err)
	}
	if errors.Is(err, ErrCorruptPacket) == false {
		t.Error("cause should be kept")
	}
	var e *Error
	if !errors.As(err, &e) || e.Op != "snapshot" || e.Kind != ErrDecode {
		t.Errorf("error = %#v", err)
	}
}

func TestSnapshotTimeout(t *testing.T) {
	b := movie()
	b.streams[0].keyEvery = 1 << 20
	cfg := testConfig()
	cfg.MaxFrameSkip = 10
	m := openFake(t, b, WithConfig(cfg))

	if _, err := m.Snapshot(image.Pt(64, 36), 60); !errors.Is(err, ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
	img, err := m.Snapshot(image.Pt(64, 36), 0.2)
	if err != nil {
		t.Fatalf("Snapshot within the skip budget failed: %v", err)
	}
	wantFrame(t, img, 5)
}

func TestHardwareFallback(t *testing.T) {
	t.Run("init", func(t *testing.T) {
		b := movie()
		b.hwInitFails = true
		cfg := testConfig()
		cfg.HWAccel = "vaapi"
		m := openFake(t, b, WithConfig(cfg))

		img, err := m.Snapshot(image.Pt(64, 36), 60)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		wantFrame(t, img, 1500)
		if c := b.container; c.hwOpens != 1 || c.swOpens != 1 {
			t.Errorf("hw opens %d, sw opens %d", c.hwOpens, c.swOpens)
		}
	})

	t.Run("decode", func(t *testing.T) {
		b := movie()
		b.streams[0].hwFails = true
		cfg := testConfig()
		cfg.HWAccel = "vaapi"
		m := openFake(t, b, WithConfig(cfg))

		img, err := m.Snapshot(image.Pt(64, 36), 60)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		wantFrame(t, img, 1500)
		if _, err := m.Snapshot(image.Pt(64, 36), 10); err != nil {
			t.Fatalf("second Snapshot failed: %v", err)
		}
		c := b.container
		if c.hwOpens != 1 || c.swOpens != 1 {
			t.Errorf("hw opens %d, sw opens %d", c.hwOpens, c.swOpens)
		}
		if !c.decoders[0].closed {
			t.Error("hardware decoder not closed")
		}
	})
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(BytesSource(nil), WithBackend(&fakeBackend{openErr: errors.New("invalid data")}))
	if !errors.Is(err, ErrOpen) {
		t.Errorf("got %v, want ErrOpen", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Op != "open" {
		t.Errorf("error = %#v", err)
	}

	b := &fakeBackend{streams: []*fakeStream{{info: StreamInfo{Index: 0, Kind: KindOther}}}}
	_, err = Open(BytesSource(nil), WithBackend(b), WithPictureProbes())
	if !errors.Is(err, ErrStreamSelection) {
		t.Errorf("got %v, want ErrStreamSelection", err)
	}
	if !b.container.closed {
		t.Error("container left open")
	}

	cfg := testConfig()
	cfg.MaxFrameSkip = -1
	if _, err := Open(BytesSource(nil), WithBackend(movie()), WithConfig(cfg)); !errors.Is(err, ErrOpen) {
		t.Errorf("invalid config: got %v, want ErrOpen", err)
	}
}

func TestClose(t *testing.T) {
	b := movie()
	m := openFake(t, b)
	if _, err := m.Snapshot(image.Pt(64, 36), 1); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if !b.container.closed || !b.container.decoders[0].closed {
		t.Error("container or decoder left open")
	}

	if _, err := m.Snapshot(image.Pt(64, 36), 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Snapshot after Close: %v", err)
	}
	if _, err := m.CoverArtData(CoverArtDefault); !errors.Is(err, ErrClosed) {
		t.Errorf("CoverArtData after Close: %v", err)
	}
	if _, err := m.Thumbnail(image.Pt(64, 64)); !errors.Is(err, ErrClosed) {
		t.Errorf("Thumbnail after Close: %v", err)
	}
}

func TestPanicBecomesInternalError(t *testing.T) {
	b := movie()
	b.streams[0].panics = true
	m := openFake(t, b)

	_, err := m.Snapshot(image.Pt(64, 36), 1)
	if !errors.Is(err, ErrInternal) {
		t.Errorf("got %v, want ErrInternal", err)
	}
}

func TestSnapshotRefusesHugeOutput(t *testing.T) {
	b := movie()
	m := openFake(t, b)

	img, err := m.Snapshot(image.Pt(100000, 100000), 5)
	if img != nil || !errors.Is(err, ErrFilterGraph) {
		t.Errorf("Snapshot = %v, %v; want ErrFilterGraph", img, err)
	}
	if b.converters != 0 {
		t.Errorf("converters built = %d, want 0", b.converters)
	}
}

func TestOpenPanicReleasesContainer(t *testing.T) {
	b := &fakeBackend{streams: []*fakeStream{audioStream(0, 2)}, duration: 60}
	probe := PictureProbeFunc(func(ByteSource) (*BlobSource, error) {
		panic("bad atom")
	})

	m, err := Open(BytesSource(nil), WithBackend(b), WithConfig(testConfig()), WithPictureProbes(probe))
	if !errors.Is(err, ErrInternal) {
		t.Errorf("got %v, want ErrInternal", err)
	}
	if m != nil {
		t.Error("Open returned a MediaSource with an error")
	}
	if b.container == nil || !b.container.closed {
		t.Error("container left open")
	}
}

func TestEncodedImage(t *testing.T) {
	b := movie()
	m := openFake(t, b)

	for i := 0; i < 2; i++ {
		data, err := m.EncodedImage(image.Pt(320, 180), 5)
		if err != nil {
			t.Fatalf("EncodedImage failed: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("not a PNG: %v", err)
		}
		if img.Bounds().Size() != image.Pt(320, 180) {
			t.Errorf("size = %v", img.Bounds().Size())
		}
	}
	if b.encoders != 1 {
		t.Errorf("encoders built = %d, want 1", b.encoders)
	}

	b = movie()
	b.encoderErr = errors.New("no png encoder")
	m = openFake(t, b)
	if _, err := m.EncodedImage(image.Pt(32, 18), 5); err != nil {
		t.Errorf("EncodedImage without backend encoder failed: %v", err)
	}
}

func TestInfo(t *testing.T) {
	b := movie()
	b.streams[0].info.Width, b.streams[0].info.Height = 720, 480
	b.streams[0].info.SampleAspect = 32.0 / 27.0
	m := openFake(t, b)

	info := m.Info("clip.mp4")
	if want := "Clip (853×480, " + l10n.T("stereo") + ", 2:00)"; info.Name != want {
		t.Errorf("Name = %q, want %q", info.Name, want)
	}
	if info.DisplaySize != (Size{853, 480}) || info.PreviewSize != (Size{640, 360}) {
		t.Errorf("display %v preview %v", info.DisplaySize, info.PreviewSize)
	}
	if info.Visual != "stream #0" || info.PictureMode || info.AudioStream != 1 {
		t.Errorf("info = %+v", info)
	}

	b.title = ""
	if got := m.Info("clip.mp4").Name; got[:8] != "clip.mp4" {
		t.Errorf("untitled Name = %q", got)
	}
}
