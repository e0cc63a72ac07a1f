//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"testing"
)

// fakePixFmt is the pixel format of frames produced by the fake decoder.
const fakePixFmt = 1000

// fakeStream is a synthetic stream: frames at a fixed rate, a keyframe
// every keyEvery frames.
type fakeStream struct {
	info     StreamInfo
	fps      float64
	frames   int
	keyEvery int
	corrupt  func(i int) bool
	cover    []byte // attached picture payload
	hwFails  bool   // a hardware decoder rejects every packet
	panics   bool
}

type fakeBackend struct {
	streams  []*fakeStream
	duration float64
	title    string

	openErr     error
	hwInitFails bool
	encoderErr  error

	converters int // converters built
	encoders   int // encoders built
	container  *fakeContainer
}

func (b *fakeBackend) OpenContainer(src ByteSource, cfg *Config) (Container, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.container = &fakeContainer{b: b}
	return b.container, nil
}

func (b *fakeBackend) NewConverter(src Geometry, dst image.Point, format PixelFormat) (Converter, error) {
	if src.Format != fakePixFmt {
		return nil, fmt.Errorf("fake converter cannot read format %d", src.Format)
	}
	b.converters++
	return &fakeConverter{dst: dst, format: format}, nil
}

func (b *fakeBackend) NewEncoder() (ImageEncoder, error) {
	if b.encoderErr != nil {
		return nil, b.encoderErr
	}
	b.encoders++
	return imagingEncoder{}, nil
}

type fakeContainer struct {
	b        *fakeBackend
	hwOpens  int
	swOpens  int
	decoders []*fakeDecoder
	closed   bool
}

func (c *fakeContainer) Streams() []StreamInfo {
	var out []StreamInfo
	for _, s := range c.b.streams {
		out = append(out, s.info)
	}
	return out
}

func (c *fakeContainer) Duration() float64 { return c.b.duration }

func (c *fakeContainer) Metadata(key string) string {
	if key == "title" {
		return c.b.title
	}
	return ""
}

func (c *fakeContainer) stream(index int) *fakeStream {
	for _, s := range c.b.streams {
		if s.info.Index == index {
			return s
		}
	}
	return nil
}

func (c *fakeContainer) AttachedPicture(index int) ([]byte, error) {
	s := c.stream(index)
	if s == nil || s.cover == nil {
		return nil, fmt.Errorf("no picture in stream %d", index)
	}
	return s.cover, nil
}

func (c *fakeContainer) OpenDecoder(index int, hwDevices []string) (FrameDecoder, error) {
	s := c.stream(index)
	if s == nil {
		return nil, fmt.Errorf("no stream %d", index)
	}
	hw := len(hwDevices) > 0
	if hw {
		c.hwOpens++
		if c.b.hwInitFails {
			return nil, errors.New("no device")
		}
	} else {
		c.swOpens++
	}
	d := &fakeDecoder{s: s, hw: hw}
	c.decoders = append(c.decoders, d)
	return d, nil
}

func (c *fakeContainer) Close() error {
	c.closed = true
	return nil
}

type fakeDecoder struct {
	s      *fakeStream
	hw     bool
	pos    int
	seeks  []float64
	closed bool
}

func (d *fakeDecoder) SeekTo(seconds float64) error {
	d.seeks = append(d.seeks, seconds)
	i := int(seconds * d.s.fps)
	if i >= d.s.frames {
		i = d.s.frames - 1
	}
	d.pos = max(0, i-i%d.s.keyEvery)
	return nil
}

func (d *fakeDecoder) Next() (Frame, error) {
	if d.s.panics {
		panic("decoder exploded")
	}
	if d.pos >= d.s.frames {
		return nil, io.EOF
	}
	i := d.pos
	d.pos++
	if d.hw && d.s.hwFails {
		return nil, fmt.Errorf("%w: hardware rejected packet %d", ErrCorruptPacket, i)
	}
	if d.s.corrupt != nil && d.s.corrupt(i) {
		return nil, fmt.Errorf("%w: packet %d", ErrCorruptPacket, i)
	}
	return fakeFrame{index: i, pts: float64(i) / d.s.fps, info: d.s.info}, nil
}

func (d *fakeDecoder) Hardware() bool { return d.hw }

func (d *fakeDecoder) Close() error {
	d.closed = true
	return nil
}

type fakeFrame struct {
	index int
	pts   float64
	info  StreamInfo
}

func (f fakeFrame) PTS() float64 { return f.pts }

func (f fakeFrame) Geometry() Geometry {
	return Geometry{
		Width:        f.info.Width,
		Height:       f.info.Height,
		Format:       fakePixFmt,
		SampleAspect: f.info.SampleAspect,
	}
}

// frameColor encodes the frame index so tests can tell frames apart.
func frameColor(i int) color.NRGBA {
	return color.NRGBA{R: uint8(i), G: uint8(i >> 8), B: 0x80, A: 0xff}
}

type fakeConverter struct {
	dst    image.Point
	format PixelFormat
}

func (c *fakeConverter) Convert(f Frame) (image.Image, error) {
	ff, ok := f.(fakeFrame)
	if !ok {
		return nil, fmt.Errorf("unexpected frame %T", f)
	}
	r := image.Rect(0, 0, c.dst.X, c.dst.Y)
	col := frameColor(ff.index)
	if c.format == FormatGray {
		img := image.NewGray(r)
		for i := range img.Pix {
			img.Pix[i] = col.R
		}
		return img, nil
	}
	img := image.NewNRGBA(r)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = col.R, col.G, col.B, col.A
	}
	return img, nil
}

func (c *fakeConverter) Close() error { return nil }

// Stream builders

func videoStream(index, w, h int, seconds float64) *fakeStream {
	const fps = 25
	return &fakeStream{
		info: StreamInfo{
			Index: index, Kind: KindVideo, Codec: "h264", Decodable: true,
			BitRate: 2_000_000, Width: w, Height: h, SampleAspect: 1,
		},
		fps:      fps,
		frames:   int(seconds * fps),
		keyEvery: fps,
	}
}

func audioStream(index, channels int) *fakeStream {
	return &fakeStream{
		info: StreamInfo{
			Index: index, Kind: KindAudio, Codec: "aac", Decodable: true,
			BitRate: 128_000, Channels: channels,
		},
	}
}

func coverStream(index int, pic []byte, w, h int) *fakeStream {
	return &fakeStream{
		info: StreamInfo{
			Index: index, Kind: KindVideo, AttachedPicture: true, Codec: "png",
			Decodable: true, Width: w, Height: h,
		},
		cover: pic,
	}
}

// encodePNG returns a PNG of the given size filled with c.
func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.HWAccel = HWAccelNone
	return cfg
}

func openFake(t *testing.T, b *fakeBackend, opts ...Option) *MediaSource {
	t.Helper()
	all := append([]Option{WithBackend(b), WithConfig(testConfig()), WithPictureProbes()}, opts...)
	m, err := Open(BytesSource(nil), all...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func pixelAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func sameImage(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if pixelAt(a, x, y) != pixelAt(b, x, y) {
				return false
			}
		}
	}
	return true
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
