//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"runtime/debug"
	"time"

	"github.com/obinnaokechukwu/ffsnap/internal/metrics"
)

// MediaSource is an opened media file with its streams selected. It is
// not safe for concurrent use.
type MediaSource struct {
	opts    *Options
	src     ByteSource
	ownsSrc bool

	container Container
	streams   []StreamInfo
	duration  float64
	audio     int
	visual    VisualSource

	video      *streamContext
	stillChain *filterChain
	picture    image.Image   // decoded blob, picture mode only
	covers     []image.Image // decoded cover streams and blob
	coversRead bool
	encoder    ImageEncoder

	closed bool
}

// OpenFile opens the media file at path. The file is closed by Close.
func OpenFile(path string, opts ...Option) (*MediaSource, error) {
	return Open(FileSource(path), opts...)
}

// Open probes src, selects the best audio and video streams and, when no
// video stream can be decoded, looks for a pre-rendered picture. Sources
// returned by FileSource are closed by Close; others are left to the
// caller.
func Open(src ByteSource, opts ...Option) (m *MediaSource, err error) {
	_, owns := src.(*fileSource)
	var c Container
	defer func() {
		if err == nil {
			return
		}
		if errors.Is(err, ErrInternal) {
			metrics.OpensTotal.WithLabelValues("internal_error").Inc()
		}
		if c != nil {
			_ = c.Close()
		}
		if owns {
			_ = src.(io.Closer).Close()
		}
		m = nil
	}()
	defer recoverOp("open", &err)

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.Backend == nil {
		o.Backend = FFmpegBackend{}
	}
	if o.StreamScorer == nil {
		o.StreamScorer = DefaultStreamScorer
	}

	fail := func(result string, err error) (*MediaSource, error) {
		metrics.OpensTotal.WithLabelValues(result).Inc()
		return nil, wrapError("open", err, ErrOpen)
	}

	if err := o.Config.Validate(); err != nil {
		return fail("open_error", err)
	}
	c, err = o.Backend.OpenContainer(src, &o.Config)
	if err != nil {
		c = nil
		return fail("open_error", err)
	}

	m = &MediaSource{
		opts:       o,
		src:        src,
		ownsSrc:    owns,
		container:  c,
		streams:    c.Streams(),
		duration:   max(0, c.Duration()),
		visual:     NoVisual{},
		stillChain: newFilterChain(newStillConverter, o.Config.MaxOutputPixels),
	}
	if math.IsNaN(m.duration) || math.IsInf(m.duration, 0) {
		m.duration = 0
	}

	m.audio = selectStream(m.streams, KindAudio, o.StreamScorer)
	if v := selectStream(m.streams, KindVideo, o.StreamScorer); v >= 0 {
		m.visual = StreamSource{Index: v}
		m.video = newStreamContext(c, v, &o.Config, o.Backend)
	} else if blob := m.probePicture(); blob != nil {
		m.visual = *blob
		metrics.PictureModeTotal.Inc()
	}

	if m.audio < 0 && m.visual == (NoVisual{}) && len(coverStreams(m.streams)) == 0 {
		return fail("no_streams", ErrStreamSelection)
	}

	logger().Debug("opened media",
		"source", sourceName(src), "duration", m.duration, "streams", len(m.streams),
		"audio", m.audio, "visual", m.visual.String())
	metrics.OpensTotal.WithLabelValues("ok").Inc()
	return m, nil
}

func (m *MediaSource) probePicture() *BlobSource {
	for _, p := range m.opts.PictureProbes {
		blob, err := probeKeepingPosition(p, m.src)
		if err != nil {
			logger().Debug("picture probe failed", "probe", fmt.Sprintf("%T", p), "error", err)
			continue
		}
		if blob != nil && blob.Size > 0 && blob.Width > 0 && blob.Height > 0 {
			return blob
		}
	}
	return nil
}

func probeKeepingPosition(p PictureProbe, src ByteSource) (blob *BlobSource, err error) {
	pos, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, serr := src.Seek(pos, io.SeekStart); serr != nil && err == nil {
			blob, err = nil, serr
		}
	}()
	return p.ProbePicture(src)
}

func sourceName(src ByteSource) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}

// Duration returns the duration in whole seconds; 0 if unknown.
func (m *MediaSource) Duration() int {
	return int(m.duration)
}

// Visual returns where pictures are taken from.
func (m *MediaSource) Visual() VisualSource {
	return m.visual
}

// IsPictureMode reports whether pictures come from a pre-rendered blob.
func (m *MediaSource) IsPictureMode() bool {
	_, ok := m.visual.(BlobSource)
	return ok
}

// AudioStream returns the index of the selected audio stream, or -1.
func (m *MediaSource) AudioStream() int {
	return m.audio
}

// Streams returns the container's streams.
func (m *MediaSource) Streams() []StreamInfo {
	return append([]StreamInfo(nil), m.streams...)
}

func (m *MediaSource) stream(index int) (StreamInfo, bool) {
	for _, s := range m.streams {
		if s.Index == index {
			return s, true
		}
	}
	return StreamInfo{}, false
}

// ChannelCount returns the channel count of the selected audio stream, or
// 0 when there is none.
func (m *MediaSource) ChannelCount() int {
	if s, ok := m.stream(m.audio); ok {
		return s.Channels
	}
	return 0
}

// VideoCodecName names the codec of the selected video stream, or of the
// first video stream when none could be selected. "" means no video.
func (m *MediaSource) VideoCodecName() string {
	if v, ok := m.visual.(StreamSource); ok {
		s, _ := m.stream(v.Index)
		return s.Codec
	}
	for _, s := range m.streams {
		if s.Kind == KindVideo && !s.AttachedPicture {
			return s.Codec
		}
	}
	return ""
}

// Title returns the container title tag, or "".
func (m *MediaSource) Title() string {
	if m.closed {
		return ""
	}
	return m.container.Metadata("title")
}

// DisplaySize is the picture size with the sample aspect ratio applied to
// the width. It is zero when there is no picture.
func (m *MediaSource) DisplaySize() image.Point {
	switch v := m.visual.(type) {
	case StreamSource:
		s, _ := m.stream(v.Index)
		g := Geometry{Width: s.Width, Height: s.Height, SampleAspect: s.SampleAspect}
		return image.Pt(g.DisplayWidth(), g.Height)
	case BlobSource:
		return image.Pt(v.Width, v.Height)
	}
	return image.Point{}
}

// PreviewSize is DisplaySize shrunk to fit Config.PreviewMax.
func (m *MediaSource) PreviewSize() image.Point {
	return shrinkToFit(m.DisplaySize(), m.opts.Config.PreviewMax.Point())
}

// Info summarises a MediaSource.
type Info struct {
	Name         string       `json:"name"`
	Title        string       `json:"title,omitempty"`
	Duration     int          `json:"duration"`
	VideoCodec   string       `json:"video_codec,omitempty"`
	Channels     int          `json:"channels"`
	DisplaySize  Size         `json:"display_size"`
	PreviewSize  Size         `json:"preview_size"`
	Visual       string       `json:"visual"`
	PictureMode  bool         `json:"picture_mode"`
	AudioStream  int          `json:"audio_stream"`
	CoverStreams int          `json:"cover_streams"`
	Streams      []StreamInfo `json:"streams"`
}

// Info returns a summary of the source. name is used as the title when the
// container has none.
func (m *MediaSource) Info(name string) Info {
	title := m.Title()
	if title == "" {
		title = name
	}
	ds, ps := m.DisplaySize(), m.PreviewSize()
	return Info{
		Name:         DisplayName(title, ds, m.Duration(), m.ChannelCount()),
		Title:        m.Title(),
		Duration:     m.Duration(),
		VideoCodec:   m.VideoCodecName(),
		Channels:     m.ChannelCount(),
		DisplaySize:  Size{Width: ds.X, Height: ds.Y},
		PreviewSize:  Size{Width: ps.X, Height: ps.Y},
		Visual:       m.visual.String(),
		PictureMode:  m.IsPictureMode(),
		AudioStream:  m.audio,
		CoverStreams: len(coverStreams(m.streams)),
		Streams:      m.Streams(),
	}
}

// Close releases the decoders, the encoder, the container and, when it was
// opened here, the byte source. Further operations return ErrClosed.
func (m *MediaSource) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	m.stillChain.close()
	if m.video != nil {
		errs = append(errs, m.video.close())
	}
	if m.encoder != nil {
		errs = append(errs, m.encoder.Close())
		m.encoder = nil
	}
	errs = append(errs, m.container.Close())
	if m.ownsSrc {
		errs = append(errs, m.src.(io.Closer).Close())
	}
	m.picture, m.covers = nil, nil
	return errors.Join(errs...)
}

func (m *MediaSource) checkOpen(op string) error {
	if m == nil || m.closed {
		return &Error{Op: op, Kind: ErrClosed}
	}
	return nil
}

// recoverOp turns a panic in a public operation into ErrInternal.
func recoverOp(op string, err *error) {
	if r := recover(); r != nil {
		logger().Warn("recovered panic", "op", op, "panic", r, "stack", string(debug.Stack()))
		*err = &Error{Op: op, Kind: ErrInternal, Err: fmt.Errorf("panic: %v", r)}
	}
}

var resultLabels = map[error]string{
	ErrOpen:            "open_error",
	ErrStreamSelection: "no_streams",
	ErrSeek:            "seek_error",
	ErrDecode:          "decode_error",
	ErrTimeout:         "timeout",
	ErrFilterGraph:     "filter_error",
	ErrEncode:          "encode_error",
	ErrClosed:          "closed",
	ErrInternal:        "internal_error",
}

// observe records the outcome of an extraction.
func observe(op string, start time.Time, result *image.Image, err *error) {
	label := "ok"
	switch {
	case *err != nil:
		label = "error"
		var e *Error
		if errors.As(*err, &e) {
			if l, ok := resultLabels[e.Kind]; ok {
				label = l
			}
		}
	case result != nil && *result == nil:
		label = "empty"
	}
	metrics.ExtractionsTotal.WithLabelValues(op, label).Inc()
	metrics.ExtractionDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
