//go:build !ios && !android && (amd64 || arm64)

package ffsnap

// Options configures Open.
type Options struct {
	Config  Config
	Backend Backend

	// PictureProbes inspect the raw container for a pre-rendered picture
	// when no decodable video stream exists. The first hit wins.
	PictureProbes []PictureProbe

	// StreamScorer decides whether candidate beats best during stream
	// selection. Nil uses DefaultStreamScorer.
	StreamScorer StreamScorer
}

// Option is a functional option for Open.
type Option func(*Options)

// WithConfig sets the engine configuration.
func WithConfig(cfg Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithBackend replaces the FFmpeg backend.
func WithBackend(b Backend) Option {
	return func(o *Options) {
		o.Backend = b
	}
}

// WithPictureProbes replaces the picture probes. Passing none disables
// picture mode.
func WithPictureProbes(probes ...PictureProbe) Option {
	return func(o *Options) {
		o.PictureProbes = probes
	}
}

// WithStreamScorer replaces the stream selection policy.
func WithStreamScorer(s StreamScorer) Option {
	return func(o *Options) {
		o.StreamScorer = s
	}
}

func defaultOptions() *Options {
	return &Options{
		Config:        DefaultConfig(),
		Backend:       FFmpegBackend{},
		PictureProbes: []PictureProbe{MP4CoverProbe{}},
		StreamScorer:  DefaultStreamScorer,
	}
}
