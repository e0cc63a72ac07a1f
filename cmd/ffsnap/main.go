//go:build !ios && !android && (amd64 || arm64)

// Command ffsnap extracts cover art, snapshots, thumbnails and contact
// sheets from media files, one at a time, in batches or over HTTP.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/obinnaokechukwu/ffsnap"
	"github.com/obinnaokechukwu/ffsnap/internal/metrics"
)

var version = "dev"

// runner carries what the global flags set up for the commands.
type runner struct {
	cfg ffsnap.Config
	log *slog.Logger
}

func main() {
	if err := newApp(&runner{}).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(r *runner) *cli.App {
	return &cli.App{
		Name:    "ffsnap",
		Usage:   l10n.T("Extract still images from audio and video files"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   l10n.T("YAML configuration file"),
				EnvVars: []string{"FFSNAP_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   l10n.T("Log level (debug, info, warn, error)"),
				EnvVars: []string{"FFSNAP_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   l10n.T("Log format (text, json); json when stderr is not a terminal"),
				EnvVars: []string{"FFSNAP_LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "hwaccel",
				Usage:   l10n.T("Hardware decoding: auto, none or a device type"),
				EnvVars: []string{"FFSNAP_HWACCEL"},
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   l10n.T("Write Prometheus metrics to this file on exit"),
				EnvVars: []string{"FFSNAP_METRICS_FILE"},
			},
		},
		Before: r.setup,
		After: func(c *cli.Context) error {
			if path := c.String("metrics-file"); path != "" {
				if err := metrics.WriteTextFile(path); err != nil {
					return fmt.Errorf("writing metrics: %w", err)
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			r.infoCommand(),
			r.snapshotCommand(),
			r.coverCommand(),
			r.thumbnailCommand(),
			r.sheetCommand(),
			r.batchCommand(),
			r.serveCommand(),
		},
	}
}

// setup loads the configuration and installs the logger.
func (r *runner) setup(c *cli.Context) error {
	log, err := newLogger(os.Stderr, c.String("log-level"), c.String("log-format"), isTerminal(os.Stderr))
	if err != nil {
		return err
	}
	r.log = log
	slog.SetDefault(log)
	ffsnap.SetLogger(log.With("component", "ffsnap"))

	r.cfg = ffsnap.DefaultConfig()
	if path := c.String("config"); path != "" {
		if r.cfg, err = ffsnap.LoadConfig(path); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log.Debug("loaded config", "path", path)
	}
	if c.IsSet("hwaccel") {
		r.cfg.HWAccel = c.String("hwaccel")
	}
	return r.cfg.Validate()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newLogger builds the process logger. An empty format picks text for
// terminals and JSON otherwise.
func newLogger(w io.Writer, level, format string, tty bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if format == "" {
		format = "json"
		if tty {
			format = "text"
		}
	}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", format)
}
