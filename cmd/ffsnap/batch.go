//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func (r *runner) batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     l10n.T("Write thumbnails of many files in parallel"),
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"d"}, Value: ".", Usage: l10n.T("Output directory")},
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: runtime.NumCPU(), Usage: l10n.T("Files processed at once")},
			sizeFlag("256x256"),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit(l10n.T("no input file"), 2)
			}
			size, err := parseSize(c.String("size"))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(c.String("out"), 0o755); err != nil {
				return err
			}

			files := c.Args().Slice()
			failed, err := r.batch(c.Context, files, c.String("out"), size, c.Int("jobs"))
			if err != nil {
				return err
			}
			if failed > 0 {
				return cli.Exit(l10n.F("%d of %d files failed", failed, len(files)), 1)
			}
			return nil
		},
	}
}

// batch writes a PNG thumbnail per file into dir, at most jobs at a time.
// Files that fail are logged and counted; only cancellation stops the run.
func (r *runner) batch(ctx context.Context, files []string, dir string, size image.Point, jobs int) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, jobs))

	var failed atomic.Int32
	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := thumbnailPath(dir, path)
			if err := r.thumbnail(path, out, size); err != nil {
				r.log.Warn("thumbnail failed", "file", path, "error", err)
				failed.Add(1)
				return nil
			}
			r.log.Debug("thumbnail written", "file", path, "output", out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(failed.Load()), err
	}
	return int(failed.Load()), nil
}

func (r *runner) thumbnail(path, out string, size image.Point) error {
	m, err := r.open(path)
	if err != nil {
		return err
	}
	defer m.Close()

	img, err := m.Thumbnail(size)
	if err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("no picture")
	}
	return imaging.Save(img, out)
}

// thumbnailPath names the thumbnail of path inside dir: "clip.mkv" becomes
// "clip.mkv.png" so files differing only in extension do not collide.
func thumbnailPath(dir, path string) string {
	return filepath.Join(dir, filepath.Base(path)+".png")
}
