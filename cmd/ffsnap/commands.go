//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/obinnaokechukwu/ffsnap"
	"github.com/obinnaokechukwu/ffsnap/internal/sheet"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "output",
		Aliases:  []string{"o"},
		Usage:    l10n.T("Output file, - for standard output"),
		Required: true,
	}
}

func sizeFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "size",
		Aliases: []string{"s"},
		Value:   value,
		Usage:   l10n.T("Fit inside WxH; 0 keeps that axis free"),
	}
}

// parseSize parses "WxH", "W" (square) or "" (native size).
func parseSize(s string) (image.Point, error) {
	if s == "" {
		return image.Point{}, nil
	}
	ws, hs, found := strings.Cut(strings.ToLower(s), "x")
	if !found {
		hs = ws
	}
	w, werr := strconv.Atoi(ws)
	h, herr := strconv.Atoi(hs)
	if werr != nil || herr != nil || w < 0 || h < 0 {
		return image.Point{}, fmt.Errorf(l10n.T("invalid size %q"), s)
	}
	return image.Pt(w, h), nil
}

func (r *runner) open(path string) (*ffsnap.MediaSource, error) {
	return ffsnap.OpenFile(path, ffsnap.WithConfig(r.cfg))
}

// withMedia opens the single file argument of c.
func (r *runner) withMedia(c *cli.Context, fn func(m *ffsnap.MediaSource, path string) error) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit(l10n.T("no input file"), 2)
	}
	m, err := r.open(path)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m, path)
}

func noPicture(path string) error {
	return cli.Exit(l10n.F("%s has no picture", path), 3)
}

// writeImage saves img in the format named by the file extension, or as
// PNG on standard output.
func writeImage(out string, img image.Image) error {
	if out == "-" {
		return imaging.Encode(os.Stdout, img, imaging.PNG)
	}
	return imaging.Save(img, out)
}

// writeData writes encoded PNG bytes.
func writeData(out string, data []byte) error {
	if out == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

func isPNG(out string) bool {
	return out == "-" || strings.EqualFold(filepath.Ext(out), ".png")
}

func (r *runner) infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     l10n.T("Print a summary of media files"),
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: l10n.T("Print JSON")},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit(l10n.T("no input file"), 2)
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			for _, path := range c.Args().Slice() {
				m, err := r.open(path)
				if err != nil {
					return err
				}
				info := m.Info(filepath.Base(path))
				m.Close()

				if c.Bool("json") {
					if err := enc.Encode(info); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s\n", info.Name)
				fmt.Fprintf(c.App.Writer, "  visual:  %s\n", info.Visual)
				if info.VideoCodec != "" {
					fmt.Fprintf(c.App.Writer, "  codec:   %s\n", info.VideoCodec)
				}
				fmt.Fprintf(c.App.Writer, "  preview: %dx%d\n", info.PreviewSize.Width, info.PreviewSize.Height)
				fmt.Fprintf(c.App.Writer, "  covers:  %d\n", info.CoverStreams)
			}
			return nil
		},
	}
}

func (r *runner) snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:      "snapshot",
		Usage:     l10n.T("Save the picture shown at a given time"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			outputFlag(),
			sizeFlag(""),
			&cli.Float64Flag{Name: "at", Aliases: []string{"t"}, Usage: l10n.T("Time in seconds")},
			&cli.BoolFlag{Name: "gray", Usage: l10n.T("Grayscale output")},
		},
		Action: func(c *cli.Context) error {
			size, err := parseSize(c.String("size"))
			if err != nil {
				return err
			}
			return r.withMedia(c, func(m *ffsnap.MediaSource, path string) error {
				out, at := c.String("output"), c.Float64("at")
				if isPNG(out) && !c.Bool("gray") {
					data, err := m.EncodedImage(size, at)
					if err != nil {
						return err
					}
					if data == nil {
						return noPicture(path)
					}
					return writeData(out, data)
				}

				format := ffsnap.FormatRGBA
				if c.Bool("gray") {
					format = ffsnap.FormatGray
				}
				img, err := m.SnapshotAs(size, at, format)
				if err != nil {
					return err
				}
				if img == nil {
					return noPicture(path)
				}
				return writeImage(out, img)
			})
		},
	}
}

func (r *runner) coverCommand() *cli.Command {
	return &cli.Command{
		Name:      "cover",
		Usage:     l10n.T("Save the cover art"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			outputFlag(),
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "default",
				Usage: l10n.T("Cover mode (default, thumbnail, landscape)")},
		},
		Action: func(c *cli.Context) error {
			mode, err := ffsnap.ParseCoverArtMode(c.String("mode"))
			if err != nil {
				return err
			}
			return r.withMedia(c, func(m *ffsnap.MediaSource, path string) error {
				out := c.String("output")
				if isPNG(out) {
					data, err := m.CoverArtData(mode)
					if err != nil {
						return err
					}
					if data == nil {
						return noPicture(path)
					}
					return writeData(out, data)
				}
				img, err := m.CoverArt(mode)
				if err != nil {
					return err
				}
				if img == nil {
					return noPicture(path)
				}
				return writeImage(out, img)
			})
		},
	}
}

func (r *runner) thumbnailCommand() *cli.Command {
	return &cli.Command{
		Name:      "thumbnail",
		Usage:     l10n.T("Save a thumbnail"),
		ArgsUsage: "FILE",
		Flags:     []cli.Flag{outputFlag(), sizeFlag("256x256")},
		Action: func(c *cli.Context) error {
			size, err := parseSize(c.String("size"))
			if err != nil {
				return err
			}
			return r.withMedia(c, func(m *ffsnap.MediaSource, path string) error {
				img, err := m.Thumbnail(size)
				if err != nil {
					return err
				}
				if img == nil {
					return noPicture(path)
				}
				return writeImage(c.String("output"), img)
			})
		},
	}
}

func (r *runner) sheetCommand() *cli.Command {
	return &cli.Command{
		Name:      "sheet",
		Usage:     l10n.T("Save a contact sheet"),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			outputFlag(),
			sizeFlag("320x180"),
			&cli.IntFlag{Name: "columns", Value: 4, Usage: l10n.T("Number of columns")},
			&cli.BoolFlag{Name: "labels", Value: true, Usage: l10n.T("Stamp snapshot times")},
		},
		Action: func(c *cli.Context) error {
			cell, err := parseSize(c.String("size"))
			if err != nil {
				return err
			}
			return r.withMedia(c, func(m *ffsnap.MediaSource, path string) error {
				img, err := sheet.Build(m, sheet.Options{
					Columns:  c.Int("columns"),
					Cell:     cell,
					Gap:      4,
					MaxCount: r.cfg.SnapshotCount,
					Labels:   c.Bool("labels"),
				})
				if errors.Is(err, sheet.ErrEmpty) {
					return noPicture(path)
				}
				if err != nil {
					return err
				}
				return writeImage(c.String("output"), img)
			})
		},
	}
}
