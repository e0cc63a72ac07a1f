//go:build !ios && !android && (amd64 || arm64)

// Package sheet lays out contact sheets: a grid of snapshots taken evenly
// through a clip, led by its cover art.
package sheet

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/obinnaokechukwu/ffsnap"
)

// Source is the part of *ffsnap.MediaSource a sheet needs.
type Source interface {
	Duration() int
	HasCoverArt() bool
	CoverArt(mode ffsnap.CoverArtMode) (image.Image, error)
	Snapshot(size image.Point, at float64) (image.Image, error)
}

// Tile is one cell of a sheet.
type Tile struct {
	Image image.Image
	Label string
}

// Options controls the layout.
type Options struct {
	Columns    int         // 0 means 4
	Cell       image.Point // box each picture is fitted into; 0 means 320x180
	Gap        int
	MaxCount   int // snapshots at most; 0 means 10
	Background color.Color
	Labels     bool // stamp snapshot times
}

func (o *Options) defaults() {
	if o.Columns <= 0 {
		o.Columns = 4
	}
	if o.Cell == (image.Point{}) {
		o.Cell = image.Pt(320, 180)
	}
	if o.MaxCount <= 0 {
		o.MaxCount = 10
	}
	if o.Background == nil {
		o.Background = color.Black
	}
}

var (
	// ErrEmpty is returned when a source yields nothing to show.
	ErrEmpty = errors.New("sheet: nothing to show")
	// ErrTooLarge is returned when the sheet would exceed MaxPixels.
	ErrTooLarge = errors.New("sheet: too large")
)

// MaxPixels bounds the area of a composed sheet.
const MaxPixels = 1 << 26

// Tiles collects the cover art and the snapshots of src.
func Tiles(src Source, opts Options) ([]Tile, error) {
	opts.defaults()

	var tiles []Tile
	if src.HasCoverArt() {
		cover, err := src.CoverArt(ffsnap.CoverArtLandscape)
		if err != nil {
			return nil, fmt.Errorf("sheet: cover art: %w", err)
		}
		if cover != nil {
			tiles = append(tiles, Tile{Image: imaging.Fit(cover, opts.Cell.X, opts.Cell.Y, imaging.Lanczos)})
		}
	}

	for _, at := range ffsnap.SheetTimes(src.Duration(), opts.MaxCount) {
		img, err := src.Snapshot(opts.Cell, at)
		if err != nil {
			return nil, fmt.Errorf("sheet: snapshot at %gs: %w", at, err)
		}
		if img == nil {
			break
		}
		tile := Tile{Image: img}
		if opts.Labels {
			tile.Label = ffsnap.FormatDuration(int(at))
		}
		tiles = append(tiles, tile)
	}
	return tiles, nil
}

// Build renders the contact sheet of src.
func Build(src Source, opts Options) (image.Image, error) {
	tiles, err := Tiles(src, opts)
	if err != nil {
		return nil, err
	}
	return Compose(tiles, opts)
}

// Compose draws tiles row by row, each centred in a cell the size of the
// largest tile.
func Compose(tiles []Tile, opts Options) (image.Image, error) {
	if len(tiles) == 0 {
		return nil, ErrEmpty
	}
	opts.defaults()

	var cell image.Point
	for _, t := range tiles {
		s := t.Image.Bounds().Size()
		cell.X, cell.Y = max(cell.X, s.X), max(cell.Y, s.Y)
	}
	cols := min(opts.Columns, len(tiles))
	rows := (len(tiles) + cols - 1) / cols

	w := cols*cell.X + (cols+1)*opts.Gap
	h := rows*cell.Y + (rows+1)*opts.Gap
	if int64(w)*int64(h) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, w, h)
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(opts.Background)
	dc.Clear()

	for i, t := range tiles {
		x := opts.Gap + (i%cols)*(cell.X+opts.Gap)
		y := opts.Gap + (i/cols)*(cell.Y+opts.Gap)
		s := t.Image.Bounds().Size()
		dc.DrawImage(t.Image, x+(cell.X-s.X)/2, y+(cell.Y-s.Y)/2)

		if t.Label != "" {
			drawLabel(dc, t.Label, float64(x+cell.X-4), float64(y+cell.Y-4))
		}
	}
	return dc.Image(), nil
}

// drawLabel stamps text right-aligned above (x, y) with a drop shadow.
func drawLabel(dc *gg.Context, text string, x, y float64) {
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(text, x+1, y+1, 1, 0)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(text, x, y, 1, 0)
}
