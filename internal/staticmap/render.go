package staticmap

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-claimmap/internal/marker"
)

// Default canvas size of report snapshots.
const (
	DefaultWidth  = 1200
	DefaultHeight = 800
)

// Glyph sizes in pixels.
const (
	CameraSize   = 14
	IncidentSize = 18
)

// Glyph fill colors.
const (
	ColorFunctioning    = "#28a745"
	ColorNotFunctioning = "#000000"
	ColorSerious        = "#dc3545"
	ColorMedium         = "#fd7e14"
	ColorLight          = "#ffc107"
)

// CameraColor is the fill color of a camera glyph on the tile map.
func CameraColor(l marker.Level) string {
	if l == marker.LevelFunctioning {
		return ColorFunctioning
	}
	return ColorNotFunctioning
}

// IncidentColor is the fill color of an incident glyph.
func IncidentColor(l marker.Level) string {
	switch l {
	case marker.LevelSerious:
		return ColorSerious
	case marker.LevelMedium:
		return ColorMedium
	}
	return ColorLight
}

// Request describes one snapshot.
type Request struct {
	Incidents []marker.Marker
	Cameras   []marker.Marker
	View      View
	Width     int
	Height    int
}

func (r Request) size() (int, int) {
	w, h := r.Width, r.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// Renderer composes tiles and draws marker glyphs.
type Renderer struct {
	Tiles    TileSource
	TileSize int
	// Workers bounds concurrent tile downloads.
	Workers int
}

// NewRenderer returns a renderer over src.
func NewRenderer(src TileSource) *Renderer {
	return &Renderer{Tiles: src, TileSize: DefaultTileSize, Workers: 4}
}

// Render produces the snapshot. Any tile failure fails the whole render so
// the caller can fall back to Schematic.
func (r *Renderer) Render(ctx context.Context, req Request) (*image.RGBA, error) {
	w, h := req.size()
	proj := Projector{View: req.View, Width: w, Height: h, TileSize: r.TileSize}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	if err := r.compose(ctx, img, proj.Tiles()); err != nil {
		return nil, err
	}

	dc := gg.NewContextForRGBA(img)
	for _, c := range req.Cameras {
		x, y := proj.Point(orb.Point{c.Lng, c.Lat})
		drawSquare(dc, x, y, CameraSize, CameraColor(c.Level))
	}
	for _, i := range req.Incidents {
		x, y := proj.Point(orb.Point{i.Lng, i.Lat})
		drawTriangle(dc, x, y, IncidentSize, IncidentColor(i.Level))
	}
	return img, nil
}

func (r *Renderer) compose(ctx context.Context, dst *image.RGBA, tiles []Placement) error {
	if r.Tiles == nil {
		return fmt.Errorf("%w: no tile source", ErrTileFetch)
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}

	type fetched struct {
		at  Placement
		img image.Image
		err error
	}
	results := make([]fetched, len(tiles))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, t := range tiles {
		wg.Add(1)
		go func(i int, t Placement) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			img, err := r.Tiles.Tile(ctx, t.Tile)
			results[i] = fetched{at: t, img: img, err: err}
		}(i, t)
	}
	wg.Wait()

	for _, f := range results {
		if f.err != nil {
			return f.err
		}
		b := f.img.Bounds()
		rect := image.Rect(f.at.X, f.at.Y, f.at.X+b.Dx(), f.at.Y+b.Dy())
		draw.Draw(dst, rect, f.img, b.Min, draw.Src)
	}
	return nil
}

func drawSquare(dc *gg.Context, x, y float64, size int, fill string) {
	half := float64(size / 2)
	dc.DrawRectangle(x-half, y-half, 2*half, 2*half)
	dc.SetHexColor(fill)
	dc.FillPreserve()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.Stroke()
}

func drawTriangle(dc *gg.Context, x, y float64, size int, fill string) {
	h := float64(size / 2)
	dc.MoveTo(x, y-h)
	dc.LineTo(x-h, y+h)
	dc.LineTo(x+h, y+h)
	dc.ClosePath()
	dc.SetHexColor(fill)
	dc.FillPreserve()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.Stroke()
}

// EncodePNG encodes an image for embedding in a report.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
