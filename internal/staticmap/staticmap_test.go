package staticmap

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-claimmap/internal/marker"
)

type solidTiles struct {
	fill  color.Color
	calls atomic.Int32
	fail  bool
}

func (s *solidTiles) Tile(_ context.Context, _ maptile.Tile) (image.Image, error) {
	s.calls.Add(1)
	if s.fail {
		return nil, ErrTileFetch
	}
	return &image.Uniform{C: s.fill}, nil
}

// uniformTile bounds the otherwise infinite image.Uniform.
type uniformTile struct{ *image.Uniform }

func (u uniformTile) Bounds() image.Rectangle { return image.Rect(0, 0, 256, 256) }

type boundedTiles struct{ fill color.Color }

func (b boundedTiles) Tile(_ context.Context, _ maptile.Tile) (image.Image, error) {
	return uniformTile{image.NewUniform(b.fill)}, nil
}

func TestAutoFitZoom(t *testing.T) {
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0, 0.01}}
	z, ok := AutoFitZoom(b)
	require.True(t, ok)
	assert.Equal(t, 11, z)

	_, ok = AutoFitZoom(orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{1, 1}})
	assert.False(t, ok)

	z, _ = AutoFitZoom(orb.Bound{Min: orb.Point{-170, -80}, Max: orb.Point{170, 80}})
	assert.Equal(t, MinFitZoom, z)

	z, _ = AutoFitZoom(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0, 0.0000001}})
	assert.Equal(t, MaxFitZoom, z)
}

func TestAutoFitZoomLongitudeCorrection(t *testing.T) {
	// At 60 degrees a longitude span counts half.
	b := orb.Bound{Min: orb.Point{0, 60}, Max: orb.Point{0.02, 60}}
	z, ok := AutoFitZoom(b)
	require.True(t, ok)
	assert.Equal(t, 11, z)
}

func TestResolveView(t *testing.T) {
	fallback := orb.Point{-117.93, 33.64}
	one := []marker.Marker{{ID: "I0001", Lat: 10, Lng: 20}}
	two := []marker.Marker{{ID: "I0001", Lat: 0, Lng: 0}, {ID: "I0002", Lat: 0.01, Lng: 0}}
	same := []marker.Marker{{ID: "I0001", Lat: 5, Lng: 5}, {ID: "C0001", Lat: 5, Lng: 5}}

	v := ResolveView(two, fallback, 18.7, false)
	assert.Equal(t, View{Center: fallback, Zoom: 18}, v)

	v = ResolveView(nil, fallback, 16, true)
	assert.Equal(t, View{Center: fallback, Zoom: 16}, v)

	v = ResolveView(one, fallback, 16, true)
	assert.Equal(t, orb.Point{20, 10}, v.Center)
	assert.Equal(t, 16, v.Zoom)

	v = ResolveView(two, fallback, 16, true)
	assert.InDelta(t, 0.005, v.Center.Lat(), 1e-12)
	assert.Equal(t, 11, v.Zoom)

	v = ResolveView(same, fallback, 16, true)
	assert.Equal(t, MaxFitZoom, v.Zoom)
}

func TestProjectorCenterIsCanvasMiddle(t *testing.T) {
	p := Projector{View: View{Center: orb.Point{-117.93, 33.64}, Zoom: 18}, Width: 1200, Height: 800}
	x, y := p.Point(orb.Point{-117.93, 33.64})
	assert.Equal(t, 600.0, x)
	assert.Equal(t, 400.0, y)

	// East is right, north is up.
	x, y = p.Point(orb.Point{-117.929, 33.641})
	assert.Greater(t, x, 600.0)
	assert.Less(t, y, 400.0)
}

func TestProjectorTilesCoverCanvas(t *testing.T) {
	p := Projector{View: View{Center: orb.Point{0.001, 0.001}, Zoom: 5}, Width: 1200, Height: 800}
	tiles := p.Tiles()
	require.NotEmpty(t, tiles)
	minX, minY, maxX, maxY := 1<<30, 1<<30, -1<<30, -1<<30
	for _, pl := range tiles {
		assert.Equal(t, maptile.Zoom(5), pl.Tile.Z)
		minX, minY = min(minX, pl.X), min(minY, pl.Y)
		maxX, maxY = max(maxX, pl.X+DefaultTileSize), max(maxY, pl.Y+DefaultTileSize)
	}
	assert.LessOrEqual(t, minX, 0)
	assert.LessOrEqual(t, minY, 0)
	assert.GreaterOrEqual(t, maxX, 1200)
	assert.GreaterOrEqual(t, maxY, 800)
}

func TestProjectorTilesWrapAndClip(t *testing.T) {
	p := Projector{View: View{Center: orb.Point{0, 0}, Zoom: 0}, Width: 1200, Height: 800}
	for _, pl := range p.Tiles() {
		assert.Equal(t, uint32(0), pl.Tile.X)
		assert.Equal(t, uint32(0), pl.Tile.Y)
	}
}

func TestTileURL(t *testing.T) {
	assert.Equal(t, "https://x/3/1/2.png", TileURL("https://x/{z}/{x}/{y}.png", 3, 1, 2))
	assert.Equal(t, "https://x/3/2/1", TileURL("https://x/{z}/{y}/{x}", 3, 1, 2))
	assert.Equal(t, "https://a.t/0/0/0", TileURL("https://{s}.t/{z}/{x}/{y}", 0, 0, 0))
	assert.Equal(t, "https://b.t/1/1/0", TileURL("https://{s}.t/{z}/{x}/{y}", 1, 1, 0))
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, []string{"Street View", "Topographic", "Satellite", "Hybrid"}, c.Names())
	_, ok := c.Lookup(DefaultStyleName)
	assert.True(t, ok)
	for _, s := range c {
		assert.NoError(t, ValidateTemplate(s.URL), s.Name)
	}
	assert.Error(t, ValidateTemplate("https://example.com/tile.png"))
}

func TestRenderDrawsGlyphs(t *testing.T) {
	center := orb.Point{-117.93, 33.64}
	r := NewRenderer(boundedTiles{fill: color.White})
	img, err := r.Render(context.Background(), Request{
		Incidents: []marker.Marker{{ID: "I0001", Type: marker.KindIncident, Level: marker.LevelSerious, Lat: 33.64, Lng: -117.93}},
		Cameras:   []marker.Marker{{ID: "C0001", Type: marker.KindCamera, Level: marker.LevelFunctioning, Lat: 33.6405, Lng: -117.9295}},
		View:      View{Center: center, Zoom: 18},
		Width:     400,
		Height:    300,
	})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 300), img.Bounds())

	// Incident triangle centered on the canvas, interior pixel.
	r0, g0, b0, _ := img.At(200, 152).RGBA()
	assert.Equal(t, [3]uint32{0xdc, 0x35, 0x45}, [3]uint32{r0 >> 8, g0 >> 8, b0 >> 8})

	p := Projector{View: View{Center: center, Zoom: 18}, Width: 400, Height: 300, TileSize: DefaultTileSize}
	cx, cy := p.Point(orb.Point{-117.9295, 33.6405})
	r1, g1, b1, _ := img.At(int(cx), int(cy)).RGBA()
	assert.Equal(t, [3]uint32{0x28, 0xa7, 0x45}, [3]uint32{r1 >> 8, g1 >> 8, b1 >> 8})

	// Far corner keeps the tile color.
	r2, g2, b2, _ := img.At(2, 2).RGBA()
	assert.Equal(t, [3]uint32{0xff, 0xff, 0xff}, [3]uint32{r2 >> 8, g2 >> 8, b2 >> 8})
}

func TestRenderFailsWhenAnyTileFails(t *testing.T) {
	src := &solidTiles{fill: color.White, fail: true}
	r := NewRenderer(src)
	_, err := r.Render(context.Background(), Request{View: View{Center: orb.Point{0, 0}, Zoom: 10}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTileFetch))
	assert.Positive(t, src.calls.Load())

	_, err = (&Renderer{}).Render(context.Background(), Request{View: View{Zoom: 3}})
	assert.ErrorIs(t, err, ErrTileFetch)
}

func TestHTTPTiles(t *testing.T) {
	var tile bytes.Buffer
	require.NoError(t, png.Encode(&tile, image.NewRGBA(image.Rect(0, 0, 256, 256))))

	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.UserAgent())
		if r.URL.Path == "/3/1/2.png" {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(tile.Bytes())
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	h := NewHTTPTiles(srv.URL+"/{z}/{x}/{y}.png", "claimmap-test", time.Second)
	img, err := h.Tile(context.Background(), maptile.New(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, "claimmap-test", ua.Load())

	_, err = h.Tile(context.Background(), maptile.New(0, 0, 3))
	assert.ErrorIs(t, err, ErrTileFetch)
}

func TestSchematic(t *testing.T) {
	img, err := Schematic(
		[]marker.Marker{{ID: "I0001", Level: marker.LevelSerious, Lat: 33.64, Lng: -117.93}},
		[]marker.Marker{{ID: "C0001", Level: marker.LevelNotFunctioning, Lat: 33.641, Lng: -117.931}},
		600, 400,
	)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 400), img.Bounds())

	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, [3]uint32{0xf0, 0xf0, 0xf0}, [3]uint32{r >> 8, g >> 8, b >> 8})

	_, err = Schematic(nil, nil, 0, 0)
	assert.NoError(t, err)
}

func TestEncodePNG(t *testing.T) {
	b, err := EncodePNG(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
}

func TestGlyphColors(t *testing.T) {
	assert.Equal(t, ColorFunctioning, CameraColor(marker.LevelFunctioning))
	assert.Equal(t, ColorNotFunctioning, CameraColor(marker.LevelNotFunctioning))
	assert.Equal(t, ColorSerious, IncidentColor(marker.LevelSerious))
	assert.Equal(t, ColorMedium, IncidentColor(marker.LevelMedium))
	assert.Equal(t, ColorLight, IncidentColor(marker.LevelLight))
}
