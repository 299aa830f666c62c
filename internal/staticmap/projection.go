package staticmap

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// DefaultTileSize is the pixel size of a standard raster tile.
const DefaultTileSize = 256

// Projector maps geographic points to canvas pixels for a view rendered at
// Width x Height with the view center in the middle of the canvas.
type Projector struct {
	View     View
	Width    int
	Height   int
	TileSize int
}

// centerTile returns the fractional tile coordinates of the view center.
func (p Projector) centerTile() orb.Point {
	return maptile.Fraction(p.View.Center, maptile.Zoom(p.View.Zoom))
}

func (p Projector) tileSize() float64 {
	if p.TileSize <= 0 {
		return DefaultTileSize
	}
	return float64(p.TileSize)
}

// Point returns the pixel position of ll, rounded to whole pixels.
func (p Projector) Point(ll orb.Point) (x, y float64) {
	ts := p.tileSize()
	c := p.centerTile()
	f := maptile.Fraction(ll, maptile.Zoom(p.View.Zoom))
	x = (f[0]-c[0])*ts + float64(p.Width)/2
	y = (f[1]-c[1])*ts + float64(p.Height)/2
	return math.Round(x), math.Round(y)
}

// Placement is one tile and the canvas offset of its top-left corner.
type Placement struct {
	Tile maptile.Tile
	X, Y int
}

// Tiles lists the tiles covering the canvas. Columns wrap around the
// antimeridian; rows outside the world are skipped.
func (p Projector) Tiles() []Placement {
	ts := p.tileSize()
	c := p.centerTile()
	halfW := float64(p.Width) / 2 / ts
	halfH := float64(p.Height) / 2 / ts

	x0, x1 := int(math.Floor(c[0]-halfW)), int(math.Floor(c[0]+halfW))
	y0, y1 := int(math.Floor(c[1]-halfH)), int(math.Floor(c[1]+halfH))
	n := 1 << uint(p.View.Zoom)

	var out []Placement
	for ty := y0; ty <= y1; ty++ {
		if ty < 0 || ty >= n {
			continue
		}
		for tx := x0; tx <= x1; tx++ {
			wx := ((tx % n) + n) % n
			out = append(out, Placement{
				Tile: maptile.New(uint32(wx), uint32(ty), maptile.Zoom(p.View.Zoom)),
				X:    int(math.Round((float64(tx)-c[0])*ts + float64(p.Width)/2)),
				Y:    int(math.Round((float64(ty)-c[1])*ts + float64(p.Height)/2)),
			})
		}
	}
	return out
}
