package staticmap

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/project"
)

// Zoom bounds used by auto-fit.
const (
	MinFitZoom = 2
	MaxFitZoom = 18
)

// View is a resolved render center and integer tile zoom.
type View struct {
	Center orb.Point
	Zoom   int
}

// AutoFitZoom derives a zoom from the bounding box of the markers. The
// longitude span is scaled by cos(latitude) for meridian convergence. It
// returns false when the box has no extent.
func AutoFitZoom(b orb.Bound) (int, bool) {
	center := b.Center()
	latSpan := b.Max.Lat() - b.Min.Lat()
	lngSpan := (b.Max.Lon() - b.Min.Lon()) * math.Cos(center.Lat()*math.Pi/180)
	span := math.Max(latSpan, lngSpan)
	if span <= 0 || math.IsNaN(span) {
		return 0, false
	}
	z := int(math.Floor(math.Log2(360/span))) - 4
	return clampInt(z, MinFitZoom, MaxFitZoom), true
}

// ResolveView picks the render center and zoom. With autoFit and at least
// one marker the view frames the markers. A single marker keeps the
// fallback zoom; several markers on the same spot use MaxFitZoom.
// Fractional zoom is truncated for tile math.
func ResolveView(markers []marker.Marker, fallbackCenter orb.Point, fallbackZoom float64, autoFit bool) View {
	v := View{Center: fallbackCenter, Zoom: TileZoom(fallbackZoom)}
	if !autoFit {
		return v
	}
	b, ok := project.Bound(markers)
	if !ok {
		return v
	}
	v.Center = b.Center()
	if len(markers) == 1 {
		return v
	}
	if z, ok := AutoFitZoom(b); ok {
		v.Zoom = z
	} else {
		v.Zoom = MaxFitZoom
	}
	return v
}

// TileZoom truncates an interactive zoom level to a tile zoom.
func TileZoom(z float64) int {
	if math.IsNaN(z) || z < 0 {
		return 0
	}
	return clampInt(int(z), 0, 22)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
