package staticmap

import (
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/joeblew999/plat-claimmap/internal/marker"
)

// Schematic colors. Cameras here are green or gray and light incidents are
// green, unlike the tile glyphs.
const (
	schematicFigure   = "#f0f0f0"
	schematicAxes     = "#e8e8e8"
	schematicGrid     = "#ffffff"
	schematicCameraOn = "#28a745"
	schematicCameraNo = "#6c757d"
	schematicLight    = "#28a745"
)

const (
	schematicTitle = "Property Overview (Schematic)"
	gridLines      = 5
)

func schematicIncidentColor(l marker.Level) string {
	switch l {
	case marker.LevelSerious:
		return ColorSerious
	case marker.LevelMedium:
		return ColorMedium
	}
	return schematicLight
}

func face(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// Schematic draws markers as a longitude/latitude scatter plot. It needs no
// network and is used when tile composition fails.
func Schematic(incidents, cameras []marker.Marker, width, height int) (*image.RGBA, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	labelFace, err := face(12)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	titleFace, err := face(18)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	dc := gg.NewContextForRGBA(img)
	dc.SetHexColor(schematicFigure)
	dc.Clear()

	left, top := 90.0, 60.0
	right, bottom := float64(width)-30, float64(height)-70
	dc.SetHexColor(schematicAxes)
	dc.DrawRectangle(left, top, right-left, bottom-top)
	dc.Fill()

	all := append(append([]marker.Marker{}, incidents...), cameras...)
	minLng, maxLng, minLat, maxLat := extent(all)
	sx := func(lng float64) float64 { return left + (lng-minLng)/(maxLng-minLng)*(right-left) }
	sy := func(lat float64) float64 { return bottom - (lat-minLat)/(maxLat-minLat)*(bottom-top) }

	dc.SetFontFace(labelFace)
	dc.SetLineWidth(1)
	for i := 0; i <= gridLines; i++ {
		t := float64(i) / gridLines
		x := left + t*(right-left)
		y := bottom - t*(bottom-top)
		dc.SetHexColor(schematicGrid)
		dc.DrawLine(x, top, x, bottom)
		dc.DrawLine(left, y, right, y)
		dc.Stroke()
		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawStringAnchored(fmt.Sprintf("%.4f", minLng+t*(maxLng-minLng)), x, bottom+8, 0.5, 1)
		dc.DrawStringAnchored(fmt.Sprintf("%.4f", minLat+t*(maxLat-minLat)), left-6, y, 1, 0.5)
	}
	dc.SetRGB(0, 0, 0)
	dc.DrawRectangle(left, top, right-left, bottom-top)
	dc.Stroke()

	dc.DrawStringAnchored("Longitude", (left+right)/2, float64(height)-24, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(-math.Pi/2, 20, (top+bottom)/2)
	dc.DrawStringAnchored("Latitude", 20, (top+bottom)/2, 0.5, 0.5)
	dc.Pop()
	dc.SetFontFace(titleFace)
	dc.DrawStringAnchored(schematicTitle, float64(width)/2, top/2, 0.5, 0.5)
	dc.SetFontFace(labelFace)

	for _, c := range cameras {
		fill := schematicCameraNo
		if c.Level == marker.LevelFunctioning {
			fill = schematicCameraOn
		}
		drawSquare(dc, sx(c.Lng), sy(c.Lat), 10, fill)
	}
	for _, in := range incidents {
		x, y := sx(in.Lng), sy(in.Lat)
		dc.DrawCircle(x, y, 6)
		dc.SetHexColor(schematicIncidentColor(in.Level))
		dc.FillPreserve()
		dc.SetRGB(0, 0, 0)
		dc.Stroke()
		dc.DrawStringAnchored(in.ID, x, y-6-5, 0.5, 0)
	}
	return img, nil
}

// extent returns the plotted range with a margin. An empty or degenerate
// range is widened so the scales stay finite.
func extent(ms []marker.Marker) (minLng, maxLng, minLat, maxLat float64) {
	if len(ms) == 0 {
		return -1, 1, -1, 1
	}
	minLng, maxLng = ms[0].Lng, ms[0].Lng
	minLat, maxLat = ms[0].Lat, ms[0].Lat
	for _, m := range ms[1:] {
		minLng = math.Min(minLng, m.Lng)
		maxLng = math.Max(maxLng, m.Lng)
		minLat = math.Min(minLat, m.Lat)
		maxLat = math.Max(maxLat, m.Lat)
	}
	pad := func(lo, hi float64) (float64, float64) {
		d := (hi - lo) * 0.1
		if d == 0 {
			d = 0.0005
		}
		return lo - d, hi + d
	}
	minLng, maxLng = pad(minLng, maxLng)
	minLat, maxLat = pad(minLat, maxLat)
	return
}
