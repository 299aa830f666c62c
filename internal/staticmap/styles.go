// Package staticmap renders marker snapshots on top of slippy-map tiles.
package staticmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Style is a named tile source URL template. Templates may use {z}, {x},
// {y} in any order and {s} for a rotating subdomain.
type Style struct {
	Name string `json:"name" doc:"Style name" example:"Hybrid"`
	URL  string `json:"url" doc:"Tile URL template"`
}

// Catalog is an ordered set of styles.
type Catalog []Style

// DefaultStyleName is selected for new projects.
const DefaultStyleName = "Hybrid"

// DefaultCatalog returns the built-in styles.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "Street View", URL: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"},
		{Name: "Topographic", URL: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Topo_Map/MapServer/tile/{z}/{y}/{x}"},
		{Name: "Satellite", URL: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}"},
		{Name: "Hybrid", URL: "https://mt1.google.com/vt/lyrs=y&x={x}&y={y}&z={z}"},
	}
}

// Lookup returns the style with the given name.
func (c Catalog) Lookup(name string) (Style, bool) {
	for _, s := range c {
		if s.Name == name {
			return s, true
		}
	}
	return Style{}, false
}

// Names lists style names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name
	}
	return names
}

var subdomains = []string{"a", "b", "c"}

// TileURL expands a template for one tile.
func TileURL(tmpl string, z, x, y int) string {
	i := (x + y) % len(subdomains)
	if i < 0 {
		i = -i
	}
	sub := subdomains[i]
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
		"{s}", sub,
	)
	return r.Replace(tmpl)
}

// ValidateTemplate checks that a template addresses individual tiles.
func ValidateTemplate(tmpl string) error {
	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(tmpl, p) {
			return fmt.Errorf("tile template %q lacks %s", tmpl, p)
		}
	}
	return nil
}
