package templates

import (
	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/report"
)

// MarkerList is the data for the "marker-list" fragment.
type MarkerList struct {
	Markers  []marker.Marker
	ActiveID string
}

// Empty holds the data for the "empty-state" fragment.
type Empty struct {
	Title   string
	Message string
}

// Page is the data for the "editor" page.
type Page struct {
	Title    string
	Styles   []string
	Style    string
	Signals  string // JSON object for data-signals
	Stats    report.Stats
	Markers  MarkerList
	Incident []string
}
