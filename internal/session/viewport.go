package session

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-claimmap/internal/project"
)

// MaxZoom is the deepest zoom the interactive map allows.
const MaxZoom = 22

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat" minimum:"-90" maximum:"90" doc:"Latitude"`
	Lng float64 `json:"lng" minimum:"-180" maximum:"180" doc:"Longitude"`
}

// Point converts to an orb point, which is ordered [lng, lat].
func (p LatLng) Point() orb.Point { return orb.Point{p.Lng, p.Lat} }

// Valid reports whether the coordinate is finite and in range.
func (p LatLng) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Viewport is a map center plus zoom level.
type Viewport struct {
	Center LatLng  `json:"center" doc:"Map center"`
	Zoom   float64 `json:"zoom" minimum:"0" maximum:"22" doc:"Zoom level, may be fractional"`
}

// Valid reports whether the viewport can be rendered.
func (v Viewport) Valid() bool {
	return v.Center.Valid() && !math.IsNaN(v.Zoom) && v.Zoom >= 0 && v.Zoom <= MaxZoom
}

// ViewportFromConfig converts the persisted project form.
func ViewportFromConfig(mc project.MapConfig) Viewport {
	return Viewport{Center: LatLng{Lat: mc.Center[0], Lng: mc.Center[1]}, Zoom: mc.Zoom}
}

// MapConfig converts back to the project form, keeping the source type.
func (v Viewport) MapConfig(sourceType string) project.MapConfig {
	if sourceType == "" {
		sourceType = project.SourceTypeMapAPI
	}
	return project.MapConfig{
		Center:     [2]float64{v.Center.Lat, v.Center.Lng},
		Zoom:       v.Zoom,
		SourceType: sourceType,
	}
}

// Source tells where the live viewport came from.
type Source string

const (
	SourcePersisted Source = "persisted"
	SourceLive      Source = "live"
	SourceJump      Source = "jump-requested"
)

// Feedback is the viewport reported back by the interactive map after the
// user panned or zoomed. Generation is the render generation the reporting
// widget was mounted with.
type Feedback struct {
	Viewport
	Generation int `json:"generation" doc:"Render generation of the reporting map"`
}

// ViewportState reconciles the live map viewport with the persisted project
// viewport and pending jump requests.
type ViewportState struct {
	Live       Viewport  `json:"live" doc:"Viewport to render"`
	Persisted  Viewport  `json:"persisted" doc:"Viewport written on save"`
	Pending    *Viewport `json:"pending,omitempty" doc:"Jump target waiting for the next render cycle"`
	Generation int       `json:"generation" doc:"Bumped whenever the map must be remounted"`
	Source     Source    `json:"source" enum:"persisted,live,jump-requested" doc:"Origin of the live viewport"`
}

// NewViewportState starts from a persisted viewport.
func NewViewportState(persisted Viewport) ViewportState {
	return ViewportState{Live: persisted, Persisted: persisted, Source: SourcePersisted}
}

// RequestJump schedules target for the next render cycle. The persisted
// viewport moves immediately so a save in between captures the target.
func (v ViewportState) RequestJump(target Viewport) ViewportState {
	t := target
	v.Pending = &t
	v.Persisted = target
	return v
}

// Reconcile runs one render cycle. A pending jump wins over feedback from
// the same cycle and bumps the generation exactly once. Otherwise feedback
// from the current generation updates both live and persisted viewports;
// feedback from an older generation is stale and dropped.
func (v ViewportState) Reconcile(fb *Feedback) ViewportState {
	if v.Pending != nil {
		target := *v.Pending
		v.Live = target
		v.Persisted = target
		v.Pending = nil
		v.Generation++
		v.Source = SourceJump
		return v
	}
	if fb != nil && fb.Generation >= v.Generation {
		v.Live = fb.Viewport
		v.Persisted = fb.Viewport
		v.Source = SourceLive
		return v
	}
	if v.Source == "" {
		v.Live = v.Persisted
		v.Source = SourcePersisted
	}
	return v
}

// Next is the viewport the next render cycle shows: the pending jump target
// if there is one, the live viewport otherwise.
func (v ViewportState) Next() Viewport {
	if v.Pending != nil {
		return *v.Pending
	}
	return v.Live
}

// JumpPending reports whether a jump waits for the next cycle.
func (v ViewportState) JumpPending() bool { return v.Pending != nil }
