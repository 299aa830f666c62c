// Package session models one user's editing session as an immutable State
// advanced by Events through Reduce.
package session

import (
	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/project"
)

// State is everything one editing session holds. Values are treated as
// immutable: Reduce returns a new State and never writes through shared
// slices or pointers.
type State struct {
	ID        string          `json:"id" doc:"Session identifier"`
	Project   project.Project `json:"project" doc:"Current project"`
	View      ViewportState   `json:"view" doc:"Viewport reconciliation state"`
	Draft     *LatLng         `json:"draft,omitempty" doc:"Uncommitted marker position"`
	ActiveID  string          `json:"activeId,omitempty" doc:"Selected marker"`
	MapLocked bool            `json:"mapLocked" doc:"Whether clicks place new markers"`
	LastClick *LatLng         `json:"lastClick,omitempty" doc:"Last click that created a draft"`
	Style     string          `json:"style" doc:"Selected tile style"`
	Status    string          `json:"status,omitempty" doc:"Last user-facing status message"`
}

// New starts a session on p, using the project's viewport as the persisted one.
func New(id string, p project.Project, style string) State {
	p = p.Clone()
	return State{
		ID:      id,
		Project: p,
		View:    NewViewportState(ViewportFromConfig(p.MapConfig)),
		Style:   style,
	}
}

// Markers returns the marker list. Callers must not modify it.
func (s State) Markers() []marker.Marker { return s.Project.Markers }

// Active returns the selected marker, if any.
func (s State) Active() (marker.Marker, bool) {
	if s.ActiveID == "" {
		return marker.Marker{}, false
	}
	i := marker.Index(s.Project.Markers, s.ActiveID)
	if i < 0 {
		return marker.Marker{}, false
	}
	return s.Project.Markers[i], true
}

// Snapshot returns the project as it would be saved: a deep copy whose map
// config is the persisted viewport.
func (s State) Snapshot() project.Project {
	p := s.Project.Clone()
	p.MapConfig = s.View.Persisted.MapConfig(p.MapConfig.SourceType)
	return p
}

// ClickContext returns the context a click is resolved against. The live
// zoom is used since that is what the user is looking at.
func (s State) ClickContext() ClickContext {
	return ClickContext{
		Zoom:      s.View.Live.Zoom,
		Locked:    s.MapLocked,
		ActiveID:  s.ActiveID,
		LastClick: s.LastClick,
	}
}

// ResolveClick resolves a click against the current state.
func (s State) ResolveClick(p LatLng) Resolution {
	return Resolve(s.Project.Markers, p, s.ClickContext())
}
