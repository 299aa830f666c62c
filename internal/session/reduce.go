package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/project"
)

var (
	ErrNoDraft         = errors.New("no draft marker")
	ErrUnknownMarker   = errors.New("unknown marker")
	ErrInvalidViewport = errors.New("invalid viewport")
	ErrInvalidInput    = errors.New("invalid input")
)

// Event is a user action or collaborator result applied by Reduce.
type Event interface{ event() }

// SetLock freezes or unfreezes the map. Unlocking discards the draft.
type SetLock struct{ Locked bool }

// MapClicked is a click on the interactive map.
type MapClicked struct{ Point LatLng }

// MapSynced is one render cycle. Feedback is nil when the map reported nothing.
type MapSynced struct{ Feedback *Feedback }

// JumpRequested moves the map on the next render cycle.
type JumpRequested struct{ Target Viewport }

// SelectMarker selects a marker by ID.
type SelectMarker struct{ ID string }

// ClearSelection drops the selection.
type ClearSelection struct{}

// CreateFromDraft commits the draft as a new marker. Today stamps cameras
// and incidents without a date.
type CreateFromDraft struct {
	Kind          marker.Kind
	Level         marker.Level
	Date          string
	Description   string
	Parties       string
	ClaimFiled    bool
	PremiumImpact bool
	Compensation  float64
	Today         string
}

// CancelDraft discards the draft.
type CancelDraft struct{}

// UpdateMarker edits the mutable attributes of one marker.
type UpdateMarker struct {
	ID    string
	Patch marker.Patch
}

// DeleteMarkers removes markers. Unknown IDs reject the whole event.
type DeleteMarkers struct{ IDs []string }

// ImportMarkers appends imported markers, allocating IDs in order. Drafts
// carry every attribute except the ID.
type ImportMarkers struct {
	Kind   marker.Kind
	Drafts []marker.Marker
}

// LoadProject replaces the project and jumps to its viewport.
type LoadProject struct{ Project project.Project }

// NewProject resets to a default project and style.
type NewProject struct {
	Project project.Project
	Style   string
}

// SetProjectInfo edits the report metadata. Nil fields are untouched.
type SetProjectInfo struct {
	Name     *string
	Property *string
	Year     *string
	Author   *string
	Date     *string
}

// SetStyle selects a tile style.
type SetStyle struct{ Style string }

// SearchFinished records a geocoder outcome. A non-nil Target jumps there.
type SearchFinished struct {
	Status string
	Target *Viewport
}

func (SetLock) event()         {}
func (MapClicked) event()      {}
func (MapSynced) event()       {}
func (JumpRequested) event()   {}
func (SelectMarker) event()    {}
func (ClearSelection) event()  {}
func (CreateFromDraft) event() {}
func (CancelDraft) event()     {}
func (UpdateMarker) event()    {}
func (DeleteMarkers) event()   {}
func (ImportMarkers) event()   {}
func (LoadProject) event()     {}
func (NewProject) event()      {}
func (SetProjectInfo) event()  {}
func (SetStyle) event()        {}
func (SearchFinished) event()  {}

// Reduce applies ev to s. On error the returned State is s unchanged.
func Reduce(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case SetLock:
		s.MapLocked = e.Locked
		if !e.Locked {
			s.Draft = nil
		}
		return s, nil

	case MapClicked:
		if !e.Point.Valid() {
			return s, fmt.Errorf("%w: click %v", ErrInvalidInput, e.Point)
		}
		res := s.ResolveClick(e.Point)
		switch res.Outcome {
		case OutcomeSelect:
			s.ActiveID = res.MarkerID
			s.Draft = nil
		case OutcomeDraft:
			p := e.Point
			s.Draft = &p
			s.LastClick = &p
			s.ActiveID = ""
		}
		return s, nil

	case MapSynced:
		if e.Feedback != nil && !e.Feedback.Valid() {
			return s, fmt.Errorf("%w: %+v", ErrInvalidViewport, *e.Feedback)
		}
		s.View = s.View.Reconcile(e.Feedback)
		s.Project.MapConfig = s.View.Persisted.MapConfig(s.Project.MapConfig.SourceType)
		return s, nil

	case JumpRequested:
		if !e.Target.Valid() {
			return s, fmt.Errorf("%w: %+v", ErrInvalidViewport, e.Target)
		}
		s.View = s.View.RequestJump(e.Target)
		s.Project.MapConfig = s.View.Persisted.MapConfig(s.Project.MapConfig.SourceType)
		return s, nil

	case SelectMarker:
		if marker.Index(s.Project.Markers, e.ID) < 0 {
			return s, fmt.Errorf("%w: %s", ErrUnknownMarker, e.ID)
		}
		s.ActiveID = e.ID
		s.Draft = nil
		return s, nil

	case ClearSelection:
		s.ActiveID = ""
		return s, nil

	case CreateFromDraft:
		return createFromDraft(s, e)

	case CancelDraft:
		s.Draft = nil
		return s, nil

	case UpdateMarker:
		i := marker.Index(s.Project.Markers, e.ID)
		if i < 0 {
			return s, fmt.Errorf("%w: %s", ErrUnknownMarker, e.ID)
		}
		if e.Patch.Description != nil && !marker.IsIncidentType(*e.Patch.Description) {
			return s, fmt.Errorf("%w: unknown incident type %q", marker.ErrInvalid, *e.Patch.Description)
		}
		updated, err := s.Project.Markers[i].Apply(e.Patch)
		if err != nil {
			return s, err
		}
		markers := append([]marker.Marker(nil), s.Project.Markers...)
		markers[i] = updated
		s.Project.Markers = markers
		return s, nil

	case DeleteMarkers:
		return deleteMarkers(s, e.IDs)

	case ImportMarkers:
		return importMarkers(s, e)

	case LoadProject:
		if err := e.Project.Validate(); err != nil {
			return s, err
		}
		return replaceProject(s, e.Project), nil

	case NewProject:
		s = replaceProject(s, e.Project)
		if e.Style != "" {
			s.Style = e.Style
		}
		s.Status = ""
		return s, nil

	case SetProjectInfo:
		if e.Name != nil {
			s.Project.Name = *e.Name
		}
		if e.Property != nil {
			s.Project.Property = *e.Property
		}
		if e.Year != nil {
			s.Project.Year = project.Year(*e.Year)
		}
		if e.Author != nil {
			s.Project.Author = *e.Author
		}
		if e.Date != nil {
			s.Project.Date = *e.Date
		}
		return s, nil

	case SetStyle:
		if strings.TrimSpace(e.Style) == "" {
			return s, fmt.Errorf("%w: empty style", ErrInvalidInput)
		}
		s.Style = e.Style
		return s, nil

	case SearchFinished:
		if e.Target != nil {
			next, err := Reduce(s, JumpRequested{Target: *e.Target})
			if err != nil {
				return s, err
			}
			s = next
		}
		s.Status = e.Status
		return s, nil
	}
	return s, fmt.Errorf("%w: unsupported event %T", ErrInvalidInput, ev)
}

func createFromDraft(s State, e CreateFromDraft) (State, error) {
	if s.Draft == nil {
		return s, ErrNoDraft
	}
	d := *s.Draft
	id := marker.NextID(s.Project.Markers, e.Kind)

	var (
		m   marker.Marker
		err error
	)
	switch e.Kind {
	case marker.KindIncident:
		if !marker.IsIncidentType(e.Description) {
			return s, fmt.Errorf("%w: unknown incident type %q", marker.ErrInvalid, e.Description)
		}
		date := e.Date
		if date == "" {
			date = e.Today
		}
		m, err = marker.NewIncident(id, marker.IncidentInput{
			Lat:           d.Lat,
			Lng:           d.Lng,
			Level:         e.Level,
			Date:          date,
			Parties:       e.Parties,
			ClaimFiled:    e.ClaimFiled,
			PremiumImpact: e.PremiumImpact,
			Description:   e.Description,
			Compensation:  e.Compensation,
		})
	case marker.KindCamera:
		m, err = marker.NewCamera(id, marker.CameraInput{
			Lat:   d.Lat,
			Lng:   d.Lng,
			Level: e.Level,
			Date:  e.Today,
		})
	default:
		return s, fmt.Errorf("%w: unknown kind %q", marker.ErrInvalid, e.Kind)
	}
	if err != nil {
		return s, err
	}

	s.Project.Markers = appendMarkers(s.Project.Markers, m)
	s.Draft = nil
	return s, nil
}

func deleteMarkers(s State, ids []string) (State, error) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if marker.Index(s.Project.Markers, id) < 0 {
			return s, fmt.Errorf("%w: %s", ErrUnknownMarker, id)
		}
		drop[id] = struct{}{}
	}
	kept := make([]marker.Marker, 0, len(s.Project.Markers))
	for _, m := range s.Project.Markers {
		if _, ok := drop[m.ID]; !ok {
			kept = append(kept, m)
		}
	}
	s.Project.Markers = kept
	if _, ok := drop[s.ActiveID]; ok {
		s.ActiveID = ""
	}
	return s, nil
}

func importMarkers(s State, e ImportMarkers) (State, error) {
	if !e.Kind.Valid() {
		return s, fmt.Errorf("%w: unknown kind %q", marker.ErrInvalid, e.Kind)
	}
	ids := marker.NextIDs(s.Project.Markers, e.Kind, len(e.Drafts))
	added := make([]marker.Marker, len(e.Drafts))
	for i, d := range e.Drafts {
		d.ID = ids[i]
		d.Type = e.Kind
		if err := d.Validate(); err != nil {
			return s, fmt.Errorf("row %d: %w", i+1, err)
		}
		added[i] = d
	}
	s.Project.Markers = appendMarkers(s.Project.Markers, added...)
	return s, nil
}

func replaceProject(s State, p project.Project) State {
	p = p.Clone()
	s.Project = p
	s.ActiveID = ""
	s.Draft = nil
	s.View = s.View.RequestJump(ViewportFromConfig(p.MapConfig))
	return s
}

func appendMarkers(base []marker.Marker, add ...marker.Marker) []marker.Marker {
	out := make([]marker.Marker, 0, len(base)+len(add))
	out = append(out, base...)
	return append(out, add...)
}
