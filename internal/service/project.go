// Package service owns the editing session and the pipelines that read it:
// address search, CSV import, map snapshots, reports and analytics.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-claimmap/internal/csvimport"
	"github.com/joeblew999/plat-claimmap/internal/db"
	"github.com/joeblew999/plat-claimmap/internal/geocode"
	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/project"
	"github.com/joeblew999/plat-claimmap/internal/report"
	"github.com/joeblew999/plat-claimmap/internal/session"
	"github.com/joeblew999/plat-claimmap/internal/staticmap"
)

// SearchZoom is the zoom a successful address search jumps to.
const SearchZoom = 18

var (
	ErrUnknownStyle         = errors.New("unknown tile style")
	ErrAnalyticsUnavailable = errors.New("analytics database not available")
)

// TileFactory returns the tile source for a style.
type TileFactory func(staticmap.Style) staticmap.TileSource

// Options configures a ProjectService. Zero values fall back to the
// defaults of a new project at the default location.
type Options struct {
	Logger    zerolog.Logger
	Bus       *EventBus
	Geocoder  geocode.Geocoder
	Catalog   staticmap.Catalog
	Tiles     TileFactory
	Workers   int
	Assembler *report.Assembler
	Cache     *report.Cache
	Analytics *db.Analytics
	Center    [2]float64
	Zoom      float64
	Style     string
	Width     int
	Height    int
	Now       func() time.Time
}

// ProjectService applies user actions to one editing session. Every action
// runs to completion before the next one starts.
type ProjectService struct {
	mu    sync.Mutex
	state session.State

	log       zerolog.Logger
	bus       *EventBus
	geocoder  geocode.Geocoder
	catalog   staticmap.Catalog
	tiles     TileFactory
	workers   int
	assembler *report.Assembler
	cache     *report.Cache
	analytics *db.Analytics
	center    [2]float64
	zoom      float64
	style     string
	width     int
	height    int
	now       func() time.Time
	metrics   *metrics
}

// New creates a service holding a fresh default project.
func New(opts Options) (*ProjectService, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	s := &ProjectService{
		log:       opts.Logger.With().Str("component", "service").Logger(),
		bus:       opts.Bus,
		geocoder:  opts.Geocoder,
		catalog:   opts.Catalog,
		tiles:     opts.Tiles,
		workers:   opts.Workers,
		assembler: opts.Assembler,
		cache:     opts.Cache,
		analytics: opts.Analytics,
		center:    opts.Center,
		zoom:      opts.Zoom,
		style:     opts.Style,
		width:     opts.Width,
		height:    opts.Height,
		now:       opts.Now,
		metrics:   m,
	}
	if s.bus == nil {
		s.bus = NewEventBus()
	}
	if len(s.catalog) == 0 {
		s.catalog = staticmap.DefaultCatalog()
	}
	if s.style == "" {
		s.style = staticmap.DefaultStyleName
	}
	if _, ok := s.catalog.Lookup(s.style); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, s.style)
	}
	if s.center == ([2]float64{}) && s.zoom == 0 {
		s.center = [2]float64{33.645003281720776, -117.93291469288867}
		s.zoom = 18
	}
	if s.tiles == nil {
		s.tiles = func(st staticmap.Style) staticmap.TileSource {
			return staticmap.NewHTTPTiles(st.URL, "", 0)
		}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.assembler == nil {
		s.assembler = &report.Assembler{Logger: s.log}
	}
	s.state = session.New(uuid.NewString(), s.defaultProject(), s.style)
	return s, nil
}

// Bus returns the event bus changes are published on.
func (s *ProjectService) Bus() *EventBus { return s.bus }

// Catalog returns the available tile styles.
func (s *ProjectService) Catalog() staticmap.Catalog { return s.catalog }

func (s *ProjectService) today() string {
	return s.now().Format(project.DateLayout)
}

func (s *ProjectService) defaultProject() project.Project {
	return project.Default(s.now(), s.center, s.zoom)
}

// State returns the current session state.
func (s *ProjectService) State() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply reduces ev into the session. On error the session is unchanged.
func (s *ProjectService) Apply(ev session.Event) (session.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(ev)
}

func (s *ProjectService) applyLocked(ev session.Event) (session.State, error) {
	switch e := ev.(type) {
	case session.CreateFromDraft:
		if e.Today == "" {
			e.Today = s.today()
		}
		ev = e
	case session.SetStyle:
		if _, ok := s.catalog.Lookup(e.Style); !ok {
			return s.state, fmt.Errorf("%w: %q", ErrUnknownStyle, e.Style)
		}
	}

	prev := s.state
	next, err := session.Reduce(prev, ev)
	if err != nil {
		s.log.Debug().Err(err).Str("event", fmt.Sprintf("%T", ev)).Msg("action rejected")
		return prev, err
	}
	s.state = next
	s.log.Debug().Str("event", fmt.Sprintf("%T", ev)).Int("markers", len(next.Project.Markers)).Msg("action applied")
	for _, c := range changes(ev, prev, next) {
		s.bus.Publish(c)
	}
	return next, nil
}

// Click resolves a map click and applies it.
func (s *ProjectService) Click(lat, lng float64) (session.Resolution, session.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := session.LatLng{Lat: lat, Lng: lng}
	res := s.state.ResolveClick(p)
	st, err := s.applyLocked(session.MapClicked{Point: p})
	if err != nil {
		return session.Resolution{}, st, err
	}
	return res, st, nil
}

// Sync runs one render cycle with the feedback reported by the map.
func (s *ProjectService) Sync(fb *session.Feedback) (session.State, error) {
	return s.Apply(session.MapSynced{Feedback: fb})
}

// Search geocodes q and jumps to the result. Geocoder failures are not
// errors: they become the session status message.
func (s *ProjectService) Search(ctx context.Context, q string) (session.State, error) {
	var (
		res geocode.Result
		err error
	)
	if s.geocoder == nil {
		err = geocode.ErrService
	} else {
		res, err = s.geocoder.Search(ctx, q)
	}
	target := session.Viewport{Center: session.LatLng{Lat: res.Lat, Lng: res.Lng}, Zoom: SearchZoom}
	if err == nil && !target.Valid() {
		err = fmt.Errorf("%w: candidate %v,%v out of range", geocode.ErrService, res.Lat, res.Lng)
	}

	ev := session.SearchFinished{Status: geocode.Message(res, err)}
	if err != nil {
		attr := "error"
		if errors.Is(err, geocode.ErrNotFound) {
			attr = "not_found"
		}
		s.metrics.geocodeFails.Add(ctx, 1, withReason(attr))
		if !errors.Is(err, geocode.ErrNotFound) {
			s.log.Warn().Err(err).Str("query", q).Msg("geocode failed")
		}
	} else {
		ev.Target = &target
	}
	return s.Apply(ev)
}

// Import parses a CSV of the given kind and appends its rows. Rows without
// coordinates are placed at the center of the viewport being shown.
func (s *ProjectService) Import(kind marker.Kind, r io.Reader) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	center := s.state.View.Next().Center
	opts := csvimport.Options{CenterLat: center.Lat, CenterLng: center.Lng, Today: s.today()}
	var (
		drafts []marker.Marker
		err    error
	)
	switch kind {
	case marker.KindCamera:
		drafts, err = csvimport.Cameras(r, opts)
	case marker.KindIncident:
		drafts, err = csvimport.Incidents(r, opts)
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", marker.ErrInvalid, kind)
	}
	if err != nil {
		return 0, err
	}
	if _, err := s.applyLocked(session.ImportMarkers{Kind: kind, Drafts: drafts}); err != nil {
		return 0, err
	}
	return len(drafts), nil
}

// Save serializes the project as it would be written to disk.
func (s *ProjectService) Save() ([]byte, string, error) {
	snap := s.State().Snapshot()
	var buf bytes.Buffer
	if err := project.Encode(&buf, snap); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), snap.Filename(), nil
}

// Load replaces the project with the one read from r.
func (s *ProjectService) Load(r io.Reader) (session.State, error) {
	p, err := project.Decode(r, s.defaultProject())
	if err != nil {
		return s.State(), err
	}
	return s.Apply(session.LoadProject{Project: p})
}

// Reset starts a new default project.
func (s *ProjectService) Reset() (session.State, error) {
	return s.Apply(session.NewProject{Project: s.defaultProject(), Style: s.style})
}

// Stats summarizes the current markers.
func (s *ProjectService) Stats() report.Stats {
	return report.Compute(s.State().Markers())
}

// GeoJSON exports the markers as a feature collection.
func (s *ProjectService) GeoJSON() *geojson.FeatureCollection {
	return project.FeatureCollection(s.State().Markers())
}

// Query runs SQL against a fresh copy of the markers.
func (s *ProjectService) Query(ctx context.Context, q string) (db.Result, error) {
	if s.analytics == nil {
		return db.Result{}, ErrAnalyticsUnavailable
	}
	return s.analytics.Query(ctx, s.State().Markers(), q)
}

// Tables lists analytics tables after loading the current markers.
func (s *ProjectService) Tables(ctx context.Context) ([]string, error) {
	if s.analytics == nil {
		return nil, ErrAnalyticsUnavailable
	}
	if err := s.analytics.Load(ctx, s.State().Markers()); err != nil {
		return nil, err
	}
	return s.analytics.Tables(ctx)
}

// changes lists the bus events a committed action produces.
func changes(ev session.Event, prev, next session.State) []Event {
	var out []Event
	add := func(resource, action string, ids ...string) {
		out = append(out, Event{Resource: resource, Action: action, IDs: ids})
	}
	switch e := ev.(type) {
	case session.SetLock:
		action := "unlocked"
		if e.Locked {
			action = "locked"
		}
		add(ResourceView, action)
	case session.MapClicked, session.SelectMarker, session.ClearSelection, session.CancelDraft:
		add(ResourceSelection, "updated", next.ActiveID)
	case session.MapSynced, session.JumpRequested:
		add(ResourceView, "updated")
	case session.CreateFromDraft:
		m := next.Project.Markers[len(next.Project.Markers)-1]
		add(ResourceMarkers, "created", m.ID)
	case session.UpdateMarker:
		add(ResourceMarkers, "updated", e.ID)
	case session.DeleteMarkers:
		add(ResourceMarkers, "deleted", e.IDs...)
	case session.ImportMarkers:
		ids := make([]string, 0, len(e.Drafts))
		for _, m := range next.Project.Markers[len(prev.Project.Markers):] {
			ids = append(ids, m.ID)
		}
		add(ResourceMarkers, "created", ids...)
	case session.LoadProject, session.NewProject:
		add(ResourceProject, "replaced")
		add(ResourceMarkers, "replaced")
		add(ResourceView, "updated")
	case session.SetProjectInfo:
		add(ResourceProject, "updated")
	case session.SetStyle:
		add(ResourceView, "styled")
	case session.SearchFinished:
		add(ResourceStatus, "updated")
		if e.Target != nil {
			add(ResourceView, "updated")
		}
	}
	return out
}
