package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-claimmap/internal/csvimport"
	"github.com/joeblew999/plat-claimmap/internal/geocode"
	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/project"
	"github.com/joeblew999/plat-claimmap/internal/report"
	"github.com/joeblew999/plat-claimmap/internal/session"
	"github.com/joeblew999/plat-claimmap/internal/staticmap"
)

type fakeGeocoder struct {
	res geocode.Result
	err error
}

func (f fakeGeocoder) Search(_ context.Context, _ string) (geocode.Result, error) {
	return f.res, f.err
}

type tileImage struct{ *image.Uniform }

func (tileImage) Bounds() image.Rectangle { return image.Rect(0, 0, 256, 256) }

type fakeTiles struct {
	fail  bool
	calls *atomic.Int32
}

func (f fakeTiles) Tile(_ context.Context, _ maptile.Tile) (image.Image, error) {
	f.calls.Add(1)
	if f.fail {
		return nil, staticmap.ErrTileFetch
	}
	return tileImage{image.NewUniform(color.White)}, nil
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, mutate ...func(*Options)) (*ProjectService, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	opts := Options{
		Logger:   zerolog.Nop(),
		Geocoder: fakeGeocoder{res: geocode.Result{Lat: 40.7, Lng: -74.0, Address: "New York"}},
		Tiles:    func(staticmap.Style) staticmap.TileSource { return fakeTiles{calls: calls} },
		Cache:    report.NewCache(4, time.Minute),
		Width:    320,
		Height:   240,
		Now:      func() time.Time { return fixedNow },
		Assembler: &report.Assembler{
			FontDir:    t.TempDir(),
			FontFamily: "Aptos",
			Logger:     zerolog.Nop(),
		},
	}
	for _, m := range mutate {
		m(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s, calls
}

func TestNewDefaults(t *testing.T) {
	s, _ := newTestService(t)
	st := s.State()
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, staticmap.DefaultStyleName, st.Style)
	assert.Equal(t, 18.0, st.View.Live.Zoom)
	assert.InDelta(t, 33.645003281720776, st.View.Live.Center.Lat, 1e-12)
	assert.Equal(t, "2025-06-01", st.Project.Date)

	_, err := New(Options{Style: "Nope"})
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

func TestClickCreateAndPublish(t *testing.T) {
	s, _ := newTestService(t)
	ch := s.Bus().Subscribe()
	defer s.Bus().Unsubscribe(ch)

	_, err := s.Apply(session.SetLock{Locked: true})
	require.NoError(t, err)
	res, st, err := s.Click(33.6, -117.9)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeDraft, res.Outcome)
	require.NotNil(t, st.Draft)

	st, err = s.Apply(session.CreateFromDraft{Kind: marker.KindCamera, Level: marker.LevelFunctioning})
	require.NoError(t, err)
	require.Len(t, st.Markers(), 1)
	assert.Equal(t, "C0001", st.Markers()[0].ID)
	assert.Equal(t, "2025-06-01", st.Markers()[0].Date)

	var got []Event
	for len(ch) > 0 {
		got = append(got, <-ch)
	}
	require.Len(t, got, 3)
	assert.Equal(t, Event{Resource: ResourceMarkers, Action: "created", IDs: []string{"C0001"}}, got[2])

	res, _, err = s.Click(33.6, -117.9)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeSelect, res.Outcome)
	assert.Equal(t, "C0001", s.State().ActiveID)
}

func TestApplyRejectsUnknownStyle(t *testing.T) {
	s, _ := newTestService(t)
	before := s.State()
	_, err := s.Apply(session.SetStyle{Style: "Watercolor"})
	assert.ErrorIs(t, err, ErrUnknownStyle)
	assert.Equal(t, before, s.State())

	st, err := s.Apply(session.SetStyle{Style: "Satellite"})
	require.NoError(t, err)
	assert.Equal(t, "Satellite", st.Style)
}

func TestSearch(t *testing.T) {
	s, _ := newTestService(t)
	st, err := s.Search(context.Background(), "new york")
	require.NoError(t, err)
	assert.Equal(t, "Found: New York", st.Status)
	require.True(t, st.View.JumpPending())

	st, err = s.Sync(&session.Feedback{Viewport: session.Viewport{Center: session.LatLng{Lat: 1, Lng: 1}, Zoom: 3}})
	require.NoError(t, err)
	assert.Equal(t, 40.7, st.View.Live.Center.Lat)
	assert.Equal(t, float64(SearchZoom), st.View.Live.Zoom)
	assert.Equal(t, [2]float64{40.7, -74.0}, st.Project.MapConfig.Center)
}

func TestSearchFailureIsStatus(t *testing.T) {
	for _, tt := range []struct {
		err  error
		want string
	}{
		{geocode.ErrNotFound, "No matching address found."},
		{geocode.ErrTimeout, "Search Error: the geocoding service timed out."},
	} {
		s, _ := newTestService(t, func(o *Options) { o.Geocoder = fakeGeocoder{err: tt.err} })
		before := s.State().View
		st, err := s.Search(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, tt.want, st.Status)
		assert.Equal(t, before, st.View)
	}
}

func TestSearchRejectsOutOfRangeCandidate(t *testing.T) {
	s, _ := newTestService(t, func(o *Options) {
		o.Geocoder = fakeGeocoder{res: geocode.Result{Lat: 123, Lng: -74, Address: "Nowhere"}}
	})
	before := s.State().View
	st, err := s.Search(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Equal(t, "Search Error: the geocoding service is unavailable.", st.Status)
	assert.Equal(t, before, st.View)
}

func nycProject(t *testing.T) []byte {
	t.Helper()
	p := project.Default(fixedNow, [2]float64{40.7, -74.0}, 16)
	m, err := marker.NewCamera("C0001", marker.CameraInput{Lat: 40.7001, Lng: -74.0001, Level: marker.LevelFunctioning})
	require.NoError(t, err)
	p.Markers = []marker.Marker{m}
	var buf bytes.Buffer
	require.NoError(t, project.Encode(&buf, p))
	return buf.Bytes()
}

func TestLoadedViewportUsedBeforeMapSync(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Load(bytes.NewReader(nycProject(t)))
	require.NoError(t, err)
	require.True(t, s.State().View.JumpPending())

	shot, err := s.MapImage(context.Background(), false)
	require.NoError(t, err)
	assert.InDelta(t, 40.7, shot.View.Center.Lat(), 1e-9)
	assert.InDelta(t, -74.0, shot.View.Center.Lon(), 1e-9)
	assert.Equal(t, 16, shot.View.Zoom)

	_, err = s.Import(marker.KindCamera, strings.NewReader("level\nFunctioning\n"))
	require.NoError(t, err)
	imported := s.State().Markers()[1]
	assert.Equal(t, 40.7, imported.Lat)
	assert.Equal(t, -74.0, imported.Lng)

	b, _, err := s.Save()
	require.NoError(t, err)
	saved, err := project.Decode(bytes.NewReader(b), project.Project{})
	require.NoError(t, err)
	assert.Equal(t, [2]float64{40.7, -74.0}, saved.MapConfig.Center)
}

func TestImport(t *testing.T) {
	s, _ := newTestService(t)
	n, err := s.Import(marker.KindCamera, strings.NewReader(csvimport.CameraTemplate))
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Equal(t, "C0001", s.State().Markers()[0].ID)

	before := s.State()
	_, err = s.Import(marker.KindIncident, strings.NewReader("foo,bar\n1,2\n"))
	assert.ErrorIs(t, err, csvimport.ErrMissingColumns)
	assert.Equal(t, before, s.State())

	_, err = s.Import(marker.Kind("Drone"), strings.NewReader(""))
	assert.ErrorIs(t, err, marker.ErrInvalid)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _ := newTestService(t)
	name := "Harbor Plaza"
	_, err := s.Apply(session.SetProjectInfo{Name: &name})
	require.NoError(t, err)
	_, err = s.Import(marker.KindIncident, strings.NewReader(csvimport.IncidentTemplate))
	require.NoError(t, err)

	b, filename, err := s.Save()
	require.NoError(t, err)
	assert.Equal(t, "Harbor_Plaza_project.json", filename)

	_, err = s.Reset()
	require.NoError(t, err)
	assert.Empty(t, s.State().Markers())

	st, err := s.Load(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, name, st.Project.Name)
	assert.NotEmpty(t, st.Markers())

	before := s.State()
	_, err = s.Load(strings.NewReader("{not json"))
	assert.Error(t, err)
	assert.Equal(t, before, s.State())
}

func TestStatsAndGeoJSON(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Import(marker.KindCamera, strings.NewReader(csvimport.CameraTemplate))
	require.NoError(t, err)
	assert.Equal(t, len(s.State().Markers()), s.Stats().Cameras.Total)
	assert.Len(t, s.GeoJSON().Features, len(s.State().Markers()))
}

func TestMapImage(t *testing.T) {
	s, calls := newTestService(t)
	_, err := s.Import(marker.KindCamera, strings.NewReader(csvimport.CameraTemplate))
	require.NoError(t, err)

	shot, err := s.MapImage(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, shot.Schematic)
	assert.Positive(t, calls.Load())
	cfg, _, err := image.DecodeConfig(bytes.NewReader(shot.PNG))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
}

func TestMapImageFallsBackToSchematic(t *testing.T) {
	calls := &atomic.Int32{}
	s, _ := newTestService(t, func(o *Options) {
		o.Tiles = func(staticmap.Style) staticmap.TileSource { return fakeTiles{fail: true, calls: calls} }
	})
	shot, err := s.MapImage(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, shot.Schematic)
	assert.NotEmpty(t, shot.PNG)
}

func TestReportIsCached(t *testing.T) {
	s, calls := newTestService(t)
	_, err := s.Import(marker.KindIncident, strings.NewReader(csvimport.IncidentTemplate))
	require.NoError(t, err)

	first, err := s.Report(context.Background())
	require.NoError(t, err)
	n, err := report.PageCount(first)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)
	fetched := calls.Load()

	second, err := s.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, fetched, calls.Load())

	author := "Someone Else"
	_, err = s.Apply(session.SetProjectInfo{Author: &author})
	require.NoError(t, err)
	_, err = s.Report(context.Background())
	require.NoError(t, err)
	assert.Greater(t, calls.Load(), fetched)
}

func TestQueryWithoutAnalytics(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrAnalyticsUnavailable)
	_, err = s.Tables(context.Background())
	assert.ErrorIs(t, err, ErrAnalyticsUnavailable)
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()
	assert.Equal(t, 1, bus.Subscribers())

	bus.Publish(Event{Resource: ResourceMarkers, Action: "deleted", IDs: []string{"I0001"}})
	assert.Equal(t, "deleted", (<-ch).Action)

	for i := 0; i < 32; i++ {
		bus.Publish(Event{Resource: ResourceView})
	}
	assert.Len(t, ch, cap(ch))

	bus.Unsubscribe(ch)
	assert.Zero(t, bus.Subscribers())
	_, open := <-drain(ch)
	assert.False(t, open)
}

func drain(ch chan Event) chan Event {
	for range ch {
	}
	return ch
}
