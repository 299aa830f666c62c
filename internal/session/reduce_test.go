package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/project"
)

const today = "2025-06-01"

func newState(t *testing.T) State {
	t.Helper()
	p := project.Default(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), [2]float64{33.645, -117.9329}, 18)
	return New("test", p, "Hybrid")
}

func apply(t *testing.T, s State, events ...Event) State {
	t.Helper()
	for _, ev := range events {
		var err error
		s, err = Reduce(s, ev)
		require.NoError(t, err, "%T", ev)
	}
	return s
}

func TestDraftLifecycle(t *testing.T) {
	s := newState(t)
	click := LatLng{Lat: 33.70, Lng: -118.0}

	s = apply(t, s, MapClicked{Point: click})
	assert.Nil(t, s.Draft, "unlocked map ignores empty clicks")

	s = apply(t, s, SetLock{Locked: true}, MapClicked{Point: click})
	require.NotNil(t, s.Draft)
	assert.Equal(t, click, *s.Draft)

	s = apply(t, s, CreateFromDraft{
		Kind: marker.KindIncident, Level: marker.LevelSerious, Description: "Fire",
		Compensation: 900, Today: today,
	})
	assert.Nil(t, s.Draft)
	require.Len(t, s.Markers(), 1)
	m := s.Markers()[0]
	assert.Equal(t, "I0001", m.ID)
	assert.Equal(t, today, m.Date)
	assert.Equal(t, "33.70000, -118.00000", m.Location)

	// duplicate delivery of the same click does not create a second draft
	s = apply(t, s, MapClicked{Point: LatLng{Lat: 33.80, Lng: -118.1}})
	require.NotNil(t, s.Draft)
	s = apply(t, s, CancelDraft{}, MapClicked{Point: LatLng{Lat: 33.80, Lng: -118.1}})
	assert.Nil(t, s.Draft)

	s = apply(t, s, MapClicked{Point: LatLng{Lat: 33.81, Lng: -118.1}}, SetLock{Locked: false})
	assert.Nil(t, s.Draft, "unlocking discards the draft")
}

func TestCreateCamera(t *testing.T) {
	s := apply(t, newState(t), SetLock{Locked: true}, MapClicked{Point: LatLng{Lat: 1, Lng: 1}})
	s = apply(t, s, CreateFromDraft{Kind: marker.KindCamera, Level: marker.LevelFunctioning, Date: "1999-01-01", Today: today})
	m := s.Markers()[0]
	assert.Equal(t, "C0001", m.ID)
	assert.Equal(t, today, m.Date, "cameras are stamped with the creation date")
	assert.Equal(t, marker.CameraDescription, m.Description)
}

func TestCreateValidation(t *testing.T) {
	s := newState(t)
	_, err := Reduce(s, CreateFromDraft{Kind: marker.KindCamera, Level: marker.LevelFunctioning})
	assert.ErrorIs(t, err, ErrNoDraft)

	s = apply(t, s, SetLock{Locked: true}, MapClicked{Point: LatLng{Lat: 1, Lng: 1}})
	got, err := Reduce(s, CreateFromDraft{Kind: marker.KindIncident, Level: marker.LevelLight, Description: "Meteor"})
	assert.ErrorIs(t, err, marker.ErrInvalid)
	assert.Equal(t, s, got)
	assert.NotNil(t, got.Draft, "failed create keeps the draft")
}

func TestSelectionClearsDraft(t *testing.T) {
	s := apply(t, newState(t), SetLock{Locked: true}, MapClicked{Point: LatLng{Lat: 1, Lng: 1}})
	s = apply(t, s, CreateFromDraft{Kind: marker.KindCamera, Level: marker.LevelFunctioning, Today: today})
	s = apply(t, s, MapClicked{Point: LatLng{Lat: 2, Lng: 2}})
	require.NotNil(t, s.Draft)

	s = apply(t, s, MapClicked{Point: LatLng{Lat: 1.000001, Lng: 1}})
	assert.Equal(t, "C0001", s.ActiveID)
	assert.Nil(t, s.Draft)

	s = apply(t, s, ClearSelection{})
	assert.Empty(t, s.ActiveID)

	_, err := Reduce(s, SelectMarker{ID: "C0099"})
	assert.ErrorIs(t, err, ErrUnknownMarker)
}

func TestUpdateMarkerCopiesOnWrite(t *testing.T) {
	s := apply(t, newState(t), ImportMarkers{Kind: marker.KindIncident, Drafts: []marker.Marker{
		{Lat: 1, Lng: 1, Level: marker.LevelLight, Description: "custom text"},
	}})
	before := s

	level := marker.LevelSerious
	s = apply(t, s, UpdateMarker{ID: "I0001", Patch: marker.Patch{Level: &level}})
	assert.Equal(t, marker.LevelSerious, s.Markers()[0].Level)
	assert.Equal(t, marker.LevelLight, before.Markers()[0].Level)

	desc := "Not a type"
	_, err := Reduce(s, UpdateMarker{ID: "I0001", Patch: marker.Patch{Description: &desc}})
	assert.ErrorIs(t, err, marker.ErrInvalid)

	_, err = Reduce(s, UpdateMarker{ID: "nope"})
	assert.ErrorIs(t, err, ErrUnknownMarker)
}

func TestDeleteMarkers(t *testing.T) {
	s := apply(t, newState(t), ImportMarkers{Kind: marker.KindCamera, Drafts: []marker.Marker{
		{Lat: 1, Lng: 1, Level: marker.LevelFunctioning, Description: marker.CameraDescription},
		{Lat: 2, Lng: 2, Level: marker.LevelFunctioning, Description: marker.CameraDescription},
	}}, SelectMarker{ID: "C0002"})

	_, err := Reduce(s, DeleteMarkers{IDs: []string{"C0001", "C0404"}})
	assert.ErrorIs(t, err, ErrUnknownMarker)
	assert.Len(t, s.Markers(), 2)

	s = apply(t, s, DeleteMarkers{IDs: []string{"C0002"}})
	assert.Len(t, s.Markers(), 1)
	assert.Empty(t, s.ActiveID)
	assert.Equal(t, "C0002", marker.NextID(s.Markers(), marker.KindCamera))
}

func TestImportTwiceAllocatesDistinctIDs(t *testing.T) {
	drafts := []marker.Marker{
		{Lat: 1, Lng: 1, Level: marker.LevelFunctioning, Description: marker.CameraDescription},
		{Lat: 2, Lng: 2, Level: marker.LevelNotFunctioning, Description: marker.CameraDescription},
	}
	s := apply(t, newState(t),
		ImportMarkers{Kind: marker.KindCamera, Drafts: drafts},
		ImportMarkers{Kind: marker.KindCamera, Drafts: drafts},
	)
	var got []string
	for _, m := range s.Markers() {
		got = append(got, m.ID)
	}
	assert.Equal(t, []string{"C0001", "C0002", "C0003", "C0004"}, got)
}

func TestImportIsAtomic(t *testing.T) {
	s := newState(t)
	_, err := Reduce(s, ImportMarkers{Kind: marker.KindIncident, Drafts: []marker.Marker{
		{Lat: 1, Lng: 1, Level: marker.LevelLight},
		{Lat: 100, Lng: 1, Level: marker.LevelLight},
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, marker.ErrInvalid))
	assert.Contains(t, err.Error(), "row 2")
	assert.Empty(t, s.Markers())
}

func TestSearchJumpAndSync(t *testing.T) {
	s := newState(t)
	s = apply(t, s, MapSynced{Feedback: &Feedback{Viewport: vp(33.9, -117.9, 15)}})
	assert.Equal(t, [2]float64{33.9, -117.9}, s.Project.MapConfig.Center)

	target := vp(34.0, -118.0, 18)
	s = apply(t, s, SearchFinished{Status: "Found: Somewhere", Target: &target})
	assert.Equal(t, "Found: Somewhere", s.Status)
	assert.Equal(t, target, ViewportFromConfig(s.Snapshot().MapConfig))

	s = apply(t, s, MapSynced{Feedback: &Feedback{Viewport: vp(33.9, -117.9, 15)}})
	assert.Equal(t, target, s.View.Live)
	assert.Equal(t, 1, s.View.Generation)

	_, err := Reduce(s, MapSynced{Feedback: &Feedback{Viewport: vp(200, 0, 3)}})
	assert.ErrorIs(t, err, ErrInvalidViewport)
}

func TestSearchNotFoundKeepsView(t *testing.T) {
	s := newState(t)
	s = apply(t, s, SearchFinished{Status: "No matching address found."})
	assert.False(t, s.View.JumpPending())
	assert.Equal(t, "No matching address found.", s.Status)
}

func TestLoadProjectReplacesAndJumps(t *testing.T) {
	s := apply(t, newState(t), SetLock{Locked: true}, MapClicked{Point: LatLng{Lat: 1, Lng: 1}})

	loaded := project.Default(time.Now(), [2]float64{40, -75}, 12)
	loaded.Name = "Loaded"
	loaded.Markers = []marker.Marker{{ID: "I0009", Lat: 40, Lng: -75, Type: marker.KindIncident, Level: marker.LevelMedium}}

	s = apply(t, s, LoadProject{Project: loaded}, MapSynced{})
	assert.Equal(t, "Loaded", s.Project.Name)
	assert.Nil(t, s.Draft)
	assert.Equal(t, vp(40, -75, 12), s.View.Live)
	assert.Equal(t, 1, s.View.Generation)
	assert.Equal(t, "I0010", marker.NextID(s.Markers(), marker.KindIncident))

	bad := loaded
	bad.Markers = append([]marker.Marker{}, loaded.Markers[0], loaded.Markers[0])
	_, err := Reduce(s, LoadProject{Project: bad})
	assert.ErrorIs(t, err, project.ErrInvalidProject)
}

func TestNewProjectResetsStyle(t *testing.T) {
	s := apply(t, newState(t), SetStyle{Style: "Satellite"})
	assert.Equal(t, "Satellite", s.Style)

	fresh := project.Default(time.Now(), [2]float64{1, 2}, 18)
	s = apply(t, s, NewProject{Project: fresh, Style: "Hybrid"})
	assert.Equal(t, "Hybrid", s.Style)
	assert.True(t, s.View.JumpPending())

	_, err := Reduce(s, SetStyle{Style: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetProjectInfo(t *testing.T) {
	name, author := "Harbor", "J. Doe"
	s := apply(t, newState(t), SetProjectInfo{Property: &name, Author: &author})
	assert.Equal(t, "Harbor", s.Project.Property)
	assert.Equal(t, "J. Doe", s.Project.Author)
	assert.Equal(t, "New Project", s.Project.Name)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := apply(t, newState(t),
		ImportMarkers{Kind: marker.KindIncident, Drafts: []marker.Marker{{Lat: 1, Lng: 1, Level: marker.LevelLight, Description: "Slip"}}},
		MapSynced{Feedback: &Feedback{Viewport: vp(10, 20, 13.2)}},
	)
	snap := s.Snapshot()
	loaded := apply(t, newState(t), LoadProject{Project: snap}, MapSynced{})
	assert.Equal(t, s.Markers(), loaded.Markers())
	assert.Equal(t, s.View.Persisted, loaded.View.Persisted)
	assert.Equal(t, s.View.Live, loaded.View.Live)
}
