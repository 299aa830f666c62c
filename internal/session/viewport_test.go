package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vp(lat, lng, zoom float64) Viewport {
	return Viewport{Center: LatLng{Lat: lat, Lng: lng}, Zoom: zoom}
}

func TestReconcileJumpBeatsStaleFeedback(t *testing.T) {
	v := NewViewportState(vp(33.6, -117.9, 16))
	v = v.RequestJump(vp(34.0, -118.0, 18))

	stale := &Feedback{Viewport: vp(33.9, -117.9, 15), Generation: 0}
	v = v.Reconcile(stale)

	assert.Equal(t, vp(34.0, -118.0, 18), v.Live)
	assert.Equal(t, vp(34.0, -118.0, 18), v.Persisted)
	assert.Equal(t, 1, v.Generation)
	assert.Nil(t, v.Pending)
	assert.Equal(t, SourceJump, v.Source)

	v = v.Reconcile(stale)
	assert.Equal(t, vp(34.0, -118.0, 18), v.Live, "feedback from the unmounted map is dropped")
	assert.Equal(t, 1, v.Generation)
}

func TestReconcileFeedback(t *testing.T) {
	v := NewViewportState(vp(1, 2, 10))
	v = v.Reconcile(&Feedback{Viewport: vp(3, 4, 12.6)})

	assert.Equal(t, vp(3, 4, 12.6), v.Live)
	assert.Equal(t, vp(3, 4, 12.6), v.Persisted)
	assert.Equal(t, SourceLive, v.Source)
	assert.Zero(t, v.Generation)
}

func TestReconcileWithoutInputKeepsLive(t *testing.T) {
	v := NewViewportState(vp(1, 2, 10))
	v = v.Reconcile(&Feedback{Viewport: vp(3, 4, 12)})
	v = v.Reconcile(nil)
	assert.Equal(t, vp(3, 4, 12), v.Live)
	assert.Equal(t, SourceLive, v.Source)
}

func TestReconcileFirstRunFallsBackToPersisted(t *testing.T) {
	v := ViewportState{Persisted: vp(5, 6, 14)}
	v = v.Reconcile(nil)
	assert.Equal(t, vp(5, 6, 14), v.Live)
	assert.Equal(t, SourcePersisted, v.Source)
}

func TestRequestJumpUpdatesPersistedImmediately(t *testing.T) {
	v := NewViewportState(vp(1, 2, 10)).RequestJump(vp(7, 8, 18))
	require.True(t, v.JumpPending())
	assert.Equal(t, vp(7, 8, 18), v.Persisted)
	assert.Equal(t, vp(1, 2, 10), v.Live)
}

func TestNextPrefersPendingJump(t *testing.T) {
	v := NewViewportState(vp(1, 2, 10))
	assert.Equal(t, vp(1, 2, 10), v.Next())

	v = v.RequestJump(vp(7, 8, 18))
	assert.Equal(t, vp(7, 8, 18), v.Next())
	assert.Equal(t, vp(1, 2, 10), v.Live)

	v = v.Reconcile(nil)
	assert.Equal(t, v.Live, v.Next())
}

func TestViewportValid(t *testing.T) {
	assert.True(t, vp(0, 0, 0).Valid())
	assert.False(t, vp(91, 0, 3).Valid())
	assert.False(t, vp(0, 181, 3).Valid())
	assert.False(t, vp(0, 0, 23).Valid())
}
