package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/report"
)

func TestEmbeddedTemplates(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)

	markers := []marker.Marker{
		{ID: "I0001", Type: marker.KindIncident, Level: marker.LevelSerious, Date: "2024-05-01T10:00:00", Description: "Fire", Compensation: 15000},
		{ID: "C0001", Type: marker.KindCamera, Level: marker.LevelFunctioning, Description: marker.CameraDescription},
	}
	html, err := r.Render("marker-list", MarkerList{Markers: markers, ActiveID: "C0001"})
	require.NoError(t, err)
	assert.Contains(t, html, `id="marker-I0001"`)
	assert.Contains(t, html, "$15,000.00")
	assert.Contains(t, html, "2024-05-01<")
	assert.Contains(t, html, "#dc3545")
	assert.Contains(t, html, `id="marker-C0001" class="active"`)

	stats, err := r.Render("stats", report.Compute(markers))
	require.NoError(t, err)
	assert.Contains(t, stats, "Total Compensation: $15,000.00")
	assert.Contains(t, stats, "Fire: 1")
}

func TestEmptyMarkerList(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	html, err := r.Render("marker-list", MarkerList{})
	require.NoError(t, err)
	assert.Contains(t, html, "No markers yet")
}

func TestStatusEscapes(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	assert.Contains(t, r.MustRender("status", "Found: <b>x</b>"), "Found: &lt;b&gt;x&lt;/b&gt;")
	assert.NotContains(t, r.MustRender("status", ""), "status")
}

func TestEditorPage(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	html, err := r.Render("editor", Page{
		Title:   "Harbor Plaza",
		Styles:  []string{"Street View", "Hybrid"},
		Style:   "Hybrid",
		Signals: `{"status":""}`,
		Stats:   report.Compute(nil),
	})
	require.NoError(t, err)
	assert.Contains(t, html, "<title>Harbor Plaza</title>")
	assert.Contains(t, html, `<option value="Hybrid" selected>`)
	assert.Contains(t, html, "/api/v1/editor/events")
}

func TestReloadFromDir(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"fragments", "pages"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fragments", "a.html"), []byte(`{{define "status"}}custom {{.}}{{end}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages", "p.html"), []byte(`{{define "editor"}}page{{end}}`), 0o644))

	r, err := New("")
	require.NoError(t, err)
	require.NoError(t, r.Reload(dir))
	assert.Equal(t, "custom hi", r.MustRender("status", "hi"))

	_, err = New(t.TempDir())
	assert.Error(t, err)
}
