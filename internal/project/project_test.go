package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-claimmap/internal/marker"
)

var (
	testNow    = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	testCenter = [2]float64{33.645003281720776, -117.93291469288867}
)

func sample(t *testing.T) Project {
	t.Helper()
	p := Default(testNow, testCenter, 17.4)
	inc, err := marker.NewIncident("I0001", marker.IncidentInput{
		Lat: 33.6451, Lng: -117.9328, Level: marker.LevelMedium, Date: "2025-01-02",
		Description: "Slip", Compensation: 1234.5, ClaimFiled: true, Parties: "Guest",
	})
	require.NoError(t, err)
	cam, err := marker.NewCamera("C0001", marker.CameraInput{
		Lat: 33.6452, Lng: -117.9327, Level: marker.LevelFunctioning, Date: "2025-01-03",
	})
	require.NoError(t, err)
	p.Markers = append(p.Markers, inc, cam)
	return p
}

func TestDefault(t *testing.T) {
	p := Default(testNow, testCenter, 18)
	assert.Equal(t, "New Project", p.Name)
	assert.Equal(t, "New Property", p.Property)
	assert.Equal(t, Year("2025"), p.Year)
	assert.Equal(t, "2025-03-14", p.Date)
	assert.Empty(t, p.Markers)
	assert.Equal(t, SourceTypeMapAPI, p.MapConfig.SourceType)
	assert.Equal(t, 18.0, p.MapConfig.Zoom)
}

func TestRoundTrip(t *testing.T) {
	p := sample(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, p))

	got, err := Decode(&buf, Default(testNow, [2]float64{}, 1))
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestEncodeUsesFileKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sample(t)))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Contains(t, raw, "incidents")
	assert.Contains(t, raw, "map_config")
	assert.Contains(t, buf.String(), "\n    \"name\"")
}

func TestDecodeNumericYear(t *testing.T) {
	in := `{"name":"X","year":2023,"incidents":[],"map_config":{"center":[1,2],"zoom":12}}`
	p, err := Decode(strings.NewReader(in), Default(testNow, testCenter, 18))
	require.NoError(t, err)
	assert.Equal(t, Year("2023"), p.Year)
	assert.Equal(t, [2]float64{1, 2}, p.MapConfig.Center)
	assert.Equal(t, SourceTypeMapAPI, p.MapConfig.SourceType)
	assert.Equal(t, "New Property", p.Property, "missing keys keep defaults")
}

func TestDecodeRejects(t *testing.T) {
	base := Default(testNow, testCenter, 18)
	tests := map[string]string{
		"malformed json": `{"name": `,
		"duplicate ids": `{"incidents":[
			{"id":"I0001","lat":1,"lng":1,"type":"Incident","level":"Light"},
			{"id":"I0001","lat":1,"lng":1,"type":"Incident","level":"Light"}]}`,
		"bad level":          `{"incidents":[{"id":"C0001","lat":1,"lng":1,"type":"Camera","level":"Serious"}]}`,
		"bad type":           `{"incidents":[{"id":"X0001","lat":1,"lng":1,"type":"Drone","level":"Light"}]}`,
		"bad center":         `{"map_config":{"center":[123,0],"zoom":10}}`,
		"bad zoom":           `{"map_config":{"center":[1,0],"zoom":40}}`,
		"wrong shape":        `[]`,
		"unknown key":        `{"name":"X","colour":"red"}`,
		"unknown marker key": `{"incidents":[{"id":"I0001","lat":1,"lng":1,"type":"Incident","level":"Light","extra":1}]}`,
		"trailing data":      `{"name":"X"} {"name":"Y"}`,
		"trailing garbage":   `{"name":"X"}]`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(in), base)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProject))
		})
	}
}

func TestFilename(t *testing.T) {
	p := Default(testNow, testCenter, 18)
	assert.Equal(t, "New_Project_project.json", p.Filename())
	p.Name = ""
	assert.Equal(t, "project_project.json", p.Filename())
}

func TestFeatureCollection(t *testing.T) {
	p := sample(t)
	fc := FeatureCollection(p.Markers)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, -117.9328, fc.Features[0].Geometry.(orb.Point).Lon())
	assert.Equal(t, "Slip", fc.Features[0].Properties["description"])
	assert.NotContains(t, fc.Features[1].Properties, "compensation")
}

func TestBound(t *testing.T) {
	_, ok := Bound(nil)
	assert.False(t, ok)

	b, ok := Bound(sample(t).Markers)
	require.True(t, ok)
	assert.InDelta(t, 33.6451, b.Min.Lat(), 1e-9)
	assert.InDelta(t, 33.6452, b.Max.Lat(), 1e-9)
	assert.InDelta(t, -117.9328, b.Min.Lon(), 1e-9)
}
