// Package project holds the project aggregate and its JSON file format.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/joeblew999/plat-claimmap/internal/marker"
)

// DateLayout is the ISO calendar date layout used in project files.
const DateLayout = "2006-01-02"

// SourceTypeMapAPI is the only map source type the application writes.
const SourceTypeMapAPI = "map_api"

// ErrInvalidProject wraps every decode or validation failure.
var ErrInvalidProject = errors.New("invalid project file")

// Year is the project year. Files written by older releases store it as a
// number, newer ones as a string; both decode.
type Year string

// UnmarshalJSON accepts a JSON string or number.
func (y *Year) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*y = Year(s)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("year: %w", err)
	}
	*y = Year(n.String())
	return nil
}

// MapConfig is the persisted viewport.
type MapConfig struct {
	Center     [2]float64 `json:"center" doc:"Map center as [lat, lng]"`
	Zoom       float64    `json:"zoom" doc:"Zoom level, may be fractional"`
	SourceType string     `json:"source_type" doc:"Map source type" example:"map_api"`
}

// Project is the aggregate root saved and loaded as a whole.
type Project struct {
	Name      string          `json:"name" doc:"Project name"`
	Property  string          `json:"property" doc:"Property name printed on the report"`
	Year      Year            `json:"year" doc:"Report year"`
	Author    string          `json:"author" doc:"Report author"`
	Date      string          `json:"date" doc:"Report date"`
	Markers   []marker.Marker `json:"incidents" doc:"Incident and camera markers"`
	MapConfig MapConfig       `json:"map_config" doc:"Persisted viewport"`
}

// Default returns a fresh project for the given clock and viewport.
func Default(now time.Time, center [2]float64, zoom float64) Project {
	return Project{
		Name:     "New Project",
		Property: "New Property",
		Year:     Year(strconv.Itoa(now.Year())),
		Author:   "",
		Date:     now.Format(DateLayout),
		Markers:  []marker.Marker{},
		MapConfig: MapConfig{
			Center:     center,
			Zoom:       zoom,
			SourceType: SourceTypeMapAPI,
		},
	}
}

// Clone returns a deep copy.
func (p Project) Clone() Project {
	out := p
	out.Markers = append([]marker.Marker(nil), p.Markers...)
	if out.Markers == nil {
		out.Markers = []marker.Marker{}
	}
	return out
}

// Validate checks the markers and the viewport.
func (p Project) Validate() error {
	for _, m := range p.Markers {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProject, err)
		}
	}
	if err := marker.CheckUnique(p.Markers); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	lat, lng := p.MapConfig.Center[0], p.MapConfig.Center[1]
	if math.IsNaN(lat) || lat < -90 || lat > 90 || math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: map center %v out of range", ErrInvalidProject, p.MapConfig.Center)
	}
	if math.IsNaN(p.MapConfig.Zoom) || p.MapConfig.Zoom < 0 || p.MapConfig.Zoom > 22 {
		return fmt.Errorf("%w: zoom %v out of range", ErrInvalidProject, p.MapConfig.Zoom)
	}
	return nil
}

// Decode reads a project file. Keys missing from the file keep the values
// of base, so a bare {"incidents": []} loads onto the defaults. Unknown keys
// and content after the project object are rejected.
func Decode(r io.Reader, base Project) (Project, error) {
	p := base.Clone()
	p.Markers = nil
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Project{}, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Project{}, fmt.Errorf("%w: unexpected data after project", ErrInvalidProject)
	}
	if p.Markers == nil {
		p.Markers = []marker.Marker{}
	}
	if p.MapConfig.SourceType == "" {
		p.MapConfig.SourceType = SourceTypeMapAPI
	}
	if err := p.Validate(); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Encode writes the project as indented JSON.
func Encode(w io.Writer, p Project) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if p.Markers == nil {
		p.Markers = []marker.Marker{}
	}
	return enc.Encode(p)
}

// Filename is the download name used when saving.
func (p Project) Filename() string {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "project"
	}
	return strings.ReplaceAll(name, " ", "_") + "_project.json"
}
