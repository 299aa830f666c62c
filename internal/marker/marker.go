// Package marker defines incident and camera records placed on the property map.
package marker

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Kind discriminates the two marker variants.
type Kind string

const (
	KindIncident Kind = "Incident"
	KindCamera   Kind = "Camera"
)

// Level is the status of a marker. Its domain depends on the Kind.
type Level string

const (
	LevelLight          Level = "Light"
	LevelMedium         Level = "Medium"
	LevelSerious        Level = "Serious"
	LevelFunctioning    Level = "Functioning"
	LevelNotFunctioning Level = "Not Functioning"
)

// CameraDescription is the fixed description carried by every camera.
const CameraDescription = "Camera Feed"

// ErrInvalid is wrapped by every marker validation failure.
var ErrInvalid = errors.New("invalid marker")

// Prefix returns the ID prefix letter for the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindIncident:
		return "I"
	case KindCamera:
		return "C"
	}
	return ""
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindIncident || k == KindCamera
}

// Levels returns the level domain for a kind, most severe last for incidents.
func Levels(k Kind) []Level {
	switch k {
	case KindIncident:
		return []Level{LevelLight, LevelMedium, LevelSerious}
	case KindCamera:
		return []Level{LevelFunctioning, LevelNotFunctioning}
	}
	return nil
}

// ValidLevel reports whether l belongs to the level domain of k.
func ValidLevel(k Kind, l Level) bool {
	for _, v := range Levels(k) {
		if v == l {
			return true
		}
	}
	return false
}

// Marker is a single incident or camera record. The JSON shape matches the
// "incidents" array of a saved project file.
type Marker struct {
	ID            string  `json:"id" doc:"Marker identifier" example:"I0001"`
	Lat           float64 `json:"lat" minimum:"-90" maximum:"90" doc:"Latitude in degrees" example:"33.645"`
	Lng           float64 `json:"lng" minimum:"-180" maximum:"180" doc:"Longitude in degrees" example:"-117.9329"`
	Type          Kind    `json:"type" enum:"Incident,Camera" doc:"Marker kind"`
	Level         Level   `json:"level" enum:"Light,Medium,Serious,Functioning,Not Functioning" doc:"Severity (incidents) or status (cameras)"`
	Location      string  `json:"location" doc:"Address or coordinate label"`
	Date          string  `json:"date" doc:"ISO date" example:"2024-05-01"`
	Parties       string  `json:"parties" doc:"Parties involved"`
	ClaimFiled    bool    `json:"claim_filed" doc:"Whether a claim was filed"`
	PremiumImpact bool    `json:"premium_impact" doc:"Whether the incident affects the premium"`
	Description   string  `json:"description" doc:"Incident type, or Camera Feed for cameras"`
	Compensation  float64 `json:"compensation" minimum:"0" doc:"Compensation paid in dollars"`
}

// IsIncident reports whether m is an incident.
func (m Marker) IsIncident() bool { return m.Type == KindIncident }

// IsCamera reports whether m is a camera.
func (m Marker) IsCamera() bool { return m.Type == KindCamera }

// Validate checks the invariants shared by every constructor and decoder.
func (m Marker) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalid)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("%w: %s: unknown type %q", ErrInvalid, m.ID, m.Type)
	}
	if err := validateCoords(m.Lat, m.Lng); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, m.ID, err)
	}
	if !ValidLevel(m.Type, m.Level) {
		return fmt.Errorf("%w: %s: level %q not allowed for %s", ErrInvalid, m.ID, m.Level, m.Type)
	}
	if math.IsNaN(m.Compensation) || math.IsInf(m.Compensation, 0) || m.Compensation < 0 {
		return fmt.Errorf("%w: %s: compensation must be a non-negative amount", ErrInvalid, m.ID)
	}
	if m.IsCamera() {
		if m.Compensation != 0 || m.ClaimFiled || m.PremiumImpact {
			return fmt.Errorf("%w: %s: cameras carry no claim data", ErrInvalid, m.ID)
		}
	}
	return nil
}

func validateCoords(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range", lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %v out of range", lng)
	}
	return nil
}

// IncidentInput holds the user supplied attributes of a new incident.
type IncidentInput struct {
	Lat           float64
	Lng           float64
	Level         Level
	Location      string
	Date          string
	Parties       string
	ClaimFiled    bool
	PremiumImpact bool
	Description   string
	Compensation  float64
}

// CameraInput holds the user supplied attributes of a new camera.
type CameraInput struct {
	Lat      float64
	Lng      float64
	Level    Level
	Location string
	Date     string
}

// NewIncident builds a validated incident. An empty location defaults to
// the coordinate label.
func NewIncident(id string, in IncidentInput) (Marker, error) {
	m := Marker{
		ID:            id,
		Lat:           in.Lat,
		Lng:           in.Lng,
		Type:          KindIncident,
		Level:         in.Level,
		Location:      in.Location,
		Date:          in.Date,
		Parties:       in.Parties,
		ClaimFiled:    in.ClaimFiled,
		PremiumImpact: in.PremiumImpact,
		Description:   in.Description,
		Compensation:  in.Compensation,
	}
	if m.Location == "" {
		m.Location = DefaultLocation(in.Lat, in.Lng)
	}
	if err := m.Validate(); err != nil {
		return Marker{}, err
	}
	return m, nil
}

// NewCamera builds a validated camera with the fixed camera attributes.
func NewCamera(id string, in CameraInput) (Marker, error) {
	m := Marker{
		ID:          id,
		Lat:         in.Lat,
		Lng:         in.Lng,
		Type:        KindCamera,
		Level:       in.Level,
		Location:    in.Location,
		Date:        in.Date,
		Description: CameraDescription,
	}
	if m.Location == "" {
		m.Location = DefaultLocation(in.Lat, in.Lng)
	}
	if err := m.Validate(); err != nil {
		return Marker{}, err
	}
	return m, nil
}

// DefaultLocation formats a coordinate pair the way new markers are labelled.
func DefaultLocation(lat, lng float64) string {
	return fmt.Sprintf("%.5f, %.5f", lat, lng)
}

// Patch is a partial update of the mutable marker attributes. Nil fields are
// left untouched. Position, type and ID are never patched.
type Patch struct {
	Level         *Level   `json:"level,omitempty" enum:"Light,Medium,Serious,Functioning,Not Functioning" doc:"New level"`
	Location      *string  `json:"location,omitempty" doc:"New location label"`
	Date          *string  `json:"date,omitempty" doc:"New date"`
	Parties       *string  `json:"parties,omitempty" doc:"New parties"`
	ClaimFiled    *bool    `json:"claim_filed,omitempty" doc:"New claim flag"`
	PremiumImpact *bool    `json:"premium_impact,omitempty" doc:"New premium impact flag"`
	Description   *string  `json:"description,omitempty" doc:"New incident type"`
	Compensation  *float64 `json:"compensation,omitempty" doc:"New compensation"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Level == nil && p.Location == nil && p.Date == nil && p.Parties == nil &&
		p.ClaimFiled == nil && p.PremiumImpact == nil && p.Description == nil && p.Compensation == nil
}

// Apply returns a copy of m with the patch applied. Incident-only fields on a
// camera are rejected.
func (m Marker) Apply(p Patch) (Marker, error) {
	if m.IsCamera() && (p.Parties != nil || p.ClaimFiled != nil || p.PremiumImpact != nil ||
		p.Description != nil || p.Compensation != nil) {
		return Marker{}, fmt.Errorf("%w: %s: cameras only accept level, location and date", ErrInvalid, m.ID)
	}
	out := m
	if p.Level != nil {
		out.Level = *p.Level
	}
	if p.Location != nil {
		out.Location = *p.Location
	}
	if p.Date != nil {
		out.Date = *p.Date
	}
	if p.Parties != nil {
		out.Parties = *p.Parties
	}
	if p.ClaimFiled != nil {
		out.ClaimFiled = *p.ClaimFiled
	}
	if p.PremiumImpact != nil {
		out.PremiumImpact = *p.PremiumImpact
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Compensation != nil {
		out.Compensation = *p.Compensation
	}
	if err := out.Validate(); err != nil {
		return Marker{}, err
	}
	return out, nil
}

// Split partitions markers into incidents and cameras, preserving order.
func Split(markers []Marker) (incidents, cameras []Marker) {
	for _, m := range markers {
		switch m.Type {
		case KindIncident:
			incidents = append(incidents, m)
		case KindCamera:
			cameras = append(cameras, m)
		}
	}
	return incidents, cameras
}

// Index returns the position of the marker with the given ID, or -1.
func Index(markers []Marker, id string) int {
	for i, m := range markers {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// CheckUnique returns an error naming the first duplicated ID.
func CheckUnique(markers []Marker) error {
	seen := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		if _, ok := seen[m.ID]; ok {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalid, m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}
