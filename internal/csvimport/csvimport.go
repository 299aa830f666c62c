// Package csvimport reads camera and incident lists from CSV files.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/joeblew999/plat-claimmap/internal/marker"
)

var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrInvalidRow     = errors.New("invalid row")
	ErrEmpty          = errors.New("no rows to import")
)

// Column sets per marker kind.
var (
	CameraRequired   = []string{"level"}
	CameraOptional   = []string{"lat", "lng", "location"}
	IncidentRequired = []string{"level", "description"}
	IncidentOptional = []string{"lat", "lng", "location", "date", "compensation", "claim_filed", "premium_impact", "parties"}
)

// Download templates offered next to the import buttons.
const (
	CameraTemplate = "level,lat,lng,location\n" +
		"Functioning,33.6450,-117.9329,Main Entrance\n" +
		"Not Functioning,33.6455,-117.9330,Back Lot\n"
	IncidentTemplate = "level,description,lat,lng,date,compensation,claim_filed,premium_impact,parties,location\n" +
		"Medium,Slip,33.6450,-117.9329,2023-10-25,500.00,True,False,,Lobby\n" +
		"Serious,Fire,33.6460,-117.9340,2023-11-01,15000.00,True,True,,Kitchen\n"
)

// Options supplies the defaults for cells left empty.
type Options struct {
	CenterLat float64
	CenterLng float64
	Today     string
}

// MissingColumnsError lists the required columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }

var policy = bluemonday.StrictPolicy()

// clean strips markup from free text.
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

type table struct {
	index map[string]int
	rows  [][]string
}

func (t *table) get(row []string, col string) (string, bool) {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[i])
	return v, v != ""
}

func read(r io.Reader, required []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &MissingColumnsError{Columns: required}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}
	t := &table{index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	var missing []string
	for _, col := range required {
		if _, ok := t.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	t.rows = rows
	return t, nil
}

func (t *table) coords(row []string, line int, opts Options) (float64, float64, error) {
	lat, lng := opts.CenterLat, opts.CenterLng
	if v, ok := t.get(row, "lat"); ok {
		f, err := parseNumber(v)
		if err != nil {
			return 0, 0, rowErr(line, "lat %q is not a number", v)
		}
		lat = f
	}
	if v, ok := t.get(row, "lng"); ok {
		f, err := parseNumber(v)
		if err != nil {
			return 0, 0, rowErr(line, "lng %q is not a number", v)
		}
		lng = f
	}
	return lat, lng, nil
}

func (t *table) location(row []string, lat, lng float64) string {
	if v, ok := t.get(row, "location"); ok {
		if c := clean(v); c != "" {
			return c
		}
	}
	return marker.DefaultLocation(lat, lng)
}

// Cameras parses a camera CSV into markers without IDs. Any bad row rejects
// the whole file.
func Cameras(r io.Reader, opts Options) ([]marker.Marker, error) {
	t, err := read(r, CameraRequired)
	if err != nil {
		return nil, err
	}
	out := make([]marker.Marker, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		lat, lng, err := t.coords(row, line, opts)
		if err != nil {
			return nil, err
		}
		level, _ := t.get(row, "level")
		m := marker.Marker{
			Lat:         lat,
			Lng:         lng,
			Type:        marker.KindCamera,
			Level:       marker.CoerceCameraLevel(level),
			Location:    t.location(row, lat, lng),
			Date:        opts.Today,
			Description: marker.CameraDescription,
		}
		if err := checkRow(m, line); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Incidents parses an incident CSV into markers without IDs. Descriptions
// are kept as written.
func Incidents(r io.Reader, opts Options) ([]marker.Marker, error) {
	t, err := read(r, IncidentRequired)
	if err != nil {
		return nil, err
	}
	out := make([]marker.Marker, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		lat, lng, err := t.coords(row, line, opts)
		if err != nil {
			return nil, err
		}
		level, _ := t.get(row, "level")
		desc, _ := t.get(row, "description")
		desc = clean(desc)
		if desc == "" {
			return nil, rowErr(line, "description is required")
		}

		comp := 0.0
		if v, ok := t.get(row, "compensation"); ok {
			comp, err = parseAmount(v)
			if err != nil {
				return nil, rowErr(line, "compensation %q is not an amount", v)
			}
		}

		date := opts.Today
		if v, ok := t.get(row, "date"); ok {
			date = v
		}
		claim, _ := t.get(row, "claim_filed")
		premium, _ := t.get(row, "premium_impact")
		parties, _ := t.get(row, "parties")

		m := marker.Marker{
			Lat:           lat,
			Lng:           lng,
			Type:          marker.KindIncident,
			Level:         marker.CoerceIncidentLevel(level),
			Location:      t.location(row, lat, lng),
			Date:          date,
			Parties:       clean(parties),
			ClaimFiled:    marker.ParseFlag(claim),
			PremiumImpact: marker.ParseFlag(premium),
			Description:   desc,
			Compensation:  comp,
		}
		if err := checkRow(m, line); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// checkRow validates a row with a placeholder ID; real IDs are allocated
// when the markers join the store.
func checkRow(m marker.Marker, line int) error {
	m.ID = m.Type.Prefix() + "0000"
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: line %d: %w", ErrInvalidRow, line, err)
	}
	return nil
}

func rowErr(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrInvalidRow, line, fmt.Sprintf(format, args...))
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return f, nil
}

// parseAmount accepts plain numbers and "$1,234.50" style amounts.
func parseAmount(s string) (float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	return parseNumber(s)
}
