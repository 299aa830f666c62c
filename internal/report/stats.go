// Package report computes marker statistics and assembles the PDF report.
package report

import (
	"sort"

	"github.com/joeblew999/plat-claimmap/internal/marker"
)

// TopN is the length of the ranked lists.
const TopN = 5

// CameraStats summarizes camera status.
type CameraStats struct {
	Total          int `json:"total" doc:"Number of cameras"`
	Functioning    int `json:"functioning" doc:"Cameras reporting Functioning"`
	NotFunctioning int `json:"notFunctioning" doc:"Cameras reporting Not Functioning"`
}

// TypeCount is an incident description and how often it occurs.
type TypeCount struct {
	Type  string `json:"type" doc:"Incident type"`
	Count int    `json:"count" doc:"Occurrences"`
}

// IncidentStats summarizes incidents and compensation.
type IncidentStats struct {
	Total             int             `json:"total" doc:"Number of incidents (claims)"`
	Serious           int             `json:"serious"`
	Medium            int             `json:"medium"`
	Light             int             `json:"light"`
	TotalCompensation float64         `json:"totalCompensation" doc:"Sum of compensation"`
	TopClaims         []marker.Marker `json:"topClaims" doc:"Highest compensation first, ties in insertion order"`
	TopTypes          []TypeCount     `json:"topTypes" doc:"Most frequent incident types"`
}

// Stats is the full summary.
type Stats struct {
	Cameras   CameraStats   `json:"cameras"`
	Incidents IncidentStats `json:"incidents"`
}

// Compute derives statistics from markers.
func Compute(markers []marker.Marker) Stats {
	incidents, cameras := marker.Split(markers)
	return Stats{Cameras: Cameras(cameras), Incidents: Incidents(incidents)}
}

// Cameras counts camera status.
func Cameras(cameras []marker.Marker) CameraStats {
	s := CameraStats{Total: len(cameras)}
	for _, c := range cameras {
		switch c.Level {
		case marker.LevelFunctioning:
			s.Functioning++
		case marker.LevelNotFunctioning:
			s.NotFunctioning++
		}
	}
	return s
}

// Incidents counts incidents by severity and ranks them.
func Incidents(incidents []marker.Marker) IncidentStats {
	s := IncidentStats{
		Total:     len(incidents),
		TopClaims: []marker.Marker{},
		TopTypes:  []TypeCount{},
	}
	counts := map[string]int{}
	var order []string
	for _, in := range incidents {
		switch in.Level {
		case marker.LevelSerious:
			s.Serious++
		case marker.LevelMedium:
			s.Medium++
		case marker.LevelLight:
			s.Light++
		}
		s.TotalCompensation += in.Compensation
		if _, seen := counts[in.Description]; !seen {
			order = append(order, in.Description)
		}
		counts[in.Description]++
	}

	ranked := append([]marker.Marker(nil), incidents...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Compensation > ranked[j].Compensation
	})
	if len(ranked) > TopN {
		ranked = ranked[:TopN]
	}
	s.TopClaims = append(s.TopClaims, ranked...)

	for _, t := range order {
		s.TopTypes = append(s.TopTypes, TypeCount{Type: t, Count: counts[t]})
	}
	sort.SliceStable(s.TopTypes, func(i, j int) bool {
		return s.TopTypes[i].Count > s.TopTypes[j].Count
	})
	if len(s.TopTypes) > TopN {
		s.TopTypes = s.TopTypes[:TopN]
	}
	return s
}
