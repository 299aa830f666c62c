package session

import (
	"math"

	"github.com/joeblew999/plat-claimmap/internal/marker"
)

// Hit radius in degrees, defined at ReferenceZoom and doubled per zoom level out.
const (
	BaseThreshold = 0.00005
	MinThreshold  = 0.00001
	MaxThreshold  = 0.01
	ReferenceZoom = 18
)

// Threshold returns the click hit radius in degrees for a zoom level.
func Threshold(zoom float64) float64 {
	t := BaseThreshold * math.Pow(2, ReferenceZoom-zoom)
	return math.Max(MinThreshold, math.Min(MaxThreshold, t))
}

// Outcome is the decision taken for a map click.
type Outcome string

const (
	OutcomeNoOp   Outcome = "noop"
	OutcomeSelect Outcome = "select"
	OutcomeDraft  Outcome = "draft"
)

// Resolution is the result of resolving a click.
type Resolution struct {
	Outcome  Outcome `json:"outcome" enum:"noop,select,draft" doc:"Decision taken for the click"`
	MarkerID string  `json:"markerId,omitempty" doc:"Selected marker"`
	Point    LatLng  `json:"point" doc:"Click position"`
}

// ClickContext is the session state a click is resolved against.
type ClickContext struct {
	Zoom      float64
	Locked    bool
	ActiveID  string
	LastClick *LatLng
}

// Resolve decides whether a click selects the nearest marker within the
// zoom-dependent threshold, starts a draft, or does nothing. Distances are
// planar in degree space. The first marker strictly closer than the running
// minimum wins.
func Resolve(markers []marker.Marker, click LatLng, ctx ClickContext) Resolution {
	res := Resolution{Outcome: OutcomeNoOp, Point: click}

	best := Threshold(ctx.Zoom)
	found := ""
	for _, m := range markers {
		d := math.Hypot(m.Lat-click.Lat, m.Lng-click.Lng)
		if d < best {
			best = d
			found = m.ID
		}
	}

	switch {
	case found != "":
		if found == ctx.ActiveID {
			return res
		}
		res.Outcome = OutcomeSelect
		res.MarkerID = found
	case ctx.Locked:
		// exact comparison; duplicate delivery repeats identical floats
		if ctx.LastClick != nil && *ctx.LastClick == click {
			return res
		}
		res.Outcome = OutcomeDraft
	}
	return res
}
