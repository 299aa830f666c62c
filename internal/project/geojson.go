package project

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-claimmap/internal/marker"
)

// FeatureCollection exports markers as GeoJSON points carrying every
// attribute as a property.
func FeatureCollection(markers []marker.Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewFeature(orb.Point{m.Lng, m.Lat})
		f.ID = m.ID
		f.Properties["id"] = m.ID
		f.Properties["type"] = string(m.Type)
		f.Properties["level"] = string(m.Level)
		f.Properties["location"] = m.Location
		f.Properties["date"] = m.Date
		f.Properties["description"] = m.Description
		if m.IsIncident() {
			f.Properties["parties"] = m.Parties
			f.Properties["claim_filed"] = m.ClaimFiled
			f.Properties["premium_impact"] = m.PremiumImpact
			f.Properties["compensation"] = m.Compensation
		}
		fc.Append(f)
	}
	return fc
}

// Bound returns the bounding box of the markers and false when empty.
func Bound(markers []marker.Marker) (orb.Bound, bool) {
	if len(markers) == 0 {
		return orb.Bound{}, false
	}
	mp := make(orb.MultiPoint, 0, len(markers))
	for _, m := range markers {
		mp = append(mp, orb.Point{m.Lng, m.Lat})
	}
	return mp.Bound(), true
}
