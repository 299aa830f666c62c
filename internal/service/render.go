package service

import (
	"context"
	"image"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/project"
	"github.com/joeblew999/plat-claimmap/internal/report"
	"github.com/joeblew999/plat-claimmap/internal/session"
	"github.com/joeblew999/plat-claimmap/internal/staticmap"
)

func withReason(r string) metric.AddOption {
	return metric.WithAttributes(attribute.String("reason", r))
}

// Snapshot is a rendered map image.
type Snapshot struct {
	PNG       []byte
	Schematic bool
	View      staticmap.View
}

// MapImage renders the markers over the viewport the map is showing, or
// framed by the markers when autoFit is set. A pending jump counts as shown.
// A tile failure falls back to the schematic.
func (s *ProjectService) MapImage(ctx context.Context, autoFit bool) (Snapshot, error) {
	st := s.State()
	return s.renderMap(ctx, st.Markers(), st.View.Next(), st.Style, autoFit)
}

func (s *ProjectService) renderMap(ctx context.Context, markers []marker.Marker, vp session.Viewport, style string, autoFit bool) (Snapshot, error) {
	incidents, cameras := marker.Split(markers)
	view := staticmap.ResolveView(markers, vp.Center.Point(), vp.Zoom, autoFit)

	img, schematic := s.drawMap(ctx, incidents, cameras, view, style)
	if img == nil {
		var err error
		img, err = staticmap.Schematic(incidents, cameras, s.width, s.height)
		if err != nil {
			return Snapshot{}, err
		}
	}
	b, err := staticmap.EncodePNG(img)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{PNG: b, Schematic: schematic, View: view}, nil
}

// drawMap composes tiles. It returns a nil image when the tile render failed.
func (s *ProjectService) drawMap(ctx context.Context, incidents, cameras []marker.Marker, view staticmap.View, style string) (image.Image, bool) {
	st, ok := s.catalog.Lookup(style)
	if !ok {
		st = s.catalog[0]
	}
	r := staticmap.NewRenderer(s.tiles(st))
	if s.workers > 0 {
		r.Workers = s.workers
	}
	img, err := r.Render(ctx, staticmap.Request{
		Incidents: incidents,
		Cameras:   cameras,
		View:      view,
		Width:     s.width,
		Height:    s.height,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("style", st.Name).Msg("tile render failed, using schematic")
		s.metrics.tileFallback.Add(ctx, 1, withReason("tiles"))
		return nil, true
	}
	return img, false
}

// Report returns the PDF report for the current session. The map uses the
// viewport the user sees, including a jump not yet picked up by the map.
// Identical inputs are served from the cache while fresh.
func (s *ProjectService) Report(ctx context.Context) ([]byte, error) {
	st := s.State()
	snap := st.Snapshot()
	shown := st.View.Next()
	key := report.CacheKey{
		Project: snap,
		Style:   st.Style,
		Lat:     shown.Center.Lat,
		Lng:     shown.Center.Lng,
		Zoom:    shown.Zoom,
		Day:     s.today(),
	}
	if s.cache != nil {
		if pdf, ok := s.cache.Get(key); ok {
			s.metrics.cacheHits.Add(ctx, 1)
			return pdf, nil
		}
	}

	var mapPNG []byte
	if len(snap.Markers) > 0 {
		shot, err := s.renderMap(ctx, snap.Markers, shown, st.Style, false)
		if err != nil {
			s.log.Warn().Err(err).Msg("map snapshot failed")
		} else {
			mapPNG = shot.PNG
		}
	}

	pdf, err := s.assemble(snap, mapPNG)
	if err != nil {
		return nil, err
	}
	s.metrics.reports.Add(ctx, 1)
	if s.cache != nil {
		s.cache.Put(key, pdf)
	}
	return pdf, nil
}

func (s *ProjectService) assemble(p project.Project, mapPNG []byte) ([]byte, error) {
	a := *s.assembler
	if a.Now == nil {
		a.Now = s.now
	}
	return a.Assemble(p, mapPNG)
}

// RenderProject builds a report for p outside any session. The map is framed
// by the project viewport, or by the markers when autoFit is set.
func (s *ProjectService) RenderProject(ctx context.Context, p project.Project, style string, autoFit bool) ([]byte, error) {
	if style == "" {
		style = s.style
	}
	if _, ok := s.catalog.Lookup(style); !ok {
		return nil, ErrUnknownStyle
	}
	var mapPNG []byte
	if len(p.Markers) > 0 {
		vp := session.ViewportFromConfig(p.MapConfig)
		shot, err := s.renderMap(ctx, p.Markers, vp, style, autoFit)
		if err != nil {
			s.log.Warn().Err(err).Msg("map snapshot failed")
		} else {
			mapPNG = shot.PNG
		}
	}
	return s.assemble(p, mapPNG)
}
