package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/session"
)

// Click resolves a map click from the clickLat/clickLng signals.
func (h *Handler) Click(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	if !signals.Has("clickLat") || !signals.Has("clickLng") {
		return nil, huma.Error400BadRequest("clickLat and clickLng are required")
	}
	lat, okLat := signals.Number("clickLat")
	lng, okLng := signals.Number("clickLng")
	if !okLat || !okLng {
		return nil, huma.Error400BadRequest("clickLat and clickLng must be numbers")
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			res, st, err := h.svc.Click(lat, lng)
			if err != nil {
				sse.Error(err.Error())
				return
			}
			sse.Signals(selectionSignals(st))
			if res.Outcome == session.OutcomeSelect {
				sse.Patch(h.renderMarkers(st), MarkerListSelector)
			}
		},
	}, nil
}

// Sync runs a render cycle with the viewport the map reports. A pending jump
// wins and comes back with a bumped mapGeneration.
func (h *Handler) Sync(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	var fb *session.Feedback
	lat, okLat := signals.Number("mapLat")
	lng, okLng := signals.Number("mapLng")
	zoom, okZoom := signals.Number("mapZoom")
	if okLat && okLng && okZoom {
		fb = &session.Feedback{
			Viewport:   session.Viewport{Center: session.LatLng{Lat: lat, Lng: lng}, Zoom: zoom},
			Generation: signals.Int("mapGeneration"),
		}
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			st, err := h.svc.Sync(fb)
			if err != nil {
				sse.Error(err.Error())
				return
			}
			sse.Signals(viewSignals(st))
		},
	}, nil
}

// Select selects the marker named by the activeId signal.
func (h *Handler) Select(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	id := signals.String("activeId")

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			var ev session.Event = session.SelectMarker{ID: id}
			if id == "" {
				ev = session.ClearSelection{}
			}
			st, err := h.svc.Apply(ev)
			if err != nil {
				sse.Error(err.Error())
				return
			}
			sse.Signals(selectionSignals(st))
			sse.Patch(h.renderMarkers(st), MarkerListSelector)
		},
	}, nil
}

// Lock freezes or unfreezes the map from the mapLocked signal.
func (h *Handler) Lock(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	locked := signals.Bool("mapLocked")

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			st, err := h.svc.Apply(session.SetLock{Locked: locked})
			if err != nil {
				sse.Error(err.Error())
				return
			}
			s := selectionSignals(st)
			s["mapLocked"] = st.MapLocked
			sse.Signals(s)
		},
	}, nil
}

// Style switches the tile style from the style signal.
func (h *Handler) Style(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	style := signals.String("style")

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			st, err := h.svc.Apply(session.SetStyle{Style: style})
			if err != nil {
				sse.Error(err.Error())
			}
			sse.Signals(map[string]any{"style": st.Style})
		},
	}, nil
}

// CancelDraft discards the draft marker.
func (h *Handler) CancelDraft(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			st, err := h.svc.Apply(session.CancelDraft{})
			if err != nil {
				sse.Error(err.Error())
				return
			}
			sse.Signals(selectionSignals(st))
		},
	}, nil
}

// Search geocodes the query signal and runs the render cycle so the map
// jumps right away. Geocoder failures only set the status.
func (h *Handler) Search(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	query := signals.String("query")
	if query == "" {
		return nil, huma.Error400BadRequest("query is required")
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			st, err := h.svc.Search(humaCtx.Context(), query)
			if err == nil && st.View.JumpPending() {
				st, err = h.svc.Sync(nil)
			}
			if err != nil {
				sse.Error(err.Error())
				return
			}
			sse.Signals(viewSignals(st))
			sse.Status(st.Status)
			sse.Patch(h.renderStatus(st.Status), StatusSelector)
		},
	}, nil
}
