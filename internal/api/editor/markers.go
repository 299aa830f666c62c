package editor

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/session"
)

// ListMarkers patches the marker list and the statistics panel.
func (h *Handler) ListMarkers(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			h.patchMarkers(sse, h.svc.State())
		},
	}, nil
}

// ParseDraftSignals reads the new-marker form.
func ParseDraftSignals(s Signals) session.CreateFromDraft {
	comp, _ := s.Number("draftCompensation")
	return session.CreateFromDraft{
		Kind:          marker.Kind(s.String("draftKind")),
		Level:         marker.Level(s.String("draftLevel")),
		Date:          s.String("draftDate"),
		Description:   s.String("draftDescription"),
		Parties:       s.String("draftParties"),
		ClaimFiled:    s.Bool("draftClaimFiled"),
		PremiumImpact: s.Bool("draftPremiumImpact"),
		Compensation:  comp,
	}
}

// CreateMarker commits the draft marker with the form values.
func (h *Handler) CreateMarker(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	ev := ParseDraftSignals(signals)
	if !ev.Kind.Valid() {
		return nil, huma.Error400BadRequest("draftKind must be Incident or Camera")
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			st, err := h.svc.Apply(ev)
			if err != nil {
				sse.Error(err.Error())
				return
			}
			created := st.Markers()[len(st.Markers())-1]
			s := selectionSignals(st)
			s["error"] = ""
			sse.Signals(s)
			sse.Status(fmt.Sprintf("Added %s %s", created.Type, created.ID))
			h.patchMarkers(sse, st)
		},
	}, nil
}
