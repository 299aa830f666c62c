package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/service"
)

// Events streams session changes to the editor. Marker and project changes
// re-render the list and statistics; every event is also dispatched to the
// page as a resource-changed DOM event.
func (h *Handler) Events(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			bus := h.svc.Bus()
			ch := bus.Subscribe()
			defer bus.Unsubscribe(ch)

			done := humaCtx.Context().Done()
			for {
				select {
				case <-done:
					return
				case ev := <-ch:
					st := h.svc.State()
					switch ev.Resource {
					case service.ResourceMarkers, service.ResourceProject:
						h.patchMarkers(sse, st)
					case service.ResourceSelection:
						sse.Signals(selectionSignals(st))
						sse.Patch(h.renderMarkers(st), MarkerListSelector)
					case service.ResourceStatus:
						sse.Patch(h.renderStatus(st.Status), StatusSelector)
					case service.ResourceView:
						sse.Signals(viewSignals(st))
					}
					sse.DispatchCustomEvent("resource-changed", map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"ids":      ev.IDs,
						"style":    st.Style,
					})
				}
			}
		},
	}, nil
}
