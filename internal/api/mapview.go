package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/session"
	"github.com/joeblew999/plat-claimmap/internal/staticmap"
)

// MapBody is the interactive map state.
type MapBody struct {
	View      session.ViewportState `json:"view" doc:"Viewport reconciliation state"`
	Draft     *session.LatLng       `json:"draft,omitempty" doc:"Uncommitted marker position"`
	ActiveID  string                `json:"activeId,omitempty" doc:"Selected marker"`
	MapLocked bool                  `json:"mapLocked" doc:"Whether clicks place new markers"`
	Style     string                `json:"style" doc:"Selected tile style"`
	Status    string                `json:"status,omitempty" doc:"Last status message"`
}

type MapOutput struct {
	Body MapBody
}

func mapOutput(st session.State) *MapOutput {
	return &MapOutput{Body: MapBody{
		View:      st.View,
		Draft:     st.Draft,
		ActiveID:  st.ActiveID,
		MapLocked: st.MapLocked,
		Style:     st.Style,
		Status:    st.Status,
	}}
}

type ClickBody struct {
	Resolution session.Resolution `json:"resolution" doc:"Decision taken for the click"`
	Map        MapBody            `json:"map" doc:"Map state after the click"`
}

type LockInput struct {
	Body struct {
		Locked bool `json:"locked" doc:"Freeze the map so clicks place markers"`
	}
}

type ClickInput struct {
	Body session.LatLng
}

type SyncInput struct {
	Body struct {
		Feedback *session.Feedback `json:"feedback,omitempty" doc:"Viewport reported by the map, omitted when unchanged"`
	}
}

type StyleInput struct {
	Body struct {
		Style string `json:"style" minLength:"1" doc:"Tile style name" example:"Satellite"`
	}
}

type SelectInput struct {
	Body struct {
		ID string `json:"id" doc:"Marker to select, empty clears the selection"`
	}
}

type JumpInput struct {
	Body session.Viewport
}

// RegisterMap registers interactive map routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	tags := huma.OperationTags("map")
	huma.Get(api, "/api/v1/map", h.GetMap, tags)
	huma.Post(api, "/api/v1/map/lock", h.Lock, tags)
	huma.Post(api, "/api/v1/map/click", h.Click, tags)
	huma.Post(api, "/api/v1/map/sync", h.Sync, tags)
	huma.Post(api, "/api/v1/map/jump", h.Jump, tags)
	huma.Get(api, "/api/v1/map/styles", h.GetStyles, tags)
	huma.Post(api, "/api/v1/map/style", h.SetStyle, tags)
	huma.Post(api, "/api/v1/map/select", h.Select, tags)
	huma.Post(api, "/api/v1/map/draft/cancel", h.CancelDraft, tags)
}

func (h *APIHandler) GetMap(ctx context.Context, input *struct{}) (*MapOutput, error) {
	return mapOutput(h.svc.State()), nil
}

func (h *APIHandler) apply(ev session.Event) (*MapOutput, error) {
	st, err := h.svc.Apply(ev)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return mapOutput(st), nil
}

func (h *APIHandler) Lock(ctx context.Context, input *LockInput) (*MapOutput, error) {
	return h.apply(session.SetLock{Locked: input.Body.Locked})
}

func (h *APIHandler) Click(ctx context.Context, input *ClickInput) (*struct{ Body ClickBody }, error) {
	res, st, err := h.svc.Click(input.Body.Lat, input.Body.Lng)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &struct{ Body ClickBody }{Body: ClickBody{Resolution: res, Map: mapOutput(st).Body}}, nil
}

func (h *APIHandler) Sync(ctx context.Context, input *SyncInput) (*MapOutput, error) {
	st, err := h.svc.Sync(input.Body.Feedback)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return mapOutput(st), nil
}

func (h *APIHandler) Jump(ctx context.Context, input *JumpInput) (*MapOutput, error) {
	return h.apply(session.JumpRequested{Target: input.Body})
}

func (h *APIHandler) GetStyles(ctx context.Context, input *struct{}) (*struct{ Body []staticmap.Style }, error) {
	return &struct{ Body []staticmap.Style }{Body: h.svc.Catalog()}, nil
}

func (h *APIHandler) SetStyle(ctx context.Context, input *StyleInput) (*MapOutput, error) {
	return h.apply(session.SetStyle{Style: input.Body.Style})
}

func (h *APIHandler) Select(ctx context.Context, input *SelectInput) (*MapOutput, error) {
	if input.Body.ID == "" {
		return h.apply(session.ClearSelection{})
	}
	return h.apply(session.SelectMarker{ID: input.Body.ID})
}

func (h *APIHandler) CancelDraft(ctx context.Context, input *struct{}) (*MapOutput, error) {
	return h.apply(session.CancelDraft{})
}
