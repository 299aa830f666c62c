package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/session"
)

type IDInput struct {
	ID string `path:"id" doc:"Marker ID" example:"I0001"`
}

type ListMarkersInput struct {
	Type string `query:"type" enum:"Incident,Camera" doc:"Only list markers of this kind"`
}

type MarkerOutput struct {
	Body marker.Marker
}

type MarkersOutput struct {
	Body []marker.Marker
}

type PatchMarkerInput struct {
	IDInput
	Body marker.Patch
}

type DeleteMarkersInput struct {
	IDs []string `query:"ids" required:"true" doc:"Comma separated marker IDs" example:"I0001,C0002"`
}

type DeleteMarkersBody struct {
	Deleted []string `json:"deleted" doc:"Removed marker IDs"`
	Message string   `json:"message" doc:"Result message"`
}

type CreateMarkerInput struct {
	Body struct {
		Kind          marker.Kind  `json:"type" enum:"Incident,Camera" doc:"Marker kind"`
		Level         marker.Level `json:"level" enum:"Light,Medium,Serious,Functioning,Not Functioning" doc:"Severity or status"`
		Date          string       `json:"date,omitempty" doc:"Incident date, defaults to today"`
		Description   string       `json:"description,omitempty" doc:"Incident type"`
		Parties       string       `json:"parties,omitempty" doc:"Parties involved"`
		ClaimFiled    bool         `json:"claim_filed,omitempty" doc:"Whether a claim was filed"`
		PremiumImpact bool         `json:"premium_impact,omitempty" doc:"Whether the premium is affected"`
		Compensation  float64      `json:"compensation,omitempty" minimum:"0" doc:"Compensation in dollars"`
	}
}

type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// RegisterMarkers registers marker CRUD routes.
func (h *APIHandler) RegisterMarkers(api huma.API) {
	tags := huma.OperationTags("markers")
	huma.Get(api, "/api/v1/markers", h.ListMarkers, tags)
	huma.Post(api, "/api/v1/markers", h.CreateMarker, tags, func(o *huma.Operation) {
		o.DefaultStatus = http.StatusCreated
		o.Description = "Commits the draft placed by the last map click."
	})
	huma.Delete(api, "/api/v1/markers", h.DeleteMarkers, tags)
	huma.Get(api, "/api/v1/markers.geojson", h.GetGeoJSON, tags)
	huma.Get(api, "/api/v1/markers/{id}", h.GetMarker, tags)
	huma.Patch(api, "/api/v1/markers/{id}", h.PatchMarker, tags)
}

func (h *APIHandler) ListMarkers(ctx context.Context, input *ListMarkersInput) (*MarkersOutput, error) {
	out := []marker.Marker{}
	for _, m := range h.svc.State().Markers() {
		if input.Type == "" || string(m.Type) == input.Type {
			out = append(out, m)
		}
	}
	return &MarkersOutput{Body: out}, nil
}

func (h *APIHandler) GetMarker(ctx context.Context, input *IDInput) (*MarkerOutput, error) {
	ms := h.svc.State().Markers()
	i := marker.Index(ms, input.ID)
	if i < 0 {
		return nil, huma.Error404NotFound("marker not found")
	}
	return &MarkerOutput{Body: ms[i]}, nil
}

func (h *APIHandler) PatchMarker(ctx context.Context, input *PatchMarkerInput) (*MarkerOutput, error) {
	if input.Body.Empty() {
		return nil, huma.Error400BadRequest("patch changes nothing")
	}
	st, err := h.svc.Apply(session.UpdateMarker{ID: input.ID, Patch: input.Body})
	if err != nil {
		return nil, toHTTPError(err)
	}
	ms := st.Markers()
	return &MarkerOutput{Body: ms[marker.Index(ms, input.ID)]}, nil
}

func (h *APIHandler) DeleteMarkers(ctx context.Context, input *DeleteMarkersInput) (*struct{ Body DeleteMarkersBody }, error) {
	if _, err := h.svc.Apply(session.DeleteMarkers{IDs: input.IDs}); err != nil {
		return nil, toHTTPError(err)
	}
	return &struct{ Body DeleteMarkersBody }{Body: DeleteMarkersBody{
		Deleted: input.IDs, Message: "Markers deleted",
	}}, nil
}

func (h *APIHandler) CreateMarker(ctx context.Context, input *CreateMarkerInput) (*MarkerOutput, error) {
	b := input.Body
	st, err := h.svc.Apply(session.CreateFromDraft{
		Kind:          b.Kind,
		Level:         b.Level,
		Date:          b.Date,
		Description:   b.Description,
		Parties:       b.Parties,
		ClaimFiled:    b.ClaimFiled,
		PremiumImpact: b.PremiumImpact,
		Compensation:  b.Compensation,
	})
	if err != nil {
		return nil, toHTTPError(err)
	}
	ms := st.Markers()
	return &MarkerOutput{Body: ms[len(ms)-1]}, nil
}

func (h *APIHandler) GetGeoJSON(ctx context.Context, input *struct{}) (*GeoJSONOutput, error) {
	b, err := json.Marshal(h.svc.GeoJSON())
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: b}, nil
}
