package api

import (
	"bytes"
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/csvimport"
	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/session"
)

type SearchInput struct {
	Body struct {
		Query string `json:"query" minLength:"1" doc:"Address to look up" example:"1600 Pennsylvania Ave NW, Washington"`
	}
}

type SearchBody struct {
	Status string            `json:"status" doc:"Status line shown to the user"`
	Found  bool              `json:"found" doc:"Whether the map jumps to a result"`
	Target *session.Viewport `json:"target,omitempty" doc:"Viewport the map jumps to on the next sync"`
}

type KindInput struct {
	Kind string `path:"kind" enum:"cameras,incidents" doc:"Marker kind to import"`
}

type ImportInput struct {
	KindInput
	RawBody []byte `contentType:"text/csv"`
}

type ImportBody struct {
	Imported int    `json:"imported" doc:"Number of markers added"`
	Message  string `json:"message" doc:"Result message"`
}

type CSVOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func (k KindInput) kind() marker.Kind {
	if k.Kind == "cameras" {
		return marker.KindCamera
	}
	return marker.KindIncident
}

// RegisterSearch registers address search and CSV import routes.
func (h *APIHandler) RegisterSearch(api huma.API) {
	huma.Post(api, "/api/v1/search", h.Search, huma.OperationTags("search"), func(o *huma.Operation) {
		o.Description = "Geocoder failures are reported in the status, not as errors."
	})
	huma.Post(api, "/api/v1/import/{kind}", h.Import, huma.OperationTags("import"))
	huma.Get(api, "/api/v1/import/{kind}/template", h.ImportTemplate, huma.OperationTags("import"))
}

func (h *APIHandler) Search(ctx context.Context, input *SearchInput) (*struct{ Body SearchBody }, error) {
	st, err := h.svc.Search(ctx, input.Body.Query)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &struct{ Body SearchBody }{Body: SearchBody{
		Status: st.Status,
		Found:  st.View.JumpPending(),
		Target: st.View.Pending,
	}}, nil
}

func (h *APIHandler) Import(ctx context.Context, input *ImportInput) (*struct{ Body ImportBody }, error) {
	n, err := h.svc.Import(input.kind(), bytes.NewReader(input.RawBody))
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &struct{ Body ImportBody }{Body: ImportBody{
		Imported: n,
		Message:  "Import complete",
	}}, nil
}

func (h *APIHandler) ImportTemplate(ctx context.Context, input *KindInput) (*CSVOutput, error) {
	body, name := csvimport.IncidentTemplate, "incident_import_template.csv"
	if input.kind() == marker.KindCamera {
		body, name = csvimport.CameraTemplate, "camera_import_template.csv"
	}
	return &CSVOutput{
		ContentType:        "text/csv",
		ContentDisposition: `attachment; filename="` + name + `"`,
		Body:               []byte(body),
	}, nil
}
