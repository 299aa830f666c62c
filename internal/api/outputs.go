package api

import (
	"context"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/report"
)

type MapImageInput struct {
	AutoFit bool `query:"autoFit" doc:"Frame the markers instead of using the live viewport"`
}

type MapImageOutput struct {
	ContentType string `header:"Content-Type"`
	Schematic   string `header:"X-Map-Schematic" doc:"true when tiles failed and the schematic plot was drawn"`
	Body        []byte
}

type ReportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// RegisterOutputs registers statistics, map snapshot and report routes.
func (h *APIHandler) RegisterOutputs(api huma.API) {
	tags := huma.OperationTags("outputs")
	huma.Get(api, "/api/v1/stats", h.GetStats, tags)
	huma.Get(api, "/api/v1/map.png", h.GetMapImage, tags)
	huma.Get(api, "/api/v1/report.pdf", h.GetReport, tags)
}

func (h *APIHandler) GetStats(ctx context.Context, input *struct{}) (*struct{ Body report.Stats }, error) {
	return &struct{ Body report.Stats }{Body: h.svc.Stats()}, nil
}

func (h *APIHandler) GetMapImage(ctx context.Context, input *MapImageInput) (*MapImageOutput, error) {
	shot, err := h.svc.MapImage(ctx, input.AutoFit)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &MapImageOutput{
		ContentType: "image/png",
		Schematic:   strconv.FormatBool(shot.Schematic),
		Body:        shot.PNG,
	}, nil
}

func (h *APIHandler) GetReport(ctx context.Context, input *struct{}) (*ReportOutput, error) {
	pdf, err := h.svc.Report(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &ReportOutput{
		ContentType:        "application/pdf",
		ContentDisposition: `attachment; filename="report.pdf"`,
		Body:               pdf,
	}, nil
}
