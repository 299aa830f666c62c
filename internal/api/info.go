package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/service"
)

type InfoHandler struct {
	dataDir string
	dbOK    bool
	svc     *service.ProjectService
}

func NewInfoHandler(dataDir string, dbOK bool, svc *service.ProjectService) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, dbOK: dbOK, svc: svc}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name        string   `json:"name" doc:"Service name"`
	Version     string   `json:"version" doc:"Service version"`
	DataDir     string   `json:"data_dir" doc:"Data directory path, empty for in-memory analytics"`
	DB          bool     `json:"db" doc:"Whether database is available"`
	Session     string   `json:"session" doc:"Current session identifier"`
	Markers     int      `json:"markers" doc:"Number of markers in the session"`
	Styles      []string `json:"styles" doc:"Available tile styles"`
	Subscribers int      `json:"subscribers" doc:"Live editor event streams"`
	Features    []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	st := h.svc.State()
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:        "claimmap",
		Version:     Version,
		DataDir:     h.dataDir,
		DB:          h.dbOK,
		Session:     st.ID,
		Markers:     len(st.Markers()),
		Styles:      h.svc.Catalog().Names(),
		Subscribers: h.svc.Bus().Subscribers(),
		Features:    []string{"geocode", "csv-import", "static-map", "pdf-report", "duckdb"},
	}}, nil
}
