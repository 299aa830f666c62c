// Package api defines the Huma API routes and handlers.
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/service"
)

// Version is reported by /health and /api/v1/info.
const Version = "1.0.0"

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *service.ProjectService
}

func NewAPIHandler(svc *service.ProjectService) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST route and the Link header transformer
// hook on api.
func RegisterRoutes(api huma.API, svc *service.ProjectService, info *InfoHandler) {
	huma.AutoRegister(api, NewAPIHandler(svc))
	info.RegisterRoutes(api)
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}
