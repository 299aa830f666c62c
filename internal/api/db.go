package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/db"
	"github.com/joeblew999/plat-claimmap/internal/service"
)

// TablesOutput is the response for listing tables.
type TablesOutput struct {
	Body struct {
		Tables []string `json:"tables" doc:"List of table names"`
	}
}

// QueryInput is the input for SQL queries.
type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" minLength:"1" doc:"SQL query to execute" example:"SELECT level, count(*) FROM markers GROUP BY level"`
	}
}

// QueryOutput is the response for SQL queries.
type QueryOutput struct {
	Body db.Result
}

// RegisterAnalytics registers DuckDB routes. Queries run against a fresh
// markers table loaded from the current session.
func (h *APIHandler) RegisterAnalytics(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("analytics"))
	huma.Post(api, "/api/v1/query", h.Query, huma.OperationTags("analytics"))
}

// ListTables returns all DuckDB tables.
func (h *APIHandler) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	tables, err := h.svc.Tables(ctx)
	if err != nil {
		if errors.Is(err, service.ErrAnalyticsUnavailable) {
			return nil, huma.Error503ServiceUnavailable("Database not available")
		}
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	out := &TablesOutput{}
	out.Body.Tables = tables
	return out, nil
}

// Query executes a SQL query against DuckDB.
func (h *APIHandler) Query(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
	res, err := h.svc.Query(ctx, input.Body.Query)
	if err != nil {
		if errors.Is(err, service.ErrAnalyticsUnavailable) {
			return nil, huma.Error503ServiceUnavailable("Database not available")
		}
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	return &QueryOutput{Body: res}, nil
}
