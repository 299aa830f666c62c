package api

import (
	"bytes"
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/project"
	"github.com/joeblew999/plat-claimmap/internal/session"
)

// ProjectBody is the project metadata without its markers.
type ProjectBody struct {
	Session   string            `json:"session" doc:"Session identifier"`
	Name      string            `json:"name" doc:"Project name"`
	Property  string            `json:"property" doc:"Property name"`
	Year      string            `json:"year" doc:"Report year"`
	Author    string            `json:"author" doc:"Report author"`
	Date      string            `json:"date" doc:"Report date"`
	Markers   int               `json:"markers" doc:"Number of markers"`
	MapConfig project.MapConfig `json:"map_config" doc:"Persisted viewport"`
}

type ProjectOutput struct {
	Body ProjectBody
}

func projectOutput(st session.State) *ProjectOutput {
	p := st.Snapshot()
	return &ProjectOutput{Body: ProjectBody{
		Session:   st.ID,
		Name:      p.Name,
		Property:  p.Property,
		Year:      string(p.Year),
		Author:    p.Author,
		Date:      p.Date,
		Markers:   len(p.Markers),
		MapConfig: p.MapConfig,
	}}
}

type ProjectInfoInput struct {
	Body struct {
		Name     *string `json:"name,omitempty" doc:"Project name"`
		Property *string `json:"property,omitempty" doc:"Property name"`
		Year     *string `json:"year,omitempty" doc:"Report year"`
		Author   *string `json:"author,omitempty" doc:"Report author"`
		Date     *string `json:"date,omitempty" doc:"Report date"`
	}
}

type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

type ImportProjectInput struct {
	RawBody []byte `contentType:"application/json"`
}

// RegisterProject registers project lifecycle routes.
func (h *APIHandler) RegisterProject(api huma.API) {
	tags := huma.OperationTags("project")
	huma.Get(api, "/api/v1/project", h.GetProject, tags)
	huma.Put(api, "/api/v1/project", h.PutProject, tags)
	huma.Post(api, "/api/v1/project/new", h.NewProject, tags)
	huma.Get(api, "/api/v1/project/export", h.ExportProject, tags)
	huma.Post(api, "/api/v1/project/import", h.ImportProject, tags)
}

func (h *APIHandler) GetProject(ctx context.Context, input *struct{}) (*ProjectOutput, error) {
	return projectOutput(h.svc.State()), nil
}

func (h *APIHandler) PutProject(ctx context.Context, input *ProjectInfoInput) (*ProjectOutput, error) {
	b := input.Body
	st, err := h.svc.Apply(session.SetProjectInfo{
		Name: b.Name, Property: b.Property, Year: b.Year, Author: b.Author, Date: b.Date,
	})
	if err != nil {
		return nil, toHTTPError(err)
	}
	return projectOutput(st), nil
}

func (h *APIHandler) NewProject(ctx context.Context, input *struct{}) (*ProjectOutput, error) {
	st, err := h.svc.Reset()
	if err != nil {
		return nil, toHTTPError(err)
	}
	return projectOutput(st), nil
}

func (h *APIHandler) ExportProject(ctx context.Context, input *struct{}) (*ExportOutput, error) {
	b, filename, err := h.svc.Save()
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &ExportOutput{
		ContentType:        "application/json",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", filename),
		Body:               b,
	}, nil
}

func (h *APIHandler) ImportProject(ctx context.Context, input *ImportProjectInput) (*ProjectOutput, error) {
	st, err := h.svc.Load(bytes.NewReader(input.RawBody))
	if err != nil {
		return nil, toHTTPError(err)
	}
	return projectOutput(st), nil
}
