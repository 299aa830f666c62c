package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-claimmap/internal/csvimport"
	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/project"
	"github.com/joeblew999/plat-claimmap/internal/service"
	"github.com/joeblew999/plat-claimmap/internal/session"
)

// toHTTPError maps domain errors to Huma status errors.
func toHTTPError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrUnknownMarker):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, session.ErrNoDraft):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, csvimport.ErrMissingColumns),
		errors.Is(err, csvimport.ErrInvalidRow),
		errors.Is(err, csvimport.ErrEmpty),
		errors.Is(err, project.ErrInvalidProject):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, marker.ErrInvalid),
		errors.Is(err, session.ErrInvalidViewport),
		errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, service.ErrUnknownStyle):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, service.ErrAnalyticsUnavailable):
		return huma.Error503ServiceUnavailable(err.Error())
	}
	return huma.Error500InternalServerError("internal error", err)
}
