package editor

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/service"
	"github.com/joeblew999/plat-claimmap/internal/session"
	"github.com/joeblew999/plat-claimmap/internal/templates"
)

// Element selectors patched by the editor handlers.
const (
	MarkerListSelector = "#marker-list"
	StatsSelector      = "#stats"
	StatusSelector     = "#status"
)

// Handler serves the editor page and its SSE endpoints.
type Handler struct {
	svc      *service.ProjectService
	renderer *templates.Renderer
	log      zerolog.Logger
}

// NewHandler creates the editor handler.
func NewHandler(svc *service.ProjectService, renderer *templates.Renderer, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, renderer: renderer, log: log.With().Str("component", "editor").Logger()}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags("editor")
	huma.Get(api, "/api/v1/editor/markers", h.ListMarkers, tags)
	huma.Post(api, "/api/v1/editor/markers", h.CreateMarker, tags)
	huma.Post(api, "/api/v1/editor/map/click", h.Click, tags)
	huma.Post(api, "/api/v1/editor/map/sync", h.Sync, tags)
	huma.Post(api, "/api/v1/editor/map/select", h.Select, tags)
	huma.Post(api, "/api/v1/editor/map/lock", h.Lock, tags)
	huma.Post(api, "/api/v1/editor/map/style", h.Style, tags)
	huma.Post(api, "/api/v1/editor/map/draft/cancel", h.CancelDraft, tags)
	huma.Post(api, "/api/v1/editor/search", h.Search, tags)
	huma.Get(api, "/api/v1/editor/events", h.Events, tags)
}

// Page serves the editor HTML page.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	st := h.svc.State()
	signals, err := json.Marshal(initialSignals(st))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	title := st.Project.Property
	if title == "" {
		title = st.Project.Name
	}
	var buf bytes.Buffer
	err = h.renderer.RenderToBuffer(&buf, "editor", templates.Page{
		Title:    title,
		Styles:   h.svc.Catalog().Names(),
		Style:    st.Style,
		Signals:  string(signals),
		Stats:    h.svc.Stats(),
		Markers:  templates.MarkerList{Markers: st.Markers(), ActiveID: st.ActiveID},
		Incident: marker.IncidentTypes,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("render editor page")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// initialSignals seeds the page with every signal the handlers read or patch.
func initialSignals(st session.State) map[string]any {
	s := viewSignals(st)
	for k, v := range selectionSignals(st) {
		s[k] = v
	}
	s["clickLat"] = 0
	s["clickLng"] = 0
	s["mapLocked"] = st.MapLocked
	s["style"] = st.Style
	s["status"] = st.Status
	s["query"] = ""
	s["error"] = ""
	s["draftKind"] = string(marker.KindIncident)
	s["draftLevel"] = string(marker.LevelLight)
	s["draftDescription"] = marker.IncidentTypes[0]
	s["draftCompensation"] = 0
	s["draftParties"] = ""
	s["draftClaimFiled"] = false
	s["draftPremiumImpact"] = false
	return s
}

// viewSignals carries the live viewport and the generation the map widget
// must be mounted with.
func viewSignals(st session.State) map[string]any {
	live := st.View.Live
	return map[string]any{
		"mapLat":        live.Center.Lat,
		"mapLng":        live.Center.Lng,
		"mapZoom":       live.Zoom,
		"mapGeneration": st.View.Generation,
	}
}

// selectionSignals carries the selected marker and the draft position. A
// missing draft is sent as null.
func selectionSignals(st session.State) map[string]any {
	s := map[string]any{"activeId": st.ActiveID, "draftLat": nil, "draftLng": nil}
	if st.Draft != nil {
		s["draftLat"] = st.Draft.Lat
		s["draftLng"] = st.Draft.Lng
	}
	return s
}

func (h *Handler) renderMarkers(st session.State) string {
	var buf bytes.Buffer
	if err := h.renderer.RenderToBuffer(&buf, "marker-list", templates.MarkerList{Markers: st.Markers(), ActiveID: st.ActiveID}); err != nil {
		h.log.Error().Err(err).Msg("render marker list")
	}
	return buf.String()
}

func (h *Handler) renderStats() string {
	var buf bytes.Buffer
	if err := h.renderer.RenderToBuffer(&buf, "stats", h.svc.Stats()); err != nil {
		h.log.Error().Err(err).Msg("render stats")
	}
	return buf.String()
}

func (h *Handler) renderStatus(msg string) string {
	var buf bytes.Buffer
	if err := h.renderer.RenderToBuffer(&buf, "status", msg); err != nil {
		h.log.Error().Err(err).Msg("render status")
	}
	return buf.String()
}

// patchMarkers re-renders the marker list and the statistics panel.
func (h *Handler) patchMarkers(sse SSE, st session.State) {
	sse.Patch(h.renderMarkers(st), MarkerListSelector)
	sse.Patch(h.renderStats(), StatsSelector)
}
