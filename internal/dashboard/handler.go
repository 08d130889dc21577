// Package dashboard polls the incident feed, renders the incidents as sorted
// cards and plots the geocoded ones on a Leaflet map.
package dashboard

import (
	"net/http"

	"github.com/bissquit/firemap/internal/pkg/ctxlog"
	"github.com/bissquit/firemap/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// PageTitle is the dashboard document title.
const PageTitle = "Bombers: active incidents"

// Handler serves the dashboard page, its JSON API and the websocket.
type Handler struct {
	controller *Controller
	renderer   *Renderer
	hub        *Hub
}

// NewHandler creates a new dashboard handler.
func NewHandler(controller *Controller, renderer *Renderer, hub *Hub) *Handler {
	return &Handler{
		controller: controller,
		renderer:   renderer,
		hub:        hub,
	}
}

// RegisterRoutes registers the dashboard routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Page)
	r.Get("/api/dashboard", h.GetSnapshot)
	r.Post("/api/dashboard/refresh", h.Refresh)
	r.Get("/ws", h.hub.ServeWS)
}

// Page handles GET /: it refreshes, then renders the page with the result.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	// A failed refresh is already reflected in the snapshot.
	_, _ = h.controller.Refresh(r.Context())

	snapshot := h.controller.Snapshot()
	body, err := h.renderer.Page(PageData{
		Title:         PageTitle,
		ListContainer: ListContainerID,
		MapContainer:  MapContainerID,
		ListHTML:      snapshot.ListHTML,
		Scene:         snapshot.Scene,
	})
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("failed to render dashboard page", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httputil.NoStore(w)
	httputil.HTML(w, http.StatusOK, body)
}

// GetSnapshot handles GET /api/dashboard.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	httputil.NoStore(w)
	httputil.Success(w, http.StatusOK, h.controller.Snapshot())
}

// RefreshResponse is the body of POST /api/dashboard/refresh.
type RefreshResponse struct {
	Result Result `json:"result"`
	Snapshot
}

// Refresh handles POST /api/dashboard/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, _ := h.controller.Refresh(r.Context())
	httputil.NoStore(w)
	httputil.Success(w, http.StatusOK, RefreshResponse{
		Result:   result,
		Snapshot: h.controller.Snapshot(),
	})
}
