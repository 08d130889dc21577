package feed

import (
	"net/http"

	"github.com/bissquit/firemap/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// IncidentsPath is where the feed is served.
const IncidentsPath = "/api/get_incidents"

// Handler serves the incident feed.
type Handler struct {
	service *Service
}

// NewHandler creates a new feed handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the feed route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get(IncidentsPath, h.GetIncidents)
}

// GetIncidents handles GET /api/get_incidents. It always answers 200; an
// unavailable upstream is reported in the body's error field. Clients may
// reuse a successful body for as long as the service caches it.
func (h *Handler) GetIncidents(w http.ResponseWriter, r *http.Request) {
	resp := h.service.Incidents(r.Context())
	if resp.Error != "" {
		httputil.NoStore(w)
	} else {
		httputil.MaxAge(w, h.service.CacheTTL())
	}
	httputil.JSON(w, http.StatusOK, resp)
}
