package archive

import (
	"net/http"
	"strconv"

	"github.com/bissquit/firemap/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler serves the incident history.
type Handler struct {
	service *Service
}

// NewHandler creates a new archive handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the history route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/incidents/history", h.GetHistory)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrInvalidLimit, Status: http.StatusBadRequest},
}

// GetHistory handles GET /api/incidents/history.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	sightings, err := h.service.History(r.Context(), limit)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]interface{}{
		"sightings": sightings,
		"limit":     limit,
	})
}
