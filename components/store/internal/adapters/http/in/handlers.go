// Package in holds the store component's HTTP handlers: a read-only API
// over the denormalized offering documents the projector maintains.
package in

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/productcatalog/platform/components/store/internal/services"
	"github.com/productcatalog/platform/pkg/httpkit"
)

// Handler exposes the projector's read accessors over HTTP.
type Handler struct {
	UseCase *services.UseCase
}

// Get handles GET /api/v1/store/offerings/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.UseCase.Get(r.Context(), id)
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

// List handles GET /api/v1/store/offerings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.UseCase.List(r.Context())
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Search handles GET /api/v1/store/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	list, err := h.UseCase.Search(r.Context(), query)
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Resync handles POST /api/v1/store/offerings/{id}/resync, an
// operator-triggered recomposition used to repair a read model entry
// that drifted from its writer services (e.g. after a missed event).
func (h *Handler) Resync(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.UseCase.Sync(r.Context(), id); err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
