// Package in holds the offering component's HTTP handlers.
package in

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/productcatalog/platform/components/offering/internal/services"
	"github.com/productcatalog/platform/pkg/apperrors"
	"github.com/productcatalog/platform/pkg/httpkit"
)

var validate = validator.New()

// Handler exposes the offering use cases over HTTP.
type Handler struct {
	UseCase *services.UseCase
}

type createRequest struct {
	Name              string   `json:"name" validate:"required"`
	Description       string   `json:"description"`
	SpecificationRefs []string `json:"specification_refs"`
	PriceRefs         []string `json:"price_refs"`
	SalesChannels     []string `json:"sales_channels"`
}

type updateRequest struct {
	Name              string   `json:"name" validate:"required"`
	Description       string   `json:"description"`
	SpecificationRefs []string `json:"specification_refs"`
	PriceRefs         []string `json:"price_refs"`
	SalesChannels     []string `json:"sales_channels"`
}

// Create handles POST /api/v1/offerings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpkit.WriteError(w, apperrors.ValidationError{Reason: err.Error()}, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	if err := validate.Struct(req); err != nil {
		httpkit.WriteError(w, apperrors.ValidationError{Reason: err.Error()}, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	o, err := h.UseCase.Create(r.Context(), req.Name, req.Description, req.SpecificationRefs, req.PriceRefs, req.SalesChannels)
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(o)
}

// Get handles GET /api/v1/offerings/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.UseCase.Get(r.Context(), id)
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(o)
}

// List handles GET /api/v1/offerings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.UseCase.List(r.Context())
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Update handles PUT /api/v1/offerings/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpkit.WriteError(w, apperrors.ValidationError{Reason: err.Error()}, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	if err := validate.Struct(req); err != nil {
		httpkit.WriteError(w, apperrors.ValidationError{Reason: err.Error()}, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	o, err := h.UseCase.Update(r.Context(), id, req.Name, req.Description, req.SpecificationRefs, req.PriceRefs, req.SalesChannels)
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(o)
}

// Delete handles DELETE /api/v1/offerings/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.UseCase.Delete(r.Context(), id); err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Publish handles POST /api/v1/offerings/{id}/publish. It moves a DRAFT
// offering to PUBLISHING and starts the publication saga.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.UseCase.Publish(r.Context(), id)
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(o)
}

// Retire handles POST /api/v1/offerings/{id}/retire. It moves a PUBLISHED
// offering directly to RETIRED with no saga involved.
func (h *Handler) Retire(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.UseCase.Retire(r.Context(), id); err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
