// Package in holds the characteristic component's HTTP handlers.
package in

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/productcatalog/platform/components/characteristic/internal/services"
	"github.com/productcatalog/platform/pkg/apperrors"
	"github.com/productcatalog/platform/pkg/httpkit"
)

var validate = validator.New()

// Handler exposes the characteristic use cases over HTTP.
type Handler struct {
	UseCase *services.UseCase
}

type createRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
	Unit  string `json:"unit"`
}

type updateRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
	Unit  string `json:"unit"`
}

// Create handles POST /api/v1/characteristics.
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

	c, err := h.UseCase.Create(r.Context(), req.Name, req.Value, req.Unit)
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(c)
}

// Get handles GET /api/v1/characteristics/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.UseCase.Get(r.Context(), id)
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}

// List handles GET /api/v1/characteristics.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.UseCase.List(r.Context())
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Update handles PUT /api/v1/characteristics/{id}.
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

	c, err := h.UseCase.Update(r.Context(), id, req.Name, req.Value, req.Unit)
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}

// Delete handles DELETE /api/v1/characteristics/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.UseCase.Delete(r.Context(), id); err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
