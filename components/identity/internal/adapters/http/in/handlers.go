// Package in holds the identity component's HTTP handlers.
package in

import (
	"encoding/json"
	"net/http"

	"github.com/productcatalog/platform/components/identity/internal/services"
	"github.com/productcatalog/platform/pkg/httpkit"
)

// Handler exposes the identity use cases over HTTP.
type Handler struct {
	UseCase *services.UseCase
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /api/v1/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	token, err := h.UseCase.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpkit.WriteError(w, err, httpkit.CorrelationIDFromContext(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{Token: token})
}
