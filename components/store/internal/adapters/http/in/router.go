package in

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/productcatalog/platform/pkg/authn"
	"github.com/productcatalog/platform/pkg/httpkit"
	"github.com/productcatalog/platform/pkg/mlog"
)

// NewRouter builds the store component's chi router.
func NewRouter(logger mlog.Logger, verifier *authn.Verifier, handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(httpkit.WithCorrelationID)
	r.Use(httpkit.WithTelemetry("store"))
	r.Use(httpkit.WithLogging(logger))
	r.Use(cors.Handler(cors.Options{AllowedOrigins: []string{"*"}}))

	r.Get("/health", httpkit.Ping)
	r.Get("/version", httpkit.VersionHandler)

	r.Route("/api/v1/store", func(api chi.Router) {
		api.Use(httpkit.RequireAuth(verifier))

		api.Get("/offerings", handler.List)
		api.Get("/offerings/{id}", handler.Get)
		api.Get("/search", handler.Search)

		api.Group(func(admin chi.Router) {
			admin.Use(httpkit.RequireRole("admin"))
			admin.Post("/offerings/{id}/resync", handler.Resync)
		})
	})

	return r
}
