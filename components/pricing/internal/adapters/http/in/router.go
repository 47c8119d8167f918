package in

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/productcatalog/platform/pkg/authn"
	"github.com/productcatalog/platform/pkg/httpkit"
	"github.com/productcatalog/platform/pkg/mlog"
)

// NewRouter builds the pricing component's chi router.
func NewRouter(logger mlog.Logger, verifier *authn.Verifier, internalToken string, handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(httpkit.WithCorrelationID)
	r.Use(httpkit.WithTelemetry("pricing"))
	r.Use(httpkit.WithLogging(logger))
	r.Use(cors.Handler(cors.Options{AllowedOrigins: []string{"*"}}))

	r.Get("/health", httpkit.Ping)
	r.Get("/version", httpkit.VersionHandler)

	r.Route("/api/v1/prices", func(api chi.Router) {
		api.Use(httpkit.RequireAuthOrInternalToken(verifier, internalToken))

		api.Post("/", handler.Create)
		api.Get("/", handler.List)
		api.Get("/{id}", handler.Get)
		api.Put("/{id}", handler.Update)
		api.Delete("/{id}", handler.Delete)

		api.Group(func(admin chi.Router) {
			admin.Use(httpkit.RequireRole("admin"))
			admin.Post("/{id}/force-unlock", handler.ForceUnlock)
		})
	})

	return r
}
