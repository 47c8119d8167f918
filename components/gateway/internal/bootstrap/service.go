package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	proxyadapter "github.com/productcatalog/platform/components/gateway/internal/adapters/proxy"
	"github.com/productcatalog/platform/pkg/circuitbreaker"
	appcfg "github.com/productcatalog/platform/pkg/config"
	"github.com/productcatalog/platform/pkg/httpkit"
	"github.com/productcatalog/platform/pkg/mlog"
	"github.com/productcatalog/platform/pkg/server"
	"github.com/productcatalog/platform/pkg/telemetry"
)

// Service bundles everything the gateway component needs to run.
type Service struct {
	Server    *server.Server
	Telemetry *telemetry.Provider
	Logger    mlog.Logger
}

// breakerLogger reports every circuit-breaker state transition so an
// upstream tripping open shows up in the gateway's own logs, not just in
// the 503s its callers start seeing.
type breakerLogger struct {
	logger mlog.Logger
}

func (l breakerLogger) OnCircuitBreakerStateChange(event circuitbreaker.StateChangeEvent) {
	l.logger.Warnf("gateway: upstream %s breaker %s -> %s", event.UpstreamName, event.FromState, event.ToState)
}

// Init loads configuration and wires the gateway: the routing table, one
// circuit breaker per upstream, and the HTTP server.
func Init(ctx context.Context) (*Service, error) {
	cfg, err := appcfg.Load(&Config{})
	if err != nil {
		return nil, err
	}

	logger := mlog.MustNewZapLogger(cfg.LogLevel)

	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to set up telemetry: %w", err)
	}

	breakers := circuitbreaker.NewRegistry(cfg.BreakerFailMax, cfg.BreakerResetTimeout, breakerLogger{logger: logger})

	routes := []proxyadapter.Route{
		{Prefix: "/api/v1/login", Upstream: "identity", TargetURL: cfg.Upstreams.IdentityURL},
		{Prefix: "/api/v1/characteristics", Upstream: "characteristic", TargetURL: cfg.Upstreams.CharacteristicURL},
		{Prefix: "/api/v1/specifications", Upstream: "specification", TargetURL: cfg.Upstreams.SpecificationURL},
		{Prefix: "/api/v1/prices", Upstream: "pricing", TargetURL: cfg.Upstreams.PricingURL},
		{Prefix: "/api/v1/offerings", Upstream: "offering", TargetURL: cfg.Upstreams.OfferingURL},
		{Prefix: "/api/v1/store", Upstream: "store", TargetURL: cfg.Upstreams.StoreURL},
	}

	proxyRouter, err := proxyadapter.NewRouter(routes, breakers, cfg.UpstreamReadTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to build proxy router: %w", err)
	}

	router := newRouter(logger, proxyRouter)

	return &Service{
		Server:    server.New(cfg.ServerAddress, router, logger),
		Telemetry: tp,
		Logger:    logger,
	}, nil
}

func newRouter(logger mlog.Logger, proxyRouter http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(httpkit.WithCorrelationID)
	r.Use(httpkit.WithTelemetry("gateway"))
	r.Use(httpkit.WithLogging(logger))
	r.Use(cors.Handler(cors.Options{AllowedOrigins: []string{"*"}}))

	r.Get("/health", httpkit.Ping)
	r.Get("/version", httpkit.VersionHandler)

	r.Handle("/*", proxyRouter)

	return r
}
