package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	appcfg "github.com/productcatalog/platform/pkg/config"
	httpadapter "github.com/productcatalog/platform/components/identity/internal/adapters/http/in"
	pgadapter "github.com/productcatalog/platform/components/identity/internal/adapters/postgres"
	"github.com/productcatalog/platform/components/identity/internal/services"
	"github.com/productcatalog/platform/pkg/authn"
	"github.com/productcatalog/platform/pkg/mlog"
	"github.com/productcatalog/platform/pkg/postgres"
	"github.com/productcatalog/platform/pkg/server"
	"github.com/productcatalog/platform/pkg/telemetry"
)

// Service bundles everything the identity component needs to run.
type Service struct {
	Server    *server.Server
	DB        *postgres.Connection
	Telemetry *telemetry.Provider
	Logger    mlog.Logger
}

// Init loads configuration and wires the identity component end to end.
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

	db, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to connect to postgres: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("bootstrap: failed to migrate: %w", err)
	}

	issuer, err := authn.NewIssuer([]byte(cfg.JWT.PrivateKeyPEM), cfg.JWT.Issuer, time.Duration(cfg.JWT.TTLSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to build token issuer: %w", err)
	}

	repo := pgadapter.NewUserRepository(db.Pool)
	useCase := &services.UseCase{Repo: repo, Issuer: issuer}

	if cfg.AdminPassword != "" {
		if err := useCase.BootstrapAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			logger.Errorf("bootstrap: admin bootstrap failed: %v", err)
		}
	} else {
		fmt.Fprintln(os.Stderr, "identity: IDENTITY_ADMIN_PASSWORD not set, skipping admin bootstrap")
	}

	handler := &httpadapter.Handler{UseCase: useCase}
	router := httpadapter.NewRouter(logger, handler)

	return &Service{
		Server:    server.New(cfg.ServerAddress, router, logger),
		DB:        db,
		Telemetry: tp,
		Logger:    logger,
	}, nil
}
