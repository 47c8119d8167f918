package bootstrap

import (
	"context"
	"fmt"
	"time"

	httpadapter "github.com/productcatalog/platform/components/specification/internal/adapters/http/in"
	pgadapter "github.com/productcatalog/platform/components/specification/internal/adapters/postgres"
	cacheconsumer "github.com/productcatalog/platform/components/specification/internal/adapters/eventbus"
	sagaadapter "github.com/productcatalog/platform/components/specification/internal/adapters/sagaworker"
	"github.com/productcatalog/platform/components/specification/internal/services"
	"github.com/productcatalog/platform/pkg/authn"
	appcfg "github.com/productcatalog/platform/pkg/config"
	"github.com/productcatalog/platform/pkg/eventbus"
	"github.com/productcatalog/platform/pkg/mlog"
	"github.com/productcatalog/platform/pkg/outbox"
	"github.com/productcatalog/platform/pkg/postgres"
	"github.com/productcatalog/platform/pkg/sagaworker"
	"github.com/productcatalog/platform/pkg/server"
	"github.com/productcatalog/platform/pkg/telemetry"
	"github.com/productcatalog/platform/pkg/writer"
)

// Service bundles everything the specification component needs to run.
type Service struct {
	Server       *server.Server
	Dispatcher   *outbox.Dispatcher
	CacheConsumer *cacheconsumer.Consumer
	SagaWorker   *sagaworker.Worker
	DB           *postgres.Connection
	Bus          *eventbus.Connection
	Telemetry    *telemetry.Provider
	Logger       mlog.Logger
}

// Init loads configuration and wires the specification component end to
// end: Postgres store, local characteristic validation cache, outbox
// dispatcher, and the saga worker handling validate-specifications.
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

	bus, err := eventbus.Connect(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to connect to rabbitmq: %w", err)
	}

	verifier, err := authn.NewVerifier([]byte(cfg.JWT.PublicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to build token verifier: %w", err)
	}

	repo := pgadapter.NewSpecificationRepository(db.Pool)
	cache := pgadapter.NewValidationCacheRepository(db.Pool)
	useCase := &services.UseCase{Repo: repo, Cache: cache, Tx: &writer.Runner{Pool: db.Pool}}

	store := outbox.NewStore(db.Pool)
	dispatcher := outbox.NewDispatcher(db.Pool, store, bus, logger)

	consumer := &cacheconsumer.Consumer{Bus: bus, Cache: cache, Logger: logger}

	saga := sagaworker.NewWorker(
		cfg.Camunda.BaseURL,
		cfg.Camunda.WorkerID,
		cfg.Camunda.MaxTasks,
		time.Duration(cfg.Camunda.LockSeconds)*time.Second,
		logger,
	)
	saga.Subscribe(sagaadapter.Topic, sagaadapter.ValidateSpecifications(useCase))

	handler := &httpadapter.Handler{UseCase: useCase}
	router := httpadapter.NewRouter(logger, verifier, cfg.InternalToken, handler)

	return &Service{
		Server:        server.New(cfg.ServerAddress, router, logger),
		Dispatcher:    dispatcher,
		CacheConsumer: consumer,
		SagaWorker:    saga,
		DB:            db,
		Bus:           bus,
		Telemetry:     tp,
		Logger:        logger,
	}, nil
}
