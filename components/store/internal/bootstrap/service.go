package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	composeradapter "github.com/productcatalog/platform/components/store/internal/adapters/composer"
	busadapter "github.com/productcatalog/platform/components/store/internal/adapters/eventbus"
	httpadapter "github.com/productcatalog/platform/components/store/internal/adapters/http/in"
	mongoadapter "github.com/productcatalog/platform/components/store/internal/adapters/mongo"
	sagaadapter "github.com/productcatalog/platform/components/store/internal/adapters/sagaworker"
	"github.com/productcatalog/platform/components/store/internal/services"
	"github.com/productcatalog/platform/pkg/authn"
	"github.com/productcatalog/platform/pkg/circuitbreaker"
	appcfg "github.com/productcatalog/platform/pkg/config"
	"github.com/productcatalog/platform/pkg/eventbus"
	"github.com/productcatalog/platform/pkg/httpclient"
	"github.com/productcatalog/platform/pkg/mlog"
	platmongo "github.com/productcatalog/platform/pkg/mongo"
	"github.com/productcatalog/platform/pkg/sagaworker"
	"github.com/productcatalog/platform/pkg/server"
	"github.com/productcatalog/platform/pkg/telemetry"
)

// Service bundles everything the store component needs to run.
type Service struct {
	Server     *server.Server
	Consumer   *busadapter.Consumer
	SagaWorker *sagaworker.Worker
	Mongo      *platmongo.Connection
	Bus        *eventbus.Connection
	Telemetry  *telemetry.Provider
	Logger     mlog.Logger
}

// Init loads configuration and wires the store component end to end: the
// Mongo read model, the read-through composer, the four-topic event
// consumer, the create-store-entry saga handler, and the read API.
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

	mongoConn, err := platmongo.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to connect to mongo: %w", err)
	}

	if err := mongoConn.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap: failed to ensure mongo indexes: %w", err)
	}

	bus, err := eventbus.Connect(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to connect to rabbitmq: %w", err)
	}

	verifier, err := authn.NewVerifier([]byte(cfg.JWT.PublicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: failed to build token verifier: %w", err)
	}

	repo := mongoadapter.NewOfferingRepository(mongoConn)
	ledger := mongoadapter.NewLedgerRepository(mongoConn)

	httpClient := httpclient.New(httpclient.Config{
		ConnectTimeout: cfg.HTTPConnectTimeout,
		ReadTimeout:    cfg.HTTPReadTimeout,
		MaxRetries:     cfg.HTTPMaxRetries,
	}, otel.GetTextMapPropagator())

	breakers := circuitbreaker.NewRegistry(cfg.BreakerFailMax, cfg.BreakerResetTimeout, nil)

	composer := &composeradapter.Composer{
		Client:   httpClient,
		Breakers: breakers,
		Upstreams: composeradapter.Upstreams{
			Offering:       cfg.Upstreams.OfferingURL,
			Specification:  cfg.Upstreams.SpecificationURL,
			Characteristic: cfg.Upstreams.CharacteristicURL,
			Pricing:        cfg.Upstreams.PricingURL,
		},
		ServiceToken: cfg.ServiceToken,
	}

	useCase := &services.UseCase{Repo: repo, Ledger: ledger, Composer: composer, Logger: logger}

	consumer := &busadapter.Consumer{Bus: bus, UseCase: useCase, Logger: logger}

	saga := sagaworker.NewWorker(
		cfg.Camunda.BaseURL,
		cfg.Camunda.WorkerID,
		cfg.Camunda.MaxTasks,
		time.Duration(cfg.Camunda.LockSeconds)*time.Second,
		logger,
	)
	saga.Subscribe(sagaadapter.Topic, sagaadapter.CreateStoreEntry(useCase))

	handler := &httpadapter.Handler{UseCase: useCase}
	router := httpadapter.NewRouter(logger, verifier, handler)

	return &Service{
		Server:     server.New(cfg.ServerAddress, router, logger),
		Consumer:   consumer,
		SagaWorker: saga,
		Mongo:      mongoConn,
		Bus:        bus,
		Telemetry:  tp,
		Logger:     logger,
	}, nil
}
