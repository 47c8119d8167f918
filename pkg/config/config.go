// Package config loads component configuration from the environment,
// standing in for the teacher's lib-commons env loader.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg (a pointer to a struct tagged with `env:"..."`) from
// the process environment and returns it for convenient chaining.
func Load[T any](cfg *T) (*T, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load from environment: %w", err)
	}

	return cfg, nil
}

// MustLoad is Load but panics on failure; used at process startup where
// there is no meaningful recovery path.
func MustLoad[T any](cfg *T) *T {
	c, err := Load(cfg)
	if err != nil {
		panic(err)
	}

	return c
}

// Telemetry holds the OpenTelemetry wiring shared by every component.
type Telemetry struct {
	ServiceName          string `env:"OTEL_SERVICE_NAME"`
	ServiceVersion       string `env:"OTEL_SERVICE_VERSION" envDefault:"0.1.0"`
	DeploymentEnv        string `env:"OTEL_DEPLOYMENT_ENVIRONMENT" envDefault:"development"`
	CollectorOTLPAddress string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Enabled              bool   `env:"OTEL_ENABLED" envDefault:"false"`
}

// Postgres holds the connection parameters for a writer's system-of-record
// database.
type Postgres struct {
	Host            string `env:"DB_HOST"`
	Port            string `env:"DB_PORT" envDefault:"5432"`
	User            string `env:"DB_USER"`
	Password        string `env:"DB_PASSWORD"`
	Name            string `env:"DB_NAME"`
	SSLMode         string `env:"DB_SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MigrationsPath  string `env:"DB_MIGRATIONS_PATH" envDefault:"file://migrations"`
}

// DSN renders the libpq connection string consumed by pgxpool and by
// golang-migrate's postgres driver.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode)
}

// Mongo holds the connection parameters for the read-model store.
type Mongo struct {
	URI         string `env:"MONGO_URI"`
	Database    string `env:"MONGO_DATABASE"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE" envDefault:"100"`
}

// RabbitMQ holds the connection parameters for the event bus.
type RabbitMQ struct {
	URI      string `env:"RABBITMQ_URI"`
	Exchange string `env:"RABBITMQ_EXCHANGE" envDefault:"catalog.events"`
}

// Camunda holds the connection parameters for the saga orchestrator's
// External Task REST API.
type Camunda struct {
	BaseURL     string `env:"CAMUNDA_BASE_URL"`
	WorkerID    string `env:"CAMUNDA_WORKER_ID"`
	LockSeconds int    `env:"CAMUNDA_LOCK_DURATION_SECONDS" envDefault:"30"`
	MaxTasks    int    `env:"CAMUNDA_MAX_TASKS" envDefault:"10"`
}

// JWT holds the RSA key material used to issue or verify access tokens.
type JWT struct {
	PrivateKeyPEM string `env:"JWT_PRIVATE_KEY_PEM,file"`
	PublicKeyPEM  string `env:"JWT_PUBLIC_KEY_PEM,file"`
	Issuer        string `env:"JWT_ISSUER" envDefault:"product-catalog-identity"`
	TTLSeconds    int    `env:"JWT_TTL_SECONDS" envDefault:"3600"`
}
