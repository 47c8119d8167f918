// Package bootstrap wires the pricing component's configuration,
// dependencies, and servers together.
package bootstrap

import (
	appcfg "github.com/productcatalog/platform/pkg/config"
)

// Config is the pricing component's complete environment-sourced
// configuration.
type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	Postgres  appcfg.Postgres
	RabbitMQ  appcfg.RabbitMQ
	Camunda   appcfg.Camunda
	JWT       appcfg.JWT
	Telemetry appcfg.Telemetry

	// InternalToken is the shared secret the store component's composer
	// presents via X-Internal-Token in place of a user JWT.
	InternalToken string `env:"INTERNAL_SERVICE_TOKEN"`
}
