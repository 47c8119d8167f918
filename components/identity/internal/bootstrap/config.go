// Package bootstrap wires the identity component's configuration,
// dependencies, and servers together.
package bootstrap

import (
	appcfg "github.com/productcatalog/platform/pkg/config"
)

// Config is the identity component's complete environment-sourced
// configuration.
type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	AdminUsername string `env:"IDENTITY_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"IDENTITY_ADMIN_PASSWORD"`

	Postgres  appcfg.Postgres
	JWT       appcfg.JWT
	Telemetry appcfg.Telemetry
}
