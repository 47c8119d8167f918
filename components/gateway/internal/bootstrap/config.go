// Package bootstrap wires the gateway component's configuration,
// routing table, and server together.
package bootstrap

import (
	"time"

	appcfg "github.com/productcatalog/platform/pkg/config"
)

// Upstreams is the base URL of every service the gateway fronts.
type Upstreams struct {
	IdentityURL       string `env:"IDENTITY_SERVICE_URL"`
	CharacteristicURL string `env:"CHARACTERISTIC_SERVICE_URL"`
	SpecificationURL  string `env:"SPECIFICATION_SERVICE_URL"`
	PricingURL        string `env:"PRICING_SERVICE_URL"`
	OfferingURL       string `env:"OFFERING_SERVICE_URL"`
	StoreURL          string `env:"STORE_SERVICE_URL"`
}

// Config is the gateway component's complete environment-sourced
// configuration.
type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	Telemetry appcfg.Telemetry
	Upstreams Upstreams

	BreakerFailMax      uint32        `env:"BREAKER_FAIL_MAX" envDefault:"5"`
	BreakerResetTimeout time.Duration `env:"BREAKER_RESET_TIMEOUT" envDefault:"30s"`
	UpstreamReadTimeout time.Duration `env:"UPSTREAM_READ_TIMEOUT" envDefault:"10s"`
}
