// Package bootstrap wires the store component's configuration,
// dependencies, and servers together.
package bootstrap

import (
	"time"

	appcfg "github.com/productcatalog/platform/pkg/config"
)

// Upstreams is the base URL of every writer service the read-through
// composer fetches from.
type Upstreams struct {
	OfferingURL       string `env:"OFFERING_SERVICE_URL"`
	SpecificationURL  string `env:"SPECIFICATION_SERVICE_URL"`
	CharacteristicURL string `env:"CHARACTERISTIC_SERVICE_URL"`
	PricingURL        string `env:"PRICING_SERVICE_URL"`
}

// Config is the store component's complete environment-sourced
// configuration.
type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	Mongo     appcfg.Mongo
	RabbitMQ  appcfg.RabbitMQ
	Camunda   appcfg.Camunda
	JWT       appcfg.JWT
	Telemetry appcfg.Telemetry
	Upstreams Upstreams

	// ServiceToken authenticates the composer's outbound read-through
	// calls to the four writer services, none of which expose an
	// unauthenticated API. It is a shared secret, not a JWT: the composer
	// sends it as the X-Internal-Token header, and each writer accepts it
	// when it equals that writer's own INTERNAL_SERVICE_TOKEN.
	ServiceToken string `env:"STORE_SERVICE_TOKEN"`

	HTTPConnectTimeout time.Duration `env:"UPSTREAM_CONNECT_TIMEOUT" envDefault:"2s"`
	HTTPReadTimeout    time.Duration `env:"UPSTREAM_READ_TIMEOUT" envDefault:"5s"`
	HTTPMaxRetries     uint64        `env:"UPSTREAM_MAX_RETRIES" envDefault:"3"`

	BreakerFailMax      uint32        `env:"BREAKER_FAIL_MAX" envDefault:"5"`
	BreakerResetTimeout time.Duration `env:"BREAKER_RESET_TIMEOUT" envDefault:"30s"`
}
