// Package httpclient provides the bounded-timeout, retrying HTTP client
// used by the store projector's read-through composition.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"go.opentelemetry.io/otel/propagation"
)

// Client wraps *http.Client with a bounded connect/read timeout and an
// exponential-backoff retry policy for idempotent GET requests.
type Client struct {
	http       *http.Client
	maxRetries uint64
	propagator propagation.TextMapPropagator
}

// Config controls the client's timeout and retry budget.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxRetries     uint64
}

// New builds a Client from cfg, defaulting zero fields to sane bounds.
func New(cfg Config, propagator propagation.TextMapPropagator) *Client {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Second
	}

	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 2 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
	}

	return &Client{
		http:       &http.Client{Timeout: cfg.ReadTimeout, Transport: transport},
		maxRetries: cfg.MaxRetries,
		propagator: propagator,
	}
}

// Do executes req, injecting trace-context headers and retrying transport
// errors and 5xx responses with exponential backoff up to maxRetries. A
// non-2xx, non-5xx response is returned as-is without retry.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.propagator != nil {
		c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
	}

	var resp *http.Response

	operation := func() error {
		r, err := c.http.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}

		if r.StatusCode >= 500 {
			body, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
			r.Body.Close()

			return fmt.Errorf("httpclient: upstream returned %d: %s", r.StatusCode, string(body))
		}

		resp = r

		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return resp, nil
}
