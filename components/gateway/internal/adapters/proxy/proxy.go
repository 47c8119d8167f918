// Package proxy implements the edge gateway's reverse proxy: a
// longest-prefix routing table over net/http/httputil.ReverseProxy, with
// one circuit breaker per upstream so a failing service degrades to a
// fast 503 instead of holding up every caller behind it.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/productcatalog/platform/pkg/apperrors"
	"github.com/productcatalog/platform/pkg/circuitbreaker"
	"github.com/productcatalog/platform/pkg/httpkit"
	"github.com/productcatalog/platform/pkg/mlog"
)

// Route binds a path prefix to the upstream that owns it.
type Route struct {
	Prefix    string
	Upstream  string
	TargetURL string
}

// Router dispatches each request to the longest matching Route's reverse
// proxy, or a 404 envelope if nothing matches.
type Router struct {
	logger  mlog.Logger
	routes  []Route
	proxies map[string]*httputil.ReverseProxy
}

// NewRouter builds a Router over routes, one breaker-guarded
// httputil.ReverseProxy per upstream, sorted so the longest prefix is
// always tried first. readTimeout bounds each proxied call; exceeding it
// maps to 504, distinct from a transport-level failure (502) or an open
// breaker (503).
func NewRouter(routes []Route, breakers *circuitbreaker.Registry, readTimeout time.Duration, logger mlog.Logger) (*Router, error) {
	sorted := make([]Route, len(routes))
	copy(sorted, routes)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i].Prefix) > len(sorted[j].Prefix) })

	proxies := make(map[string]*httputil.ReverseProxy, len(sorted))

	for _, route := range sorted {
		target, err := url.Parse(route.TargetURL)
		if err != nil {
			return nil, fmt.Errorf("proxy: invalid target url for upstream %s: %w", route.Upstream, err)
		}

		rp := httputil.NewSingleHostReverseProxy(target)
		rp.Transport = &breakerTransport{upstream: route.Upstream, breakers: breakers, readTimeout: readTimeout, next: http.DefaultTransport}
		rp.ErrorHandler = errorHandler(route.Upstream, logger)

		proxies[route.Upstream] = rp
	}

	return &Router{logger: logger, routes: sorted, proxies: proxies}, nil
}

// ServeHTTP forwards req to the proxy whose route prefix matches
// req.URL.Path most specifically.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, route := range rt.routes {
		if strings.HasPrefix(r.URL.Path, route.Prefix) {
			rt.proxies[route.Upstream].ServeHTTP(w, r)
			return
		}
	}

	httpkit.WriteError(w, apperrors.NotFoundError{EntityType: "route", ID: r.URL.Path}, httpkit.CorrelationIDFromContext(r.Context()))
}

func errorHandler(upstream string, logger mlog.Logger) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		correlationID := httpkit.CorrelationIDFromContext(r.Context())

		switch {
		case circuitbreaker.IsOpenError(err):
			httpkit.WriteError(w, apperrors.UpstreamUnavailableError{Upstream: upstream, Cause: err}, correlationID)
		case errors.Is(err, context.DeadlineExceeded):
			logger.Errorf("gateway: proxy to %s timed out: %v", upstream, err)
			httpkit.WriteError(w, apperrors.GatewayTimeoutError{Upstream: upstream}, correlationID)
		default:
			logger.Errorf("gateway: proxy to %s failed: %v", upstream, err)
			httpkit.WriteError(w, apperrors.BadGatewayError{Upstream: upstream, Cause: err}, correlationID)
		}
	}
}

// breakerTransport wraps an http.RoundTripper with a per-upstream circuit
// breaker and a bounded read timeout; a 5xx response counts as a breaker
// failure even though the transport call itself succeeded.
type breakerTransport struct {
	upstream    string
	breakers    *circuitbreaker.Registry
	readTimeout time.Duration
	next        http.RoundTripper
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response

	err := t.breakers.Execute(req.Context(), t.upstream, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, t.readTimeout)
		defer cancel()

		r, err := t.next.RoundTrip(req.WithContext(ctx))
		if err != nil {
			if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
				return ctxErr
			}

			return err
		}

		if r.StatusCode >= 500 {
			r.Body.Close()
			return fmt.Errorf("gateway: upstream %s returned %d", t.upstream, r.StatusCode)
		}

		resp = r

		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}
