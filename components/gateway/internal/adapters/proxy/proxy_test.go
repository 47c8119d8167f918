package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productcatalog/platform/pkg/circuitbreaker"
	"github.com/productcatalog/platform/pkg/mlog"
)

func TestRouter_ForwardsToLongestMatchingPrefix(t *testing.T) {
	t.Parallel()

	offerings := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("offerings"))
	}))
	defer offerings.Close()

	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("store"))
	}))
	defer store.Close()

	breakers := circuitbreaker.NewRegistry(5, 30*time.Second, nil)
	router, err := NewRouter([]Route{
		{Prefix: "/api/v1/offerings", Upstream: "offering", TargetURL: offerings.URL},
		{Prefix: "/api/v1/store", Upstream: "store", TargetURL: store.URL},
	}, breakers, 5*time.Second, mlog.FromContext(context.Background()))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/store/offerings/o1", nil)
	router.ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Result().Body)
	assert.Equal(t, "store", string(body))
}

func TestRouter_UnmatchedPathReturnsNotFoundEnvelope(t *testing.T) {
	t.Parallel()

	breakers := circuitbreaker.NewRegistry(5, 30*time.Second, nil)
	router, err := NewRouter(nil, breakers, 5*time.Second, mlog.FromContext(context.Background()))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Result().StatusCode)
}

func TestRouter_OpenBreakerReturnsServiceUnavailable(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	breakers := circuitbreaker.NewRegistry(1, 30*time.Second, nil)
	router, err := NewRouter([]Route{
		{Prefix: "/api/v1/prices", Upstream: "pricing", TargetURL: failing.URL},
	}, breakers, 5*time.Second, mlog.FromContext(context.Background()))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prices/p1", nil)

	// First request trips the breaker (failMax=1); the second must short
	// circuit without contacting the upstream again.
	router.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/prices/p1", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Result().StatusCode)
}

func TestRouter_TransportErrorReturnsBadGateway(t *testing.T) {
	t.Parallel()

	// A closed server: the port is bound then immediately released, so the
	// dial fails with connection refused rather than timing out.
	unreachable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := unreachable.URL
	unreachable.Close()

	breakers := circuitbreaker.NewRegistry(5, 30*time.Second, nil)
	router, err := NewRouter([]Route{
		{Prefix: "/api/v1/prices", Upstream: "pricing", TargetURL: target},
	}, breakers, 5*time.Second, mlog.FromContext(context.Background()))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/prices/p1", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Result().StatusCode)
}
