package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marcodd23/go-stmt-cache/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_Counters(t *testing.T) {
	rec, err := metrics.NewPrometheusRecorder()
	require.NoError(t, err)

	rec.IncStmtCacheHit("c1")
	rec.IncStmtCacheHit("c1")
	rec.IncStmtCacheMiss("c1")
	rec.IncStmtCacheEviction("c1")
	rec.IncStmtReleaseFailure("c2")
	rec.SetStmtCacheSize("c1", 7)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	rec.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	require.Contains(t, body, `stmtcache_hits_total{conn="c1"} 2`)
	require.Contains(t, body, `stmtcache_misses_total{conn="c1"} 1`)
	require.Contains(t, body, `stmtcache_evictions_total{conn="c1"} 1`)
	require.Contains(t, body, `stmtcache_release_failures_total{conn="c2"} 1`)
	require.Contains(t, body, `stmtcache_size{conn="c1"} 7`)
}

func TestPrometheusRecorder_CollectorCount(t *testing.T) {
	rec, err := metrics.NewPrometheusRecorder()
	require.NoError(t, err)

	rec.IncStmtCacheMiss("a")
	rec.IncStmtCacheMiss("b")

	n, err := testutil.GatherAndCount(rec.Gatherer(), "stmtcache_misses_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestSetRecorder_NilRestoresNoop(t *testing.T) {
	rec, err := metrics.NewPrometheusRecorder()
	require.NoError(t, err)

	metrics.SetRecorder(rec)
	require.Same(t, rec, metrics.Default())

	metrics.SetRecorder(nil)
	require.NotNil(t, metrics.Default())
	require.NotPanics(t, func() { metrics.Default().IncStmtCacheHit("x") })
}
