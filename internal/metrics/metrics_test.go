package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRequest("GET", "/teams/{id}", 200, 20*time.Millisecond)
	m.ObserveRequest("GET", "/teams/{id}", 200, 30*time.Millisecond)
	m.ObserveRequest("GET", "/teams/{id}", 0, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "/teams/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "/teams/{id}", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.APIRequestDuration))
}

func TestContainerMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveFetch("players", "ok")
	m.ObserveFetch("players", "missing_key")
	m.ObserveStale("players")
	m.SetSubscribers("players", 3)
	m.SetSubscribers("players", 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContainerFetches.WithLabelValues("players", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponses.WithLabelValues("players")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveSubscriptions.WithLabelValues("players")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/x", 200, time.Millisecond)
		m.ObserveRetry("/x")
		m.ObserveFetch("teams", "ok")
		m.ObserveStale("teams")
		m.SetSubscribers("teams", 1)
		m.ObserveAuth("authenticated")
		m.ObserveError("AUTH-001", "auth")
	})
}

func TestRouterServesMetrics(t *testing.T) {
	reg, m := NewRegistry()
	m.ObserveAuth("authenticated")

	srv := httptest.NewServer(Router(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `clubhub_auth_transitions_total{status="authenticated"} 1`)

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
