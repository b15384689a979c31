package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hubbleplay/internal/config"
)

func TestServer_Disabled(t *testing.T) {
	s := NewServer(config.MetricsConfig{Enabled: false}, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.Empty(t, s.Addr())
	require.NoError(t, s.Stop(context.Background()))
}

func TestServer_ServesMetrics(t *testing.T) {
	s := NewServer(config.MetricsConfig{Enabled: true, ListenAddress: "127.0.0.1:0", Path: "/metrics"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	defer func() { require.NoError(t, s.Stop(context.Background())) }()

	SelectionInc("tx", "balance")

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "hubbleplay_uptime_seconds")
	assert.Contains(t, string(body), `hubbleplay_selections_total{api="tx",endpoint="balance"}`)

	health, err := http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestCatalogMetrics(t *testing.T) {
	before := testutil.ToFloat64(CatalogReloads.WithLabelValues("failure"))
	CatalogReloadInc(false)
	assert.Equal(t, before+1, testutil.ToFloat64(CatalogReloads.WithLabelValues("failure")))

	CatalogAPIsSet(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(CatalogAPIs))
}
