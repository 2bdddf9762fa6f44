package web_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/havenmon/sysmond/internal/alert"
	"codeberg.org/havenmon/sysmond/internal/config"
	"codeberg.org/havenmon/sysmond/internal/metric"
	"codeberg.org/havenmon/sysmond/internal/web"
)

func newTestServer(t *testing.T) (*web.Server, *web.Store, *alert.Engine) {
	t.Helper()

	cfg := &config.Config{
		Hostname:        "test-host",
		CPUThreshold:    90,
		MemoryThreshold: 85,
		DiskThreshold:   85,
		TempThreshold:   80,
		Web:             config.WebConfig{Enabled: true, Port: 8099},
	}
	store := web.NewStore()
	engine := alert.NewEngine(alert.NewPolicy(cfg), nil, true, time.Minute)

	return web.NewServer(cfg, store, engine), store, engine
}

func get(t *testing.T, server *web.Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	return rec
}

func TestMetricsEndpoint(t *testing.T) {
	server, store, engine := newTestServer(t)

	store.Update([]metric.Sample{
		{SensorID: "cpu_usage", Value: 95.5},
		{SensorID: "memory_usage", Value: 42.0, Attributes: map[string]any{"total_gb": 8.0}},
	})
	engine.Evaluate([]metric.Sample{{SensorID: "cpu_usage", Value: 95.5}})

	rec := get(t, server, "/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Hostname  string `json:"hostname"`
		UpdatedAt string `json:"updated_at"`
		Sensors   []struct {
			SensorID   string         `json:"sensor_id"`
			Value      any            `json:"value"`
			Attributes map[string]any `json:"attributes"`
		} `json:"sensors"`
		Alerts map[string]bool `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "test-host", resp.Hostname)
	assert.NotEmpty(t, resp.UpdatedAt)
	require.Len(t, resp.Sensors, 2)
	assert.Equal(t, "cpu_usage", resp.Sensors[0].SensorID)
	assert.InDelta(t, 95.5, resp.Sensors[0].Value.(float64), 0.001)
	assert.InDelta(t, 8.0, resp.Sensors[1].Attributes["total_gb"].(float64), 0.001)
	assert.True(t, resp.Alerts["cpu_usage"])
}

func TestMetricsEndpointBeforeFirstCollection(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := get(t, server, "/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		UpdatedAt string `json:"updated_at"`
		Sensors   []any  `json:"sensors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.UpdatedAt)
	assert.Empty(t, resp.Sensors)
}

func TestHealthEndpoint(t *testing.T) {
	server, store, _ := newTestServer(t)

	rec := get(t, server, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "starting", resp.Status)

	store.Update([]metric.Sample{{SensorID: "uptime", Value: 1}})

	rec = get(t, server, "/api/health")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestDashboardServed(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := get(t, server, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "sysmond")
}
