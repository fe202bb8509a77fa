package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/craftid/internal/handlers"
	"github.com/charlesng35/craftid/internal/handlers/testutil"
)

func TestRootAndHealth(t *testing.T) {
	env := testutil.NewEnv(t)

	resp := env.Request(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"message":"`+handlers.RootMessage+`"}`, resp.Body.String())

	resp = env.Request(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"status":"ok"}`, resp.Body.String())

	resp = env.Request(http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestMonitoringSummary(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Jobs.RecordRun("record_stats", "success", "", 0)

	resp := env.Request(http.MethodGet, "/monitoring/summary", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Jobs []struct {
			Job        string `json:"job"`
			LastStatus string `json:"last_status"`
		} `json:"jobs"`
		Prometheus struct {
			Enabled  bool   `json:"enabled"`
			Endpoint string `json:"endpoint"`
		} `json:"prometheus"`
	}
	testutil.DecodeJSON(t, resp, &out)
	require.Len(t, out.Jobs, 1)
	require.Equal(t, "record_stats", out.Jobs[0].Job)
	require.Equal(t, "success", out.Jobs[0].LastStatus)
	require.True(t, out.Prometheus.Enabled)
	require.Equal(t, "/metrics", out.Prometheus.Endpoint)
}

func TestUnknownRouteReturnsEnvelope(t *testing.T) {
	env := testutil.NewEnv(t)

	resp := env.Request(http.MethodGet, "/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Equal(t, "NOT_FOUND", testutil.DecodeError(t, resp).Error.Code)
}
