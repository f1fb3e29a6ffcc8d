package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "github.com/i474232898/crop-yield-dashboard/internal/api/http"
	"github.com/i474232898/crop-yield-dashboard/internal/crop"
	"github.com/i474232898/crop-yield-dashboard/internal/crop/remote"
	"github.com/i474232898/crop-yield-dashboard/internal/dashboard"
	"github.com/i474232898/crop-yield-dashboard/internal/metrics"
	"github.com/i474232898/crop-yield-dashboard/internal/store"
)

func TestProjectCommand(t *testing.T) {
	var out bytes.Buffer
	projectCmd.SetOut(&out)
	t.Cleanup(func() { projectYield = 0 })
	require.NoError(t, projectCmd.Flags().Set("yield", "10"))

	require.NoError(t, projectCmd.RunE(projectCmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 22)
	assert.Contains(t, lines[0], "PROJECTED YIELD")
	assert.Equal(t, []string{"50", "7.50"}, strings.Fields(lines[11]))
	assert.Equal(t, []string{"100", "10.00"}, strings.Fields(lines[21]))
}

func TestProjectCommandRejectsNegative(t *testing.T) {
	t.Cleanup(func() { projectYield = 0 })
	projectYield = -1
	assert.Error(t, projectCmd.RunE(projectCmd, nil))
}

func TestAppHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := remote.NewClient(remote.Options{PredictionURL: "http://127.0.0.1:1", Metrics: m})
	svc := crop.NewService(client, client)
	dash := dashboard.New(svc, store.NewMemoryStore(0, 0), crop.DefaultAdvice(), m)
	m.SetSessions(3)

	app := newApp(httpapi.Deps{Service: svc, Dashboard: dash, Advice: crop.DefaultAdvice()}, reg)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "crop_sessions_active 3")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/growth", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"error":true`)
}
