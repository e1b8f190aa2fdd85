package actions

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWebServer(t *testing.T, trigger TriggerFunc) (*httptest.Server, *transform.DagRun) {
	t.Helper()
	log := logger.NewLogger("empetl", "error", false)
	metrics := stats.NewMetrics()
	registry := transform.NewSafeRunRegistry(0)
	dag := &transform.DagDefinition{ID: "web_test", Tasks: []*transform.TaskDefinition{
		{ID: "only", Execute: func(ctx context.Context, ti *transform.TaskInstance) error { return nil }},
	}}
	r, err := transform.NewDagRun(log, dag, testLogicalDate, transform.DagRunOptions{Metrics: metrics})
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)
	registry.Store(r)
	srv := httptest.NewServer(newRouter(log, &WebServerConfig{
		Port:     8080,
		Registry: registry,
		Metrics:  metrics,
		Trigger:  trigger,
		Now:      func() time.Time { return time.Date(2023, 5, 12, 11, 30, 0, 0, time.UTC) },
	}))
	t.Cleanup(srv.Close)
	return srv, r
}

func getJson(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestWebHandlers(t *testing.T) {
	triggered := make(chan time.Time, 1)
	srv, run := newTestWebServer(t, func(logicalDate time.Time) { triggered <- logicalDate })

	// Health.
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var simple map[string]string
	getJson(t, resp, &simple)
	assert.Equal(t, "ok", simple["status"])

	// List.
	resp, err = http.Get(srv.URL + "/runs")
	require.NoError(t, err)
	var list struct {
		Status string                `json:"status"`
		Runs   []transform.RunStatus `json:"runs"`
	}
	getJson(t, resp, &list)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, run.RunID(), list.Runs[0].RunID)
	assert.Equal(t, transform.DagRunStateSuccess, list.Runs[0].State)

	// Status of a known and unknown run.
	resp, err = http.Get(srv.URL + "/runs/" + run.RunID() + "/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status map[string]interface{}
	getJson(t, resp, &status)
	assert.Equal(t, "ok", status["status"])
	resp, err = http.Get(srv.URL + "/runs/nope/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Trigger defaults to the last completed hour.
	resp, err = http.Post(srv.URL+"/runs/trigger", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()
	select {
	case got := <-triggered:
		assert.Equal(t, time.Date(2023, 5, 12, 10, 0, 0, 0, time.UTC), got)
	case <-time.After(time.Second):
		t.Fatal("trigger was not called")
	}

	// Trigger with a bad date.
	resp, err = http.Post(srv.URL+"/runs/trigger?logicalDate=yesterday", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// GET is not routed to the trigger.
	resp, err = http.Get(srv.URL + "/runs/trigger")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()

	// Metrics.
	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `empetl_dag_runs_total{dag="web_test",state="success"} 1`)
}

func TestWebTriggerDisabled(t *testing.T) {
	srv, _ := newTestWebServer(t, nil)
	resp, err := http.Post(srv.URL+"/runs/trigger", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRunWebServerStopsWithContext(t *testing.T) {
	log := logger.NewLogger("empetl", "error", false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunWebServer(ctx, log, &WebServerConfig{
			Port:     0,
			Registry: transform.NewSafeRunRegistry(0),
			Metrics:  stats.NewMetrics(),
		})
	}()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("web server did not stop")
	}
}

func TestRunWebServerValidation(t *testing.T) {
	log := logger.NewLogger("empetl", "error", false)
	require.Error(t, RunWebServer(context.Background(), log, nil))
	err := RunWebServer(context.Background(), log, &WebServerConfig{Port: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run registry")
}
