package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/hazard-etl/internal/adapter/http"
	"github.com/couchcryptid/hazard-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRuns struct {
	err     error
	summary *domain.RunSummary
}

func (m *mockRuns) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockRuns) LastRun() (domain.RunSummary, bool) {
	if m.summary == nil {
		return domain.RunSummary{}, false
	}
	return *m.summary, true
}

func newTestServer(runs *mockRuns) *httpadapter.Server {
	return httpadapter.NewServer(":0", "tracker", runs, slog.Default())
}

func serve(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{err: fmt.Errorf("pipeline has not completed a run yet")}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusBeforeFirstRun(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"variant":"tracker","last_run":null}`, rec.Body.String())
}

func TestStatusReportsLastRun(t *testing.T) {
	started := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	runs := &mockRuns{summary: &domain.RunSummary{
		ID:         "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Error:      "collect: fetch inreach/A: status 500",
	}}

	rec := serve(newTestServer(runs), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Variant string            `json:"variant"`
		LastRun domain.RunSummary `json:"last_run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tracker", body.Variant)
	assert.Equal(t, "run-1", body.LastRun.ID)
	assert.Equal(t, started, body.LastRun.StartedAt)
	assert.False(t, body.LastRun.Succeeded())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
