package caic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/hazard-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const areasJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "area-1", "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}},
    {"type": "Feature", "id": 42, "properties": {}, "geometry": {"type": "MultiPolygon", "coordinates": [[[[0,0],[1,0],[1,1],[0,0]]],[[[2,2],[3,2],[3,3],[2,2]]]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [0,0]}}
  ]
}`

const productsJSON = `[
  {
    "id": "fc-1",
    "type": "avalancheforecast",
    "title": "Front Range",
    "publicName": "front-range",
    "areaId": "area-1",
    "forecaster": "Jane Forecaster",
    "issueDateTime": "2024-01-02T00:00:00Z",
    "expiryDateTime": "2024-01-03T00:00:00Z",
    "isTranslated": true,
    "dangerRatings": {"days": [{"alp": "high", "tln": "considerable", "btl": "moderate"}]},
    "avalancheSummary": {"days": [{"date": "2024-01-02", "content": "Stay off wind-loaded slopes."}]}
  },
  {"id": "rd-1", "type": "regionaldiscussionforecast", "title": "Statewide"}
]`

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func TestClient_FetchGeometries_Success(t *testing.T) {
	freezeClock(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t,
			"/products/all/area?productType=avalancheforecast&datetime=2024-01-02T15:04:05.000Z&includeExpired=false",
			r.URL.Query().Get("_api_proxy_uri"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(areasJSON))
	}))
	defer srv.Close()

	geoms, err := testClient(srv.URL).FetchGeometries(context.Background())
	require.NoError(t, err)

	require.Len(t, geoms, 2)
	assert.Equal(t, "Polygon", geoms["area-1"].Geometry.GeoJSONType())
	assert.IsType(t, orb.MultiPolygon{}, geoms["42"].Geometry)
	assert.Equal(t, "42", geoms["42"].ID)
}

func TestClient_FetchForecasts_Success(t *testing.T) {
	freezeClock(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t,
			"/products/all?datetime=2024-01-02T15:04:05.000Z&includeExpired=false",
			r.URL.Query().Get("_api_proxy_uri"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(productsJSON))
	}))
	defer srv.Close()

	records, err := testClient(srv.URL).FetchForecasts(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	fc := records[0]
	assert.Equal(t, domain.ForecastProductType, fc.Type)
	assert.Equal(t, "area-1", fc.AreaID)
	assert.True(t, fc.IsTranslated)
	require.Len(t, fc.DangerRatings.Days, 1)
	assert.Equal(t, domain.DangerDay{Alp: "high", Tln: "considerable", Btl: "moderate"}, fc.DangerRatings.Days[0])
	require.Len(t, fc.AvalancheSummary.Days, 1)
	assert.Equal(t, "Stay off wind-loaded slopes.", fc.AvalancheSummary.Days[0].Content)
	assert.Equal(t, "regionaldiscussionforecast", records[1].Type)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchForecasts(context.Background())
	require.Error(t, err)

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, SourceForecasts, fetchErr.Source)
	assert.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_AcceptsAny2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	records, err := testClient(srv.URL).FetchForecasts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClient_EmptyBodyIsEmptyResult(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"no content", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }},
		{"blank ok", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(" \n")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			c := testClient(srv.URL)

			geoms, err := c.FetchGeometries(context.Background())
			require.NoError(t, err)
			assert.Empty(t, geoms)

			records, err := c.FetchForecasts(context.Background())
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestClient_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchGeometries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode geometries")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.FetchGeometries(context.Background())
	require.Error(t, err)

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
}

func TestFeatureID(t *testing.T) {
	assert.Equal(t, "abc", featureID("abc"))
	assert.Equal(t, "12", featureID(float64(12)))
	assert.Equal(t, "1.5", featureID(1.5))
	assert.Empty(t, featureID(nil))
}
