package caic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-etl/internal/domain"
	"github.com/paulmach/orb/geojson"
)

// Source names used in errors and metrics.
const (
	SourceGeometries = "geometries"
	SourceForecasts  = "forecasts"
)

// proxyTimeFormat matches the ISO-8601 form the API proxy expects.
const proxyTimeFormat = "2006-01-02T15:04:05.000Z"

// Client reads forecast areas and products from the CAIC API proxy.
// It implements pipeline.GeometrySource and pipeline.AttributeSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a CAIC client. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchGeometries returns the current forecast area boundaries keyed by area id.
func (c *Client) FetchGeometries(ctx context.Context) (map[string]domain.GeometryRecord, error) {
	body, err := c.get(ctx, SourceGeometries, "/products/all/area?productType=avalancheforecast&datetime="+c.now()+"&includeExpired=false")
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		c.logger.Debug("empty forecast area response")
		return map[string]domain.GeometryRecord{}, nil
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", SourceGeometries, err)
	}

	geoms := make(map[string]domain.GeometryRecord, len(fc.Features))
	for _, f := range fc.Features {
		id := featureID(f.ID)
		if id == "" {
			continue
		}
		geoms[id] = domain.GeometryRecord{ID: id, Geometry: f.Geometry}
	}
	c.logger.Debug("fetched forecast areas", "count", len(geoms))
	return geoms, nil
}

// FetchForecasts returns every published product, in feed order.
func (c *Client) FetchForecasts(ctx context.Context) ([]domain.AttributeRecord, error) {
	body, err := c.get(ctx, SourceForecasts, "/products/all?datetime="+c.now()+"&includeExpired=false")
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		c.logger.Debug("empty forecast product response")
		return nil, nil
	}

	var records []domain.AttributeRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", SourceForecasts, err)
	}
	c.logger.Debug("fetched forecast products", "count", len(records))
	return records, nil
}

func (c *Client) now() string {
	return domain.Now().UTC().Format(proxyTimeFormat)
}

// get requests proxyURI through the API proxy and returns the body of a 2xx
// response. A blank body is returned as nil.
func (c *Client) get(ctx context.Context, source, proxyURI string) ([]byte, error) {
	u := c.baseURL + "?" + url.Values{"_api_proxy_uri": {proxyURI}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.FetchError{Source: source, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{Source: source, Err: err}
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}

// featureID normalizes a GeoJSON feature id, which may be a string or a number.
func featureID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
