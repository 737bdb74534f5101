package inreach

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/hazard-etl/internal/domain"
)

// Client reads Garmin inReach MapShare KML feeds.
// It implements pipeline.FeedSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a MapShare feed client. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchFeed downloads and parses the feed of one tracked entity. The entity's
// credential, when set, is sent as the MapShare password.
func (c *Client) FetchFeed(ctx context.Context, entity domain.TrackedEntity) (domain.Feed, error) {
	u := c.baseURL + "/" + url.PathEscape(entity.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("create request: %w", err)
	}
	if entity.Credential != "" {
		req.SetBasicAuth("", entity.Credential)
	}

	source := "inreach/" + entity.ID
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Feed{}, &domain.FetchError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Feed{}, &domain.FetchError{Source: source, StatusCode: resp.StatusCode}
	}

	feed, err := domain.ParseFeed(resp.Body)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("%s: %w", source, err)
	}
	if feed.Skipped > 0 {
		c.logger.Debug("skipped malformed placemarks", "entity", entity.ID, "skipped", feed.Skipped)
	}
	return feed, nil
}
