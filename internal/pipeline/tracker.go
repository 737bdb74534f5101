package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/hazard-etl/internal/domain"
	"github.com/couchcryptid/hazard-etl/internal/observability"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"
)

// FeedSource fetches and parses the position feed of one tracked entity.
type FeedSource interface {
	FetchFeed(ctx context.Context, entity domain.TrackedEntity) (domain.Feed, error)
}

// TrackerCollector gathers the latest position of every tracked callsign.
type TrackerCollector struct {
	feeds       FeedSource
	entities    []domain.TrackedEntity
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewTrackerCollector creates a TrackerCollector. concurrency caps in-flight
// fetches; zero or less means unbounded.
func NewTrackerCollector(feeds FeedSource, entities []domain.TrackedEntity, concurrency int, logger *slog.Logger, metrics *observability.Metrics) *TrackerCollector {
	return &TrackerCollector{
		feeds:       feeds,
		entities:    entities,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// Collect fetches every entity's feed concurrently. A failing entity is logged
// and left out; the result is the union of the entities that succeeded, in
// configured entity order. Only cancellation of ctx fails the run.
func (c *TrackerCollector) Collect(ctx context.Context) (*geojson.FeatureCollection, error) {
	results := c.fetchAll(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := c.logger.With("run_id", domain.RunID(ctx))
	var dedup domain.Deduplicator
	for _, r := range results {
		c.metrics.SourceFetches.WithLabelValues("inreach", r.Status.String()).Inc()
		switch r.Status {
		case domain.StatusFailed:
			logger.Warn("tracker feed failed", "entity", r.Entity.ID, "error", r.Err)
			continue
		case domain.StatusEmpty:
			logger.Debug("tracker feed has no positions", "entity", r.Entity.ID)
			continue
		}
		for _, p := range r.Positions {
			dedup.Add(p)
		}
	}

	fc := geojson.NewFeatureCollection()
	for _, p := range dedup.Positions() {
		fc.Append(p.Feature())
	}
	return fc, nil
}

// fetchAll returns one result per entity, indexed like c.entities.
func (c *TrackerCollector) fetchAll(ctx context.Context) []domain.SourceResult {
	results := make([]domain.SourceResult, len(c.entities))

	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, entity := range c.entities {
		g.Go(func() error {
			feed, err := c.feeds.FetchFeed(ctx, entity)
			var positions []domain.TrackedPosition
			if err == nil {
				positions = feed.Positions(entity)
			}
			results[i] = domain.NewSourceResult(entity, positions, err)
			return nil
		})
	}
	_ = g.Wait() // tasks report failures through results
	return results
}
