package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/hazard-etl/internal/domain"
	"github.com/couchcryptid/hazard-etl/internal/observability"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"
)

// GeometrySource fetches forecast area boundaries keyed by area id.
type GeometrySource interface {
	FetchGeometries(ctx context.Context) (map[string]domain.GeometryRecord, error)
}

// AttributeSource fetches published forecast products.
type AttributeSource interface {
	FetchForecasts(ctx context.Context) ([]domain.AttributeRecord, error)
}

// ForecastCollector joins forecast products to their areas and renders them
// as single-part features styled by worst danger rating.
type ForecastCollector struct {
	geometries GeometrySource
	attributes AttributeSource
	policy     domain.RemarksPolicy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewForecastCollector creates a ForecastCollector.
func NewForecastCollector(g GeometrySource, a AttributeSource, policy domain.RemarksPolicy, logger *slog.Logger, metrics *observability.Metrics) *ForecastCollector {
	return &ForecastCollector{
		geometries: g,
		attributes: a,
		policy:     policy,
		logger:     logger,
		metrics:    metrics,
	}
}

// Collect fetches both feeds concurrently. Both are required: if either fails
// the other is cancelled and the run fails.
func (c *ForecastCollector) Collect(ctx context.Context) (*geojson.FeatureCollection, error) {
	var (
		geoms   map[string]domain.GeometryRecord
		records []domain.AttributeRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		geoms, err = c.geometries.FetchGeometries(gctx)
		c.recordFetch("geometries", len(geoms), err)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = c.attributes.FetchForecasts(gctx)
		c.recordFetch("forecasts", len(records), err)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return c.build(ctx, geoms, records), nil
}

func (c *ForecastCollector) recordFetch(source string, n int, err error) {
	status := domain.StatusOK
	switch {
	case err != nil:
		status = domain.StatusFailed
	case n == 0:
		status = domain.StatusEmpty
	}
	c.metrics.SourceFetches.WithLabelValues(source, status.String()).Inc()
}

func (c *ForecastCollector) build(ctx context.Context, geoms map[string]domain.GeometryRecord, records []domain.AttributeRecord) *geojson.FeatureCollection {
	logger := c.logger.With("run_id", domain.RunID(ctx))
	fc := geojson.NewFeatureCollection()

	joined, misses := domain.Join(records, geoms)
	for _, m := range misses {
		logger.Debug("no geometry for forecast area", "area_id", m.AreaID, "title", m.Title)
	}
	c.metrics.JoinMisses.Add(float64(len(misses)))

	for _, j := range joined {
		props, unknown, reason := domain.ForecastProperties(j, c.policy)
		if reason != "" {
			logger.Info("forecast dropped", "area_id", j.Record.AreaID, "reason", reason)
			c.metrics.RecordsDropped.WithLabelValues(string(reason)).Inc()
			continue
		}
		if len(unknown) > 0 {
			logger.Warn("unrecognized danger ratings treated as no rating",
				"area_id", j.Record.AreaID,
				"labels", unknown,
			)
			c.metrics.UnknownRatings.Add(float64(len(unknown)))
		}

		for _, f := range domain.Decompose(domain.ForecastFeatureID(j.Record.AreaID), props, j.Geometry) {
			fc.Append(f)
		}
	}
	return fc
}
