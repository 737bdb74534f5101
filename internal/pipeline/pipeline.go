package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hazard-etl/internal/domain"
	"github.com/couchcryptid/hazard-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
)

// Collector fetches the sources of one variant and builds the output features.
type Collector interface {
	Collect(ctx context.Context) (*geojson.FeatureCollection, error)
}

// Emitter delivers a finished feature collection.
type Emitter interface {
	Emit(ctx context.Context, fc *geojson.FeatureCollection) error
}

// Pipeline orchestrates collect-then-emit runs.
type Pipeline struct {
	collector Collector
	emitter   Emitter
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	mu     sync.Mutex
	last   domain.RunSummary
	hasRun bool
}

// New creates a Pipeline with the given stages and observability.
func New(c Collector, e Emitter, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		collector: c,
		emitter:   e,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// RunOnce performs a single run. A fatal source or emitter error aborts the
// run before anything is emitted.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	summary := domain.RunSummary{ID: uuid.NewString(), StartedAt: domain.Now()}
	ctx = domain.WithRunID(ctx, summary.ID)
	logger := p.logger.With("run_id", summary.ID)

	start := time.Now()
	p.metrics.RunsTotal.Inc()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	n, err := p.collectAndEmit(ctx, logger)
	summary.FinishedAt = domain.Now()
	summary.Features = n
	if err != nil {
		summary.Error = err.Error()
		p.metrics.RunFailures.Inc()
		p.record(summary)
		return err
	}
	p.record(summary)

	elapsed := time.Since(start)
	p.metrics.FeaturesEmitted.Add(float64(n))
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.metrics.LastSuccess.SetToCurrentTime()
	p.ready.Store(true)

	logger.Info("run complete", "features", n, "duration", elapsed)
	return nil
}

func (p *Pipeline) collectAndEmit(ctx context.Context, logger *slog.Logger) (int, error) {
	fc, err := p.collector.Collect(ctx)
	if err != nil {
		return 0, fmt.Errorf("collect: %w", err)
	}

	if len(fc.Features) > 0 {
		logger.Debug("first feature", "id", fc.Features[0].ID, "properties", fc.Features[0].Properties)
	}

	if err := p.emitter.Emit(ctx, fc); err != nil {
		return 0, fmt.Errorf("emit: %w", err)
	}
	return len(fc.Features), nil
}

func (p *Pipeline) record(s domain.RunSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = s
	p.hasRun = true
}

// LastRun returns the summary of the most recent run. ok is false before the
// first run finishes.
func (p *Pipeline) LastRun() (summary domain.RunSummary, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.hasRun
}

// Run repeats RunOnce every interval until ctx is cancelled. A failed run is
// logged and the next tick tries again; runs never overlap.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	p.logger.Info("pipeline started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}
