// Package app provides the pipeline service that wires the domain packages
// together: load table, fold metrics, fan out per-year mapping, assemble the
// timeline, export artifacts.
package app

import (
	"context"
	"fmt"

	"github.com/ecotone-audio/ecotone/internal/adapters/export"
	"github.com/ecotone-audio/ecotone/internal/adapters/mq/queue"
	"github.com/ecotone-audio/ecotone/internal/adapters/mq/worker"
	"github.com/ecotone-audio/ecotone/internal/adapters/obs"
	"github.com/ecotone-audio/ecotone/internal/adapters/repository"
	"github.com/ecotone-audio/ecotone/internal/config"
	"github.com/ecotone-audio/ecotone/internal/domain/diversity"
	"github.com/ecotone-audio/ecotone/internal/domain/mapping"
	"github.com/ecotone-audio/ecotone/internal/domain/model"
	"github.com/ecotone-audio/ecotone/internal/domain/timegrid"
	"github.com/ecotone-audio/ecotone/internal/domain/timeline"
	"github.com/ecotone-audio/ecotone/internal/domain/voicing"
	"github.com/ecotone-audio/ecotone/pkg/logger"
	"github.com/ecotone-audio/ecotone/pkg/metrics"
)

// Result is everything one pipeline run produces.
type Result struct {
	Timeline *timeline.Timeline
	Metrics  []diversity.YearMetrics
	Voices   []voicing.Voice
}

// Service runs the sonification pipeline for one configuration.
type Service struct {
	cfg    *config.Config
	table  model.Table // preloaded table for tests; nil means load from cfg.InputPath
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTable supplies an in-memory observation table instead of loading the
// configured input file.
func WithTable(table model.Table) Option {
	return func(s *Service) { s.table = table }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service for the given configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("pipeline")
	}
	return s
}

// Run executes the full pipeline and returns the materialized result. The
// configuration is re-validated first so a Service built around a bad config
// fails before any year is processed.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	grid, err := timegrid.New(s.cfg.StartYear, s.cfg.EndYear, s.cfg.BPM, s.cfg.BarsPerYear, s.cfg.BeatsPerBar)
	if err != nil {
		return nil, err
	}

	table := s.table
	if table == nil {
		table, err = obs.NewLoader().LoadFile(ctx, s.cfg.InputPath)
		if err != nil {
			return nil, err
		}
	}

	// Sequential fold: turnover needs the previous year's species set.
	calc := diversity.NewCalculator(
		diversity.WithTopK(s.cfg.TopKSpecies),
		diversity.WithConfidenceScale(s.cfg.EffortConfidenceScale),
	)
	yearMetrics := calc.Compute(table, s.cfg.StartYear, s.cfg.EndYear)

	scale, err := voicing.ScaleIntervals(s.cfg.Mode)
	if err != nil {
		return nil, err
	}
	assigner := voicing.NewAssigner(scale, s.cfg.BaseRootMidi, s.cfg.PadPrograms,
		voicing.WithOctaveSpan(s.cfg.OctaveSpan),
	)

	engine, err := mapping.New(grid, assigner,
		mapping.WithVoiceBounds(s.cfg.MinVoices, s.cfg.MaxVoices),
		mapping.WithBaseRoot(s.cfg.BaseRootMidi),
		mapping.WithDroneVelocity(s.cfg.DroneVelocity),
		mapping.WithShimmerThreshold(s.cfg.ShimmerThreshold),
		mapping.WithShimmerMaxEvents(s.cfg.ShimmerMaxEvents),
		mapping.WithMedianRichness(diversity.MedianRichness(yearMetrics)),
		mapping.WithLayers(s.cfg.DroneEnabled, s.cfg.PadsEnabled, s.cfg.ShimmerEnabled),
	)
	if err != nil {
		return nil, err
	}

	store, err := s.mapYears(ctx, grid, engine, yearMetrics, table)
	if err != nil {
		return nil, err
	}

	tl := timeline.Build(grid, store.Snapshot(ctx))
	metrics.UpdateVoiceCacheSize(assigner.Size())

	s.logger.Info(ctx, "pipeline finished",
		logger.Int("years", len(tl.Years())),
		logger.Int("notes", tl.NoteCount()),
		logger.Int("ccs", tl.CCCount()),
		logger.Int("species_voiced", assigner.Size()),
		logger.Float64("duration_seconds", tl.DurationSeconds()),
	)

	return &Result{
		Timeline: tl,
		Metrics:  yearMetrics,
		Voices:   assigner.Assigned(),
	}, nil
}

// mapYears fans the per-year mapping out across the worker pool and collects
// the results. Every year job is enqueued before the workers drain the
// queue, so the queue is sized to hold the whole run.
func (s *Service) mapYears(ctx context.Context, grid timegrid.Grid, engine *mapping.Engine, yearMetrics []diversity.YearMetrics, table model.Table) (repository.Store, error) {
	capacity := s.cfg.QueueSize
	if capacity < grid.NumYears() {
		capacity = grid.NumYears()
	}
	q := queue.NewInMemoryQueue(queue.WithCapacity(capacity))
	store := repository.NewInMemoryStore()
	pool := worker.NewPool(s.cfg.WorkerCount, q, engine, store)

	for _, m := range yearMetrics {
		rows := table[m.Year]
		if len(rows) == 0 {
			// Not an error: the year still gets a minimum-velocity drone.
			metrics.RecordSparseYear()
			s.logger.Warn(ctx, "year has no observation rows",
				logger.Int("year", m.Year),
			)
		}
		if !q.Enqueue(ctx, queue.Job{Year: m.Year, Metrics: m, Rows: rows}) {
			return nil, fmt.Errorf("%w: year %d", ErrEnqueue, m.Year)
		}
	}
	if err := q.Close(); err != nil {
		return nil, err
	}
	if err := pool.Run(ctx); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return store, nil
}

// Export writes the timeline and metadata artifacts for a finished run.
func (s *Service) Export(ctx context.Context, res *Result) error {
	w := export.NewWriter()
	if err := w.Write(ctx, s.cfg.TimelinePath, "timeline", export.BuildTimelineDoc(s.cfg, res.Timeline)); err != nil {
		return err
	}
	return w.Write(ctx, s.cfg.MetadataPath, "metadata", export.BuildMetadataDoc(s.cfg, res.Timeline, res.Voices))
}
