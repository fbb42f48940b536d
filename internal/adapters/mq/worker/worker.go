// Package worker defines the fan-out workers that map queued years to music.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ecotone-audio/ecotone/internal/adapters/mq/queue"
	"github.com/ecotone-audio/ecotone/internal/domain/model"
	"github.com/ecotone-audio/ecotone/pkg/logger"
	"github.com/ecotone-audio/ecotone/pkg/metrics"
)

// Mapper turns one year's metrics and rows into music. The mapping engine
// satisfies this.
type Mapper interface {
	GenerateYear(m queue.JobMetrics, rows []model.Observation) model.YearMusic
}

// Collector receives finished years. The repository store satisfies this.
type Collector interface {
	Put(ctx context.Context, ym model.YearMusic) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes year jobs until its queue drains or ctx is canceled.
type Worker struct {
	queue     Queue
	mapper    Mapper
	collector Collector
	name      string
	logger    logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a worker with configuration options.
func New(q Queue, mapper Mapper, collector Collector, opts ...Option) *Worker {
	w := &Worker{
		queue:     q,
		mapper:    mapper,
		collector: collector,
		name:      "worker",
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes jobs until the queue channel closes or ctx is canceled.
// The first processing error is returned after the loop ends; mapping itself
// cannot fail, so an error here means a fan-out bug (e.g. a year enqueued
// twice).
func (w *Worker) Run(ctx context.Context) error {
	var firstErr error
	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return firstErr
		case job, ok := <-jobs:
			if !ok {
				return firstErr
			}
			if err := w.process(ctx, job); err != nil {
				metrics.RecordWorkerError()
				w.logger.Error(ctx, "failed to process year",
					logger.Int("year", job.Year),
					logger.Error(err),
				)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	ym := w.mapper.GenerateYear(job.Metrics, job.Rows)
	metrics.RecordMappingLatency(time.Since(start).Seconds())

	if err := w.collector.Put(ctx, ym); err != nil {
		return fmt.Errorf("collect year %d: %w", job.Year, err)
	}

	metrics.RecordYearProcessed()
	for _, layer := range []string{model.LayerDrone, model.LayerPads, model.LayerShimmer} {
		n := 0
		for _, note := range ym.Notes {
			if note.Layer == layer {
				n++
			}
		}
		if n > 0 {
			metrics.RecordNotesEmitted(layer, n)
		}
	}
	metrics.RecordCCsEmitted(len(ym.CCs))
	return nil
}

// Pool runs a fixed set of workers over one queue and waits for them all.
type Pool struct {
	workers []*Worker
	logger  logger.Logger
}

// NewPool creates a pool of count workers sharing the queue, mapper, and
// collector.
func NewPool(count int, q Queue, mapper Mapper, collector Collector) *Pool {
	if count < 1 {
		count = 1
	}
	p := &Pool{
		workers: make([]*Worker, count),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < count; i++ {
		p.workers[i] = New(q, mapper, collector, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(count)
	return p
}

// Run starts every worker and blocks until the queue drains. The first
// worker error, if any, is returned.
func (p *Pool) Run(ctx context.Context) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, w := range p.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	metrics.UpdateWorkerCount(0)
	return firstErr
}
