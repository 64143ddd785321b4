// Package pipeline orchestrates the extract-queue-execute-publish loop:
// raw tract events come off the source topic in batches, get transformed
// into parsed tracts, queue up per township, and drain into the long-lived
// township grids. Every township touched by a batch gets a fresh plat
// snapshot published to the sink topic.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
	"github.com/couchcryptid/plss-plat-etl/internal/lotdef"
	"github.com/couchcryptid/plss-plat-etl/internal/observability"
	"github.com/couchcryptid/plss-plat-etl/internal/queue"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw event into zero or more parsed tracts. A
// single event may describe land in several townships.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) ([]domain.ParsedTract, error)
}

// BatchLoader publishes township plat snapshots to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, snaps []domain.PlatSnapshot) error
}

// Pipeline runs the batch loop and owns the accumulated township grids.
// Grids only ever gain cells, so replaying a batch after a crash between
// execute and offset commit converges to the same state.
type Pipeline struct {
	extractor     BatchExtractor
	transformer   Transformer
	loader        BatchLoader
	executor      *queue.Executor
	defs          *lotdef.DB
	allowDefaults bool
	logger        *slog.Logger
	metrics       *observability.Metrics
	ready         atomic.Bool
	batchSize     int

	mu    sync.RWMutex
	grids map[string]*domain.TownshipGrid
}

// New creates a Pipeline with the given stages, lot definitions, and
// observability.
func New(
	e BatchExtractor,
	t Transformer,
	l BatchLoader,
	defs *lotdef.DB,
	allowDefaults bool,
	logger *slog.Logger,
	metrics *observability.Metrics,
	batchSize int,
) *Pipeline {
	return &Pipeline{
		extractor:     e,
		transformer:   t,
		loader:        l,
		executor:      queue.NewExecutor(logger),
		defs:          defs,
		allowDefaults: allowDefaults,
		logger:        logger,
		metrics:       metrics,
		batchSize:     batchSize,
		grids:         make(map[string]*domain.TownshipGrid),
	}
}

// CheckReadiness returns nil once the pipeline has processed at least one
// batch, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any batches yet")
	}
	return nil
}

// Snapshot returns the current plat for a canonical twprge key, or false
// if no event has touched that township.
func (p *Pipeline) Snapshot(key string) (domain.PlatSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	twp, ok := p.grids[key]
	if !ok {
		return domain.PlatSnapshot{}, false
	}
	return domain.SnapshotTownship(twp, clock.Now()), true
}

// Keys returns the canonical twprge keys with accumulated state.
func (p *Pipeline) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := make([]string, 0, len(p.grids))
	for k := range p.grids {
		keys = append(keys, k)
	}
	return keys
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"batch_size", p.batchSize, "allow_default_lots", p.allowDefaults)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-queue-execute-publish cycle. Returns false
// if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.TractsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	mpq, transformed := p.transformBatch(ctx, rawBatch)

	if mpq.Len() == 0 {
		p.commitOffsets(ctx, transformed)
		return true
	}

	snaps, stats := p.execute(mpq)
	p.recordStats(stats)

	if err := p.loader.LoadBatch(ctx, snaps); err != nil {
		// Offsets stay uncommitted; the fills are already in the grids, but
		// re-executing the same tracts is a no-op.
		p.logger.Error("publish snapshots failed", "error", err, "snapshots", len(snaps))
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	p.metrics.SnapshotsPublished.Add(float64(len(snaps)))

	p.commitOffsets(ctx, transformed)
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// transformBatch converts each raw event into tracts and queues them.
// Events that fail to transform are logged, counted, and committed so they
// are not redelivered; the rest of the batch proceeds.
func (p *Pipeline) transformBatch(ctx context.Context, rawBatch []domain.RawEvent) (*queue.MultiPlatQueue, []domain.RawEvent) {
	mpq := queue.NewMultiPlatQueue()
	transformed := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		tracts, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("transform failed, skipping event",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		for _, tract := range tracts {
			mpq.AddTract(tract)
		}
		transformed = append(transformed, raw)
	}

	return mpq, transformed
}

// execute drains the queue into the long-lived grids and snapshots every
// township the queue touched.
func (p *Pipeline) execute(mpq *queue.MultiPlatQueue) ([]domain.PlatSnapshot, queue.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := p.executor.ExecuteInto(p.grids, mpq, p.defs, p.allowDefaults)

	at := clock.Now()
	snaps := make([]domain.PlatSnapshot, 0, len(mpq.Keys()))
	for _, key := range mpq.Keys() {
		if twp, ok := p.grids[key]; ok {
			snaps = append(snaps, domain.SnapshotTownship(twp, at))
		}
	}
	return snaps, res.Stats
}

func (p *Pipeline) recordStats(s queue.Stats) {
	p.metrics.FillItemsApplied.Add(float64(s.ItemsApplied))
	p.metrics.FillItemsSkipped.Add(float64(s.ItemsSkipped))
	p.metrics.CellsFilled.Add(float64(s.CellsFilled))
	p.metrics.LotsResolved.Add(float64(s.LotsResolved))
	p.metrics.LotsUnresolved.Add(float64(s.LotsUnresolved))
	p.metrics.AliquotErrors.Add(float64(s.AliquotErrors))
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should
// stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func (p *Pipeline) commitOffsets(ctx context.Context, raws []domain.RawEvent) {
	for _, raw := range raws {
		p.commitOffset(ctx, raw)
	}
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
