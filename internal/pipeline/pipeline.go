package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/snowpit-service/internal/domain"
	"github.com/couchcryptid/snowpit-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw submissions from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer evaluates a raw submission. An error means the message could
// not be read as a submission at all; rejected pits are reported in the
// returned Outcome.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Outcome, error)
}

// BatchLoader publishes results to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, results []domain.Result) error
}

// Pipeline orchestrates the extract-evaluate-store-publish loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	store       domain.Store
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, s domain.Store, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		store:       s,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has published a batch.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any submissions yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.SubmissionsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	published, ok := p.evaluateAndPublish(ctx, rawBatch, backoff)
	if !ok {
		return false
	}

	if published > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// evaluateAndPublish evaluates each submission, stores the accepted pits,
// publishes one result per readable submission and commits offsets.
// Unreadable messages are skipped and committed. A store or publish failure
// leaves the batch uncommitted. Returns the number of published results and
// false if the pipeline should stop.
func (p *Pipeline) evaluateAndPublish(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration) (int, bool) {
	results := make([]domain.Result, 0, len(rawBatch))
	evaluated := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		outcome, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("unreadable submission, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.SubmissionsRejected.WithLabelValues("malformed").Inc()
			p.commitOffset(ctx, raw)
			continue
		}

		if outcome.Accepted() {
			action, err := p.store.Upsert(ctx, outcome.Collection, outcome.Pit)
			if err != nil {
				p.logger.Error("store snow pit failed", "error", err,
					"collection", outcome.Collection.String(), "pit_id", outcome.Pit.ID)
				return 0, p.backoffOrStop(ctx, backoff)
			}
			outcome.Action = action
			p.logger.Info("snow pit stored", "collection", outcome.Collection.String(),
				"pit_id", outcome.Pit.ID, "action", action)
		} else {
			p.metrics.ObserveOutcome(outcome)
			p.logger.Info("snow pit rejected", "error", outcome.Err(), "key", string(raw.Key))
		}

		// Producers key messages by pit id, which names rejected pits that
		// never got one assigned.
		results = append(results, domain.NewResult(outcome, string(raw.Key)))
		evaluated = append(evaluated, raw)
	}

	if len(results) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, results); err != nil {
		p.logger.Error("publish results failed", "error", err, "batch_size", len(results))
		return 0, p.backoffOrStop(ctx, backoff)
	}

	p.metrics.ResultsProduced.Add(float64(len(results)))

	for _, raw := range evaluated {
		p.commitOffset(ctx, raw)
	}

	return len(results), true
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
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
