package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/snowpit-service/internal/domain"
	"github.com/couchcryptid/snowpit-service/internal/observability"
	"github.com/couchcryptid/snowpit-service/internal/pipeline"
)

// --- mocks ---

// mockExtractor hands out its events as one batch, then blocks until the
// context is cancelled to simulate waiting for messages.
type mockExtractor struct {
	events []domain.RawEvent
	calls  atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if m.calls.Add(1) == 1 && len(m.events) > 0 {
		return m.events, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

type memStore struct {
	mu   sync.Mutex
	pits map[domain.Collection][]domain.SnowPit
	err  error
}

func newMemStore() *memStore {
	return &memStore{pits: map[domain.Collection][]domain.SnowPit{}}
}

func (m *memStore) Load(_ context.Context, c domain.Collection) ([]domain.SnowPit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SnowPit{}, m.pits[c]...), nil
}

func (m *memStore) Upsert(_ context.Context, c domain.Collection, p domain.SnowPit) (domain.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	var a domain.Action
	m.pits[c], a = domain.UpsertPit(m.pits[c], p)
	return a, nil
}

func (m *memStore) Delete(_ context.Context, c domain.Collection, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	if m.pits[c], ok = domain.RemovePit(m.pits[c], id); !ok {
		return false, domain.ErrPitNotFound
	}
	return len(m.pits[c]) == 0, nil
}

type mockLoader struct {
	mu      sync.Mutex
	results []domain.Result
	err     error
}

func (m *mockLoader) LoadBatch(_ context.Context, results []domain.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.results = append(m.results, results...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "pit-1", validSubmission("pit-1"))

	store := newMemStore()
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{raw}}, pipeline.NewTransformer(slog.Default()),
		store, ldr, slog.Default(), metrics, 50)

	runFor(t, p, 500*time.Millisecond)

	require.Len(t, ldr.results, 1)
	assert.Equal(t, "pit-1", ldr.results[0].ID)
	assert.Equal(t, domain.StatusCreated, ldr.results[0].Status)
	assert.NoError(t, p.CheckReadiness(context.Background()))

	c := domain.Collection{Site: "Col de Porte", Season: "2025-2026", Date: "2026-02-04"}
	pits, err := store.Load(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, pits, 1)
	assert.Equal(t, "pit-1", pits[0].ID)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SubmissionsConsumed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ResultsProduced), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_UpdatesExistingPit(t *testing.T) {
	first := makeRawEvent(t, "pit-1", validSubmission("pit-1"))
	second := makeRawEvent(t, "pit-1", validSubmission("pit-1"))

	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{first, second}}, pipeline.NewTransformer(slog.Default()),
		newMemStore(), ldr, slog.Default(), newTestMetrics(), 50)

	runFor(t, p, 500*time.Millisecond)

	require.Len(t, ldr.results, 2)
	assert.Equal(t, domain.StatusCreated, ldr.results[0].Status)
	assert.Equal(t, domain.StatusUpdated, ldr.results[1].Status)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, pipeline.NewTransformer(slog.Default()),
		newMemStore(), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.results)
}

func TestPipeline_Run_MalformedMessageIsSkippedAndCommitted(t *testing.T) {
	committed := false
	raw := domain.RawEvent{Key: []byte("bad"), Value: []byte("not json"), Topic: "snowpit-submissions"}
	raw.Commit = func(context.Context) error {
		committed = true
		return nil
	}

	ldr := &mockLoader{}
	metrics := newTestMetrics()
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{raw}}, pipeline.NewTransformer(slog.Default()),
		newMemStore(), ldr, slog.Default(), metrics, 50)

	runFor(t, p, 500*time.Millisecond)

	assert.Empty(t, ldr.results)
	assert.True(t, committed)
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SubmissionsRejected.WithLabelValues("malformed")), 0)
}

func TestPipeline_Run_RejectedSubmissionIsPublishedNotStored(t *testing.T) {
	sub := validSubmission("pit-2")
	sub.SnowDepth = 120 // layers cover 100 cm

	store := newMemStore()
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{makeRawEvent(t, "pit-2", sub)}},
		pipeline.NewTransformer(slog.Default()), store, ldr, slog.Default(), metrics, 50)

	runFor(t, p, 500*time.Millisecond)

	require.Len(t, ldr.results, 1)
	r := ldr.results[0]
	assert.Equal(t, domain.StatusRejected, r.Status)
	assert.Equal(t, "pit-2", r.ID)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, domain.CodeCoverage, r.Violations[0].Code)
	assert.Contains(t, r.Error, "Layer thickness sum (100.0 cm) ≠ SD (120 cm)")
	assert.Empty(t, store.pits)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ValidationViolations.WithLabelValues("coverage_mismatch")), 0)
}

func TestPipeline_Run_CommitsAfterPublish(t *testing.T) {
	var order []string
	raw := makeRawEvent(t, "pit-3", validSubmission("pit-3"))
	raw.Topic = "snowpit-submissions"
	raw.Commit = func(context.Context) error {
		order = append(order, "commit")
		return nil
	}

	ldr := &orderedLoader{order: &order}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{raw}}, pipeline.NewTransformer(slog.Default()),
		newMemStore(), ldr, slog.Default(), newTestMetrics(), 50)

	runFor(t, p, 500*time.Millisecond)

	assert.Equal(t, []string{"publish", "commit"}, order)
}

type orderedLoader struct {
	order *[]string
}

func (l *orderedLoader) LoadBatch(context.Context, []domain.Result) error {
	*l.order = append(*l.order, "publish")
	return nil
}

func TestPipeline_Run_StoreFailureLeavesBatchUncommitted(t *testing.T) {
	committed := false
	raw := makeRawEvent(t, "pit-4", validSubmission("pit-4"))
	raw.Commit = func(context.Context) error {
		committed = true
		return nil
	}

	store := newMemStore()
	store.err = errors.New("disk full")
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{raw}}, pipeline.NewTransformer(slog.Default()),
		store, ldr, slog.Default(), newTestMetrics(), 50)

	runFor(t, p, 500*time.Millisecond)

	assert.Empty(t, ldr.results)
	assert.False(t, committed)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_PublishFailureLeavesBatchUncommitted(t *testing.T) {
	committed := false
	raw := makeRawEvent(t, "pit-5", validSubmission("pit-5"))
	raw.Commit = func(context.Context) error {
		committed = true
		return nil
	}

	ldr := &mockLoader{err: errors.New("broker unavailable")}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{raw}}, pipeline.NewTransformer(slog.Default()),
		newMemStore(), ldr, slog.Default(), newTestMetrics(), 50)

	runFor(t, p, 500*time.Millisecond)

	assert.False(t, committed)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestSubmissionTransformer_KeyNamesPitWithoutID(t *testing.T) {
	sub := validSubmission("")
	raw := makeRawEvent(t, "keyed-pit", sub)

	out, err := pipeline.NewTransformer(slog.Default()).Transform(context.Background(), raw)
	require.NoError(t, err)
	require.True(t, out.Accepted())
	assert.Equal(t, "keyed-pit", out.Pit.ID)
}

func TestSubmissionTransformer_DefaultsDateToToday(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2025, time.December, 20, 15, 10, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	sub := validSubmission("pit-6")
	sub.Date = ""
	out, err := pipeline.NewTransformer(slog.Default()).Transform(context.Background(), makeRawEvent(t, "pit-6", sub))
	require.NoError(t, err)
	require.True(t, out.Accepted())
	assert.Equal(t, domain.Collection{Site: "Col de Porte", Season: "2025-2026", Date: "2025-12-20"}, out.Collection)
}

func TestSubmissionTransformer_Malformed(t *testing.T) {
	_, err := pipeline.NewTransformer(slog.Default()).Transform(context.Background(),
		domain.RawEvent{Value: []byte(`{"layers": 7}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse submission")
}

// --- helpers ---

func validSubmission(id string) domain.Submission {
	air := -4.5
	return domain.Submission{
		ID:             id,
		Site:           "Col de Porte",
		Date:           "2026-02-04",
		SnowDepth:      100,
		AirTemperature: &air,
		Layers: []domain.LayerRow{
			{Bottom: "0", Top: "60", Grain: "RG", Density: "0.32", Hardness: "P"},
			{Bottom: "60", Top: "100", Grain: "PP", Density: "0.12", Hardness: "F"},
		},
	}
}

func makeRawEvent(t *testing.T, key string, sub domain.Submission) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(key),
		Value: data,
	}
}
