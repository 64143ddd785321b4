package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
	"github.com/couchcryptid/plss-plat-etl/internal/lotdef"
	"github.com/couchcryptid/plss-plat-etl/internal/observability"
	"github.com/couchcryptid/plss-plat-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if len(m.batches) == 0 {
		// Block until cancelled to simulate waiting for messages.
		<-ctx.Done()
		return nil, ctx.Err()
	}
	b := m.batches[0]
	m.batches = m.batches[1:]
	return b, nil
}

type mockLoader struct {
	loaded []domain.PlatSnapshot
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, snaps []domain.PlatSnapshot) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, snaps...)
	return nil
}

type mockParser struct {
	tracts []domain.ParsedTract
	err    error
}

func (m *mockParser) ParseDescription(_ context.Context, _ string) ([]domain.ParsedTract, error) {
	return m.tracts, m.err
}

// --- helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	// Fresh unregistered metrics avoid "already registered" panics.
	return observability.NewMetricsForTesting()
}

func makeRawEvent(t *testing.T, rec domain.RawTractRecord) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	return domain.RawEvent{Key: []byte(rec.Twp + rec.Rge), Value: data}
}

func newPipeline(ext *mockExtractor, ldr *mockLoader, defs *lotdef.DB, allowDefaults bool) *pipeline.Pipeline {
	return pipeline.New(
		ext,
		pipeline.NewTransformer(nil, testLogger()),
		ldr,
		defs,
		allowDefaults,
		testLogger(),
		newTestMetrics(),
		10,
	)
}

func runUntilTimeout(t *testing.T, p *pipeline.Pipeline) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, domain.RawTractRecord{
		Twp: "154n", Rge: "97w", Sec: 14, Aliquots: []string{"NE"},
	})

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	p := newPipeline(ext, ldr, lotdef.NewDB(), false)

	runUntilTimeout(t, p)

	require.Len(t, ldr.loaded, 1)
	snap := ldr.loaded[0]
	assert.Equal(t, "154n97w", snap.TwpRge)
	require.Len(t, snap.Sections, 1)
	assert.Equal(t, 14, snap.Sections[0].Section)
	assert.Equal(t, []string{"NWNE", "NENE", "SWNE", "SENE"}, snap.Sections[0].FilledQQs)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_AccumulatesAcrossBatches(t *testing.T) {
	first := makeRawEvent(t, domain.RawTractRecord{
		Twp: "154n", Rge: "97w", Sec: 14, Aliquots: []string{"N2NE"},
	})
	second := makeRawEvent(t, domain.RawTractRecord{
		Twp: "154n", Rge: "97w", Sec: 14, Aliquots: []string{"S2NE"},
	})

	ext := &mockExtractor{batches: [][]domain.RawEvent{{first}, {second}}}
	ldr := &mockLoader{}
	p := newPipeline(ext, ldr, lotdef.NewDB(), false)

	runUntilTimeout(t, p)

	require.Len(t, ldr.loaded, 2)
	assert.Len(t, ldr.loaded[0].Sections[0].FilledQQs, 2)
	assert.Len(t, ldr.loaded[1].Sections[0].FilledQQs, 4)
}

func TestPipeline_Run_TransformError(t *testing.T) {
	committed := false
	raw := domain.RawEvent{
		Value:  []byte("not json"),
		Commit: func(_ context.Context) error { committed = true; return nil },
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	p := newPipeline(ext, ldr, lotdef.NewDB(), false)

	runUntilTimeout(t, p)

	assert.Empty(t, ldr.loaded)
	assert.True(t, committed, "failed events must still be committed")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_BadEventDoesNotBlockBatch(t *testing.T) {
	bad := domain.RawEvent{Value: []byte("{")}
	good := makeRawEvent(t, domain.RawTractRecord{
		Twp: "154n", Rge: "97w", Sec: 1, Aliquots: []string{"SESE"},
	})

	ext := &mockExtractor{batches: [][]domain.RawEvent{{bad, good}}}
	ldr := &mockLoader{}
	p := newPipeline(ext, ldr, lotdef.NewDB(), false)

	runUntilTimeout(t, p)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, []string{"SESE"}, ldr.loaded[0].Sections[0].FilledQQs)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	ldr := &mockLoader{}
	p := newPipeline(ext, ldr, lotdef.NewDB(), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	committed := false
	raw := makeRawEvent(t, domain.RawTractRecord{
		Twp: "154n", Rge: "97w", Sec: 14, Aliquots: []string{"NE"},
	})
	raw.Commit = func(_ context.Context) error { committed = true; return nil }

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	p := newPipeline(ext, ldr, lotdef.NewDB(), false)

	runUntilTimeout(t, p)
	assert.True(t, committed)
}

func TestPipeline_Run_LoadErrorHoldsCommit(t *testing.T) {
	committed := false
	raw := makeRawEvent(t, domain.RawTractRecord{
		Twp: "154n", Rge: "97w", Sec: 14, Aliquots: []string{"NE"},
	})
	raw.Commit = func(_ context.Context) error { committed = true; return nil }

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{err: errors.New("broker down")}
	p := newPipeline(ext, ldr, lotdef.NewDB(), false)

	runUntilTimeout(t, p)
	assert.False(t, committed, "offsets must not be committed when publishing fails")
}

func TestPipeline_Snapshot(t *testing.T) {
	frozen := time.Date(2026, time.July, 4, 12, 0, 0, 0, time.UTC)
	pipeline.SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { pipeline.SetClock(nil) })

	raw := makeRawEvent(t, domain.RawTractRecord{
		Twp: "154n", Rge: "97w", Sec: 1, Lots: []string{"L1"},
	})
	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	p := newPipeline(ext, &mockLoader{}, lotdef.NewDB(), true)

	runUntilTimeout(t, p)

	snap, ok := p.Snapshot("154n97w")
	require.True(t, ok)
	assert.Equal(t, frozen, snap.GeneratedAt)
	require.Len(t, snap.Sections, 1)
	assert.Equal(t, []string{"NENE"}, snap.Sections[0].FilledQQs)
	assert.Equal(t, []string{"154n97w"}, p.Keys())

	_, ok = p.Snapshot("1s7e")
	assert.False(t, ok)
}

func TestTractTransformer(t *testing.T) {
	t.Run("structured record", func(t *testing.T) {
		tfm := pipeline.NewTransformer(nil, testLogger())
		raw := makeRawEvent(t, domain.RawTractRecord{
			Twp: "154n", Rge: "97w", Sec: 14,
			Aliquots: []string{"NE"}, Lots: []string{"L1"}, Desc: "NE/4, Lot 1",
		})

		tracts, err := tfm.Transform(context.Background(), raw)
		require.NoError(t, err)
		require.Len(t, tracts, 1)
		assert.Equal(t, "154n97w", tracts[0].TwpRge.Key())
		assert.Equal(t, 14, tracts[0].Sec)
		assert.Equal(t, []string{"NE"}, tracts[0].Aliquots)
		assert.Equal(t, []string{"L1"}, tracts[0].Lots)
		assert.Equal(t, "NE/4, Lot 1", tracts[0].Desc)
	})

	t.Run("free text goes to the parser", func(t *testing.T) {
		want := []domain.ParsedTract{{Sec: 14, Aliquots: []string{"NE"}}}
		tfm := pipeline.NewTransformer(&mockParser{tracts: want}, testLogger())
		raw := makeRawEvent(t, domain.RawTractRecord{Text: "T154N-R97W Sec 14: NE/4"})

		tracts, err := tfm.Transform(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, want, tracts)
	})

	t.Run("free text without a parser fails", func(t *testing.T) {
		tfm := pipeline.NewTransformer(nil, testLogger())
		raw := makeRawEvent(t, domain.RawTractRecord{Text: "T154N-R97W Sec 14: NE/4"})

		_, err := tfm.Transform(context.Background(), raw)
		assert.Error(t, err)
	})

	t.Run("parser errors propagate", func(t *testing.T) {
		tfm := pipeline.NewTransformer(&mockParser{err: errors.New("upstream 500")}, testLogger())
		raw := makeRawEvent(t, domain.RawTractRecord{Text: "somewhere out west"})

		_, err := tfm.Transform(context.Background(), raw)
		assert.ErrorContains(t, err, "parse description")
	})

	t.Run("rejects records with nothing to plat", func(t *testing.T) {
		tfm := pipeline.NewTransformer(nil, testLogger())

		for name, rec := range map[string]domain.RawTractRecord{
			"empty":           {},
			"no aliquots":     {Twp: "154n", Rge: "97w", Sec: 14},
			"invalid section": {Twp: "154n", Rge: "97w", Sec: 37, Aliquots: []string{"NE"}},
			"malformed twp":   {Twp: "abc", Rge: "97w", Sec: 14, Aliquots: []string{"NE"}},
		} {
			t.Run(name, func(t *testing.T) {
				raw := makeRawEvent(t, rec)
				_, err := tfm.Transform(context.Background(), raw)
				assert.Error(t, err)
			})
		}
	})
}

