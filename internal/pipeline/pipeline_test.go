package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/couchcryptid/storm-front-grid/internal/domain"
	"github.com/couchcryptid/storm-front-grid/internal/grid"
	"github.com/couchcryptid/storm-front-grid/internal/observability"
	"github.com/couchcryptid/storm-front-grid/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type read struct {
	cat  domain.Category
	step int
}

type mockSource struct {
	dims   domain.Dimensions
	time   domain.TimeAxis
	steps  []map[domain.Category]*domain.ObservationBlock
	failAt int // step whose reads fail; -1 for none
	reads  []read
}

func (m *mockSource) Name() string                  { return "mock.nc" }
func (m *mockSource) Dimensions() domain.Dimensions { return m.dims }
func (m *mockSource) TimeAxis() (domain.TimeAxis, error) {
	return m.time, nil
}

func (m *mockSource) ReadBlock(_ context.Context, cat domain.Category, t int) (*domain.ObservationBlock, error) {
	m.reads = append(m.reads, read{cat, t})
	if t == m.failAt {
		return nil, errors.New("disk on fire")
	}
	return m.steps[t][cat], nil
}

type mockSink struct {
	coordinates bool
	steps       []*domain.StepResult
	err         error
	afterWrite  func()
}

func (m *mockSink) WriteCoordinates(context.Context, grid.Grid) error {
	m.coordinates = true
	return nil
}

func (m *mockSink) WriteStep(_ context.Context, step *domain.StepResult) error {
	if m.err != nil {
		return m.err
	}
	m.steps = append(m.steps, step)
	if m.afterWrite != nil {
		m.afterWrite()
	}
	return nil
}

type mockNotifier struct {
	summaries []domain.StepSummary
	err       error
}

func (m *mockNotifier) Notify(_ context.Context, s domain.StepSummary) error {
	m.summaries = append(m.summaries, s)
	return m.err
}

// --- helpers ---

func smallGrid(t *testing.T) grid.Grid {
	t.Helper()
	g, err := grid.New(0, 3, 0, 3, 1)
	require.NoError(t, err)
	return g
}

func buildBlock(t *testing.T, cat domain.Category, fronts ...[]domain.FrontPoint) *domain.ObservationBlock {
	t.Helper()
	for len(fronts) < 2 {
		fronts = append(fronts, nil)
	}
	b, err := domain.BuildObservationBlock(cat, 2, fronts)
	require.NoError(t, err)
	return b
}

// newSource returns a source of n steps, each with one cold point at (1, 1)
// and empty warm and stationary blocks.
func newSource(t *testing.T, n int) *mockSource {
	t.Helper()
	src := &mockSource{
		dims:   domain.Dimensions{Times: n, Fronts: 2, Points: 2, Fields: domain.NumFields},
		time:   domain.TimeAxis{Units: "hours since 1900-01-01 00:00:0.0"},
		failAt: -1,
	}
	for i := 0; i < n; i++ {
		src.time.Values = append(src.time.Values, float64(692496+6*i))
		src.steps = append(src.steps, map[domain.Category]*domain.ObservationBlock{
			domain.ColdFront: buildBlock(t, domain.ColdFront,
				[]domain.FrontPoint{{Lat: 1, Lon: 1, Gradient: float64(i + 1)}},
			),
			domain.WarmFront:       buildBlock(t, domain.WarmFront),
			domain.StationaryFront: buildBlock(t, domain.StationaryFront),
		})
	}
	return src
}

func newPipeline(t *testing.T, src pipeline.Source, sink pipeline.Sink, n pipeline.Notifier) (*pipeline.Pipeline, *observability.Metrics) {
	t.Helper()
	r, err := domain.NewRasterizer(smallGrid(t))
	require.NoError(t, err)
	metrics := observability.NewMetricsForTesting()
	return pipeline.New(src, sink, r, n, slog.Default(), metrics), metrics
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	src := newSource(t, 3)
	sink := &mockSink{}
	notifier := &mockNotifier{}
	p, metrics := newPipeline(t, src, sink, notifier)

	require.Error(t, p.CheckReadiness(context.Background()))

	require.NoError(t, p.Run(context.Background()))

	assert.True(t, sink.coordinates)
	require.Len(t, sink.steps, 3)
	for i, step := range sink.steps {
		assert.Equal(t, i, step.TimeIndex)
		assert.Equal(t, float64(692496+6*i), step.Time)
		assert.Equal(t, float64(i+1), step.Merged.Gradient.Get(1, 1))
	}

	done, total := p.Progress()
	assert.Equal(t, 3, done)
	assert.Equal(t, 3, total)
	require.NoError(t, p.CheckReadiness(context.Background()))

	require.Len(t, notifier.summaries, 3)
	assert.Equal(t, 2, notifier.summaries[2].TimeIndex)
	assert.Equal(t, "hours since 1900-01-01 00:00:0.0", notifier.summaries[2].TimeUnits)

	assert.InDelta(t, 3, testutil.ToFloat64(metrics.StepsProcessed), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.StepsTotal), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.PointsBinned.WithLabelValues("cold")), 0)
	assert.InDelta(t, 6, testutil.ToFloat64(metrics.Warnings.WithLabelValues("empty_block")), 0)
}

func TestPipeline_Run_ProcessingOrder(t *testing.T) {
	src := newSource(t, 2)
	p, _ := newPipeline(t, src, &mockSink{}, nil)

	require.NoError(t, p.Run(context.Background()))

	want := []read{
		{domain.ColdFront, 0}, {domain.WarmFront, 0}, {domain.StationaryFront, 0},
		{domain.ColdFront, 1}, {domain.WarmFront, 1}, {domain.StationaryFront, 1},
	}
	assert.Equal(t, want, src.reads)
}

func TestPipeline_Run_Cancellation(t *testing.T) {
	src := newSource(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &mockSink{afterWrite: cancel}
	p, _ := newPipeline(t, src, sink, nil)

	err := p.Run(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	assert.Len(t, sink.steps, 1, "the step in flight completes")
	done, total := p.Progress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 3, total)
}

func TestPipeline_Run_CancelledBeforeStart(t *testing.T) {
	sink := &mockSink{}
	p, _ := newPipeline(t, newSource(t, 2), sink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.Empty(t, sink.steps)
	require.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ReadError(t *testing.T) {
	src := newSource(t, 3)
	src.failAt = 1
	sink := &mockSink{}
	p, _ := newPipeline(t, src, sink, nil)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
	assert.Len(t, sink.steps, 1)
}

func TestPipeline_Run_SinkError(t *testing.T) {
	sink := &mockSink{err: errors.New("dimension mismatch")}
	p, metrics := newPipeline(t, newSource(t, 2), sink, nil)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.StepsProcessed), 0)
}

func TestPipeline_Run_NotifyErrorDoesNotAbort(t *testing.T) {
	sink := &mockSink{}
	notifier := &mockNotifier{err: errors.New("broker down")}
	p, metrics := newPipeline(t, newSource(t, 2), sink, notifier)

	require.NoError(t, p.Run(context.Background()))
	assert.Len(t, sink.steps, 2)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.NotifyErrors), 0)
}

func TestPipeline_Run_NoTimeSteps(t *testing.T) {
	sink := &mockSink{}
	p, metrics := newPipeline(t, newSource(t, 0), sink, nil)

	require.NoError(t, p.Run(context.Background()))
	assert.True(t, sink.coordinates)
	assert.Empty(t, sink.steps)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Warnings.WithLabelValues("no_time_steps")), 0)
}

func TestPipeline_Run_ExtraFields(t *testing.T) {
	const fields = 7
	values := make([]float64, fields)
	values[domain.FieldLat] = 2
	values[domain.FieldLon] = 2
	values[domain.FieldGradient] = 1.5
	values[5], values[6] = 99, 99

	blocks := map[domain.Category]*domain.ObservationBlock{}
	for _, cat := range domain.Categories {
		b, err := domain.NewObservationBlock(cat, 1, 1, fields, values)
		require.NoError(t, err)
		blocks[cat] = b
	}
	src := &mockSource{
		dims:   domain.Dimensions{Times: 1, Fronts: 1, Points: 1, Fields: fields},
		time:   domain.TimeAxis{Values: []float64{0}},
		steps:  []map[domain.Category]*domain.ObservationBlock{blocks},
		failAt: -1,
	}
	sink := &mockSink{}
	p, metrics := newPipeline(t, src, sink, nil)

	require.NoError(t, p.Run(context.Background()))
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.Warnings.WithLabelValues("extra_fields")), 0)
	require.Len(t, sink.steps, 1)
	assert.Equal(t, 1.5, sink.steps[0].Merged.Gradient.Get(2, 2))
}
