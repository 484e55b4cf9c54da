package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-front-grid/internal/domain"
	"github.com/couchcryptid/storm-front-grid/internal/grid"
	"github.com/couchcryptid/storm-front-grid/internal/observability"
)

// Source provides observation blocks, one category and time step at a time.
type Source interface {
	Name() string
	Dimensions() domain.Dimensions
	TimeAxis() (domain.TimeAxis, error)
	ReadBlock(ctx context.Context, cat domain.Category, t int) (*domain.ObservationBlock, error)
}

// Sink stores the coordinate axes and the rasterized maps of each time step.
type Sink interface {
	WriteCoordinates(ctx context.Context, g grid.Grid) error
	WriteStep(ctx context.Context, step *domain.StepResult) error
}

// Notifier publishes a summary of each written time step.
type Notifier interface {
	Notify(ctx context.Context, summary domain.StepSummary) error
}

// Pipeline runs the time-step loop: read, rasterize, merge, write.
type Pipeline struct {
	source   Source
	sink     Sink
	builder  *StepBuilder
	grid     grid.Grid
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics

	ready atomic.Bool
	done  atomic.Int64
	total atomic.Int64
}

// New creates a Pipeline. Pass a nil notifier to disable step summaries.
func New(src Source, sink Sink, r *domain.Rasterizer, n Notifier, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:   src,
		sink:     sink,
		builder:  NewStepBuilder(src, r),
		grid:     r.Grid(),
		notifier: n,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one time step has been written,
// or an error describing why the job is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no time step written yet")
	}
	return nil
}

// Progress returns the number of time steps written and the number in the input.
func (p *Pipeline) Progress() (done, total int) {
	return int(p.done.Load()), int(p.total.Load())
}

// Run processes every time step in order. The context is checked between
// steps; on cancellation Run returns after the step in flight with an error
// wrapping ctx.Err(). The caller owns and closes the source and sink.
func (p *Pipeline) Run(ctx context.Context) error {
	dims := p.source.Dimensions()
	timeAxis, err := p.source.TimeAxis()
	if err != nil {
		return err
	}
	p.total.Store(int64(dims.Times))
	p.metrics.StepsTotal.Set(float64(dims.Times))

	p.logger.Info("pipeline started",
		"source", p.source.Name(),
		"times", dims.Times,
		"fronts", dims.Fronts,
		"points", dims.Points,
		"fields", dims.Fields,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if dims.Fields > domain.NumFields {
		p.warn(domain.WarnExtraFields, dims.Fields-domain.NumFields,
			"extra data fields ignored", "fields", dims.Fields, "used", domain.NumFields)
	}
	if dims.Times == 0 {
		p.warn(domain.WarnNoTimeSteps, 1, "input has no time steps")
	}

	// Coordinates are written even when ctx is already done so a stopped run
	// still leaves a readable file.
	if err := p.sink.WriteCoordinates(context.WithoutCancel(ctx), p.grid); err != nil {
		return fmt.Errorf("write coordinates: %w", err)
	}

	for t := 0; t < dims.Times; t++ {
		if err := ctx.Err(); err != nil {
			p.logger.Info("pipeline stopping", "reason", err, "step", t, "total", dims.Times)
			return fmt.Errorf("stopped after %d of %d steps: %w", t, dims.Times, err)
		}
		var timeValue float64
		if t < len(timeAxis.Values) {
			timeValue = timeAxis.Values[t]
		}
		if err := p.processStep(ctx, t, timeValue, timeAxis.Units, dims.Times); err != nil {
			return err
		}
	}

	p.logger.Info("pipeline finished", "steps", dims.Times)
	return nil
}

// processStep rasterizes and writes time step t, then records and publishes its stats.
func (p *Pipeline) processStep(ctx context.Context, t int, timeValue float64, units string, total int) error {
	start := time.Now()

	step, err := p.builder.Build(ctx, t, timeValue)
	if err != nil {
		return err
	}
	if err := p.sink.WriteStep(ctx, step); err != nil {
		return fmt.Errorf("step %d: %w", t, err)
	}

	p.metrics.StepDuration.Observe(time.Since(start).Seconds())
	p.metrics.StepsProcessed.Inc()
	p.done.Store(int64(t + 1))
	p.ready.Store(true)

	for _, cat := range domain.Categories {
		p.recordStats(t, step.Stats[cat])
	}
	p.logger.Info("step written", "step", t+1, "total", total, "time", timeValue)

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, domain.Summarize(step, units)); err != nil {
			p.metrics.NotifyErrors.Inc()
			p.logger.Warn("notify failed", "error", err, "step", t+1)
		}
	}
	return nil
}

func (p *Pipeline) recordStats(t int, s domain.RasterStats) {
	label := s.Category.Label()
	p.metrics.PointsBinned.WithLabelValues(label).Add(float64(s.Points))
	p.metrics.FrontsTerminated.WithLabelValues(label).Add(float64(s.Terminated))
	p.logger.Debug("category binned",
		"step", t+1,
		"category", label,
		"points", s.Points,
		"cells", s.Cells,
		"fronts", s.Fronts,
		"terminated", s.Terminated,
	)
	for kind, n := range s.Warnings() {
		p.warn(kind, n, "input diagnostic", "step", t+1, "category", label)
	}
}

func (p *Pipeline) warn(kind domain.WarningKind, count int, msg string, args ...any) {
	p.metrics.Warnings.WithLabelValues(string(kind)).Add(float64(count))
	p.logger.Warn(msg, append([]any{"kind", kind, "count", count}, args...)...)
}
