package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/storm-front-grid/internal/domain"
)

// StepBuilder reads the three category blocks for a time step and runs them
// through the rasterizer.
type StepBuilder struct {
	source     Source
	rasterizer *domain.Rasterizer
}

// NewStepBuilder creates a StepBuilder over src.
func NewStepBuilder(src Source, r *domain.Rasterizer) *StepBuilder {
	return &StepBuilder{source: src, rasterizer: r}
}

// Build reads every category at step t, in processing order, and returns the
// rasterized and merged result.
func (b *StepBuilder) Build(ctx context.Context, t int, timeValue float64) (*domain.StepResult, error) {
	blocks := make(map[domain.Category]*domain.ObservationBlock, len(domain.Categories))
	for _, cat := range domain.Categories {
		block, err := b.source.ReadBlock(ctx, cat, t)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}
		blocks[cat] = block
	}
	return b.rasterizer.Step(t, timeValue, blocks)
}
