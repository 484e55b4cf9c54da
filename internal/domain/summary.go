package domain

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// CategorySummary counts what one category contributed to a time step.
type CategorySummary struct {
	Points int `json:"points"`
	Cells  int `json:"cells"`
	Fronts int `json:"fronts"`
}

// StepSummary is the per-step report published once a step is written.
type StepSummary struct {
	TimeIndex   int                          `json:"time_index"`
	Time        float64                      `json:"time"`
	TimeUnits   string                       `json:"time_units,omitempty"`
	Categories  map[Category]CategorySummary `json:"categories"`
	MergedCells int                          `json:"merged_cells"`
	MaxGradient float64                      `json:"max_abs_gradient"`
	Warnings    int                          `json:"warnings"`
	ProcessedAt time.Time                    `json:"processed_at"`
}

// Summarize reduces a step result to its summary, stamped with the package clock.
func Summarize(step *StepResult, timeUnits string) StepSummary {
	s := StepSummary{
		TimeIndex:   step.TimeIndex,
		Time:        step.Time,
		TimeUnits:   timeUnits,
		Categories:  make(map[Category]CategorySummary, len(step.Stats)),
		ProcessedAt: clock.Now().UTC(),
	}
	for cat, st := range step.Stats {
		s.Categories[cat] = CategorySummary{Points: st.Points, Cells: st.Cells, Fronts: st.Fronts}
		for _, n := range st.Warnings() {
			s.Warnings += n
		}
	}
	if step.Merged != nil {
		g := step.Merged.Gradient.Elements
		for _, v := range g {
			if v != 0 {
				s.MergedCells++
			}
		}
		s.MaxGradient = maxAbs(g)
	}
	return s
}

func maxAbs(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(v)), math.Abs(floats.Min(v)))
}
