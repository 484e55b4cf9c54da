package domain

import (
	"fmt"
	"math"

	"github.com/couchcryptid/storm-front-grid/internal/grid"
)

// WarningKind classifies a diagnostic raised while rasterizing. Warnings
// never change the output.
type WarningKind string

const (
	WarnLatitudeRange  WarningKind = "latitude_out_of_range"
	WarnLongitudeRange WarningKind = "longitude_out_of_range"
	WarnNaNCoordinate  WarningKind = "nan_coordinate"
	WarnEmptyBlock     WarningKind = "empty_block"
	WarnExtraFields    WarningKind = "extra_fields"
	WarnNoTimeSteps    WarningKind = "no_time_steps"
)

// RasterStats describes what Rasterize did with one block.
type RasterStats struct {
	Category Category

	// Points is the number of valid points binned.
	Points int
	// Cells is the number of distinct cells written.
	Cells int
	// Fronts is the number of fronts with at least one valid point.
	Fronts int
	// Terminated is the number of fronts cut short by a sentinel point.
	Terminated int

	LatOutOfRange  int
	LonOutOfRange  int
	NaNCoordinates int
}

// Warnings returns the non-zero diagnostic counts.
func (s RasterStats) Warnings() map[WarningKind]int {
	w := make(map[WarningKind]int)
	if s.LatOutOfRange > 0 {
		w[WarnLatitudeRange] = s.LatOutOfRange
	}
	if s.LonOutOfRange > 0 {
		w[WarnLongitudeRange] = s.LonOutOfRange
	}
	if s.NaNCoordinates > 0 {
		w[WarnNaNCoordinate] = s.NaNCoordinates
	}
	if s.Points == 0 {
		w[WarnEmptyBlock] = 1
	}
	return w
}

// Rasterizer bins observation blocks onto a fixed grid.
type Rasterizer struct {
	grid grid.Grid
}

// NewRasterizer returns a Rasterizer for g.
func NewRasterizer(g grid.Grid) (*Rasterizer, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("rasterizer grid: %w", err)
	}
	return &Rasterizer{grid: g}, nil
}

// Grid returns the target grid.
func (r *Rasterizer) Grid() grid.Grid { return r.grid }

// Rasterize maps every valid point of the block to its nearest cell. Fronts
// are visited in index order and points in order along each front; the last
// point written to a cell wins. A front stops at its first sentinel point.
func (r *Rasterizer) Rasterize(block *ObservationBlock) (*RasterMaps, RasterStats) {
	rows, cols := r.grid.Shape()
	maps := NewRasterMaps(block.Category, rows, cols)
	stats := RasterStats{Category: block.Category}
	touched := make([]bool, rows*cols)

	for n := 0; n < block.Fronts; n++ {
		binned := 0
		for p := 0; p < block.Points; p++ {
			pt := block.Point(n, p)
			if pt.IsSentinel() {
				stats.Terminated++
				break
			}
			stats.observe(pt)

			i, j := r.grid.Locate(pt.Lat, pt.Lon)
			maps.Fronts.Set(i, j, int32(n))
			maps.Gradient.Elements[i*cols+j] = pt.Gradient
			maps.U.Elements[i*cols+j] = pt.U
			maps.V.Elements[i*cols+j] = pt.V

			if !touched[i*cols+j] {
				touched[i*cols+j] = true
				stats.Cells++
			}
			binned++
		}
		stats.Points += binned
		if binned > 0 {
			stats.Fronts++
		}
	}
	return maps, stats
}

func (s *RasterStats) observe(pt FrontPoint) {
	if math.IsNaN(pt.Lat) || math.IsNaN(pt.Lon) {
		s.NaNCoordinates++
		return
	}
	if pt.Lat < -90 || pt.Lat > 90 {
		s.LatOutOfRange++
	}
	if pt.Lon < 0 || pt.Lon > grid.FullCircle {
		s.LonOutOfRange++
	}
}

// StepResult is the rasterized output of one time step.
type StepResult struct {
	TimeIndex int
	Time      float64
	Maps      map[Category]*RasterMaps
	Stats     map[Category]RasterStats
	Merged    *MergedMaps
}

// Step rasterizes the three categories of one time step and merges their
// scalar maps. Every category in Categories must be present in blocks.
func (r *Rasterizer) Step(timeIndex int, timeValue float64, blocks map[Category]*ObservationBlock) (*StepResult, error) {
	step := &StepResult{
		TimeIndex: timeIndex,
		Time:      timeValue,
		Maps:      make(map[Category]*RasterMaps, len(Categories)),
		Stats:     make(map[Category]RasterStats, len(Categories)),
	}
	for _, cat := range Categories {
		block, ok := blocks[cat]
		if !ok || block == nil {
			return nil, fmt.Errorf("step %d: missing %s block", timeIndex, cat)
		}
		maps, stats := r.Rasterize(block)
		step.Maps[cat] = maps
		step.Stats[cat] = stats
	}

	merged, err := Merge(step.Maps[WarmFront], step.Maps[ColdFront], step.Maps[StationaryFront])
	if err != nil {
		return nil, fmt.Errorf("step %d: %w", timeIndex, err)
	}
	step.Merged = merged
	return step, nil
}
