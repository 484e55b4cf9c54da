package domain

import (
	"errors"
	"fmt"

	"github.com/ctessum/sparse"
)

// FrontMap is a (rows × cols) grid of front indices. Zero means no front
// was written to the cell, or front 0 was.
type FrontMap struct {
	Rows     int
	Cols     int
	Elements []int32
}

// NewFrontMap returns a zeroed map.
func NewFrontMap(rows, cols int) *FrontMap {
	return &FrontMap{Rows: rows, Cols: cols, Elements: make([]int32, rows*cols)}
}

// At returns the value at cell (i, j).
func (m *FrontMap) At(i, j int) int32 { return m.Elements[i*m.Cols+j] }

// Set stores v at cell (i, j).
func (m *FrontMap) Set(i, j int, v int32) { m.Elements[i*m.Cols+j] = v }

// RasterMaps is the rasterized output of one category at one time step.
type RasterMaps struct {
	Category Category
	Fronts   *FrontMap
	Gradient *sparse.DenseArray
	U        *sparse.DenseArray
	V        *sparse.DenseArray
}

// NewRasterMaps returns zeroed maps for a (rows × cols) grid.
func NewRasterMaps(cat Category, rows, cols int) *RasterMaps {
	return &RasterMaps{
		Category: cat,
		Fronts:   NewFrontMap(rows, cols),
		Gradient: sparse.ZerosDense(rows, cols),
		U:        sparse.ZerosDense(rows, cols),
		V:        sparse.ZerosDense(rows, cols),
	}
}

// Shape returns the maps' (rows, cols).
func (m *RasterMaps) Shape() (rows, cols int) {
	return m.Fronts.Rows, m.Fronts.Cols
}

// MergedMaps holds the category-merged scalar fields of one time step.
type MergedMaps struct {
	Gradient *sparse.DenseArray
	U        *sparse.DenseArray
	V        *sparse.DenseArray
}

// Merge combines per-category scalar maps, preferring warm over cold over
// stationary wherever the higher category is non-zero. It is applied to the
// gradient, u, and v fields independently.
func Merge(warm, cold, stat *RasterMaps) (*MergedMaps, error) {
	if warm == nil || cold == nil || stat == nil {
		return nil, errors.New("merge needs all three categories")
	}
	rows, cols := warm.Shape()
	for _, m := range []*RasterMaps{cold, stat} {
		if r, c := m.Shape(); r != rows || c != cols {
			return nil, fmt.Errorf("merge shape mismatch: %s is %dx%d, %s is %dx%d",
				warm.Category, rows, cols, m.Category, r, c)
		}
	}
	return &MergedMaps{
		Gradient: mergeScalar(warm.Gradient, cold.Gradient, stat.Gradient),
		U:        mergeScalar(warm.U, cold.U, stat.U),
		V:        mergeScalar(warm.V, cold.V, stat.V),
	}, nil
}

func mergeScalar(warm, cold, stat *sparse.DenseArray) *sparse.DenseArray {
	out := sparse.ZerosDense(warm.Shape...)
	for i, w := range warm.Elements {
		switch {
		case w != 0:
			out.Elements[i] = w
		case cold.Elements[i] != 0:
			out.Elements[i] = cold.Elements[i]
		default:
			out.Elements[i] = stat.Elements[i]
		}
	}
	return out
}
