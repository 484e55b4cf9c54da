// Package grid defines the fixed latitude/longitude mesh that front
// observations are binned onto.
package grid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Default mesh: 0.75 degree spacing, latitude [-90, 90), longitude [0, 359.25).
const (
	DefaultStep   = 0.75
	DefaultLatMin = -90.0
	DefaultLatMax = 90.0
	DefaultLonMin = 0.0
	DefaultLonMax = 359.25

	// FullCircle is the longitude period used by the wraparound correction.
	FullCircle = 360.0
)

// Axis is a strictly increasing sequence of coordinate values.
type Axis []float64

// NewAxis returns start, start+step, ... for every value below stop.
// The length is ceil((stop-start)/step), matching a half-open arange.
func NewAxis(start, stop, step float64) (Axis, error) {
	if step <= 0 || math.IsNaN(step) {
		return nil, fmt.Errorf("axis step must be positive, got %v", step)
	}
	if stop <= start {
		return nil, fmt.Errorf("axis stop %v must be greater than start %v", stop, start)
	}
	n := int(math.Ceil((stop - start) / step))
	a := make(Axis, n)
	for i := range a {
		a[i] = start + float64(i)*step
	}
	return a, nil
}

// Len returns the number of values on the axis.
func (a Axis) Len() int { return len(a) }

// First returns the smallest axis value.
func (a Axis) First() float64 { return a[0] }

// Last returns the largest axis value.
func (a Axis) Last() float64 { return a[len(a)-1] }

// Nearest returns the index of the axis value with the smallest absolute
// difference to x. Exact ties resolve to the lower index. NaN maps to 0.
func (a Axis) Nearest(x float64) int {
	if len(a) == 0 {
		return 0
	}
	return floats.NearestIdx(a, x)
}

// Grid is the immutable target mesh. Cell (i, j) is Lat[i], Lon[j].
type Grid struct {
	Lat Axis
	Lon Axis
}

// New builds a uniform grid with the same step on both axes.
func New(latMin, latMax, lonMin, lonMax, step float64) (Grid, error) {
	lat, err := NewAxis(latMin, latMax, step)
	if err != nil {
		return Grid{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := NewAxis(lonMin, lonMax, step)
	if err != nil {
		return Grid{}, fmt.Errorf("longitude: %w", err)
	}
	return Grid{Lat: lat, Lon: lon}, nil
}

// Default returns the 0.75 degree global grid.
func Default() Grid {
	g, err := New(DefaultLatMin, DefaultLatMax, DefaultLonMin, DefaultLonMax, DefaultStep)
	if err != nil {
		panic(err)
	}
	return g
}

// Validate reports whether both axes are non-empty and strictly increasing.
func (g Grid) Validate() error {
	if len(g.Lat) == 0 || len(g.Lon) == 0 {
		return errors.New("grid axes must not be empty")
	}
	for name, a := range map[string]Axis{"latitude": g.Lat, "longitude": g.Lon} {
		for i := 1; i < len(a); i++ {
			if !(a[i] > a[i-1]) {
				return fmt.Errorf("%s axis is not strictly increasing at index %d", name, i)
			}
		}
	}
	return nil
}

// Shape returns (rows, cols) = (len(Lat), len(Lon)).
func (g Grid) Shape() (rows, cols int) {
	return len(g.Lat), len(g.Lon)
}

// LonIndex returns the nearest longitude index, wrapping to 0 when lon lies
// past the last bin but is closer to the first bin across the 0/360 seam.
func (g Grid) LonIndex(lon float64) int {
	j := g.Lon.Nearest(lon)
	last := g.Lon.Last()
	if lon > last && FullCircle+g.Lon.First()-lon < lon-last {
		return 0
	}
	return j
}

// Locate returns the cell a (lat, lon) point bins into.
func (g Grid) Locate(lat, lon float64) (i, j int) {
	return g.Lat.Nearest(lat), g.LonIndex(lon)
}
