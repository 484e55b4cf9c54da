package domain

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// Field offsets within a point's data vector.
const (
	FieldLat = iota
	FieldLon
	FieldGradient
	FieldU
	FieldV

	// NumFields is the number of fields the rasterizer reads per point.
	NumFields
)

const (
	// SentinelLatitude is the threshold below which a latitude marks the end
	// of a front's point list.
	SentinelLatitude = -1000.0

	// PadLatitude is the fill value written into unused point slots.
	PadLatitude = -99999.0
)

// Dimensions describes an observation file's array sizes.
type Dimensions struct {
	Times  int `json:"times"`
	Fronts int `json:"fronts"`
	Points int `json:"points"`
	Fields int `json:"fields"`
}

// TimeAxis is the time coordinate of an observation file.
type TimeAxis struct {
	Values []float64
	Units  string

	// Raw holds the values in the source variable's element type ([]float64,
	// []float32, []int32, ...) so they can be copied without conversion.
	// Nil means Values is authoritative.
	Raw any
}

// Len returns the number of time steps.
func (t TimeAxis) Len() int { return len(t.Values) }

// FrontPoint is one point along a front.
type FrontPoint struct {
	Lat      float64
	Lon      float64
	Gradient float64
	U        float64
	V        float64
}

// IsSentinel reports whether the point terminates its front.
func (p FrontPoint) IsSentinel() bool {
	return p.Lat < SentinelLatitude
}

// ObservationBlock holds every point of one category at one time step,
// indexed (front, point, field) in row-major order.
type ObservationBlock struct {
	Category Category
	Fronts   int
	Points   int
	Fields   int
	data     *sparse.DenseArray
}

// NewObservationBlock wraps a flat (fronts × points × fields) slice.
func NewObservationBlock(cat Category, fronts, points, fields int, values []float64) (*ObservationBlock, error) {
	if fronts < 0 || points < 0 {
		return nil, fmt.Errorf("%s: negative block dimensions %dx%d", cat, fronts, points)
	}
	if fields < NumFields {
		return nil, fmt.Errorf("%s: need at least %d fields per point, got %d", cat, NumFields, fields)
	}
	if want := fronts * points * fields; len(values) != want {
		return nil, fmt.Errorf("%s: block has %d values, dimensions %dx%dx%d need %d",
			cat, len(values), fronts, points, fields, want)
	}
	data := sparse.ZerosDense(fronts, points, fields)
	copy(data.Elements, values)
	return &ObservationBlock{
		Category: cat,
		Fronts:   fronts,
		Points:   points,
		Fields:   fields,
		data:     data,
	}, nil
}

// BuildObservationBlock lays out fronts into a block with room for points
// points per front, padding unused slots with PadLatitude.
func BuildObservationBlock(cat Category, points int, fronts [][]FrontPoint) (*ObservationBlock, error) {
	values := make([]float64, len(fronts)*points*NumFields)
	for n, front := range fronts {
		if len(front) > points {
			return nil, fmt.Errorf("%s: front %d has %d points, block holds %d", cat, n, len(front), points)
		}
		for p := 0; p < points; p++ {
			base := (n*points + p) * NumFields
			if p >= len(front) {
				values[base+FieldLat] = PadLatitude
				values[base+FieldLon] = PadLatitude
				continue
			}
			pt := front[p]
			values[base+FieldLat] = pt.Lat
			values[base+FieldLon] = pt.Lon
			values[base+FieldGradient] = pt.Gradient
			values[base+FieldU] = pt.U
			values[base+FieldV] = pt.V
		}
	}
	return NewObservationBlock(cat, len(fronts), points, NumFields, values)
}

// Point returns point p of front n.
func (b *ObservationBlock) Point(n, p int) FrontPoint {
	base := (n*b.Points + p) * b.Fields
	e := b.data.Elements[base : base+NumFields]
	return FrontPoint{
		Lat:      e[FieldLat],
		Lon:      e[FieldLon],
		Gradient: e[FieldGradient],
		U:        e[FieldU],
		V:        e[FieldV],
	}
}

// Values returns the block's flat backing slice.
func (b *ObservationBlock) Values() []float64 {
	return b.data.Elements
}
