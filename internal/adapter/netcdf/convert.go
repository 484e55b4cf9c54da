package netcdf

import (
	"fmt"

	"github.com/couchcryptid/storm-front-grid/internal/domain"
)

// Variable and dimension names shared by the input and output layouts.
const (
	timeVar      = "time"
	latitudeVar  = "latitude"
	longitudeVar = "longitude"

	numberDim = "number"
	pointDim  = "point"
	dataDim   = "data"

	gradientVar = "thetaw_gradient"
	uSpeedVar   = "u_speed"
	vSpeedVar   = "v_speed"
)

// toFloat64s widens a typed buffer returned by a cdf reader.
func toFloat64s(buf any) ([]float64, error) {
	switch v := buf.(type) {
	case []float64:
		return v, nil
	case []float32:
		return widen(v), nil
	case []int32:
		return widen(v), nil
	case []int16:
		return widen(v), nil
	case []uint8:
		return widen(v), nil
	default:
		return nil, fmt.Errorf("unsupported element type %T", buf)
	}
}

func widen[T float32 | int32 | int16 | uint8](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// zeroLike returns a one-element slice with the element type of raw, used to
// declare a variable with the same type as its source. Unknown or nil
// buffers declare a double.
func zeroLike(raw any) any {
	switch raw.(type) {
	case []float32:
		return []float32{0}
	case []int32:
		return []int32{0}
	case []int16:
		return []int16{0}
	case []uint8:
		return []uint8{0}
	default:
		return []float64{0}
	}
}

// timeAt returns time value t as a one-element slice in the axis' stored
// element type.
func timeAt(ta domain.TimeAxis, t int) (any, error) {
	if t < 0 || t >= ta.Len() {
		return nil, fmt.Errorf("time index %d outside [0, %d)", t, ta.Len())
	}
	switch v := ta.Raw.(type) {
	case []float64:
		return v[t : t+1], nil
	case []float32:
		return v[t : t+1], nil
	case []int32:
		return v[t : t+1], nil
	case []int16:
		return v[t : t+1], nil
	case []uint8:
		return v[t : t+1], nil
	default:
		return ta.Values[t : t+1], nil
	}
}
