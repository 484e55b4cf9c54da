package netcdf

import (
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/storm-front-grid/internal/domain"
	"github.com/couchcryptid/storm-front-grid/internal/grid"
	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Output reads back a raster file written by Sink.
type Output struct {
	f    *os.File
	file *cdf.File

	Grid  grid.Grid
	Time  domain.TimeAxis
	Times int
}

// StoredStep is one time step read from a raster file.
type StoredStep struct {
	TimeIndex int
	Fronts    map[domain.Category]*domain.FrontMap
	Merged    *domain.MergedMaps
}

// OpenOutput opens a raster file and loads its coordinate axes.
func OpenOutput(path string) (*Output, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	file, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read netcdf header %s: %w", path, err)
	}
	records, err := numRecords(f, file.Header)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	o := &Output{f: f, file: file}
	if err := o.load(records); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

func (o *Output) load(records int) error {
	times := lengths(o.file.Header, timeVar, records)
	if len(times) != 1 {
		return errors.New("time variable not in file")
	}
	o.Times = times[0]

	lat, err := o.readAll(latitudeVar)
	if err != nil {
		return err
	}
	lon, err := o.readAll(longitudeVar)
	if err != nil {
		return err
	}
	o.Grid = grid.Grid{Lat: grid.Axis(lat), Lon: grid.Axis(lon)}

	raw, err := readVector(o.file, timeVar, o.Times)
	if err != nil {
		return err
	}
	values, err := toFloat64s(raw)
	if err != nil {
		return fmt.Errorf("read time: %w", err)
	}
	o.Time = domain.TimeAxis{Values: values, Units: o.Attribute(timeVar, "units"), Raw: raw}

	rows, cols := o.Grid.Shape()
	for _, name := range o.rasterVars() {
		l := lengths(o.file.Header, name, records)
		if len(l) == 0 {
			return fmt.Errorf("variable %s not in file", name)
		}
		if len(l) != 3 || l[0] != o.Times || l[1] != rows || l[2] != cols {
			return fmt.Errorf("dimension mismatch: %s is %v, want [%d %d %d]", name, l, o.Times, rows, cols)
		}
	}
	return nil
}

func (o *Output) rasterVars() []string {
	names := make([]string, 0, len(domain.Categories)+len(mergedVars))
	for _, cat := range domain.Categories {
		names = append(names, string(cat))
	}
	for _, v := range mergedVars {
		names = append(names, v.name)
	}
	return names
}

func (o *Output) readAll(name string) ([]float64, error) {
	l := o.file.Header.Lengths(name)
	if len(l) != 1 {
		return nil, fmt.Errorf("variable %s not in file", name)
	}
	buf, err := readVector(o.file, name, l[0])
	if err != nil {
		return nil, err
	}
	return toFloat64s(buf)
}

// Variables lists the variable names declared in the file.
func (o *Output) Variables() []string {
	return o.file.Header.Variables()
}

// Attribute returns a string attribute, or "" if it is missing or not a
// string. Pass an empty variable name for global attributes.
func (o *Output) Attribute(variable, name string) string {
	s, _ := o.file.Header.GetAttribute(variable, name).(string)
	return s
}

// ReadStep loads the maps stored for time step t.
func (o *Output) ReadStep(t int) (*StoredStep, error) {
	if t < 0 || t >= o.Times {
		return nil, fmt.Errorf("read step %d outside [0, %d)", t, o.Times)
	}
	rows, cols := o.Grid.Shape()
	begin, end := []int{t, 0, 0}, []int{t + 1, rows, cols}

	step := &StoredStep{TimeIndex: t, Fronts: make(map[domain.Category]*domain.FrontMap, len(domain.Categories))}
	for _, cat := range domain.Categories {
		r := o.file.Reader(string(cat), begin, end)
		buf := r.Zero(rows * cols)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("read %s step %d: %w", cat, t, err)
		}
		ids, ok := buf.([]int32)
		if !ok {
			return nil, fmt.Errorf("read %s step %d: element type %T, want int32", cat, t, buf)
		}
		step.Fronts[cat] = &domain.FrontMap{Rows: rows, Cols: cols, Elements: ids}
	}

	scalars := make([]*sparse.DenseArray, len(mergedVars))
	for i, v := range mergedVars {
		r := o.file.Reader(v.name, begin, end)
		buf := r.Zero(rows * cols)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("read %s step %d: %w", v.name, t, err)
		}
		values, err := toFloat64s(buf)
		if err != nil {
			return nil, fmt.Errorf("read %s step %d: %w", v.name, t, err)
		}
		arr := sparse.ZerosDense(rows, cols)
		copy(arr.Elements, values)
		scalars[i] = arr
	}
	step.Merged = &domain.MergedMaps{Gradient: scalars[0], U: scalars[1], V: scalars[2]}
	return step, nil
}

// Close releases the underlying file.
func (o *Output) Close() error {
	return o.f.Close()
}
