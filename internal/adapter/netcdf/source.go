// Package netcdf reads front observation files and writes raster files in
// NetCDF classic format.
package netcdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/storm-front-grid/internal/domain"
	"github.com/ctessum/cdf"
)

// Source reads observation blocks from a NetCDF file.
// It implements pipeline.Source.
type Source struct {
	path string
	f    *os.File
	file *cdf.File
	dims domain.Dimensions
}

// OpenSource opens path and checks that the three front variables share the
// (time, number, point, data) layout.
func OpenSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
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
	dims, err := readDimensions(file.Header, records)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Source{path: path, f: f, file: file, dims: dims}, nil
}

// numRecords returns the number of complete records in f. cdf reports the
// record dimension as length 0, so the count comes from the file size.
func numRecords(f *os.File, h *cdf.Header) (int, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}
	return int(h.NumRecs(fi.Size())), nil
}

// lengths returns the dimension lengths of name with the record dimension
// replaced by records.
func lengths(h *cdf.Header, name string, records int) []int {
	l := slices.Clone(h.Lengths(name))
	if len(l) > 0 && h.IsRecordVariable(name) {
		l[0] = records
	}
	return l
}

// readVector reads the first n values of a one-dimensional variable.
func readVector(file *cdf.File, name string, n int) (any, error) {
	r := file.Reader(name, []int{0}, []int{n})
	buf := r.Zero(n)
	if n > 0 {
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
	}
	return buf, nil
}

func readDimensions(h *cdf.Header, records int) (domain.Dimensions, error) {
	var shape []int
	var first domain.Category
	for _, cat := range domain.Categories {
		l := lengths(h, string(cat), records)
		if len(l) == 0 {
			return domain.Dimensions{}, fmt.Errorf("variable %s not in file", cat)
		}
		if len(l) != 4 {
			return domain.Dimensions{}, fmt.Errorf("variable %s has %d dimensions, want (time, %s, %s, %s)",
				cat, len(l), numberDim, pointDim, dataDim)
		}
		if shape == nil {
			shape, first = l, cat
			continue
		}
		if !slices.Equal(shape, l) {
			return domain.Dimensions{}, fmt.Errorf("dimension mismatch: %s is %v, %s is %v", first, shape, cat, l)
		}
	}

	times := lengths(h, timeVar, records)
	if len(times) != 1 {
		return domain.Dimensions{}, errors.New("time variable not in file")
	}
	if times[0] != shape[0] {
		return domain.Dimensions{}, fmt.Errorf("dimension mismatch: time has %d steps, %s has %d",
			times[0], first, shape[0])
	}
	if shape[3] < domain.NumFields {
		return domain.Dimensions{}, fmt.Errorf("%s dimension has %d fields, need at least %d",
			dataDim, shape[3], domain.NumFields)
	}
	return domain.Dimensions{Times: shape[0], Fronts: shape[1], Points: shape[2], Fields: shape[3]}, nil
}

// Name returns the file's base name.
func (s *Source) Name() string { return filepath.Base(s.path) }

// Dimensions returns the observation array sizes.
func (s *Source) Dimensions() domain.Dimensions { return s.dims }

// TimeAxis reads the time coordinate and its units attribute.
func (s *Source) TimeAxis() (domain.TimeAxis, error) {
	buf, err := readVector(s.file, timeVar, s.dims.Times)
	if err != nil {
		return domain.TimeAxis{}, err
	}
	values, err := toFloat64s(buf)
	if err != nil {
		return domain.TimeAxis{}, fmt.Errorf("read time: %w", err)
	}
	units, _ := s.file.Header.GetAttribute(timeVar, "units").(string)
	return domain.TimeAxis{Values: values, Units: units, Raw: buf}, nil
}

// ReadBlock loads every point of one category at time step t.
func (s *Source) ReadBlock(ctx context.Context, cat domain.Category, t int) (*domain.ObservationBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := s.dims
	if t < 0 || t >= d.Times {
		return nil, fmt.Errorf("read %s: step %d outside [0, %d)", cat, t, d.Times)
	}

	n := d.Fronts * d.Points * d.Fields
	r := s.file.Reader(string(cat), []int{t, 0, 0, 0}, []int{t + 1, d.Fronts, d.Points, d.Fields})
	buf := r.Zero(n)
	if n > 0 {
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("read %s step %d: %w", cat, t, err)
		}
	}
	values, err := toFloat64s(buf)
	if err != nil {
		return nil, fmt.Errorf("read %s step %d: %w", cat, t, err)
	}
	return domain.NewObservationBlock(cat, d.Fronts, d.Points, d.Fields, values)
}

// Close releases the underlying file.
func (s *Source) Close() error {
	return s.f.Close()
}
