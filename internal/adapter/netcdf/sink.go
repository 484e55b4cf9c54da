package netcdf

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/storm-front-grid/internal/domain"
	"github.com/couchcryptid/storm-front-grid/internal/grid"
	"github.com/ctessum/cdf"
)

// Sink writes raster maps to a NetCDF file, one record per time step.
// It implements pipeline.Sink.
type Sink struct {
	f      *os.File
	file   *cdf.File
	time   domain.TimeAxis
	rows   int
	cols   int
	closed bool
}

// mergedVars pairs output variable names with their long_name attribute.
var mergedVars = []struct {
	name     string
	longName string
}{
	{gradientVar, "Wet-bulb potential temperature gradient"},
	{uSpeedVar, "Front speed, u component"},
	{vSpeedVar, "Front speed, v component"},
}

// CreateSink creates (or truncates) path and writes the raster header for
// grid g. The time variable takes the element type and units of timeAxis.
func CreateSink(path string, g grid.Grid, timeAxis domain.TimeAxis, source string) (*Sink, error) {
	h := outputHeader(g, timeAxis, source)
	var errs []error
	for _, err := range h.Check() {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("raster header: %w", errors.Join(errs...))
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	file, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("write netcdf header %s: %w", path, err)
	}
	rows, cols := g.Shape()
	return &Sink{f: f, file: file, time: timeAxis, rows: rows, cols: cols}, nil
}

func outputHeader(g grid.Grid, timeAxis domain.TimeAxis, source string) *cdf.Header {
	rows, cols := g.Shape()
	h := cdf.NewHeader([]string{timeVar, latitudeVar, longitudeVar}, []int{0, rows, cols})
	h.AddAttribute("", "comment", "Weather fronts rasterized onto a regular latitude/longitude grid")
	if source != "" {
		h.AddAttribute("", "source", source)
	}

	h.AddVariable(timeVar, []string{timeVar}, zeroLike(timeAxis.Raw))
	if timeAxis.Units != "" {
		h.AddAttribute(timeVar, "units", timeAxis.Units)
	}
	h.AddVariable(latitudeVar, []string{latitudeVar}, []float64{0})
	h.AddAttribute(latitudeVar, "long_name", "Latitude")
	h.AddAttribute(latitudeVar, "units", "degree_north")
	h.AddVariable(longitudeVar, []string{longitudeVar}, []float64{0})
	h.AddAttribute(longitudeVar, "long_name", "Longitude")
	h.AddAttribute(longitudeVar, "units", "degree_east")

	dims := []string{timeVar, latitudeVar, longitudeVar}
	for _, cat := range domain.Categories {
		h.AddVariable(string(cat), dims, []int32{0})
		h.AddAttribute(string(cat), "long_name", cat.LongName())
	}
	for _, v := range mergedVars {
		h.AddVariable(v.name, dims, []float64{0})
		h.AddAttribute(v.name, "long_name", v.longName)
	}
	h.Define()
	return h
}

// WriteCoordinates stores the latitude and longitude axes. Time values are
// written with their step so the record count always matches the steps
// written.
func (s *Sink) WriteCoordinates(ctx context.Context, g grid.Grid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rows, cols := g.Shape(); rows != s.rows || cols != s.cols {
		return fmt.Errorf("dimension mismatch: grid is %dx%d, file declares %dx%d", rows, cols, s.rows, s.cols)
	}
	if err := s.write(latitudeVar, []int{0}, []int{s.rows}, []float64(g.Lat)); err != nil {
		return err
	}
	return s.write(longitudeVar, []int{0}, []int{s.cols}, []float64(g.Lon))
}

// WriteStep stores the time value, the three front-id maps and the three
// merged scalar maps of one time step.
func (s *Sink) WriteStep(ctx context.Context, step *domain.StepResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := step.TimeIndex
	value, err := timeAt(s.time, t)
	if err != nil {
		return err
	}
	if err := s.write(timeVar, []int{t}, []int{t + 1}, value); err != nil {
		return err
	}
	begin, end := []int{t, 0, 0}, []int{t + 1, s.rows, s.cols}

	for _, cat := range domain.Categories {
		m, ok := step.Maps[cat]
		if !ok {
			return fmt.Errorf("step %d: no %s map", t, cat)
		}
		if err := s.checkShape(string(cat), m.Fronts.Rows, m.Fronts.Cols); err != nil {
			return err
		}
		if err := s.write(string(cat), begin, end, m.Fronts.Elements); err != nil {
			return err
		}
	}

	if step.Merged == nil {
		return fmt.Errorf("step %d: no merged maps", t)
	}
	merged := step.Merged
	for i, arr := range [][]float64{merged.Gradient.Elements, merged.U.Elements, merged.V.Elements} {
		name := mergedVars[i].name
		if len(arr) != s.rows*s.cols {
			return fmt.Errorf("dimension mismatch: %s has %d cells, grid has %d", name, len(arr), s.rows*s.cols)
		}
		if err := s.write(name, begin, end, arr); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sink) checkShape(name string, rows, cols int) error {
	if rows != s.rows || cols != s.cols {
		return fmt.Errorf("dimension mismatch: %s is %dx%d, grid is %dx%d", name, rows, cols, s.rows, s.cols)
	}
	return nil
}

func (s *Sink) write(name string, begin, end []int, data any) error {
	w := s.file.Writer(name, begin, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Close records the number of written time steps in the header and closes
// the file. It is safe to call more than once.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(cdf.UpdateNumRecs(s.f), s.f.Close())
}
