package netcdf

import (
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/storm-front-grid/internal/domain"
	"github.com/ctessum/cdf"
)

// Observations is the content of an observation file: per-step blocks for
// each category, all sized (Fronts × Points × NumFields).
type Observations struct {
	Time   []float64
	Units  string
	Fronts int
	Points int

	// Double stores the front variables as double instead of float.
	Double bool

	Steps []map[domain.Category]*domain.ObservationBlock
}

// WriteObservations writes obs in the observation file layout read by
// OpenSource.
func WriteObservations(path string, obs Observations) error {
	if obs.Fronts < 1 || obs.Points < 1 {
		return fmt.Errorf("observation file needs at least one front and point, got %dx%d", obs.Fronts, obs.Points)
	}
	if len(obs.Steps) != len(obs.Time) {
		return fmt.Errorf("dimension mismatch: %d time values, %d steps", len(obs.Time), len(obs.Steps))
	}

	var elem any = []float32{0}
	if obs.Double {
		elem = []float64{0}
	}
	h := cdf.NewHeader([]string{timeVar, numberDim, pointDim, dataDim}, []int{0, obs.Fronts, obs.Points, domain.NumFields})
	h.AddVariable(timeVar, []string{timeVar}, []float64{0})
	if obs.Units != "" {
		h.AddAttribute(timeVar, "units", obs.Units)
	}
	for _, cat := range domain.Categories {
		h.AddVariable(string(cat), []string{timeVar, numberDim, pointDim, dataDim}, elem)
	}
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create observations: %w", err)
	}
	file, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return fmt.Errorf("write netcdf header %s: %w", path, err)
	}

	werr := writeObservationData(file, obs)
	return errors.Join(werr, cdf.UpdateNumRecs(f), f.Close())
}

func writeObservationData(file *cdf.File, obs Observations) error {
	if len(obs.Time) > 0 {
		w := file.Writer(timeVar, []int{0}, []int{len(obs.Time)})
		if _, err := w.Write(obs.Time); err != nil {
			return fmt.Errorf("write time: %w", err)
		}
	}
	for t, blocks := range obs.Steps {
		for _, cat := range domain.Categories {
			b, ok := blocks[cat]
			if !ok {
				return fmt.Errorf("step %d: missing %s block", t, cat)
			}
			if b.Fronts != obs.Fronts || b.Points != obs.Points || b.Fields != domain.NumFields {
				return fmt.Errorf("dimension mismatch: step %d %s is %dx%dx%d, file is %dx%dx%d",
					t, cat, b.Fronts, b.Points, b.Fields, obs.Fronts, obs.Points, domain.NumFields)
			}
			var data any = b.Values()
			if !obs.Double {
				data = narrow(b.Values())
			}
			w := file.Writer(string(cat), []int{t, 0, 0, 0}, []int{t + 1, obs.Fronts, obs.Points, domain.NumFields})
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("write %s step %d: %w", cat, t, err)
			}
		}
	}
	return nil
}

func narrow(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
