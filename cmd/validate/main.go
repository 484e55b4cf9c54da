// Command validate checks a raster file against the observation file it was
// built from:
//
//   - file structure: axes, time values and variables
//   - storage fidelity: every stored map is bit-identical to a fresh
//     rasterization of the input with the same rasterizer
//   - merge priority: warm > cold > stationary in the merged maps
//   - binning: every front id cell agrees with an independent walk of the
//     raw points through grid.Locate, without the rasterizer
//
// Usage:
//
//	go run ./cmd/validate -in rec_front_1979_01.v26.nc -out out.nc
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/couchcryptid/storm-front-grid/internal/adapter/netcdf"
	"github.com/couchcryptid/storm-front-grid/internal/domain"
	"github.com/couchcryptid/storm-front-grid/internal/grid"
	"github.com/couchcryptid/storm-front-grid/internal/pipeline"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// maxReported caps the detailed errors printed per phase.
const maxReported = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	in := flag.String("in", "", "observation file the raster was built from")
	out := flag.String("out", "", "raster file to validate")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*in, *out); code != 0 {
		os.Exit(code)
	}
}

func run(inPath, outPath string) int {
	fmt.Println("=== Front Grid Validation ===")
	fmt.Println()

	src, err := netcdf.OpenSource(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open input: %v\n", err)
		return 1
	}
	defer src.Close()

	out, err := netcdf.OpenOutput(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open output: %v\n", err)
		return 1
	}
	defer out.Close()

	structure := validateStructure(src, out)
	reproduce := &phase{name: "Phase 2: Storage fidelity (bit-identical)"}
	priority := &phase{name: "Phase 3: Merge priority (warm > cold > stat)"}
	binning := &phase{name: "Phase 4: Binning (grid.Locate on raw points)"}
	if structure.passed() {
		validateSteps(src, out, reproduce, priority)
		validateBinning(src, out, binning)
	} else {
		for _, p := range []*phase{reproduce, priority, binning} {
			p.errorf("skipped: structure check failed")
		}
	}
	phases := []*phase{structure, reproduce, priority, binning}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-46s %s\n", p.name, status)
	}

	rows, cols := out.Grid.Shape()
	fmt.Println()
	fmt.Printf("Steps: %d input, %d output; grid %dx%d\n", src.Dimensions().Times, out.Times, rows, cols)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Printf("  ... and %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: structure ──

func validateStructure(src *netcdf.Source, out *netcdf.Output) *phase {
	p := &phase{name: "Phase 1: Structure"}

	want := grid.Default()
	if !floats.Same(want.Lat, out.Grid.Lat) {
		p.errorf("latitude axis: %d values [%v, %v], want %d values [%v, %v]",
			out.Grid.Lat.Len(), first(out.Grid.Lat), last(out.Grid.Lat),
			want.Lat.Len(), want.Lat.First(), want.Lat.Last())
	}
	if !floats.Same(want.Lon, out.Grid.Lon) {
		p.errorf("longitude axis: %d values [%v, %v], want %d values [%v, %v]",
			out.Grid.Lon.Len(), first(out.Grid.Lon), last(out.Grid.Lon),
			want.Lon.Len(), want.Lon.First(), want.Lon.Last())
	}

	dims := src.Dimensions()
	if out.Times != dims.Times {
		p.errorf("time steps: output has %d, input has %d", out.Times, dims.Times)
	}

	timeAxis, err := src.TimeAxis()
	if err != nil {
		p.errorf("read input time: %v", err)
		return p
	}
	if !floats.Same(timeAxis.Values, out.Time.Values) {
		p.errorf("time values differ from input")
	}
	if timeAxis.Units != out.Time.Units {
		p.errorf("time units %q, input has %q", out.Time.Units, timeAxis.Units)
	}
	if in, o := fmt.Sprintf("%T", timeAxis.Raw), fmt.Sprintf("%T", out.Time.Raw); in != o {
		p.errorf("time element type %s, input has %s", o, in)
	}

	vars := out.Variables()
	for _, name := range []string{
		"time", "latitude", "longitude",
		string(domain.ColdFront), string(domain.WarmFront), string(domain.StationaryFront),
		"thetaw_gradient", "u_speed", "v_speed",
	} {
		if !slices.Contains(vars, name) {
			p.errorf("variable %s missing", name)
		}
	}
	if s := out.Attribute("", "source"); s != src.Name() {
		p.errorf("source attribute %q, want %q", s, src.Name())
	}
	return p
}

// ── Phases 2 and 3: per-step content ──

// validateSteps re-rasterizes every input step and compares it with the
// stored maps, one step at a time.
func validateSteps(src *netcdf.Source, out *netcdf.Output, reproduce, priority *phase) {
	r, err := domain.NewRasterizer(out.Grid)
	if err != nil {
		reproduce.errorf("grid: %v", err)
		return
	}
	builder := pipeline.NewStepBuilder(src, r)
	ctx := context.Background()

	for t := 0; t < out.Times; t++ {
		want, err := builder.Build(ctx, t, out.Time.Values[t])
		if err != nil {
			reproduce.errorf("step %d: %v", t, err)
			continue
		}
		got, err := out.ReadStep(t)
		if err != nil {
			reproduce.errorf("step %d: %v", t, err)
			continue
		}
		compareStep(reproduce, t, want, got)
		checkPriority(priority, t, want, got)
	}
}

func compareStep(p *phase, t int, want *domain.StepResult, got *netcdf.StoredStep) {
	for _, cat := range domain.Categories {
		w, g := want.Maps[cat].Fronts.Elements, got.Fronts[cat].Elements
		if n := countIDDiff(w, g); n > 0 {
			p.errorf("step %d: %s differs in %d cells", t, cat, n)
		}
	}
	for _, f := range []struct {
		name      string
		want, got *sparse.DenseArray
	}{
		{"thetaw_gradient", want.Merged.Gradient, got.Merged.Gradient},
		{"u_speed", want.Merged.U, got.Merged.U},
		{"v_speed", want.Merged.V, got.Merged.V},
	} {
		if !floats.Same(f.want.Elements, f.got.Elements) {
			p.errorf("step %d: %s differs in %d cells", t, f.name, countDiff(f.want.Elements, f.got.Elements))
		}
	}
}

// checkPriority verifies that each stored merged cell holds the value of the
// highest-priority category that wrote a non-zero value there.
func checkPriority(p *phase, t int, want *domain.StepResult, got *netcdf.StoredStep) {
	stored := got.Merged.Gradient.Elements
	var bad int
	for i, v := range stored {
		var expect float64
		for _, cat := range domain.MergePriority {
			if g := want.Maps[cat].Gradient.Elements[i]; g != 0 {
				expect = g
				break
			}
		}
		if v != expect && !(math.IsNaN(v) && math.IsNaN(expect)) {
			bad++
		}
	}
	if bad > 0 {
		p.errorf("step %d: %d merged gradient cells break warm > cold > stat priority", t, bad)
	}
}

// ── Phase 4: binning ──

// validateBinning recomputes each stored front id map from the raw points:
// points in front order, each front stopping at its first sentinel, the last
// point to reach a cell wins.
func validateBinning(src *netcdf.Source, out *netcdf.Output, p *phase) {
	ctx := context.Background()
	for t := 0; t < out.Times; t++ {
		got, err := out.ReadStep(t)
		if err != nil {
			p.errorf("step %d: %v", t, err)
			continue
		}
		for _, cat := range domain.Categories {
			block, err := src.ReadBlock(ctx, cat, t)
			if err != nil {
				p.errorf("step %d: %v", t, err)
				continue
			}
			if n := binningDiff(out.Grid, block, got.Fronts[cat]); n > 0 {
				p.errorf("step %d: %s has %d cells that disagree with grid.Locate", t, cat, n)
			}
		}
	}
}

func binningDiff(g grid.Grid, block *domain.ObservationBlock, stored *domain.FrontMap) int {
	_, cols := g.Shape()
	want := make(map[int]int32)
	for n := 0; n < block.Fronts; n++ {
		for k := 0; k < block.Points; k++ {
			pt := block.Point(n, k)
			if pt.IsSentinel() {
				break
			}
			i, j := g.Locate(pt.Lat, pt.Lon)
			want[i*cols+j] = int32(n)
		}
	}

	var bad int
	for idx, id := range stored.Elements {
		w, ok := want[idx]
		if (ok && id != w) || (!ok && id != 0) {
			bad++
		}
	}
	return bad
}

func countIDDiff(a, b []int32) int {
	if len(a) != len(b) {
		return max(len(a), len(b))
	}
	var n int
	for i := range a {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}

// countDiff counts cells whose values differ, treating NaN as equal to NaN.
func countDiff(a, b []float64) int {
	if len(a) != len(b) {
		return max(len(a), len(b))
	}
	var n int
	for i := range a {
		if a[i] != b[i] && !(math.IsNaN(a[i]) && math.IsNaN(b[i])) {
			n++
		}
	}
	return n
}

func first(a grid.Axis) float64 {
	if len(a) == 0 {
		return 0
	}
	return a.First()
}

func last(a grid.Axis) float64 {
	if len(a) == 0 {
		return 0
	}
	return a.Last()
}
