// Command genfronts writes a synthetic front observation file in the layout
// read by frontgrid: three (time, number, point, data) variables padded with
// sentinel latitudes.
//
// Usage:
//
//	go run ./cmd/genfronts -out data/rec_front_synthetic.nc -steps 8 -fronts 40 -points 120
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"

	"github.com/couchcryptid/storm-front-grid/internal/adapter/netcdf"
	"github.com/couchcryptid/storm-front-grid/internal/domain"
	"github.com/couchcryptid/storm-front-grid/internal/grid"
)

// hoursPerStep matches the 6-hourly analyses of the observation files.
const hoursPerStep = 6

type options struct {
	steps  int
	fronts int
	points int
	seed   uint64
	start  float64 // first time value, hours since 1900-01-01
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the observation file")
	steps := flag.Int("steps", 4, "number of time steps")
	fronts := flag.Int("fronts", 20, "front slots per category and step")
	points := flag.Int("points", 60, "point slots per front")
	seed := flag.Uint64("seed", 1979, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// 1979-01-01 00:00 in hours since 1900-01-01.
	opts := options{steps: *steps, fronts: *fronts, points: *points, seed: *seed, start: 692496}
	obs, err := generate(opts)
	if err != nil {
		return err
	}
	if err := netcdf.WriteObservations(*out, obs); err != nil {
		return fmt.Errorf("writing observations: %w", err)
	}

	for _, cat := range domain.Categories {
		log.Printf("%s: %d points", cat.Label(), countPoints(obs, cat))
	}
	log.Printf("wrote %d steps to %s", opts.steps, *out)
	return nil
}

// generate builds a reproducible set of random-walk fronts.
func generate(opts options) (netcdf.Observations, error) {
	if opts.steps < 0 || opts.fronts < 1 || opts.points < 1 {
		return netcdf.Observations{}, fmt.Errorf("invalid sizes: steps=%d fronts=%d points=%d",
			opts.steps, opts.fronts, opts.points)
	}
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	obs := netcdf.Observations{
		Units:  "hours since 1900-01-01 00:00:0.0",
		Fronts: opts.fronts,
		Points: opts.points,
	}
	for t := 0; t < opts.steps; t++ {
		obs.Time = append(obs.Time, opts.start+float64(t*hoursPerStep))
		blocks := make(map[domain.Category]*domain.ObservationBlock, len(domain.Categories))
		for _, cat := range domain.Categories {
			used := rng.IntN(opts.fronts + 1)
			fronts := make([][]domain.FrontPoint, opts.fronts)
			for n := 0; n < used; n++ {
				fronts[n] = walk(rng, 1+rng.IntN(opts.points))
			}
			b, err := domain.BuildObservationBlock(cat, opts.points, fronts)
			if err != nil {
				return netcdf.Observations{}, err
			}
			blocks[cat] = b
		}
		obs.Steps = append(obs.Steps, blocks)
	}
	return obs, nil
}

// walk returns n points of a front that starts at a random mid-latitude
// position and drifts roughly one grid cell per point.
func walk(rng *rand.Rand, n int) []domain.FrontPoint {
	lat := -70 + 140*rng.Float64()
	lon := grid.FullCircle * rng.Float64()
	heading := 2 * math.Pi * rng.Float64()
	u, v := -15+30*rng.Float64(), -15+30*rng.Float64()

	pts := make([]domain.FrontPoint, n)
	for p := range pts {
		grad := 0.5 + 4*rng.Float64()
		if rng.IntN(2) == 0 {
			grad = -grad
		}
		pts[p] = domain.FrontPoint{Lat: lat, Lon: lon, Gradient: grad, U: u, V: v}

		heading += 0.3 * (rng.Float64() - 0.5)
		lat = math.Max(-89.5, math.Min(89.5, lat+grid.DefaultStep*math.Sin(heading)))
		lon = math.Mod(lon+grid.DefaultStep*math.Cos(heading)+grid.FullCircle, grid.FullCircle)
	}
	return pts
}

func countPoints(obs netcdf.Observations, cat domain.Category) int {
	var n int
	for _, blocks := range obs.Steps {
		b := blocks[cat]
		for f := 0; f < b.Fronts; f++ {
			for p := 0; p < b.Points; p++ {
				if b.Point(f, p).IsSentinel() {
					break
				}
				n++
			}
		}
	}
	return n
}
