// Package elasticbar generates tapered bars under a tip load together with
// their exact axial displacement.
//
// Each sample has a cross-section A(x) = A0 (1 - c x/L) with a random taper
// c, is fixed at x = 0 and loaded by P0 at x = L, so that
// u(x) = -P0 L / (E A0 c) ln(1 - c x/L).
package elasticbar

import "math"
import "math/rand/v2"

import "github.com/neurlang/pino1d/datasets"
import "github.com/neurlang/pino1d/parallel"

// Config describes the generated family.
type Config struct {
	Samples int
	NX      int
	E       float64
	A0      float64
	P0      float64
	L       float64

	// Taper is drawn uniformly from [MinTaper, MaxTaper).
	MinTaper, MaxTaper float64

	Seed    uint64
	Threads int
}

// Displacement is the exact solution for taper c at position x.
func Displacement(conf Config, c, x float64) float64 {
	if c == 0 {
		return conf.P0 * x / (conf.E * conf.A0)
	}
	return -conf.P0 * conf.L / (conf.E * conf.A0 * c) * math.Log(1-c*x/conf.L)
}

// Generate samples the family on a uniform grid over [0, L].
func Generate(conf Config) *datasets.Raw {
	if conf.MaxTaper <= conf.MinTaper {
		conf.MinTaper, conf.MaxTaper = 0.05, 0.5
	}
	r := &datasets.Raw{
		Input:  make([][][]float64, conf.Samples),
		Output: make([][][]float64, conf.Samples),
		X:      make([]float64, conf.NX),
	}
	for j := range r.X {
		r.X[j] = conf.L * float64(j) / float64(conf.NX-1)
	}
	parallel.ForEach(conf.Samples, conf.Threads, func(s int) {
		rng := rand.New(rand.NewPCG(conf.Seed, uint64(s)))
		c := conf.MinTaper + (conf.MaxTaper-conf.MinTaper)*rng.Float64()
		in := make([][]float64, conf.NX)
		out := make([][]float64, conf.NX)
		for j, x := range r.X {
			in[j] = []float64{conf.A0 * (1 - c*x/conf.L)}
			out[j] = []float64{Displacement(conf, c, x)}
		}
		r.Input[s], r.Output[s] = in, out
	})
	return r
}
