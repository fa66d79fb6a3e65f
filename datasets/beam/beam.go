// Package beam generates simply supported Euler-Bernoulli beams under
// random sine-series loads with their exact deflection and bending moment.
//
// For q(x) = sum a_k sin(k pi x/L) the moment is
// M(x) = sum a_k (L/(k pi))^2 sin(k pi x/L) and the deflection
// u(x) = sum a_k (L/(k pi))^4 / EI sin(k pi x/L).
package beam

import "math"
import "math/rand/v2"

import "github.com/neurlang/pino1d/datasets"
import "github.com/neurlang/pino1d/parallel"

// Config describes the generated family.
type Config struct {
	Samples int
	NX      int
	Q0      float64
	EI      float64
	L       float64

	// Terms is the number of sine harmonics in each load.
	Terms int

	Seed    uint64
	Threads int
}

// Generate samples the family on a uniform grid over [0, L]. Each output
// point holds the deflection and the bending moment.
func Generate(conf Config) *datasets.Raw {
	if conf.Terms <= 0 {
		conf.Terms = 3
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
		amp := make([]float64, conf.Terms)
		for k := range amp {
			// higher harmonics get smaller amplitudes
			amp[k] = conf.Q0 * (2*rng.Float64() - 1) / float64(k+1)
		}
		in := make([][]float64, conf.NX)
		out := make([][]float64, conf.NX)
		for j, x := range r.X {
			var q, m, u float64
			for k, a := range amp {
				w := float64(k+1) * math.Pi / conf.L
				sin := math.Sin(w * x)
				q += a * sin
				m += a / (w * w) * sin
				u += a / (w * w * w * w) / conf.EI * sin
			}
			in[j] = []float64{q}
			out[j] = []float64{u, m}
		}
		r.Input[s], r.Output[s] = in, out
	})
	return r
}
