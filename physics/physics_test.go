package physics

import "math"
import "math/rand/v2"
import "testing"

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"
import "github.com/neurlang/pino1d/loss"

var params = Params{E: 200, A0: 1, P0: 10, L: 1, Q0: 5, EI: 2}

// barSample is a linearly tapered bar with its exact displacement.
func barSample(b, n int) (x, out layer.Tensor) {
	x = layer.NewTensor(b, n, 2)
	out = layer.NewTensor(b, n, 1)
	for s := 0; s < b; s++ {
		c := 0.1 + 0.2*float64(s)
		for j := 0; j < n; j++ {
			xi := float64(j) / float64(n-1)
			area := params.A0 * (1 - c*xi)
			x.Data[(s*n+j)*2] = area
			x.Data[(s*n+j)*2+1] = xi
			out.Data[s*n+j] = -params.P0 * params.L / (params.E * params.A0 * c) * math.Log(1-c*xi)
		}
	}
	return
}

// beamSample is a simply supported beam under a sine load.
func beamSample(b, n int) (x, out layer.Tensor) {
	x = layer.NewTensor(b, n, 2)
	out = layer.NewTensor(b, n, 2)
	for s := 0; s < b; s++ {
		amp := params.Q0 * float64(s+1)
		for j := 0; j < n; j++ {
			xi := float64(j) / float64(n-1)
			w := math.Pi / params.L
			x.Data[(s*n+j)*2] = amp * math.Sin(w*xi)
			x.Data[(s*n+j)*2+1] = xi
			out.Data[(s*n+j)*2] = amp / (w * w * w * w) / params.EI * math.Sin(w*xi)
			out.Data[(s*n+j)*2+1] = amp / (w * w) * math.Sin(w*xi)
		}
	}
	return
}

func perturb(t layer.Tensor, seed uint64) layer.Tensor {
	rng := rand.New(rand.NewPCG(seed, seed))
	p := t.Like()
	for i := range p.Data {
		p.Data[i] = t.Data[i] + 0.05*(rng.Float64()*2-1)
	}
	return p
}

func TestExactSolutionsHaveSmallResiduals(t *testing.T) {
	for _, tc := range []struct {
		name   string
		sample func(b, n int) (layer.Tensor, layer.Tensor)
	}{
		{"elastic_bar", barSample},
		{"euler_bernoulli", beamSample},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Parse(tc.name, params)
			if err != nil {
				t.Fatal(err)
			}
			x, out := tc.sample(3, 65)
			if err := r.Prepare(x); err != nil {
				t.Fatal(err)
			}
			exact, err := r.Evaluate(x, out)
			if err != nil {
				t.Fatal(err)
			}
			noisy, err := r.Evaluate(x, perturb(out, 1))
			if err != nil {
				t.Fatal(err)
			}
			exactTotal := exact.F1 + exact.F2 + exact.BCLeft + exact.BCRight
			noisyTotal := noisy.F1 + noisy.F2 + noisy.BCLeft + noisy.BCRight
			if exactTotal > 1e-3 {
				t.Errorf("exact solution residual = %v", exactTotal)
			}
			if noisyTotal <= 100*exactTotal {
				t.Errorf("perturbed residual %v not clearly above exact %v", noisyTotal, exactTotal)
			}
		})
	}
}

func TestGradientsMatchFiniteDifference(t *testing.T) {
	for _, tc := range []struct {
		name   string
		sample func(b, n int) (layer.Tensor, layer.Tensor)
	}{
		{"elastic_bar", barSample},
		{"euler_bernoulli", beamSample},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := Parse(tc.name, params)
			x, exact := tc.sample(2, 9)
			out := perturb(exact, 2)
			if err := r.Prepare(x); err != nil {
				t.Fatal(err)
			}
			terms, err := r.Evaluate(x, out)
			if err != nil {
				t.Fatal(err)
			}
			for _, name := range []loss.Name{loss.PDE, loss.BoundaryLeft, loss.BoundaryRight} {
				grad := terms.Grad(name)
				value := func() float64 {
					tt, _ := r.Evaluate(x, out)
					return tt.Losses(0)[name]
				}
				for i := range out.Data {
					const h = 1e-6
					old := out.Data[i]
					out.Data[i] = old + h
					up := value()
					out.Data[i] = old - h
					down := value()
					out.Data[i] = old
					num := (up - down) / (2 * h)
					if math.Abs(num-grad[i]) > 1e-4*(1+math.Abs(num)) {
						t.Errorf("%s: grad[%d] = %v, numeric %v", name, i, grad[i], num)
					}
				}
			}
		})
	}
}

func TestZero(t *testing.T) {
	r, err := Parse("zero", params)
	if err != nil {
		t.Fatal(err)
	}
	terms, err := r.Evaluate(layer.NewTensor(1, 4, 2), layer.NewTensor(1, 4, 1))
	if err != nil {
		t.Fatal(err)
	}
	set := terms.Losses(0.5)
	if set[loss.PDE] != 0 || set[loss.BoundaryLeft] != 0 || set[loss.BoundaryRight] != 0 || set[loss.Data] != 0.5 {
		t.Errorf("Losses = %v", set)
	}
}

func TestErrors(t *testing.T) {
	if _, err := Parse("navier_stokes", params); !errors.Is(err, ErrUnknown) {
		t.Errorf("Parse error = %v, want ErrUnknown", err)
	}
	x, out := beamSample(1, 9)
	r, _ := Parse("euler_bernoulli", params)
	if _, err := r.Evaluate(x, out); !errors.Is(err, ErrNotPrepared) {
		t.Errorf("Evaluate before Prepare = %v, want ErrNotPrepared", err)
	}
	if err := r.Prepare(x); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Evaluate(x, layer.NewTensor(1, 9, 1)); !errors.Is(err, ErrShape) {
		t.Errorf("single channel output error = %v, want ErrShape", err)
	}
	bad, _ := Parse("elastic_bar", Params{})
	if err := bad.Prepare(x); !errors.Is(err, ErrParams) {
		t.Errorf("Prepare with zero constants = %v, want ErrParams", err)
	}
}
