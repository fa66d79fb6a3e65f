package physics

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"

// ElasticBar is the axially loaded bar (E A(x) u')' = 0 with u(0) = 0 and
// a tip load E A(L) u'(L) = P0.
//
// Input channel 0 is the cross-section A(x), output channel 0 the
// displacement u(x). The residual is made dimensionless by P0 and L.
type ElasticBar struct {
	Params Params
	grid   grid
}

func (e *ElasticBar) Prepare(x layer.Tensor) error {
	if e.Params.E <= 0 || e.Params.P0 == 0 || e.Params.L <= 0 {
		return errors.Wrapf(ErrParams, "elastic bar needs E > 0, P0 != 0, L > 0, got E=%v P0=%v L=%v",
			e.Params.E, e.Params.P0, e.Params.L)
	}
	g, err := readGrid(x)
	if err != nil {
		return err
	}
	e.grid = g
	return nil
}

func (e *ElasticBar) Evaluate(x, out layer.Tensor) (t Terms, err error) {
	if err = e.grid.check(x, out, 1); err != nil {
		return
	}
	n, dx := e.grid.n, e.grid.dx
	g := e.Params.E / e.Params.P0
	interior := float64(x.B * (n - 2))
	batch := float64(x.B)

	t.GradF = make([]float64, len(out.Data))
	t.GradBCLeft = make([]float64, len(out.Data))
	t.GradBCRight = make([]float64, len(out.Data))

	// k[j] scales u[j+1]-u[j] into the normalized axial force between j and j+1.
	k := make([]float64, n-1)
	flux := make([]float64, n-1)
	dflux := make([]float64, n-1)
	for b := 0; b < x.B; b++ {
		u := func(j int) float64 { return out.At(b, j, 0) }
		idx := func(j int) int { return (b*n + j) * out.C }
		for j := 0; j < n-1; j++ {
			k[j] = g * (x.At(b, j, 0) + x.At(b, j+1, 0)) / 2 / dx
			flux[j] = k[j] * (u(j+1) - u(j))
			dflux[j] = 0
		}
		for j := 1; j < n-1; j++ {
			r := e.Params.L * (flux[j] - flux[j-1]) / dx
			t.F1 += r * r / interior
			c := e.Params.L / dx * 2 * r / interior
			dflux[j] += c
			dflux[j-1] -= c
		}
		for j := 0; j < n-1; j++ {
			t.GradF[idx(j+1)] += dflux[j] * k[j]
			t.GradF[idx(j)] -= dflux[j] * k[j]
		}

		left := u(0)
		t.BCLeft += left * left / batch
		t.GradBCLeft[idx(0)] = 2 * left / batch

		right := flux[n-2] - 1
		t.BCRight += right * right / batch
		c := 2 * right / batch
		t.GradBCRight[idx(n-1)] += c * k[n-2]
		t.GradBCRight[idx(n-2)] -= c * k[n-2]
	}
	return
}
