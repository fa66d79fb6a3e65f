package physics

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"

// EulerBernoulli is the simply supported beam EI u'''' = q in reduced order
// form: u'' + M/EI = 0 and M'' + q = 0, with u = M = 0 at both ends.
//
// Input channel 0 is the load q(x). Output channel 0 is the deflection u
// and channel 1 the bending moment M. Residuals are scaled by Q0 and L.
type EulerBernoulli struct {
	Params Params
	grid   grid
}

func (e *EulerBernoulli) Prepare(x layer.Tensor) error {
	if e.Params.EI <= 0 || e.Params.Q0 == 0 || e.Params.L <= 0 {
		return errors.Wrapf(ErrParams, "beam needs EI > 0, q0 != 0, L > 0, got EI=%v q0=%v L=%v",
			e.Params.EI, e.Params.Q0, e.Params.L)
	}
	g, err := readGrid(x)
	if err != nil {
		return err
	}
	e.grid = g
	return nil
}

func (e *EulerBernoulli) Evaluate(x, out layer.Tensor) (t Terms, err error) {
	if err = e.grid.check(x, out, 2); err != nil {
		return
	}
	n, dx := e.grid.n, e.grid.dx
	p := e.Params
	l2 := p.L * p.L
	s1 := p.EI / (p.Q0 * l2)
	s2 := 1 / p.Q0
	su := p.EI / (p.Q0 * l2 * l2)
	sm := 1 / (p.Q0 * l2)
	interior := float64(x.B * (n - 2))
	batch := float64(x.B)
	h2 := dx * dx

	t.GradF = make([]float64, len(out.Data))
	t.GradBCLeft = make([]float64, len(out.Data))
	t.GradBCRight = make([]float64, len(out.Data))

	for b := 0; b < x.B; b++ {
		idx := func(j, c int) int { return (b*n+j)*out.C + c }
		u := func(j int) float64 { return out.Data[idx(j, 0)] }
		m := func(j int) float64 { return out.Data[idx(j, 1)] }

		for j := 1; j < n-1; j++ {
			r1 := s1 * ((u(j+1)-2*u(j)+u(j-1))/h2 + m(j)/p.EI)
			r2 := s2 * ((m(j+1)-2*m(j)+m(j-1))/h2 + x.At(b, j, 0))
			t.F1 += r1 * r1 / interior
			t.F2 += r2 * r2 / interior

			c1 := 2 * r1 * s1 / interior
			t.GradF[idx(j+1, 0)] += c1 / h2
			t.GradF[idx(j, 0)] -= 2 * c1 / h2
			t.GradF[idx(j-1, 0)] += c1 / h2
			t.GradF[idx(j, 1)] += c1 / p.EI

			c2 := 2 * r2 * s2 / interior
			t.GradF[idx(j+1, 1)] += c2 / h2
			t.GradF[idx(j, 1)] -= 2 * c2 / h2
			t.GradF[idx(j-1, 1)] += c2 / h2
		}

		for _, end := range []struct {
			j     int
			value *float64
			grad  []float64
		}{{0, &t.BCLeft, t.GradBCLeft}, {n - 1, &t.BCRight, t.GradBCRight}} {
			du, dm := su*u(end.j), sm*m(end.j)
			*end.value += (du*du + dm*dm) / batch
			end.grad[idx(end.j, 0)] = 2 * du * su / batch
			end.grad[idx(end.j, 1)] = 2 * dm * sm / batch
		}
	}
	return
}
