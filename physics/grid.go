package physics

import "math"

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"

// grid is the uniform mesh read from the last input channel.
type grid struct {
	n  int
	dx float64
}

func readGrid(x layer.Tensor) (grid, error) {
	if x.B == 0 || x.N < 3 || x.C < 2 {
		return grid{}, errors.Wrapf(ErrShape, "input [%d, %d, %d], need at least 3 points and a grid channel", x.B, x.N, x.C)
	}
	g := grid{n: x.N, dx: x.At(0, 1, x.C-1) - x.At(0, 0, x.C-1)}
	for j := 1; j < x.N; j++ {
		step := x.At(0, j, x.C-1) - x.At(0, j-1, x.C-1)
		if step <= 0 || math.Abs(step-g.dx) > 1e-6*math.Abs(g.dx)+1e-12 {
			return grid{}, errors.Wrapf(ErrShape, "grid is not uniform at point %d", j)
		}
	}
	return g, nil
}

func (g grid) check(x, out layer.Tensor, channels int) error {
	if g.n == 0 {
		return ErrNotPrepared
	}
	if x.N != g.n || out.N != g.n || out.B != x.B {
		return errors.Wrapf(ErrShape, "prepared for %d points, got input [%d, %d] output [%d, %d]", g.n, x.B, x.N, out.B, out.N)
	}
	if out.C < channels {
		return errors.Wrapf(ErrShape, "need %d output channels, got %d", channels, out.C)
	}
	return nil
}
