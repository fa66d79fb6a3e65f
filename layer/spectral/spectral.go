// Package spectral implements the Fourier layer of a neural operator: a
// truncated real Fourier transform along the grid, a learned complex
// channel mixing per retained mode, and the inverse transform.
package spectral

import "math"
import "math/rand/v2"

import "github.com/neurlang/pino1d/layer"

// Conv1d is a spectral convolution over the grid axis.
type Conv1d struct {
	In, Out, Modes int
	Real, Imag     *layer.Param

	n        int
	cos, sin []float64
	x        layer.Tensor
	a, b     []float64
}

// New allocates a spectral convolution keeping the lowest modes frequencies.
// Weights are uniform in [0, 1/(in*out)).
func New(name string, in, out, modes int, rng *rand.Rand) *Conv1d {
	c := &Conv1d{
		In:    in,
		Out:   out,
		Modes: modes,
		Real:  layer.NewParam(name+".weights_real", in, out, modes),
		Imag:  layer.NewParam(name+".weights_imag", in, out, modes),
	}
	scale := 1 / float64(in*out)
	for i := range c.Real.Value {
		c.Real.Value[i] = scale * rng.Float64()
		c.Imag.Value[i] = scale * rng.Float64()
	}
	return c
}

// modes is the number of retained frequencies for a grid of n points.
// The Nyquist bin is never kept.
func (c *Conv1d) modes(n int) int {
	m := (n-1)/2 + 1
	if c.Modes < m {
		return c.Modes
	}
	return m
}

func (c *Conv1d) tables(n int) {
	if c.n == n {
		return
	}
	m := c.modes(n)
	c.n = n
	c.cos = make([]float64, m*n)
	c.sin = make([]float64, m*n)
	for k := 0; k < m; k++ {
		for j := 0; j < n; j++ {
			theta := 2 * math.Pi * float64((k*j)%n) / float64(n)
			c.cos[k*n+j] = math.Cos(theta)
			c.sin[k*n+j] = math.Sin(theta)
		}
	}
}

func (c *Conv1d) weight(i, o, k int) (float64, float64) {
	idx := (i*c.Out+o)*c.Modes + k
	return c.Real.Value[idx], c.Imag.Value[idx]
}

func coefficient(k, n int) float64 {
	if k == 0 {
		return 1 / float64(n)
	}
	return 2 / float64(n)
}

func (c *Conv1d) Forward(x layer.Tensor) layer.Tensor {
	n := x.N
	c.tables(n)
	m := c.modes(n)
	c.x = x
	// a, b hold the real and imaginary input spectrum, [B, M, In].
	c.a = make([]float64, x.B*m*c.In)
	c.b = make([]float64, x.B*m*c.In)
	y := layer.NewTensor(x.B, n, c.Out)
	yr := make([]float64, c.Out)
	yi := make([]float64, c.Out)
	for bt := 0; bt < x.B; bt++ {
		for k := 0; k < m; k++ {
			spec := (bt*m + k) * c.In
			for j := 0; j < n; j++ {
				row := x.Data[(bt*n+j)*c.In : (bt*n+j+1)*c.In]
				cs, sn := c.cos[k*n+j], c.sin[k*n+j]
				for i, v := range row {
					c.a[spec+i] += v * cs
					c.b[spec+i] -= v * sn
				}
			}
			for o := range yr {
				yr[o], yi[o] = 0, 0
			}
			for i := 0; i < c.In; i++ {
				a, b := c.a[spec+i], c.b[spec+i]
				for o := 0; o < c.Out; o++ {
					wr, wi := c.weight(i, o, k)
					yr[o] += a*wr - b*wi
					yi[o] += a*wi + b*wr
				}
			}
			ck := coefficient(k, n)
			for j := 0; j < n; j++ {
				cs, sn := c.cos[k*n+j], c.sin[k*n+j]
				out := y.Data[(bt*n+j)*c.Out : (bt*n+j+1)*c.Out]
				for o := range out {
					out[o] += ck * (yr[o]*cs - yi[o]*sn)
				}
			}
		}
	}
	return y
}

func (c *Conv1d) Backward(dy layer.Tensor) layer.Tensor {
	n := dy.N
	m := c.modes(n)
	dx := layer.NewTensor(dy.B, n, c.In)
	dyr := make([]float64, c.Out)
	dyi := make([]float64, c.Out)
	da := make([]float64, c.In)
	db := make([]float64, c.In)
	for bt := 0; bt < dy.B; bt++ {
		for k := 0; k < m; k++ {
			ck := coefficient(k, n)
			for o := range dyr {
				dyr[o], dyi[o] = 0, 0
			}
			for j := 0; j < n; j++ {
				cs, sn := c.cos[k*n+j], c.sin[k*n+j]
				row := dy.Data[(bt*n+j)*c.Out : (bt*n+j+1)*c.Out]
				for o, g := range row {
					dyr[o] += ck * g * cs
					dyi[o] -= ck * g * sn
				}
			}
			spec := (bt*m + k) * c.In
			for i := 0; i < c.In; i++ {
				a, b := c.a[spec+i], c.b[spec+i]
				da[i], db[i] = 0, 0
				for o := 0; o < c.Out; o++ {
					idx := (i*c.Out+o)*c.Modes + k
					wr, wi := c.Real.Value[idx], c.Imag.Value[idx]
					c.Real.Grad[idx] += a*dyr[o] + b*dyi[o]
					c.Imag.Grad[idx] += a*dyi[o] - b*dyr[o]
					da[i] += wr*dyr[o] + wi*dyi[o]
					db[i] += wr*dyi[o] - wi*dyr[o]
				}
			}
			for j := 0; j < n; j++ {
				cs, sn := c.cos[k*n+j], c.sin[k*n+j]
				out := dx.Data[(bt*n+j)*c.In : (bt*n+j+1)*c.In]
				for i := range out {
					out[i] += da[i]*cs - db[i]*sn
				}
			}
		}
	}
	return dx
}

func (c *Conv1d) Params() []*layer.Param {
	return []*layer.Param{c.Real, c.Imag}
}
