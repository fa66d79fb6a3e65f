// Package dense implements a pointwise affine layer applied to the channel
// vector of every grid point.
package dense

import "math"
import "math/rand/v2"

import "github.com/ajroetker/go-highway/hwy/contrib/matmul"
import "github.com/ajroetker/go-highway/hwy/contrib/workerpool"

import "github.com/neurlang/pino1d/layer"

// Dense maps [B, N, In] to [B, N, Out] with y = x W + b.
type Dense struct {
	In, Out int
	W       *layer.Param
	Bias    *layer.Param

	// Pool runs the matrix products; nil runs them on the caller.
	Pool *workerpool.Pool

	x layer.Tensor
}

// New allocates a dense layer initialized uniformly in ±1/sqrt(in).
func New(name string, in, out int, rng *rand.Rand, pool *workerpool.Pool) *Dense {
	d := &Dense{
		In:   in,
		Out:  out,
		W:    layer.NewParam(name+".weight", in, out),
		Bias: layer.NewParam(name+".bias", out),
		Pool: pool,
	}
	bound := 1 / math.Sqrt(float64(in))
	for i := range d.W.Value {
		d.W.Value[i] = (2*rng.Float64() - 1) * bound
	}
	for i := range d.Bias.Value {
		d.Bias.Value[i] = (2*rng.Float64() - 1) * bound
	}
	return d
}

func (d *Dense) Forward(x layer.Tensor) layer.Tensor {
	d.x = x
	rows := x.Rows()
	out := layer.NewTensor(x.B, x.N, d.Out)
	matmul.MatMulAutoWithPool(d.Pool, x.Data, d.W.Value, out.Data, rows, d.Out, d.In)
	for r := 0; r < rows; r++ {
		row := out.Data[r*d.Out : (r+1)*d.Out]
		for j := range row {
			row[j] += d.Bias.Value[j]
		}
	}
	return out
}

func (d *Dense) Backward(dy layer.Tensor) layer.Tensor {
	rows := dy.Rows()

	// dW = x^T dy
	xt := make([]float64, len(d.x.Data))
	matmul.BaseTranspose2D(d.x.Data, rows, d.In, xt)
	dw := make([]float64, d.In*d.Out)
	matmul.MatMulAutoWithPool(d.Pool, xt, dy.Data, dw, d.In, d.Out, rows)
	for i, v := range dw {
		d.W.Grad[i] += v
	}
	for r := 0; r < rows; r++ {
		for j := 0; j < d.Out; j++ {
			d.Bias.Grad[j] += dy.Data[r*d.Out+j]
		}
	}

	// dx = dy W^T
	wt := make([]float64, len(d.W.Value))
	matmul.BaseTranspose2D(d.W.Value, d.In, d.Out, wt)
	dx := layer.NewTensor(dy.B, dy.N, d.In)
	matmul.MatMulAutoWithPool(d.Pool, dy.Data, wt, dx.Data, rows, d.In, d.Out)
	return dx
}

func (d *Dense) Params() []*layer.Param {
	return []*layer.Param{d.W, d.Bias}
}
