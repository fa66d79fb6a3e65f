// Package datasets holds one-dimensional operator-learning datasets: an
// input field sampled on a grid, the solution field on the same grid, and
// the grid itself.
package datasets

import "crypto/sha256"
import "encoding/binary"
import "math"

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"
import "github.com/neurlang/pino1d/parallel"

// ErrShape reports inconsistent field dimensions.
var ErrShape = errors.New("inconsistent dataset shape")

// Raw is a dataset as stored or generated: Input and Output are
// [samples][points][channels], X holds the grid points.
type Raw struct {
	Input  [][][]float64
	Output [][][]float64
	X      []float64
}

// Options select the part of a Raw dataset used for training.
//
// Every Sub-th grid point is kept. InDim counts the appended grid channel,
// so InDim-1 input channels are taken. OutDim output channels are taken.
type Options struct {
	Sub    int
	InDim  int
	OutDim int
}

// Dataset is the model-ready form with the grid appended as the last
// input channel. Input is [Samples, N, InDim], Output [Samples, N, OutDim].
type Dataset struct {
	Samples, N    int
	InDim, OutDim int
	Input, Output []float64
	X             []float64
}

// Build subsamples and truncates r.
func (r *Raw) Build(o Options) (*Dataset, error) {
	if o.Sub <= 0 {
		o.Sub = 1
	}
	if o.InDim < 2 || o.OutDim < 1 {
		return nil, errors.Wrapf(ErrShape, "in_dim %d, out_dim %d", o.InDim, o.OutDim)
	}
	if len(r.Input) == 0 || len(r.Input) != len(r.Output) {
		return nil, errors.Wrapf(ErrShape, "%d inputs, %d outputs", len(r.Input), len(r.Output))
	}
	nx := len(r.X)
	n := (nx + o.Sub - 1) / o.Sub
	d := &Dataset{
		Samples: len(r.Input),
		N:       n,
		InDim:   o.InDim,
		OutDim:  o.OutDim,
		Input:   make([]float64, len(r.Input)*n*o.InDim),
		Output:  make([]float64, len(r.Input)*n*o.OutDim),
		X:       make([]float64, n),
	}
	for j := range d.X {
		d.X[j] = r.X[j*o.Sub]
	}
	for s := range r.Input {
		if len(r.Input[s]) != nx || len(r.Output[s]) != nx {
			return nil, errors.Wrapf(ErrShape, "sample %d has %d input and %d output points, grid has %d",
				s, len(r.Input[s]), len(r.Output[s]), nx)
		}
		for j := 0; j < n; j++ {
			in := r.Input[s][j*o.Sub]
			out := r.Output[s][j*o.Sub]
			if len(in) < o.InDim-1 || len(out) < o.OutDim {
				return nil, errors.Wrapf(ErrShape, "sample %d has %d input and %d output channels",
					s, len(in), len(out))
			}
			row := d.Input[(s*n+j)*o.InDim : (s*n+j+1)*o.InDim]
			copy(row, in[:o.InDim-1])
			row[o.InDim-1] = d.X[j]
			copy(d.Output[(s*n+j)*o.OutDim:(s*n+j+1)*o.OutDim], out[:o.OutDim])
		}
	}
	return d, nil
}

// Slice returns samples [start, start+count) sharing storage with d.
func (d *Dataset) Slice(start, count int) (*Dataset, error) {
	if start < 0 || count <= 0 || start+count > d.Samples {
		return nil, errors.Wrapf(ErrShape, "samples [%d, %d) out of %d", start, start+count, d.Samples)
	}
	in, out := d.N*d.InDim, d.N*d.OutDim
	s := *d
	s.Samples = count
	s.Input = d.Input[start*in : (start+count)*in]
	s.Output = d.Output[start*out : (start+count)*out]
	return &s, nil
}

// Gather copies the listed samples into a batch.
func (d *Dataset) Gather(idx []int) (x, y layer.Tensor) {
	x = layer.NewTensor(len(idx), d.N, d.InDim)
	y = layer.NewTensor(len(idx), d.N, d.OutDim)
	in, out := d.N*d.InDim, d.N*d.OutDim
	for b, s := range idx {
		copy(x.Data[b*in:(b+1)*in], d.Input[s*in:(s+1)*in])
		copy(y.Data[b*out:(b+1)*out], d.Output[s*out:(s+1)*out])
	}
	return
}

// Fingerprint digests all samples, hashing them in parallel.
func (d *Dataset) Fingerprint(threads int) [32]byte {
	h := parallel.NewHashHasher(d.Samples)
	in, out := d.N*d.InDim, d.N*d.OutDim
	parallel.ForEach(d.Samples, threads, func(s int) {
		buf := make([]byte, 0, 8*(in+out))
		for _, v := range d.Input[s*in : (s+1)*in] {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
		for _, v := range d.Output[s*out : (s+1)*out] {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
		h.MustPutHash(s, sha256.Sum256(buf))
	})
	return h.Sum()
}
