// Package act implements elementwise activation layers.
package act

import "math"

import "github.com/ajroetker/go-highway/hwy/contrib/activation"
import "github.com/ajroetker/go-highway/hwy/contrib/workerpool"
import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"

// ErrUnknown is returned by Parse for an unsupported activation name.
var ErrUnknown = errors.New("unknown activation")

// Kind selects the nonlinearity.
type Kind int

const (
	Tanh Kind = iota
	GELU
	ReLU
	ELU
	LeakyReLU
)

const leakySlope = 0.01

var names = map[string]Kind{
	"tanh":       Tanh,
	"gelu":       GELU,
	"relu":       ReLU,
	"elu":        ELU,
	"leaky_relu": LeakyReLU,
}

// Parse maps a configuration name to a Kind.
func Parse(name string) (Kind, error) {
	k, ok := names[name]
	if !ok {
		return 0, errors.Wrapf(ErrUnknown, "%q", name)
	}
	return k, nil
}

func (k Kind) String() string {
	for name, v := range names {
		if v == k {
			return name
		}
	}
	return "unknown"
}

// Activation applies a Kind elementwise. Pool may be nil.
type Activation struct {
	Kind Kind
	Pool *workerpool.Pool
	x, y layer.Tensor
}

// New returns an activation layer running on pool.
func New(kind Kind, pool *workerpool.Pool) *Activation {
	return &Activation{Kind: kind, Pool: pool}
}

func (a *Activation) Forward(x layer.Tensor) layer.Tensor {
	y := x.Like()
	rows, cols := x.Rows(), x.C
	switch a.Kind {
	case Tanh:
		activation.ParallelTanh(a.Pool, x.Data, y.Data, rows, cols)
	case GELU:
		activation.ParallelGELU(a.Pool, x.Data, y.Data, rows, cols)
	case ReLU:
		activation.ParallelReLU(a.Pool, x.Data, y.Data, rows, cols)
	case ELU:
		activation.ParallelELU(a.Pool, x.Data, y.Data, rows, cols, 1.0)
	case LeakyReLU:
		activation.ParallelLeakyReLU(a.Pool, x.Data, y.Data, rows, cols, leakySlope)
	}
	a.x, a.y = x, y
	return y
}

func (a *Activation) Backward(dy layer.Tensor) layer.Tensor {
	dx := dy.Like()
	apply := func(start, end int) {
		for i := start; i < end; i++ {
			dx.Data[i] = dy.Data[i] * a.derivative(a.x.Data[i], a.y.Data[i])
		}
	}
	if a.Pool == nil || len(dx.Data) < activation.MinParallelActivationOps {
		apply(0, len(dx.Data))
	} else {
		a.Pool.ParallelFor(len(dx.Data), apply)
	}
	return dx
}

func (a *Activation) derivative(x, y float64) float64 {
	switch a.Kind {
	case Tanh:
		return 1 - y*y
	case GELU:
		return 0.5*(1+math.Erf(x/math.Sqrt2)) + x*math.Exp(-x*x/2)/math.Sqrt(2*math.Pi)
	case ReLU:
		if x > 0 {
			return 1
		}
		return 0
	case ELU:
		if x > 0 {
			return 1
		}
		return y + 1
	case LeakyReLU:
		if x > 0 {
			return 1
		}
		return leakySlope
	}
	return 1
}

func (a *Activation) Params() []*layer.Param { return nil }
