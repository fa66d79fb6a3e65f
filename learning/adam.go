package learning

import "math"

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"

// ErrState reports optimizer state that does not fit the parameters.
var ErrState = errors.New("optimizer state does not match parameters")

// Adam is the Adam optimizer with bias correction and no weight decay.
// Moments are allocated on the first Step.
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64
	T     int

	m, v [][]float64
}

// AdamState is the serializable optimizer state.
type AdamState struct {
	LR float64     `json:"lr"`
	T  int         `json:"t"`
	M  [][]float64 `json:"m"`
	V  [][]float64 `json:"v"`
}

func NewAdam(lr float64) *Adam {
	return &Adam{
		LR:    lr,
		Beta1: 0.9,
		Beta2: 0.999,
		Eps:   1e-8,
	}
}

func (opt *Adam) init(params []*layer.Param) {
	if len(opt.m) == len(params) {
		return
	}
	opt.m = make([][]float64, len(params))
	opt.v = make([][]float64, len(params))
	for i, p := range params {
		opt.m[i] = make([]float64, len(p.Value))
		opt.v[i] = make([]float64, len(p.Value))
	}
}

// Step applies one update from the accumulated gradients.
func (opt *Adam) Step(params []*layer.Param) {
	opt.init(params)
	opt.T++

	bc1 := 1.0 - math.Pow(opt.Beta1, float64(opt.T))
	bc2 := 1.0 - math.Pow(opt.Beta2, float64(opt.T))

	for i, p := range params {
		m, v := opt.m[i], opt.v[i]
		for j, g := range p.Grad {
			m[j] = opt.Beta1*m[j] + (1-opt.Beta1)*g
			v[j] = opt.Beta2*v[j] + (1-opt.Beta2)*g*g

			mHat := m[j] / bc1
			vHat := v[j] / bc2
			p.Value[j] -= opt.LR * mHat / (math.Sqrt(vHat) + opt.Eps)
		}
	}
}

// State exports the optimizer state.
func (opt *Adam) State() AdamState {
	return AdamState{LR: opt.LR, T: opt.T, M: opt.m, V: opt.v}
}

// Load restores a state exported for the same parameter list.
func (opt *Adam) Load(s AdamState, params []*layer.Param) error {
	if s.T > 0 {
		if len(s.M) != len(params) || len(s.V) != len(params) {
			return errors.Wrapf(ErrState, "%d moment tensors for %d parameters", len(s.M), len(params))
		}
		for i, p := range params {
			if len(s.M[i]) != len(p.Value) || len(s.V[i]) != len(p.Value) {
				return errors.Wrapf(ErrState, "parameter %s", p.Name)
			}
		}
	}
	opt.LR, opt.T = s.LR, s.T
	opt.m, opt.v = s.M, s.V
	if s.T == 0 {
		opt.m, opt.v = nil, nil
	}
	return nil
}
