// Package physics evaluates discretized PDE residuals and boundary
// conditions on model outputs, returning both the loss values and their
// gradients with respect to the output tensor.
package physics

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"
import "github.com/neurlang/pino1d/loss"

var (
	// ErrUnknown is returned by Parse for an unsupported residual name.
	ErrUnknown = errors.New("unknown physics loss")

	// ErrShape reports tensors the residual cannot be evaluated on.
	ErrShape = errors.New("unsupported tensor shape")

	// ErrNotPrepared is returned when Evaluate runs before Prepare.
	ErrNotPrepared = errors.New("residual used before Prepare")

	// ErrParams reports physical constants the residual cannot scale by.
	ErrParams = errors.New("invalid physical constants")
)

// Params are the physical constants of the problem, all in the units of
// the dataset.
type Params struct {
	E  float64 // Young's modulus
	A0 float64 // reference cross-section area
	P0 float64 // tip load of the bar
	L  float64 // length
	Q0 float64 // distributed load scale of the beam
	EI float64 // bending stiffness
}

// Terms holds the physics losses of one batch. Grad* slices have the
// layout of the output tensor and are nil when the term is constant.
type Terms struct {
	F1, F2          float64
	BCLeft, BCRight float64

	GradF, GradBCLeft, GradBCRight []float64
}

// Losses assembles the named loss set, f_loss being F1+F2.
func (t Terms) Losses(data float64) loss.Set {
	return loss.Set{
		loss.PDE:           t.F1 + t.F2,
		loss.BoundaryLeft:  t.BCLeft,
		loss.BoundaryRight: t.BCRight,
		loss.Data:          data,
	}
}

// Grad returns the output gradient of the named term, nil for data_loss.
func (t Terms) Grad(name loss.Name) []float64 {
	switch name {
	case loss.PDE:
		return t.GradF
	case loss.BoundaryLeft:
		return t.GradBCLeft
	case loss.BoundaryRight:
		return t.GradBCRight
	}
	return nil
}

// Residual computes the physics terms for a batch.
type Residual interface {

	// Prepare precomputes grid dependent quantities from a sample batch.
	// It runs once before training.
	Prepare(x layer.Tensor) error

	// Evaluate computes the terms for input x and model output out.
	Evaluate(x, out layer.Tensor) (Terms, error)
}

// Parse selects a residual by its configuration name.
func Parse(name string, p Params) (Residual, error) {
	switch name {
	case "zero", "":
		return Zero{}, nil
	case "elastic_bar":
		return &ElasticBar{Params: p}, nil
	case "euler_bernoulli":
		return &EulerBernoulli{Params: p}, nil
	}
	return nil, errors.Wrapf(ErrUnknown, "%q", name)
}

// Zero reports no physics loss at all.
type Zero struct{}

func (Zero) Prepare(layer.Tensor) error { return nil }

func (Zero) Evaluate(x, out layer.Tensor) (Terms, error) { return Terms{}, nil }
