package trainer

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"
import "github.com/neurlang/pino1d/loss"
import "github.com/neurlang/pino1d/physics"

// ErrShape reports a model output that does not match the targets.
var ErrShape = errors.New("trainer: output does not match target shape")

// Evaluation holds the loss terms of one batch and their gradients with
// respect to the model output. A nil gradient means the term is constant.
type Evaluation struct {
	Losses loss.Set
	Grads  map[loss.Name][]float64

	// F1 is the first PDE residual alone, reported as its own column.
	F1 float64
}

// Evaluator computes the loss terms of a batch.
type Evaluator interface {

	// Prepare runs once before the first epoch.
	Prepare(x layer.Tensor) error

	Evaluate(x, y, out layer.Tensor) (Evaluation, error)
}

// PhysicsEvaluator pairs the relative L2 data loss with a physics residual.
type PhysicsEvaluator struct {
	Residual physics.Residual
}

func (p PhysicsEvaluator) Prepare(x layer.Tensor) error {
	return p.Residual.Prepare(x)
}

func (p PhysicsEvaluator) Evaluate(x, y, out layer.Tensor) (Evaluation, error) {
	if len(out.Data) != len(y.Data) || out.B != y.B {
		return Evaluation{}, errors.Wrapf(ErrShape, "output [%d, %d, %d], target [%d, %d, %d]",
			out.B, out.N, out.C, y.B, y.N, y.C)
	}
	data, grad := loss.RelativeL2(out.Data, y.Data, y.B)
	terms, err := p.Residual.Evaluate(x, out)
	if err != nil {
		return Evaluation{}, err
	}
	ev := Evaluation{
		Losses: terms.Losses(data),
		Grads:  map[loss.Name][]float64{loss.Data: grad},
		F1:     terms.F1,
	}
	for _, name := range []loss.Name{loss.PDE, loss.BoundaryLeft, loss.BoundaryRight} {
		ev.Grads[name] = terms.Grad(name)
	}
	return ev, nil
}
