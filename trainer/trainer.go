package trainer

import "fmt"
import "log"
import "math"
import "os"

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/aggregator"
import "github.com/neurlang/pino1d/datasets"
import "github.com/neurlang/pino1d/layer"
import "github.com/neurlang/pino1d/loss"

// Model is a differentiable network.
type Model interface {
	Forward(x layer.Tensor) layer.Tensor
	Backward(dy layer.Tensor) layer.Tensor
	Params() []*layer.Param
	ZeroGrad()
}

// Batches yields the mini-batches of one epoch.
type Batches interface {
	Epoch() []datasets.Batch
	Len() int
}

// Optimizer updates parameters from their accumulated gradients.
type Optimizer interface {
	Step(params []*layer.Param)
}

// Scheduler advances the learning rate once per epoch.
type Scheduler interface {
	Step()
}

// Checkpointer persists the training state. Periodic checkpoints are
// tagged with their epoch, the final one is untagged.
type Checkpointer interface {
	Checkpoint(epoch int, final bool) error
}

// ErrConfig reports an unusable Trainer.
var ErrConfig = errors.New("trainer: invalid configuration")

// Trainer drives the epoch loop. Scheduler, Checkpointer and Logger may
// be nil.
type Trainer struct {
	Model        Model
	Data         Batches
	Evaluator    Evaluator
	Aggregator   aggregator.Aggregator
	Optimizer    Optimizer
	Scheduler    Scheduler
	Checkpointer Checkpointer

	Epochs          int
	StartEpoch      int
	CheckpointEvery int

	// HistoryPath receives the metrics table after the last epoch.
	HistoryPath string

	Logger          *log.Logger
	DisableProgress bool
}

func (t *Trainer) validate() error {
	switch {
	case t.Model == nil || t.Data == nil || t.Evaluator == nil || t.Aggregator == nil || t.Optimizer == nil:
		return errors.Wrap(ErrConfig, "model, data, evaluator, aggregator and optimizer are required")
	case t.Epochs <= 0:
		return errors.Wrapf(ErrConfig, "epochs = %d", t.Epochs)
	case t.StartEpoch < 0 || t.StartEpoch >= t.Epochs:
		return errors.Wrapf(ErrConfig, "start epoch %d of %d", t.StartEpoch, t.Epochs)
	case t.Data.Len() == 0:
		return errors.Wrap(ErrConfig, "no training batches")
	}
	if t.CheckpointEvery <= 0 {
		t.CheckpointEvery = 100
	}
	return nil
}

// Run trains from StartEpoch up to Epochs and returns the metrics history.
// Any error aborts the run.
func (t *Trainer) Run() (*History, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	history, err := t.earlierHistory()
	if err != nil {
		return nil, err
	}
	batches := t.Data.Epoch()
	if len(batches) == 0 {
		return nil, errors.Wrap(ErrConfig, "no training batches")
	}
	if err := t.Evaluator.Prepare(batches[0].X); err != nil {
		return nil, errors.Wrap(err, "prepare physics loss")
	}

	step := 0
	for e := t.StartEpoch; e < t.Epochs; e++ {
		if e != t.StartEpoch {
			batches = t.Data.Epoch()
		}
		var sum Row
		for _, b := range batches {
			row, err := t.step(b, step)
			if err != nil {
				return history, errors.Wrapf(err, "epoch %d", e)
			}
			for i := range sum {
				sum[i] += row[i]
			}
			step++
		}
		for i := range sum {
			sum[i] /= float64(len(batches))
		}
		if t.Scheduler != nil {
			t.Scheduler.Step()
		}
		history.Rows = append(history.Rows, sum)
		t.progress(e, sum)

		if t.Checkpointer != nil && e%t.CheckpointEvery == 0 {
			if err := t.Checkpointer.Checkpoint(e, false); err != nil {
				return history, errors.Wrapf(err, "checkpoint epoch %d", e)
			}
		}
	}

	if t.HistoryPath != "" {
		if err := history.Save(t.HistoryPath); err != nil {
			return history, errors.Wrap(err, "save loss history")
		}
	}
	if t.Checkpointer != nil {
		if err := t.Checkpointer.Checkpoint(t.Epochs-1, true); err != nil {
			return history, errors.Wrap(err, "final checkpoint")
		}
	}
	return history, nil
}

// earlierHistory returns the rows of the epochs before StartEpoch, read
// back from HistoryPath so a resumed run saves the whole table.
func (t *Trainer) earlierHistory() (*History, error) {
	if t.StartEpoch == 0 {
		return &History{}, nil
	}
	history := &History{}
	if t.HistoryPath != "" {
		h, err := LoadHistory(t.HistoryPath)
		switch {
		case err == nil:
			history = h
		case errors.Is(err, os.ErrNotExist):
			println("warning: no loss history at", t.HistoryPath)
		default:
			return nil, errors.Wrap(err, "load loss history")
		}
	}
	history.Resize(t.StartEpoch)
	return history, nil
}

// step runs one optimization step and returns the batch metrics.
func (t *Trainer) step(b datasets.Batch, step int) (row Row, err error) {
	t.Model.ZeroGrad()
	out := t.Model.Forward(b.X)
	ev, err := t.Evaluator.Evaluate(b.X, b.Y, out)
	if err != nil {
		return row, err
	}
	combined, weights, err := t.Aggregator.Combine(ev.Losses, step)
	if err != nil {
		return row, err
	}
	if math.IsNaN(combined) || math.IsInf(combined, 0) {
		return row, &aggregator.NonFiniteError{Term: dominant(ev.Losses, weights), Value: combined, Step: step}
	}

	dout := out.Like()
	for _, name := range loss.Names {
		g := ev.Grads[name]
		w := weights[name]
		if g == nil || w == 0 {
			continue
		}
		for i, v := range g {
			dout.Data[i] += w * v
		}
	}
	t.Model.Backward(dout)
	t.Optimizer.Step(t.Model.Params())

	row[ColumnCombined] = combined
	row[ColumnPDE] = ev.Losses[loss.PDE]
	row[ColumnBoundaryLeft] = ev.Losses[loss.BoundaryLeft]
	row[ColumnBoundaryRight] = ev.Losses[loss.BoundaryRight]
	row[ColumnData] = ev.Losses[loss.Data]
	row[ColumnPDE1] = ev.F1
	return row, nil
}

// dominant names the term with the largest weighted contribution, the
// first non-finite one if any.
func dominant(l loss.Set, w loss.Weights) loss.Name {
	if name, ok := l.NonFinite(loss.Names); ok {
		return name
	}
	best := loss.Names[0]
	for _, n := range loss.Names {
		c := math.Abs(w[n] * l[n])
		if math.IsNaN(c) || math.IsInf(c, 0) || c > math.Abs(w[best]*l[best]) {
			best = n
		}
	}
	return best
}

func (t *Trainer) progress(e int, r Row) {
	line := fmt.Sprintf("Epoch %d, train loss: %.5E; train f error: %.5E; train f1 error: %.5E; "+
		"train bc left error: %.5E; train bc right error: %.5E; data l2 error: %.5E",
		e, r[ColumnCombined], r[ColumnPDE], r[ColumnPDE1], r[ColumnBoundaryLeft], r[ColumnBoundaryRight], r[ColumnData])
	if !t.DisableProgress {
		fmt.Println(line)
	}
	if t.Logger != nil {
		t.Logger.Println(line)
	}
}
