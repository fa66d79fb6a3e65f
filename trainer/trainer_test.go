package trainer

import "bytes"
import "math"
import "path/filepath"
import "testing"

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/aggregator"
import "github.com/neurlang/pino1d/datasets"
import "github.com/neurlang/pino1d/layer"
import "github.com/neurlang/pino1d/loss"

type fakeModel struct {
	p *layer.Param
}

func newFakeModel() *fakeModel {
	return &fakeModel{p: layer.NewParam("w", 1)}
}

func (m *fakeModel) Forward(x layer.Tensor) layer.Tensor {
	out := x.Like()
	for i, v := range x.Data {
		out.Data[i] = v * m.p.Value[0]
	}
	return out
}

func (m *fakeModel) Backward(dy layer.Tensor) layer.Tensor {
	for _, v := range dy.Data {
		m.p.Grad[0] += v
	}
	return dy
}

func (m *fakeModel) Params() []*layer.Param { return []*layer.Param{m.p} }
func (m *fakeModel) ZeroGrad()              { m.p.ZeroGrad() }

type fakeData struct {
	batches int
}

func (d fakeData) Epoch() []datasets.Batch {
	o := make([]datasets.Batch, d.batches)
	for i := range o {
		o[i] = datasets.Batch{X: layer.NewTensor(1, 2, 1), Y: layer.NewTensor(1, 2, 1)}
	}
	return o
}

func (d fakeData) Len() int { return d.batches }

// scripted returns data_loss values in order, zero for the other terms.
type scripted struct {
	values   []float64
	calls    int
	prepared int
}

func (s *scripted) Prepare(layer.Tensor) error {
	s.prepared++
	return nil
}

func (s *scripted) Evaluate(x, y, out layer.Tensor) (Evaluation, error) {
	v := s.values[s.calls%len(s.values)]
	s.calls++
	return Evaluation{
		Losses: loss.Set{loss.PDE: 0, loss.BoundaryLeft: 0, loss.BoundaryRight: 0, loss.Data: v},
		Grads:  map[loss.Name][]float64{loss.Data: make([]float64, len(out.Data))},
	}, nil
}

type nopOptimizer struct{ steps int }

func (o *nopOptimizer) Step([]*layer.Param) { o.steps++ }

type countScheduler struct{ steps int }

func (s *countScheduler) Step() { s.steps++ }

type checkpointCall struct {
	epoch int
	final bool
}

type recorder struct{ calls []checkpointCall }

func (r *recorder) Checkpoint(epoch int, final bool) error {
	r.calls = append(r.calls, checkpointCall{epoch, final})
	return nil
}

func dataOnlySum(t *testing.T) aggregator.Aggregator {
	agg, err := aggregator.New(aggregator.SchemeSum, aggregator.Options{
		Weights: loss.Weights{loss.PDE: 0, loss.BoundaryLeft: 0, loss.BoundaryRight: 0, loss.Data: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	return agg
}

func TestCombinedColumn(t *testing.T) {
	ev := &scripted{values: []float64{1.0, 0.8, 0.6}}
	sched := &countScheduler{}
	opt := &nopOptimizer{}
	tr := &Trainer{
		Model:           newFakeModel(),
		Data:            fakeData{batches: 1},
		Evaluator:       ev,
		Aggregator:      dataOnlySum(t),
		Optimizer:       opt,
		Scheduler:       sched,
		Epochs:          3,
		DisableProgress: true,
	}
	h, err := tr.Run()
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1.0, 0.8, 0.6}
	got := h.Column(ColumnCombined)
	if len(got) != len(want) {
		t.Fatalf("history has %d rows", len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("combined[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if ev.prepared != 1 {
		t.Errorf("Prepare ran %d times, want 1", ev.prepared)
	}
	if sched.steps != 3 || opt.steps != 3 {
		t.Errorf("scheduler stepped %d, optimizer %d", sched.steps, opt.steps)
	}
}

func TestEpochMeans(t *testing.T) {
	tr := &Trainer{
		Model:           newFakeModel(),
		Data:            fakeData{batches: 4},
		Evaluator:       &scripted{values: []float64{1, 2, 3, 6}},
		Aggregator:      dataOnlySum(t),
		Optimizer:       &nopOptimizer{},
		Epochs:          2,
		DisableProgress: true,
	}
	h, err := tr.Run()
	if err != nil {
		t.Fatal(err)
	}
	for e, r := range h.Rows {
		if r[ColumnCombined] != 3 || r[ColumnData] != 3 {
			t.Errorf("epoch %d row = %v, want mean 3", e, r)
		}
	}
}

func TestCheckpointSchedule(t *testing.T) {
	rec := &recorder{}
	tr := &Trainer{
		Model:           newFakeModel(),
		Data:            fakeData{batches: 1},
		Evaluator:       &scripted{values: []float64{1}},
		Aggregator:      dataOnlySum(t),
		Optimizer:       &nopOptimizer{},
		Checkpointer:    rec,
		Epochs:          250,
		CheckpointEvery: 100,
		DisableProgress: true,
	}
	if _, err := tr.Run(); err != nil {
		t.Fatal(err)
	}
	want := []checkpointCall{{0, false}, {100, false}, {200, false}, {249, true}}
	if len(rec.calls) != len(want) {
		t.Fatalf("checkpoints = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("checkpoint %d = %v, want %v", i, rec.calls[i], want[i])
		}
	}
}

// stepRecorder checks that steps arrive as 0, 1, 2, ... across epochs.
type stepRecorder struct {
	aggregator.Aggregator
	steps []int
}

func (s *stepRecorder) Combine(l loss.Set, step int) (float64, loss.Weights, error) {
	s.steps = append(s.steps, step)
	return s.Aggregator.Combine(l, step)
}

func TestStepsAreConsecutive(t *testing.T) {
	soft, err := aggregator.New(aggregator.SchemeSoftAdapt, aggregator.Options{Weights: loss.Uniform(loss.Names)})
	if err != nil {
		t.Fatal(err)
	}
	rec := &stepRecorder{Aggregator: soft}
	tr := &Trainer{
		Model:           newFakeModel(),
		Data:            fakeData{batches: 3},
		Evaluator:       &scripted{values: []float64{1, 0.5}},
		Aggregator:      rec,
		Optimizer:       &nopOptimizer{},
		Epochs:          4,
		DisableProgress: true,
	}
	if _, err := tr.Run(); err != nil {
		t.Fatal(err)
	}
	for i, s := range rec.steps {
		if s != i {
			t.Fatalf("step %d passed as %d", i, s)
		}
	}
	if len(rec.steps) != 12 {
		t.Errorf("%d steps, want 12", len(rec.steps))
	}
}

func TestNonFiniteAborts(t *testing.T) {
	rec := &recorder{}
	tr := &Trainer{
		Model:           newFakeModel(),
		Data:            fakeData{batches: 1},
		Evaluator:       &scripted{values: []float64{1, math.NaN()}},
		Aggregator:      dataOnlySum(t),
		Optimizer:       &nopOptimizer{},
		Checkpointer:    rec,
		Epochs:          5,
		DisableProgress: true,
	}
	h, err := tr.Run()
	var nf *aggregator.NonFiniteError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NonFiniteError", err)
	}
	if nf.Term != loss.Data {
		t.Errorf("offending term = %s, want %s", nf.Term, loss.Data)
	}
	if len(h.Rows) != 1 {
		t.Errorf("history kept %d rows, want 1", len(h.Rows))
	}
	for _, c := range rec.calls {
		if c.final {
			t.Errorf("final checkpoint written after abort")
		}
	}
}

func TestWeightedGradient(t *testing.T) {
	// f_loss has a gradient of ones, scaled by its weight 0.5 before backward.
	ev := &gradEvaluator{}
	m := newFakeModel()
	opt := &nopOptimizer{}
	agg, _ := aggregator.New(aggregator.SchemeSum, aggregator.Options{
		Weights: loss.Weights{loss.PDE: 0.5, loss.BoundaryLeft: 0, loss.BoundaryRight: 0, loss.Data: 1},
	})
	tr := &Trainer{Model: m, Data: fakeData{batches: 1}, Evaluator: ev, Aggregator: agg,
		Optimizer: opt, Epochs: 1, DisableProgress: true}
	if _, err := tr.Run(); err != nil {
		t.Fatal(err)
	}
	// two output elements, each 0.5
	if m.p.Grad[0] != 1 {
		t.Errorf("accumulated gradient = %v, want 1", m.p.Grad[0])
	}
}

type gradEvaluator struct{}

func (gradEvaluator) Prepare(layer.Tensor) error { return nil }

func (gradEvaluator) Evaluate(x, y, out layer.Tensor) (Evaluation, error) {
	ones := make([]float64, len(out.Data))
	for i := range ones {
		ones[i] = 1
	}
	return Evaluation{
		Losses: loss.Set{loss.PDE: 1, loss.BoundaryLeft: 0, loss.BoundaryRight: 0, loss.Data: 0},
		Grads:  map[loss.Name][]float64{loss.PDE: ones},
	}, nil
}

func TestRunRejectsBadConfig(t *testing.T) {
	tr := &Trainer{Model: newFakeModel(), Data: fakeData{batches: 1}, Evaluator: &scripted{values: []float64{1}},
		Aggregator: dataOnlySum(t), Optimizer: &nopOptimizer{}}
	if _, err := tr.Run(); !errors.Is(err, ErrConfig) {
		t.Errorf("zero epochs error = %v, want ErrConfig", err)
	}
}

func TestHistoryFormat(t *testing.T) {
	h := History{Rows: []Row{{1, 0.5, 0.25, 0.125, 2, 0}}}
	var buf bytes.Buffer
	if _, err := h.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	want := "1.00000000e+00 5.00000000e-01 2.50000000e-01 1.25000000e-01 2.00000000e+00 0.00000000e+00\n"
	if buf.String() != want {
		t.Errorf("history line = %q, want %q", buf.String(), want)
	}
}

func TestResumeKeepsEarlierHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	earlier := &History{Rows: []Row{{1, 1, 1, 1, 1, 1}, {2, 2, 2, 2, 2, 2}, {3, 3, 3, 3, 3, 3}, {9, 9, 9, 9, 9, 9}}}
	if err := earlier.Save(path); err != nil {
		t.Fatal(err)
	}
	tr := &Trainer{
		Model:           newFakeModel(),
		Data:            fakeData{batches: 1},
		Evaluator:       &scripted{values: []float64{0.5}},
		Aggregator:      dataOnlySum(t),
		Optimizer:       &nopOptimizer{},
		Epochs:          5,
		StartEpoch:      3,
		HistoryPath:     path,
		DisableProgress: true,
	}
	if _, err := tr.Run(); err != nil {
		t.Fatal(err)
	}
	saved, err := LoadHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3, 0.5, 0.5}
	got := saved.Column(ColumnCombined)
	if len(got) != len(want) {
		t.Fatalf("saved history has %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("combined[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestResumeWithoutHistoryPadsEpochs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	tr := &Trainer{
		Model:           newFakeModel(),
		Data:            fakeData{batches: 1},
		Evaluator:       &scripted{values: []float64{0.5}},
		Aggregator:      dataOnlySum(t),
		Optimizer:       &nopOptimizer{},
		Epochs:          4,
		StartEpoch:      2,
		HistoryPath:     path,
		DisableProgress: true,
	}
	h, err := tr.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Rows) != 4 {
		t.Fatalf("history has %d rows, want 4", len(h.Rows))
	}
	if !math.IsNaN(h.Rows[0][ColumnCombined]) || h.Rows[2][ColumnCombined] != 0.5 {
		t.Errorf("rows = %v", h.Rows)
	}
}

func TestRunRejectsFinishedRun(t *testing.T) {
	rec := &recorder{}
	tr := &Trainer{
		Model:        newFakeModel(),
		Data:         fakeData{batches: 1},
		Evaluator:    &scripted{values: []float64{1}},
		Aggregator:   dataOnlySum(t),
		Optimizer:    &nopOptimizer{},
		Checkpointer: rec,
		Epochs:       3,
		StartEpoch:   3,
	}
	if _, err := tr.Run(); !errors.Is(err, ErrConfig) {
		t.Errorf("Run error = %v, want ErrConfig", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("checkpoints written: %v", rec.calls)
	}
}
