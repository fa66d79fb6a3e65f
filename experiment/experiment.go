// Package experiment wires a configuration into a runnable training or
// test session: dataset, model, physics loss, aggregator and optimizer.
package experiment

import "fmt"
import "math/rand/v2"
import "os"
import "path/filepath"

import "github.com/ajroetker/go-highway/hwy/contrib/workerpool"
import "github.com/google/uuid"
import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/config"
import "github.com/neurlang/pino1d/datasets"
import "github.com/neurlang/pino1d/datasets/beam"
import "github.com/neurlang/pino1d/datasets/elasticbar"
import "github.com/neurlang/pino1d/device"
import "github.com/neurlang/pino1d/layer/act"
import "github.com/neurlang/pino1d/learning"
import "github.com/neurlang/pino1d/net/fcn"
import "github.com/neurlang/pino1d/net/fno"
import "github.com/neurlang/pino1d/physics"
import "github.com/neurlang/pino1d/trainer"

// Problem selects the synthetic data family used without a datapath.
type Problem int

const (
	ElasticBar Problem = iota
	EulerBernoulliBeam
)

// Flags are the command line switches of a run.
type Flags struct {
	Log    bool
	Resume bool

	// Root holds checkpoints, histories and logs. Defaults to checkpoints.
	Root string

	// DstModel receives the trained weights as a zlib file when set.
	DstModel string

	// SrcModel, when set, is tested instead of the checkpoint.
	SrcModel string
}

func (f Flags) root() string {
	if f.Root == "" {
		return "checkpoints"
	}
	return f.Root
}

// Network is a trainable, persistable model.
type Network interface {
	trainer.Model
	trainer.Weighted
	WriteCompressedWeightsToFile(name string) error
	ReadCompressedWeightsFromFile(name string) error
}

// LoadData reads or generates the dataset and keeps n_sample samples
// starting at offset.
func LoadData(c *config.Config, problem Problem, threads int) (*datasets.Dataset, error) {
	var raw *datasets.Raw
	if c.Data.Datapath != "" {
		var err error
		if raw, err = datasets.ReadJson(c.Data.Datapath); err != nil {
			return nil, err
		}
	} else {
		raw = generate(c, problem, threads)
	}
	d, err := raw.Build(datasets.Options{Sub: c.Data.Sub, InDim: c.Data.InDim, OutDim: c.Data.OutDim})
	if err != nil {
		return nil, err
	}
	return d.Slice(c.Data.Offset, c.Data.NSample)
}

func generate(c *config.Config, problem Problem, threads int) *datasets.Raw {
	g := c.Data.Generator
	samples := c.Data.Offset + c.Data.NSample
	switch problem {
	case EulerBernoulliBeam:
		return beam.Generate(beam.Config{
			Samples: samples, NX: c.Data.NX, Q0: c.Data.Q0, EI: c.Data.EI, L: c.Data.L,
			Terms: g.Terms, Seed: g.Seed, Threads: threads,
		})
	default:
		return elasticbar.Generate(elasticbar.Config{
			Samples: samples, NX: c.Data.NX, E: c.Data.E, A0: c.Data.A0, P0: c.Data.P0, L: c.Data.L,
			MinTaper: g.MinTaper, MaxTaper: g.MaxTaper, Seed: g.Seed, Threads: threads,
		})
	}
}

// NewModel builds the configured network for grids of n points.
func NewModel(c *config.Config, n int, rng *rand.Rand, pool *workerpool.Pool) (Network, trainer.Architecture, error) {
	kind, err := act.Parse(c.Model.Act)
	if err != nil {
		return nil, trainer.Architecture{}, err
	}
	arch := trainer.Architecture{Name: c.Model.Name, InDim: c.Data.InDim, OutDim: c.Data.OutDim, Act: c.Model.Act}
	switch c.Model.Name {
	case "fno":
		arch.Modes, arch.FcDim, arch.Layers = c.Model.Modes, c.Model.FcDim, c.Model.Layers
		net, err := fno.New(fno.Config{
			InDim: c.Data.InDim, OutDim: c.Data.OutDim, Modes: c.Model.Modes,
			Layers: c.Model.Layers, FcDim: c.Model.FcDim, Act: kind,
		}, rng, pool)
		return net, arch, err
	case "fcn":
		arch.Layers = widths(c.Data.InDim, c.Model.Layers, c.Data.OutDim)
		net, err := fcn.NewFCNet(arch.Layers, kind, rng, pool)
		return net, arch, err
	case "nn":
		if c.Data.OutDim != 1 {
			return nil, arch, &config.Error{Key: "data.out_dim", Value: c.Data.OutDim, Reason: "nn predicts a single field"}
		}
		arch.Layers = widths(n, c.Model.Layers, n)
		net, err := fcn.NewNNet(arch.Layers, kind, rng, pool)
		return net, arch, err
	}
	return nil, arch, &config.Error{Key: "model.name", Value: c.Model.Name, Reason: "expected fno, fcn or nn"}
}

// widths replaces the first and last configured widths by in and out.
func widths(in int, layers []int, out int) []int {
	o := []int{in}
	o = append(o, layers[1:len(layers)-1]...)
	return append(o, out)
}

func checkpointer(c *config.Config, root, runID string, arch trainer.Architecture, net Network) *trainer.FileCheckpointer {
	return &trainer.FileCheckpointer{
		Root:  root,
		Dir:   c.Train.SaveDir,
		Name:  c.Train.SaveName,
		RunID: runID,
		Arch:  arch,
		Model: net,
	}
}

// Train runs the training mode.
func Train(c *config.Config, problem Problem, flags Flags) error {
	info := device.Probe()
	info.Report(os.Stdout)
	pool := info.NewPool(c.Train.Threads)
	if pool != nil {
		defer pool.Close()
	}
	threads := c.Train.Threads
	if threads <= 0 {
		threads = info.Threads()
	}

	runID := uuid.NewString()
	fmt.Println("run", runID)

	h := learning.HyperParameters{
		Threads:    threads,
		Seed:       c.Train.Seed,
		BaseLR:     c.Train.BaseLR,
		Milestones: c.Train.Milestones,
		Gamma:      c.Train.SchedulerGamma,

		DisableProgressBar: !c.Progress(),
	}
	if flags.Log {
		name := c.Log.File
		if name == "" {
			name = filepath.Join(flags.root(), c.Train.SaveDir, "train.log")
		}
		if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
			return err
		}
		if err := h.SetLogger(name); err != nil {
			return errors.Wrap(err, "log file")
		}
		h.Logger().SetPrefix(filepath.Join(c.Log.Project, c.Log.Group, runID) + " ")
	}

	data, err := LoadData(c, problem, threads)
	if err != nil {
		return errors.Wrap(err, "dataset")
	}
	loader := datasets.NewLoader(data, c.Train.Batchsize, true, rand.New(rand.NewPCG(h.Seed, 1)))

	net, arch, err := NewModel(c, data.N, rand.New(rand.NewPCG(h.Seed, 2)), pool)
	if err != nil {
		return errors.Wrap(err, "model")
	}
	residual, err := physics.Parse(c.Train.PinoLoss, c.Physics())
	if err != nil {
		return err
	}
	agg, err := c.Aggregator()
	if err != nil {
		return err
	}
	adam, sched := h.NewOptimizer()

	ckpt := checkpointer(c, flags.root(), runID, arch, net)
	ckpt.Adam = adam
	ckpt.Dataset = data.Fingerprint(threads)

	start := 0
	if flags.Resume {
		path := ckpt.Path(0, true)
		if start, err = trainer.Resume(path, arch, net, adam, sched, ckpt.Dataset); err != nil {
			return errors.Wrap(err, "resume")
		}
		if start >= c.Train.Epochs {
			fmt.Println(path, "already trained for", c.Train.Epochs, "epochs")
			return nil
		}
		fmt.Println("Weights loaded from", path, "continuing at epoch", start)
	}

	t := &trainer.Trainer{
		Model:           net,
		Data:            loader,
		Evaluator:       trainer.PhysicsEvaluator{Residual: residual},
		Aggregator:      agg,
		Optimizer:       adam,
		Scheduler:       sched,
		Checkpointer:    ckpt,
		Epochs:          c.Train.Epochs,
		StartEpoch:      start,
		CheckpointEvery: c.Train.CheckpointEvery,
		HistoryPath:     filepath.Join(flags.root(), c.Train.SaveDir, c.Train.LossSaveName),
		Logger:          h.Logger(),
		DisableProgress: h.DisableProgressBar,
	}
	if _, err = t.Run(); err != nil {
		return err
	}
	if flags.DstModel != "" {
		return errors.Wrap(net.WriteCompressedWeightsToFile(flags.DstModel), "dstmodel")
	}
	return nil
}

// Test runs the test mode and returns the mean relative L2 error and its
// standard error.
func Test(c *config.Config, problem Problem, flags Flags) (mean, stderr float64, err error) {
	info := device.Probe()
	pool := info.NewPool(c.Train.Threads)
	if pool != nil {
		defer pool.Close()
	}
	data, err := LoadData(c, problem, info.Threads())
	if err != nil {
		return 0, 0, errors.Wrap(err, "dataset")
	}
	net, arch, err := NewModel(c, data.N, rand.New(rand.NewPCG(c.Train.Seed, 2)), pool)
	if err != nil {
		return 0, 0, errors.Wrap(err, "model")
	}
	if flags.SrcModel != "" {
		if err := net.ReadCompressedWeightsFromFile(flags.SrcModel); err != nil {
			return 0, 0, errors.Wrap(err, flags.SrcModel)
		}
		fmt.Println("Weights loaded from", flags.SrcModel)
		return trainer.Evaluate(net, datasets.NewLoader(data, c.Test.Batchsize, false, nil))
	}
	path := c.Test.Ckpt
	if path == "" {
		path = checkpointer(c, flags.root(), "", arch, net).Path(0, true)
	}
	ckpt, err := trainer.LoadCheckpoint(path)
	if err != nil {
		return 0, 0, err
	}
	if err := ckpt.Restore(path, arch, net, nil); err != nil {
		return 0, 0, err
	}
	fmt.Println("Weights loaded from", path, "epoch", ckpt.Epoch)
	return trainer.Evaluate(net, datasets.NewLoader(data, c.Test.Batchsize, false, nil))
}
