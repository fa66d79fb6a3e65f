package experiment

import "math"
import "math/rand/v2"
import "os"
import "path/filepath"
import "testing"

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/config"
import "github.com/neurlang/pino1d/trainer"

const bar = `
data:
  nx: 17
  n_sample: 4
  offset: 2
  E: 1
  A0: 1
  P0: 1
  L: 1
  generator:
    seed: 3
model:
  name: fcn
  layers: [2, 8, 1]
  act: tanh
train:
  epochs: 3
  batchsize: 2
  base_lr: 0.001
  xy_loss: 1
  f_loss: 1
  bc_loss_l: 1
  bc_loss_r: 1
  balance_scheme: relobralo
  pino_loss: elastic_bar
  save_dir: bar
  save_name: bar.ckpt
  seed: 1
  threads: 1
`

func parse(t *testing.T, doc string) *config.Config {
	c, err := config.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestLoadDataGenerated(t *testing.T) {
	c := parse(t, bar)
	d, err := LoadData(c, ElasticBar, 2)
	if err != nil {
		t.Fatal(err)
	}
	if d.Samples != 4 || d.N != 17 || d.InDim != 2 || d.OutDim != 1 {
		t.Errorf("dataset %d x %d, in %d out %d", d.Samples, d.N, d.InDim, d.OutDim)
	}
	c.Data.Datapath = filepath.Join(t.TempDir(), "missing.json")
	if _, err := LoadData(c, ElasticBar, 2); err == nil {
		t.Error("missing data file accepted")
	}
}

func TestNewModelWidths(t *testing.T) {
	c := parse(t, bar)
	c.Model.Layers = []int{99, 8, 8, 99}
	_, arch, err := NewModel(c, 17, rand.New(rand.NewPCG(1, 1)), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, 8, 8, 1}
	for i := range want {
		if arch.Layers[i] != want[i] {
			t.Errorf("fcn widths = %v, want %v", arch.Layers, want)
			break
		}
	}

	c.Model.Name = "nn"
	_, arch, err = NewModel(c, 17, rand.New(rand.NewPCG(1, 1)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if arch.Layers[0] != 17 || arch.Layers[len(arch.Layers)-1] != 17 {
		t.Errorf("nn widths = %v", arch.Layers)
	}

	c.Data.OutDim = 2
	if _, _, err := NewModel(c, 17, rand.New(rand.NewPCG(1, 1)), nil); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("nn with two outputs: %v", err)
	}
}

func TestTrainTestResume(t *testing.T) {
	root := t.TempDir()
	c := parse(t, bar)
	flags := Flags{Log: true, Root: root, DstModel: filepath.Join(root, "bar.json.zlib")}
	if err := Train(c, ElasticBar, flags); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"bar.ckpt", "bar_0.ckpt", "train_loss_history.txt", "train.log"} {
		if _, err := os.Stat(filepath.Join(root, "bar", name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(flags.DstModel); err != nil {
		t.Errorf("missing weights file: %v", err)
	}

	mean, stderr, err := Test(c, ElasticBar, flags)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(mean) || mean <= 0 || stderr < 0 {
		t.Errorf("test error mean %v, std error %v", mean, stderr)
	}

	fromFile, _, err := Test(c, ElasticBar, Flags{Root: root, SrcModel: flags.DstModel})
	if err != nil {
		t.Fatal(err)
	}
	if fromFile != mean {
		t.Errorf("weights file error %v, checkpoint error %v", fromFile, mean)
	}

	c.Train.Epochs = 5
	flags.Resume = true
	if err := Train(c, ElasticBar, flags); err != nil {
		t.Fatal(err)
	}
	history, err := trainer.LoadHistory(filepath.Join(root, "bar", "train_loss_history.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(history.Rows) != 5 {
		t.Errorf("history after resume has %d rows, want 5", len(history.Rows))
	}
	for e, r := range history.Rows {
		if math.IsNaN(r[trainer.ColumnCombined]) {
			t.Errorf("epoch %d lost its history row", e)
		}
	}

	c.Model.Layers = []int{2, 4, 1}
	if _, _, err := Test(c, ElasticBar, flags); err == nil {
		t.Error("checkpoint of another architecture accepted")
	}
}
