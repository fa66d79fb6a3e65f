package fno

import "math"
import "math/rand/v2"
import "testing"

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"
import "github.com/neurlang/pino1d/layer/act"

func testConfig() Config {
	return Config{InDim: 2, OutDim: 1, Modes: []int{4, 4}, Layers: []int{8, 8, 8}, FcDim: 16, Act: act.GELU}
}

func TestNew(t *testing.T) {
	f, err := New(testConfig(), rand.New(rand.NewPCG(0, 0)), nil)
	if err != nil {
		t.Fatal(err)
	}
	// fc0, block, act, block, fc1, act, fc2
	if f.LenLayers() != 7 {
		t.Errorf("LenLayers = %d, want 7", f.LenLayers())
	}
	y := f.Forward(layer.NewTensor(2, 17, 2))
	if y.B != 2 || y.N != 17 || y.C != 1 {
		t.Errorf("output shape %d,%d,%d", y.B, y.N, y.C)
	}
	for i, v := range y.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("y[%d] = %v", i, v)
		}
	}
}

func TestNewRejectsBadArchitecture(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"modes":  func(c *Config) { c.Modes = []int{4} },
		"layers": func(c *Config) { c.Layers = []int{8}; c.Modes = nil },
		"fc_dim": func(c *Config) { c.FcDim = 0 },
		"zero":   func(c *Config) { c.Modes = []int{0, 4} },
	} {
		conf := testConfig()
		mutate(&conf)
		if _, err := New(conf, rand.New(rand.NewPCG(0, 0)), nil); !errors.Is(err, ErrArchitecture) {
			t.Errorf("%s: error = %v, want ErrArchitecture", name, err)
		}
	}
}

func TestGradientFlowsToEveryParameter(t *testing.T) {
	f, err := New(testConfig(), rand.New(rand.NewPCG(1, 1)), nil)
	if err != nil {
		t.Fatal(err)
	}
	x := layer.NewTensor(1, 16, 2)
	for i := range x.Data {
		x.Data[i] = math.Sin(float64(i))
	}
	y := f.Forward(x)
	dy := y.Like()
	for i := range dy.Data {
		dy.Data[i] = 1
	}
	f.ZeroGrad()
	f.Backward(dy)
	for _, p := range f.Params() {
		var norm float64
		for _, g := range p.Grad {
			norm += g * g
		}
		if norm == 0 {
			t.Errorf("%s received no gradient", p.Name)
		}
	}
}
