// Package config decodes and validates the YAML run configuration.
package config

import "bytes"
import "fmt"
import "os"

import "github.com/pkg/errors"
import "gopkg.in/yaml.v3"

import "github.com/neurlang/pino1d/aggregator"
import "github.com/neurlang/pino1d/layer/act"
import "github.com/neurlang/pino1d/loss"
import "github.com/neurlang/pino1d/physics"

// ErrInvalid is wrapped by every Error.
var ErrInvalid = errors.New("invalid configuration")

// Error names the offending key and value.
type Error struct {
	Key    string
	Value  interface{}
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s = %v: %s", e.Key, e.Value, e.Reason)
}

func (e *Error) Unwrap() error { return ErrInvalid }

type Config struct {
	Data  Data  `yaml:"data"`
	Model Model `yaml:"model"`
	Train Train `yaml:"train"`
	Test  Test  `yaml:"test"`
	Log   Log   `yaml:"log"`
}

type Data struct {
	Datapath string `yaml:"datapath"`
	NX       int    `yaml:"nx"`
	Sub      int    `yaml:"sub"`
	NSample  int    `yaml:"n_sample"`
	Offset   int    `yaml:"offset"`
	InDim    int    `yaml:"in_dim"`
	OutDim   int    `yaml:"out_dim"`

	E  float64 `yaml:"E"`
	A0 float64 `yaml:"A0"`
	P0 float64 `yaml:"P0"`
	L  float64 `yaml:"L"`
	Q0 float64 `yaml:"q0"`
	EI float64 `yaml:"EI"`

	// Generator is used when Datapath is empty.
	Generator Generator `yaml:"generator"`
}

type Generator struct {
	MinTaper float64 `yaml:"min_taper"`
	MaxTaper float64 `yaml:"max_taper"`
	Terms    int     `yaml:"terms"`
	Seed     uint64  `yaml:"seed"`
}

type Model struct {
	Name   string `yaml:"name"`
	Modes  []int  `yaml:"modes"`
	FcDim  int    `yaml:"fc_dim"`
	Layers []int  `yaml:"layers"`
	Act    string `yaml:"act"`
}

// SoftAdapt and ReLoBRaLo keys left out take the aggregator defaults.
type SoftAdapt struct {
	Window int      `yaml:"window"`
	Beta   *float64 `yaml:"beta"`
}

type ReLoBRaLo struct {
	Temperature *float64 `yaml:"temperature"`
	Alpha       *float64 `yaml:"alpha"`
	Lookback    *float64 `yaml:"lookback"`
}

type Train struct {
	Epochs          int       `yaml:"epochs"`
	Batchsize       int       `yaml:"batchsize"`
	BaseLR          float64   `yaml:"base_lr"`
	Milestones      []int     `yaml:"milestones"`
	SchedulerGamma  float64   `yaml:"scheduler_gamma"`
	XYLoss          *float64  `yaml:"xy_loss"`
	FLoss           *float64  `yaml:"f_loss"`
	BCLossL         *float64  `yaml:"bc_loss_l"`
	BCLossR         *float64  `yaml:"bc_loss_r"`
	BalanceScheme   string    `yaml:"balance_scheme"`
	PinoLoss        string    `yaml:"pino_loss"`
	SaveDir         string    `yaml:"save_dir"`
	SaveName        string    `yaml:"save_name"`
	LossSaveName    string    `yaml:"loss_save_name"`
	CheckpointEvery int       `yaml:"checkpoint_every"`
	SoftAdapt       SoftAdapt `yaml:"softadapt"`
	ReLoBRaLo       ReLoBRaLo `yaml:"relobralo"`
	Seed            uint64    `yaml:"seed"`
	Threads         int       `yaml:"threads"`
	UseTqdm         *bool     `yaml:"use_tqdm"`
}

type Test struct {
	Batchsize int    `yaml:"batchsize"`
	Ckpt      string `yaml:"ckpt"`
}

type Log struct {
	Project string `yaml:"project"`
	Group   string `yaml:"group"`
	File    string `yaml:"file"`
}

// Load reads, defaults and validates a configuration file.
func Load(name string) (*Config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	c.Defaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Defaults fills optional keys.
func (c *Config) Defaults() {
	if c.Data.Sub <= 0 {
		c.Data.Sub = 1
	}
	if c.Data.InDim == 0 {
		c.Data.InDim = 2
	}
	if c.Data.OutDim == 0 {
		c.Data.OutDim = 1
	}
	if c.Model.Name == "" {
		c.Model.Name = "fno"
	}
	if c.Model.Act == "" {
		c.Model.Act = "tanh"
	}
	if c.Train.BalanceScheme == "" {
		c.Train.BalanceScheme = "sum"
	}
	if c.Train.PinoLoss == "" {
		c.Train.PinoLoss = "zero"
	}
	if c.Train.CheckpointEvery <= 0 {
		c.Train.CheckpointEvery = 100
	}
	if c.Train.SchedulerGamma == 0 {
		c.Train.SchedulerGamma = 1
	}
	if c.Train.SaveName == "" {
		c.Train.SaveName = "model.ckpt"
	}
	if c.Train.LossSaveName == "" {
		c.Train.LossSaveName = "train_loss_history.txt"
	}
	if c.Test.Batchsize <= 0 {
		c.Test.Batchsize = 1
	}
}

// Validate rejects unusable values, naming the key.
func (c *Config) Validate() error {
	positive := []struct {
		key   string
		value int
	}{
		{"data.nx", c.Data.NX},
		{"data.n_sample", c.Data.NSample},
		{"train.epochs", c.Train.Epochs},
		{"train.batchsize", c.Train.Batchsize},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return &Error{Key: p.key, Value: p.value, Reason: "must be positive"}
		}
	}
	if c.Data.Offset < 0 {
		return &Error{Key: "data.offset", Value: c.Data.Offset, Reason: "must not be negative"}
	}
	if c.Data.InDim < 2 {
		return &Error{Key: "data.in_dim", Value: c.Data.InDim, Reason: "must count the grid channel"}
	}
	if c.Train.BaseLR <= 0 {
		return &Error{Key: "train.base_lr", Value: c.Train.BaseLR, Reason: "must be positive"}
	}
	if len(c.Model.Layers) < 2 {
		return &Error{Key: "model.layers", Value: c.Model.Layers, Reason: "needs at least two widths"}
	}
	switch c.Model.Name {
	case "fno":
		if len(c.Model.Modes) != len(c.Model.Layers)-1 {
			return &Error{Key: "model.modes", Value: c.Model.Modes, Reason: "needs one entry per Fourier block"}
		}
		if c.Model.FcDim <= 0 {
			return &Error{Key: "model.fc_dim", Value: c.Model.FcDim, Reason: "must be positive"}
		}
	case "fcn", "nn":
	default:
		return &Error{Key: "model.name", Value: c.Model.Name, Reason: "expected fno, fcn or nn"}
	}
	if _, err := act.Parse(c.Model.Act); err != nil {
		return &Error{Key: "model.act", Value: c.Model.Act, Reason: "expected tanh, gelu, relu, elu or leaky_relu"}
	}
	if _, err := aggregator.ParseScheme(c.Train.BalanceScheme); err != nil {
		return &Error{Key: "train.balance_scheme", Value: c.Train.BalanceScheme, Reason: "expected sum, softadapt or relobralo"}
	}
	if _, err := physics.Parse(c.Train.PinoLoss, c.Physics()); err != nil {
		return &Error{Key: "train.pino_loss", Value: c.Train.PinoLoss, Reason: "expected zero, elastic_bar or euler_bernoulli"}
	}
	if c.Train.PinoLoss == "euler_bernoulli" && c.Data.OutDim < 2 {
		return &Error{Key: "data.out_dim", Value: c.Data.OutDim, Reason: "euler_bernoulli needs deflection and moment outputs"}
	}
	weights := []struct {
		key   string
		value *float64
	}{
		{"train.xy_loss", c.Train.XYLoss},
		{"train.f_loss", c.Train.FLoss},
		{"train.bc_loss_l", c.Train.BCLossL},
		{"train.bc_loss_r", c.Train.BCLossR},
	}
	for _, w := range weights {
		if w.value == nil {
			return &Error{Key: w.key, Value: "<missing>", Reason: "is required"}
		}
		if *w.value < 0 {
			return &Error{Key: w.key, Value: *w.value, Reason: "must not be negative"}
		}
	}
	if c.Train.SaveDir == "" {
		return &Error{Key: "train.save_dir", Value: `""`, Reason: "is required"}
	}
	return nil
}

// Physics collects the physical constants.
func (c *Config) Physics() physics.Params {
	return physics.Params{E: c.Data.E, A0: c.Data.A0, P0: c.Data.P0, L: c.Data.L, Q0: c.Data.Q0, EI: c.Data.EI}
}

// Weights are the configured per-term weights.
func (c *Config) Weights() loss.Weights {
	return loss.Weights{
		loss.PDE:           deref(c.Train.FLoss),
		loss.BoundaryLeft:  deref(c.Train.BCLossL),
		loss.BoundaryRight: deref(c.Train.BCLossR),
		loss.Data:          deref(c.Train.XYLoss),
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Progress reports whether per epoch console lines are printed. Defaults
// to true.
func (c *Config) Progress() bool {
	return c.Train.UseTqdm == nil || *c.Train.UseTqdm
}

// Aggregator builds the configured loss balancing scheme.
func (c *Config) Aggregator() (aggregator.Aggregator, error) {
	scheme, err := aggregator.ParseScheme(c.Train.BalanceScheme)
	if err != nil {
		return nil, &Error{Key: "train.balance_scheme", Value: c.Train.BalanceScheme, Reason: err.Error()}
	}
	return aggregator.New(scheme, aggregator.Options{
		Names:       loss.Names,
		Weights:     c.Weights(),
		Window:      c.Train.SoftAdapt.Window,
		Beta:        c.Train.SoftAdapt.Beta,
		Temperature: c.Train.ReLoBRaLo.Temperature,
		Alpha:       c.Train.ReLoBRaLo.Alpha,
		Lookback:    c.Train.ReLoBRaLo.Lookback,
		Seed:        c.Train.Seed,
	})
}
