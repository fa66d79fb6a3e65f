// Package fno implements the one-dimensional Fourier Neural Operator.
package fno

import "math/rand/v2"
import "strconv"

import "github.com/ajroetker/go-highway/hwy/contrib/workerpool"
import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer/act"
import "github.com/neurlang/pino1d/layer/dense"
import "github.com/neurlang/pino1d/layer/spectral"
import "github.com/neurlang/pino1d/net/feedforward"

// ErrArchitecture reports inconsistent layer widths or modes.
var ErrArchitecture = errors.New("invalid FNO architecture")

// Config describes an FNO1d.
//
// Layers holds the channel widths between Fourier blocks, so there are
// len(Layers)-1 blocks and block i keeps Modes[i] frequencies.
type Config struct {
	InDim  int
	OutDim int
	Modes  []int
	Layers []int
	FcDim  int
	Act    act.Kind
}

// FNO1d lifts the input channels, applies the Fourier blocks and projects
// back down to the output channels.
type FNO1d struct {
	feedforward.FeedforwardNetwork
	Config Config
}

// New builds an FNO1d with weights drawn from rng.
func New(conf Config, rng *rand.Rand, pool *workerpool.Pool) (*FNO1d, error) {
	if len(conf.Layers) < 2 {
		return nil, errors.Wrapf(ErrArchitecture, "need at least two layer widths, got %v", conf.Layers)
	}
	if len(conf.Modes) != len(conf.Layers)-1 {
		return nil, errors.Wrapf(ErrArchitecture, "%d modes for %d blocks", len(conf.Modes), len(conf.Layers)-1)
	}
	if conf.InDim <= 0 || conf.OutDim <= 0 || conf.FcDim <= 0 {
		return nil, errors.Wrapf(ErrArchitecture, "in_dim %d, out_dim %d, fc_dim %d", conf.InDim, conf.OutDim, conf.FcDim)
	}
	for _, m := range conf.Modes {
		if m <= 0 {
			return nil, errors.Wrapf(ErrArchitecture, "modes %v", conf.Modes)
		}
	}

	f := &FNO1d{Config: conf}
	f.NewLayer(dense.New("fc0", conf.InDim, conf.Layers[0], rng, pool))
	blocks := len(conf.Layers) - 1
	for i := 0; i < blocks; i++ {
		in, out := conf.Layers[i], conf.Layers[i+1]
		f.NewCombiner(
			spectral.New("sp_convs."+strconv.Itoa(i), in, out, conf.Modes[i], rng),
			dense.New("ws."+strconv.Itoa(i), in, out, rng, pool),
		)
		if i != blocks-1 {
			f.NewLayer(act.New(conf.Act, pool))
		}
	}
	f.NewLayer(dense.New("fc1", conf.Layers[blocks], conf.FcDim, rng, pool))
	f.NewLayer(act.New(conf.Act, pool))
	f.NewLayer(dense.New("fc2", conf.FcDim, conf.OutDim, rng, pool))
	return f, nil
}
