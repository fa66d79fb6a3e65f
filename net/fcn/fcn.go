// Package fcn implements fully connected operator baselines.
//
// FCNet is a pointwise MLP over the channels of every grid point. NNet
// flattens the grid of the first input channel and maps it to a whole
// output field at once.
package fcn

import "math/rand/v2"
import "strconv"

import "github.com/ajroetker/go-highway/hwy/contrib/workerpool"
import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"
import "github.com/neurlang/pino1d/layer/act"
import "github.com/neurlang/pino1d/layer/dense"
import "github.com/neurlang/pino1d/net/feedforward"

// ErrArchitecture reports an unusable layer list.
var ErrArchitecture = errors.New("invalid fully connected architecture")

// FCNet maps [B, N, layers[0]] to [B, N, layers[last]].
type FCNet struct {
	feedforward.FeedforwardNetwork
	Layers []int
}

// NNet maps [B, N, C] to [B, N, 1] using channel 0 of the whole grid.
// layers[0] and layers[last] must both equal the grid size.
type NNet struct {
	feedforward.FeedforwardNetwork
	Layers []int
}

func mlp(net *feedforward.FeedforwardNetwork, layers []int, kind act.Kind, rng *rand.Rand, pool *workerpool.Pool) error {
	if len(layers) < 2 {
		return errors.Wrapf(ErrArchitecture, "need at least two widths, got %v", layers)
	}
	for _, w := range layers {
		if w <= 0 {
			return errors.Wrapf(ErrArchitecture, "widths %v", layers)
		}
	}
	for i := 0; i+1 < len(layers); i++ {
		net.NewLayer(dense.New("layers."+strconv.Itoa(i), layers[i], layers[i+1], rng, pool))
		if i+2 < len(layers) {
			net.NewLayer(act.New(kind, pool))
		}
	}
	return nil
}

// NewFCNet builds a pointwise MLP with kind activations between layers.
func NewFCNet(layers []int, kind act.Kind, rng *rand.Rand, pool *workerpool.Pool) (*FCNet, error) {
	f := &FCNet{Layers: layers}
	if err := mlp(&f.FeedforwardNetwork, layers, kind, rng, pool); err != nil {
		return nil, err
	}
	return f, nil
}

// NewNNet builds a grid-to-grid MLP.
func NewNNet(layers []int, kind act.Kind, rng *rand.Rand, pool *workerpool.Pool) (*NNet, error) {
	if len(layers) >= 2 && layers[0] != layers[len(layers)-1] {
		return nil, errors.Wrapf(ErrArchitecture, "grid in %d, grid out %d", layers[0], layers[len(layers)-1])
	}
	n := &NNet{Layers: layers}
	n.NewLayer(&layer.Channel{Index: 0})
	n.NewLayer(&layer.Flatten{})
	if err := mlp(&n.FeedforwardNetwork, layers, kind, rng, pool); err != nil {
		return nil, err
	}
	n.NewLayer(&layer.Unflatten{C: 1})
	return n, nil
}
