// Package feedforward implements a feedforward network type
package feedforward

import "github.com/neurlang/pino1d/layer"

// FeedforwardNetwork is the feedforward network
type FeedforwardNetwork struct {
	layers []layer.Layer
}

// NewLayer appends a layer to the end of the network.
func (f *FeedforwardNetwork) NewLayer(l layer.Layer) {
	f.layers = append(f.layers, l)
}

// NewCombiner appends a stage summing the outputs of two parallel layers.
func (f *FeedforwardNetwork) NewCombiner(a, b layer.Layer) {
	f.layers = append(f.layers, &layer.Combiner{A: a, B: b})
}

// LenLayers returns the number of layers. Each Combiner counts as one layer.
func (f FeedforwardNetwork) LenLayers() int {
	return len(f.layers)
}

// GetLayer returns the n-th layer, nil when out of range.
func (f FeedforwardNetwork) GetLayer(n int) layer.Layer {
	if n < 0 || n >= len(f.layers) {
		return nil
	}
	return f.layers[n]
}

// Len returns the number of trainable scalars in the network.
func (f FeedforwardNetwork) Len() (o int) {
	for _, p := range f.Params() {
		o += len(p.Value)
	}
	return
}

// Params lists all trainable parameters in layer order.
func (f FeedforwardNetwork) Params() (o []*layer.Param) {
	for _, l := range f.layers {
		o = append(o, l.Params()...)
	}
	return
}

// ZeroGrad clears every accumulated gradient.
func (f FeedforwardNetwork) ZeroGrad() {
	for _, p := range f.Params() {
		p.ZeroGrad()
	}
}

// Forward runs the input through all layers.
func (f FeedforwardNetwork) Forward(x layer.Tensor) layer.Tensor {
	for _, l := range f.layers {
		x = l.Forward(x)
	}
	return x
}

// Backward propagates the output gradient back through all layers,
// accumulating parameter gradients. It must follow a Forward call.
func (f FeedforwardNetwork) Backward(dy layer.Tensor) layer.Tensor {
	for i := len(f.layers) - 1; i >= 0; i-- {
		dy = f.layers[i].Backward(dy)
	}
	return dy
}
