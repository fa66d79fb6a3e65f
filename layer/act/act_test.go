package act

import "math"
import "testing"

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/layer"

func TestParse(t *testing.T) {
	for _, name := range []string{"tanh", "gelu", "relu", "elu", "leaky_relu"} {
		k, err := Parse(name)
		if err != nil {
			t.Errorf("Parse(%q): %v", name, err)
		}
		if k.String() != name {
			t.Errorf("Parse(%q).String() = %q", name, k.String())
		}
	}
	if _, err := Parse("swish"); !errors.Is(err, ErrUnknown) {
		t.Errorf("Parse(swish) error = %v, want ErrUnknown", err)
	}
}

func TestDerivatives(t *testing.T) {
	x := layer.Tensor{B: 1, N: 3, C: 2, Data: []float64{-1.5, -0.3, 0.2, 0.7, 1.1, 2.4}}
	for kind := Tanh; kind <= LeakyReLU; kind++ {
		a := New(kind, nil)
		y := a.Forward(x)
		dy := y.Like()
		for i := range dy.Data {
			dy.Data[i] = 1
		}
		dx := a.Backward(dy)

		const h = 1e-3
		for i := range x.Data {
			shifted := layer.Tensor{B: 1, N: 1, C: 2, Data: []float64{x.Data[i] + h, x.Data[i] - h}}
			out := New(kind, nil).Forward(shifted)
			num := (out.Data[0] - out.Data[1]) / (2 * h)
			if math.Abs(num-dx.Data[i]) > 5e-3 {
				t.Errorf("%v: d/dx at %v = %v, numeric %v", kind, x.Data[i], dx.Data[i], num)
			}
		}
	}
}
