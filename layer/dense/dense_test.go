package dense

import "math"
import "math/rand/v2"
import "testing"

import "github.com/ajroetker/go-highway/hwy/contrib/workerpool"

import "github.com/neurlang/pino1d/layer"

func TestForward(t *testing.T) {
	d := New("fc", 2, 3, rand.New(rand.NewPCG(1, 2)), nil)
	copy(d.W.Value, []float64{1, 2, 3, 4, 5, 6})
	copy(d.Bias.Value, []float64{0.5, 0, -0.5})
	x := layer.Tensor{B: 1, N: 2, C: 2, Data: []float64{1, 0, 1, 1}}
	y := d.Forward(x)
	want := []float64{1.5, 2, 2.5, 5.5, 7, 8.5}
	for i := range want {
		if math.Abs(y.Data[i]-want[i]) > 1e-9 {
			t.Errorf("y[%d] = %v, want %v", i, y.Data[i], want[i])
		}
	}
}

func TestBackwardMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	d := New("fc", 3, 2, rng, nil)
	x := layer.NewTensor(2, 2, 3)
	for i := range x.Data {
		x.Data[i] = rng.Float64()*2 - 1
	}
	// L = sum(y)
	objective := func() float64 {
		var s float64
		for _, v := range d.Forward(x).Data {
			s += v
		}
		return s
	}
	y := d.Forward(x)
	dy := y.Like()
	for i := range dy.Data {
		dy.Data[i] = 1
	}
	dx := d.Backward(dy)

	const h = 1e-6
	for i := range d.W.Value {
		old := d.W.Value[i]
		d.W.Value[i] = old + h
		up := objective()
		d.W.Value[i] = old - h
		down := objective()
		d.W.Value[i] = old
		if num := (up - down) / (2 * h); math.Abs(num-d.W.Grad[i]) > 1e-5 {
			t.Errorf("dW[%d] = %v, numeric %v", i, d.W.Grad[i], num)
		}
	}
	for i := range x.Data {
		old := x.Data[i]
		x.Data[i] = old + h
		up := objective()
		x.Data[i] = old - h
		down := objective()
		x.Data[i] = old
		if num := (up - down) / (2 * h); math.Abs(num-dx.Data[i]) > 1e-5 {
			t.Errorf("dx[%d] = %v, numeric %v", i, dx.Data[i], num)
		}
	}
	for j, g := range d.Bias.Grad {
		if g != 4 {
			t.Errorf("db[%d] = %v, want 4", j, g)
		}
	}
}

func TestPoolMatchesInline(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Close()

	inline := New("fc", 64, 48, rand.New(rand.NewPCG(5, 6)), nil)
	pooled := New("fc", 64, 48, rand.New(rand.NewPCG(5, 6)), pool)
	rng := rand.New(rand.NewPCG(7, 8))
	x := layer.NewTensor(4, 32, 64)
	for i := range x.Data {
		x.Data[i] = rng.Float64()*2 - 1
	}
	a, b := inline.Forward(x), pooled.Forward(x)
	for i := range a.Data {
		if math.Abs(a.Data[i]-b.Data[i]) > 1e-9 {
			t.Fatalf("y[%d] = %v pooled, %v inline", i, b.Data[i], a.Data[i])
		}
	}
	dy := a.Like()
	for i := range dy.Data {
		dy.Data[i] = rng.Float64()
	}
	da, db := inline.Backward(dy), pooled.Backward(dy)
	for i := range da.Data {
		if math.Abs(da.Data[i]-db.Data[i]) > 1e-9 {
			t.Fatalf("dx[%d] = %v pooled, %v inline", i, db.Data[i], da.Data[i])
		}
	}
	for i := range inline.W.Grad {
		if math.Abs(inline.W.Grad[i]-pooled.W.Grad[i]) > 1e-9 {
			t.Fatalf("dW[%d] = %v pooled, %v inline", i, pooled.W.Grad[i], inline.W.Grad[i])
		}
	}
}
