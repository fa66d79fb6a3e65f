package loss

import "math"

// Epsilon floors denominators that may approach zero.
const Epsilon = 1e-8

// RelativeL2 is the size-averaged relative L2 error between out and y,
// both [rows, cols] row-major. It returns the loss and its gradient with
// respect to out.
func RelativeL2(out, y []float64, rows int) (float64, []float64) {
	grad := make([]float64, len(out))
	if rows == 0 {
		return 0, grad
	}
	cols := len(out) / rows
	var total float64
	for r := 0; r < rows; r++ {
		o := out[r*cols : (r+1)*cols]
		t := y[r*cols : (r+1)*cols]
		var diff, norm float64
		for i := range o {
			d := o[i] - t[i]
			diff += d * d
			norm += t[i] * t[i]
		}
		diff = math.Sqrt(diff)
		norm = math.Max(math.Sqrt(norm), Epsilon)
		total += diff / norm
		if diff == 0 {
			continue
		}
		scale := 1 / (diff * norm * float64(rows))
		g := grad[r*cols : (r+1)*cols]
		for i := range o {
			g[i] = (o[i] - t[i]) * scale
		}
	}
	return total / float64(rows), grad
}
