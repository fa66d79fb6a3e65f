package loss

import "github.com/ajroetker/go-highway/hwy/contrib/nn"

// Softmax normalizes in into a probability vector. The per-call maximum is
// subtracted before exponentiating, so large inputs cannot overflow.
func Softmax(in []float64) []float64 {
	if len(in) == 0 {
		return nil
	}
	max := in[0]
	for _, v := range in[1:] {
		if v > max {
			max = v
		}
	}
	shifted := make([]float64, len(in))
	for i, v := range in {
		shifted[i] = v - max
	}
	out := make([]float64, len(in))
	nn.Softmax(shifted, out)
	return out
}
