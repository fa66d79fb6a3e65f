package aggregator

import "math"
import "math/rand/v2"

import "github.com/neurlang/pino1d/loss"

// ReLoBRaLo (relative loss balancing with random lookback) weights terms by
// the softmax of their relative change since the previous step and, when a
// Bernoulli draw fires, blends that candidate with an exponential moving
// average of past weights.
type ReLoBRaLo struct {
	names       []loss.Name
	temperature float64
	alpha       float64
	lookback    float64
	rng         *rand.Rand

	seq   sequence
	prevL loss.Set
	ema   loss.Weights

	// prevW holds the weights of the last step. Combine never reads it; it
	// is kept for inspection.
	prevW loss.Weights
}

func newReLoBRaLo(o settings) *ReLoBRaLo {
	return &ReLoBRaLo{
		names:       o.names,
		temperature: o.temperature,
		alpha:       o.alpha,
		lookback:    o.lookback,
		rng:         rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15)),
	}
}

func (r *ReLoBRaLo) Scheme() Scheme { return SchemeReLoBRaLo }

func (r *ReLoBRaLo) Combine(losses loss.Set, step int) (float64, loss.Weights, error) {
	if err := checkLosses(losses, r.names, step); err != nil {
		return 0, nil, err
	}
	if err := r.seq.advance(step); err != nil {
		return 0, nil, err
	}

	var w loss.Weights
	if step == 0 {
		w = loss.Uniform(r.names)
		r.ema = w.Clone()
	} else {
		ratios := make([]float64, len(r.names))
		for i, n := range r.names {
			ratios[i] = losses[n] / math.Max(r.prevL[n]*r.temperature, loss.Epsilon)
		}
		candidate := loss.Softmax(ratios)

		w = make(loss.Weights, len(r.names))
		blend := r.rng.Float64() < r.lookback
		for i, n := range r.names {
			if blend {
				w[n] = r.alpha*r.ema[n] + (1-r.alpha)*candidate[i]
			} else {
				w[n] = candidate[i]
			}
		}
		for _, n := range r.names {
			r.ema[n] = r.alpha*r.ema[n] + (1-r.alpha)*w[n]
		}
	}

	total, err := combine(w, losses, r.names, step)
	if err != nil {
		return 0, nil, err
	}
	r.prevL = make(loss.Set, len(r.names))
	for _, n := range r.names {
		r.prevL[n] = losses[n]
	}
	r.prevW = w.Clone()
	return total, w, nil
}
