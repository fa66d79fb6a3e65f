package aggregator

import "github.com/neurlang/pino1d/loss"

// Sum is the fixed linear scalarization. It keeps no state, so the same
// losses always combine to the same value regardless of step.
type Sum struct {
	names   []loss.Name
	weights loss.Weights
}

func newSum(o settings) *Sum {
	return &Sum{names: o.names, weights: o.weights.Clone()}
}

func (s *Sum) Scheme() Scheme { return SchemeSum }

func (s *Sum) Combine(losses loss.Set, step int) (float64, loss.Weights, error) {
	if err := checkLosses(losses, s.names, step); err != nil {
		return 0, nil, err
	}
	total, err := combine(s.weights, losses, s.names, step)
	if err != nil {
		return 0, nil, err
	}
	return total, s.weights.Clone(), nil
}
