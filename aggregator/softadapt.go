package aggregator

import "github.com/neurlang/pino1d/loss"

// SoftAdapt weights each term by the softmax of its most recent rate of
// change, so terms that stopped decreasing get more weight. Until every
// window holds n values the configured weights are used.
type SoftAdapt struct {
	names    []loss.Name
	defaults loss.Weights
	beta     float64
	n        int

	seq     sequence
	history map[loss.Name][]float64
}

func newSoftAdapt(o settings) *SoftAdapt {
	s := &SoftAdapt{
		names:    o.names,
		defaults: o.weights.Clone(),
		beta:     o.beta,
		n:        o.window,
		history:  make(map[loss.Name][]float64, len(o.names)),
	}
	for _, n := range o.names {
		s.history[n] = make([]float64, 0, o.window)
	}
	return s
}

func (s *SoftAdapt) Scheme() Scheme { return SchemeSoftAdapt }

func (s *SoftAdapt) Combine(losses loss.Set, step int) (float64, loss.Weights, error) {
	if err := checkLosses(losses, s.names, step); err != nil {
		return 0, nil, err
	}
	if err := s.seq.advance(step); err != nil {
		return 0, nil, err
	}
	for _, n := range s.names {
		h := append(s.history[n], losses[n])
		if len(h) > s.n {
			copy(h, h[1:])
			h = h[:s.n]
		}
		s.history[n] = h
	}

	w := s.defaults.Clone()
	if len(s.history[s.names[0]]) == s.n {
		rates := make([]float64, len(s.names))
		for i, n := range s.names {
			h := s.history[n]
			rates[i] = s.beta * (h[len(h)-1] - h[len(h)-2])
		}
		for i, v := range loss.Softmax(rates) {
			w[s.names[i]] = v
		}
	}

	total, err := combine(w, losses, s.names, step)
	if err != nil {
		return 0, nil, err
	}
	return total, w, nil
}
