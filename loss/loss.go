package loss

import "math"

import "github.com/pkg/errors"

// Name identifies one loss term.
type Name string

const (
	PDE           Name = "f_loss"
	BoundaryLeft  Name = "bc_loss_l"
	BoundaryRight Name = "bc_loss_r"
	Data          Name = "data_loss"
)

// Names is the canonical term order. Every weighted sum iterates in this
// order so results never depend on map insertion order.
var Names = []Name{PDE, BoundaryLeft, BoundaryRight, Data}

// ErrUnknownTerm is returned when a loss or weight name is outside the run's vocabulary.
var ErrUnknownTerm = errors.New("loss: unknown term")

// ParseName converts a configuration string into a Name.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownTerm, "%q", s)
}

// Set holds the scalar value of each loss term for one step.
type Set map[Name]float64

// Weights holds the non-negative weight of each loss term.
type Weights map[Name]float64

// Clone returns an independent copy of w.
func (w Weights) Clone() Weights {
	o := make(Weights, len(w))
	for k, v := range w {
		o[k] = v
	}
	return o
}

// Uniform returns 1/len(names) for every name.
func Uniform(names []Name) Weights {
	o := make(Weights, len(names))
	for _, n := range names {
		o[n] = 1 / float64(len(names))
	}
	return o
}

// Dot returns sum(w[n] * l[n]) over names, in the order given.
func Dot(w Weights, l Set, names []Name) float64 {
	var sum float64
	for _, n := range names {
		sum += w[n] * l[n]
	}
	return sum
}

// Check reports the first term of names that is missing from l.
func (l Set) Check(names []Name) error {
	if len(l) != len(names) {
		for n := range l {
			if !contains(names, n) {
				return errors.Wrapf(ErrUnknownTerm, "%q", n)
			}
		}
	}
	for _, n := range names {
		if _, ok := l[n]; !ok {
			return errors.Wrapf(ErrUnknownTerm, "missing %q", n)
		}
	}
	return nil
}

// NonFinite returns the first term of names whose value is NaN or Inf.
func (l Set) NonFinite(names []Name) (Name, bool) {
	for _, n := range names {
		if v := l[n]; math.IsNaN(v) || math.IsInf(v, 0) {
			return n, true
		}
	}
	return "", false
}

func contains(names []Name, n Name) bool {
	for _, v := range names {
		if v == n {
			return true
		}
	}
	return false
}
