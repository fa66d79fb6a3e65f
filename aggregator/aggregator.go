// Package aggregator balances the loss terms of a physics-informed training
// step. An Aggregator turns the named losses of one step into the single
// scalar that is differentiated, and reports the weights it used.
//
// Three schemes exist: a fixed weighted sum, SoftAdapt and ReLoBRaLo. The
// adaptive ones keep per-term history, so Combine must be called exactly once
// per step with step indices 0, 1, 2, ... in order.
package aggregator

import "fmt"
import "math"

import "github.com/pkg/errors"

import "github.com/neurlang/pino1d/loss"

// Scheme selects the balancing strategy.
type Scheme int

const (
	SchemeSum Scheme = iota
	SchemeSoftAdapt
	SchemeReLoBRaLo
)

var schemeNames = [...]string{
	SchemeSum:       "sum",
	SchemeSoftAdapt: "softadapt",
	SchemeReLoBRaLo: "relobralo",
}

func (s Scheme) String() string {
	if s < 0 || int(s) >= len(schemeNames) {
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
	return schemeNames[s]
}

// ParseScheme maps the balance_scheme configuration value to a Scheme.
func ParseScheme(s string) (Scheme, error) {
	for i, name := range schemeNames {
		if name == s {
			return Scheme(i), nil
		}
	}
	return 0, errors.Wrapf(ErrConfig, "unknown balance_scheme %q", s)
}

var (
	// ErrConfig reports invalid construction options.
	ErrConfig = errors.New("aggregator: invalid configuration")

	// ErrStepOrder reports a skipped or repeated step index.
	ErrStepOrder = errors.New("aggregator: step out of order")

	// ErrNonFinite reports a NaN or Inf loss, weight or combined value.
	ErrNonFinite = errors.New("aggregator: non-finite value")
)

// NonFiniteError names the term that produced a NaN or Inf.
type NonFiniteError struct {
	Term  loss.Name
	Value float64
	Step  int
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("%s: term %s = %v at step %d", ErrNonFinite, e.Term, e.Value, e.Step)
}

func (e *NonFiniteError) Unwrap() error {
	return ErrNonFinite
}

// Aggregator combines the loss terms of one training step.
type Aggregator interface {

	// Combine returns the combined loss of step together with the weight
	// of each term that produced it.
	Combine(losses loss.Set, step int) (float64, loss.Weights, error)

	// Scheme reports which strategy the aggregator implements.
	Scheme() Scheme
}

// Defaults for the adaptive schemes.
const (
	DefaultWindow      = 5
	DefaultBeta        = 1.0
	DefaultTemperature = 0.1
	DefaultAlpha       = 0.999
	DefaultLookback    = 0.999
)

// Options configures New. A nil hyperparameter takes the default above, so
// an explicit zero (alpha 0, lookback 0, beta 0) stays configurable.
type Options struct {
	Names   []loss.Name  // fixed term vocabulary of the run
	Weights loss.Weights // fixed weights (sum) and warm-up weights (softadapt)

	Window int      // softadapt: history length per term, 0 for the default
	Beta   *float64 // softadapt: rate scale inside the softmax

	Temperature *float64 // relobralo: softmax temperature
	Alpha       *float64 // relobralo: EMA smoothing factor
	Lookback    *float64 // relobralo: probability of blending with the EMA
	Seed        uint64   // relobralo: Bernoulli draw seed
}

// settings are Options with every default resolved.
type settings struct {
	names   []loss.Name
	weights loss.Weights
	window  int
	seed    uint64

	beta, temperature, alpha, lookback float64
}

func or(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func (o Options) withDefaults() settings {
	s := settings{
		names:       o.Names,
		weights:     o.Weights,
		window:      o.Window,
		seed:        o.Seed,
		beta:        or(o.Beta, DefaultBeta),
		temperature: or(o.Temperature, DefaultTemperature),
		alpha:       or(o.Alpha, DefaultAlpha),
		lookback:    or(o.Lookback, DefaultLookback),
	}
	if len(s.names) == 0 {
		s.names = loss.Names
	}
	if s.window == 0 {
		s.window = DefaultWindow
	}
	return s
}

func (o settings) validate(scheme Scheme) error {
	seen := make(map[loss.Name]bool, len(o.names))
	for _, n := range o.names {
		if seen[n] {
			return errors.Wrapf(ErrConfig, "duplicate term %q", n)
		}
		seen[n] = true
	}
	if scheme != SchemeReLoBRaLo {
		for _, n := range o.names {
			w, ok := o.weights[n]
			if !ok {
				return errors.Wrapf(ErrConfig, "missing weight for %q", n)
			}
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return errors.Wrapf(ErrConfig, "weight %q = %v", n, w)
			}
		}
		for n := range o.weights {
			if !seen[n] {
				return errors.Wrapf(ErrConfig, "weight for unknown term %q", n)
			}
		}
	}
	switch scheme {
	case SchemeSoftAdapt:
		if o.window < 2 {
			return errors.Wrapf(ErrConfig, "softadapt window %d, need at least 2", o.window)
		}
		if o.beta < 0 || math.IsNaN(o.beta) || math.IsInf(o.beta, 0) {
			return errors.Wrapf(ErrConfig, "softadapt beta %v", o.beta)
		}
	case SchemeReLoBRaLo:
		if !(o.temperature > 0) || math.IsInf(o.temperature, 0) {
			return errors.Wrapf(ErrConfig, "relobralo temperature %v", o.temperature)
		}
		if !(o.alpha >= 0 && o.alpha <= 1) {
			return errors.Wrapf(ErrConfig, "relobralo alpha %v", o.alpha)
		}
		if !(o.lookback >= 0 && o.lookback <= 1) {
			return errors.Wrapf(ErrConfig, "relobralo lookback %v", o.lookback)
		}
	}
	return nil
}

// New builds the aggregator selected by scheme. It is called once per run.
func New(scheme Scheme, opts Options) (Aggregator, error) {
	s := opts.withDefaults()
	if err := s.validate(scheme); err != nil {
		return nil, err
	}
	switch scheme {
	case SchemeSum:
		return newSum(s), nil
	case SchemeSoftAdapt:
		return newSoftAdapt(s), nil
	case SchemeReLoBRaLo:
		return newReLoBRaLo(s), nil
	}
	return nil, errors.Wrapf(ErrConfig, "unknown scheme %v", scheme)
}

// sequence enforces the 0, 1, 2, ... step contract of stateful schemes.
type sequence struct {
	next int
}

func (s *sequence) advance(step int) error {
	if step != s.next {
		return errors.Wrapf(ErrStepOrder, "got step %d, want %d", step, s.next)
	}
	s.next++
	return nil
}

// checkLosses rejects sets with missing, unknown or non-finite terms.
func checkLosses(losses loss.Set, names []loss.Name, step int) error {
	if err := losses.Check(names); err != nil {
		return err
	}
	if n, bad := losses.NonFinite(names); bad {
		return &NonFiniteError{Term: n, Value: losses[n], Step: step}
	}
	for _, n := range names {
		if losses[n] < 0 {
			return errors.Wrapf(ErrConfig, "negative loss %s = %v at step %d", n, losses[n], step)
		}
	}
	return nil
}

// combine forms the weighted sum after checking every weight is usable.
func combine(w loss.Weights, losses loss.Set, names []loss.Name, step int) (float64, error) {
	for _, n := range names {
		if v := w[n]; v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &NonFiniteError{Term: n, Value: v, Step: step}
		}
	}
	total := loss.Dot(w, losses, names)
	if math.IsNaN(total) || math.IsInf(total, 0) {
		// the product overflowed; blame the largest contribution
		worst := names[0]
		for _, n := range names[1:] {
			if w[n]*losses[n] > w[worst]*losses[worst] {
				worst = n
			}
		}
		return 0, &NonFiniteError{Term: worst, Value: total, Step: step}
	}
	return total, nil
}
