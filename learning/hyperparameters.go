// Package learning holds the optimizer, the learning rate schedule and the
// run hyperparameters.
package learning

import (
	"log"
	"os"
)

// SetLogger sets the output logger file where progress lines are appended
func (h *HyperParameters) SetLogger(filename string) error {
	outfile, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	h.l = log.New(outfile, "", log.LstdFlags)
	return nil
}

// Logger returns the configured logger or nil.
func (h *HyperParameters) Logger() *log.Logger {
	return h.l
}

type HyperParameters struct {
	Threads int    // number of threads for numeric kernels and data generation
	Seed    uint64 // seed of every pseudo random generator

	BaseLR     float64 // initial Adam learning rate
	Milestones []int   // epochs at which the learning rate decays
	Gamma      float64 // decay factor applied at each milestone

	DisableProgressBar bool // disable per epoch console lines

	l *log.Logger
}

// NewOptimizer builds Adam and its schedule from the hyperparameters.
func (h *HyperParameters) NewOptimizer() (*Adam, *MultiStep) {
	adam := NewAdam(h.BaseLR)
	return adam, &MultiStep{Opt: adam, Base: h.BaseLR, Milestones: h.Milestones, Gamma: h.Gamma}
}
