package learning

// MultiStep multiplies the learning rate of Opt by Gamma each time the
// epoch counter reaches one of the Milestones.
type MultiStep struct {
	Opt        *Adam
	Base       float64
	Milestones []int
	Gamma      float64
	Epoch      int
}

// LR is the learning rate for the current epoch.
func (s *MultiStep) LR() float64 {
	lr := s.Base
	for _, m := range s.Milestones {
		if s.Epoch >= m {
			lr *= s.Gamma
		}
	}
	return lr
}

// Step advances one epoch and updates the optimizer.
func (s *MultiStep) Step() {
	s.Epoch++
	s.Opt.LR = s.LR()
}

// Seek positions the schedule at epoch, used when resuming.
func (s *MultiStep) Seek(epoch int) {
	s.Epoch = epoch
	s.Opt.LR = s.LR()
}
