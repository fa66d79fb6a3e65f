package layer

// Channel keeps a single input channel, turning [B, N, C] into [B, N, 1].
type Channel struct {
	Index int
	in    Tensor
}

func (s *Channel) Forward(x Tensor) Tensor {
	s.in = Tensor{B: x.B, N: x.N, C: x.C}
	out := NewTensor(x.B, x.N, 1)
	for r := 0; r < x.Rows(); r++ {
		out.Data[r] = x.Data[r*x.C+s.Index]
	}
	return out
}

func (s *Channel) Backward(dy Tensor) Tensor {
	dx := NewTensor(s.in.B, s.in.N, s.in.C)
	for r := 0; r < dx.Rows(); r++ {
		dx.Data[r*dx.C+s.Index] = dy.Data[r]
	}
	return dx
}

func (s *Channel) Params() []*Param { return nil }

// Flatten moves the grid axis into channels: [B, N, C] becomes [B, 1, N*C].
// The data layout is unchanged.
type Flatten struct {
	n int
}

func (f *Flatten) Forward(x Tensor) Tensor {
	f.n = x.N
	return Tensor{B: x.B, N: 1, C: x.N * x.C, Data: x.Data}
}

func (f *Flatten) Backward(dy Tensor) Tensor {
	return Tensor{B: dy.B, N: f.n, C: dy.C / f.n, Data: dy.Data}
}

func (f *Flatten) Params() []*Param { return nil }

// Unflatten is the inverse of Flatten: [B, 1, N*C] becomes [B, N, C].
type Unflatten struct {
	C int
}

func (u *Unflatten) Forward(x Tensor) Tensor {
	return Tensor{B: x.B, N: x.C / u.C, C: u.C, Data: x.Data}
}

func (u *Unflatten) Backward(dy Tensor) Tensor {
	return Tensor{B: dy.B, N: 1, C: dy.N * dy.C, Data: dy.Data}
}

func (u *Unflatten) Params() []*Param { return nil }
