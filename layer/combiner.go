package layer

// Combiner feeds the same input to two layers and sums their outputs.
// Both branches must produce the same shape.
type Combiner struct {
	A, B Layer
}

func (c *Combiner) Forward(x Tensor) Tensor {
	a := c.A.Forward(x)
	b := c.B.Forward(x)
	out := a.Like()
	for i := range out.Data {
		out.Data[i] = a.Data[i] + b.Data[i]
	}
	return out
}

func (c *Combiner) Backward(dy Tensor) Tensor {
	da := c.A.Backward(dy)
	db := c.B.Backward(dy)
	dx := da.Like()
	for i := range dx.Data {
		dx.Data[i] = da.Data[i] + db.Data[i]
	}
	return dx
}

func (c *Combiner) Params() []*Param {
	return append(c.A.Params(), c.B.Params()...)
}
