// Package layer defines the differentiable building blocks of the neural
// operators: a batch tensor, trainable parameters, and the Layer interface.
package layer

// Layer is one differentiable stage of a network.
type Layer interface {

	// Forward computes the output for x and keeps what Backward needs.
	Forward(x Tensor) Tensor

	// Backward receives the gradient with respect to the last Forward
	// output, accumulates parameter gradients, and returns the gradient
	// with respect to the last Forward input.
	Backward(dy Tensor) Tensor

	// Params lists the trainable parameters, nil for stateless layers.
	Params() []*Param
}

// Tensor is a row-major [B, N, C] block: B samples, N grid points, C channels.
type Tensor struct {
	B, N, C int
	Data    []float64
}

// NewTensor allocates a zeroed tensor.
func NewTensor(b, n, c int) Tensor {
	return Tensor{B: b, N: n, C: c, Data: make([]float64, b*n*c)}
}

// Rows is B*N, the number of channel vectors.
func (t Tensor) Rows() int {
	return t.B * t.N
}

// Like allocates a zeroed tensor of the same shape.
func (t Tensor) Like() Tensor {
	return NewTensor(t.B, t.N, t.C)
}

// At returns element (b, n, c).
func (t Tensor) At(b, n, c int) float64 {
	return t.Data[(b*t.N+n)*t.C+c]
}

// Param is a trainable tensor with its accumulated gradient.
type Param struct {
	Name  string
	Shape []int
	Value []float64
	Grad  []float64
}

// NewParam allocates a zeroed parameter of the given shape.
func NewParam(name string, shape ...int) *Param {
	size := 1
	for _, s := range shape {
		size *= s
	}
	return &Param{
		Name:  name,
		Shape: append([]int(nil), shape...),
		Value: make([]float64, size),
		Grad:  make([]float64, size),
	}
}

// ZeroGrad clears the accumulated gradient.
func (p *Param) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}
