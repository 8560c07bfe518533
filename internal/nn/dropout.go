package nn

import (
	"fmt"
	"math/rand"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// Dropout randomly zeroes elements of the input with probability P during
// training, scaling the survivors by 1/(1-P) (inverted dropout) so the
// expected activation is unchanged.
//
// In evaluation mode, or with P == 0, Forward returns the input untouched.
// The parallel/recurrent equivalence of retention only holds with dropout
// disabled; inference code should call Eval().
//
// Example:
//
//	drop := nn.NewDropout[*cpu.CPUBackend](0.1)
//	drop.Eval()
//	output := drop.Forward(input)  // identity in eval mode
type Dropout[B tensor.Backend] struct {
	P        float32 // drop probability in [0, 1)
	training bool
}

// NewDropout creates a new Dropout module in training mode.
//
// Panics if p is outside [0, 1).
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: p must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{
		P:        p,
		training: true,
	}
}

// Train puts the module in training mode (masking active).
func (d *Dropout[B]) Train() {
	d.training = true
}

// Eval puts the module in evaluation mode (identity).
func (d *Dropout[B]) Eval() {
	d.training = false
}

// Training reports whether the module is in training mode.
func (d *Dropout[B]) Training() bool {
	return d.training
}

// Forward applies dropout to the input tensor.
//
// The mask is generated on the host and applied as an elementwise multiply,
// so the operation works on any backend.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.P == 0 {
		return x
	}

	scale := 1.0 / (1.0 - float64(d.P))
	maskData := make([]float32, x.Shape().NumElements())
	for i := range maskData {
		//nolint:gosec // math/rand is appropriate for dropout masks (not security-critical)
		if rand.Float64() >= float64(d.P) {
			maskData[i] = float32(scale)
		}
	}

	mask, err := tensor.FromSlice[float32, B](maskData, x.Shape(), x.Backend())
	if err != nil {
		panic(fmt.Sprintf("Dropout.Forward: failed to create mask: %v", err))
	}

	return x.Mul(mask)
}

// Parameters returns an empty slice; dropout has no trainable parameters.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}
