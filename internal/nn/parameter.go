package nn

import (
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// Parameter represents a named parameter tensor of a neural network module.
//
// Parameters hold the weights and biases of layers. The layer does not
// manage gradient flow; parameters are plain tensors with a name used for
// state-dict serialization.
//
// Example:
//
//	// Create a weight parameter
//	weight := nn.NewParameter("weight", weightTensor)
//
//	// Access the tensor
//	w := weight.Tensor()
type Parameter[B tensor.Backend] struct {
	name   string                     // Parameter name (e.g., "weight", "bias")
	tensor *tensor.Tensor[float32, B] // The parameter tensor
}

// NewParameter creates a new parameter.
//
// The parameter tensor should be initialized before creating the Parameter.
//
// Parameters:
//   - name: Descriptive name for this parameter (e.g., "qProj.weight")
//   - tensor: The initialized parameter tensor
//
// Returns a new Parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}
