// Package nn implements neural network modules for the Mnemo ML framework.
//
// This package provides the building blocks of retention networks:
//   - Module interface: base interface for all NN components
//   - Parameter: named parameter tensors
//   - Linear, Embedding: projection and lookup layers
//   - LayerNorm, GroupNorm, Dropout: normalization and regularization
//   - Retention kernels: parallel and recurrent sequence mixing
//   - MultiheadRetention, DecoderLayer, RetNet: the retention decoder stack
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Modules with a single float32 input satisfy this interface directly
// (Linear, LayerNorm, DecoderLayer). Modules with richer signatures
// (MultiheadRetention, RetNet) provide the same methods but are not
// Module values themselves.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// For example, Linear expects [batch_size, in_features].
	//
	// Returns the output tensor with shape determined by the module type.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., Dropout).
	Parameters() []*Parameter[B]
}
