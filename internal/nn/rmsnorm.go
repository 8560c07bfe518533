package nn

import (
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// RMSNorm applies Root Mean Square Normalization over an input tensor along the last dimension.
//
// Formula: Y = X / sqrt(mean(X^2) + eps) * gamma
//
// Where:
//   - X is the input tensor
//   - Y is the output tensor
//   - gamma is the learnable scale parameter [d_model]
//   - mean is computed along the last dimension
//   - eps is a small value to avoid division by zero
//
// RMSNorm is simpler and faster than LayerNorm (no mean subtraction),
// and is widely used in modern LLM architectures (LLaMA, Mistral, Gemma).
//
// Example:
//
//	rmsnorm := nn.NewRMSNorm[B](768, 1e-6, backend)
//	output := rmsnorm.Forward(hiddenStates)  // [..., 768] -> [..., 768]
type RMSNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [d_model]
	Epsilon float32       // numerical stability constant
	backend B
}

// NewRMSNorm creates a new RMSNorm layer.
//
// Parameters:
//   - dModel: size of the last dimension (feature dimension)
//   - epsilon: small constant for numerical stability (typically 1e-5 or 1e-6)
//   - backend: computation backend
//
// The gamma parameter is initialized to ones.
func NewRMSNorm[B tensor.Backend](dModel int, epsilon float32, backend B) *RMSNorm[B] {
	gamma := tensor.Ones[float32](tensor.Shape{dModel}, backend)

	return &RMSNorm[B]{
		Gamma:   NewParameter("gamma", gamma),
		Epsilon: epsilon,
		backend: backend,
	}
}

// Forward applies RMSNorm to the input tensor.
//
// Shapes:
//   - input: [..., d_model]
//   - output: [..., d_model]
func (r *RMSNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// 1. Mean of squares along the last dimension (keepdim=true)
	variance := x.Mul(x).MeanDim(-1, true)

	// 2. Reciprocal square root: 1 / sqrt(variance + eps)
	rsqrt := variance.AddScalar(r.Epsilon).Rsqrt()

	// 3. Normalize
	normalized := x.Mul(rsqrt)

	// 4. Scale by gamma [d_model], unsqueezed to broadcast over leading dims
	gammaUnsqueezed := r.Gamma.Tensor()
	for i := 0; i < len(x.Shape())-1; i++ {
		gammaUnsqueezed = gammaUnsqueezed.Unsqueeze(0)
	}

	return normalized.Mul(gammaUnsqueezed)
}

// Parameters returns the learnable parameters (gamma).
func (r *RMSNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{r.Gamma}
}

// StateDict returns a map of parameter names to raw tensors.
func (r *RMSNorm[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"gamma": r.Gamma.Tensor().Raw(),
	}
}

// LoadStateDict loads parameters from a state dictionary.
func (r *RMSNorm[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadTensorData(stateDict, "gamma", r.Gamma.Tensor().Shape(), r.Gamma.Tensor().Data())
}
