package nn

import (
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// LayerNorm applies Layer Normalization over an input tensor along the last dimension.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Where:
//   - X is the input tensor
//   - Y is the output tensor
//   - gamma is the learnable scale parameter [d_model]
//   - beta is the learnable shift parameter [d_model]
//   - mean and variance are computed along the last dimension
//   - eps is a small value to avoid division by zero
//
// LayerNorm normalizes activations by computing statistics across features.
// The retention decoder applies it before each sub-layer and once after the
// final layer.
//
// Example:
//
//	backend := cpu.New()
//	layernorm := nn.NewLayerNorm(512, 1e-6, backend)
//	output := layernorm.Forward(hiddenStates)  // [..., 512] -> [..., 512]
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [d_model]
	Beta    *Parameter[B] // learnable shift [d_model]
	Epsilon float32       // numerical stability constant
	backend B
}

// NewLayerNorm creates a new LayerNorm layer.
//
// Parameters:
//   - normalizedShape: size of the last dimension (feature dimension)
//   - epsilon: small constant for numerical stability (typically 1e-5 or 1e-6)
//   - backend: computation backend
//
// The gamma parameter is initialized to ones, beta to zeros.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	gamma := tensor.Ones[float32](tensor.Shape{normalizedShape}, backend)
	beta := tensor.Zeros[float32](tensor.Shape{normalizedShape}, backend)

	return &LayerNorm[B]{
		Gamma:   NewParameter("gamma", gamma),
		Beta:    NewParameter("beta", beta),
		Epsilon: epsilon,
		backend: backend,
	}
}

// Forward applies LayerNorm to the input tensor.
//
// Shapes:
//   - input: [..., any, d_model]
//   - output: [..., any, d_model]
//
// Algorithm:
//  1. Compute mean = mean(x) along last dimension (keepdim=true)
//  2. Subtract mean: x_centered = x - mean
//  3. Compute variance = mean((x - mean)^2) along last dimension
//  4. Normalize: x_norm = x_centered * rsqrt(variance + epsilon)
//  5. Scale and shift: output = gamma * x_norm + beta
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// Mean along the last dimension, kept for broadcasting
	mean := x.MeanDim(-1, true)
	xCentered := x.Sub(mean)

	// Biased variance, as in the reference formulation
	variance := xCentered.Mul(xCentered).MeanDim(-1, true)

	// 1 / sqrt(variance + eps)
	rsqrt := variance.AddScalar(l.Epsilon).Rsqrt()
	xNorm := xCentered.Mul(rsqrt)

	// gamma and beta are [d_model]; unsqueeze so they broadcast over the
	// leading dimensions of the input
	gammaUnsqueezed := l.Gamma.Tensor()
	betaUnsqueezed := l.Beta.Tensor()
	for i := 0; i < len(x.Shape())-1; i++ {
		gammaUnsqueezed = gammaUnsqueezed.Unsqueeze(0)
		betaUnsqueezed = betaUnsqueezed.Unsqueeze(0)
	}

	return xNorm.Mul(gammaUnsqueezed).Add(betaUnsqueezed)
}

// Parameters returns the learnable parameters (gamma and beta).
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}

// StateDict returns a map of parameter names to raw tensors.
func (l *LayerNorm[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"gamma": l.Gamma.Tensor().Raw(),
		"beta":  l.Beta.Tensor().Raw(),
	}
}

// LoadStateDict loads parameters from a state dictionary.
func (l *LayerNorm[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	shape := l.Gamma.Tensor().Shape()
	if err := loadTensorData(stateDict, "gamma", shape, l.Gamma.Tensor().Data()); err != nil {
		return err
	}
	return loadTensorData(stateDict, "beta", shape, l.Beta.Tensor().Data())
}
