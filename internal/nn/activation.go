package nn

import (
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// SigmoidFunc applies the sigmoid activation: σ(x) = 1 / (1 + exp(-x)).
//
// Composed from backend primitives, so it runs on any backend. The IEEE
// limits are exact: exp(-x) overflowing to +Inf yields σ(x) = 0, and
// underflowing to 0 yields σ(x) = 1.
//
// Example:
//
//	output := nn.SigmoidFunc(input)
func SigmoidFunc[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	denom := x.MulScalar(-1).Exp().AddScalar(1)
	return tensor.Ones[float32](denom.Shape(), x.Backend()).Div(denom)
}

// SiLUFunc applies the SiLU (Swish) activation: f(x) = x * σ(x).
//
// SiLU gates the retention output (readout gate) and the SwiGLU
// feed-forward hidden state.
//
// Example:
//
//	output := nn.SiLUFunc(input)
func SiLUFunc[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Mul(SigmoidFunc(x))
}

// GLU applies the Gated Linear Unit: GLU(x, gate) = x * σ(gate).
//
// GLU is the base gating mechanism; SwiGLU is the variant used by the
// retention feed-forward layers.
//
// Parameters:
//   - x: input tensor.
//   - gate: gating tensor (same shape as x).
//
// Returns: x * sigmoid(gate).
func GLU[B tensor.Backend](x, gate *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Mul(SigmoidFunc(gate))
}

// SwiGLU applies the Swish-Gated Linear Unit: SwiGLU(x, gate) = x * SiLU(gate).
//
// Parameters:
//   - x: input tensor (typically the "up" projection).
//   - gate: gating tensor (typically the "gate" projection).
//
// Returns: x * SiLU(gate) where SiLU(z) = z * σ(z).
//
// Example:
//
//	// In a gated FFN:
//	up := upProj.Forward(input)
//	gate := gateProj.Forward(input)
//	hidden := nn.SwiGLU(up, gate)
func SwiGLU[B tensor.Backend](x, gate *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Mul(SiLUFunc(gate))
}
