package nn

import (
	"fmt"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// GroupNorm applies Group Normalization over the channel dimension.
//
// The channels of an input [batch, channels, ...] are divided into numGroups
// groups, and each group is normalized independently per sample:
//
//	Y = (X - mean) / sqrt(var + eps) * gamma + beta
//
// where mean and variance are computed over each group's channels together
// with any trailing dimensions. With affine disabled, gamma and beta are
// omitted entirely.
//
// Multi-head retention uses groups == channels == numHeads with affine
// disabled, which normalizes each head's features independently for every
// sample.
//
// Example:
//
//	backend := cpu.New()
//	norm := nn.NewGroupNorm(8, 8, 1e-6, false, backend)
//	output := norm.Forward(heads)  // [batch, 8, headDim] -> same shape
type GroupNorm[B tensor.Backend] struct {
	NumGroups   int
	NumChannels int
	Gamma       *Parameter[B] // learnable scale [channels], nil without affine
	Beta        *Parameter[B] // learnable shift [channels], nil without affine
	Epsilon     float32
	backend     B
}

// NewGroupNorm creates a new GroupNorm layer.
//
// Parameters:
//   - numGroups: number of groups to divide the channels into
//   - numChannels: expected size of the channel dimension (dim 1)
//   - epsilon: small constant for numerical stability
//   - affine: whether to learn per-channel scale and shift
//   - backend: computation backend
//
// Panics if numChannels is not divisible by numGroups.
func NewGroupNorm[B tensor.Backend](numGroups, numChannels int, epsilon float32, affine bool, backend B) *GroupNorm[B] {
	if numGroups <= 0 {
		panic(fmt.Sprintf("GroupNorm: numGroups must be positive, got %d", numGroups))
	}
	if numChannels%numGroups != 0 {
		panic(fmt.Sprintf("GroupNorm: numChannels (%d) must be divisible by numGroups (%d)",
			numChannels, numGroups))
	}

	g := &GroupNorm[B]{
		NumGroups:   numGroups,
		NumChannels: numChannels,
		Epsilon:     epsilon,
		backend:     backend,
	}

	if affine {
		g.Gamma = NewParameter("gamma", tensor.Ones[float32](tensor.Shape{numChannels}, backend))
		g.Beta = NewParameter("beta", tensor.Zeros[float32](tensor.Shape{numChannels}, backend))
	}

	return g
}

// Forward applies GroupNorm to the input tensor.
//
// Shapes:
//   - input: [batch, channels, ...] with channels == NumChannels
//   - output: same shape as input
//
// Statistics are computed per (sample, group) over the group's channels and
// all trailing dimensions, with biased variance.
func (g *GroupNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("GroupNorm.Forward: expected input [batch, channels, ...], got shape %v", shape))
	}
	if shape[1] != g.NumChannels {
		panic(fmt.Sprintf("GroupNorm.Forward: expected %d channels, got %d", g.NumChannels, shape[1]))
	}

	batch := shape[0]
	rest := 1
	for _, dim := range shape[2:] {
		rest *= dim
	}
	groupSize := (g.NumChannels / g.NumGroups) * rest

	// Collapse each group into one axis so the reduction covers the group's
	// channels and all trailing dimensions at once
	grouped := x.Reshape(batch, g.NumGroups, groupSize)

	mean := grouped.MeanDim(-1, true)
	xCentered := grouped.Sub(mean)
	variance := xCentered.Mul(xCentered).MeanDim(-1, true)

	rsqrt := variance.AddScalar(g.Epsilon).Rsqrt()
	normalized := xCentered.Mul(rsqrt)

	out := normalized.Reshape(shape...)

	if g.Gamma != nil {
		// gamma and beta are [channels]; reshape to [1, channels, 1, ...]
		// so they broadcast over batch and trailing dimensions
		affineShape := make([]int, len(shape))
		for i := range affineShape {
			affineShape[i] = 1
		}
		affineShape[1] = g.NumChannels

		gamma := g.Gamma.Tensor().Reshape(affineShape...)
		beta := g.Beta.Tensor().Reshape(affineShape...)
		out = out.Mul(gamma).Add(beta)
	}

	return out
}

// Parameters returns the learnable parameters, empty without affine.
func (g *GroupNorm[B]) Parameters() []*Parameter[B] {
	if g.Gamma == nil {
		return []*Parameter[B]{}
	}
	return []*Parameter[B]{g.Gamma, g.Beta}
}

// StateDict returns a map of parameter names to raw tensors.
//
// Without affine parameters the map is empty.
func (g *GroupNorm[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	if g.Gamma != nil {
		stateDict["gamma"] = g.Gamma.Tensor().Raw()
		stateDict["beta"] = g.Beta.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
func (g *GroupNorm[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if g.Gamma == nil {
		return nil
	}
	shape := tensor.Shape{g.NumChannels}
	if err := loadTensorData(stateDict, "gamma", shape, g.Gamma.Tensor().Data()); err != nil {
		return err
	}
	return loadTensorData(stateDict, "beta", shape, g.Beta.Tensor().Data())
}
