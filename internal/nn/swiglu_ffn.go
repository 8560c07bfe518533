package nn

import (
	"fmt"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

const (
	gluVariantSwiGLU = "swiglu"
	gluVariantGLU    = "glu"
)

// SwiGLUFFNConfig configures a SwiGLUFFN layer.
type SwiGLUFFNConfig struct {
	EmbedDim   int    // Model dimension (d_model).
	FFNDim     int    // Intermediate/hidden dimension; 0 selects 8/3 * EmbedDim.
	GLUVariant string // Variant: "swiglu" (default) or "glu".
	UseBias    bool   // Whether to use bias in linear layers.
}

// SwiGLUFFN implements a feed-forward network with a gated activation.
//
// Architecture (LLaMA-style):
//
//	hidden = SwiGLU(x @ W_up, x @ W_gate)
//	output = hidden @ W_down
//
// Where SwiGLU(up, gate) = up * SiLU(gate).
//
// Example:
//
//	cfg := nn.SwiGLUFFNConfig{
//	    EmbedDim: 512,
//	    FFNDim:   1408,
//	}
//	ffn := nn.NewSwiGLUFFN(cfg, backend)
//	output := ffn.Forward(x)  // [batch, seq, 512] -> [batch, seq, 512]
type SwiGLUFFN[B tensor.Backend] struct {
	gateProj *Linear[B] // d_model -> ffn_dim (gate projection)
	upProj   *Linear[B] // d_model -> ffn_dim (up projection)
	downProj *Linear[B] // ffn_dim -> d_model (down projection)

	config  SwiGLUFFNConfig
	backend B
}

// NewSwiGLUFFN creates a new SwiGLUFFN layer.
//
// If GLUVariant is empty, defaults to "swiglu".
// If FFNDim is 0, it's computed as 8/3 * EmbedDim rounded up to a
// multiple of 256 (LLaMA formula).
func NewSwiGLUFFN[B tensor.Backend](cfg SwiGLUFFNConfig, backend B) *SwiGLUFFN[B] {
	if cfg.EmbedDim <= 0 {
		panic(fmt.Sprintf("SwiGLUFFN: EmbedDim must be positive, got %d", cfg.EmbedDim))
	}

	if cfg.FFNDim <= 0 {
		cfg.FFNDim = (cfg.EmbedDim * 8 / 3)
		// Round to multiple of 256 for efficiency
		cfg.FFNDim = ((cfg.FFNDim + 255) / 256) * 256
	}

	if cfg.GLUVariant == "" {
		cfg.GLUVariant = gluVariantSwiGLU
	}

	switch cfg.GLUVariant {
	case gluVariantSwiGLU, gluVariantGLU:
		// Valid
	default:
		panic(fmt.Sprintf("SwiGLUFFN: unknown GLUVariant %q, expected swiglu/glu", cfg.GLUVariant))
	}

	var gateProj, upProj, downProj *Linear[B]
	if cfg.UseBias {
		gateProj = NewLinear[B](cfg.EmbedDim, cfg.FFNDim, backend)
		upProj = NewLinear[B](cfg.EmbedDim, cfg.FFNDim, backend)
		downProj = NewLinear[B](cfg.FFNDim, cfg.EmbedDim, backend)
	} else {
		gateProj = newLinearNoBias[B](cfg.EmbedDim, cfg.FFNDim, backend)
		upProj = newLinearNoBias[B](cfg.EmbedDim, cfg.FFNDim, backend)
		downProj = newLinearNoBias[B](cfg.FFNDim, cfg.EmbedDim, backend)
	}

	return &SwiGLUFFN[B]{
		gateProj: gateProj,
		upProj:   upProj,
		downProj: downProj,
		config:   cfg,
		backend:  backend,
	}
}

// Forward computes the FFN output.
//
// Input: [batch, seq_len, embed_dim] or [batch*seq_len, embed_dim].
// Output: same shape as input.
func (f *SwiGLUFFN[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	is3D := len(shape) == 3

	var batch, seq, embedDim int
	if is3D {
		batch = shape[0]
		seq = shape[1]
		embedDim = shape[2]
		// Reshape to 2D for linear layers
		x = x.Reshape(batch*seq, embedDim)
	}

	gate := f.gateProj.Forward(x)
	up := f.upProj.Forward(x)

	var hidden *tensor.Tensor[float32, B]
	switch f.config.GLUVariant {
	case gluVariantGLU:
		hidden = GLU(up, gate)
	default:
		hidden = SwiGLU(up, gate)
	}

	output := f.downProj.Forward(hidden)

	if is3D {
		output = output.Reshape(batch, seq, embedDim)
	}

	return output
}

// Parameters returns all trainable parameters.
func (f *SwiGLUFFN[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 6)
	params = append(params, f.gateProj.Parameters()...)
	params = append(params, f.upProj.Parameters()...)
	params = append(params, f.downProj.Parameters()...)
	return params
}

// GateProj returns the gate projection layer.
func (f *SwiGLUFFN[B]) GateProj() *Linear[B] {
	return f.gateProj
}

// UpProj returns the up projection layer.
func (f *SwiGLUFFN[B]) UpProj() *Linear[B] {
	return f.upProj
}

// DownProj returns the down projection layer.
func (f *SwiGLUFFN[B]) DownProj() *Linear[B] {
	return f.downProj
}

// StateDict returns a map of parameter names to raw tensors.
func (f *SwiGLUFFN[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	mergeStateDict(stateDict, "gateProj", f.gateProj.StateDict())
	mergeStateDict(stateDict, "upProj", f.upProj.StateDict())
	mergeStateDict(stateDict, "downProj", f.downProj.StateDict())
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
func (f *SwiGLUFFN[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := f.gateProj.LoadStateDict(subStateDict(stateDict, "gateProj")); err != nil {
		return fmt.Errorf("gateProj: %w", err)
	}
	if err := f.upProj.LoadStateDict(subStateDict(stateDict, "upProj")); err != nil {
		return fmt.Errorf("upProj: %w", err)
	}
	if err := f.downProj.LoadStateDict(subStateDict(stateDict, "downProj")); err != nil {
		return fmt.Errorf("downProj: %w", err)
	}
	return nil
}
