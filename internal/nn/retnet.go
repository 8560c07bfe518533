package nn

import (
	"fmt"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// Normalizer is an interface for normalization layers (LayerNorm and RMSNorm).
//
// This allows DecoderLayer to work with both LayerNorm and RMSNorm
// without caring about the implementation details.
type Normalizer[B tensor.Backend] interface {
	Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*Parameter[B]
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// RetNetConfig defines the configuration for a retention network.
type RetNetConfig struct {
	VocabSize  int     // Token vocabulary size
	EmbedDim   int     // d_model: embedding dimension
	NumHeads   int     // Retention heads per layer
	NumLayers  int     // Number of decoder layers
	FFNDim     int     // FFN hidden dimension; 0 selects the SwiGLU default
	Dropout    float32 // Dropout rate on retention outputs (0 = no dropout)
	UseBias    bool    // Bias terms in the retention projections
	UseRMSNorm bool    // true = RMSNorm, false = LayerNorm
	NormEps    float32 // Normalization epsilon; 0 selects 1e-6
}

// DecoderLayer is one pre-norm retention decoder block.
//
// Architecture:
//
//	x → Norm → MSR → + → Norm → FFN → + → output
//	        ↑________|        ↑________|
//	      (residual)        (residual)
//
// MSR is multi-scale retention (see MultiheadRetention) in place of
// softmax self-attention; the FFN is SwiGLU-gated.
type DecoderLayer[B tensor.Backend] struct {
	RetentionNorm Normalizer[B]
	Retention     *MultiheadRetention[B]
	FFNNorm       Normalizer[B]
	FFN           *SwiGLUFFN[B]
	backend       B
}

// NewDecoderLayer creates one decoder layer from the network config.
func NewDecoderLayer[B tensor.Backend](config RetNetConfig, backend B) *DecoderLayer[B] {
	normEps := config.NormEps
	if normEps == 0 {
		normEps = defaultNormEps
	}

	var retNorm, ffnNorm Normalizer[B]
	if config.UseRMSNorm {
		retNorm = NewRMSNorm[B](config.EmbedDim, normEps, backend)
		ffnNorm = NewRMSNorm[B](config.EmbedDim, normEps, backend)
	} else {
		retNorm = NewLayerNorm[B](config.EmbedDim, normEps, backend)
		ffnNorm = NewLayerNorm[B](config.EmbedDim, normEps, backend)
	}

	retention := NewMultiheadRetention(MultiheadRetentionConfig{
		EmbedDim: config.EmbedDim,
		NumHeads: config.NumHeads,
		Dropout:  config.Dropout,
		UseBias:  config.UseBias,
		NormEps:  normEps,
	}, backend)

	ffn := NewSwiGLUFFN(SwiGLUFFNConfig{
		EmbedDim: config.EmbedDim,
		FFNDim:   config.FFNDim,
		UseBias:  config.UseBias,
	}, backend)

	return &DecoderLayer[B]{
		RetentionNorm: retNorm,
		Retention:     retention,
		FFNNorm:       ffnNorm,
		FFN:           ffn,
		backend:       backend,
	}
}

// Forward computes the layer output over a full sequence.
//
// Args:
//   - x: [batch, seq, embed_dim]
//
// Returns:
//   - output: [batch, seq, embed_dim]
func (l *DecoderLayer[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// 1. Retention block with residual
	normed := l.RetentionNorm.Forward(x)
	retOut := l.Retention.Forward(normed, normed, normed)
	x = x.Add(retOut)

	// 2. FFN block with residual
	normed = l.FFNNorm.Forward(x)
	ffnOut := l.FFN.Forward(normed)
	x = x.Add(ffnOut)

	return x
}

// ForwardRecurrent computes the layer output for one timestep.
//
// Args:
//   - x: [batch, embed_dim] for the current timestep
//   - prev: this layer's retention state from the previous timestep
//
// Returns:
//   - output: [batch, embed_dim]
//   - state: input for the next timestep
func (l *DecoderLayer[B]) ForwardRecurrent(
	x *tensor.Tensor[float32, B],
	prev State[B],
) (*tensor.Tensor[float32, B], State[B]) {
	normed := l.RetentionNorm.Forward(x)
	retOut, state := l.Retention.ForwardRecurrent(normed, normed, normed, prev)
	x = x.Add(retOut)

	normed = l.FFNNorm.Forward(x)
	x = x.Add(l.FFN.Forward(normed))

	return x, state
}

// Parameters returns all trainable parameters of the layer.
func (l *DecoderLayer[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 20)
	params = append(params, l.RetentionNorm.Parameters()...)
	params = append(params, l.Retention.Parameters()...)
	params = append(params, l.FFNNorm.Parameters()...)
	params = append(params, l.FFN.Parameters()...)
	return params
}

// StateDict returns a map of parameter names to raw tensors.
func (l *DecoderLayer[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	mergeStateDict(stateDict, "retentionNorm", l.RetentionNorm.StateDict())
	mergeStateDict(stateDict, "retention", l.Retention.StateDict())
	mergeStateDict(stateDict, "ffnNorm", l.FFNNorm.StateDict())
	mergeStateDict(stateDict, "ffn", l.FFN.StateDict())
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
func (l *DecoderLayer[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := l.RetentionNorm.LoadStateDict(subStateDict(stateDict, "retentionNorm")); err != nil {
		return fmt.Errorf("retentionNorm: %w", err)
	}
	if err := l.Retention.LoadStateDict(subStateDict(stateDict, "retention")); err != nil {
		return fmt.Errorf("retention: %w", err)
	}
	if err := l.FFNNorm.LoadStateDict(subStateDict(stateDict, "ffnNorm")); err != nil {
		return fmt.Errorf("ffnNorm: %w", err)
	}
	if err := l.FFN.LoadStateDict(subStateDict(stateDict, "ffn")); err != nil {
		return fmt.Errorf("ffn: %w", err)
	}
	return nil
}

// RetNet is a decoder-only retention network for autoregressive language
// modeling.
//
// Architecture:
//
//	tokens → Embedding → DecoderLayer × N → Norm → LMHead → logits
//
// The model has two forward paths with matching outputs:
//   - Forward processes a whole sequence in parallel (training, prefill)
//   - ForwardRecurrent processes one token at a time with O(1) state
//     per layer (decoding)
//
// Example:
//
//	model := nn.NewRetNet(nn.RetNetConfig{
//	    VocabSize: 32000,
//	    EmbedDim:  512,
//	    NumHeads:  8,
//	    NumLayers: 6,
//	}, backend)
//	logits := model.Forward(tokens)  // [batch, seq] -> [batch, seq, 32000]
type RetNet[B tensor.Backend] struct {
	Embedding *Embedding[B]
	Layers    []*DecoderLayer[B]
	Norm      Normalizer[B] // Final normalization before the head
	LMHead    *Linear[B]    // embed_dim -> vocab_size

	config  RetNetConfig
	backend B
}

// NewRetNet creates a retention network from the config.
//
// Layer-level validation (head divisibility, head dimension bounds) happens
// in NewMultiheadRetention.
func NewRetNet[B tensor.Backend](config RetNetConfig, backend B) *RetNet[B] {
	if config.VocabSize <= 0 {
		panic(fmt.Sprintf("RetNet: vocabSize must be positive, got %d", config.VocabSize))
	}
	if config.NumLayers <= 0 {
		panic(fmt.Sprintf("RetNet: numLayers must be positive, got %d", config.NumLayers))
	}

	normEps := config.NormEps
	if normEps == 0 {
		normEps = defaultNormEps
	}

	layers := make([]*DecoderLayer[B], config.NumLayers)
	for i := range layers {
		layers[i] = NewDecoderLayer(config, backend)
	}

	var norm Normalizer[B]
	if config.UseRMSNorm {
		norm = NewRMSNorm[B](config.EmbedDim, normEps, backend)
	} else {
		norm = NewLayerNorm[B](config.EmbedDim, normEps, backend)
	}

	return &RetNet[B]{
		Embedding: NewEmbedding[B](config.VocabSize, config.EmbedDim, backend),
		Layers:    layers,
		Norm:      norm,
		LMHead:    newLinearNoBias[B](config.EmbedDim, config.VocabSize, backend),
		config:    config,
		backend:   backend,
	}
}

// Forward computes next-token logits for a whole sequence (the parallel form).
//
// Args:
//   - indices: token ids [batch, seq]
//
// Returns:
//   - logits: [batch, seq, vocab_size]
func (m *RetNet[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	shape := indices.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("RetNet.Forward: indices must be 2D [batch, seq], got %v", shape))
	}
	batch, seq := shape[0], shape[1]

	h := m.Embedding.Forward(indices) // [batch, seq, embed]
	for _, layer := range m.Layers {
		h = layer.Forward(h)
	}
	h = m.Norm.Forward(h)

	logits := m.LMHead.Forward(h.Reshape(batch*seq, m.config.EmbedDim))
	return logits.Reshape(batch, seq, m.config.VocabSize)
}

// ForwardRecurrent computes next-token logits for one timestep, updating the
// per-layer retention states in the cache.
//
// Args:
//   - indices: token ids [batch] for the current timestep
//   - cache: retention states, created with NewStateCache(NumLayers())
//
// Returns:
//   - logits: [batch, vocab_size]
//
// Feeding a sequence token by token through this method produces the same
// logits as Forward over the whole sequence, within float32 tolerance, as
// long as dropout is disabled.
func (m *RetNet[B]) ForwardRecurrent(
	indices *tensor.Tensor[int32, B],
	cache *StateCache[B],
) *tensor.Tensor[float32, B] {
	shape := indices.Shape()
	if len(shape) != 1 {
		panic(fmt.Sprintf("RetNet.ForwardRecurrent: indices must be 1D [batch], got %v", shape))
	}
	if cache.NumLayers() != len(m.Layers) {
		panic(fmt.Sprintf("RetNet.ForwardRecurrent: cache has %d layers, model has %d",
			cache.NumLayers(), len(m.Layers)))
	}

	h := m.Embedding.Forward(indices) // [batch, embed]
	for i, layer := range m.Layers {
		var state State[B]
		h, state = layer.ForwardRecurrent(h, cache.Get(i))
		cache.Put(i, state)
	}
	h = m.Norm.Forward(h)
	cache.Advance()

	return m.LMHead.Forward(h)
}

// Train enables dropout in all layers.
func (m *RetNet[B]) Train() {
	for _, layer := range m.Layers {
		layer.Retention.Train()
	}
}

// Eval disables dropout in all layers. Decoding with ForwardRecurrent
// should run in evaluation mode.
func (m *RetNet[B]) Eval() {
	for _, layer := range m.Layers {
		layer.Retention.Eval()
	}
}

// NumLayers returns the number of decoder layers.
func (m *RetNet[B]) NumLayers() int {
	return len(m.Layers)
}

// Config returns the configuration the model was built with.
func (m *RetNet[B]) Config() RetNetConfig {
	return m.config
}

// Parameters returns all trainable parameters of the model.
func (m *RetNet[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 2+20*len(m.Layers))
	params = append(params, m.Embedding.Parameters()...)
	for _, layer := range m.Layers {
		params = append(params, layer.Parameters()...)
	}
	params = append(params, m.Norm.Parameters()...)
	params = append(params, m.LMHead.Parameters()...)
	return params
}

// StateDict returns a map of parameter names to raw tensors.
//
// Layer parameters are keyed "layers.<i>.<name>".
func (m *RetNet[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	mergeStateDict(stateDict, "embedding", m.Embedding.StateDict())
	for i, layer := range m.Layers {
		mergeStateDict(stateDict, fmt.Sprintf("layers.%d", i), layer.StateDict())
	}
	mergeStateDict(stateDict, "norm", m.Norm.StateDict())
	mergeStateDict(stateDict, "lmHead", m.LMHead.StateDict())
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
func (m *RetNet[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := m.Embedding.LoadStateDict(subStateDict(stateDict, "embedding")); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	for i, layer := range m.Layers {
		prefix := fmt.Sprintf("layers.%d", i)
		if err := layer.LoadStateDict(subStateDict(stateDict, prefix)); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
	}
	if err := m.Norm.LoadStateDict(subStateDict(stateDict, "norm")); err != nil {
		return fmt.Errorf("norm: %w", err)
	}
	if err := m.LMHead.LoadStateDict(subStateDict(stateDict, "lmHead")); err != nil {
		return fmt.Errorf("lmHead: %w", err)
	}
	return nil
}
