package nn

import (
	"fmt"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// Layout selects the activation memory layout a module accepts.
type Layout int

const (
	// BatchFirst lays activations out as [batch, seq, embed].
	BatchFirst Layout = iota
	// SeqFirst lays activations out as [seq, batch, embed]. Not implemented.
	SeqFirst
)

// defaultNormEps is the group-norm epsilon retention uses unless configured.
const defaultNormEps = 1e-6

// MultiheadRetentionConfig configures a MultiheadRetention module.
type MultiheadRetentionConfig struct {
	EmbedDim int     // Model dimension, split evenly across heads.
	NumHeads int     // Number of retention heads.
	Dropout  float32 // Dropout rate on the retention output (0 = no dropout).
	UseBias  bool    // Whether the five projections carry bias terms.
	Layout   Layout  // Activation layout; only BatchFirst is implemented.
	NormEps  float32 // Group-norm epsilon; 0 selects the 1e-6 default.
}

// fusedRetentionBackend is implemented by backends that provide a fused
// decay-retention kernel (the WebGPU backend).
type fusedRetentionBackend interface {
	FusedRetention(query, key, value, gammas *tensor.RawTensor) (*tensor.RawTensor, error)
}

// MultiheadRetention implements multi-scale retention with parallel and
// recurrent forward paths.
//
// Architecture:
//
//	MSR(X) = (GroupNorm(Retention(Q, K, V)) ⊙ SiLU(X W_G)) W_O
//	Q = X W_Q, K = X W_K, V = X W_V
//
// Retention mixes the sequence with per-head exponential decay instead of
// softmax attention, which admits an equivalent O(1)-per-step recurrent
// form (ForwardRecurrent) for decoding.
//
// Example:
//
//	msr := nn.NewMultiheadRetention(nn.MultiheadRetentionConfig{
//	    EmbedDim: 16,
//	    NumHeads: 2,
//	    UseBias:  true,
//	}, backend)
//	out := msr.Forward(x, x, x)  // [batch, seq, 16] -> [batch, seq, 16]
type MultiheadRetention[B tensor.Backend] struct {
	QProj   *Linear[B] // Query projection [embed, embed]
	KProj   *Linear[B] // Key projection [embed, embed]
	VProj   *Linear[B] // Value projection [embed, embed]
	GProj   *Linear[B] // Gate projection [embed, embed]
	OutProj *Linear[B] // Output projection [embed, embed]

	GroupNorm *GroupNorm[B] // Per-head normalization, groups = channels = heads, no affine
	Dropout   *Dropout[B]

	NumHeads int
	HeadDim  int
	EmbedDim int

	backend B
}

// NewMultiheadRetention creates a new multi-scale retention module.
//
// All five projection weights are initialized with Xavier-normal, biases
// (when enabled) with zeros.
//
// Construction panics on misconfiguration, before any data flows:
//   - Layout other than BatchFirst (sequence-first is not implemented)
//   - EmbedDim not divisible by NumHeads
//   - head dimension not divisible by 8
//   - head dimension larger than 128
func NewMultiheadRetention[B tensor.Backend](cfg MultiheadRetentionConfig, backend B) *MultiheadRetention[B] {
	if cfg.Layout != BatchFirst {
		panic("MultiheadRetention: sequence-first layout is not implemented, use BatchFirst")
	}
	if cfg.EmbedDim <= 0 || cfg.NumHeads <= 0 {
		panic(fmt.Sprintf("MultiheadRetention: embedDim and numHeads must be positive, got %d and %d",
			cfg.EmbedDim, cfg.NumHeads))
	}
	if cfg.EmbedDim%cfg.NumHeads != 0 {
		panic(fmt.Sprintf("MultiheadRetention: embedDim (%d) must be divisible by numHeads (%d)",
			cfg.EmbedDim, cfg.NumHeads))
	}
	headDim := cfg.EmbedDim / cfg.NumHeads
	if headDim%8 != 0 {
		panic(fmt.Sprintf("MultiheadRetention: headDim (%d) must be divisible by 8", headDim))
	}
	if headDim > 128 {
		panic(fmt.Sprintf("MultiheadRetention: headDim (%d) must be <= 128", headDim))
	}

	normEps := cfg.NormEps
	if normEps == 0 {
		normEps = defaultNormEps
	}

	return &MultiheadRetention[B]{
		QProj:     newProjection(cfg.EmbedDim, cfg.UseBias, backend),
		KProj:     newProjection(cfg.EmbedDim, cfg.UseBias, backend),
		VProj:     newProjection(cfg.EmbedDim, cfg.UseBias, backend),
		GProj:     newProjection(cfg.EmbedDim, cfg.UseBias, backend),
		OutProj:   newProjection(cfg.EmbedDim, cfg.UseBias, backend),
		GroupNorm: NewGroupNorm(cfg.NumHeads, cfg.NumHeads, normEps, false, backend),
		Dropout:   NewDropout[B](cfg.Dropout),
		NumHeads:  cfg.NumHeads,
		HeadDim:   headDim,
		EmbedDim:  cfg.EmbedDim,
		backend:   backend,
	}
}

// newProjection creates an embed→embed projection with Xavier-normal weights
// and zero bias, the initialization retention uses for all five projections.
func newProjection[B tensor.Backend](embedDim int, useBias bool, backend B) *Linear[B] {
	weightShape := tensor.Shape{embedDim, embedDim}
	weight := NewParameter("weight", XavierNormal(embedDim, embedDim, weightShape, backend))

	var bias *Parameter[B]
	if useBias {
		bias = NewParameter("bias", Zeros(tensor.Shape{embedDim}, backend))
	}

	return &Linear[B]{
		inFeatures:  embedDim,
		outFeatures: embedDim,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes retention over a full sequence (the parallel form).
//
// For self-retention pass the same tensor as query, key, and value.
//
// Args:
//   - query: [batch, seqQ, embedDim]
//   - key: [batch, seqK, embedDim]
//   - value: [batch, seqK, embedDim]
//
// Returns:
//   - output: [batch, seqQ, embedDim]
func (m *MultiheadRetention[B]) Forward(
	query, key, value *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	batch := query.Shape()[0]
	seqQ := query.Shape()[1]
	seqK := key.Shape()[1]

	// 1. Project and split heads: [batch, seq, embed] -> [batch, heads, seq, headDim]
	q := m.splitHeads(m.projectAndReshape(query, m.QProj, batch, seqQ), batch, seqQ)
	k := m.splitHeads(m.projectAndReshape(key, m.KProj, batch, seqK), batch, seqK)
	v := m.splitHeads(m.projectAndReshape(value, m.VProj, batch, seqK), batch, seqK)

	// 2. Retention kernel, fused when the backend provides one
	var ret *tensor.Tensor[float32, B]
	if fused, ok := any(m.backend).(fusedRetentionBackend); ok {
		gammas := DecayGammas(m.NumHeads, m.backend)
		raw, err := fused.FusedRetention(q.Raw(), k.Raw(), v.Raw(), gammas.Raw())
		if err != nil {
			panic("MultiheadRetention: fused retention failed: " + err.Error())
		}
		ret = tensor.New[float32, B](raw, m.backend)
	} else {
		ret = RetentionParallel(q, k, v, nil)
	}

	// 3. Normalize, gate, project
	return m.normalizeGateProject(ret, query, batch, seqQ)
}

// ForwardWithWeights computes parallel retention and additionally returns
// the decay-masked retention weights.
//
// Returns:
//   - output: [batch, seqQ, embedDim]
//   - weights: [batch, heads, seqQ, seqK]
func (m *MultiheadRetention[B]) ForwardWithWeights(
	query, key, value *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	batch := query.Shape()[0]
	seqQ := query.Shape()[1]
	seqK := key.Shape()[1]

	q := m.splitHeads(m.projectAndReshape(query, m.QProj, batch, seqQ), batch, seqQ)
	k := m.splitHeads(m.projectAndReshape(key, m.KProj, batch, seqK), batch, seqK)
	v := m.splitHeads(m.projectAndReshape(value, m.VProj, batch, seqK), batch, seqK)

	// The fused kernel does not materialize weights, so this path always
	// uses the composed kernel
	ret, weights := RetentionParallelWithWeights(q, k, v, nil)

	return m.normalizeGateProject(ret, query, batch, seqQ), weights
}

// ForwardRecurrent computes retention for a single timestep.
//
// Args:
//   - query: [batch, embedDim] for the current timestep
//   - key: [batch, embedDim]
//   - value: [batch, embedDim]
//   - prev: retention state from the previous timestep, EmptyState first
//
// Returns:
//   - output: [batch, embedDim]
//   - state: input for the next timestep
//
// With dropout disabled, decoding a sequence step by step through this
// method matches Forward over the whole sequence within float32 tolerance.
func (m *MultiheadRetention[B]) ForwardRecurrent(
	query, key, value *tensor.Tensor[float32, B],
	prev State[B],
) (*tensor.Tensor[float32, B], State[B]) {
	batch := query.Shape()[0]

	// 1. Project and split heads: [batch, embed] -> [batch, heads, headDim]
	q := m.QProj.Forward(query).Reshape(batch, m.NumHeads, m.HeadDim)
	k := m.KProj.Forward(key).Reshape(batch, m.NumHeads, m.HeadDim)
	v := m.VProj.Forward(value).Reshape(batch, m.NumHeads, m.HeadDim)

	// 2. Recurrent kernel
	ret, state := RetentionRecurrent(q, k, v, prev, nil)

	// 3. Dropout and per-head normalization on [batch, heads, headDim]
	ret = m.Dropout.Forward(ret)
	ret = m.GroupNorm.Forward(ret)

	// 4. Gate with SiLU of the raw query's gate projection, then project
	gate := SiLUFunc(m.GProj.Forward(query))
	out := m.OutProj.Forward(ret.Reshape(batch, m.EmbedDim).Mul(gate))

	return out, state
}

// normalizeGateProject folds the sequence axis into the batch axis, applies
// dropout and per-head group normalization, then gates with SiLU of the raw
// query's gate projection and applies the output projection.
//
// The fold makes the normalization statistics per-timestep; normalizing over
// the whole sequence would make each timestep's output depend on later
// timesteps and break the recurrent form.
func (m *MultiheadRetention[B]) normalizeGateProject(
	ret, rawQuery *tensor.Tensor[float32, B],
	batch, seq int,
) *tensor.Tensor[float32, B] {
	// [batch, heads, seq, headDim] -> [batch*seq, heads, headDim]
	ret = ret.Transpose(0, 2, 1, 3).Reshape(batch*seq, m.NumHeads, m.HeadDim)

	ret = m.Dropout.Forward(ret)
	ret = m.GroupNorm.Forward(ret)

	// Unfold: [batch*seq, heads, headDim] -> [batch, seq, embed]
	ret = ret.Reshape(batch, seq, m.EmbedDim)

	// Readout gate from the raw (pre-projection) query
	gate := SiLUFunc(m.projectAndReshape(rawQuery, m.GProj, batch, seq))
	gated := ret.Mul(gate)

	out2D := m.OutProj.Forward(gated.Reshape(batch*seq, m.EmbedDim))
	return out2D.Reshape(batch, seq, m.EmbedDim)
}

// projectAndReshape reshapes 3D input to 2D, applies the projection, and
// reshapes back to 3D.
func (m *MultiheadRetention[B]) projectAndReshape(
	input *tensor.Tensor[float32, B],
	proj *Linear[B],
	batch, seq int,
) *tensor.Tensor[float32, B] {
	out2D := proj.Forward(input.Reshape(batch*seq, m.EmbedDim))
	return out2D.Reshape(batch, seq, m.EmbedDim)
}

// splitHeads rearranges [batch, seq, embed] into [batch, heads, seq, headDim].
func (m *MultiheadRetention[B]) splitHeads(
	x *tensor.Tensor[float32, B],
	batch, seq int,
) *tensor.Tensor[float32, B] {
	return x.Reshape(batch, seq, m.NumHeads, m.HeadDim).Transpose(0, 2, 1, 3)
}

// Train enables dropout.
func (m *MultiheadRetention[B]) Train() {
	m.Dropout.Train()
}

// Eval disables dropout. Parallel/recurrent equivalence only holds in
// evaluation mode.
func (m *MultiheadRetention[B]) Eval() {
	m.Dropout.Eval()
}

// Parameters returns all trainable parameters of the five projections.
//
// The group normalization carries no affine parameters.
func (m *MultiheadRetention[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 10)
	params = append(params, m.QProj.Parameters()...)
	params = append(params, m.KProj.Parameters()...)
	params = append(params, m.VProj.Parameters()...)
	params = append(params, m.GProj.Parameters()...)
	params = append(params, m.OutProj.Parameters()...)
	return params
}

// StateDict returns a map of parameter names to raw tensors.
func (m *MultiheadRetention[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	mergeStateDict(stateDict, "qProj", m.QProj.StateDict())
	mergeStateDict(stateDict, "kProj", m.KProj.StateDict())
	mergeStateDict(stateDict, "vProj", m.VProj.StateDict())
	mergeStateDict(stateDict, "gProj", m.GProj.StateDict())
	mergeStateDict(stateDict, "outProj", m.OutProj.StateDict())
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
func (m *MultiheadRetention[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := m.QProj.LoadStateDict(subStateDict(stateDict, "qProj")); err != nil {
		return fmt.Errorf("qProj: %w", err)
	}
	if err := m.KProj.LoadStateDict(subStateDict(stateDict, "kProj")); err != nil {
		return fmt.Errorf("kProj: %w", err)
	}
	if err := m.VProj.LoadStateDict(subStateDict(stateDict, "vProj")); err != nil {
		return fmt.Errorf("vProj: %w", err)
	}
	if err := m.GProj.LoadStateDict(subStateDict(stateDict, "gProj")); err != nil {
		return fmt.Errorf("gProj: %w", err)
	}
	if err := m.OutProj.LoadStateDict(subStateDict(stateDict, "outProj")); err != nil {
		return fmt.Errorf("outProj: %w", err)
	}
	return nil
}
