// Copyright 2025 Mnemo ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/mnemo-ml/mnemo/internal/nn"
	"github.com/mnemo-ml/mnemo/tensor"
)

// Layout selects how activation tensors are laid out in memory.
type Layout = nn.Layout

const (
	// BatchFirst lays activations out as [batch, seq, embed].
	BatchFirst = nn.BatchFirst
	// SeqFirst lays activations out as [seq, batch, embed]. Not implemented.
	SeqFirst = nn.SeqFirst
)

// State is the carried state of recurrent retention: one
// [batch, heads, keyDim, valueDim] tensor summarizing all past timesteps.
//
// The zero value (or EmptyState) denotes "no history"; passing it to
// RetentionRecurrent starts a fresh sequence.
type State[B tensor.Backend] = nn.State[B]

// EmptyState returns the empty retention state for the first timestep.
func EmptyState[B tensor.Backend]() State[B] {
	return nn.EmptyState[B]()
}

// NewState wraps a state tensor [batch, heads, keyDim, valueDim], e.g. one
// restored from a checkpoint, as a retention State.
func NewState[B tensor.Backend](t *tensor.Tensor[float32, B]) State[B] {
	return nn.NewState(t)
}

// DecayGammas returns the per-head decay coefficients [numHeads]: head h
// receives γ_h = 1 - exp(x_h) with x_h linearly interpolated over
// [log(1/32), log(1/512)], so different heads retain context over different
// effective horizons.
//
// Example:
//
//	gammas := nn.DecayGammas(8, backend)  // [8], ~0.969 .. ~0.998
func DecayGammas[B tensor.Backend](numHeads int, backend B) *tensor.Tensor[float32, B] {
	return nn.DecayGammas(numHeads, backend)
}

// DecayMask builds the lower-triangular decay mask [heads, queryLen, keyLen]
// with mask[h, i, j] = γ_h^(i-j) for j <= i and 0 above the diagonal.
//
// Example:
//
//	mask := nn.DecayMask(8, 8, gammas)  // [heads, 8, 8]
func DecayMask[B tensor.Backend](queryLen, keyLen int, gammas *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return nn.DecayMask(queryLen, keyLen, gammas)
}

// RetentionParallel computes decay-masked retention over a whole sequence:
//
//	Retention(Q, K, V) = (Q K^T ⊙ D) V
//
// where D is the DecayMask for the given gammas. Pass gammas == nil to
// derive them from the head count via DecayGammas.
//
// Shapes:
//   - query: [batch, heads, seqQ, keyDim]
//   - key: [batch, heads, seqK, keyDim]
//   - value: [batch, heads, seqK, valueDim]
//   - returns: [batch, heads, seqQ, valueDim]
//
// Example:
//
//	q := tensor.Randn[float32](tensor.Shape{1, 2, 8, 8}, backend)
//	k := tensor.Randn[float32](tensor.Shape{1, 2, 8, 8}, backend)
//	v := tensor.Randn[float32](tensor.Shape{1, 2, 8, 8}, backend)
//	out := nn.RetentionParallel(q, k, v, nil)  // [1, 2, 8, 8]
func RetentionParallel[B tensor.Backend](query, key, value, gammas *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return nn.RetentionParallel(query, key, value, gammas)
}

// RetentionParallelWithWeights computes parallel retention and additionally
// returns the decay-masked similarity matrix [batch, heads, seqQ, seqK].
func RetentionParallelWithWeights[B tensor.Backend](
	query, key, value, gammas *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	return nn.RetentionParallelWithWeights(query, key, value, gammas)
}

// RetentionRecurrent computes retention for a single timestep, carrying a
// compact state instead of attending over the whole history:
//
//	S_t = K_t ⊗ V_t + γ · S_{t-1}
//	out = Q_t · S_t
//
// Calling it T times in order, threading the returned state, matches the
// corresponding rows of RetentionParallel over the same inputs within
// float32 tolerance.
//
// Shapes:
//   - query, key: [batch, heads, keyDim] for the current timestep
//   - value: [batch, heads, valueDim]
//   - returns: the timestep output [batch, heads, valueDim] and the next state
//
// The previous state tensor is never mutated, so callers may keep it after
// the call (e.g., for speculative branches).
func RetentionRecurrent[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	prev State[B],
	gammas *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], State[B]) {
	return nn.RetentionRecurrent(query, key, value, prev, gammas)
}

// MultiheadRetentionConfig configures a MultiheadRetention module.
type MultiheadRetentionConfig = nn.MultiheadRetentionConfig

// MultiheadRetention implements multi-scale retention with parallel and
// recurrent forward paths:
//
//	MSR(X) = (GroupNorm(Retention(Q, K, V)) ⊙ SiLU(X W_G)) W_O
type MultiheadRetention[B tensor.Backend] = nn.MultiheadRetention[B]

// NewMultiheadRetention creates a new multi-head retention module.
//
// Example:
//
//	backend := cpu.New()
//	msr := nn.NewMultiheadRetention(nn.MultiheadRetentionConfig{
//	    EmbedDim: 512,
//	    NumHeads: 8,
//	}, backend)
//	out := msr.Forward(x, x, x)  // self-retention, [batch, seq, 512]
func NewMultiheadRetention[B tensor.Backend](cfg MultiheadRetentionConfig, backend B) *MultiheadRetention[B] {
	return nn.NewMultiheadRetention(cfg, backend)
}
