package nn

import (
	"fmt"
	"math"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// DecayGammas returns the per-head decay coefficients for retention.
//
// Head h receives γ_h = 1 - exp(x_h) with x_h linearly interpolated over
// [log(1/32), log(1/512)]. Every coefficient lies strictly inside (0, 1),
// and with two or more heads they are pairwise distinct, so different heads
// retain context over different effective horizons.
//
// Shape: [numHeads].
//
// Example:
//
//	gammas := nn.DecayGammas(8, backend)  // [8], ~0.969 .. ~0.998
func DecayGammas[B tensor.Backend](numHeads int, backend B) *tensor.Tensor[float32, B] {
	if numHeads < 1 {
		panic(fmt.Sprintf("DecayGammas: numHeads must be >= 1, got %d", numHeads))
	}

	xMin := float32(math.Log(1.0 / 32.0))
	xMax := float32(math.Log(1.0 / 512.0))

	x := tensor.Linspace[float32](xMin, xMax, numHeads, backend)

	// γ = 1 - exp(x)
	return x.Exp().MulScalar(-1).AddScalar(1)
}

// DecayMask builds the decay mask D of shape [heads, queryLen, keyLen] with
//
//	D[h,i,j] = γ_h^(i-j)  for j <= i
//	D[h,i,j] = 0          for j > i
//
// Entries on and below the diagonal are computed directly; future positions
// stay at zero, which removes them from the retention sum. The diagonal is
// always exactly 1. Query and key lengths may differ.
func DecayMask[B tensor.Backend](queryLen, keyLen int, gammas *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if queryLen < 1 || keyLen < 1 {
		panic(fmt.Sprintf("DecayMask: lengths must be >= 1, got queryLen=%d keyLen=%d", queryLen, keyLen))
	}
	gammaShape := gammas.Shape()
	if len(gammaShape) != 1 {
		panic(fmt.Sprintf("DecayMask: gammas must be 1D [numHeads], got shape %v", gammaShape))
	}

	numHeads := gammaShape[0]
	gammaData := gammas.Data()

	maskData := make([]float32, numHeads*queryLen*keyLen)
	for h := 0; h < numHeads; h++ {
		gamma := gammaData[h]
		base := h * queryLen * keyLen
		for i := 0; i < queryLen; i++ {
			row := base + i*keyLen
			// Walk outward from the diagonal, accumulating γ^(i-j)
			pw := float32(1.0)
			for j := i; j >= 0; j-- {
				if j < keyLen {
					maskData[row+j] = pw
				}
				pw *= gamma
			}
		}
	}

	mask, err := tensor.FromSlice[float32, B](maskData, tensor.Shape{numHeads, queryLen, keyLen}, gammas.Backend())
	if err != nil {
		panic(fmt.Sprintf("DecayMask: failed to create mask: %v", err))
	}
	return mask
}

// State carries the recurrent retention state S_t between timesteps.
//
// The empty state precedes the first timestep of a sequence. The recurrent
// kernel never keeps state internally; callers own it across the decoding
// loop and must reset to EmptyState before an unrelated sequence.
//
// State tensor shape: [batch, heads, keyDim, valueDim].
type State[B tensor.Backend] struct {
	tensor *tensor.Tensor[float32, B]
}

// EmptyState returns the state used before the first timestep.
func EmptyState[B tensor.Backend]() State[B] {
	return State[B]{}
}

// NewState wraps an existing state tensor.
//
// The tensor must be 4D [batch, heads, keyDim, valueDim]. Use this to resume
// decoding from a persisted state.
func NewState[B tensor.Backend](t *tensor.Tensor[float32, B]) State[B] {
	if len(t.Shape()) != 4 {
		panic(fmt.Sprintf("NewState: state must be 4D [batch, heads, keyDim, valueDim], got shape %v", t.Shape()))
	}
	return State[B]{tensor: t}
}

// Empty reports whether the state precedes the first timestep.
func (s State[B]) Empty() bool {
	return s.tensor == nil
}

// Tensor returns the state tensor, nil when empty.
func (s State[B]) Tensor() *tensor.Tensor[float32, B] {
	return s.tensor
}

// RetentionParallel computes retention over a whole sequence at once.
//
// Retention replaces softmax attention with a decay-weighted similarity:
//
//	Retention(Q, K, V) = (Q K^T ⊙ D) V
//
// where D is the decay mask from DecayMask. There is no softmax and no
// 1/sqrt(d) scaling, so the similarity magnitude grows with sequence length;
// extremely long sequences can exceed the float32 range.
//
// Parameters:
//   - query: [batch, heads, seqQ, keyDim]
//   - key: [batch, heads, seqK, keyDim]
//   - value: [batch, heads, seqK, valueDim]
//   - gammas: per-head decay coefficients [heads], or nil to derive them
//     with DecayGammas from the query's head count
//
// Returns the retention output [batch, heads, seqQ, valueDim].
//
// Example:
//
//	q := tensor.Randn[float32](tensor.Shape{1, 2, 8, 8}, backend)
//	k := tensor.Randn[float32](tensor.Shape{1, 2, 8, 8}, backend)
//	v := tensor.Randn[float32](tensor.Shape{1, 2, 8, 8}, backend)
//	out := nn.RetentionParallel(q, k, v, nil)  // [1, 2, 8, 8]
func RetentionParallel[B tensor.Backend](query, key, value, gammas *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out, _ := RetentionParallelWithWeights(query, key, value, gammas)
	return out
}

// RetentionParallelWithWeights computes parallel retention and additionally
// returns the decay-masked similarity matrix [batch, heads, seqQ, seqK].
func RetentionParallelWithWeights[B tensor.Backend](
	query, key, value, gammas *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	validateRetentionParallelInputs(query, key, value)

	numHeads := query.Shape()[1]
	if gammas == nil {
		gammas = DecayGammas(numHeads, query.Backend())
	} else if len(gammas.Shape()) != 1 || gammas.Shape()[0] != numHeads {
		panic(fmt.Sprintf("RetentionParallel: gammas must have shape [%d], got %v", numHeads, gammas.Shape()))
	}

	seqQ := query.Shape()[2]
	seqK := key.Shape()[2]
	mask := DecayMask(seqQ, seqK, gammas)

	// 1. Similarity: Q @ K^T -> [batch, heads, seqQ, seqK]
	kT := key.Transpose(0, 1, 3, 2)
	sim := query.BatchMatMul(kT)

	// 2. Decay: broadcast the [heads, seqQ, seqK] mask over the batch
	sim = sim.Mul(mask.Unsqueeze(0))

	// 3. Output: masked similarity @ V
	out := sim.BatchMatMul(value)

	return out, sim
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
// Parameters:
//   - query: [batch, heads, keyDim] for the current timestep
//   - key: [batch, heads, keyDim]
//   - value: [batch, heads, valueDim]
//   - prev: state from the previous timestep, EmptyState for the first
//   - gammas: per-head decay coefficients [heads], or nil to derive them
//
// Returns the timestep output [batch, heads, valueDim] and the next state.
// The previous state tensor is never mutated, so callers may keep it after
// the call (e.g., for speculative branches).
func RetentionRecurrent[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	prev State[B],
	gammas *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], State[B]) {
	validateRetentionRecurrentInputs(query, key, value)

	batch := query.Shape()[0]
	numHeads := query.Shape()[1]
	keyDim := key.Shape()[2]
	valueDim := value.Shape()[2]

	if gammas == nil {
		gammas = DecayGammas(numHeads, query.Backend())
	} else if len(gammas.Shape()) != 1 || gammas.Shape()[0] != numHeads {
		panic(fmt.Sprintf("RetentionRecurrent: gammas must have shape [%d], got %v", numHeads, gammas.Shape()))
	}

	// 1. Outer product K ⊗ V:
	// [batch, heads, keyDim, 1] @ [batch, heads, 1, valueDim] -> [batch, heads, keyDim, valueDim]
	kv := key.Unsqueeze(3).BatchMatMul(value.Unsqueeze(2))

	// 2. State update: S_t = K⊗V + γ·S_{t-1}, or plain K⊗V on the first step
	state := kv
	if !prev.Empty() {
		prevTensor := prev.Tensor()
		expected := tensor.Shape{batch, numHeads, keyDim, valueDim}
		if !prevTensor.Shape().Equal(expected) {
			panic(fmt.Sprintf("RetentionRecurrent: state shape mismatch: expected %v, got %v",
				expected, prevTensor.Shape()))
		}

		// γ broadcasts over batch and both state axes: [heads] -> [1, heads, 1, 1]
		gamma := gammas.Unsqueeze(0).Unsqueeze(2).Unsqueeze(3)
		state = kv.Add(prevTensor.Mul(gamma))
	}

	// 3. Readout: Q·S_t via [batch, heads, 1, keyDim] @ [batch, heads, keyDim, valueDim]
	out := query.Unsqueeze(2).BatchMatMul(state).Squeeze(2)

	return out, State[B]{tensor: state}
}

// validateRetentionParallelInputs validates the input tensors for the
// parallel retention kernel.
func validateRetentionParallelInputs[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
) {
	if len(query.Shape()) != 4 {
		panic("RetentionParallel: query must be 4D [batch, heads, seqQ, keyDim]")
	}
	if len(key.Shape()) != 4 {
		panic("RetentionParallel: key must be 4D [batch, heads, seqK, keyDim]")
	}
	if len(value.Shape()) != 4 {
		panic("RetentionParallel: value must be 4D [batch, heads, seqK, valueDim]")
	}

	// Q and K must share the key dimension
	if query.Shape()[3] != key.Shape()[3] {
		panic("RetentionParallel: query and key must have the same key dimension")
	}

	// K and V must cover the same sequence
	if key.Shape()[2] != value.Shape()[2] {
		panic("RetentionParallel: key and value must have the same sequence length")
	}
}

// validateRetentionRecurrentInputs validates the input tensors for the
// recurrent retention kernel.
func validateRetentionRecurrentInputs[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
) {
	if len(query.Shape()) != 3 {
		panic("RetentionRecurrent: query must be 3D [batch, heads, keyDim]")
	}
	if len(key.Shape()) != 3 {
		panic("RetentionRecurrent: key must be 3D [batch, heads, keyDim]")
	}
	if len(value.Shape()) != 3 {
		panic("RetentionRecurrent: value must be 3D [batch, heads, valueDim]")
	}

	if query.Shape()[2] != key.Shape()[2] {
		panic("RetentionRecurrent: query and key must have the same key dimension")
	}
}
