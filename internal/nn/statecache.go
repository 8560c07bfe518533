package nn

import (
	"fmt"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// StateCache holds per-layer retention states for autoregressive decoding.
//
// Softmax attention needs a KV cache that grows with the sequence; retention
// replaces it with one fixed-size state per layer of shape
// [batch, heads, headDim, headDim], so decoding cost per token is O(1) in
// sequence length.
//
// Example:
//
//	cache := nn.NewStateCache[B](model.NumLayers())
//	for _, tok := range prompt {
//	    logits = model.ForwardRecurrent(tok, cache)
//	}
type StateCache[B tensor.Backend] struct {
	states []State[B] // One retention state per decoder layer
	steps  int        // Number of timesteps decoded so far
}

// NewStateCache creates a cache with one empty state per layer.
//
// Example:
//
//	cache := nn.NewStateCache[B](6) // 6 decoder layers
func NewStateCache[B tensor.Backend](numLayers int) *StateCache[B] {
	if numLayers <= 0 {
		panic(fmt.Sprintf("StateCache: numLayers must be positive, got %d", numLayers))
	}
	return &StateCache[B]{
		states: make([]State[B], numLayers),
		steps:  0,
	}
}

// Get returns the retention state for the given layer.
//
// Before the first timestep the state is empty.
func (c *StateCache[B]) Get(layer int) State[B] {
	if layer < 0 || layer >= len(c.states) {
		panic(fmt.Sprintf("StateCache: layer %d out of range [0, %d)", layer, len(c.states)))
	}
	return c.states[layer]
}

// Put stores the retention state for the given layer, replacing the
// previous one.
func (c *StateCache[B]) Put(layer int, s State[B]) {
	if layer < 0 || layer >= len(c.states) {
		panic(fmt.Sprintf("StateCache: layer %d out of range [0, %d)", layer, len(c.states)))
	}
	c.states[layer] = s
}

// Advance marks one decoded timestep. Call it after all layers have stored
// their updated states for the step.
func (c *StateCache[B]) Advance() {
	c.steps++
}

// Reset clears all states for a new sequence.
//
// After reset, every layer's state is empty and Len reports 0.
func (c *StateCache[B]) Reset() {
	for i := range c.states {
		c.states[i] = EmptyState[B]()
	}
	c.steps = 0
}

// Len returns the number of timesteps decoded into the cache.
func (c *StateCache[B]) Len() int {
	return c.steps
}

// NumLayers returns the number of layers the cache was created for.
func (c *StateCache[B]) NumLayers() int {
	return len(c.states)
}
