// Copyright 2025 Mnemo ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/mnemo-ml/mnemo/internal/nn"
	"github.com/mnemo-ml/mnemo/tensor"
)

// RetNetConfig defines the configuration for a retention network.
type RetNetConfig = nn.RetNetConfig

// DecoderLayer is one pre-norm retention decoder block:
//
//	x → Norm → MSR → + → Norm → FFN → + → output
//	        ↑________|        ↑________|
//	      (residual)        (residual)
//
// MSR is multi-scale retention (see MultiheadRetention) in place of
// softmax self-attention; the FFN is SwiGLU-gated.
type DecoderLayer[B tensor.Backend] = nn.DecoderLayer[B]

// NewDecoderLayer creates one decoder layer from the network config.
//
// Example:
//
//	layer := nn.NewDecoderLayer[*cpu.CPUBackend](nn.RetNetConfig{
//	    EmbedDim: 64,
//	    NumHeads: 4,
//	}, backend)
//	out := layer.Forward(x)  // [batch, seq, 64] -> [batch, seq, 64]
func NewDecoderLayer[B tensor.Backend](config RetNetConfig, backend B) *DecoderLayer[B] {
	return nn.NewDecoderLayer(config, backend)
}

// RetNet is a retention-based decoder language model: token embedding,
// a stack of DecoderLayers, a final norm and a vocabulary projection.
//
// Forward runs the parallel path over [batch, seq] token ids and returns
// [batch, seq, vocab] logits. ForwardRecurrent consumes one token per
// sequence ([batch] ids) and threads per-layer retention states through a
// StateCache, returning [batch, vocab] logits for the next position.
type RetNet[B tensor.Backend] = nn.RetNet[B]

// NewRetNet creates a retention network from the config.
//
// Example:
//
//	model := nn.NewRetNet(nn.RetNetConfig{
//	    VocabSize: 50257,
//	    EmbedDim:  512,
//	    NumHeads:  8,
//	    NumLayers: 6,
//	}, backend)
func NewRetNet[B tensor.Backend](config RetNetConfig, backend B) *RetNet[B] {
	return nn.NewRetNet(config, backend)
}

// StateCache holds one retention State per decoder layer during recurrent
// decoding, plus the count of timesteps consumed so far.
//
// Example:
//
//	cache := nn.NewStateCache[*cpu.CPUBackend](model.NumLayers())
//	for _, tok := range prompt {
//	    logits = model.ForwardRecurrent(tok, cache)
//	}
type StateCache[B tensor.Backend] = nn.StateCache[B]

// NewStateCache creates an empty cache for numLayers decoder layers.
func NewStateCache[B tensor.Backend](numLayers int) *StateCache[B] {
	return nn.NewStateCache[B](numLayers)
}
