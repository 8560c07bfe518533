// Copyright 2025 Mnemo ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and retention building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Embedding, LayerNorm, RMSNorm, GroupNorm, Dropout
//   - Retention: RetentionParallel, RetentionRecurrent, MultiheadRetention
//   - Decoder stack: DecoderLayer, RetNet, StateCache
//   - Feed-forward: SwiGLUFFN
//   - Utilities: Module interface, Parameter, Save/Load
//   - Initialization: Xavier, XavierNormal, Zeros, Ones, Randn
//
// # Basic Usage
//
//	import (
//	    "github.com/mnemo-ml/mnemo/nn"
//	    "github.com/mnemo-ml/mnemo/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Build a small retention decoder
//	    model := nn.NewRetNet(nn.RetNetConfig{
//	        VocabSize: 1000,
//	        EmbedDim:  64,
//	        NumHeads:  4,
//	        NumLayers: 2,
//	    }, backend)
//
//	    // Parallel forward pass over a token batch
//	    logits := model.Forward(tokens)
//	}
//
// # Retention
//
// Retention replaces softmax attention with per-head exponential decay,
// which admits two numerically equivalent computation paths:
//
// Parallel (training-style, whole sequence at once):
//
//	out := nn.RetentionParallel(q, k, v, nil)  // [batch, heads, seq, dim]
//
// Recurrent (decoding, O(1) state per step):
//
//	state := nn.EmptyState[*cpu.CPUBackend]()
//	for t := 0; t < seqLen; t++ {
//	    out, state = nn.RetentionRecurrent(qt, kt, vt, state, nil)
//	}
//
// MultiheadRetention wraps the kernels with projections, group
// normalization and a swish gate:
//
//	msr := nn.NewMultiheadRetention(nn.MultiheadRetentionConfig{
//	    EmbedDim: 512,
//	    NumHeads: 8,
//	}, backend)
//	out := msr.Forward(x, x, x)
//
// # Layers
//
// Linear: Fully connected layer with Xavier initialization
//
//	layer := nn.NewLinear(inFeatures, outFeatures, backend)
//
// Embedding: Token-id lookup table
//
//	embed := nn.NewEmbedding(vocabSize, embedDim, backend)
//
// Normalization: LayerNorm, RMSNorm and GroupNorm
//
//	norm := nn.NewLayerNorm(512, 1e-5, backend)
//	gn := nn.NewGroupNorm(8, 8, 1e-6, false, backend)
//
// # Decoder Stack
//
// DecoderLayer composes pre-norm retention and a SwiGLU feed-forward
// with residual connections; RetNet stacks layers between an embedding
// and a vocabulary projection. Both expose a parallel Forward and a
// per-token ForwardRecurrent driven by a StateCache:
//
//	cache := nn.NewStateCache[*cpu.CPUBackend](model.NumLayers())
//	logits := model.ForwardRecurrent(tokens, cache)
//
// # Persistence
//
// Save and Load move module state dictionaries through the .mnemo
// container format:
//
//	err := nn.Save(model, "model.mnemo", "RetNet", nil)
//	header, err := nn.Load("model.mnemo", backend, model)
//
// # Parameter Management
//
// Access model parameters by name:
//
//	params := model.Parameters()
//	for _, param := range params {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
package nn
