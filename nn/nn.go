// Copyright 2025 Mnemo ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/mnemo-ml/mnemo/internal/nn"
	"github.com/mnemo-ml/mnemo/tensor"
)

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Embedding represents a lookup table for embeddings.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates a new embedding layer.
//
// Example:
//
//	backend := cpu.New()
//	embed := nn.NewEmbedding[B](50000, 768, backend)  // vocab=50000, dim=768
//	tokenIds, _ := tensor.FromSlice([]int32{1, 5, 10}, tensor.Shape{1, 3}, backend)
//	embeddings := embed.Forward(tokenIds)  // [1, 3, 768]
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, backend)
}

// NewEmbeddingWithWeight creates an embedding layer from an existing weight tensor.
//
// This is useful when loading pre-trained embeddings.
//
// Example:
//
//	weights := tensor.Randn[float32](tensor.Shape{50000, 768}, backend)
//	embed := nn.NewEmbeddingWithWeight(weights)
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B]) *Embedding[B] {
	return nn.NewEmbeddingWithWeight(weight)
}

// Normalization

// LayerNorm represents Layer Normalization.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a new LayerNorm layer.
//
// Example:
//
//	backend := cpu.New()
//	norm := nn.NewLayerNorm[B](768, 1e-5, backend)
//	output := norm.Forward(input)  // [..., 768] -> [..., 768]
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(normalizedShape, epsilon, backend)
}

// RMSNorm represents Root Mean Square Layer Normalization.
type RMSNorm[B tensor.Backend] = nn.RMSNorm[B]

// NewRMSNorm creates a new RMSNorm layer.
//
// Example:
//
//	backend := cpu.New()
//	norm := nn.NewRMSNorm[B](768, 1e-5, backend)
//	output := norm.Forward(input)  // [..., 768] -> [..., 768]
func NewRMSNorm[B tensor.Backend](dModel int, epsilon float32, backend B) *RMSNorm[B] {
	return nn.NewRMSNorm(dModel, epsilon, backend)
}

// GroupNorm represents Group Normalization over the channel dimension.
type GroupNorm[B tensor.Backend] = nn.GroupNorm[B]

// NewGroupNorm creates a new GroupNorm layer.
//
// With numGroups == numChannels and affine == false it normalizes each
// channel independently, which is the configuration retention uses to
// normalize per-head outputs.
//
// Example:
//
//	backend := cpu.New()
//	gn := nn.NewGroupNorm[B](8, 8, 1e-6, false, backend)
func NewGroupNorm[B tensor.Backend](numGroups, numChannels int, epsilon float32, affine bool, backend B) *GroupNorm[B] {
	return nn.NewGroupNorm(numGroups, numChannels, epsilon, affine, backend)
}

// Dropout represents inverted dropout regularization.
//
// Dropout is active only in training mode; in eval mode (the default)
// Forward is the identity.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a new dropout layer with drop probability p.
//
// Example:
//
//	drop := nn.NewDropout[B](0.1)
//	drop.Train()
//	output := drop.Forward(input)
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	return nn.NewDropout[B](p)
}

// Feed-forward

// SwiGLUFFNConfig configures a SwiGLUFFN layer.
type SwiGLUFFNConfig = nn.SwiGLUFFNConfig

// SwiGLUFFN implements a feed-forward network with a gated activation
// (LLaMA-style SwiGLU by default).
type SwiGLUFFN[B tensor.Backend] = nn.SwiGLUFFN[B]

// NewSwiGLUFFN creates a new gated feed-forward network.
//
// Example:
//
//	ffn := nn.NewSwiGLUFFN(nn.SwiGLUFFNConfig{
//	    EmbedDim: 512,
//	    FFNDim:   1408,
//	}, backend)
//	output := ffn.Forward(x)  // [batch, seq, 512] -> [batch, seq, 512]
func NewSwiGLUFFN[B tensor.Backend](cfg SwiGLUFFNConfig, backend B) *SwiGLUFFN[B] {
	return nn.NewSwiGLUFFN(cfg, backend)
}

// Activation functions

// SigmoidFunc applies the sigmoid activation function element-wise.
// Sigmoid(x) = 1 / (1 + exp(-x)).
func SigmoidFunc[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return nn.SigmoidFunc(x)
}

// SiLUFunc applies the SiLU (swish) activation function element-wise.
// SiLU(x) = x * sigmoid(x).
func SiLUFunc[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return nn.SiLUFunc(x)
}

// GLU computes the gated linear unit x * sigmoid(gate).
func GLU[B tensor.Backend](x, gate *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return nn.GLU(x, gate)
}

// SwiGLU computes the swish-gated linear unit x * SiLU(gate).
func SwiGLU[B tensor.Backend](x, gate *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return nn.SwiGLU(x, gate)
}

// Initialization functions

// Xavier initializes a tensor using Xavier/Glorot uniform initialization.
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.Xavier(784, 128, tensor.Shape{128, 784}, backend)
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// XavierNormal initializes a tensor using Xavier/Glorot normal initialization.
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.XavierNormal(784, 128, tensor.Shape{128, 784}, backend)
func XavierNormal[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.XavierNormal(fanIn, fanOut, shape, backend)
}

// Zeros initializes a tensor with zeros (for biases).
//
// Example:
//
//	backend := cpu.New()
//	bias := nn.Zeros(tensor.Shape{128}, backend)
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones initializes a tensor with ones.
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.Ones(tensor.Shape{128, 784}, backend)
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Randn initializes a tensor with random values from N(0, 1).
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.Randn(tensor.Shape{128, 784}, backend)
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, backend)
}
