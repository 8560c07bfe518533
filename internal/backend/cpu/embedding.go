package cpu

import (
	"fmt"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// Embedding performs embedding lookup.
// weight: [numEmbeddings, embeddingDim]
// indices: any shape of int32 or int64 indices
// output: [...indices.shape, embeddingDim]
//
// Token IDs come out of the tokenizer as int32; int64 is accepted for
// callers that build index tensors by hand.
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	// Validate weight shape (must be 2D)
	weightShape := weight.Shape()
	if len(weightShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got shape %v", weightShape))
	}

	numEmbeddings := weightShape[0]
	embeddingDim := weightShape[1]

	// Flatten indices to a plain int slice
	var idx []int
	switch indices.DType() {
	case tensor.Int32:
		src := indices.AsInt32()
		idx = make([]int, len(src))
		for i, v := range src {
			idx[i] = int(v)
		}
	case tensor.Int64:
		src := indices.AsInt64()
		idx = make([]int, len(src))
		for i, v := range src {
			idx[i] = int(v)
		}
	default:
		panic(fmt.Sprintf("embedding: indices must be int32 or int64, got %s", indices.DType()))
	}

	// Output shape: [...indices.shape, embeddingDim]
	indicesShape := indices.Shape()
	outputShape := make(tensor.Shape, len(indicesShape)+1)
	copy(outputShape, indicesShape)
	outputShape[len(outputShape)-1] = embeddingDim

	result, err := tensor.NewRaw(outputShape, weight.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("embedding: failed to create result tensor: %v", err))
	}

	// Perform embedding lookup
	switch weight.DType() {
	case tensor.Float32:
		embeddingFloat32(result.AsFloat32(), weight.AsFloat32(), idx, numEmbeddings, embeddingDim)
	case tensor.Float64:
		embeddingFloat64(result.AsFloat64(), weight.AsFloat64(), idx, numEmbeddings, embeddingDim)
	default:
		panic(fmt.Sprintf("embedding: unsupported weight dtype %s", weight.DType()))
	}

	return result
}

func embeddingFloat32(dst, weight []float32, indices []int, numEmbeddings, embeddingDim int) {
	for i, idx := range indices {
		if idx < 0 || idx >= numEmbeddings {
			panic(fmt.Sprintf("embedding: index %d out of bounds [0, %d)", idx, numEmbeddings))
		}

		srcOffset := idx * embeddingDim
		dstOffset := i * embeddingDim
		copy(dst[dstOffset:dstOffset+embeddingDim], weight[srcOffset:srcOffset+embeddingDim])
	}
}

func embeddingFloat64(dst, weight []float64, indices []int, numEmbeddings, embeddingDim int) {
	for i, idx := range indices {
		if idx < 0 || idx >= numEmbeddings {
			panic(fmt.Sprintf("embedding: index %d out of bounds [0, %d)", idx, numEmbeddings))
		}

		srcOffset := idx * embeddingDim
		dstOffset := i * embeddingDim
		copy(dst[dstOffset:dstOffset+embeddingDim], weight[srcOffset:srcOffset+embeddingDim])
	}
}
