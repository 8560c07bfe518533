package cpu

import (
	"testing"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

func TestEmbedding_Basic(t *testing.T) {
	backend := New()

	// weight: [4 embeddings, 3 dims]
	weight, _ := tensor.NewRaw(tensor.Shape{4, 3}, tensor.Float32, backend.Device())
	copy(weight.AsFloat32(), []float32{
		0.0, 0.1, 0.2, // embedding 0
		1.0, 1.1, 1.2, // embedding 1
		2.0, 2.1, 2.2, // embedding 2
		3.0, 3.1, 3.2, // embedding 3
	})

	indices, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Int32, backend.Device())
	copy(indices.AsInt32(), []int32{2, 0, 3})

	result := backend.Embedding(weight, indices)

	if !result.Shape().Equal(tensor.Shape{3, 3}) {
		t.Fatalf("Expected shape [3, 3], got %v", result.Shape())
	}
	expected := []float32{
		2.0, 2.1, 2.2,
		0.0, 0.1, 0.2,
		3.0, 3.1, 3.2,
	}
	data := result.AsFloat32()
	for i, exp := range expected {
		if data[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, data[i])
		}
	}
}

func TestEmbedding_BatchedIndices(t *testing.T) {
	backend := New()

	// Token ID batches: [batch=2, seq=2] -> [2, 2, dim]
	weight, _ := tensor.NewRaw(tensor.Shape{3, 2}, tensor.Float32, backend.Device())
	copy(weight.AsFloat32(), []float32{
		10, 11,
		20, 21,
		30, 31,
	})

	indices, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Int32, backend.Device())
	copy(indices.AsInt32(), []int32{0, 2, 1, 1})

	result := backend.Embedding(weight, indices)

	if !result.Shape().Equal(tensor.Shape{2, 2, 2}) {
		t.Fatalf("Expected shape [2, 2, 2], got %v", result.Shape())
	}
	expected := []float32{
		10, 11, 30, 31, // batch 0: tokens 0, 2
		20, 21, 20, 21, // batch 1: tokens 1, 1
	}
	data := result.AsFloat32()
	for i, exp := range expected {
		if data[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, data[i])
		}
	}
}

func TestEmbedding_Int64Indices(t *testing.T) {
	backend := New()

	weight, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, backend.Device())
	copy(weight.AsFloat32(), []float32{1, 2, 3, 4})

	indices, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Int64, backend.Device())
	copy(indices.AsInt64(), []int64{1, 0})

	result := backend.Embedding(weight, indices)

	expected := []float32{3, 4, 1, 2}
	data := result.AsFloat32()
	for i, exp := range expected {
		if data[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, data[i])
		}
	}
}

func TestEmbedding_Float64Weight(t *testing.T) {
	backend := New()

	weight, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float64, backend.Device())
	copy(weight.AsFloat64(), []float64{1, 2, 3, 4, 5, 6})

	indices, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Int32, backend.Device())
	copy(indices.AsInt32(), []int32{1})

	result := backend.Embedding(weight, indices)

	if result.DType() != tensor.Float64 {
		t.Errorf("Expected Float64 output, got %v", result.DType())
	}
	expected := []float64{4, 5, 6}
	data := result.AsFloat64()
	for i, exp := range expected {
		if data[i] != exp {
			t.Errorf("Index %d: expected %v, got %v", i, exp, data[i])
		}
	}
}

func TestEmbedding_OutOfBoundsPanic(t *testing.T) {
	backend := New()

	weight, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, backend.Device())
	indices, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Int32, backend.Device())
	copy(indices.AsInt32(), []int32{5})

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for out-of-bounds index")
		}
	}()

	backend.Embedding(weight, indices)
}

func TestEmbedding_FloatIndicesPanic(t *testing.T) {
	backend := New()

	weight, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, backend.Device())
	indices, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, backend.Device())

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for float indices")
		}
	}()

	backend.Embedding(weight, indices)
}
