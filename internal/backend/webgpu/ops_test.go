//go:build windows

package webgpu

import (
	"math"
	"testing"

	"github.com/mnemo-ml/mnemo/internal/backend/cpu"
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// Helper to create a float32 tensor with given data.
func createTensor(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		t.Fatalf("failed to create tensor: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

// Helper to compare float32 slices with tolerance.
func compareSlices(t *testing.T, expected, actual []float32, tolerance float32) bool {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("length mismatch: expected %d, got %d", len(expected), len(actual))
		return false
	}
	for i := range expected {
		diff := expected[i] - actual[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Errorf("value mismatch at index %d: expected %f, got %f (diff: %f)", i, expected[i], actual[i], diff)
			return false
		}
	}
	return true
}

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}
	backend, err := New()
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	t.Cleanup(backend.Release)
	return backend
}

func TestAdd(t *testing.T) {
	backend := newTestBackend(t)

	// Test case: [1, 2, 3, 4] + [5, 6, 7, 8] = [6, 8, 10, 12]
	a := createTensor(t, tensor.Shape{4}, []float32{1, 2, 3, 4})
	b := createTensor(t, tensor.Shape{4}, []float32{5, 6, 7, 8})

	result := backend.Add(a, b)

	expected := []float32{6, 8, 10, 12}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestSub(t *testing.T) {
	backend := newTestBackend(t)

	// Test case: [10, 20, 30, 40] - [1, 2, 3, 4] = [9, 18, 27, 36]
	a := createTensor(t, tensor.Shape{4}, []float32{10, 20, 30, 40})
	b := createTensor(t, tensor.Shape{4}, []float32{1, 2, 3, 4})

	result := backend.Sub(a, b)

	expected := []float32{9, 18, 27, 36}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestMul(t *testing.T) {
	backend := newTestBackend(t)

	// Test case: [1, 2, 3, 4] * [2, 3, 4, 5] = [2, 6, 12, 20]
	a := createTensor(t, tensor.Shape{4}, []float32{1, 2, 3, 4})
	b := createTensor(t, tensor.Shape{4}, []float32{2, 3, 4, 5})

	result := backend.Mul(a, b)

	expected := []float32{2, 6, 12, 20}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestDiv(t *testing.T) {
	backend := newTestBackend(t)

	// Test case: [10, 20, 30, 40] / [2, 4, 5, 8] = [5, 5, 6, 5]
	a := createTensor(t, tensor.Shape{4}, []float32{10, 20, 30, 40})
	b := createTensor(t, tensor.Shape{4}, []float32{2, 4, 5, 8})

	result := backend.Div(a, b)

	expected := []float32{5, 5, 6, 5}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

// Broadcast shapes take the host path; values must match regardless.
func TestAddBroadcast(t *testing.T) {
	backend := newTestBackend(t)

	// [2, 3] + [3] broadcasts the row vector over both rows
	a := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := createTensor(t, tensor.Shape{3}, []float32{10, 20, 30})

	result := backend.Add(a, b)

	expected := []float32{11, 22, 33, 14, 25, 36}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)
}

func TestMatMul(t *testing.T) {
	backend := newTestBackend(t)

	// Test case: [2x3] @ [3x2] = [2x2]
	// A = [[1, 2, 3], [4, 5, 6]]
	// B = [[1, 2], [3, 4], [5, 6]]
	// C = [[1*1+2*3+3*5, 1*2+2*4+3*6], [4*1+5*3+6*5, 4*2+5*4+6*6]]
	//   = [[22, 28], [49, 64]]
	a := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := createTensor(t, tensor.Shape{3, 2}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.MatMul(a, b)

	expected := []float32{22, 28, 49, 64}
	compareSlices(t, expected, result.AsFloat32(), 1e-5)

	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Errorf("MatMul shape mismatch: expected [2,2], got %v", result.Shape())
	}
}

func TestLargeMatMul(t *testing.T) {
	backend := newTestBackend(t)

	// [64x64] of ones @ [64x64] of ones: every element should be 64
	size := 64
	ones := make([]float32, size*size)
	for i := range ones {
		ones[i] = 1.0
	}

	a := createTensor(t, tensor.Shape{size, size}, ones)
	b := createTensor(t, tensor.Shape{size, size}, ones)

	result := backend.MatMul(a, b)

	for i, v := range result.AsFloat32() {
		if math.Abs(float64(v-float32(size))) > 1e-3 {
			t.Errorf("Large MatMul failed at index %d: expected %d, got %f", i, size, v)
			break
		}
	}
}

// GPU batched matmul must agree with the host implementation.
func TestBatchMatMul3D(t *testing.T) {
	backend := newTestBackend(t)
	host := cpu.New()

	// [2, 2, 3] @ [2, 3, 2]
	aData := make([]float32, 12)
	bData := make([]float32, 12)
	for i := range aData {
		aData[i] = float32(i+1) * 0.5
		bData[i] = float32(12-i) * 0.25
	}

	a := createTensor(t, tensor.Shape{2, 2, 3}, aData)
	b := createTensor(t, tensor.Shape{2, 3, 2}, bData)

	gpuResult := backend.BatchMatMul(a, b)
	cpuResult := host.BatchMatMul(a, b)

	if !gpuResult.Shape().Equal(tensor.Shape{2, 2, 2}) {
		t.Errorf("BatchMatMul shape mismatch: expected [2,2,2], got %v", gpuResult.Shape())
	}
	compareSlices(t, cpuResult.AsFloat32(), gpuResult.AsFloat32(), 1e-4)
}

func TestBatchMatMul4D(t *testing.T) {
	backend := newTestBackend(t)
	host := cpu.New()

	// The retention hot path: [batch, heads, seq, dim] contractions
	batch, heads, seq, dim := 2, 2, 4, 8
	qData := make([]float32, batch*heads*seq*dim)
	kData := make([]float32, batch*heads*dim*seq)
	for i := range qData {
		qData[i] = float32(i%7) * 0.1
		kData[i] = float32(i%5) * 0.2
	}

	q := createTensor(t, tensor.Shape{batch, heads, seq, dim}, qData)
	k := createTensor(t, tensor.Shape{batch, heads, dim, seq}, kData)

	gpuResult := backend.BatchMatMul(q, k)
	cpuResult := host.BatchMatMul(q, k)

	if !gpuResult.Shape().Equal(tensor.Shape{batch, heads, seq, seq}) {
		t.Errorf("BatchMatMul shape mismatch: expected [%d,%d,%d,%d], got %v",
			batch, heads, seq, seq, gpuResult.Shape())
	}
	compareSlices(t, cpuResult.AsFloat32(), gpuResult.AsFloat32(), 1e-4)
}

func TestScalarOps(t *testing.T) {
	backend := newTestBackend(t)

	x := createTensor(t, tensor.Shape{4}, []float32{1, 2, 3, 4})

	mul := backend.MulScalar(x, float32(2.5))
	compareSlices(t, []float32{2.5, 5, 7.5, 10}, mul.AsFloat32(), 1e-6)

	add := backend.AddScalar(x, float32(1.5))
	compareSlices(t, []float32{2.5, 3.5, 4.5, 5.5}, add.AsFloat32(), 1e-6)

	sub := backend.SubScalar(x, float32(0.5))
	compareSlices(t, []float32{0.5, 1.5, 2.5, 3.5}, sub.AsFloat32(), 1e-6)

	div := backend.DivScalar(x, float32(2))
	compareSlices(t, []float32{0.5, 1, 1.5, 2}, div.AsFloat32(), 1e-6)
}

func TestDivScalarByZero(t *testing.T) {
	backend := newTestBackend(t)

	x := createTensor(t, tensor.Shape{2}, []float32{1, 2})

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for division by zero scalar")
		}
	}()
	backend.DivScalar(x, float32(0))
}

func TestUnaryOps(t *testing.T) {
	backend := newTestBackend(t)

	x := createTensor(t, tensor.Shape{3}, []float32{0.25, 1, 4})

	exp := backend.Exp(x).AsFloat32()
	logr := backend.Log(x).AsFloat32()
	sqrt := backend.Sqrt(x).AsFloat32()
	rsqrt := backend.Rsqrt(x).AsFloat32()

	for i, v := range []float32{0.25, 1, 4} {
		if math.Abs(float64(exp[i])-math.Exp(float64(v))) > 1e-4 {
			t.Errorf("Exp(%f): expected %f, got %f", v, math.Exp(float64(v)), exp[i])
		}
		if math.Abs(float64(logr[i])-math.Log(float64(v))) > 1e-4 {
			t.Errorf("Log(%f): expected %f, got %f", v, math.Log(float64(v)), logr[i])
		}
		if math.Abs(float64(sqrt[i])-math.Sqrt(float64(v))) > 1e-4 {
			t.Errorf("Sqrt(%f): expected %f, got %f", v, math.Sqrt(float64(v)), sqrt[i])
		}
		if math.Abs(float64(rsqrt[i])-1/math.Sqrt(float64(v))) > 1e-4 {
			t.Errorf("Rsqrt(%f): expected %f, got %f", v, 1/math.Sqrt(float64(v)), rsqrt[i])
		}
	}
}

func TestSoftmax(t *testing.T) {
	backend := newTestBackend(t)

	// Softmax([[1, 2, 3], [1, 1, 1]]) - should sum to 1 per row
	x := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 1, 1, 1})

	result := backend.Softmax(x, -1)
	actual := result.AsFloat32()

	sum1 := actual[0] + actual[1] + actual[2]
	sum2 := actual[3] + actual[4] + actual[5]

	if math.Abs(float64(sum1-1.0)) > 1e-5 {
		t.Errorf("Softmax row 1 doesn't sum to 1: %v (sum=%f)", actual[:3], sum1)
	}
	if math.Abs(float64(sum2-1.0)) > 1e-5 {
		t.Errorf("Softmax row 2 doesn't sum to 1: %v (sum=%f)", actual[3:6], sum2)
	}

	// Second row should be uniform distribution [1/3, 1/3, 1/3]
	expectedUniform := float32(1.0 / 3.0)
	for i := 3; i < 6; i++ {
		if math.Abs(float64(actual[i]-expectedUniform)) > 1e-5 {
			t.Errorf("Softmax uniform distribution failed at %d: expected %f, got %f", i, expectedUniform, actual[i])
		}
	}
}

// 3D inputs are flattened, run through the row shader, and reshaped back.
func TestSoftmax3D(t *testing.T) {
	backend := newTestBackend(t)

	x := createTensor(t, tensor.Shape{2, 2, 4}, []float32{
		1, 2, 3, 4,
		0, 0, 0, 0,
		-1, -2, -3, -4,
		5, 5, 5, 5,
	})

	result := backend.Softmax(x, -1)

	if !result.Shape().Equal(tensor.Shape{2, 2, 4}) {
		t.Fatalf("Softmax3D shape mismatch: got %v", result.Shape())
	}
	actual := result.AsFloat32()
	for row := 0; row < 4; row++ {
		var sum float32
		for c := 0; c < 4; c++ {
			sum += actual[row*4+c]
		}
		if math.Abs(float64(sum-1.0)) > 1e-5 {
			t.Errorf("Softmax3D row %d doesn't sum to 1: %f", row, sum)
		}
	}
}

// Softmax along a non-last dimension takes the host path.
func TestSoftmaxDim0(t *testing.T) {
	backend := newTestBackend(t)

	x := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.Softmax(x, 0)
	actual := result.AsFloat32()

	for col := 0; col < 3; col++ {
		sum := actual[col] + actual[3+col]
		if math.Abs(float64(sum-1.0)) > 1e-5 {
			t.Errorf("Softmax dim-0 column %d doesn't sum to 1: %f", col, sum)
		}
	}
}

func TestTranspose(t *testing.T) {
	backend := newTestBackend(t)

	// Transpose [2x3] to [3x2]
	// A = [[1, 2, 3], [4, 5, 6]]
	// A^T = [[1, 4], [2, 5], [3, 6]]
	a := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.Transpose(a)

	expected := []float32{1, 4, 2, 5, 3, 6}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("Transpose shape mismatch: expected [3,2], got %v", result.Shape())
	}
}

// 4D transpose covers the head split/merge layout used by retention.
func TestTranspose4D(t *testing.T) {
	backend := newTestBackend(t)

	// [batch=1, seq=2, heads=2, dim=2] -> [batch, heads, seq, dim]
	data := []float32{0, 1, 2, 3, 4, 5, 6, 7}
	a := createTensor(t, tensor.Shape{1, 2, 2, 2}, data)

	result := backend.Transpose(a, 0, 2, 1, 3)

	if !result.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
		t.Fatalf("Transpose4D shape mismatch: got %v", result.Shape())
	}
	// [0][s][h][d] = s*4 + h*2 + d maps to [0][h][s][d]
	expected := []float32{0, 1, 4, 5, 2, 3, 6, 7}
	compareSlices(t, expected, result.AsFloat32(), 0)
}

func TestReshape(t *testing.T) {
	backend := newTestBackend(t)

	a := createTensor(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.Reshape(a, tensor.Shape{3, 2})

	expected := []float32{1, 2, 3, 4, 5, 6}
	compareSlices(t, expected, result.AsFloat32(), 1e-6)

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("Reshape shape mismatch: expected [3,2], got %v", result.Shape())
	}
}

func TestLargeAdd(t *testing.T) {
	backend := newTestBackend(t)

	// Larger tensor exercises multiple workgroups (1024 elements = 4 groups)
	size := 1024
	aData := make([]float32, size)
	bData := make([]float32, size)
	expected := make([]float32, size)
	for i := 0; i < size; i++ {
		aData[i] = float32(i)
		bData[i] = float32(i * 2)
		expected[i] = float32(i * 3)
	}

	a := createTensor(t, tensor.Shape{size}, aData)
	b := createTensor(t, tensor.Shape{size}, bData)

	result := backend.Add(a, b)
	compareSlices(t, expected, result.AsFloat32(), 1e-5)
}
