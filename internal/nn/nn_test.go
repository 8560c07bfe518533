package nn_test

import (
	"math"
	"testing"

	"github.com/mnemo-ml/mnemo/internal/backend/cpu"
	"github.com/mnemo-ml/mnemo/internal/nn"
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// Helper to check if values are approximately equal.
//
//nolint:unparam // epsilon is always 1e-5 in tests, but keeping it as parameter for flexibility
func floatEqual(a, b, epsilon float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

// TestParameter tests Parameter creation and methods.
func TestParameter(t *testing.T) {
	backend := cpu.New()

	// Create a parameter
	data, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	param := nn.NewParameter("test_param", data)

	// Test Name
	if param.Name() != "test_param" {
		t.Errorf("Name() = %s, want test_param", param.Name())
	}

	// Test Tensor
	if param.Tensor() != data {
		t.Error("Tensor() should return the original tensor")
	}
}

// TestLinear_Creation tests Linear layer initialization.
func TestLinear_Creation(t *testing.T) {
	backend := cpu.New()

	layer := nn.NewLinear(10, 5, backend)

	// Check dimensions
	if layer.InFeatures() != 10 {
		t.Errorf("InFeatures() = %d, want 10", layer.InFeatures())
	}
	if layer.OutFeatures() != 5 {
		t.Errorf("OutFeatures() = %d, want 5", layer.OutFeatures())
	}

	// Check weight shape: [out_features, in_features]
	weight := layer.Weight().Tensor()
	expectedShape := tensor.Shape{5, 10}
	if !weight.Shape().Equal(expectedShape) {
		t.Errorf("Weight shape = %v, want %v", weight.Shape(), expectedShape)
	}

	// Check bias shape: [out_features]
	bias := layer.Bias().Tensor()
	expectedBiasShape := tensor.Shape{5}
	if !bias.Shape().Equal(expectedBiasShape) {
		t.Errorf("Bias shape = %v, want %v", bias.Shape(), expectedBiasShape)
	}

	// Check bias is zeros
	biasData := bias.Raw().AsFloat32()
	for i, v := range biasData {
		if v != 0 {
			t.Errorf("Bias[%d] = %f, want 0", i, v)
		}
	}

	// Check parameters
	params := layer.Parameters()
	if len(params) != 2 {
		t.Errorf("Parameters() length = %d, want 2", len(params))
	}
}

// TestLinear_Forward tests Linear layer forward pass.
func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()

	// Create a simple 2x2 linear layer for easy verification
	layer := nn.NewLinear(2, 2, backend)

	// Set known weights and bias for testing
	// Weight: [[1, 2], [3, 4]] (out=2, in=2)
	weightData := []float32{1, 2, 3, 4}
	copy(layer.Weight().Tensor().Raw().AsFloat32(), weightData)

	// Bias: [0.5, 1.0]
	biasData := []float32{0.5, 1.0}
	copy(layer.Bias().Tensor().Raw().AsFloat32(), biasData)

	// Input: [[1, 1]] (batch=1, in=2)
	input, _ := tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2}, backend)

	// Forward pass
	output := layer.Forward(input)

	// Expected:
	// y = x @ W.T + b
	// W.T = [[1, 3], [2, 4]] (transpose of [2,2])
	// x @ W.T = [1, 1] @ [[1, 3], [2, 4]] = [1*1+1*2, 1*3+1*4] = [3, 7]
	// y = [3, 7] + [0.5, 1.0] = [3.5, 8.0]

	expected := []float32{3.5, 8.0}
	actual := output.Raw().AsFloat32()

	for i, exp := range expected {
		if !floatEqual(actual[i], exp, 1e-5) {
			t.Errorf("Output[%d] = %f, want %f", i, actual[i], exp)
		}
	}

	// Check output shape: [1, 2]
	expectedShape := tensor.Shape{1, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape = %v, want %v", output.Shape(), expectedShape)
	}
}

// TestLinear_ForwardBatch tests Linear with batch input.
func TestLinear_ForwardBatch(t *testing.T) {
	backend := cpu.New()

	layer := nn.NewLinear(3, 2, backend)

	// Input: batch_size=4, in_features=3
	input := tensor.Randn[float32](tensor.Shape{4, 3}, backend)

	output := layer.Forward(input)

	// Check output shape: [4, 2]
	expectedShape := tensor.Shape{4, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape = %v, want %v", output.Shape(), expectedShape)
	}
}

// TestLinear_FeatureMismatch tests that Forward rejects wrong input width.
func TestLinear_FeatureMismatch(t *testing.T) {
	backend := cpu.New()

	layer := nn.NewLinear(3, 2, backend)
	input := tensor.Randn[float32](tensor.Shape{4, 5}, backend)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for input with 5 features on Linear(3, 2)")
		}
	}()

	layer.Forward(input)
}

// TestLinear_StateDictRoundTrip tests saving and loading Linear parameters.
func TestLinear_StateDictRoundTrip(t *testing.T) {
	backend := cpu.New()

	src := nn.NewLinear(4, 3, backend)
	dst := nn.NewLinear(4, 3, backend)

	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}

	srcW := src.Weight().Tensor().Data()
	dstW := dst.Weight().Tensor().Data()
	for i := range srcW {
		if srcW[i] != dstW[i] {
			t.Fatalf("Weight[%d] = %f after load, want %f", i, dstW[i], srcW[i])
		}
	}

	srcB := src.Bias().Tensor().Data()
	dstB := dst.Bias().Tensor().Data()
	for i := range srcB {
		if srcB[i] != dstB[i] {
			t.Fatalf("Bias[%d] = %f after load, want %f", i, dstB[i], srcB[i])
		}
	}
}

// TestLinear_LoadStateDict_Missing tests error on missing entries.
func TestLinear_LoadStateDict_Missing(t *testing.T) {
	backend := cpu.New()

	layer := nn.NewLinear(4, 3, backend)

	if err := layer.LoadStateDict(map[string]*tensor.RawTensor{}); err == nil {
		t.Error("Expected error for empty state dict, got nil")
	}
}

// TestInitialization tests Xavier initialization bounds.
func TestInitialization(t *testing.T) {
	backend := cpu.New()

	// Xavier initialization for fanIn=100, fanOut=50
	w := nn.Xavier(100, 50, tensor.Shape{50, 100}, backend)

	// Expected bound: sqrt(6 / (100 + 50)) ≈ 0.2
	expectedBound := math.Sqrt(6.0 / 150.0) // ≈ 0.2

	data := w.Raw().AsFloat32()

	// Check all values are within [-bound, bound]
	for i, val := range data {
		if math.Abs(float64(val)) > expectedBound {
			t.Errorf("Xavier init value[%d] = %f exceeds bound %f", i, val, expectedBound)
		}
	}
}

// TestXavierNormal tests Xavier-normal initialization statistics.
func TestXavierNormal(t *testing.T) {
	backend := cpu.New()

	// fanIn=200, fanOut=100: std = sqrt(2 / 300) ≈ 0.0816
	w := nn.XavierNormal(200, 100, tensor.Shape{100, 200}, backend)
	data := w.Raw().AsFloat32()

	expectedStd := math.Sqrt(2.0 / 300.0)

	var sum, sumSq float64
	for _, val := range data {
		v := float64(val)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("XavierNormal produced non-finite value %f", v)
		}
		sum += v
		sumSq += v * v
	}
	n := float64(len(data))
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)

	// With 20000 samples the estimates are tight; allow generous slack
	if math.Abs(mean) > 0.01 {
		t.Errorf("XavierNormal mean = %f, want ~0", mean)
	}
	if std < expectedStd*0.8 || std > expectedStd*1.2 {
		t.Errorf("XavierNormal std = %f, want ~%f", std, expectedStd)
	}
}
