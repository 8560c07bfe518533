package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-ml/mnemo/internal/backend/cpu"
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

type Backend = *cpu.CPUBackend

// sigmoid computes sigmoid for testing.
func sigmoid(x float32) float32 {
	return 1.0 / (1.0 + float32(math.Exp(float64(-x))))
}

// silu computes SiLU for testing.
func silu(x float32) float32 {
	return x * sigmoid(x)
}

// TestSigmoidFunc tests sigmoid on known values.
func TestSigmoidFunc(t *testing.T) {
	backend := cpu.New()

	inputData := []float32{-2.0, -1.0, 0.0, 1.0, 2.0}
	input, err := tensor.FromSlice[float32](inputData, tensor.Shape{5}, backend)
	require.NoError(t, err)

	output := SigmoidFunc(input)

	outputData := output.Data()
	for i, x := range inputData {
		assert.InDelta(t, sigmoid(x), outputData[i], 0.001, "Sigmoid mismatch at index %d", i)
	}
}

// TestSigmoidFunc_Extremes tests sigmoid saturation at large magnitudes.
//
// The composition 1 / (1 + exp(-x)) saturates cleanly in float32: exp
// overflows to +Inf for very negative x giving exactly 0, and underflows
// to 0 for very positive x giving exactly 1. No NaN in either direction.
func TestSigmoidFunc_Extremes(t *testing.T) {
	backend := cpu.New()

	input, err := tensor.FromSlice[float32](
		[]float32{-200.0, -30.0, 30.0, 200.0},
		tensor.Shape{4},
		backend,
	)
	require.NoError(t, err)

	output := SigmoidFunc(input)
	outputData := output.Data()

	for i, val := range outputData {
		if math.IsNaN(float64(val)) {
			t.Fatalf("Sigmoid produced NaN at index %d", i)
		}
		if val < 0 || val > 1 {
			t.Fatalf("Sigmoid out of [0, 1] at index %d: %v", i, val)
		}
	}

	if outputData[0] != 0 {
		t.Errorf("Sigmoid(-200) = %v, want exactly 0", outputData[0])
	}
	if outputData[1] > 1e-10 {
		t.Errorf("Sigmoid(-30) = %v, want < 1e-10", outputData[1])
	}
	if outputData[2] < 0.9999 {
		t.Errorf("Sigmoid(30) = %v, want > 0.9999", outputData[2])
	}
	if outputData[3] != 1 {
		t.Errorf("Sigmoid(200) = %v, want exactly 1", outputData[3])
	}
}

// TestSiLUFunc tests SiLU forward on known values.
func TestSiLUFunc(t *testing.T) {
	backend := cpu.New()

	// Test data: [-2, -1, 0, 1, 2]
	input, err := tensor.FromSlice[float32](
		[]float32{-2.0, -1.0, 0.0, 1.0, 2.0},
		tensor.Shape{5},
		backend,
	)
	require.NoError(t, err)

	output := SiLUFunc(input)

	// Expected: x * sigmoid(x)
	// For x=-2: -2 * sigmoid(-2) = -2 * 0.1192 ≈ -0.2384
	// For x=-1: -1 * sigmoid(-1) = -1 * 0.2689 ≈ -0.2689
	// For x=0:   0 * sigmoid(0)  = 0 * 0.5    = 0
	// For x=1:   1 * sigmoid(1)  = 1 * 0.7311 ≈ 0.7311
	// For x=2:   2 * sigmoid(2)  = 2 * 0.8808 ≈ 1.7616
	expected := []float32{-0.2384, -0.2689, 0.0, 0.7311, 1.7616}
	outputData := output.Data()

	for i, exp := range expected {
		got := outputData[i]
		if math.Abs(float64(got-exp)) > 0.001 {
			t.Errorf("SiLU(%v) = %v, expected %v", input.Data()[i], got, exp)
		}
	}
}

// TestSiLUFunc_Shape tests that SiLU preserves input shape.
func TestSiLUFunc_Shape(t *testing.T) {
	backend := cpu.New()

	input := tensor.Randn[float32](tensor.Shape{3, 4}, backend)
	output := SiLUFunc(input)

	if len(output.Shape()) != 2 || output.Shape()[0] != 3 || output.Shape()[1] != 4 {
		t.Errorf("SiLU changed shape: input %v -> output %v", input.Shape(), output.Shape())
	}
}

// TestSiLUFunc_Saturation tests SiLU behavior away from zero.
func TestSiLUFunc_Saturation(t *testing.T) {
	backend := cpu.New()

	input, err := tensor.FromSlice[float32]([]float32{-5.0, 0.0, 5.0}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	output := SiLUFunc(input)
	outputData := output.Data()

	// SiLU(-5) ≈ -5 * 0.0067 ≈ -0.0335
	if math.Abs(float64(outputData[0]+0.0335)) > 0.01 {
		t.Errorf("SiLU(-5.0) = %v, expected ≈ -0.0335", outputData[0])
	}
	// SiLU(0) = 0 * sigmoid(0) = 0
	if outputData[1] != 0.0 {
		t.Errorf("SiLU(0) = %v, expected 0.0", outputData[1])
	}
	// For large positive x, sigmoid(x) ≈ 1, so SiLU(x) ≈ x
	if math.Abs(float64(outputData[2]-4.966)) > 0.01 {
		t.Errorf("SiLU(5.0) = %v, expected ≈ 4.966", outputData[2])
	}
}

// TestGLU_Output tests GLU(x, gate) = x * sigmoid(gate).
func TestGLU_Output(t *testing.T) {
	backend := cpu.New()

	// Test data
	xData := []float32{1.0, 2.0, 3.0, 4.0}
	gateData := []float32{-1.0, 0.0, 1.0, 2.0}

	x, err := tensor.FromSlice[float32](xData, tensor.Shape{4}, backend)
	require.NoError(t, err)

	gate, err := tensor.FromSlice[float32](gateData, tensor.Shape{4}, backend)
	require.NoError(t, err)

	// Forward pass
	output := GLU(x, gate)

	// Expected: x * sigmoid(gate)
	expected := make([]float32, 4)
	for i := range xData {
		expected[i] = xData[i] * sigmoid(gateData[i])
	}

	outputData := output.Data()
	for i, exp := range expected {
		assert.InDelta(t, exp, outputData[i], 0.001, "GLU mismatch at index %d", i)
	}
}

// TestSwiGLU_Output tests SwiGLU(x, gate) = x * SiLU(gate).
func TestSwiGLU_Output(t *testing.T) {
	backend := cpu.New()

	// Test data
	xData := []float32{1.0, 2.0, 3.0, 4.0}
	gateData := []float32{-1.0, 0.0, 1.0, 2.0}

	x, err := tensor.FromSlice[float32](xData, tensor.Shape{4}, backend)
	require.NoError(t, err)

	gate, err := tensor.FromSlice[float32](gateData, tensor.Shape{4}, backend)
	require.NoError(t, err)

	// Forward pass
	output := SwiGLU(x, gate)

	// Expected: x * SiLU(gate)
	expected := make([]float32, 4)
	for i := range xData {
		expected[i] = xData[i] * silu(gateData[i])
	}

	outputData := output.Data()
	for i, exp := range expected {
		assert.InDelta(t, exp, outputData[i], 0.001, "SwiGLU mismatch at index %d", i)
	}
}

// BenchmarkSwiGLU benchmarks SwiGLU on a typical FFN activation size.
func BenchmarkSwiGLU(b *testing.B) {
	backend := cpu.New()
	x := tensor.Randn[float32](tensor.Shape{1024, 2048}, backend)
	gate := tensor.Randn[float32](tensor.Shape{1024, 2048}, backend)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = SwiGLU(x, gate)
	}
}

// BenchmarkSigmoidFunc benchmarks the composed sigmoid.
func BenchmarkSigmoidFunc(b *testing.B) {
	backend := cpu.New()
	input := tensor.Randn[float32](tensor.Shape{1024, 2048}, backend)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = SigmoidFunc(input)
	}
}
