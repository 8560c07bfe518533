//go:build windows

package webgpu

import (
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// gpuElementwiseOK reports whether a binary element-wise op can run on GPU.
// The shaders handle float32 pairs of identical shape; broadcasting and
// other dtypes go to the host.
func gpuElementwiseOK(a, other *tensor.RawTensor) bool {
	return a.DType() == tensor.Float32 &&
		other.DType() == tensor.Float32 &&
		a.Shape().Equal(other.Shape())
}

// Add performs element-wise addition on GPU, falling back to the host for
// broadcast shapes.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuElementwiseOK(a, other) {
		return b.host.Add(a, other)
	}
	result, err := b.runBinaryOp(a, other, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction on GPU, falling back to the host for
// broadcast shapes.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuElementwiseOK(a, other) {
		return b.host.Sub(a, other)
	}
	result, err := b.runBinaryOp(a, other, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication on GPU, falling back to the host
// for broadcast shapes.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuElementwiseOK(a, other) {
		return b.host.Mul(a, other)
	}
	result, err := b.runBinaryOp(a, other, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// Div performs element-wise division on GPU, falling back to the host for
// broadcast shapes.
func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuElementwiseOK(a, other) {
		return b.host.Div(a, other)
	}
	result, err := b.runBinaryOp(a, other, "div", divShader)
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

// MatMul performs matrix multiplication on GPU.
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 {
		return b.host.MatMul(a, other)
	}
	result, err := b.runMatMul(a, other)
	if err != nil {
		panic("webgpu: MatMul: " + err.Error())
	}
	return result
}

// BatchMatMul performs batched matrix multiplication for 3D/4D tensors
// on GPU.
func (b *Backend) BatchMatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 {
		return b.host.BatchMatMul(a, other)
	}
	result, err := b.runBatchMatMul(a, other)
	if err != nil {
		panic("webgpu: BatchMatMul: " + err.Error())
	}
	return result
}

// Scalar operations run through runScalarOp. x - s and x / s reuse the add
// and mul shaders with a transformed scalar.

// MulScalar multiplies tensor elements by a scalar on GPU.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.host.MulScalar(x, scalar)
	}
	result, err := b.runScalarOp(x, toFloat32(scalar), "scalarMul", scalarMulShader)
	if err != nil {
		panic("webgpu: MulScalar: " + err.Error())
	}
	return result
}

// AddScalar adds a scalar to tensor elements on GPU.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.host.AddScalar(x, scalar)
	}
	result, err := b.runScalarOp(x, toFloat32(scalar), "scalarAdd", scalarAddShader)
	if err != nil {
		panic("webgpu: AddScalar: " + err.Error())
	}
	return result
}

// SubScalar subtracts a scalar from tensor elements on GPU.
func (b *Backend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.host.SubScalar(x, scalar)
	}
	result, err := b.runScalarOp(x, -toFloat32(scalar), "scalarAdd", scalarAddShader)
	if err != nil {
		panic("webgpu: SubScalar: " + err.Error())
	}
	return result
}

// DivScalar divides tensor elements by a scalar on GPU.
func (b *Backend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.host.DivScalar(x, scalar)
	}
	s := toFloat32(scalar)
	if s == 0 {
		panic("webgpu: DivScalar: division by zero")
	}
	result, err := b.runScalarOp(x, 1.0/s, "scalarMul", scalarMulShader)
	if err != nil {
		panic("webgpu: DivScalar: " + err.Error())
	}
	return result
}

// toFloat32 converts any numeric type to float32.
func toFloat32(v any) float32 {
	switch val := v.(type) {
	case float32:
		return val
	case float64:
		return float32(val)
	case int:
		return float32(val)
	case int32:
		return float32(val)
	case int64:
		return float32(val)
	default:
		panic("webgpu: unsupported scalar type")
	}
}

// Exp computes the exponential element-wise on GPU.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.host.Exp(x)
	}
	result, err := b.runUnaryOp(x, "exp", expShader)
	if err != nil {
		panic("webgpu: Exp: " + err.Error())
	}
	return result
}

// Log computes the natural logarithm element-wise on GPU.
func (b *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.host.Log(x)
	}
	result, err := b.runUnaryOp(x, "log", logShader)
	if err != nil {
		panic("webgpu: Log: " + err.Error())
	}
	return result
}

// Sqrt computes the square root element-wise on GPU.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.host.Sqrt(x)
	}
	result, err := b.runUnaryOp(x, "sqrt", sqrtShader)
	if err != nil {
		panic("webgpu: Sqrt: " + err.Error())
	}
	return result
}

// Rsqrt computes the reciprocal square root element-wise on GPU.
func (b *Backend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.host.Rsqrt(x)
	}
	result, err := b.runUnaryOp(x, "rsqrt", rsqrtShader)
	if err != nil {
		panic("webgpu: Rsqrt: " + err.Error())
	}
	return result
}

// Softmax applies softmax along the given dimension. The GPU path covers
// float32 along the last dimension: N-D inputs are flattened to 2D, run
// through the row-wise shader, and reshaped back.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim = ndim + dim
	}
	if x.DType() != tensor.Float32 || dim != ndim-1 {
		return b.host.Softmax(x, dim)
	}

	if ndim == 2 {
		result, err := b.runSoftmax(x)
		if err != nil {
			panic("webgpu: Softmax: " + err.Error())
		}
		return result
	}

	lastDim := shape[ndim-1]
	batchSize := 1
	for i := 0; i < ndim-1; i++ {
		batchSize *= shape[i]
	}

	flat := b.Reshape(x, tensor.Shape{batchSize, lastDim})
	result2D, err := b.runSoftmax(flat)
	if err != nil {
		panic("webgpu: Softmax: " + err.Error())
	}
	return b.Reshape(result2D, shape)
}

// The remaining ops move or select bytes rather than compute on them, so a
// GPU round trip has nothing to amortize. They run on the host backend.

// Reshape returns a tensor with a new shape.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return b.host.Reshape(t, newShape)
}

// Transpose permutes tensor dimensions.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return b.host.Transpose(t, axes...)
}

// Sum computes the total sum of all elements.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.host.Sum(x)
}

// SumDim sums along a dimension.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.host.SumDim(x, dim, keepDim)
}

// MeanDim averages along a dimension.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.host.MeanDim(x, dim, keepDim)
}

// Argmax returns the index of the maximum value along a dimension.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.host.Argmax(x, dim)
}

// Unsqueeze inserts a dimension of size 1.
func (b *Backend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.host.Unsqueeze(x, dim)
}

// Squeeze removes a dimension of size 1.
func (b *Backend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.host.Squeeze(x, dim)
}

// Cat concatenates tensors along a dimension.
func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.host.Cat(tensors, dim)
}

// Chunk splits a tensor into n equal parts along a dimension.
func (b *Backend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	return b.host.Chunk(x, n, dim)
}

// Embedding looks up embedding rows by index. The lookup is a pure copy and
// uploading the full weight matrix per call would dwarf it, so it stays on
// the host.
func (b *Backend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	return b.host.Embedding(weight, indices)
}
