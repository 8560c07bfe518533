package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It implements all operations naively against float64 working buffers,
// so results are easy to reason about but slow. Production code should
// use backend/cpu or backend/webgpu instead.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// toFloat64Slice converts tensor data to []float64 for naive computation.
func toFloat64Slice(t *RawTensor) []float64 {
	switch t.DType() {
	case Float32:
		src := t.AsFloat32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Float64:
		src := t.AsFloat64()
		dst := make([]float64, len(src))
		copy(dst, src)
		return dst
	case Int32:
		src := t.AsInt32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Int64:
		src := t.AsInt64()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	default:
		panic(fmt.Sprintf("mock: unsupported dtype %v", t.DType()))
	}
}

// fromFloat64Slice writes float64 values back into a tensor of any dtype.
func fromFloat64Slice(t *RawTensor, vals []float64) {
	switch t.DType() {
	case Float32:
		dst := t.AsFloat32()
		for i, v := range vals {
			dst[i] = float32(v)
		}
	case Float64:
		copy(t.AsFloat64(), vals)
	case Int32:
		dst := t.AsInt32()
		for i, v := range vals {
			dst[i] = int32(v)
		}
	case Int64:
		dst := t.AsInt64()
		for i, v := range vals {
			dst[i] = int64(v)
		}
	default:
		panic(fmt.Sprintf("mock: unsupported dtype %v", t.DType()))
	}
}

// mockScalarToFloat64 converts a scalar of any supported numeric type.
func mockScalarToFloat64(scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		panic(fmt.Sprintf("mock: unsupported scalar type %T", scalar))
	}
}

// mustNewRaw allocates a tensor or panics, for use inside backend ops.
func mustNewRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	t, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("mock: allocation failed: %v", err))
	}
	return t
}

// broadcastSourceIndex maps a linear index in the broadcast output shape back
// to the linear index in an input of shape inShape.
func broadcastSourceIndex(outIdx int, outShape, inShape Shape) int {
	offset := len(outShape) - len(inShape)
	strides := inShape.ComputeStrides()
	coords := make([]int, len(outShape))
	rem := outIdx
	for i := len(outShape) - 1; i >= 0; i-- {
		coords[i] = rem % outShape[i]
		rem /= outShape[i]
	}
	srcIdx := 0
	for i := range inShape {
		c := coords[i+offset]
		if inShape[i] == 1 {
			c = 0
		}
		srcIdx += c * strides[i]
	}
	return srcIdx
}

// elementWise applies fn to broadcast pairs of elements from a and b.
func (m *MockBackend) elementWise(op string, a, b *RawTensor, fn func(x, y float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	result := mustNewRaw(outShape, a.DType(), a.Device())
	av := toFloat64Slice(a)
	bv := toFloat64Slice(b)
	out := make([]float64, outShape.NumElements())
	for i := range out {
		x := av[broadcastSourceIndex(i, outShape, a.Shape())]
		y := bv[broadcastSourceIndex(i, outShape, b.Shape())]
		out[i] = fn(x, y)
	}
	fromFloat64Slice(result, out)
	return result
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise("add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise("sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise("mul", a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise("div", a, b, func(x, y float64) float64 { return x / y })
}

// MatMul performs 2D matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	if len(a.Shape()) != 2 || len(b.Shape()) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v and %v", a.Shape(), b.Shape()))
	}
	rows, k := a.Shape()[0], a.Shape()[1]
	k2, cols := b.Shape()[0], b.Shape()[1]
	if k != k2 {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch %d vs %d", k, k2))
	}
	result := mustNewRaw(Shape{rows, cols}, a.DType(), a.Device())
	av := toFloat64Slice(a)
	bv := toFloat64Slice(b)
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var sum float64
			for p := 0; p < k; p++ {
				sum += av[i*k+p] * bv[p*cols+j]
			}
			out[i*cols+j] = sum
		}
	}
	fromFloat64Slice(result, out)
	return result
}

// BatchMatMul performs batched matrix multiplication for 3D/4D tensors.
func (m *MockBackend) BatchMatMul(a, b *RawTensor) *RawTensor {
	as, bs := a.Shape(), b.Shape()
	if len(as) != len(bs) || (len(as) != 3 && len(as) != 4) {
		panic(fmt.Sprintf("batchmatmul: expected matching 3D or 4D tensors, got %v and %v", as, bs))
	}
	batch := 1
	for i := 0; i < len(as)-2; i++ {
		if as[i] != bs[i] {
			panic(fmt.Sprintf("batchmatmul: batch dimensions mismatch %v vs %v", as, bs))
		}
		batch *= as[i]
	}
	rows, k := as[len(as)-2], as[len(as)-1]
	k2, cols := bs[len(bs)-2], bs[len(bs)-1]
	if k != k2 {
		panic(fmt.Sprintf("batchmatmul: inner dimensions mismatch %d vs %d", k, k2))
	}
	outShape := make(Shape, len(as))
	copy(outShape, as)
	outShape[len(outShape)-1] = cols
	result := mustNewRaw(outShape, a.DType(), a.Device())
	av := toFloat64Slice(a)
	bv := toFloat64Slice(b)
	out := make([]float64, outShape.NumElements())
	for bi := 0; bi < batch; bi++ {
		ao := bi * rows * k
		bo := bi * k * cols
		co := bi * rows * cols
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				var sum float64
				for p := 0; p < k; p++ {
					sum += av[ao+i*k+p] * bv[bo+p*cols+j]
				}
				out[co+i*cols+j] = sum
			}
		}
	}
	fromFloat64Slice(result, out)
	return result
}

// Reshape returns a tensor with a new shape and the same element count.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if t.Shape().NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v to %v", t.Shape(), newShape))
	}
	result := mustNewRaw(newShape, t.DType(), t.Device())
	fromFloat64Slice(result, toFloat64Slice(t))
	return result
}

// Transpose permutes tensor dimensions. With no axes, reverses all dims.
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	nd := len(t.Shape())
	if len(axes) == 0 {
		axes = make([]int, nd)
		for i := range axes {
			axes[i] = nd - 1 - i
		}
	}
	if len(axes) != nd {
		panic(fmt.Sprintf("transpose: got %d axes for %dD tensor", len(axes), nd))
	}
	oldShape := t.Shape()
	newShape := make(Shape, nd)
	for i, ax := range axes {
		newShape[i] = oldShape[ax]
	}
	result := mustNewRaw(newShape, t.DType(), t.Device())
	src := toFloat64Slice(t)
	out := make([]float64, len(src))
	oldStrides := oldShape.ComputeStrides()
	coords := make([]int, nd)
	for i := range out {
		rem := i
		for d := nd - 1; d >= 0; d-- {
			coords[d] = rem % newShape[d]
			rem /= newShape[d]
		}
		srcIdx := 0
		for d := 0; d < nd; d++ {
			srcIdx += coords[d] * oldStrides[axes[d]]
		}
		out[i] = src[srcIdx]
	}
	fromFloat64Slice(result, out)
	return result
}

// scalarOp applies fn(x, scalar) element-wise.
func (m *MockBackend) scalarOp(x *RawTensor, scalar any, fn func(v, s float64) float64) *RawTensor {
	s := mockScalarToFloat64(scalar)
	result := mustNewRaw(x.Shape(), x.DType(), x.Device())
	vals := toFloat64Slice(x)
	for i := range vals {
		vals[i] = fn(vals[i], s)
	}
	fromFloat64Slice(result, vals)
	return result
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	return m.scalarOp(x, scalar, func(v, s float64) float64 { return v * s })
}

// AddScalar adds a scalar to every element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	return m.scalarOp(x, scalar, func(v, s float64) float64 { return v + s })
}

// SubScalar subtracts a scalar from every element.
func (m *MockBackend) SubScalar(x *RawTensor, scalar any) *RawTensor {
	return m.scalarOp(x, scalar, func(v, s float64) float64 { return v - s })
}

// DivScalar divides every element by a scalar.
func (m *MockBackend) DivScalar(x *RawTensor, scalar any) *RawTensor {
	return m.scalarOp(x, scalar, func(v, s float64) float64 { return v / s })
}

// unaryOp applies fn element-wise. Float dtypes only.
func (m *MockBackend) unaryOp(op string, x *RawTensor, fn func(v float64) float64) *RawTensor {
	if x.DType() != Float32 && x.DType() != Float64 {
		panic(fmt.Sprintf("%s: unsupported dtype %v", op, x.DType()))
	}
	result := mustNewRaw(x.Shape(), x.DType(), x.Device())
	vals := toFloat64Slice(x)
	for i := range vals {
		vals[i] = fn(vals[i])
	}
	fromFloat64Slice(result, vals)
	return result
}

// Exp computes e^x element-wise.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor {
	return m.unaryOp("exp", x, math.Exp)
}

// Log computes the natural logarithm element-wise.
func (m *MockBackend) Log(x *RawTensor) *RawTensor {
	return m.unaryOp("log", x, math.Log)
}

// Sqrt computes the square root element-wise.
func (m *MockBackend) Sqrt(x *RawTensor) *RawTensor {
	return m.unaryOp("sqrt", x, math.Sqrt)
}

// Rsqrt computes the reciprocal square root element-wise.
func (m *MockBackend) Rsqrt(x *RawTensor) *RawTensor {
	return m.unaryOp("rsqrt", x, func(v float64) float64 { return 1.0 / math.Sqrt(v) })
}

// Softmax computes softmax along the given dimension.
func (m *MockBackend) Softmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	nd := len(shape)
	if dim < 0 {
		dim += nd
	}
	if dim < 0 || dim >= nd {
		panic(fmt.Sprintf("softmax: dim %d out of range for %dD tensor", dim, nd))
	}
	result := mustNewRaw(shape, x.DType(), x.Device())
	vals := toFloat64Slice(x)
	out := make([]float64, len(vals))
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < nd; i++ {
		inner *= shape[i]
	}
	n := shape[dim]
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*n*inner + in
			maxVal := math.Inf(-1)
			for i := 0; i < n; i++ {
				if v := vals[base+i*inner]; v > maxVal {
					maxVal = v
				}
			}
			var sum float64
			for i := 0; i < n; i++ {
				e := math.Exp(vals[base+i*inner] - maxVal)
				out[base+i*inner] = e
				sum += e
			}
			for i := 0; i < n; i++ {
				out[base+i*inner] /= sum
			}
		}
	}
	fromFloat64Slice(result, out)
	return result
}

// Sum reduces all elements to a single-element tensor.
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	result := mustNewRaw(Shape{}, x.DType(), x.Device())
	var sum float64
	for _, v := range toFloat64Slice(x) {
		sum += v
	}
	fromFloat64Slice(result, []float64{sum})
	return result
}

// reduceDim folds along dim, optionally keeping the dimension.
func (m *MockBackend) reduceDim(op string, x *RawTensor, dim int, keepDim bool, mean bool) *RawTensor {
	shape := x.Shape()
	nd := len(shape)
	if dim < 0 {
		dim += nd
	}
	if dim < 0 || dim >= nd {
		panic(fmt.Sprintf("%s: dim %d out of range for %dD tensor", op, dim, nd))
	}
	outShape := make(Shape, 0, nd)
	for i, s := range shape {
		if i == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, s)
	}
	if len(outShape) == 0 {
		outShape = Shape{1}
	}
	result := mustNewRaw(outShape, x.DType(), x.Device())
	vals := toFloat64Slice(x)
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < nd; i++ {
		inner *= shape[i]
	}
	n := shape[dim]
	out := make([]float64, outer*inner)
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += vals[o*n*inner+i*inner+in]
			}
			if mean {
				sum /= float64(n)
			}
			out[o*inner+in] = sum
		}
	}
	fromFloat64Slice(result, out)
	return result
}

// SumDim sums along a dimension.
func (m *MockBackend) SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim("sum", x, dim, keepDim, false)
}

// MeanDim averages along a dimension.
func (m *MockBackend) MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim("mean", x, dim, keepDim, true)
}

// Argmax returns the index of the maximum value along dim as Int32.
func (m *MockBackend) Argmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	nd := len(shape)
	if dim < 0 {
		dim += nd
	}
	if dim < 0 || dim >= nd {
		panic(fmt.Sprintf("argmax: dim %d out of range for %dD tensor", dim, nd))
	}
	outShape := make(Shape, 0, nd)
	for i, s := range shape {
		if i != dim {
			outShape = append(outShape, s)
		}
	}
	result := mustNewRaw(outShape, Int32, x.Device())
	vals := toFloat64Slice(x)
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < nd; i++ {
		inner *= shape[i]
	}
	n := shape[dim]
	out := result.AsInt32()
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			best := 0
			bestVal := vals[o*n*inner+in]
			for i := 1; i < n; i++ {
				if v := vals[o*n*inner+i*inner+in]; v > bestVal {
					bestVal = v
					best = i
				}
			}
			out[o*inner+in] = int32(best)
		}
	}
	return result
}

// Unsqueeze inserts a dimension of size 1 at dim.
func (m *MockBackend) Unsqueeze(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	nd := len(shape)
	if dim < 0 {
		dim += nd + 1
	}
	if dim < 0 || dim > nd {
		panic(fmt.Sprintf("unsqueeze: dim %d out of range for %dD tensor", dim, nd))
	}
	newShape := make(Shape, 0, nd+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return m.Reshape(x, newShape)
}

// Squeeze removes a dimension of size 1 at dim.
func (m *MockBackend) Squeeze(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	nd := len(shape)
	if dim < 0 {
		dim += nd
	}
	if dim < 0 || dim >= nd {
		panic(fmt.Sprintf("squeeze: dim %d out of range for %dD tensor", dim, nd))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dim %d has size %d, expected 1", dim, shape[dim]))
	}
	newShape := make(Shape, 0, nd-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)
	if len(newShape) == 0 {
		newShape = Shape{1}
	}
	return m.Reshape(x, newShape)
}

// Cat concatenates tensors along the given dimension.
func (m *MockBackend) Cat(tensors []*RawTensor, dim int) *RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	first := tensors[0]
	nd := len(first.Shape())
	if dim < 0 {
		dim += nd
	}
	if dim < 0 || dim >= nd {
		panic(fmt.Sprintf("cat: dim %d out of range for %dD tensor", dim, nd))
	}
	catSize := 0
	for _, t := range tensors {
		ts := t.Shape()
		if len(ts) != nd {
			panic(fmt.Sprintf("cat: rank mismatch %v vs %v", first.Shape(), ts))
		}
		for i := range ts {
			if i != dim && ts[i] != first.Shape()[i] {
				panic(fmt.Sprintf("cat: shape mismatch %v vs %v at dim %d", first.Shape(), ts, i))
			}
		}
		catSize += ts[dim]
	}
	outShape := first.Shape().Clone()
	outShape[dim] = catSize
	result := mustNewRaw(outShape, first.DType(), first.Device())
	out := make([]float64, outShape.NumElements())

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= outShape[i]
	}
	inner := 1
	for i := dim + 1; i < nd; i++ {
		inner *= outShape[i]
	}
	rowLen := catSize * inner
	offset := 0
	for _, t := range tensors {
		vals := toFloat64Slice(t)
		n := t.Shape()[dim] * inner
		for o := 0; o < outer; o++ {
			copy(out[o*rowLen+offset:o*rowLen+offset+n], vals[o*n:(o+1)*n])
		}
		offset += n
	}
	fromFloat64Slice(result, out)
	return result
}

// Chunk splits a tensor into n equal parts along the given dimension.
func (m *MockBackend) Chunk(x *RawTensor, n, dim int) []*RawTensor {
	shape := x.Shape()
	nd := len(shape)
	if dim < 0 {
		dim += nd
	}
	if dim < 0 || dim >= nd {
		panic(fmt.Sprintf("chunk: dim %d out of range for %dD tensor", dim, nd))
	}
	if n <= 0 {
		panic(fmt.Sprintf("chunk: n must be positive, got %d", n))
	}
	if shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d size %d not divisible by %d", dim, shape[dim], n))
	}
	partShape := shape.Clone()
	partShape[dim] = shape[dim] / n

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	inner := 1
	for i := dim + 1; i < nd; i++ {
		inner *= shape[i]
	}
	rowLen := shape[dim] * inner
	partLen := partShape[dim] * inner

	vals := toFloat64Slice(x)
	parts := make([]*RawTensor, n)
	for p := 0; p < n; p++ {
		part := mustNewRaw(partShape, x.DType(), x.Device())
		out := make([]float64, partShape.NumElements())
		for o := 0; o < outer; o++ {
			copy(out[o*partLen:(o+1)*partLen], vals[o*rowLen+p*partLen:o*rowLen+(p+1)*partLen])
		}
		fromFloat64Slice(part, out)
		parts[p] = part
	}
	return parts
}

// Embedding looks up rows of weight by integer indices.
func (m *MockBackend) Embedding(weight, indices *RawTensor) *RawTensor {
	ws := weight.Shape()
	if len(ws) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got %v", ws))
	}
	vocab, embedDim := ws[0], ws[1]
	var idx []int
	switch indices.DType() {
	case Int32:
		src := indices.AsInt32()
		idx = make([]int, len(src))
		for i, v := range src {
			idx[i] = int(v)
		}
	case Int64:
		src := indices.AsInt64()
		idx = make([]int, len(src))
		for i, v := range src {
			idx[i] = int(v)
		}
	default:
		panic(fmt.Sprintf("embedding: indices must be integer dtype, got %v", indices.DType()))
	}
	outShape := make(Shape, 0, len(indices.Shape())+1)
	outShape = append(outShape, indices.Shape()...)
	outShape = append(outShape, embedDim)
	result := mustNewRaw(outShape, weight.DType(), weight.Device())
	wv := toFloat64Slice(weight)
	out := make([]float64, outShape.NumElements())
	for i, ix := range idx {
		if ix < 0 || ix >= vocab {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", ix, vocab))
		}
		copy(out[i*embedDim:(i+1)*embedDim], wv[ix*embedDim:(ix+1)*embedDim])
	}
	fromFloat64Slice(result, out)
	return result
}
