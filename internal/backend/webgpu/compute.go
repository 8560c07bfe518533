//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// Buffer usage patterns. Results are written by shaders, copied to staging,
// and occasionally cleared, so they carry all three storage flags. Staging
// buffers only receive copies and get mapped for reading.
const (
	storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
	uploadUsage  = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	// Auto layout (nil layout) derives bindings from the shader
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU buffer and uploads initial data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	// MappedAtCreation lets us copy the payload without a separate queue write
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with proper alignment.
// Uniform buffers require 16-byte alignment for struct fields.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15 // Round up to 16-byte boundary

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a pooled staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.pool.Acquire(size, stagingUsage)
	defer b.pool.Release(stagingBuffer, size, stagingUsage)

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	// MapAsync blocks until the copy (and everything queued before it) completes
	err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}

// dispatch runs one compute pass and submits it.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, bindGroup *wgpu.BindGroup, x, y, z uint32) {
	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)

	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(x, y, z)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)
}

// runBinaryOp executes a binary element-wise operation (add, sub, mul, div)
// on GPU. Inputs must be float32 and share a shape; broadcasting stays on
// the host.
func (b *Backend) runBinaryOp(a, other *tensor.RawTensor, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if a.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", a.DType())
	}
	if !a.Shape().Equal(other.Shape()) {
		return nil, fmt.Errorf("webgpu: shape mismatch: %v vs %v", a.Shape(), other.Shape())
	}

	numElements := a.NumElements()

	shader := b.compileShader(shaderName, shaderCode)
	pipeline := b.getOrCreatePipeline(shaderName, shader)

	bufferA := b.createBuffer(a.Data(), uploadUsage)
	defer bufferA.Release()

	bufferOther := b.createBuffer(other.Data(), uploadUsage)
	defer bufferOther.Release()

	//nolint:gosec // G115: ByteSize() returns a non-negative int
	resultSize := uint64(a.ByteSize())
	bufferResult := b.pool.Acquire(resultSize, storageUsage)
	defer b.pool.Release(bufferResult, resultSize, storageUsage)

	params := make([]byte, 16)
	//nolint:gosec // G115: NumElements() returns a non-negative int
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferA, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferOther, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	b.dispatch(pipeline, bindGroup, workgroups, 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(a.Shape(), a.DType(), tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	copy(result.Data(), resultData)
	return result, nil
}

// runUnaryOp executes a unary element-wise operation (exp, log, sqrt, rsqrt)
// on GPU.
func (b *Backend) runUnaryOp(input *tensor.RawTensor, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", input.DType())
	}

	numElements := input.NumElements()

	shader := b.compileShader(shaderName, shaderCode)
	pipeline := b.getOrCreatePipeline(shaderName, shader)

	bufferInput := b.createBuffer(input.Data(), uploadUsage)
	defer bufferInput.Release()

	//nolint:gosec // G115: ByteSize() returns a non-negative int
	resultSize := uint64(input.ByteSize())
	bufferResult := b.pool.Acquire(resultSize, storageUsage)
	defer b.pool.Release(bufferResult, resultSize, storageUsage)

	params := make([]byte, 16)
	//nolint:gosec // G115: NumElements() returns a non-negative int
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	b.dispatch(pipeline, bindGroup, workgroups, 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(input.Shape(), input.DType(), tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	copy(result.Data(), resultData)
	return result, nil
}

// runScalarOp executes an element-wise operation against a scalar
// (scalarMul, scalarAdd) on GPU.
func (b *Backend) runScalarOp(input *tensor.RawTensor, scalar float32, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", input.DType())
	}

	numElements := input.NumElements()

	shader := b.compileShader(shaderName, shaderCode)
	pipeline := b.getOrCreatePipeline(shaderName, shader)

	bufferInput := b.createBuffer(input.Data(), uploadUsage)
	defer bufferInput.Release()

	//nolint:gosec // G115: ByteSize() returns a non-negative int
	resultSize := uint64(input.ByteSize())
	bufferResult := b.pool.Acquire(resultSize, storageUsage)
	defer b.pool.Release(bufferResult, resultSize, storageUsage)

	// struct Params { size: u32, scalar: f32 }
	params := make([]byte, 16)
	//nolint:gosec // G115: NumElements() returns a non-negative int
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(scalar))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	b.dispatch(pipeline, bindGroup, workgroups, 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(input.Shape(), input.DType(), tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	copy(result.Data(), resultData)
	return result, nil
}

// runMatMul executes matrix multiplication C = A @ B on GPU.
// A is [M, K], B is [K, N], C is [M, N].
func (b *Backend) runMatMul(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	if a.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", a.DType())
	}
	if len(a.Shape()) != 2 || len(other.Shape()) != 2 {
		return nil, fmt.Errorf("webgpu: matmul requires 2D tensors, got %v and %v", a.Shape(), other.Shape())
	}

	//nolint:gosec // G115: shape dimensions are non-negative
	M := uint32(a.Shape()[0])
	//nolint:gosec // G115: shape dimensions are non-negative
	K := uint32(a.Shape()[1])
	//nolint:gosec // G115: shape dimensions are non-negative
	N := uint32(other.Shape()[1])

	if other.Shape()[0] != int(K) {
		return nil, fmt.Errorf("webgpu: matmul shape mismatch: [%d,%d] @ [%d,%d]", M, K, other.Shape()[0], N)
	}

	shader := b.compileShader("matmul", matmulShader)
	pipeline := b.getOrCreatePipeline("matmul", shader)

	bufferA := b.createBuffer(a.Data(), uploadUsage)
	defer bufferA.Release()

	bufferOther := b.createBuffer(other.Data(), uploadUsage)
	defer bufferOther.Release()

	resultShape := tensor.Shape{int(M), int(N)}
	//nolint:gosec // G115: matrix dimensions are non-negative
	resultSize := uint64(int(M) * int(N) * 4) // float32 = 4 bytes
	bufferResult := b.pool.Acquire(resultSize, storageUsage)
	defer b.pool.Release(bufferResult, resultSize, storageUsage)

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], M)
	binary.LittleEndian.PutUint32(params[4:8], K)
	binary.LittleEndian.PutUint32(params[8:12], N)
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns a non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferA, 0, uint64(a.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferOther, 0, uint64(other.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	// 16x16 threads per workgroup over the output matrix
	workgroupsX := uint32(math.Ceil(float64(N) / 16.0))
	workgroupsY := uint32(math.Ceil(float64(M) / 16.0))
	b.dispatch(pipeline, bindGroup, workgroupsX, workgroupsY, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(resultShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	copy(result.Data(), resultData)
	return result, nil
}

// runBatchMatMul executes batched matrix multiplication on GPU.
// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N].
// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N], dispatched over
// B*H planes.
func (b *Backend) runBatchMatMul(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	if a.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", a.DType())
	}

	aShape := a.Shape()
	otherShape := other.Shape()
	ndim := len(aShape)
	if ndim != 3 && ndim != 4 {
		return nil, fmt.Errorf("webgpu: batch matmul requires 3D or 4D tensors, got %v", aShape)
	}
	if len(otherShape) != ndim {
		return nil, fmt.Errorf("webgpu: batch matmul rank mismatch: %v vs %v", aShape, otherShape)
	}

	batch := aShape[0]
	if otherShape[0] != batch {
		return nil, fmt.Errorf("webgpu: batch matmul batch mismatch: %v vs %v", aShape, otherShape)
	}
	if ndim == 4 {
		if otherShape[1] != aShape[1] {
			return nil, fmt.Errorf("webgpu: batch matmul head mismatch: %v vs %v", aShape, otherShape)
		}
		batch *= aShape[1]
	}

	m := aShape[ndim-2]
	k := aShape[ndim-1]
	n := otherShape[ndim-1]
	if otherShape[ndim-2] != k {
		return nil, fmt.Errorf("webgpu: batch matmul inner dimension mismatch: %v @ %v", aShape, otherShape)
	}

	resultShape := make(tensor.Shape, ndim)
	copy(resultShape, aShape)
	resultShape[ndim-1] = n

	shader := b.compileShader("batchmatmul", batchMatMulShader)
	pipeline := b.getOrCreatePipeline("batchmatmul", shader)

	bufferA := b.createBuffer(a.Data(), uploadUsage)
	defer bufferA.Release()

	bufferOther := b.createBuffer(other.Data(), uploadUsage)
	defer bufferOther.Release()

	//nolint:gosec // G115: dimensions are non-negative
	resultSize := uint64(batch * m * n * 4)
	bufferResult := b.pool.Acquire(resultSize, storageUsage)
	defer b.pool.Release(bufferResult, resultSize, storageUsage)

	params := make([]byte, 16)
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(batch))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(m))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(k))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[12:16], uint32(n))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns a non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferA, 0, uint64(a.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferOther, 0, uint64(other.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	// 8x8 threads per workgroup over each output matrix, one z layer per batch
	workgroupsX := uint32(math.Ceil(float64(n) / 8.0))
	workgroupsY := uint32(math.Ceil(float64(m) / 8.0))
	//nolint:gosec // G115: batch count is non-negative
	b.dispatch(pipeline, bindGroup, workgroupsX, workgroupsY, uint32(batch))

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(resultShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	copy(result.Data(), resultData)
	return result, nil
}

// runSoftmax executes softmax along the last dimension on GPU.
// Input shape: [batch_size, num_classes].
func (b *Backend) runSoftmax(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", input.DType())
	}
	if len(input.Shape()) != 2 {
		return nil, fmt.Errorf("webgpu: softmax requires 2D tensor, got %v", input.Shape())
	}

	//nolint:gosec // G115: shape dimensions are non-negative
	batchSize := uint32(input.Shape()[0])
	//nolint:gosec // G115: shape dimensions are non-negative
	numClasses := uint32(input.Shape()[1])

	shader := b.compileShader("softmax", softmaxShader)
	pipeline := b.getOrCreatePipeline("softmax", shader)

	bufferInput := b.createBuffer(input.Data(), uploadUsage)
	defer bufferInput.Release()

	//nolint:gosec // G115: ByteSize() returns a non-negative int
	resultSize := uint64(input.ByteSize())
	bufferResult := b.pool.Acquire(resultSize, storageUsage)
	defer b.pool.Release(bufferResult, resultSize, storageUsage)

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], batchSize)
	binary.LittleEndian.PutUint32(params[4:8], numClasses)
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, resultSize),
		wgpu.BufferBindingEntry(1, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	// One thread per row
	workgroups := (batchSize + workgroupSize - 1) / workgroupSize
	b.dispatch(pipeline, bindGroup, workgroups, 1, 1)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(input.Shape(), tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	copy(result.Data(), resultData)
	return result, nil
}
