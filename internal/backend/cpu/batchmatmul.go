package cpu

import (
	"fmt"

	"github.com/mnemo-ml/mnemo/internal/parallel"
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// BatchMatMul performs batched matrix multiplication.
// Supports 3D and 4D tensors with batch dimensions.
//
// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
//
// The last two dimensions are treated as matrix dimensions.
// All leading dimensions must match (batch dimensions).
//
// Each batch entry is an independent matrix product, so batches run
// in parallel. The 4D case is the retention hot path: one matrix per
// (batch, head) pair.
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()
	ndim := len(aShape)

	// Validate dimensions
	if ndim < 3 {
		panic(fmt.Sprintf("BatchMatMul: inputs must be at least 3D, got %dD", ndim))
	}
	if len(bShape) != ndim {
		panic(fmt.Sprintf("BatchMatMul: dimension mismatch, got %dD and %dD", ndim, len(bShape)))
	}

	// Validate batch dimensions match
	for i := 0; i < ndim-2; i++ {
		if aShape[i] != bShape[i] {
			panic(fmt.Sprintf("BatchMatMul: batch dimension mismatch at dim %d: %d vs %d", i, aShape[i], bShape[i]))
		}
	}

	// Extract matrix dimensions
	m := aShape[ndim-2]
	k1 := aShape[ndim-1]
	k2 := bShape[ndim-2]
	n := bShape[ndim-1]

	if k1 != k2 {
		panic(fmt.Sprintf("BatchMatMul: inner dimension mismatch: %d vs %d", k1, k2))
	}

	// Compute batch size (product of all batch dims)
	batchSize := 1
	for i := 0; i < ndim-2; i++ {
		batchSize *= aShape[i]
	}

	// Output shape = batch dims + [M, N]
	outShape := make(tensor.Shape, ndim)
	copy(outShape, aShape[:ndim-2])
	outShape[ndim-2] = m
	outShape[ndim-1] = n

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("BatchMatMul: failed to create result tensor: %v", err))
	}

	// Dispatch to type-specific implementation
	switch a.DType() {
	case tensor.Float32:
		c, av, bv := result.AsFloat32(), a.AsFloat32(), b.AsFloat32()
		cpu.runBatches(aShape, ndim, batchSize, func(batch int) {
			batchMatmulFloat32(c, av, bv, batch, m, k1, n)
		})
	case tensor.Float64:
		c, av, bv := result.AsFloat64(), a.AsFloat64(), b.AsFloat64()
		cpu.runBatches(aShape, ndim, batchSize, func(batch int) {
			batchMatmulFloat64(c, av, bv, batch, m, k1, n)
		})
	default:
		panic(fmt.Sprintf("BatchMatMul: unsupported dtype %s", a.DType()))
	}

	return result
}

// runBatches schedules one matrix product per flat batch index. 4D
// inputs use the (batch, head) grid; anything else falls back to a
// flat loop with a per-matrix chunk threshold.
func (cpu *CPUBackend) runBatches(aShape tensor.Shape, ndim, batchSize int, run func(batch int)) {
	if ndim == 4 {
		heads := aShape[1]
		parallel.ForBatch(aShape[0], heads, func(b, h int) {
			run(b*heads + h)
		}, cpu.par)
		return
	}

	par := cpu.par
	par.MinChunkSize = 1 // one whole matrix per item
	parallel.For(batchSize, run, par)
}

// batchMatmulFloat32 computes the matrix product for one batch entry.
func batchMatmulFloat32(c, a, b []float32, batch, m, k, n int) {
	aOffset := batch * m * k
	bOffset := batch * k * n
	cOffset := batch * m * n

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sum := float32(0)
			for kIdx := 0; kIdx < k; kIdx++ {
				sum += a[aOffset+i*k+kIdx] * b[bOffset+kIdx*n+j]
			}
			c[cOffset+i*n+j] = sum
		}
	}
}

// batchMatmulFloat64 computes the matrix product for one batch entry.
func batchMatmulFloat64(c, a, b []float64, batch, m, k, n int) {
	aOffset := batch * m * k
	bOffset := batch * k * n
	cOffset := batch * m * n

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sum := float64(0)
			for kIdx := 0; kIdx < k; kIdx++ {
				sum += a[aOffset+i*k+kIdx] * b[bOffset+kIdx*n+j]
			}
			c[cOffset+i*n+j] = sum
		}
	}
}
