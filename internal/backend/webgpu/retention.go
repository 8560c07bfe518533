//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// FusedRetention computes decay-weighted retention over a full sequence in a
// single dispatch:
//
//	out[b,h,i] = sum over j <= i of gamma_h^(i-j) * (q_i . k_j) * v_j
//
// It produces the same values as composing the similarity matmul, the decay
// mask, and the output matmul, but never materializes the [seq, seq]
// similarity matrix and makes one GPU round trip instead of three.
// MultiheadRetention picks this kernel up through a type assertion on the
// backend.
//
// Parameters:
//   - query: [batch, heads, seqQ, keyDim]
//   - key: [batch, heads, seqK, keyDim]
//   - value: [batch, heads, seqK, valueDim]
//   - gammas: per-head decay coefficients [heads]
//
// Returns the retention output [batch, heads, seqQ, valueDim].
func (b *Backend) FusedRetention(query, key, value, gammas *tensor.RawTensor) (*tensor.RawTensor, error) {
	if len(query.Shape()) != 4 || len(key.Shape()) != 4 || len(value.Shape()) != 4 {
		return nil, fmt.Errorf("FusedRetention: query, key, value must be 4D [batch, heads, seq, dim]")
	}
	if query.DType() != tensor.Float32 || key.DType() != tensor.Float32 ||
		value.DType() != tensor.Float32 || gammas.DType() != tensor.Float32 {
		return nil, fmt.Errorf("FusedRetention: only float32 is supported")
	}

	batch := query.Shape()[0]
	heads := query.Shape()[1]
	seqQ := query.Shape()[2]
	keyDim := query.Shape()[3]
	seqK := key.Shape()[2]
	valueDim := value.Shape()[3]

	if key.Shape()[0] != batch || value.Shape()[0] != batch {
		return nil, fmt.Errorf("FusedRetention: batch size mismatch")
	}
	if key.Shape()[1] != heads || value.Shape()[1] != heads {
		return nil, fmt.Errorf("FusedRetention: head count mismatch")
	}
	if key.Shape()[3] != keyDim {
		return nil, fmt.Errorf("FusedRetention: query and key must share the key dimension")
	}
	if value.Shape()[2] != seqK {
		return nil, fmt.Errorf("FusedRetention: key and value must cover the same sequence")
	}
	if len(gammas.Shape()) != 1 || gammas.Shape()[0] != heads {
		return nil, fmt.Errorf("FusedRetention: gammas must have shape [%d], got %v", heads, gammas.Shape())
	}

	shader := b.compileShader("retention", retentionShader)
	pipeline := b.getOrCreatePipeline("retention", shader)

	bufferQ := b.createBuffer(query.Data(), uploadUsage)
	defer bufferQ.Release()

	bufferK := b.createBuffer(key.Data(), uploadUsage)
	defer bufferK.Release()

	bufferV := b.createBuffer(value.Data(), uploadUsage)
	defer bufferV.Release()

	bufferGammas := b.createBuffer(gammas.Data(), uploadUsage)
	defer bufferGammas.Release()

	resultShape := tensor.Shape{batch, heads, seqQ, valueDim}
	//nolint:gosec // G115: dimensions are non-negative
	resultSize := uint64(batch * heads * seqQ * valueDim * 4)
	bufferResult := b.pool.Acquire(resultSize, storageUsage)
	defer b.pool.Release(bufferResult, resultSize, storageUsage)

	// struct Params { batch, heads, seq_q, seq_k, key_dim, value_dim }
	params := make([]byte, 32)
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(batch))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(heads))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(seqQ))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[12:16], uint32(seqK))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[16:20], uint32(keyDim))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[20:24], uint32(valueDim))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns a non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferQ, 0, uint64(query.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferK, 0, uint64(key.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferV, 0, uint64(value.ByteSize())),
		wgpu.BufferBindingEntry(3, bufferGammas, 0, uint64(gammas.ByteSize())),
		wgpu.BufferBindingEntry(4, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(5, bufferParams, 0, 32),
	})
	defer bindGroup.Release()

	// One thread per output element, one z layer per (batch, head) plane
	workgroupsX := uint32(math.Ceil(float64(valueDim) / 8.0))
	workgroupsY := uint32(math.Ceil(float64(seqQ) / 8.0))
	//nolint:gosec // G115: plane count is non-negative
	b.dispatch(pipeline, bindGroup, workgroupsX, workgroupsY, uint32(batch*heads))

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, fmt.Errorf("FusedRetention: failed to read output: %w", err)
	}

	result, err := tensor.NewRaw(resultShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, fmt.Errorf("FusedRetention: failed to create result tensor: %w", err)
	}

	copy(result.Data(), resultData)
	return result, nil
}
