//go:build windows

package webgpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// hostRetention computes the retention reference on the host:
//
//	out[b,h,i,n] = sum over j <= i of gamma_h^(i-j) * dot(q[b,h,i], k[b,h,j]) * v[b,h,j,n]
func hostRetention(q, k, v []float32, gammas []float32, batch, heads, seqQ, seqK, keyDim, valueDim int) []float32 {
	out := make([]float32, batch*heads*seqQ*valueDim)
	for b := 0; b < batch; b++ {
		for h := 0; h < heads; h++ {
			gamma := float64(gammas[h])
			qPlane := (b*heads + h) * seqQ * keyDim
			kPlane := (b*heads + h) * seqK * keyDim
			vPlane := (b*heads + h) * seqK * valueDim
			outPlane := (b*heads + h) * seqQ * valueDim
			for i := 0; i < seqQ; i++ {
				for j := 0; j <= i && j < seqK; j++ {
					var sim float64
					for d := 0; d < keyDim; d++ {
						sim += float64(q[qPlane+i*keyDim+d]) * float64(k[kPlane+j*keyDim+d])
					}
					w := sim * math.Pow(gamma, float64(i-j))
					for n := 0; n < valueDim; n++ {
						out[outPlane+i*valueDim+n] += float32(w * float64(v[vPlane+j*valueDim+n]))
					}
				}
			}
		}
	}
	return out
}

func TestFusedRetention(t *testing.T) {
	backend := newTestBackend(t)

	rng := rand.New(rand.NewSource(42))
	batch, heads, seq, keyDim, valueDim := 2, 2, 8, 8, 8

	qData := make([]float32, batch*heads*seq*keyDim)
	kData := make([]float32, batch*heads*seq*keyDim)
	vData := make([]float32, batch*heads*seq*valueDim)
	for i := range qData {
		qData[i] = rng.Float32()*2 - 1
		kData[i] = rng.Float32()*2 - 1
	}
	for i := range vData {
		vData[i] = rng.Float32()*2 - 1
	}
	gammaData := []float32{0.96875, 0.998046875} // 1 - 1/32, 1 - 1/512

	q := createTensor(t, tensor.Shape{batch, heads, seq, keyDim}, qData)
	k := createTensor(t, tensor.Shape{batch, heads, seq, keyDim}, kData)
	v := createTensor(t, tensor.Shape{batch, heads, seq, valueDim}, vData)
	gammas := createTensor(t, tensor.Shape{heads}, gammaData)

	result, err := backend.FusedRetention(q, k, v, gammas)
	if err != nil {
		t.Fatalf("FusedRetention failed: %v", err)
	}

	if !result.Shape().Equal(tensor.Shape{batch, heads, seq, valueDim}) {
		t.Fatalf("FusedRetention shape mismatch: got %v", result.Shape())
	}

	expected := hostRetention(qData, kData, vData, gammaData, batch, heads, seq, seq, keyDim, valueDim)
	compareSlices(t, expected, result.AsFloat32(), 1e-4)
}

// Position 0 has no past, so with q.k = 1 at the diagonal the first output
// row must be exactly the first value row.
func TestFusedRetentionFirstPosition(t *testing.T) {
	backend := newTestBackend(t)

	seq, dim := 4, 8
	qData := make([]float32, seq*dim)
	kData := make([]float32, seq*dim)
	vData := make([]float32, seq*dim)
	for i := 0; i < seq; i++ {
		// Orthogonal one-hot q/k rows: q_i . k_j = 1 when i == j, else 0
		qData[i*dim+i] = 1
		kData[i*dim+i] = 1
		for d := 0; d < dim; d++ {
			vData[i*dim+d] = float32(i*dim + d)
		}
	}

	q := createTensor(t, tensor.Shape{1, 1, seq, dim}, qData)
	k := createTensor(t, tensor.Shape{1, 1, seq, dim}, kData)
	v := createTensor(t, tensor.Shape{1, 1, seq, dim}, vData)
	gammas := createTensor(t, tensor.Shape{1}, []float32{0.5})

	result, err := backend.FusedRetention(q, k, v, gammas)
	if err != nil {
		t.Fatalf("FusedRetention failed: %v", err)
	}

	actual := result.AsFloat32()
	// With orthogonal projections each position only sees its own value
	compareSlices(t, vData, actual, 1e-5)
}

func TestFusedRetentionValidation(t *testing.T) {
	backend := newTestBackend(t)

	q4 := createTensor(t, tensor.Shape{1, 2, 4, 8}, make([]float32, 64))
	k4 := createTensor(t, tensor.Shape{1, 2, 4, 8}, make([]float32, 64))
	v4 := createTensor(t, tensor.Shape{1, 2, 4, 8}, make([]float32, 64))
	gammas := createTensor(t, tensor.Shape{2}, []float32{0.9, 0.99})

	tests := []struct {
		name            string
		q, k, v, gammas *tensor.RawTensor
	}{
		{
			name: "3D query",
			q:    createTensor(t, tensor.Shape{2, 4, 8}, make([]float32, 64)),
			k:    k4, v: v4, gammas: gammas,
		},
		{
			name: "batch mismatch",
			q:    q4,
			k:    createTensor(t, tensor.Shape{2, 2, 4, 8}, make([]float32, 128)),
			v:    v4, gammas: gammas,
		},
		{
			name: "head mismatch",
			q:    q4, k: k4,
			v:      createTensor(t, tensor.Shape{1, 4, 4, 8}, make([]float32, 128)),
			gammas: gammas,
		},
		{
			name: "key dim mismatch",
			q:    q4,
			k:    createTensor(t, tensor.Shape{1, 2, 4, 16}, make([]float32, 128)),
			v:    v4, gammas: gammas,
		},
		{
			name: "sequence mismatch",
			q:    q4, k: k4,
			v:      createTensor(t, tensor.Shape{1, 2, 8, 8}, make([]float32, 128)),
			gammas: gammas,
		},
		{
			name: "wrong gamma count",
			q:    q4, k: k4, v: v4,
			gammas: createTensor(t, tensor.Shape{3}, []float32{0.9, 0.99, 0.999}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := backend.FusedRetention(tt.q, tt.k, tt.v, tt.gammas); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

// Cross-length retention: more keys than queries (the decode-with-context
// layout). Positions beyond the query index must still be masked.
func TestFusedRetentionCrossLength(t *testing.T) {
	backend := newTestBackend(t)

	rng := rand.New(rand.NewSource(7))
	seqQ, seqK, dim := 3, 6, 8

	qData := make([]float32, seqQ*dim)
	kData := make([]float32, seqK*dim)
	vData := make([]float32, seqK*dim)
	for i := range qData {
		qData[i] = rng.Float32()
	}
	for i := range kData {
		kData[i] = rng.Float32()
		vData[i] = rng.Float32()
	}
	gammaData := []float32{0.875}

	q := createTensor(t, tensor.Shape{1, 1, seqQ, dim}, qData)
	k := createTensor(t, tensor.Shape{1, 1, seqK, dim}, kData)
	v := createTensor(t, tensor.Shape{1, 1, seqK, dim}, vData)
	gammas := createTensor(t, tensor.Shape{1}, gammaData)

	result, err := backend.FusedRetention(q, k, v, gammas)
	if err != nil {
		t.Fatalf("FusedRetention failed: %v", err)
	}

	expected := hostRetention(qData, kData, vData, gammaData, 1, 1, seqQ, seqK, dim, dim)
	compareSlices(t, expected, result.AsFloat32(), 1e-4)
}
