// Copyright 2025 Mnemo ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float32, Float64, Int32 and Int64 support
//   - Batched matrix multiplication for 3D/4D tensors
//   - NumPy-compatible broadcasting
//   - Worker-pool parallelism over batch and head dimensions
//
// # Basic Usage
//
//	import (
//	    "github.com/mnemo-ml/mnemo/backend/cpu"
//	    "github.com/mnemo-ml/mnemo/tensor"
//	    "github.com/mnemo-ml/mnemo/nn"
//	)
//
//	func main() {
//	    // Create CPU backend
//	    backend := cpu.New()
//
//	    // Use with tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//
//	    // Use with retention networks
//	    model := nn.NewRetNet(nn.RetNetConfig{
//	        VocabSize: 1000,
//	        EmbedDim:  64,
//	        NumHeads:  4,
//	        NumLayers: 2,
//	    }, backend)
//	}
//
// # Performance
//
// The CPU backend is the reference implementation and the default choice
// for inference:
//   - Cache-aware matrix multiplication
//   - Parallel batched kernels (see NewWithConfig)
//   - Retention decoding is O(1) per step, so CPU decoding stays practical
//     even for long sequences
//
// For GPU acceleration, see the webgpu package.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// is isolated and does not share mutable state.
package cpu
