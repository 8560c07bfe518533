// Copyright 2025 Mnemo ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the Mnemo ML framework.
//
// # Overview
//
// Tensors are the fundamental data structure in Mnemo. This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy operations where possible
//   - Device abstraction (CPU, WebGPU)
//
// # Basic Usage
//
//	import (
//	    "github.com/mnemo-ml/mnemo/tensor"
//	    "github.com/mnemo-ml/mnemo/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    result := x.MatMul(y.Transpose())
//	}
//
// # Supported Data Types
//
// The tensor package supports the following data types via the DType constraint:
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers, used for token indices)
//
// # Device Support
//
// Tensors can reside on different devices:
//   - CPU: Pure Go implementation
//   - WebGPU: Zero-CGO GPU acceleration (Windows)
//
// # Broadcasting
//
// Tensor operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend)     // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)      // (3, 4)
//	c := a.Add(b)                                                // (3, 4)
//
// # Memory Management
//
// Tensors use zero-copy operations where possible. The underlying data is
// reference-counted and automatically freed when no longer needed.
//
// # Available Operations
//
// Scalar operations:
//
//	y := x.MulScalar(2.0)    // Multiply by scalar
//	y := x.AddScalar(1.0)    // Add scalar
//	y := x.SubScalar(0.5)    // Subtract scalar
//	y := x.DivScalar(2.0)    // Divide by scalar
//
// Math operations:
//
//	y := x.Exp()             // Exponential
//	y := x.Log()             // Natural logarithm
//	y := x.Sqrt()            // Square root
//	y := x.Rsqrt()           // Reciprocal square root
//
// Contractions:
//
//	y := a.MatMul(b)         // 2D matrix multiplication
//	y := a.BatchMatMul(b)    // Batched matmul for 3D/4D tensors
//
// Reductions:
//
//	y := x.Sum()             // Total sum (scalar)
//	y := x.SumDim(1, false)  // Sum along dimension
//	y := x.MeanDim(1, true)  // Mean along dimension
//	i := x.Argmax(-1)        // Index of maximum
//
// See method documentation for the full list of operations.
package tensor
