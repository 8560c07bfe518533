//go:build windows

// Copyright 2025 Mnemo ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated tensor operations.
//
// WebGPU is a cross-platform graphics and compute API that works on:
//   - Windows (via Dawn/D3D12)
//   - macOS (via Dawn/Metal)
//   - Linux (via Dawn/Vulkan)
//   - Web browsers (via wasm)
//
// Example:
//
//	import (
//	    "github.com/mnemo-ml/mnemo/backend/webgpu"
//	    "github.com/mnemo-ml/mnemo/tensor"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    x := tensor.Randn[float32](tensor.Shape{1024, 1024}, gpu)
//	}
package webgpu

import (
	internalwebgpu "github.com/mnemo-ml/mnemo/internal/backend/webgpu"
	"github.com/mnemo-ml/mnemo/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// Backend represents the WebGPU backend implementation for GPU-accelerated
// tensor operations.
//
// Beyond the tensor.Backend interface it provides a fused retention kernel
// (used automatically by nn.MultiheadRetention) and buffer-pool statistics
// via MemoryStats.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// MemoryStats reports GPU buffer usage and pooling behavior.
type MemoryStats = internalwebgpu.MemoryStats

// New creates a new WebGPU backend.
//
// This function initializes the WebGPU device and returns a backend
// ready for tensor operations. Call Release() when done to free GPU resources.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// This function attempts to initialize a WebGPU adapter to verify
// that a compatible GPU and drivers are present. It's useful for
// graceful fallback to CPU backend when GPU is not available.
//
// Example:
//
//	var backend tensor.Backend
//	if webgpu.IsAvailable() {
//	    backend, _ = webgpu.New()
//	} else {
//	    backend = cpu.New()
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}

// ListAdapters enumerates the WebGPU adapters present on this system.
func ListAdapters() ([]*wgpu.AdapterInfo, error) {
	return internalwebgpu.ListAdapters()
}
