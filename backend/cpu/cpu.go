// Copyright 2025 Mnemo ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/mnemo-ml/mnemo/internal/backend/cpu"
	"github.com/mnemo-ml/mnemo/internal/parallel"
	"github.com/mnemo-ml/mnemo/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend provides pure Go implementations of all tensor operations
// with worker-pool parallelism for batched kernels.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// ParallelConfig controls how the backend spreads batched kernels over
// worker goroutines.
type ParallelConfig = parallel.Config

// DefaultParallelConfig returns sensible parallelism defaults based on the
// CPU count.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// New creates a new CPU backend with default parallelism.
//
// Example:
//
//	import (
//	    "github.com/mnemo-ml/mnemo/backend/cpu"
//	    "github.com/mnemo-ml/mnemo/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
//
// Example:
//
//	backend := cpu.NewWithConfig(cpu.ParallelConfig{
//	    Enabled:      true,
//	    NumWorkers:   4,
//	    MinChunkSize: 128,
//	})
func NewWithConfig(cfg ParallelConfig) *Backend {
	return internalcpu.NewWithConfig(cfg)
}
