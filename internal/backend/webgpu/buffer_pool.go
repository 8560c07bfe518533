//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

const (
	// Size class boundaries. Buffers below smallBufferLimit share one
	// free list, buffers below mediumBufferLimit another, the rest a third.
	smallBufferLimit  = 4 << 10  // 4KB
	mediumBufferLimit = 1 << 20  // 1MB
	maxPooledPerClass = 64
)

// pooledBuffer is a free GPU buffer waiting for reuse.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// BufferPool recycles GPU buffers across dispatches. Tensor workloads
// request the same handful of sizes over and over, so an exact-size match
// against a small free list removes most CreateBuffer calls from the hot
// path. Release only parks a buffer after the submitted work that used it
// has completed.
type BufferPool struct {
	device *wgpu.Device

	mu      sync.Mutex
	classes [3][]pooledBuffer

	created     uint64
	hits        uint64
	misses      uint64
	pooledBytes uint64
}

// NewBufferPool creates an empty pool that allocates on the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{device: device}
}

// bufferClass maps a byte size to its free list index.
func bufferClass(size uint64) int {
	if size < smallBufferLimit {
		return 0
	}
	if size < mediumBufferLimit {
		return 1
	}
	return 2
}

// Acquire returns a buffer of exactly the requested size whose usage flags
// cover the requested ones, reusing a pooled buffer when one matches and
// allocating otherwise.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := bufferClass(size)
	free := p.classes[class]
	for i, pb := range free {
		if pb.size == size && pb.usage&usage == usage {
			buffer := pb.buffer
			p.classes[class] = append(free[:i], free[i+1:]...)
			p.hits++
			p.pooledBytes -= size
			return buffer
		}
	}

	p.misses++
	p.created++

	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Release parks a buffer for reuse. The size and usage must be the values
// the buffer was acquired with. When the free list for its size class is
// full, the buffer is freed instead.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := bufferClass(size)
	if len(p.classes[class]) >= maxPooledPerClass {
		buffer.Release()
		return
	}

	p.classes[class] = append(p.classes[class], pooledBuffer{
		buffer: buffer,
		size:   size,
		usage:  usage,
	})
	p.pooledBytes += size
}

// Clear frees every pooled buffer. Called when the backend is released.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for class := range p.classes {
		for _, pb := range p.classes[class] {
			pb.buffer.Release()
		}
		p.classes[class] = p.classes[class][:0]
	}
	p.pooledBytes = 0
}

// Stats reports allocation and reuse counters since the pool was created.
func (p *BufferPool) Stats() MemoryStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	pooled := 0
	for class := range p.classes {
		pooled += len(p.classes[class])
	}

	return MemoryStats{
		BuffersCreated: p.created,
		PoolHits:       p.hits,
		PoolMisses:     p.misses,
		PooledBuffers:  pooled,
		PooledBytes:    p.pooledBytes,
	}
}
