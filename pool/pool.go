// Package pool implements fixed-block and variable-block memory
// allocators for hot containers, mutex-protected free lists that reuse
// released buffers instead of allocating fresh ones on every call.
package pool

import (
	"sync"

	"github.com/arfinch/quantcore/result"
)

// FixedBlockPool hands out []float64 slices of a single fixed size, reusing
// released buffers instead of allocating fresh ones. Releasing a slice
// whose length doesn't match blockSize is ignored; releasing a slice of
// the right length that was not obtained from the pool is undefined.
type FixedBlockPool struct {
	mu        sync.Mutex
	blockSize int
	free      [][]float64
}

// NewFixedBlockPool creates a pool of blockSize-length []float64 buffers.
// Fails InvalidInput if blockSize <= 0.
func NewFixedBlockPool(blockSize int) (*FixedBlockPool, error) {
	if blockSize <= 0 {
		return nil, result.New(result.InvalidInput, "block size must be positive")
	}
	return &FixedBlockPool{blockSize: blockSize}, nil
}

// Acquire returns a zeroed buffer of blockSize length, reusing a released
// buffer if one is available.
func (p *FixedBlockPool) Acquire() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		buf := p.free[n-1]
		p.free = p.free[:n-1]
		for i := range buf {
			buf[i] = 0
		}
		return buf
	}
	return make([]float64, p.blockSize)
}

// Release returns buf to the pool for reuse. Ignored if buf's length
// doesn't match the pool's block size.
func (p *FixedBlockPool) Release(buf []float64) {
	if len(buf) != p.blockSize {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, buf)
}

// Free reports how many released buffers are currently sitting in the
// free list, available for reuse by the next Acquire.
func (p *FixedBlockPool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// sizeClass is the smallest power-of-two bucket >= a requested length.
func sizeClass(n int) int {
	c := 1
	for c < n {
		c *= 2
	}
	return c
}

// VariableBlockPool buckets requests into power-of-two size classes, each
// backed by its own free list, so that variable-length allocations (e.g.
// per-call rolling/resample output buffers of varying N) still benefit from
// reuse without one pool per exact size.
type VariableBlockPool struct {
	mu      sync.Mutex
	buckets map[int][][]float64
}

// NewVariableBlockPool creates an empty variable-block pool.
func NewVariableBlockPool() *VariableBlockPool {
	return &VariableBlockPool{buckets: map[int][][]float64{}}
}

// Acquire returns a zeroed buffer with capacity >= n and length n, reusing
// a released buffer from n's size class when available.
func (p *VariableBlockPool) Acquire(n int) ([]float64, error) {
	if n <= 0 {
		return nil, result.New(result.InvalidInput, "requested length must be positive")
	}
	class := sizeClass(n)
	p.mu.Lock()
	defer p.mu.Unlock()
	bucket := p.buckets[class]
	if len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[class] = bucket[:len(bucket)-1]
		buf = buf[:n]
		for i := range buf {
			buf[i] = 0
		}
		return buf, nil
	}
	return make([]float64, n, class), nil
}

// Release returns buf to its size class's free list, keyed by capacity.
func (p *VariableBlockPool) Release(buf []float64) {
	class := sizeClass(cap(buf))
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buckets[class] = append(p.buckets[class], buf[:cap(buf)])
}
