// Package plane manages the host-side sample planes of a pipeline run.
//
// A plane is a row-major grid of Height*Width samples. Byte planes hold
// the caller's 8-bit channels; float planes hold working copies, gradient
// magnitudes and the edge map. Float and byte planes are drawn from a
// length-bucketed Pool and owned by an Arena for the duration of one run.
// Pools belong to their user (a pipeline or a device) and are drained
// when it closes.
package plane

import (
	"sync"
	"unsafe"
)

// Sample is the element type of a plane.
type Sample interface {
	~float32 | ~byte
}

// Pool is a thread-safe pool for reusing plane slices.
//
// Pool groups slices by their length, allowing efficient reuse when the
// same image size is processed repeatedly. This reduces GC pressure for
// pipelines that run many frames of identical dimensions.
//
// The bytes held by a pool never exceed its byte cap. A slice that does not
// fit evicts the buckets of other lengths first, so a pool follows the most
// recent image size instead of accumulating every size it has seen.
//
// Thread safety: All methods are safe for concurrent use.
type Pool[T Sample] struct {
	mu       sync.Mutex
	buckets  map[int][][]T
	maxSize  int   // max slices per bucket
	maxBytes int64 // max bytes retained across buckets
	retained int64
}

// NewPool creates a new plane pool with the given maximum slices per bucket
// and maximum retained bytes. A maxPerBucket of 0 means unlimited; a
// maxBytes of 0 disables retention entirely.
func NewPool[T Sample](maxPerBucket int, maxBytes int64) *Pool[T] {
	return &Pool[T]{
		buckets:  make(map[int][][]T),
		maxSize:  maxPerBucket,
		maxBytes: maxBytes,
	}
}

// Get retrieves a slice of length n from the pool or allocates a new one.
// Reused slices are cleared (all samples zeroed).
func (p *Pool[T]) Get(n int) []T {
	if n <= 0 {
		return nil
	}

	p.mu.Lock()
	bucket := p.buckets[n]
	if len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		bucket[len(bucket)-1] = nil
		if len(bucket) == 1 {
			delete(p.buckets, n)
		} else {
			p.buckets[n] = bucket[:len(bucket)-1]
		}
		p.retained -= sizeOf(buf)
		p.mu.Unlock()

		clear(buf)
		return buf
	}
	p.mu.Unlock()

	return make([]T, n)
}

// Put returns a slice to the pool for reuse.
// If buf is empty, its bucket is at max capacity, or it cannot fit under
// the byte cap, the slice is discarded.
func (p *Pool[T]) Put(buf []T) {
	if len(buf) == 0 {
		return
	}
	size := sizeOf(buf)

	p.mu.Lock()
	defer p.mu.Unlock()

	if size > p.maxBytes {
		return
	}
	bucket := p.buckets[len(buf)]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	for n, other := range p.buckets {
		if p.retained+size <= p.maxBytes {
			break
		}
		if n == len(buf) {
			continue
		}
		for _, b := range other {
			p.retained -= sizeOf(b)
		}
		delete(p.buckets, n)
	}
	if p.retained+size > p.maxBytes {
		return
	}
	p.buckets[len(buf)] = append(bucket, buf)
	p.retained += size
}

// Len returns the number of pooled slices of length n.
func (p *Pool[T]) Len(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets[n])
}

// Retained returns the bytes currently held by the pool.
func (p *Pool[T]) Retained() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retained
}

// Drain drops every pooled slice.
func (p *Pool[T]) Drain() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.buckets)
	p.retained = 0
}

func sizeOf[T Sample](buf []T) int64 {
	var zero T
	return int64(len(buf)) * int64(unsafe.Sizeof(zero))
}
