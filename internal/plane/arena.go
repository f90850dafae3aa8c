package plane

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Allocation errors.
var (
	// ErrSizeOverflow is returned when Height*Width (or its byte size)
	// does not fit in an int.
	ErrSizeOverflow = errors.New("plane: size overflow")

	// ErrLimitExceeded is returned when an allocation would exceed the
	// arena's byte limit.
	ErrLimitExceeded = errors.New("plane: allocation limit exceeded")
)

// Len returns height*width, checking both factors and the float32 byte
// size of a plane for overflow.
func Len(height, width int) (int, error) {
	if height <= 0 || width <= 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrSizeOverflow, height, width)
	}
	if height > math.MaxInt/width {
		return 0, fmt.Errorf("%w: %dx%d", ErrSizeOverflow, height, width)
	}
	n := height * width
	if n > math.MaxInt/4 {
		return 0, fmt.Errorf("%w: %d samples", ErrSizeOverflow, n)
	}
	return n, nil
}

// Arena owns every plane allocated for one pipeline run.
// Release returns all of them to their pools; it is idempotent and must be
// called on every path, typically via defer.
//
// Thread safety: allocation and Release are safe for concurrent use.
type Arena struct {
	mu       sync.Mutex
	floats   *Pool[float32]
	bytes    *Pool[byte]
	limit    int64
	used     int64
	owned    [][]float32
	ownedB   [][]byte
	released bool
}

// NewArena creates an arena drawing from the given pools.
// limit caps the total bytes handed out; 0 means unlimited.
func NewArena(floats *Pool[float32], bytes *Pool[byte], limit int64) *Arena {
	return &Arena{floats: floats, bytes: bytes, limit: limit}
}

// Floats returns a zeroed float plane of n samples owned by the arena.
func (a *Arena) Floats(n int) ([]float32, error) {
	if err := a.reserve(int64(n) * 4); err != nil {
		return nil, err
	}
	buf := a.floats.Get(n)

	a.mu.Lock()
	a.owned = append(a.owned, buf)
	a.mu.Unlock()
	return buf, nil
}

// Bytes returns a zeroed byte plane of n samples owned by the arena.
func (a *Arena) Bytes(n int) ([]byte, error) {
	if err := a.reserve(int64(n)); err != nil {
		return nil, err
	}
	buf := a.bytes.Get(n)

	a.mu.Lock()
	a.ownedB = append(a.ownedB, buf)
	a.mu.Unlock()
	return buf, nil
}

func (a *Arena) reserve(size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d bytes", ErrSizeOverflow, size)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return errors.New("plane: arena released")
	}
	if a.limit > 0 && a.used+size > a.limit {
		return fmt.Errorf("%w: %d + %d > %d bytes", ErrLimitExceeded, a.used, size, a.limit)
	}
	a.used += size
	return nil
}

// Used returns the number of bytes currently handed out.
func (a *Arena) Used() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Release returns every plane to its pool. Planes obtained from the arena
// must not be used afterwards.
func (a *Arena) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return
	}
	a.released = true

	for _, buf := range a.owned {
		a.floats.Put(buf)
	}
	for _, buf := range a.ownedB {
		a.bytes.Put(buf)
	}
	a.owned, a.ownedB = nil, nil
	a.used = 0
}
