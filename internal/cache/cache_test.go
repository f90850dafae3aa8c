package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGetOrCreate(t *testing.T) {
	c := New[string, int]()
	calls := 0
	create := func() (int, error) {
		calls++
		return 42, nil
	}

	for range 3 {
		v, err := c.GetOrCreate("a", create)
		if err != nil || v != 42 {
			t.Fatalf("GetOrCreate() = %d, %v, want 42, nil", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	if s := c.Stats(); s.Len != 1 || s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Stats() = %+v, want Len 1, Hits 2, Misses 1", s)
	}
}

func TestGetOrCreateErrorNotCached(t *testing.T) {
	c := New[int, string]()
	errBoom := errors.New("boom")

	if _, err := c.GetOrCreate(1, func() (string, error) { return "", errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("GetOrCreate() error = %v, want boom", err)
	}
	if _, ok := c.Get(1); ok {
		t.Error("failed creation was cached")
	}

	v, err := c.GetOrCreate(1, func() (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Errorf("GetOrCreate() retry = %q, %v", v, err)
	}
}

func TestClear(t *testing.T) {
	c := New[int, int]()
	_, _ = c.GetOrCreate(1, func() (int, error) { return 1, nil })
	c.Clear()
	if s := c.Stats(); s != (Stats{}) {
		t.Errorf("Stats() after Clear = %+v, want zero", s)
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	c := New[int, int]()
	var calls atomic.Int32

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range 4 {
				v, _ := c.GetOrCreate(k, func() (int, error) {
					calls.Add(1)
					return k * 10, nil
				})
				if v != k*10 {
					t.Errorf("GetOrCreate(%d) = %d", k, v)
				}
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 4 {
		t.Errorf("create called %d times, want 4", got)
	}
}
