package backend

import (
	"fmt"
	"slices"
	"sync"
)

// Factory creates a new, uninitialized device.
type Factory func() Device

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// GPU > Software (Software is the fallback).
	backendPriority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a new device by name.
// Returns nil if the backend is not registered.
func Get(name string) Device {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available backend based on priority.
// Priority order: wgpu > software
// Returns nil if no backends are registered.
func Default() Device {
	for _, name := range candidates() {
		if d := Get(name); d != nil {
			return d
		}
	}
	return nil
}

// candidates returns registered names in priority order, followed by any
// other registered backends.
func candidates() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range backends {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

// InitDefault initializes the best available backend. A backend whose
// Init fails is skipped with a warning and the next one in priority order
// is tried. The error of the last failure is returned if none succeeds.
func InitDefault() (Device, error) {
	lastErr := ErrBackendNotAvailable
	for _, name := range candidates() {
		d := Get(name)
		if d == nil {
			continue
		}
		if err := d.Init(); err != nil {
			Logger().Warn("backend: init failed, trying next", "backend", name, "error", err)
			lastErr = fmt.Errorf("backend %s: %w", name, err)
			continue
		}
		Logger().Info("backend: selected", "backend", name)
		return d, nil
	}
	return nil, lastErr
}
