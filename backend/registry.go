package backend

import (
	"errors"
	"sync"

	"github.com/gogpu/camtex"
)

// Backend name constants.
const (
	// BackendNull is the name of the in-memory device (backend/nullgl).
	BackendNull = "null"

	// BackendEGL is the conventional name for the EGL platform
	// (backend/eglx). It is registered by the embedder, not by import.
	BackendEGL = "egl"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when no registered backend can be
	// opened.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrUnknownBackend is returned by Open for an unregistered name.
	ErrUnknownBackend = errors.New("backend: unknown backend")
)

// Factory opens a backend: the GL binding and platform a session needs.
type Factory func() (camtex.GL, camtex.Platform, error)

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for default selection (first available wins). A real
	// EGL device beats the in-memory fallback.
	backendPriority = []string{BackendEGL, BackendNull}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
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

// Available returns a list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens the named backend.
func Open(name string) (camtex.GL, camtex.Platform, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, nil, ErrUnknownBackend
	}
	return factory()
}

// OpenDefault opens the best available backend based on priority, trying
// the next one when a factory fails.
func OpenDefault() (camtex.GL, camtex.Platform, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			g, p, err := factory()
			if err == nil {
				return g, p, nil
			}
		}
	}

	// Fallback: first registered backend that opens.
	for _, factory := range backends {
		if g, p, err := factory(); err == nil {
			return g, p, nil
		}
	}

	return nil, nil, ErrBackendNotAvailable
}
