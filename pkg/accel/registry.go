package accel

import (
	"sort"
	"sync"

	"github.com/df07/go-scene-tracer/pkg/core"
)

// Factory creates a new, unbuilt backend instance.
type Factory func() Backend

// StaticHooks are process-wide lifecycle hooks of a backend whose execution
// context outlives any single scene.
type StaticHooks struct {
	Init     func() error
	Shutdown func()
}

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	hooks      = make(map[string]StaticHooks)
)

// Register registers a backend factory with the given name.
// This is called from init() functions of the backend files.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// RegisterStatic attaches process-wide lifecycle hooks to a backend name.
func RegisterStatic(name string, h StaticHooks) {
	registryMu.Lock()
	defer registryMu.Unlock()
	hooks[name] = h
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
	delete(hooks, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get returns a new backend instance by name, or nil if the name is not registered.
func Get(name string) Backend {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

// Active returns the name of the backend selected by build configuration.
func Active() string {
	return activeBackend
}

// StaticInit prepares process-wide state of the active backend. Call it once
// from the process entry point before building any scene. Backends without
// global state make this a no-op.
func StaticInit() error {
	return StaticInitBackend(Active())
}

// StaticShutdown releases process-wide state of the active backend, after
// every scene has been closed.
func StaticShutdown() {
	StaticShutdownBackend(Active())
}

// StaticInitBackend runs the init hook of a named backend.
func StaticInitBackend(name string) error {
	registryMu.RLock()
	h, ok := hooks[name]
	registryMu.RUnlock()
	if !ok || h.Init == nil {
		return nil
	}
	core.Logger().Info("accel: static init", "backend", name)
	return h.Init()
}

// StaticShutdownBackend runs the shutdown hook of a named backend.
func StaticShutdownBackend(name string) {
	registryMu.RLock()
	h, ok := hooks[name]
	registryMu.RUnlock()
	if !ok || h.Shutdown == nil {
		return
	}
	core.Logger().Info("accel: static shutdown", "backend", name)
	h.Shutdown()
}
