// Package plugin instantiates scene objects by name from typed property lists.
package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/df07/go-scene-tracer/pkg/core"
)

var (
	// ErrUnknownPlugin is returned by Create for names nobody registered.
	ErrUnknownPlugin = errors.New("plugin: unknown plugin")

	// ErrWrongType is returned when a plugin or property has a different type than requested.
	ErrWrongType = errors.New("plugin: wrong type")
)

// Factory constructs an object from its properties.
type Factory func(props *Properties) (any, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a factory available under name. Registering a name twice replaces the factory.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Registered returns the sorted names of all registered plugins.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create instantiates the plugin named by props.
func Create(props *Properties) (any, error) {
	mu.RLock()
	factory, ok := factories[props.PluginName()]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, props.PluginName())
	}

	obj, err := factory(props)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: %w", props.PluginName(), err)
	}
	core.Logger().Debug("plugin: created", "plugin", props.PluginName(), "id", props.ID())
	return obj, nil
}

// CreateAs instantiates a plugin and checks that it implements T.
func CreateAs[T any](props *Properties) (T, error) {
	var zero T
	obj, err := Create(props)
	if err != nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("%w: plugin %q produced %T", ErrWrongType, props.PluginName(), obj)
	}
	return typed, nil
}
