package plugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/df07/go-scene-tracer/pkg/core"
)

// Properties is the named configuration of one plugin instance.
// Getters take a default that is returned when the key is absent.
type Properties struct {
	pluginName string
	id         string
	values     map[string]any
}

// NewProperties creates an empty property list for the named plugin
func NewProperties(pluginName string) *Properties {
	return &Properties{pluginName: pluginName, values: make(map[string]any)}
}

// PluginName returns the plugin to instantiate
func (p *Properties) PluginName() string { return p.pluginName }

// ID returns the instance identifier, empty when unnamed
func (p *Properties) ID() string { return p.id }

// SetID names the instance
func (p *Properties) SetID(id string) *Properties {
	p.id = id
	return p
}

// Has reports whether a key is set
func (p *Properties) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the set keys in sorted order
func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *Properties) set(key string, value any) *Properties {
	p.values[key] = value
	return p
}

// SetFloat stores a float property
func (p *Properties) SetFloat(key string, v float64) *Properties { return p.set(key, v) }

// SetInt stores an integer property
func (p *Properties) SetInt(key string, v int) *Properties { return p.set(key, v) }

// SetBool stores a boolean property
func (p *Properties) SetBool(key string, v bool) *Properties { return p.set(key, v) }

// SetString stores a string property
func (p *Properties) SetString(key string, v string) *Properties { return p.set(key, v) }

// SetVec3 stores a vector or color property
func (p *Properties) SetVec3(key string, v core.Vec3) *Properties { return p.set(key, v) }

// SetTransform stores a transform property
func (p *Properties) SetTransform(key string, v core.Transform) *Properties { return p.set(key, v) }

// lookup returns the value for key as T, or def when absent
func lookup[T any](p *Properties, key string, def T) (T, error) {
	raw, ok := p.values[key]
	if !ok {
		return def, nil
	}
	v, ok := raw.(T)
	if !ok {
		return def, fmt.Errorf("%w: property %q is %T, want %T", ErrWrongType, key, raw, def)
	}
	return v, nil
}

// Float returns a float property. Integer values are widened.
func (p *Properties) Float(key string, def float64) (float64, error) {
	if i, ok := p.values[key].(int); ok {
		return float64(i), nil
	}
	return lookup(p, key, def)
}

// Int returns an integer property
func (p *Properties) Int(key string, def int) (int, error) {
	return lookup(p, key, def)
}

// Bool returns a boolean property
func (p *Properties) Bool(key string, def bool) (bool, error) {
	return lookup(p, key, def)
}

// String returns a string property
func (p *Properties) String(key string, def string) (string, error) {
	return lookup(p, key, def)
}

// Vec3 returns a vector property
func (p *Properties) Vec3(key string, def core.Vec3) (core.Vec3, error) {
	return lookup(p, key, def)
}

// Transform returns a transform property
func (p *Properties) Transform(key string, def core.Transform) (core.Transform, error) {
	return lookup(p, key, def)
}

// Describe renders the property list for logs
func (p *Properties) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Properties[plugin=%q", p.pluginName)
	if p.id != "" {
		fmt.Fprintf(&sb, ", id=%q", p.id)
	}
	for _, k := range p.Keys() {
		if _, ok := p.values[k].(core.Transform); ok {
			fmt.Fprintf(&sb, ", %s=<transform>", k)
			continue
		}
		fmt.Fprintf(&sb, ", %s=%v", k, p.values[k])
	}
	sb.WriteString("]")
	return sb.String()
}
