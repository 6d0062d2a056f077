// Package typeregistry implements the type registry described in spec
// §3/§4.2: a mapping from a string tag to a function able to deserialize a
// YAML node into a boxed, tagged value, so on-disk state can be revived
// without the reader knowing the concrete Go type up front.
//
// Grounded on the teacher's libs/project/state.Register/GetConfig global
// registry (libs/project/state/registry.go), but instantiated per use
// (one Registry for current/ensured/cleaned state, a second for desired
// state, one per params scope) rather than a single global map, since
// spec §4.2 calls for "two registries" with independent tag namespaces.
package typeregistry

import (
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Boxed is any value carrying a registry tag, satisfying the "clone,
// serialize, display" erased-value protocol from spec §9. Concrete state
// types implement this by embedding the type as-is; Tag is supplied by
// the registration, not the value.
type Boxed = any

// Deserializer decodes a YAML node into a boxed value for a given tag.
type Deserializer func(node *yaml.Node) (Boxed, error)

// Registry maps a string tag to a Deserializer. Safe for concurrent use;
// item specs register their tags during graph construction, which may
// happen concurrently with setup of unrelated items.
type Registry struct {
	mu            sync.RWMutex
	deserializers map[string]Deserializer
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{deserializers: make(map[string]Deserializer)}
}

// Register associates tag with a deserializer. Panics on duplicate
// registration of the same tag, matching the teacher's Register
// semantics (duplicate registration is a programmer error, not a
// recoverable one).
func (r *Registry) Register(tag string, d Deserializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.deserializers[tag]; exists {
		panic(fmt.Sprintf("typeregistry: tag already registered: %s", tag))
	}
	r.deserializers[tag] = d
}

// Deserialize resolves tag to its Deserializer and decodes node.
// Returns an error if tag is unregistered.
func (r *Registry) Deserialize(tag string, node *yaml.Node) (Boxed, error) {
	r.mu.RLock()
	d, ok := r.deserializers[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("typeregistry: no deserializer registered for tag %q", tag)
	}
	return d(node)
}

// Tags returns all registered tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.deserializers))
	for tag := range r.deserializers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.deserializers[tag]
	return ok
}

// RegisterValue is a convenience wrapper for the common case where State
// (or StateDiff, or a params value) is a struct deserializable directly
// via yaml.Node.Decode into a zero value of T.
func RegisterValue[T any](r *Registry, tag string) {
	r.Register(tag, func(node *yaml.Node) (Boxed, error) {
		var v T
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("typeregistry: decode tag %q: %w", tag, err)
		}
		return v, nil
	})
}
