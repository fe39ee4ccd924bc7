package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[Kind]KindDefinition)
	registryMu sync.RWMutex
)

// Register adds a kind definition to the registry.
// Panics if the kind is invalid, has no validator, or is already registered.
func Register(def KindDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if !def.Kind.Valid() {
		panic(fmt.Sprintf("invalid kind: %d", int(def.Kind)))
	}
	if def.Validate == nil {
		panic(fmt.Sprintf("kind %s registered without a validator", def.Kind))
	}
	if _, exists := registry[def.Kind]; exists {
		panic(fmt.Sprintf("kind already registered: %s", def.Kind))
	}

	if def.Label == "" {
		def.Label = def.Kind.String()
	}

	registry[def.Kind] = def
}

// Get returns the definition for kind.
// Returns false if not found.
func Get(kind Kind) (KindDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[kind]
	return def, ok
}

// All returns all registered definitions in step order (by Kind value).
func All() []KindDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]KindDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Kind < result[j].Kind
	})

	return result
}

// KindCount returns the number of registered kinds.
func KindCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered kinds.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[Kind]KindDefinition)
}

// RegistryValidators returns a ValidatorLookup backed by the global registry.
func RegistryValidators() ValidatorLookup {
	return func(kind Kind) (ValidateFunc, bool) {
		def, ok := Get(kind)
		if !ok {
			return nil, false
		}
		return def.Validate, true
	}
}
