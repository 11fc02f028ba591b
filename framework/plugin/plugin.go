// Package plugin is the process-wide plugin discovery mechanism.
//
// Go has no runtime service loader, so plugins announce themselves from
// init() the same way database/sql drivers do, and are discovered later by
// capability type:
//
//	// in package myhook
//	func init() { plugin.Register[runtime.ServiceRegisterHook](&Hook{}) }
//
//	// in main
//	import _ "example.com/myhook"
//
//	hooks, err := plugin.Load[runtime.ServiceRegisterHook]()
//
// Implementations of one capability are returned in registration order,
// which for init()-time registration is the package initialisation order.
package plugin

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// entry is one registered implementation. Either value or factory is set.
type entry struct {
	name    string
	value   any
	factory func() (any, error)
}

var (
	mu      sync.RWMutex
	entries = make(map[string][]entry) // capability key → implementations
	names   = make(map[string]map[string]bool)
)

// Register adds impl as an implementation of capability T.
//
//	plugin.Register[runtime.ServiceRegisterHook](&AuditHook{})
func Register[T any](impl T) {
	key := keyOf[T]()

	mu.Lock()
	defer mu.Unlock()
	entries[key] = append(entries[key], entry{name: TypeKey(impl), value: impl})
}

// RegisterFactory adds a lazily constructed implementation of capability T.
// fn runs on every Load; an error from fn fails the whole Load.
//
// Registering the same name twice for one capability panics: it can only
// happen through a programming mistake at init time.
func RegisterFactory[T any](name string, fn func() (T, error)) {
	if fn == nil {
		panic(fmt.Sprintf("plugin: nil factory for [%s]", name))
	}
	key := keyOf[T]()

	mu.Lock()
	defer mu.Unlock()
	if names[key] == nil {
		names[key] = make(map[string]bool)
	}
	if names[key][name] {
		panic(fmt.Sprintf("plugin: [%s] registered twice for %s", name, key))
	}
	names[key][name] = true

	entries[key] = append(entries[key], entry{
		name:    name,
		factory: func() (any, error) { return fn() },
	})
}

// Load returns every implementation registered for capability T, in
// registration order.
func Load[T any]() ([]T, error) {
	key := keyOf[T]()

	mu.RLock()
	registered := make([]entry, len(entries[key]))
	copy(registered, entries[key])
	mu.RUnlock()

	out := make([]T, 0, len(registered))
	for _, e := range registered {
		value := e.value
		if e.factory != nil {
			built, err := e.factory()
			if err != nil {
				return nil, fmt.Errorf("plugin: load %s [%s]: %w", key, e.name, err)
			}
			value = built
		}
		typed, ok := value.(T)
		if !ok {
			return nil, fmt.Errorf("plugin: load %s [%s]: got %T", key, e.name, value)
		}
		out = append(out, typed)
	}
	return out, nil
}

// Capabilities returns the keys of every capability with at least one
// registered implementation, sorted.
func Capabilities() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(entries))
	for k := range entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Reset drops every registration. Only meant for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	entries = make(map[string][]entry)
	names = make(map[string]map[string]bool)
}

// TypeKey returns the package-qualified type name of v.
//
//	plugin.TypeKey(&AuditHook{}) // "example.com/audit.AuditHook"
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	return typeName(t)
}

func keyOf[T any]() string {
	return typeName(reflect.TypeFor[T]())
}

func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
