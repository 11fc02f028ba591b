// Package binding describes how a registered service is exposed: in-process,
// over REST, and so on. A Binding is pure data attached to a service
// descriptor; an Adapter does the exporting; an AdapterFactory hands out the
// adapter for a binding type.
package binding

import (
	"errors"
	"fmt"
	"sort"
)

// Type names a binding protocol.
type Type string

const (
	// TypeLocal exposes the service in-process only.
	TypeLocal Type = "local"
	// TypeREST exposes the service on the HTTP router.
	TypeREST Type = "rest"
)

// ErrNoAdapter indicates that no adapter is registered for a binding type.
var ErrNoAdapter = errors.New("binding: no adapter for type")

// Binding is one way a service is exposed.
type Binding struct {
	Type Type
	// Path is protocol specific; for REST it is the mount path.
	Path       string
	Properties map[string]string
}

// Adapter exports service targets for one binding type.
type Adapter interface {
	Type() Type
	Export(contract, uniqueID string, target any, b Binding) error
	Unexport(contract, uniqueID string, b Binding) error
}

// AdapterFactory returns the adapter handling a binding type.
type AdapterFactory interface {
	Adapter(t Type) (Adapter, error)
}

// Factory is the map-backed AdapterFactory.
type Factory struct {
	adapters map[Type]Adapter
}

// NewFactory builds a factory over adapters. A later adapter replaces an
// earlier one of the same type.
func NewFactory(adapters ...Adapter) *Factory {
	f := &Factory{adapters: make(map[Type]Adapter, len(adapters))}
	for _, a := range adapters {
		f.adapters[a.Type()] = a
	}
	return f
}

// Adapter implements AdapterFactory.
func (f *Factory) Adapter(t Type) (Adapter, error) {
	a, ok := f.adapters[t]
	if !ok {
		return nil, fmt.Errorf("%w [%s]", ErrNoAdapter, t)
	}
	return a, nil
}

// Types returns the binding types the factory can serve, sorted.
func (f *Factory) Types() []Type {
	out := make([]Type, 0, len(f.adapters))
	for t := range f.adapters {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
