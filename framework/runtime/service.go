package runtime

import (
	"github.com/km-arc/go-sofaboot/framework/binding"
	"github.com/km-arc/go-sofaboot/framework/component"
)

// ServiceComponentType is the component type of every published service.
const ServiceComponentType component.Type = "service"

// Service describes a service being published: the contract it fulfils, an
// optional unique id distinguishing several implementations of the same
// contract, free-form metadata and the bindings it is exposed through.
type Service struct {
	// InterfaceType is the contract name, e.g. "app.UserService".
	InterfaceType string
	UniqueID      string
	Metadata      map[string]string
	Bindings      []binding.Binding
}

// ComponentName is the identity the service is registered under.
func (s *Service) ComponentName() component.Name {
	raw := s.InterfaceType
	if s.UniqueID != "" {
		raw += "#" + s.UniqueID
	}
	return component.NewName(ServiceComponentType, raw)
}

// HasBinding reports whether the service is exposed through binding type t.
func (s *Service) HasBinding(t binding.Type) bool {
	for _, b := range s.Bindings {
		if b.Type == t {
			return true
		}
	}
	return false
}

// Implementation holds the concrete object backing a service.
type Implementation interface {
	Target() any
	SetTarget(target any)
}

// DefaultImplementation is the plain Implementation.
type DefaultImplementation struct {
	target any
}

// NewImplementation wraps target.
func NewImplementation(target any) *DefaultImplementation {
	return &DefaultImplementation{target: target}
}

func (i *DefaultImplementation) Target() any          { return i.target }
func (i *DefaultImplementation) SetTarget(target any) { i.target = target }
