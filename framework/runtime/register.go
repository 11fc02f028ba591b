package runtime

import (
	"github.com/km-arc/go-sofaboot/framework/binding"
)

// Registrar publishes services into a runtime, bracketing every
// registration with the before and after hooks of its HookRegistry.
//
// A Registrar holds no mutable state of its own and may be used from
// several goroutines; hooks and the component manager must then be safe
// for concurrent use themselves.
type Registrar struct {
	hooks *HookRegistry
}

// NewRegistrar creates a Registrar running the hooks of hooks.
func NewRegistrar(hooks *HookRegistry) *Registrar {
	return &Registrar{hooks: hooks}
}

// Hooks returns the registry the Registrar runs.
func (r *Registrar) Hooks() *HookRegistry { return r.hooks }

// RegisterService registers target as the implementation of service with
// the component manager of rc.
//
// Every hook's Before runs first, in order. The component record is then
// handed to the component manager, and every hook's After runs in the same
// order. The first error stops everything that follows it and is returned
// as is. An error from an After hook is reported after the service has
// already been registered: the registration is not undone.
func (r *Registrar) RegisterService(service *Service, target any, factory binding.AdapterFactory, rc *RuntimeContext) error {
	hooks, err := r.hooks.Hooks()
	if err != nil {
		return err
	}

	for _, hook := range hooks {
		if err := hook.Before(service, rc); err != nil {
			return err
		}
	}

	record := NewServiceComponent(NewImplementation(target), service, factory, rc)
	if err := rc.ComponentManager().Register(record); err != nil {
		return err
	}

	for _, hook := range hooks {
		if err := hook.After(); err != nil {
			return err
		}
	}
	return nil
}
