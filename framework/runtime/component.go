package runtime

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/km-arc/go-sofaboot/framework/binding"
	"github.com/km-arc/go-sofaboot/framework/component"
)

// ServiceComponent is the component record of one published service. It
// exports the service through its bindings when activated.
type ServiceComponent struct {
	id             string
	implementation Implementation
	service        *Service
	factory        binding.AdapterFactory
	rc             *RuntimeContext

	mu       sync.Mutex
	state    component.State
	exported []binding.Binding
}

// NewServiceComponent builds the component record for service.
func NewServiceComponent(implementation Implementation, service *Service, factory binding.AdapterFactory, rc *RuntimeContext) *ServiceComponent {
	return &ServiceComponent{
		id:             uuid.NewString(),
		implementation: implementation,
		service:        service,
		factory:        factory,
		rc:             rc,
	}
}

// ID is a per-record instance id used to correlate logs and spans.
func (c *ServiceComponent) ID() string { return c.id }

func (c *ServiceComponent) Service() *Service                      { return c.service }
func (c *ServiceComponent) Implementation() Implementation         { return c.implementation }
func (c *ServiceComponent) AdapterFactory() binding.AdapterFactory { return c.factory }
func (c *ServiceComponent) RuntimeContext() *RuntimeContext        { return c.rc }

// Name implements component.Info.
// A nil record has the zero name, which the manager rejects.
func (c *ServiceComponent) Name() component.Name {
	if c == nil || c.service == nil {
		return component.Name{}
	}
	return c.service.ComponentName()
}

// Type implements component.Info.
func (c *ServiceComponent) Type() component.Type { return ServiceComponentType }

// State implements component.Info.
func (c *ServiceComponent) State() component.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Register implements component.Info.
func (c *ServiceComponent) Register() {
	c.setState(component.StateRegistered)
}

// Resolve implements component.Info. A service resolves once it has a
// target to export.
func (c *ServiceComponent) Resolve() bool {
	if c.implementation == nil || c.implementation.Target() == nil {
		return false
	}
	c.setState(component.StateResolved)
	return true
}

// Activate implements component.Info by exporting every binding. On the
// first failing binding the ones already exported are withdrawn.
func (c *ServiceComponent) Activate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.implementation.Target()
	for _, b := range c.service.Bindings {
		if err := c.export(target, b); err != nil {
			c.unexportAll()
			return err
		}
		c.exported = append(c.exported, b)
	}
	c.state = component.StateActivated
	logger := c.rc.Logger()
	logger.Debug().
		Str("service", c.Name().String()).
		Str("id", c.id).
		Int("bindings", len(c.exported)).
		Msg("Service activated")
	return nil
}

// Deactivate implements component.Info.
func (c *ServiceComponent) Deactivate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.unexportAll()
	c.state = component.StateDeactivated
	return err
}

// Unregister implements component.Info.
func (c *ServiceComponent) Unregister() {
	c.setState(component.StateUnregistered)
}

func (c *ServiceComponent) export(target any, b binding.Binding) error {
	if c.factory == nil {
		return fmt.Errorf("export %s over %s: %w", c.service.InterfaceType, b.Type, binding.ErrNoAdapter)
	}
	adapter, err := c.factory.Adapter(b.Type)
	if err != nil {
		return fmt.Errorf("export %s: %w", c.service.InterfaceType, err)
	}
	return adapter.Export(c.service.InterfaceType, c.service.UniqueID, target, b)
}

// unexportAll must be called with c.mu held.
func (c *ServiceComponent) unexportAll() error {
	var errs []error
	for i := len(c.exported) - 1; i >= 0; i-- {
		b := c.exported[i]
		adapter, err := c.factory.Adapter(b.Type)
		if err == nil {
			err = adapter.Unexport(c.service.InterfaceType, c.service.UniqueID, b)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	c.exported = nil
	return errors.Join(errs...)
}

func (c *ServiceComponent) setState(s component.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}
