// Package local implements the in-process binding: exported targets can be
// looked up by contract and unique id from anywhere in the process.
package local

import (
	"errors"
	"fmt"
	"sync"

	"github.com/km-arc/go-sofaboot/framework/binding"
)

var (
	// ErrAlreadyExported indicates the contract/unique-id pair is taken.
	ErrAlreadyExported = errors.New("local: already exported")
	// ErrNotExported indicates an Unexport or Lookup miss.
	ErrNotExported = errors.New("local: not exported")
)

type key struct {
	contract string
	uniqueID string
}

// Adapter is the in-process binding adapter.
type Adapter struct {
	mu      sync.RWMutex
	targets map[key]any
}

// New creates an empty local adapter.
func New() *Adapter {
	return &Adapter{targets: make(map[key]any)}
}

// Type implements binding.Adapter.
func (a *Adapter) Type() binding.Type { return binding.TypeLocal }

// Export implements binding.Adapter.
func (a *Adapter) Export(contract, uniqueID string, target any, _ binding.Binding) error {
	k := key{contract, uniqueID}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.targets[k]; ok {
		return fmt.Errorf("export %s#%s: %w", contract, uniqueID, ErrAlreadyExported)
	}
	a.targets[k] = target
	return nil
}

// Unexport implements binding.Adapter.
func (a *Adapter) Unexport(contract, uniqueID string, _ binding.Binding) error {
	k := key{contract, uniqueID}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.targets[k]; !ok {
		return fmt.Errorf("unexport %s#%s: %w", contract, uniqueID, ErrNotExported)
	}
	delete(a.targets, k)
	return nil
}

// Lookup returns the target exported under contract and uniqueID.
func (a *Adapter) Lookup(contract, uniqueID string) (any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	target, ok := a.targets[key{contract, uniqueID}]
	if !ok {
		return nil, fmt.Errorf("lookup %s#%s: %w", contract, uniqueID, ErrNotExported)
	}
	return target, nil
}

// LookupAs is Lookup plus a type assertion.
//
//	greeter, err := local.LookupAs[Greeter](adapter, "app.Greeter", "")
func LookupAs[T any](a *Adapter, contract, uniqueID string) (T, error) {
	var zero T
	target, err := a.Lookup(contract, uniqueID)
	if err != nil {
		return zero, err
	}
	typed, ok := target.(T)
	if !ok {
		return zero, fmt.Errorf("lookup %s#%s: target is %T", contract, uniqueID, target)
	}
	return typed, nil
}
