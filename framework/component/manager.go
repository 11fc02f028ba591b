package component

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrInvalidComponent indicates a nil component or one without a name.
	ErrInvalidComponent = errors.New("component: invalid component")
	// ErrComponentExists indicates a duplicate component name.
	ErrComponentExists = errors.New("component: already registered")
	// ErrComponentNotFound indicates a lookup miss.
	ErrComponentNotFound = errors.New("component: not found")
)

// Manager is the authoritative registry of components.
//
// It is safe for concurrent use. Callbacks registered with AfterRegistering
// run outside the lock, in registration order.
type Manager struct {
	mu sync.RWMutex

	// name → component
	components map[Name]Info

	// type → names, in registration order
	byType map[Type][]Name

	afterRegistering []func(Info)

	logger zerolog.Logger
}

// NewManager creates an empty component manager.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		components: make(map[Name]Info),
		byType:     make(map[Type][]Name),
		logger:     logger.With().Str("component", "component-manager").Logger(),
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register adds info to the manager and drives it through its lifecycle.
// Info implementations must report a zero Name for a nil receiver; such
// components are rejected with ErrInvalidComponent.
//
// A component that resolves but fails to activate stays registered in the
// resolved state and the activation error is returned.
func (m *Manager) Register(info Info) error {
	if info == nil || info.Name().IsZero() {
		return ErrInvalidComponent
	}
	name := info.Name()

	m.mu.Lock()
	if _, exists := m.components[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("register %s: %w", name, ErrComponentExists)
	}
	m.components[name] = info
	m.byType[info.Type()] = append(m.byType[info.Type()], name)
	m.mu.Unlock()

	info.Register()
	m.logger.Debug().Str("name", name.String()).Msg("Component registered")

	var err error
	if info.Resolve() {
		if err = info.Activate(); err != nil {
			err = fmt.Errorf("activate %s: %w", name, err)
			m.logger.Warn().Err(err).Str("name", name.String()).Msg("Component activation failed")
		}
	}

	m.fireAfterRegistering(info)
	return err
}

// Unregister deactivates and removes a component.
func (m *Manager) Unregister(name Name) error {
	m.mu.Lock()
	info, ok := m.components[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("unregister %s: %w", name, ErrComponentNotFound)
	}
	delete(m.components, name)
	m.byType[info.Type()] = removeName(m.byType[info.Type()], name)
	m.mu.Unlock()

	var err error
	if info.State() == StateActivated {
		if err = info.Deactivate(); err != nil {
			err = fmt.Errorf("deactivate %s: %w", name, err)
		}
	}
	info.Unregister()
	m.logger.Debug().Str("name", name.String()).Msg("Component unregistered")
	return err
}

// Shutdown unregisters every component and returns all failures joined.
func (m *Manager) Shutdown() error {
	var errs []error
	for _, info := range m.Components() {
		if err := m.Unregister(info.Name()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// Component returns the component registered under name.
func (m *Manager) Component(name Name) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.components[name]
	return info, ok
}

// Components returns every component, sorted by name.
func (m *Manager) Components() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.components))
	for _, info := range m.components {
		out = append(out, info)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name().String() < out[j].Name().String()
	})
	return out
}

// ComponentsByType returns the components of type t in registration order.
func (m *Manager) ComponentsByType(t Type) []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := m.byType[t]
	out := make([]Info, 0, len(names))
	for _, n := range names {
		out = append(out, m.components[n])
	}
	return out
}

// Len returns the number of registered components.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.components)
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterRegistering registers a callback fired after any component has gone
// through Register, whether or not activation succeeded.
func (m *Manager) AfterRegistering(cb func(Info)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.afterRegistering = append(m.afterRegistering, cb)
}

func (m *Manager) fireAfterRegistering(info Info) {
	m.mu.RLock()
	cbs := m.afterRegistering
	m.mu.RUnlock()
	for _, cb := range cbs {
		cb(info)
	}
}

func removeName(names []Name, name Name) []Name {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
