package runtime

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-sofaboot/framework/plugin"
)

// ErrHookDiscovery wraps any failure of the hook Discoverer. It is a
// process configuration error: every caller of Hooks sees it.
var ErrHookDiscovery = errors.New("runtime: hook discovery failed")

// Discoverer produces the hook implementations available to the process.
type Discoverer func() ([]ServiceRegisterHook, error)

// PluginDiscoverer discovers hooks registered with the plugin package.
func PluginDiscoverer() Discoverer {
	return plugin.Load[ServiceRegisterHook]
}

// StaticDiscoverer returns hooks verbatim, in the given order.
func StaticDiscoverer(hooks ...ServiceRegisterHook) Discoverer {
	return func() ([]ServiceRegisterHook, error) {
		return hooks, nil
	}
}

// HookOption configures a HookRegistry.
type HookOption func(*HookRegistry)

// WithDefaultOrder sets the order of hooks that do not implement Ordered.
func WithDefaultOrder(order int) HookOption {
	return func(r *HookRegistry) { r.defaultOrder = order }
}

// WithLogger sets the logger used to report the discovered hooks.
func WithLogger(logger zerolog.Logger) HookOption {
	return func(r *HookRegistry) { r.logger = logger }
}

// HookRegistry discovers the service register hooks once, on first use, and
// keeps them sorted for the rest of its lifetime.
type HookRegistry struct {
	discover     Discoverer
	defaultOrder int
	logger       zerolog.Logger

	once  sync.Once
	hooks []ServiceRegisterHook
	err   error
}

// NewHookRegistry creates a registry that will populate itself from discover.
func NewHookRegistry(discover Discoverer, opts ...HookOption) *HookRegistry {
	r := &HookRegistry{
		discover: discover,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Hooks returns the hooks in ascending order. Hooks with equal order keep
// their discovery order.
//
// Discovery runs at most once, even under concurrent first calls. A
// discoverer that panics counts as a failed discovery. The returned slice
// is shared by every caller and clipped, so appending to it reallocates;
// its elements must not be reassigned.
func (r *HookRegistry) Hooks() ([]ServiceRegisterHook, error) {
	r.once.Do(r.initialize)
	return slices.Clip(r.hooks), r.err
}

// Len returns the number of hooks, or 0 when discovery failed.
func (r *HookRegistry) Len() int {
	hooks, _ := r.Hooks()
	return len(hooks)
}

// OrderOf returns the order the registry sorts hook by.
func (r *HookRegistry) OrderOf(hook ServiceRegisterHook) int {
	if o, ok := hook.(Ordered); ok {
		return o.Order()
	}
	return r.defaultOrder
}

func (r *HookRegistry) initialize() {
	if r.discover == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.hooks = nil
			r.err = fmt.Errorf("%w: panic: %v", ErrHookDiscovery, p)
		}
	}()
	discovered, err := r.discover()
	if err != nil {
		r.err = fmt.Errorf("%w: %w", ErrHookDiscovery, err)
		return
	}

	sorted := slices.Clone(discovered)
	slices.SortStableFunc(sorted, func(a, b ServiceRegisterHook) int {
		return cmp.Compare(r.OrderOf(a), r.OrderOf(b))
	})
	r.hooks = sorted

	for i, h := range sorted {
		r.logger.Debug().
			Int("position", i).
			Int("order", r.OrderOf(h)).
			Str("hook", plugin.TypeKey(h)).
			Msg("Service register hook discovered")
	}
}
