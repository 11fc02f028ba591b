package runtime

// ServiceRegisterHook is invoked around every service registration.
//
// Hooks are discovered through the plugin package and run in ascending
// order (see Ordered). Before receives the service about to be registered
// and may veto the registration by returning an error. After is a
// notification that a registration completed; it is deliberately not told
// which service it was.
type ServiceRegisterHook interface {
	Before(service *Service, rc *RuntimeContext) error
	After() error
}

// Ordered is implemented by hooks that choose their position. Lower values
// run first. Hooks that do not implement it get the registry's default
// order.
type Ordered interface {
	Order() int
}

// HookFuncs adapts a pair of functions to ServiceRegisterHook. Nil
// functions are no-ops.
type HookFuncs struct {
	Priority   int
	BeforeFunc func(service *Service, rc *RuntimeContext) error
	AfterFunc  func() error
}

func (h *HookFuncs) Order() int { return h.Priority }

func (h *HookFuncs) Before(service *Service, rc *RuntimeContext) error {
	if h.BeforeFunc == nil {
		return nil
	}
	return h.BeforeFunc(service, rc)
}

func (h *HookFuncs) After() error {
	if h.AfterFunc == nil {
		return nil
	}
	return h.AfterFunc()
}
