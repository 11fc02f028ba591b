package component

import "fmt"

// Type identifies a family of components, e.g. "service".
type Type string

// Name is the unique identity of a component inside a Manager.
type Name struct {
	Type Type
	Raw  string
}

// NewName builds a component name of the given type.
func NewName(t Type, raw string) Name {
	return Name{Type: t, Raw: raw}
}

// String renders the name as "type:raw".
func (n Name) String() string {
	return fmt.Sprintf("%s:%s", n.Type, n.Raw)
}

// IsZero reports whether the name is empty.
func (n Name) IsZero() bool { return n.Raw == "" }

// State is the lifecycle state of a component.
type State int

const (
	StateInit State = iota
	StateRegistered
	StateResolved
	StateActivated
	StateDeactivated
	StateUnregistered
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRegistered:
		return "registered"
	case StateResolved:
		return "resolved"
	case StateActivated:
		return "activated"
	case StateDeactivated:
		return "deactivated"
	case StateUnregistered:
		return "unregistered"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Info is the contract every component managed by a Manager implements.
//
// The Manager drives the lifecycle: Register, then Resolve, then Activate
// when Resolve reports all requirements are met. Unregister reverses it.
type Info interface {
	Name() Name
	Type() Type
	State() State

	// Register moves the component into the registered state.
	Register()
	// Resolve reports whether the component is ready to activate.
	Resolve() bool
	// Activate makes the component usable (e.g. exports its bindings).
	Activate() error
	// Deactivate withdraws what Activate did.
	Deactivate() error
	// Unregister releases the component.
	Unregister()
}
