// Package component provides the component manager: the registry every
// published service ends up in, and the lifecycle it goes through.
//
// # Lifecycle
//
//  1. Register: the manager records the component (state registered)
//  2. Resolve: the component checks it has what it needs (state resolved)
//  3. Activate: the component starts serving, e.g. exports its bindings
//  4. Deactivate / Unregister: on Manager.Unregister or Manager.Shutdown
//
// A component that does not resolve stays registered but inactive. A
// component that fails to activate stays registered in the resolved state;
// the manager reports the error and does not roll the registration back.
//
// # Names
//
// Every component is identified by a Name made of its Type and a raw
// name, written "type:raw":
//
//	component.NewName("service", "app.UserService#primary").String()
//	// "service:app.UserService#primary"
//
// Names are unique per manager; registering a second component under the
// same name fails with ErrComponentExists.
//
// # Callbacks
//
//	m.AfterRegistering(func(info component.Info) {
//	    log.Info().Str("component", info.Name().String()).Msg("registered")
//	})
//
// Callbacks run after the lifecycle steps, outside the manager lock, so
// they may call back into the manager.
package component
