package app

import "fmt"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the services of one feature.
//
// Register is called as soon as the provider is added and should only
// prepare state. Boot is called once every provider has been registered;
// that is the place to Publish services, since hooks and bindings are
// fully wired by then.
//
//	type GreeterProvider struct{ app.BaseProvider }
//
//	func (p *GreeterProvider) Boot(a *app.Application) error {
//	    return a.Publish(&runtime.Service{InterfaceType: "demo.Greeter"}, greeter{})
//	}
type ServiceProvider interface {
	Register(app *Application) error
	Boot(app *Application) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Register and Boot.
// Embed it in your provider and only override what you need.
type BaseProvider struct{}

func (p *BaseProvider) Register(_ *Application) error { return nil }
func (p *BaseProvider) Boot(_ *Application) error     { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders.
// It is not safe for concurrent use; providers are registered during
// bootstrap.
type ProviderRegistry struct {
	app        *Application
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Application) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register method. Adding the same
// provider twice is a no-op. A provider added after Boot is booted
// immediately.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("app: register %T: %w", provider, err)
	}
	r.registered[provider] = true
	r.providers = append(r.providers, provider)

	if r.booted {
		return r.boot(provider)
	}
	return nil
}

// Boot calls Boot on every provider, in registration order, and stops at
// the first error. It runs once.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.providers {
		if err := r.boot(provider); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProviderRegistry) boot(provider ServiceProvider) error {
	if err := provider.Boot(r.app); err != nil {
		return fmt.Errorf("app: boot %T: %w", provider, err)
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.providers }
