package app

import (
	"errors"

	foundation "github.com/km-arc/go-sofaboot/framework/app"
	"github.com/km-arc/go-sofaboot/framework/binding"
	"github.com/km-arc/go-sofaboot/framework/runtime"
)

// ServiceProvider publishes the demo services when the application boots.
type ServiceProvider struct {
	foundation.BaseProvider

	Users *UsersController
}

func (p *ServiceProvider) Register(_ *foundation.Application) error {
	if p.Users == nil {
		p.Users = NewUsersController(
			User{ID: 1, Name: "Alice", Role: "admin"},
			User{ID: 2, Name: "Bob", Role: "member"},
		)
	}
	return nil
}

// greeterPhrases maps a greeter's unique id to its phrase. Each greeter is
// served at /v1/greeter/{id}.
var greeterPhrases = []struct{ id, phrase string }{
	{"en", "Hello"},
	{"fr", "Bonjour"},
}

// GreeterPath returns the REST path of the greeter published under id.
func GreeterPath(id string) string { return "/v1/greeter/" + id }

func (p *ServiceProvider) Boot(a *foundation.Application) error {
	errs := []error{
		a.Publish(&runtime.Service{
			InterfaceType: UserServiceContract,
			Metadata:      map[string]string{"version": "v1"},
			Bindings: []binding.Binding{
				{Type: binding.TypeLocal},
				{Type: binding.TypeREST, Path: "/v1/users"},
			},
		}, p.Users),
	}
	for _, g := range greeterPhrases {
		errs = append(errs, a.Publish(&runtime.Service{
			InterfaceType: GreeterContract,
			UniqueID:      g.id,
			Bindings: []binding.Binding{
				{Type: binding.TypeLocal},
				{Type: binding.TypeREST, Path: GreeterPath(g.id)},
			},
		}, &PhraseGreeter{Phrase: g.phrase}))
	}
	return errors.Join(errs...)
}
