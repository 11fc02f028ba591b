package app

import (
	"fmt"
	"net/http"
)

// GreeterContract is the contract greeters are published under.
const GreeterContract = "demo.Greeter"

// Greeter greets by name.
type Greeter interface {
	Greet(name string) string
}

// PhraseGreeter greets with a fixed phrase and serves it over HTTP:
//
//	GET /greeter?name=Ada → {"data": {"greeting": "Hello, Ada!"}}
type PhraseGreeter struct {
	Controller
	Phrase string
}

func (g *PhraseGreeter) Greet(name string) string {
	if name == "" {
		name = "world"
	}
	return fmt.Sprintf("%s, %s!", g.Phrase, name)
}

func (g *PhraseGreeter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := g.Request(r).Query("name")
	g.Response(w).Success(map[string]string{"greeting": g.Greet(name)})
}
