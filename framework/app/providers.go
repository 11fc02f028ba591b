package app

import (
	"net/http"

	"github.com/km-arc/go-sofaboot/framework/binding"
	"github.com/km-arc/go-sofaboot/framework/component"
	gohttp "github.com/km-arc/go-sofaboot/framework/http"
	"github.com/km-arc/go-sofaboot/framework/runtime"
)

// ── ComponentsProvider ────────────────────────────────────────────────────────

// ComponentsContract is the contract the component listing is published
// under.
const ComponentsContract = "sofa.runtime.ComponentRegistry"

// ComponentsPath is the default REST path of the component listing.
const ComponentsPath = "/_components"

// ComponentsProvider publishes a read-only view of the component manager,
// reachable in process and over REST:
//
//	GET {REST_PREFIX}/_components → {"data": [{"name": ..., "state": ...}]}
//
// The application registers it on creation.
type ComponentsProvider struct {
	BaseProvider
	Path string // default: ComponentsPath
}

func (p *ComponentsProvider) Boot(a *Application) error {
	path := p.Path
	if path == "" {
		path = ComponentsPath
	}
	return a.Publish(&runtime.Service{
		InterfaceType: ComponentsContract,
		Bindings: []binding.Binding{
			{Type: binding.TypeLocal},
			{Type: binding.TypeREST, Path: path},
		},
	}, &ComponentsHandler{Manager: a.Components()})
}

// ComponentStatus is one entry of the component listing.
type ComponentStatus struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	State string `json:"state"`
	ID    string `json:"id,omitempty"`
}

// ComponentsHandler serves the components of Manager, sorted by name.
type ComponentsHandler struct {
	Manager *component.Manager
}

// Statuses snapshots the manager.
func (h *ComponentsHandler) Statuses() []ComponentStatus {
	infos := h.Manager.Components()
	out := make([]ComponentStatus, 0, len(infos))
	for _, info := range infos {
		s := ComponentStatus{
			Name:  info.Name().String(),
			Type:  string(info.Type()),
			State: info.State().String(),
		}
		if withID, ok := info.(interface{ ID() string }); ok {
			s.ID = withID.ID()
		}
		out = append(out, s)
	}
	return out
}

func (h *ComponentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		gohttp.NewResponse(w).Error(http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	gohttp.NewResponse(w).Success(h.Statuses())
}
