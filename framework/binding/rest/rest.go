// Package rest implements the REST binding: a service target is mounted on
// the application router under prefix + binding path.
//
// A target is servable when it is a routing.ResourceController (standard
// index/store/show/update/destroy routes) or a plain http.Handler.
//
// chi cannot remove a route, so Unexport only disables the mount; the path
// answers 404 until a service is exported there again. Export is expected
// to happen while the application boots, before the router serves traffic.
package rest

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/km-arc/go-sofaboot/framework/binding"
	gohttp "github.com/km-arc/go-sofaboot/framework/http"
	"github.com/km-arc/go-sofaboot/framework/routing"
)

var (
	// ErrUnsupportedTarget indicates a target that cannot be served over HTTP.
	ErrUnsupportedTarget = errors.New("rest: target is neither a ResourceController nor an http.Handler")
	// ErrInvalidPath indicates a binding path that does not start with "/".
	ErrInvalidPath = errors.New("rest: binding path must start with /")
	// ErrPathInUse indicates the path already serves another service.
	ErrPathInUse = errors.New("rest: path already in use")
	// ErrNotExported indicates an Unexport for a path serving nothing.
	ErrNotExported = errors.New("rest: not exported")
)

// ServicesPath is the listing endpoint, relative to the adapter prefix.
const ServicesPath = "/_services"

// Exported describes one service currently served by the adapter.
type Exported struct {
	Contract string `json:"contract"`
	UniqueID string `json:"unique_id,omitempty"`
	Path     string `json:"path"`
	Kind     string `json:"kind"`
}

// mount is attached to the router once per path and swaps its handler on
// export/unexport.
type mount struct {
	mu      sync.RWMutex
	handler http.Handler
	info    Exported
}

func (m *mount) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	h := m.handler
	m.mu.RUnlock()
	if h == nil {
		gohttp.NewResponse(w).NotFound()
		return
	}
	h.ServeHTTP(w, r)
}

func (m *mount) active() (Exported, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.info, m.handler != nil
}

// Adapter is the REST binding adapter.
type Adapter struct {
	router *routing.Router
	prefix string

	mu     sync.Mutex
	mounts map[string]*mount // full path → mount
}

// New creates a REST adapter serving under prefix on router and registers
// the listing endpoint at prefix + ServicesPath.
func New(router *routing.Router, prefix string) *Adapter {
	a := &Adapter{
		router: router,
		prefix: strings.TrimSuffix(prefix, "/"),
		mounts: make(map[string]*mount),
	}
	router.Get(a.prefix+ServicesPath, a.listServices)
	return a
}

// Type implements binding.Adapter.
func (a *Adapter) Type() binding.Type { return binding.TypeREST }

// Export implements binding.Adapter.
func (a *Adapter) Export(contract, uniqueID string, target any, b binding.Binding) error {
	if !strings.HasPrefix(b.Path, "/") {
		return fmt.Errorf("export %s: %w", contract, ErrInvalidPath)
	}
	if b.Path == ServicesPath {
		return fmt.Errorf("export %s at %s: %w", contract, b.Path, ErrPathInUse)
	}

	handler, kind, err := handlerFor(target)
	if err != nil {
		return fmt.Errorf("export %s: %w", contract, err)
	}

	path := a.prefix + b.Path
	info := Exported{Contract: contract, UniqueID: uniqueID, Path: path, Kind: kind}

	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.mounts[path]
	if !ok {
		m = &mount{handler: handler, info: info}
		a.mounts[path] = m
		a.router.Mount(path, m)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handler != nil {
		return fmt.Errorf("export %s at %s: %w", contract, path, ErrPathInUse)
	}
	m.handler = handler
	m.info = info
	return nil
}

// Unexport implements binding.Adapter.
func (a *Adapter) Unexport(contract, uniqueID string, b binding.Binding) error {
	path := a.prefix + b.Path

	a.mu.Lock()
	m, ok := a.mounts[path]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("unexport %s at %s: %w", contract, path, ErrNotExported)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handler == nil || m.info.Contract != contract || m.info.UniqueID != uniqueID {
		return fmt.Errorf("unexport %s at %s: %w", contract, path, ErrNotExported)
	}
	m.handler = nil
	return nil
}

// Exported returns the services currently served, sorted by path.
func (a *Adapter) Exported() []Exported {
	a.mu.Lock()
	out := make([]Exported, 0, len(a.mounts))
	for _, m := range a.mounts {
		if info, ok := m.active(); ok {
			out = append(out, info)
		}
	}
	a.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (a *Adapter) listServices(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(a.Exported())
}

func handlerFor(target any) (http.Handler, string, error) {
	switch t := target.(type) {
	case routing.ResourceController:
		sub := routing.Sub()
		sub.Resource("/", t)
		return sub, "resource", nil
	case http.Handler:
		return t, "handler", nil
	default:
		return nil, "", ErrUnsupportedTarget
	}
}
