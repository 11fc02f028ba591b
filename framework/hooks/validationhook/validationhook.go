// Package validationhook vetoes the registration of malformed services.
//
// Importing the package enables the hook:
//
//	import _ "github.com/km-arc/go-sofaboot/framework/hooks/validationhook"
package validationhook

import (
	"errors"
	"fmt"

	"github.com/km-arc/go-sofaboot/framework/binding"
	"github.com/km-arc/go-sofaboot/framework/plugin"
	"github.com/km-arc/go-sofaboot/framework/runtime"
	"github.com/km-arc/go-sofaboot/framework/validation"
)

// Order runs the hook ahead of every other bundled hook.
const Order = -1000

// ErrInvalidService is returned for a service that fails validation.
var ErrInvalidService = errors.New("validationhook: invalid service")

var rules = validation.Rules{
	"interface": "required|identifier|max:255",
	"unique_id": "alpha_dash|max:64",
}

func init() {
	plugin.Register[runtime.ServiceRegisterHook](New())
}

// Hook validates service descriptors before they are registered.
type Hook struct{}

// New creates the hook.
func New() *Hook { return &Hook{} }

func (h *Hook) Order() int { return Order }

func (h *Hook) Before(service *runtime.Service, _ *runtime.RuntimeContext) error {
	if service == nil {
		return fmt.Errorf("%w: missing descriptor", ErrInvalidService)
	}

	data := map[string]string{
		"interface": service.InterfaceType,
		"unique_id": service.UniqueID,
	}
	r := make(validation.Rules, len(rules)+2*len(service.Bindings))
	for k, v := range rules {
		r[k] = v
	}
	for i, b := range service.Bindings {
		typeField := fmt.Sprintf("bindings.%d.type", i)
		data[typeField] = string(b.Type)
		r[typeField] = fmt.Sprintf("required|in:%s,%s", binding.TypeLocal, binding.TypeREST)

		if b.Type == binding.TypeREST {
			pathField := fmt.Sprintf("bindings.%d.path", i)
			data[pathField] = b.Path
			r[pathField] = `required|regex:^/[A-Za-z0-9_\-/{}.]*$`
		}
	}

	v := validation.Make(data, r)
	if v.Fails() {
		return fmt.Errorf("%w: %s", ErrInvalidService, v.Errors().Error())
	}
	return nil
}

func (h *Hook) After() error { return nil }
