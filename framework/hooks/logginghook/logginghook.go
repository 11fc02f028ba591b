// Package logginghook logs every service registration.
package logginghook

import (
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/km-arc/go-sofaboot/framework/plugin"
	"github.com/km-arc/go-sofaboot/framework/runtime"
)

// Order places the hook after validation and before tracing.
const Order = -100

func init() {
	plugin.Register[runtime.ServiceRegisterHook](New(nil))
}

// Hook writes one line before and one after each registration.
type Hook struct {
	logger    *zerolog.Logger
	completed atomic.Int64
}

// New creates the hook. A nil logger means the runtime context's logger
// in Before and the global logger in After.
func New(logger *zerolog.Logger) *Hook {
	return &Hook{logger: logger}
}

func (h *Hook) Order() int { return Order }

func (h *Hook) Before(service *runtime.Service, rc *runtime.RuntimeContext) error {
	logger := h.loggerFor(rc)
	logger.Info().
		Str("contract", service.InterfaceType).
		Str("unique_id", service.UniqueID).
		Int("bindings", len(service.Bindings)).
		Msg("Registering service")
	return nil
}

func (h *Hook) After() error {
	n := h.completed.Add(1)
	logger := h.loggerFor(nil)
	logger.Debug().Int64("registrations", n).Msg("Service registered")
	return nil
}

// Completed returns how many registrations reached After.
func (h *Hook) Completed() int64 { return h.completed.Load() }

func (h *Hook) loggerFor(rc *runtime.RuntimeContext) zerolog.Logger {
	switch {
	case h.logger != nil:
		return *h.logger
	case rc != nil:
		return rc.Logger()
	default:
		return log.Logger
	}
}
