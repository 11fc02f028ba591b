// Package tracinghook records an OpenTelemetry span for each registration
// phase it observes.
package tracinghook

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/km-arc/go-sofaboot/framework/plugin"
	"github.com/km-arc/go-sofaboot/framework/runtime"
)

// Order runs the hook after the other bundled hooks.
const Order = 100

// Span names.
const (
	SpanBefore = "service.register.before"
	SpanAfter  = "service.register.after"
)

// Attribute keys.
const (
	AttrApp      = "sofa.app"
	AttrContract = "sofa.service.contract"
	AttrUniqueID = "sofa.service.unique_id"
	AttrBindings = "sofa.service.bindings"
)

const instrumentationName = "github.com/km-arc/go-sofaboot/framework/hooks/tracinghook"

func init() {
	plugin.Register[runtime.ServiceRegisterHook](New(nil))
}

// Hook emits spans through a tracer provider.
type Hook struct {
	provider trace.TracerProvider
}

// New creates the hook. A nil provider means the global provider,
// resolved on every call so a provider installed later is honored.
func New(provider trace.TracerProvider) *Hook {
	return &Hook{provider: provider}
}

func (h *Hook) Order() int { return Order }

func (h *Hook) tracer() trace.Tracer {
	if h.provider != nil {
		return h.provider.Tracer(instrumentationName)
	}
	return otel.Tracer(instrumentationName)
}

func (h *Hook) Before(service *runtime.Service, rc *runtime.RuntimeContext) error {
	attrs := []attribute.KeyValue{
		attribute.String(AttrContract, service.InterfaceType),
		attribute.Int(AttrBindings, len(service.Bindings)),
	}
	if service.UniqueID != "" {
		attrs = append(attrs, attribute.String(AttrUniqueID, service.UniqueID))
	}
	if rc != nil {
		attrs = append(attrs, attribute.String(AttrApp, rc.AppName()))
	}

	_, span := h.tracer().Start(context.Background(), SpanBefore, trace.WithAttributes(attrs...))
	span.End()
	return nil
}

func (h *Hook) After() error {
	_, span := h.tracer().Start(context.Background(), SpanAfter)
	span.End()
	return nil
}
