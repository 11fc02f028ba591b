package runtime

import (
	"github.com/rs/zerolog"

	"github.com/km-arc/go-sofaboot/framework/component"
)

// ComponentManager accepts component records. *component.Manager is the
// implementation used by the application.
type ComponentManager interface {
	Register(info component.Info) error
}

// RuntimeContext is the handle to the surrounding runtime that hooks and
// component records receive. It is borrowed for the duration of a call.
type RuntimeContext struct {
	appName string
	manager ComponentManager
	logger  zerolog.Logger
}

// NewRuntimeContext creates a runtime context for appName backed by manager.
func NewRuntimeContext(appName string, manager ComponentManager, logger zerolog.Logger) *RuntimeContext {
	return &RuntimeContext{appName: appName, manager: manager, logger: logger}
}

// AppName returns the owning application's name.
func (rc *RuntimeContext) AppName() string { return rc.appName }

// ComponentManager returns the registration sink.
func (rc *RuntimeContext) ComponentManager() ComponentManager { return rc.manager }

// Logger returns the runtime logger.
func (rc *RuntimeContext) Logger() zerolog.Logger { return rc.logger }
