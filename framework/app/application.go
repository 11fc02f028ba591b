package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/km-arc/go-sofaboot/framework/binding"
	"github.com/km-arc/go-sofaboot/framework/binding/local"
	"github.com/km-arc/go-sofaboot/framework/binding/rest"
	"github.com/km-arc/go-sofaboot/framework/component"
	"github.com/km-arc/go-sofaboot/framework/config"
	"github.com/km-arc/go-sofaboot/framework/logging"
	"github.com/km-arc/go-sofaboot/framework/routing"
	"github.com/km-arc/go-sofaboot/framework/runtime"
)

// Version of the framework.
const Version = "0.1.0"

const shutdownTimeout = 5 * time.Second

// Application is the top-level runtime. It owns the configuration, the
// component manager, the service register hooks and the HTTP router that
// REST bindings are served from.
type Application struct {
	Providers *ProviderRegistry

	config     *config.Config
	logger     zerolog.Logger
	components *component.Manager
	hooks      *runtime.HookRegistry
	registrar  *runtime.Registrar
	rc         *runtime.RuntimeContext
	router     *routing.Router
	locals     *local.Adapter
	rest       *rest.Adapter
	adapters   *binding.Factory
	tracer     *sdktrace.TracerProvider

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option customises an Application built by NewWithConfig.
type Option func(*options)

type options struct {
	logger      *zerolog.Logger
	discover    runtime.Discoverer
	traceWriter io.Writer
}

// WithLogger replaces the logger built from configuration.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// WithDiscoverer replaces plugin based hook discovery.
func WithDiscoverer(discover runtime.Discoverer) Option {
	return func(o *options) { o.discover = discover }
}

// WithTraceWriter sets where spans go when tracing is enabled.
func WithTraceWriter(w io.Writer) Option {
	return func(o *options) { o.traceWriter = w }
}

// New loads configuration from envFiles and the environment and creates
// the application.
func New(envFiles ...string) *Application {
	return NewWithConfig(config.Load(envFiles...))
}

// NewWithConfig creates the application from cfg.
func NewWithConfig(cfg *config.Config, opts ...Option) *Application {
	o := options{discover: runtime.PluginDiscoverer()}
	for _, opt := range opts {
		opt(&o)
	}

	var logger zerolog.Logger
	if o.logger != nil {
		logger = *o.logger
	} else {
		logger = logging.FromConfig(cfg.Log, os.Stderr)
	}
	logger = logger.With().Str("app", cfg.App.Name).Logger()

	a := &Application{
		config: cfg,
		logger: logger,
	}

	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(cfg.App.Name, o.traceWriter)
		if err != nil {
			logger.Error().Err(err).Msg("Tracing disabled")
		} else {
			a.tracer = tp
		}
	}

	a.components = component.NewManager(logger)
	a.hooks = runtime.NewHookRegistry(o.discover,
		runtime.WithDefaultOrder(cfg.Runtime.HookDefaultOrder),
		runtime.WithLogger(logging.Component(logger, "hooks")),
	)
	a.registrar = runtime.NewRegistrar(a.hooks)
	a.rc = runtime.NewRuntimeContext(cfg.App.Name, a.components, logger)

	a.router = routing.New(logging.Component(logger, "http"))
	a.locals = local.New()
	a.rest = rest.New(a.router, cfg.REST.Prefix)
	a.adapters = binding.NewFactory(a.locals, a.rest)

	a.Providers = NewProviderRegistry(a)
	// The registry is not booted yet and ComponentsProvider.Register is a
	// no-op, so this only fails if that changes.
	if err := a.Providers.Register(&ComponentsProvider{}); err != nil {
		logger.Error().Err(err).Msg("Failed to register components provider")
	}

	return a
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Publish registers target as the implementation of service, running the
// service register hooks around the registration.
func (a *Application) Publish(service *runtime.Service, target any) error {
	return a.registrar.RegisterService(service, target, a.adapters, a.rc)
}

// Unpublish withdraws a published service and its bindings.
func (a *Application) Unpublish(service *runtime.Service) error {
	return a.components.Unregister(service.ComponentName())
}

// Lookup returns the target of a service published with a local binding.
func (a *Application) Lookup(contract, uniqueID string) (any, error) {
	return a.locals.Lookup(contract, uniqueID)
}

func (a *Application) Config() *config.Config                 { return a.config }
func (a *Application) Logger() zerolog.Logger                 { return a.logger }
func (a *Application) Components() *component.Manager         { return a.components }
func (a *Application) Hooks() *runtime.HookRegistry           { return a.hooks }
func (a *Application) RuntimeContext() *runtime.RuntimeContext { return a.rc }
func (a *Application) Router() *routing.Router                { return a.router }
func (a *Application) REST() *rest.Adapter                    { return a.rest }
func (a *Application) Adapters() binding.AdapterFactory       { return a.adapters }

// Handler returns the HTTP handler serving REST bindings.
func (a *Application) Handler() http.Handler { return a.router }

// Run boots the application (if needed) and serves HTTP on the configured
// port until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+a.config.App.Port)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener. It shuts the application down
// before returning.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.Boot(); err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	a.logger.Info().
		Str("addr", ln.Addr().String()).
		Str("env", a.config.App.Env).
		Int("services", a.components.Len()).
		Msg("Application started")

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("app: serve: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, err)
	}
	a.logger.Info().Msg("Application stopping")
	return errors.Join(serveErr, a.Shutdown(shutdownCtx))
}

// Shutdown unregisters every component and flushes traces. Later calls
// return the first result.
func (a *Application) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		err := a.components.Shutdown()
		if a.tracer != nil {
			err = errors.Join(err, a.tracer.Shutdown(ctx))
		}
		a.shutdownErr = err
	})
	return a.shutdownErr
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.config.App.Debug }
