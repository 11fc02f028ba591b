package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-sofaboot/framework/app"
	"github.com/km-arc/go-sofaboot/framework/binding"
	"github.com/km-arc/go-sofaboot/framework/binding/local"
	"github.com/km-arc/go-sofaboot/framework/component"
	"github.com/km-arc/go-sofaboot/framework/config"
	"github.com/km-arc/go-sofaboot/framework/hooks/tracinghook"
	"github.com/km-arc/go-sofaboot/framework/runtime"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Name: "test", Env: "testing", Port: "0"},
		Log:  config.LogConfig{Level: "debug", Format: "json"},
		REST: config.RESTConfig{Prefix: "/api"},
	}
}

func newApp(t *testing.T, hooks ...runtime.ServiceRegisterHook) *app.Application {
	t.Helper()
	a := app.NewWithConfig(testConfig(),
		app.WithLogger(zerolog.Nop()),
		app.WithDiscoverer(runtime.StaticDiscoverer(hooks...)),
	)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

type greeter struct{}

func (greeter) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("hello"))
}

// ── Publish ──────────────────────────────────────────────────────────────────

func TestPublish_LocalAndREST(t *testing.T) {
	a := newApp(t)
	service := &runtime.Service{
		InterfaceType: "demo.Greeter",
		UniqueID:      "en",
		Bindings: []binding.Binding{
			{Type: binding.TypeLocal},
			{Type: binding.TypeREST, Path: "/greeter"},
		},
	}
	require.NoError(t, a.Publish(service, greeter{}))

	got, err := a.Lookup("demo.Greeter", "en")
	require.NoError(t, err)
	assert.Equal(t, greeter{}, got)

	rr := get(t, a.Handler(), "/api/greeter")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "hello", rr.Body.String())

	info, ok := a.Components().Component(service.ComponentName())
	require.True(t, ok)
	assert.Equal(t, component.StateActivated, info.State())
}

func TestUnpublish_WithdrawsBindings(t *testing.T) {
	a := newApp(t)
	service := &runtime.Service{
		InterfaceType: "demo.Greeter",
		Bindings: []binding.Binding{
			{Type: binding.TypeLocal},
			{Type: binding.TypeREST, Path: "/greeter"},
		},
	}
	require.NoError(t, a.Publish(service, greeter{}))
	require.NoError(t, a.Unpublish(service))

	_, err := a.Lookup("demo.Greeter", "")
	assert.ErrorIs(t, err, local.ErrNotExported)
	assert.Equal(t, http.StatusNotFound, get(t, a.Handler(), "/api/greeter").Code)

	assert.ErrorIs(t, a.Unpublish(service), component.ErrComponentNotFound)
}

func TestPublish_HookVetoIsReturnedUnchanged(t *testing.T) {
	veto := errors.New("not today")
	a := newApp(t, &runtime.HookFuncs{BeforeFunc: func(*runtime.Service, *runtime.RuntimeContext) error {
		return veto
	}})

	service := &runtime.Service{InterfaceType: "demo.Greeter"}
	err := a.Publish(service, greeter{})
	assert.Same(t, veto, err)

	_, ok := a.Components().Component(service.ComponentName())
	assert.False(t, ok)
}

func TestPublish_DuplicateService(t *testing.T) {
	a := newApp(t)
	service := &runtime.Service{InterfaceType: "demo.Greeter"}
	require.NoError(t, a.Publish(service, greeter{}))
	assert.ErrorIs(t, a.Publish(service, greeter{}), component.ErrComponentExists)
}

func TestPublish_HooksSeeApplicationContext(t *testing.T) {
	var gotApp string
	a := newApp(t, &runtime.HookFuncs{BeforeFunc: func(_ *runtime.Service, rc *runtime.RuntimeContext) error {
		gotApp = rc.AppName()
		return nil
	}})
	require.NoError(t, a.Publish(&runtime.Service{InterfaceType: "demo.Greeter"}, greeter{}))
	assert.Equal(t, "test", gotApp)
}

func TestHooks_DefaultOrderFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Runtime.HookDefaultOrder = 50

	var calls []string
	unordered := &unorderedHook{name: "plain", calls: &calls}
	ordered := &runtime.HookFuncs{Priority: 10, BeforeFunc: func(*runtime.Service, *runtime.RuntimeContext) error {
		calls = append(calls, "ordered")
		return nil
	}}

	a := app.NewWithConfig(cfg,
		app.WithLogger(zerolog.Nop()),
		app.WithDiscoverer(runtime.StaticDiscoverer(unordered, ordered)),
	)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	require.NoError(t, a.Publish(&runtime.Service{InterfaceType: "demo.Greeter"}, greeter{}))
	assert.Equal(t, []string{"ordered", "plain"}, calls)
	assert.Equal(t, 50, a.Hooks().OrderOf(unordered))
}

type unorderedHook struct {
	name  string
	calls *[]string
}

func (h *unorderedHook) Before(*runtime.Service, *runtime.RuntimeContext) error {
	*h.calls = append(*h.calls, h.name)
	return nil
}
func (h *unorderedHook) After() error { return nil }

// ── ComponentsProvider ───────────────────────────────────────────────────────

func TestNew_RegistersComponentsProvider(t *testing.T) {
	a := newApp(t)

	providers := a.Providers.Providers()
	require.Len(t, providers, 1)
	assert.IsType(t, &app.ComponentsProvider{}, providers[0])
	assert.False(t, a.Providers.Booted())
}

func TestBoot_PublishesComponentListing(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Publish(&runtime.Service{InterfaceType: "demo.Greeter"}, greeter{}))
	require.NoError(t, a.Boot())

	rr := get(t, a.Handler(), "/api"+app.ComponentsPath)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data []app.ComponentStatus `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "service:demo.Greeter", body.Data[0].Name)
	assert.Equal(t, "service:"+app.ComponentsContract, body.Data[1].Name)
	for _, s := range body.Data {
		assert.Equal(t, "activated", s.State)
		assert.Equal(t, "service", s.Type)
		assert.NotEmpty(t, s.ID)
	}

	listing, err := a.Lookup(app.ComponentsContract, "")
	require.NoError(t, err)
	assert.IsType(t, &app.ComponentsHandler{}, listing)
}

func TestBoot_ServicesListingIncludesComponents(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Boot())

	rr := get(t, a.Handler(), "/api/_services")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), app.ComponentsContract)
}

func TestComponentsHandler_RejectsWrites(t *testing.T) {
	h := &app.ComponentsHandler{Manager: component.NewManager(zerolog.Nop())}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

// ── Serve / Shutdown ─────────────────────────────────────────────────────────

func TestServe_StopsOnCancel(t *testing.T) {
	a := newApp(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	url := "http://" + ln.Addr().String() + "/api" + app.ComponentsPath
	require.Eventually(t, func() bool {
		resp, err := client.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Equal(t, 0, a.Components().Len(), "shutdown unregisters every component")
}

func TestServe_BootFailure(t *testing.T) {
	a := newApp(t)
	boom := errors.New("boom")
	require.NoError(t, a.Register(&funcProvider{boot: func(*app.Application) error { return boom }}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, a.Serve(context.Background(), ln), boom)
}

func TestShutdown_Idempotent(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Publish(&runtime.Service{InterfaceType: "demo.Greeter"}, greeter{}))
	require.NoError(t, a.Shutdown(context.Background()))
	require.NoError(t, a.Shutdown(context.Background()))
	assert.Equal(t, 0, a.Components().Len())
}

// ── Tracing ──────────────────────────────────────────────────────────────────

func TestTracing_ExportsRegistrationSpans(t *testing.T) {
	cfg := testConfig()
	cfg.Tracing.Enabled = true

	var spans bytes.Buffer
	a := app.NewWithConfig(cfg,
		app.WithLogger(zerolog.Nop()),
		app.WithDiscoverer(runtime.StaticDiscoverer(tracinghook.New(nil))),
		app.WithTraceWriter(&spans),
	)
	require.NoError(t, a.Publish(&runtime.Service{InterfaceType: "demo.Greeter"}, greeter{}))
	require.NoError(t, a.Shutdown(context.Background()))

	assert.Contains(t, spans.String(), tracinghook.SpanBefore)
	assert.Contains(t, spans.String(), tracinghook.SpanAfter)
	assert.Contains(t, spans.String(), "demo.Greeter")
}

// ── Environment ──────────────────────────────────────────────────────────────

func TestEnvironmentHelpers(t *testing.T) {
	a := newApp(t)
	assert.True(t, a.IsTesting())
	assert.False(t, a.IsLocal())
	assert.False(t, a.IsProduction())
	assert.False(t, a.IsDebug())
	assert.Equal(t, "test", a.Config().App.Name)
}
