package runtime_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-sofaboot/framework/binding"
	"github.com/km-arc/go-sofaboot/framework/binding/local"
	"github.com/km-arc/go-sofaboot/framework/component"
	"github.com/km-arc/go-sofaboot/framework/runtime"
)

// ── recording fixtures ────────────────────────────────────────────────────────

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type recordingHook struct {
	name      string
	order     int
	rec       *recorder
	beforeErr error
	afterErr  error
}

func (h *recordingHook) Order() int { return h.order }

func (h *recordingHook) Before(*runtime.Service, *runtime.RuntimeContext) error {
	h.rec.add("before_" + h.name)
	return h.beforeErr
}

func (h *recordingHook) After() error {
	h.rec.add("after_" + h.name)
	return h.afterErr
}

type recordingManager struct {
	rec      *recorder
	err      error
	mu       sync.Mutex
	received []component.Info
}

func (m *recordingManager) Register(info component.Info) error {
	m.rec.add("register")
	m.mu.Lock()
	m.received = append(m.received, info)
	m.mu.Unlock()
	return m.err
}

func hooksFor(rec *recorder, n int) []*recordingHook {
	hooks := make([]*recordingHook, n)
	for i := range hooks {
		hooks[i] = &recordingHook{name: fmt.Sprintf("h%d", i+1), order: i + 1, rec: rec}
	}
	return hooks
}

func registrarFor(hooks []*recordingHook) *runtime.Registrar {
	discovered := make([]runtime.ServiceRegisterHook, 0, len(hooks))
	// Discovery order is reversed so the registry has to sort.
	for i := len(hooks) - 1; i >= 0; i-- {
		discovered = append(discovered, hooks[i])
	}
	return runtime.NewRegistrar(runtime.NewHookRegistry(runtime.StaticDiscoverer(discovered...)))
}

func newService() *runtime.Service {
	return &runtime.Service{InterfaceType: "app.Greeter", UniqueID: "en"}
}

// ── RegisterService ───────────────────────────────────────────────────────────

func TestRegisterService_BeforeHooksRunInOrderThenRegister(t *testing.T) {
	rec := &recorder{}
	manager := &recordingManager{rec: rec}
	rc := runtime.NewRuntimeContext("test", manager, zerolog.Nop())

	err := registrarFor(hooksFor(rec, 3)).RegisterService(newService(), "target", nil, rc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"before_h1", "before_h2", "before_h3",
		"register",
		"after_h1", "after_h2", "after_h3",
	}, rec.get())
}

func TestRegisterService_FullSequenceWithTwoHooks(t *testing.T) {
	rec := &recorder{}
	rc := runtime.NewRuntimeContext("test", &recordingManager{rec: rec}, zerolog.Nop())

	require.NoError(t, registrarFor(hooksFor(rec, 2)).RegisterService(newService(), "target", nil, rc))
	assert.Equal(t, []string{"before_h1", "before_h2", "register", "after_h1", "after_h2"}, rec.get())
}

func TestRegisterService_BeforeFailureStopsEverything(t *testing.T) {
	rec := &recorder{}
	manager := &recordingManager{rec: rec}
	rc := runtime.NewRuntimeContext("test", manager, zerolog.Nop())

	veto := errors.New("vetoed")
	hooks := hooksFor(rec, 3)
	hooks[1].beforeErr = veto

	err := registrarFor(hooks).RegisterService(newService(), "target", nil, rc)
	assert.Same(t, veto, err, "error must be returned unchanged")
	assert.Equal(t, []string{"before_h1", "before_h2"}, rec.get())
	assert.Empty(t, manager.received)
}

func TestRegisterService_RegistrationFailureSkipsAfterHooks(t *testing.T) {
	rec := &recorder{}
	rejected := errors.New("rejected")
	rc := runtime.NewRuntimeContext("test", &recordingManager{rec: rec, err: rejected}, zerolog.Nop())

	err := registrarFor(hooksFor(rec, 2)).RegisterService(newService(), "target", nil, rc)
	assert.Same(t, rejected, err)
	assert.Equal(t, []string{"before_h1", "before_h2", "register"}, rec.get())
}

func TestRegisterService_AfterFailureLeavesServiceRegistered(t *testing.T) {
	rec := &recorder{}
	manager := component.NewManager(zerolog.Nop())
	rc := runtime.NewRuntimeContext("test", manager, zerolog.Nop())

	broken := errors.New("after failed")
	hooks := hooksFor(rec, 3)
	hooks[0].afterErr = broken

	service := newService()
	err := registrarFor(hooks).RegisterService(service, "target", binding.NewFactory(), rc)
	assert.Same(t, broken, err)
	assert.Equal(t, []string{"before_h1", "before_h2", "before_h3", "after_h1"}, rec.get())

	info, ok := manager.Component(service.ComponentName())
	require.True(t, ok, "service must stay registered when an after hook fails")
	assert.Equal(t, component.StateActivated, info.State())
}

func TestRegisterService_DiscoveryFailureRegistersNothing(t *testing.T) {
	rec := &recorder{}
	manager := &recordingManager{rec: rec}
	rc := runtime.NewRuntimeContext("test", manager, zerolog.Nop())

	boom := errors.New("boom")
	registrar := runtime.NewRegistrar(runtime.NewHookRegistry(func() ([]runtime.ServiceRegisterHook, error) {
		return nil, boom
	}))

	for range 2 {
		err := registrar.RegisterService(newService(), "target", nil, rc)
		require.ErrorIs(t, err, runtime.ErrHookDiscovery)
		assert.ErrorIs(t, err, boom)
	}
	assert.Empty(t, rec.get())
}

func TestRegisterService_PanickingDiscoveryRegistersNothing(t *testing.T) {
	rec := &recorder{}
	rc := runtime.NewRuntimeContext("test", &recordingManager{rec: rec}, zerolog.Nop())
	registrar := runtime.NewRegistrar(runtime.NewHookRegistry(func() ([]runtime.ServiceRegisterHook, error) {
		panic("bad plugin")
	}))

	for range 2 {
		assert.ErrorIs(t, registrar.RegisterService(newService(), "target", nil, rc), runtime.ErrHookDiscovery)
	}
	assert.Empty(t, rec.get())
}

func TestRegisterService_StableOrderAcrossCalls(t *testing.T) {
	rec := &recorder{}
	rc := runtime.NewRuntimeContext("test", &recordingManager{rec: rec}, zerolog.Nop())
	registrar := registrarFor(hooksFor(rec, 3))

	require.NoError(t, registrar.RegisterService(newService(), "a", nil, rc))
	first := rec.get()
	rec.calls = nil
	require.NoError(t, registrar.RegisterService(newService(), "b", nil, rc))

	assert.Equal(t, first, rec.get())
}

func TestRegisterService_NoHooks(t *testing.T) {
	rec := &recorder{}
	rc := runtime.NewRuntimeContext("test", &recordingManager{rec: rec}, zerolog.Nop())

	registrar := runtime.NewRegistrar(runtime.NewHookRegistry(runtime.StaticDiscoverer()))
	require.NoError(t, registrar.RegisterService(newService(), "target", nil, rc))
	assert.Equal(t, []string{"register"}, rec.get())
}

func TestRegisterService_BuildsComponentRecord(t *testing.T) {
	rec := &recorder{}
	manager := &recordingManager{rec: rec}
	rc := runtime.NewRuntimeContext("test", manager, zerolog.Nop())
	factory := binding.NewFactory(local.New())
	service := newService()

	registrar := runtime.NewRegistrar(runtime.NewHookRegistry(nil))
	require.NoError(t, registrar.RegisterService(service, "target", factory, rc))

	require.Len(t, manager.received, 1)
	record, ok := manager.received[0].(*runtime.ServiceComponent)
	require.True(t, ok)
	assert.Same(t, service, record.Service())
	assert.Equal(t, "target", record.Implementation().Target())
	assert.Same(t, factory, record.AdapterFactory())
	assert.Same(t, rc, record.RuntimeContext())
	assert.NotEmpty(t, record.ID())
}

func TestRegisterService_HooksSeeServiceAndContext(t *testing.T) {
	rc := runtime.NewRuntimeContext("test", &recordingManager{rec: &recorder{}}, zerolog.Nop())
	service := newService()

	var gotService *runtime.Service
	var gotContext *runtime.RuntimeContext
	hook := &runtime.HookFuncs{BeforeFunc: func(s *runtime.Service, c *runtime.RuntimeContext) error {
		gotService, gotContext = s, c
		return nil
	}}

	registrar := runtime.NewRegistrar(runtime.NewHookRegistry(runtime.StaticDiscoverer(hook)))
	require.NoError(t, registrar.RegisterService(service, "target", nil, rc))
	assert.Same(t, service, gotService)
	assert.Same(t, rc, gotContext)
}

func TestRegisterService_Concurrent(t *testing.T) {
	manager := component.NewManager(zerolog.Nop())
	rc := runtime.NewRuntimeContext("test", manager, zerolog.Nop())
	exports := local.New()
	factory := binding.NewFactory(exports)

	var mu sync.Mutex
	var afters int
	hook := &runtime.HookFuncs{AfterFunc: func() error {
		mu.Lock()
		afters++
		mu.Unlock()
		return nil
	}}
	registrar := runtime.NewRegistrar(runtime.NewHookRegistry(runtime.StaticDiscoverer(hook)))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			service := &runtime.Service{
				InterfaceType: "app.Greeter",
				UniqueID:      fmt.Sprintf("g%d", i),
				Bindings:      []binding.Binding{{Type: binding.TypeLocal}},
			}
			assert.NoError(t, registrar.RegisterService(service, i, factory, rc))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, manager.Len())
	assert.Equal(t, 20, afters)
	got, err := exports.Lookup("app.Greeter", "g7")
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
