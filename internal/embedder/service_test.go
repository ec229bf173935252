package embedder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seleneworks/lumen/internal/embedder/channel"
	"github.com/seleneworks/lumen/internal/embedder/config"
	"github.com/seleneworks/lumen/internal/embedder/display"
	"github.com/seleneworks/lumen/internal/embedder/input"
	"github.com/seleneworks/lumen/internal/embedder/logging"

	errspkg "github.com/seleneworks/lumen/internal/embedder/errors"
)

type metricsPush struct {
	width, height int
	pixelRatio    float64
}

type outboundMessage struct {
	channel string
	payload []byte
}

type fakeEngine struct {
	pointer   []input.PointerEvent
	messages  []outboundMessage
	metrics   []metricsPush
	ran       []Task
	shutdowns int

	metricsErr error
}

func (e *fakeEngine) SendPointerEvent(ev input.PointerEvent) error {
	e.pointer = append(e.pointer, ev)
	return nil
}

func (e *fakeEngine) SendPlatformMessage(channelName string, payload []byte, _ channel.Responder) error {
	e.messages = append(e.messages, outboundMessage{channel: channelName, payload: payload})
	return nil
}

func (e *fakeEngine) SendWindowMetrics(width, height int, pixelRatio float64) error {
	if e.metricsErr != nil {
		return e.metricsErr
	}
	e.metrics = append(e.metrics, metricsPush{width: width, height: height, pixelRatio: pixelRatio})
	return nil
}

func (e *fakeEngine) RunTask(task Task) error {
	e.ran = append(e.ran, task)
	return nil
}

func (e *fakeEngine) Shutdown() error {
	e.shutdowns++
	return nil
}

type fakeDisplay struct {
	onDispatch func(timeout time.Duration) error
	dispatches int
	flushes    int
}

func (d *fakeDisplay) DispatchTimed(timeout time.Duration) error {
	d.dispatches++
	if d.onDispatch != nil {
		return d.onDispatch(timeout)
	}
	return nil
}

func (d *fakeDisplay) Flush() error {
	d.flushes++
	return nil
}
func (d *fakeDisplay) Roundtrip() error { return nil }
func (d *fakeDisplay) Close() error     { return nil }

type fakeGraphics struct {
	fbo        uint32
	currentErr error
}

func (g *fakeGraphics) MakeCurrent() error         { return g.currentErr }
func (g *fakeGraphics) ClearCurrent() error        { return nil }
func (g *fakeGraphics) Present() error             { return nil }
func (g *fakeGraphics) MakeResourceCurrent() error { return nil }
func (g *fakeGraphics) FramebufferID() uint32      { return g.fbo }

func newTestService(t *testing.T, engine *fakeEngine, disp *fakeDisplay, deps Dependencies) *Service {
	t.Helper()
	s, err := NewService(config.Config{}, logging.Nop(), engine, &fakeGraphics{fbo: 1}, disp, deps)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s
}

func announceRequiredGlobals(s *Service) {
	s.AnnounceGlobal(display.Global{Name: 1, Interface: display.InterfaceCompositor, Version: 1})
	s.AnnounceGlobal(display.Global{Name: 2, Interface: display.InterfaceShell, Version: 1})
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	gfx := &fakeGraphics{}
	disp := &fakeDisplay{}
	engine := &fakeEngine{}
	log := logging.Nop()

	if _, err := NewService(config.Config{}, log, nil, gfx, disp, Dependencies{}); !errors.Is(err, errspkg.ErrEngineRequired) {
		t.Fatalf("nil engine: got %v", err)
	}
	if _, err := NewService(config.Config{}, log, engine, gfx, nil, Dependencies{}); !errors.Is(err, errspkg.ErrDisplayRequired) {
		t.Fatalf("nil display: got %v", err)
	}
	if _, err := NewService(config.Config{}, log, engine, nil, disp, Dependencies{}); !errors.Is(err, errspkg.ErrGraphicsRequired) {
		t.Fatalf("nil graphics: got %v", err)
	}
}

func TestSetupRequiresRegistryGlobals(t *testing.T) {
	engine := &fakeEngine{}
	s := newTestService(t, engine, &fakeDisplay{}, Dependencies{})

	if err := s.Setup(); !errors.Is(err, errspkg.ErrInvalidSession) {
		t.Fatalf("Setup without globals: got %v", err)
	}
	if s.IsValid() {
		t.Fatal("session must stay invalid")
	}
	if err := s.Run(context.Background()); !errors.Is(err, errspkg.ErrInvalidSession) {
		t.Fatalf("Run on invalid session: got %v", err)
	}
	if engine.shutdowns != 0 {
		t.Fatal("invalid session must not reach engine shutdown")
	}
}

func TestSetupPushesInitialWindowMetrics(t *testing.T) {
	engine := &fakeEngine{}
	s := newTestService(t, engine, &fakeDisplay{}, Dependencies{})
	announceRequiredGlobals(s)

	if err := s.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !s.IsValid() {
		t.Fatal("session should be valid after setup")
	}

	if len(engine.metrics) != 1 {
		t.Fatalf("got %d metrics pushes, want 1", len(engine.metrics))
	}
	got := engine.metrics[0]
	want := metricsPush{width: config.DefaultWindowWidth, height: config.DefaultWindowHeight, pixelRatio: 1.0}
	if got != want {
		t.Fatalf("initial metrics = %+v, want %+v", got, want)
	}
}

func TestSetupMetricsRejectionInvalidatesSession(t *testing.T) {
	engine := &fakeEngine{metricsErr: errors.New("engine not ready")}
	s := newTestService(t, engine, &fakeDisplay{}, Dependencies{})
	announceRequiredGlobals(s)

	if err := s.Setup(); err == nil {
		t.Fatal("Setup should surface the metrics rejection")
	}
	if s.IsValid() {
		t.Fatal("session must be invalid after a rejected metrics push")
	}
}

func TestRunExitsOnSurfaceClose(t *testing.T) {
	engine := &fakeEngine{}
	disp := &fakeDisplay{}
	s := newTestService(t, engine, disp, Dependencies{})
	announceRequiredGlobals(s)
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	hooks := s.SurfaceHooks()
	disp.onDispatch = func(time.Duration) error {
		hooks.OnClose()
		return nil
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if disp.dispatches != 1 {
		t.Fatalf("got %d dispatch iterations, want 1", disp.dispatches)
	}
	if engine.shutdowns != 1 {
		t.Fatalf("got %d engine shutdowns, want 1", engine.shutdowns)
	}
	if s.IsValid() {
		t.Fatal("session must be invalid after Run returns")
	}
}

func TestRunExitsOnContextCancellation(t *testing.T) {
	engine := &fakeEngine{}
	disp := &fakeDisplay{}
	s := newTestService(t, engine, disp, Dependencies{})
	announceRequiredGlobals(s)
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	disp.onDispatch = func(time.Duration) error {
		cancel()
		return nil
	}

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if engine.shutdowns != 1 {
		t.Fatalf("got %d engine shutdowns, want 1", engine.shutdowns)
	}
}

func TestRunDropsQueuedTasksAtShutdown(t *testing.T) {
	engine := &fakeEngine{}
	disp := &fakeDisplay{}
	s := newTestService(t, engine, disp, Dependencies{})
	announceRequiredGlobals(s)
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	runner := s.TaskRunner()
	if !runner.RunsTasksOnCurrentThread() {
		t.Fatal("the loop thread is always the task thread")
	}
	runner.PostTask("late", time.Now().Add(time.Hour))
	runner.PostTask("later", time.Now().Add(2*time.Hour))

	disp.onDispatch = func(time.Duration) error {
		s.RequestClose()
		return nil
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(engine.ran) != 0 {
		t.Fatalf("tasks executed at shutdown: %v", engine.ran)
	}
	if s.Scheduler().Len() != 0 {
		t.Fatal("queue should be drained")
	}
}

func TestRunExecutesDueTasks(t *testing.T) {
	engine := &fakeEngine{}
	disp := &fakeDisplay{}
	now := time.Unix(100, 0)
	s := newTestService(t, engine, disp, Dependencies{Clock: func() time.Time { return now }})
	announceRequiredGlobals(s)
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	s.TaskRunner().PostTask("due", now.Add(-time.Millisecond))
	disp.onDispatch = func(time.Duration) error {
		s.RequestClose()
		return nil
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(engine.ran) != 1 || engine.ran[0] != "due" {
		t.Fatalf("ran = %v, want the due task", engine.ran)
	}
}

func TestDispatchWaitBounds(t *testing.T) {
	now := time.Unix(100, 0)
	s := newTestService(t, &fakeEngine{}, &fakeDisplay{}, Dependencies{Clock: func() time.Time { return now }})

	if got := s.dispatchWait(); got != maxIdleWait {
		t.Fatalf("idle wait = %v, want %v", got, maxIdleWait)
	}

	s.Scheduler().Post("overdue", now.Add(-time.Second))
	if got := s.dispatchWait(); got != time.Millisecond {
		t.Fatalf("overdue wait = %v, want a minimal positive wait", got)
	}
	s.Scheduler().Drain()

	s.Scheduler().Post("soon", now.Add(20*time.Millisecond))
	if got := s.dispatchWait(); got != 20*time.Millisecond {
		t.Fatalf("near wait = %v, want 20ms", got)
	}
	s.Scheduler().Drain()

	s.Scheduler().Post("far", now.Add(time.Hour))
	if got := s.dispatchWait(); got != maxIdleWait {
		t.Fatalf("far wait = %v, want the idle cap", got)
	}
}

func TestOverdueTasksRunWithBlockingDisplay(t *testing.T) {
	engine := &fakeEngine{}
	disp := &fakeDisplay{}
	s := newTestService(t, engine, disp, Dependencies{})
	announceRequiredGlobals(s)
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	// A conforming display waits without bound on a non-positive timeout,
	// so the loop must never hand it one while a task is overdue.
	hooks := s.SurfaceHooks()
	disp.onDispatch = func(timeout time.Duration) error {
		if timeout <= 0 {
			t.Fatalf("dispatch timeout = %v, want a bounded wait", timeout)
		}
		if len(engine.ran) > 0 {
			hooks.OnClose()
		}
		return nil
	}

	s.Scheduler().Post("overdue", time.Now().Add(-time.Second))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(engine.ran) != 1 || engine.ran[0] != "overdue" {
		t.Fatalf("ran = %v, want the overdue task", engine.ran)
	}
}

func TestHandlePlatformMessageUnknownChannel(t *testing.T) {
	s := newTestService(t, &fakeEngine{}, &fakeDisplay{}, Dependencies{})

	var responses [][]byte
	s.HandlePlatformMessage("nobody/home", []byte("x"), responderFunc(func(payload []byte) error {
		responses = append(responses, payload)
		return nil
	}))

	if len(responses) != 1 || responses[0] != nil {
		t.Fatalf("responses = %v, want one empty acknowledgement", responses)
	}
}

type responderFunc func(payload []byte) error

func (f responderFunc) Respond(payload []byte) error { return f(payload) }

func TestExtraRegistrationsAreRouted(t *testing.T) {
	var got []byte
	s := newTestService(t, &fakeEngine{}, &fakeDisplay{}, Dependencies{
		Registrations: []channel.Registration{{
			Name: "demo/echo",
			Handler: func(msg channel.Message) {
				got = msg.Payload
			},
		}},
	})

	s.HandlePlatformMessage("demo/echo", []byte("hello"), nil)
	if string(got) != "hello" {
		t.Fatalf("payload = %q, want %q", got, "hello")
	}
}

func TestSurfaceConfigurePushesMetrics(t *testing.T) {
	engine := &fakeEngine{}
	s := newTestService(t, engine, &fakeDisplay{}, Dependencies{})

	s.SurfaceHooks().OnConfigure(1024, 768)

	if len(engine.metrics) != 1 {
		t.Fatalf("got %d metrics pushes, want 1", len(engine.metrics))
	}
	got := engine.metrics[0]
	if got.width != 1024 || got.height != 768 || got.pixelRatio != 1.0 {
		t.Fatalf("metrics = %+v", got)
	}
}

func TestSurfacePingPongsThrough(t *testing.T) {
	disp := &fakeDisplay{}
	var serials []uint32
	s := newTestService(t, &fakeEngine{}, disp, Dependencies{
		Pong: func(serial uint32) error {
			serials = append(serials, serial)
			return nil
		},
	})

	s.SurfaceHooks().OnPing(7)

	if len(serials) != 1 || serials[0] != 7 {
		t.Fatalf("pong serials = %v, want [7]", serials)
	}
	if disp.flushes != 1 {
		t.Fatalf("got %d flushes, want 1", disp.flushes)
	}
}

func TestSurfacePingWithoutPongInstalled(t *testing.T) {
	disp := &fakeDisplay{}
	s := newTestService(t, &fakeEngine{}, disp, Dependencies{})

	s.SurfaceHooks().OnPing(9)

	if disp.flushes != 0 {
		t.Fatalf("got %d flushes, want none", disp.flushes)
	}
}

func TestSeatForwardsPointerEventsToEngine(t *testing.T) {
	engine := &fakeEngine{}
	s := newTestService(t, engine, &fakeDisplay{}, Dependencies{})

	seat := s.Seat()
	seat.Capabilities(display.CapPointer)
	seat.PointerEnter(5, 6)
	seat.PointerButton(input.RawButtonLeft, true)

	if len(engine.pointer) != 2 {
		t.Fatalf("got %d pointer events, want 2", len(engine.pointer))
	}
	if engine.pointer[0].Phase != input.PhaseAdd || engine.pointer[1].Phase != input.PhaseDown {
		t.Fatalf("phases = %v, %v", engine.pointer[0].Phase, engine.pointer[1].Phase)
	}
}

func TestSendChannelMessageIsFireAndForget(t *testing.T) {
	engine := &fakeEngine{}
	s := newTestService(t, engine, &fakeDisplay{}, Dependencies{})

	if err := s.SendChannelMessage("host/keyevent", []byte(`{}`)); err != nil {
		t.Fatalf("SendChannelMessage: %v", err)
	}
	if len(engine.messages) != 1 || engine.messages[0].channel != "host/keyevent" {
		t.Fatalf("messages = %+v", engine.messages)
	}
}

func TestUnknownChannelCountsWhenMetricsEnabled(t *testing.T) {
	engine := &fakeEngine{}
	s, err := NewService(config.Config{MetricsEnabled: true}, logging.Nop(), engine, &fakeGraphics{}, &fakeDisplay{}, Dependencies{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if s.Metrics() == nil {
		t.Fatal("metrics should be wired when enabled")
	}

	s.HandlePlatformMessage("nobody/home", nil, nil)
}
