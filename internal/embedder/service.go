package embedder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/seleneworks/lumen/internal/embedder/channel"
	"github.com/seleneworks/lumen/internal/embedder/config"
	"github.com/seleneworks/lumen/internal/embedder/display"
	"github.com/seleneworks/lumen/internal/embedder/input"
	"github.com/seleneworks/lumen/internal/embedder/logging"
	"github.com/seleneworks/lumen/internal/embedder/metrics"
	"github.com/seleneworks/lumen/internal/embedder/tap"

	errspkg "github.com/seleneworks/lumen/internal/embedder/errors"
)

// maxIdleWait caps the protocol dispatch wait so context cancellation and
// surface-close requests are observed even when the scheduler is empty.
const maxIdleWait = 500 * time.Millisecond

// Dependencies holds the optional collaborators a Service can be built
// with. Zero values select the defaults.
type Dependencies struct {
	// Middlewares are appended after the default dispatch chain.
	Middlewares []MiddlewareRegistration
	// DisableDefaultMiddlewares skips the default chain entirely.
	DisableDefaultMiddlewares bool
	// Registrations are extra channels appended to the built-in catalogue.
	Registrations []channel.Registration
	// Clock overrides event timestamping. Nil means time.Now.
	Clock func() time.Time
	// Pong answers compositor liveness probes. The bootstrap supplies it
	// because the pong request lives on the surface object it owns.
	Pong func(serial uint32) error
}

// Service is the embedding session composition root: one thread owns the
// protocol connection, the graphics context, the scheduler, and all input
// and router state.
type Service struct {
	Conf   config.Config
	Logger logging.Logger

	engine  Engine
	display display.Display
	clock   func() time.Time
	pong    func(serial uint32) error

	registry  *display.Registry
	scheduler *Scheduler
	router    *channel.Router
	seat      *display.Seat
	bridge    *RenderBridge
	metrics   *metrics.Metrics
	tap       *tap.Tap

	valid   bool
	closing bool
}

// NewService wires a session. Call Setup before Run; a setup failure marks
// the session invalid rather than unwinding.
func NewService(conf config.Config, log logging.Logger, engine Engine, gfx GraphicsContext, disp display.Display, deps Dependencies) (*Service, error) {
	conf = conf.WithDefaults()

	s := &Service{
		Conf:     conf,
		Logger:   log,
		engine:   engine,
		display:  disp,
		registry: display.NewRegistry(),
		clock:    deps.Clock,
		pong:     deps.Pong,
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	if engine == nil {
		return nil, errspkg.ErrEngineRequired
	}
	if disp == nil {
		return nil, errspkg.ErrDisplayRequired
	}
	if gfx == nil {
		return nil, errspkg.ErrGraphicsRequired
	}

	log.Info("creating embedding session", logging.LogFields{
		"config": conf,
	})

	if conf.MetricsEnabled {
		s.metrics = metrics.New()
	}
	if conf.TapEnabled {
		s.tap = tap.New(log)
	}

	s.scheduler = NewScheduler(log, engine.RunTask, s.metrics)
	s.bridge = NewRenderBridge(gfx, log, s.IsValid)

	sink := &engineSink{s: s}
	s.seat = display.NewSeat(sink, s, log, input.Clock(s.clock))

	var mwRegs []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		mwRegs = DefaultMiddlewares()
	}
	mwRegs = append(mwRegs, deps.Middlewares...)
	chain, err := buildMiddlewares(s, mwRegs)
	if err != nil {
		return nil, err
	}

	regs := channel.DefaultRegistrations(log, channel.URLLauncherConfig{
		Command: conf.LauncherCommand,
		Timeout: conf.LauncherTimeout,
	})
	regs = append(regs, deps.Registrations...)

	router, err := channel.NewRouter(log, regs, chain,
		channel.WithUnknownChannelHook(s.onUnknownChannel))
	if err != nil {
		return nil, err
	}
	s.router = router

	return s, nil
}

// Setup performs the protocol handshake: a roundtrip to collect registry
// globals, the capability check, and the initial window metrics push. A
// failure leaves the session invalid; it refuses to run.
func (s *Service) Setup() error {
	if err := s.display.Roundtrip(); err != nil {
		s.Logger.Error("registry roundtrip failed", err, nil)
		return err
	}
	if !s.registry.Ready() {
		s.Logger.Error("compositor or shell global missing", nil, nil)
		return errspkg.ErrInvalidSession
	}

	s.valid = true

	if err := s.engine.SendWindowMetrics(s.Conf.WindowWidth, s.Conf.WindowHeight, s.Conf.PixelRatio); err != nil {
		s.Logger.Error("initial window metrics rejected", err, nil)
		s.valid = false
		return err
	}

	return nil
}

// IsValid reports whether setup completed and the session may run.
func (s *Service) IsValid() bool {
	return s.valid
}

// Run drives the event loop until the context is cancelled or the surface
// is closed: each iteration blocks on protocol dispatch bounded by the
// scheduler's next deadline, then drains due deferred tasks. On exit the
// queue is drained without executing and the engine is shut down.
func (s *Service) Run(ctx context.Context) error {
	if !s.valid {
		return errspkg.ErrInvalidSession
	}

	stopMetrics := s.serveMetrics()
	defer stopMetrics()

	var loopErr error
	for ctx.Err() == nil && !s.closing {
		if err := s.display.DispatchTimed(s.dispatchWait()); err != nil {
			s.Logger.Error("protocol dispatch failed", err, nil)
			loopErr = err
			break
		}
		s.scheduler.RunDue(s.clock())
	}

	if dropped := s.scheduler.Drain(); dropped > 0 {
		s.Logger.Info("dropping unexecuted deferred tasks at shutdown", logging.LogFields{
			"count": dropped,
		})
	}
	s.valid = false

	if err := s.engine.Shutdown(); err != nil {
		s.Logger.Error("engine shutdown failed", err, nil)
		if loopErr == nil {
			loopErr = err
		}
	}
	if s.tap != nil {
		if err := s.tap.Close(); err != nil {
			s.Logger.Error("event tap close failed", err, nil)
		}
	}

	return loopErr
}

// serveMetrics exposes the Prometheus registry over HTTP when a metrics
// port is configured. The listener is the one goroutine outside the event
// loop; it only reads the registry.
func (s *Service) serveMetrics() func() {
	if s.metrics == nil || s.Conf.MetricsPort == 0 {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Conf.MetricsPort),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("metrics endpoint failed", err, logging.LogFields{
				"port": s.Conf.MetricsPort,
			})
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.Logger.Error("metrics endpoint shutdown failed", err, nil)
		}
	}
}

// dispatchWait bounds the protocol wait by the next deferred deadline so
// queued tasks are never starved by an idle connection.
func (s *Service) dispatchWait() time.Duration {
	deadline, ok := s.scheduler.NextDeadline()
	if !ok {
		return maxIdleWait
	}
	wait := deadline.Sub(s.clock())
	if wait <= 0 {
		// A non-positive timeout tells the display to block without
		// bound, so an overdue deadline still yields a minimal wait.
		return time.Millisecond
	}
	if wait > maxIdleWait {
		return maxIdleWait
	}
	return wait
}

// RequestClose asks the event loop to exit after the current iteration.
func (s *Service) RequestClose() {
	s.closing = true
}

// TaskRunner exposes the callbacks handed to the engine at startup.
func (s *Service) TaskRunner() TaskRunner {
	return TaskRunner{
		RunsTasksOnCurrentThread: func() bool { return true },
		PostTask:                 s.scheduler.Post,
	}
}

// Renderer exposes the rendering bridge callbacks.
func (s *Service) Renderer() *RenderBridge {
	return s.bridge
}

// Scheduler exposes the deferred-task queue.
func (s *Service) Scheduler() *Scheduler {
	return s.scheduler
}

// Seat exposes the input capability state machine.
func (s *Service) Seat() *display.Seat {
	return s.seat
}

// Router exposes the channel dispatch table.
func (s *Service) Router() *channel.Router {
	return s.router
}

// Tap exposes the event tap; nil when disabled.
func (s *Service) Tap() *tap.Tap {
	return s.tap
}

// Metrics exposes the collector set; nil when disabled.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// AnnounceGlobal records a registry global announcement.
func (s *Service) AnnounceGlobal(g display.Global) {
	s.registry.Announce(g)
}

// RemoveGlobal records a registry global removal.
func (s *Service) RemoveGlobal(name uint32) {
	s.registry.Remove(name)
}

// SurfaceHooks returns the surface lifecycle callbacks the bootstrap
// installs on the protocol surface.
func (s *Service) SurfaceHooks() display.SurfaceHooks {
	return display.SurfaceHooks{
		OnConfigure: func(width, height int) {
			if err := s.engine.SendWindowMetrics(width, height, s.Conf.PixelRatio); err != nil {
				s.Logger.Error("window metrics rejected", err, logging.LogFields{
					"width":  width,
					"height": height,
				})
			}
		},
		OnPing: func(serial uint32) {
			if s.pong == nil {
				s.Logger.Info("liveness probe with no pong installed", logging.LogFields{
					"serial": serial,
				})
				return
			}
			if err := s.pong(serial); err != nil {
				s.Logger.Error("liveness pong failed", err, logging.LogFields{
					"serial": serial,
				})
				return
			}
			if err := s.display.Flush(); err != nil {
				s.Logger.Error("flush after pong failed", err, nil)
			}
		},
		OnClose: s.RequestClose,
	}
}

// HandlePlatformMessage is the engine's inbound message entry point.
func (s *Service) HandlePlatformMessage(channelName string, payload []byte, responder channel.Responder) {
	s.router.Dispatch(channelName, payload, responder)
}

// SendChannelMessage posts a fire-and-forget host-to-engine message. It
// satisfies the input translator's message sink.
func (s *Service) SendChannelMessage(channelName string, payload []byte) error {
	return s.engine.SendPlatformMessage(channelName, payload, nil)
}

func (s *Service) onUnknownChannel(channelName string) {
	if s.metrics != nil {
		s.metrics.UnknownChannels.Inc()
	}
}

// engineSink forwards normalized pointer events to the engine, counting and
// tapping them on the way.
type engineSink struct {
	s *Service
}

func (e *engineSink) SendPointerEvent(ev input.PointerEvent) error {
	if e.s.metrics != nil {
		e.s.metrics.InputEvents.WithLabelValues(ev.Device.String()).Inc()
	}
	e.s.tap.PublishPointer(ev)
	return e.s.engine.SendPointerEvent(ev)
}
