package lumen

import (
	"time"

	embedderpkg "github.com/seleneworks/lumen/internal/embedder"
	channelpkg "github.com/seleneworks/lumen/internal/embedder/channel"
	configpkg "github.com/seleneworks/lumen/internal/embedder/config"
	displaypkg "github.com/seleneworks/lumen/internal/embedder/display"
	errspkg "github.com/seleneworks/lumen/internal/embedder/errors"
	inputpkg "github.com/seleneworks/lumen/internal/embedder/input"
	loggingpkg "github.com/seleneworks/lumen/internal/embedder/logging"
	metricspkg "github.com/seleneworks/lumen/internal/embedder/metrics"
	tappkg "github.com/seleneworks/lumen/internal/embedder/tap"
)

type (
	Config       = configpkg.Config
	Service      = embedderpkg.Service
	Dependencies = embedderpkg.Dependencies

	Engine          = embedderpkg.Engine
	Task            = embedderpkg.Task
	TaskRunner      = embedderpkg.TaskRunner
	Scheduler       = embedderpkg.Scheduler
	GraphicsContext = embedderpkg.GraphicsContext
	RenderBridge    = embedderpkg.RenderBridge

	MiddlewareRegistration = embedderpkg.MiddlewareRegistration
	MiddlewareBuilder      = embedderpkg.MiddlewareBuilder

	Display      = displaypkg.Display
	Global       = displaypkg.Global
	Registry     = displaypkg.Registry
	Seat         = displaypkg.Seat
	Capability   = displaypkg.Capability
	SurfaceHooks = displaypkg.SurfaceHooks

	Router              = channelpkg.Router
	Registration        = channelpkg.Registration
	HandlerFunc         = channelpkg.HandlerFunc
	Middleware          = channelpkg.Middleware
	Message             = channelpkg.Message
	Responder           = channelpkg.Responder
	MethodCall          = channelpkg.MethodCall
	MethodCodec         = channelpkg.MethodCodec
	EnvelopeError       = channelpkg.EnvelopeError
	JSONMethodCodec     = channelpkg.JSONMethodCodec
	StandardMethodCodec = channelpkg.StandardMethodCodec
	URLLauncherConfig   = channelpkg.URLLauncherConfig

	Phase           = inputpkg.Phase
	DeviceKind      = inputpkg.DeviceKind
	Button          = inputpkg.Button
	PointerEvent    = inputpkg.PointerEvent
	Pointer         = inputpkg.Pointer
	Touch           = inputpkg.Touch
	Keyboard        = inputpkg.Keyboard
	Keymap          = inputpkg.Keymap
	KeymapFormat    = inputpkg.KeymapFormat
	KeyEventMessage = inputpkg.KeyEventMessage

	LogFields = loggingpkg.LogFields
	Logger    = loggingpkg.Logger

	Metrics = metricspkg.Metrics
	Tap     = tappkg.Tap
)

const (
	PhaseAdd    = inputpkg.PhaseAdd
	PhaseRemove = inputpkg.PhaseRemove
	PhaseHover  = inputpkg.PhaseHover
	PhaseDown   = inputpkg.PhaseDown
	PhaseMove   = inputpkg.PhaseMove
	PhaseUp     = inputpkg.PhaseUp

	DeviceMouse = inputpkg.DeviceMouse
	DeviceTouch = inputpkg.DeviceTouch

	ButtonPrimary   = inputpkg.ButtonPrimary
	ButtonSecondary = inputpkg.ButtonSecondary
	ButtonMiddle    = inputpkg.ButtonMiddle

	KeycodeBias     = inputpkg.KeycodeBias
	KeyEventChannel = inputpkg.KeyEventChannel

	KeymapFormatNone    = inputpkg.KeymapFormatNone
	KeymapFormatXKBText = inputpkg.KeymapFormatXKBText

	CapPointer  = displaypkg.CapPointer
	CapKeyboard = displaypkg.CapKeyboard
	CapTouch    = displaypkg.CapTouch

	ChannelAccessibility      = channelpkg.ChannelAccessibility
	ChannelPlatform           = channelpkg.ChannelPlatform
	ChannelTextInput          = channelpkg.ChannelTextInput
	ChannelPlatformViews      = channelpkg.ChannelPlatformViews
	ChannelURLLauncher        = channelpkg.ChannelURLLauncher
	ChannelConnectivity       = channelpkg.ChannelConnectivity
	ChannelConnectivityStatus = channelpkg.ChannelConnectivityStatus
	ChannelMediaPlayer        = channelpkg.ChannelMediaPlayer
	ChannelMediaPlayerEvents  = channelpkg.ChannelMediaPlayerEvents
)

var (
	NewService   = embedderpkg.NewService
	NewScheduler = embedderpkg.NewScheduler
	NewRouter    = channelpkg.NewRouter
	NewSeat      = displaypkg.NewSeat
	NewRegistry  = displaypkg.NewRegistry
	NewTap       = tappkg.New

	NewSlogLogger      = loggingpkg.NewSlogLogger
	NewWatermillLogger = loggingpkg.NewWatermillLogger
	NopLogger          = loggingpkg.Nop

	LoadConfig     = configpkg.Load
	ValidateAssets = configpkg.ValidateAssets

	CompileKeymap = inputpkg.CompileKeymap

	DefaultMiddlewares      = embedderpkg.DefaultMiddlewares
	CorrelationIDMiddleware = embedderpkg.CorrelationIDMiddleware
	LogMessagesMiddleware   = embedderpkg.LogMessagesMiddleware
	MetricsMiddleware       = embedderpkg.MetricsMiddleware
	TapMiddleware           = embedderpkg.TapMiddleware
	TracerMiddleware        = embedderpkg.TracerMiddleware
	RecovererMiddleware     = embedderpkg.RecovererMiddleware

	DefaultRegistrations = channelpkg.DefaultRegistrations

	ErrInvalidSession    = errspkg.ErrInvalidSession
	ErrEngineRequired    = errspkg.ErrEngineRequired
	ErrHandlerRequired   = errspkg.ErrHandlerRequired
	ErrChannelRegistered = errspkg.ErrChannelRegistered
)

// NewDeadline converts a relative delay into the absolute deadline shape the
// scheduler consumes.
func NewDeadline(delay time.Duration) time.Time {
	return time.Now().Add(delay)
}
