// Package embedder hosts the embedding-integration core: the cooperative
// task scheduler, the rendering bridge, and the single-threaded event loop
// composing them with the input translator and the message router.
package embedder

import (
	"time"

	"github.com/seleneworks/lumen/internal/embedder/channel"
	"github.com/seleneworks/lumen/internal/embedder/input"
)

// Engine is the external rendering runtime this core embeds. It is opaque:
// only its callback and task-runner contracts are visible here. All methods
// must be called from the event-loop thread.
type Engine interface {
	// SendPointerEvent forwards one normalized pointer event.
	SendPointerEvent(ev input.PointerEvent) error

	// SendPlatformMessage posts an outbound host-to-engine message.
	// A nil responder marks the message fire-and-forget.
	SendPlatformMessage(channelName string, payload []byte, responder channel.Responder) error

	// SendWindowMetrics announces the surface dimensions and pixel ratio.
	SendWindowMetrics(width, height int, pixelRatio float64) error

	// RunTask executes one deferred task previously posted through the
	// task-runner callbacks.
	RunTask(task Task) error

	// Shutdown tears the engine down. The session is unusable afterwards.
	Shutdown() error
}

// TaskRunner is the pair of callbacks the core exposes to the engine at
// startup. The engine asks whether the current thread is the designated
// task thread and posts deferred work through PostTask.
type TaskRunner struct {
	// RunsTasksOnCurrentThread always reports true: the embedding is
	// single-threaded and every engine callback arrives on the loop thread.
	RunsTasksOnCurrentThread func() bool

	// PostTask enqueues an opaque engine task tagged with an absolute
	// deadline.
	PostTask func(task Task, deadline time.Time)
}
