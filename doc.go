// Package lumen is the embedding-integration core that bridges a windowing
// compositor session to an external rendering engine with its own
// cooperative task scheduler. It owns three tightly coupled pieces: a
// deferred-task scheduler drained once per event-loop iteration, an input
// translator that turns raw per-device protocol callbacks into a normalized
// pointer-event stream and structured key-event messages, and a message
// router that multiplexes the engine's byte transport into named channels
// with per-channel codecs and handlers.
//
// Service is the composition root: it wires Config, an Engine, a
// GraphicsContext, and a Display connection into a single-threaded event
// loop. One thread owns everything; no operation blocks indefinitely except
// the protocol dispatch call, whose wait is bounded by the scheduler's next
// deadline.
//
// # Channels
//
// The built-in catalogue covers the host channels (accessibility, platform
// chrome, text input, platform views) on the JSON method codec and the
// plugin channels (url-launcher, connectivity, connectivity-status,
// media-player, media-player events) on the binary standard codec. A
// message naming an unregistered channel is answered with exactly one empty
// success so the caller is never left waiting.
//
// # Dispatch middleware
//
// The default dispatch chain adds correlation IDs, structured logging,
// Prometheus counters, the event tap, an OpenTelemetry span, and panic
// containment. Custom middleware can be appended via Dependencies.
//
// # Observability
//
// With Config.TapEnabled the session mirrors normalized input events and
// channel traffic onto an in-process pub/sub that tooling and tests can
// subscribe to; with Config.MetricsEnabled the scheduler, router, and
// translator feed Prometheus collectors.
//
// GPU rendering, the engine's internal execution, and windowing-session
// bootstrap are out of scope: the engine and the display connection are
// opaque collaborators reached through the Engine, GraphicsContext, and
// Display interfaces.
package lumen
