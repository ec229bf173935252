package channel

import (
	"github.com/seleneworks/lumen/internal/embedder/ids"
	"github.com/seleneworks/lumen/internal/embedder/logging"

	errspkg "github.com/seleneworks/lumen/internal/embedder/errors"
)

// Responder is the capability used to answer one inbound message. A handler
// issues at most one response through it; Respond(nil) acknowledges with an
// empty success.
type Responder interface {
	Respond(payload []byte) error
}

// Message is one inbound platform message as seen by handlers.
type Message struct {
	Channel       string
	Payload       []byte
	CorrelationID string
	Responder     Responder
}

// Respond answers the message, tolerating fire-and-forget messages that
// carry no response token.
func (m Message) Respond(payload []byte) error {
	if m.Responder == nil {
		return nil
	}
	return m.Responder.Respond(payload)
}

// HandlerFunc processes one inbound message. It owns decoding the payload
// with the channel's codec and issuing at most one response.
type HandlerFunc func(msg Message)

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// Registration pairs a channel name with its handler. The table is built
// once at construction and is immutable afterwards.
type Registration struct {
	Name    string
	Handler HandlerFunc
}

// Router owns the channel-name to handler table and dispatches inbound
// messages on the event-loop thread.
type Router struct {
	log      logging.Logger
	handlers map[string]HandlerFunc
	onMiss   func(channel string)
}

// Option configures a Router.
type Option func(*Router)

// WithUnknownChannelHook installs a callback observed whenever a message
// names an unregistered channel. Used for metrics.
func WithUnknownChannelHook(hook func(channel string)) Option {
	return func(r *Router) {
		r.onMiss = hook
	}
}

// NewRouter builds the dispatch table from the registrations, applying the
// middleware chain (outermost first) to every handler.
func NewRouter(log logging.Logger, regs []Registration, middlewares []Middleware, opts ...Option) (*Router, error) {
	r := &Router{
		log:      log,
		handlers: make(map[string]HandlerFunc, len(regs)),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, reg := range regs {
		if reg.Name == "" {
			return nil, errspkg.ErrChannelNameRequired
		}
		if reg.Handler == nil {
			return nil, errspkg.ErrHandlerRequired
		}
		if _, dup := r.handlers[reg.Name]; dup {
			return nil, errspkg.ErrChannelRegistered
		}
		h := reg.Handler
		for i := len(middlewares) - 1; i >= 0; i-- {
			h = middlewares[i](h)
		}
		r.handlers[reg.Name] = h
	}

	return r, nil
}

// Channels lists the registered channel names. Read-only introspection for
// tooling and tests.
func (r *Router) Channels() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch routes one inbound message. A message for an unregistered
// channel is answered with exactly one empty success so the caller is never
// left waiting.
func (r *Router) Dispatch(channelName string, payload []byte, responder Responder) {
	msg := Message{
		Channel:       channelName,
		Payload:       payload,
		CorrelationID: ids.NewCorrelationID(),
		Responder:     responder,
	}

	handler, ok := r.handlers[channelName]
	if !ok {
		if r.onMiss != nil {
			r.onMiss(channelName)
		}
		r.log.Debug("message for unregistered channel acknowledged", logging.LogFields{
			"channel":        channelName,
			"correlation_id": msg.CorrelationID,
		})
		if err := msg.Respond(nil); err != nil {
			r.log.Error("empty acknowledgement failed", err, logging.LogFields{
				"channel": channelName,
			})
		}
		return
	}

	handler(msg)
}
