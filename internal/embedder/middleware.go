package embedder

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/seleneworks/lumen/internal/embedder/channel"
	"github.com/seleneworks/lumen/internal/embedder/ids"
	"github.com/seleneworks/lumen/internal/embedder/logging"
)

// MiddlewareBuilder constructs a dispatch middleware using the service
// instance. Returning a nil middleware skips registration.
type MiddlewareBuilder func(s *Service) (channel.Middleware, error)

// MiddlewareRegistration captures how a dispatch middleware is registered.
type MiddlewareRegistration struct {
	Name       string
	Middleware channel.Middleware
	Builder    MiddlewareBuilder
}

// DefaultMiddlewares returns the standard dispatch chain used by the
// Service constructor.
func DefaultMiddlewares() []MiddlewareRegistration {
	return []MiddlewareRegistration{
		CorrelationIDMiddleware(),
		LogMessagesMiddleware(nil),
		MetricsMiddleware(),
		TapMiddleware(),
		TracerMiddleware(),
		RecovererMiddleware(),
	}
}

// TapMiddleware mirrors dispatched messages onto the event tap.
func TapMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "tap",
		Builder: func(s *Service) (channel.Middleware, error) {
			if s.tap == nil {
				return nil, nil
			}
			t := s.tap
			return func(next channel.HandlerFunc) channel.HandlerFunc {
				return func(msg channel.Message) {
					t.PublishDispatch(msg.Channel, msg.CorrelationID, len(msg.Payload))
					next(msg)
				}
			}, nil
		},
	}
}

// CorrelationIDMiddleware guarantees every dispatched message carries a
// correlation identifier, covering handlers invoked outside the router.
func CorrelationIDMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "correlation_id",
		Middleware: func(next channel.HandlerFunc) channel.HandlerFunc {
			return func(msg channel.Message) {
				if msg.CorrelationID == "" {
					msg.CorrelationID = ids.NewCorrelationID()
				}
				next(msg)
			}
		},
	}
}

// LogMessagesMiddleware logs every dispatched message. A nil logger uses
// the service logger.
func LogMessagesMiddleware(logger logging.Logger) MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "log_messages",
		Builder: func(s *Service) (channel.Middleware, error) {
			l := logger
			if l == nil {
				l = s.Logger
			}
			return func(next channel.HandlerFunc) channel.HandlerFunc {
				return func(msg channel.Message) {
					l.Trace("dispatching platform message", logging.LogFields{
						"channel":        msg.Channel,
						"payload_bytes":  len(msg.Payload),
						"correlation_id": msg.CorrelationID,
					})
					next(msg)
				}
			}, nil
		},
	}
}

// MetricsMiddleware counts dispatched messages by channel.
func MetricsMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "metrics",
		Builder: func(s *Service) (channel.Middleware, error) {
			if s.metrics == nil {
				return nil, nil
			}
			counter := s.metrics.MessagesDispatched
			return func(next channel.HandlerFunc) channel.HandlerFunc {
				return func(msg channel.Message) {
					counter.WithLabelValues(msg.Channel).Inc()
					next(msg)
				}
			}, nil
		},
	}
}

// TracerMiddleware wraps handler execution in an OpenTelemetry span.
func TracerMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "tracer",
		Middleware: func(next channel.HandlerFunc) channel.HandlerFunc {
			tracer := otel.Tracer("lumen")
			return func(msg channel.Message) {
				_, span := tracer.Start(context.Background(), "channel.dispatch",
					trace.WithAttributes(
						attribute.String("channel", msg.Channel),
						attribute.String("correlation_id", msg.CorrelationID),
					))
				defer span.End()
				next(msg)
			}
		},
	}
}

// RecovererMiddleware contains handler panics: nothing in the dispatch path
// may terminate the event loop.
func RecovererMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "recoverer",
		Builder: func(s *Service) (channel.Middleware, error) {
			log := s.Logger
			return func(next channel.HandlerFunc) channel.HandlerFunc {
				return func(msg channel.Message) {
					defer func() {
						if r := recover(); r != nil {
							log.Error("channel handler panicked", nil, logging.LogFields{
								"channel": msg.Channel,
								"panic":   r,
							})
						}
					}()
					next(msg)
				}
			}, nil
		},
	}
}

// buildMiddlewares resolves registrations into the concrete chain.
func buildMiddlewares(s *Service, regs []MiddlewareRegistration) ([]channel.Middleware, error) {
	chain := make([]channel.Middleware, 0, len(regs))
	for _, reg := range regs {
		mw := reg.Middleware
		if reg.Builder != nil {
			built, err := reg.Builder(s)
			if err != nil {
				return nil, err
			}
			mw = built
		}
		if mw != nil {
			chain = append(chain, mw)
		}
	}
	return chain, nil
}
