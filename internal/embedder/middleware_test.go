package embedder

import (
	"testing"

	"github.com/seleneworks/lumen/internal/embedder/channel"
)

func TestRecovererContainsHandlerPanics(t *testing.T) {
	s := newTestService(t, &fakeEngine{}, &fakeDisplay{}, Dependencies{
		Registrations: []channel.Registration{{
			Name: "demo/panics",
			Handler: func(channel.Message) {
				panic("handler bug")
			},
		}},
	})

	// Must not propagate out of dispatch.
	s.HandlePlatformMessage("demo/panics", nil, nil)
}

func TestCorrelationIDMiddlewareFillsMissingID(t *testing.T) {
	reg := CorrelationIDMiddleware()
	if reg.Middleware == nil {
		t.Fatal("correlation middleware needs no builder")
	}

	var got string
	h := reg.Middleware(func(msg channel.Message) { got = msg.CorrelationID })
	h(channel.Message{})

	if got == "" {
		t.Fatal("correlation id should be assigned")
	}
}

func TestBuildMiddlewaresSkipsNilBuilds(t *testing.T) {
	s := newTestService(t, &fakeEngine{}, &fakeDisplay{}, Dependencies{})

	// Metrics and tap are disabled by default; their builders return nil
	// and must be skipped rather than registered.
	chain, err := buildMiddlewares(s, DefaultMiddlewares())
	if err != nil {
		t.Fatalf("buildMiddlewares: %v", err)
	}
	if len(chain) >= len(DefaultMiddlewares()) {
		t.Fatalf("chain has %d entries, expected disabled builders to be skipped", len(chain))
	}
}

func TestDisableDefaultMiddlewares(t *testing.T) {
	var order []string
	s := newTestService(t, &fakeEngine{}, &fakeDisplay{}, Dependencies{
		DisableDefaultMiddlewares: true,
		Middlewares: []MiddlewareRegistration{{
			Name: "tracer",
			Middleware: func(next channel.HandlerFunc) channel.HandlerFunc {
				return func(msg channel.Message) {
					order = append(order, "tracer")
					next(msg)
				}
			},
		}},
		Registrations: []channel.Registration{{
			Name:    "demo/noop",
			Handler: func(channel.Message) { order = append(order, "handler") },
		}},
	})

	s.HandlePlatformMessage("demo/noop", nil, nil)

	if len(order) != 2 || order[0] != "tracer" || order[1] != "handler" {
		t.Fatalf("order = %v", order)
	}
}
