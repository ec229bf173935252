// Package tap publishes the embedder's normalized input events and channel
// traffic on an in-process pub/sub so tooling and tests can observe the
// session without touching the engine boundary.
package tap

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/seleneworks/lumen/internal/embedder/ids"
	"github.com/seleneworks/lumen/internal/embedder/input"
	"github.com/seleneworks/lumen/internal/embedder/jsoncodec"
	"github.com/seleneworks/lumen/internal/embedder/logging"
)

// Topics carried on the tap.
const (
	TopicPointer  = "lumen.input.pointer"
	TopicDispatch = "lumen.channel.dispatch"
)

// GoChannelFactory builds the in-memory pub/sub pair. Overridable in tests.
var GoChannelFactory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(cfg, logger)
}

// PointerRecord is the tap's view of one normalized pointer event.
type PointerRecord struct {
	Phase     string  `json:"phase"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Buttons   int64   `json:"buttons"`
	Device    string  `json:"device"`
	PointerID int32   `json:"pointerId"`
	Timestamp int64   `json:"timestamp"`
}

// DispatchRecord is the tap's view of one routed platform message.
type DispatchRecord struct {
	Channel       string `json:"channel"`
	PayloadBytes  int    `json:"payloadBytes"`
	CorrelationID string `json:"correlationId"`
}

// Tap is the in-process event bus. A nil *Tap is a no-op publisher, so the
// session can keep the tap disabled without branching at call sites.
type Tap struct {
	pubSub *gochannel.GoChannel
	log    logging.Logger
}

// New builds a tap over an in-memory gochannel pub/sub.
func New(log logging.Logger) *Tap {
	pubSub := GoChannelFactory(gochannel.Config{}, logging.NewWatermillAdapter(log))
	return &Tap{pubSub: pubSub, log: log}
}

// PublishPointer records a normalized pointer event.
func (t *Tap) PublishPointer(ev input.PointerEvent) {
	if t == nil {
		return
	}
	t.publish(TopicPointer, PointerRecord{
		Phase:     ev.Phase.String(),
		X:         ev.X,
		Y:         ev.Y,
		Buttons:   int64(ev.Buttons),
		Device:    ev.Device.String(),
		PointerID: ev.PointerID,
		Timestamp: ev.Timestamp,
	})
}

// PublishDispatch records one routed platform message.
func (t *Tap) PublishDispatch(channelName, correlationID string, payloadBytes int) {
	if t == nil {
		return
	}
	t.publish(TopicDispatch, DispatchRecord{
		Channel:       channelName,
		PayloadBytes:  payloadBytes,
		CorrelationID: correlationID,
	})
}

// Subscribe returns the message stream for a topic.
func (t *Tap) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return t.pubSub.Subscribe(ctx, topic)
}

// Close tears the pub/sub down.
func (t *Tap) Close() error {
	if t == nil {
		return nil
	}
	return t.pubSub.Close()
}

func (t *Tap) publish(topic string, record any) {
	payload, err := jsoncodec.Marshal(record)
	if err != nil {
		t.log.Error("tap record encoding failed", err, logging.LogFields{"topic": topic})
		return
	}
	msg := message.NewMessage(ids.NewCorrelationID(), payload)
	if err := t.pubSub.Publish(topic, msg); err != nil {
		t.log.Error("tap publish failed", err, logging.LogFields{"topic": topic})
	}
}
