package channel

import (
	"github.com/seleneworks/lumen/internal/embedder/logging"
)

// Channel names multiplexed over the engine transport.
const (
	ChannelAccessibility      = "host/accessibility"
	ChannelPlatform           = "host/platform"
	ChannelTextInput          = "host/textinput"
	ChannelPlatformViews      = "host/platform-views"
	ChannelURLLauncher        = "plugin/url-launcher"
	ChannelConnectivity       = "plugin/connectivity"
	ChannelConnectivityStatus = "plugin/connectivity-status"
	ChannelMediaPlayer        = "plugin/media-player"
	ChannelMediaPlayerEvents  = "plugin/media-player/events"
)

// AccessibilityHandler logs accessibility notifications. The channel is
// fire-and-forget; no response is ever issued.
func AccessibilityHandler(log logging.Logger) HandlerFunc {
	return func(msg Message) {
		log.Info("accessibility notification", logging.LogFields{
			"payload":        string(msg.Payload),
			"correlation_id": msg.CorrelationID,
		})
	}
}

// PlatformHandler answers generic platform-chrome calls. The business logic
// behind these methods is a documented stub: each recognized call is logged
// and acknowledged with an empty success.
func PlatformHandler(log logging.Logger) HandlerFunc {
	codec := JSONMethodCodec{}
	return func(msg Message) {
		call, err := codec.DecodeMethodCall(msg.Payload)
		if err != nil {
			// Baseline behavior: a malformed payload drops without a
			// response.
			log.Error("platform message did not parse", err, logging.LogFields{
				"correlation_id": msg.CorrelationID,
			})
			return
		}

		log.Info("platform call", logging.LogFields{
			"method":         call.Method,
			"correlation_id": msg.CorrelationID,
		})

		if err := msg.Respond(nil); err != nil {
			log.Error("platform acknowledgement failed", err, nil)
		}
	}
}

// Text-input lifecycle methods recognized by the stub handler.
var textInputMethods = map[string]struct{}{
	"TextInput.setClient":       {},
	"TextInput.clearClient":     {},
	"TextInput.setEditingState": {},
	"TextInput.show":            {},
	"TextInput.hide":            {},
}

// TextInputHandler parses text-input lifecycle calls and logs them. The IME
// integration itself is stubbed.
func TextInputHandler(log logging.Logger) HandlerFunc {
	codec := JSONMethodCodec{}
	return func(msg Message) {
		call, err := codec.DecodeMethodCall(msg.Payload)
		if err != nil {
			log.Error("textinput message did not parse", err, logging.LogFields{
				"correlation_id": msg.CorrelationID,
			})
			return
		}

		if _, ok := textInputMethods[call.Method]; !ok {
			log.Error("unknown textinput method", nil, logging.LogFields{
				"method": call.Method,
			})
			return
		}

		log.Info("textinput call", logging.LogFields{
			"method":         call.Method,
			"correlation_id": msg.CorrelationID,
		})
	}
}

// PlatformViewsHandler parses platform-view control calls. Only
// View.enableWireframe is recognized; everything else is logged as unknown.
func PlatformViewsHandler(log logging.Logger) HandlerFunc {
	codec := JSONMethodCodec{}
	return func(msg Message) {
		call, err := codec.DecodeMethodCall(msg.Payload)
		if err != nil {
			log.Error("platform-views message did not parse", err, logging.LogFields{
				"correlation_id": msg.CorrelationID,
			})
			return
		}

		if call.Method != "View.enableWireframe" {
			log.Error("unknown platform-views method", nil, logging.LogFields{
				"method": call.Method,
			})
			return
		}

		enable, ok := BoolArg(call.Args, "enable")
		if !ok {
			log.Error("platform-views call missing bool 'enable' argument", nil, nil)
			return
		}

		log.Info("wireframe toggle requested", logging.LogFields{
			"enable": enable,
		})
	}
}
