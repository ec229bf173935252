package channel

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/seleneworks/lumen/internal/embedder/logging"
)

// launchableSchemes are the URL schemes the host can hand to the opener.
var launchableSchemes = []string{"https:", "http:", "ftp:", "file:"}

func canLaunch(url string) bool {
	for _, scheme := range launchableSchemes {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}

// URLLauncherConfig controls how the url-launcher channel spawns its helper.
type URLLauncherConfig struct {
	// Command is the opener executable. Empty means xdg-open.
	Command string
	// Timeout bounds the synchronous wait for the helper. Zero waits
	// indefinitely.
	Timeout time.Duration
}

// URLLauncherHandler serves the url-launcher plugin channel on the standard
// codec. The launch method spawns the opener and blocks on its exit status
// on the event-loop thread, so the latency of the helper is paid inline.
func URLLauncherHandler(log logging.Logger, cfg URLLauncherConfig) HandlerFunc {
	codec := StandardMethodCodec{}
	command := cfg.Command
	if command == "" {
		command = "xdg-open"
	}

	respond := func(msg Message, payload []byte, err error) {
		if err != nil {
			log.Error("url-launcher envelope encoding failed", err, nil)
			return
		}
		if err := msg.Respond(payload); err != nil {
			log.Error("url-launcher response failed", err, nil)
		}
	}

	return func(msg Message) {
		call, err := codec.DecodeMethodCall(msg.Payload)
		if err != nil {
			payload, encErr := codec.EncodeErrorEnvelope("malformed", "method call did not decode", nil)
			respond(msg, payload, encErr)
			return
		}

		switch call.Method {
		case "launch":
			url, _ := StringArg(call.Args, "url")
			if url == "" {
				payload, encErr := codec.EncodeErrorEnvelope("argument_error", "No URL provided", nil)
				respond(msg, payload, encErr)
				return
			}
			if err := runLauncher(command, url, cfg.Timeout); err != nil {
				payload, encErr := codec.EncodeErrorEnvelope("open_error",
					fmt.Sprintf("Failed to open %s: %v", url, err), nil)
				respond(msg, payload, encErr)
				return
			}
			payload, encErr := codec.EncodeSuccessEnvelope(true)
			respond(msg, payload, encErr)

		case "canLaunch":
			url, _ := StringArg(call.Args, "url")
			if url == "" {
				payload, encErr := codec.EncodeErrorEnvelope("argument_error", "No URL provided", nil)
				respond(msg, payload, encErr)
				return
			}
			payload, encErr := codec.EncodeSuccessEnvelope(canLaunch(url))
			respond(msg, payload, encErr)

		default:
			log.Error("unknown url-launcher method", nil, logging.LogFields{
				"method": call.Method,
			})
			payload, encErr := codec.EncodeErrorEnvelope("unknown_method", call.Method, nil)
			respond(msg, payload, encErr)
		}
	}
}

// runLauncher spawns the opener and waits for it synchronously.
func runLauncher(command, url string, timeout time.Duration) error {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return exec.CommandContext(ctx, command, url).Run()
}

// ConnectivityHandler serves the connectivity plugin channel. Only check is
// implemented; the remaining query methods are logged and left unanswered,
// matching the observed stub state.
func ConnectivityHandler(log logging.Logger) HandlerFunc {
	codec := StandardMethodCodec{}
	return func(msg Message) {
		call, err := codec.DecodeMethodCall(msg.Payload)
		if err != nil {
			log.Error("connectivity message did not decode", err, nil)
			return
		}

		if call.Method == "check" {
			payload, encErr := codec.EncodeSuccessEnvelope("wifi")
			if encErr != nil {
				log.Error("connectivity envelope encoding failed", encErr, nil)
				return
			}
			if err := msg.Respond(payload); err != nil {
				log.Error("connectivity response failed", err, nil)
			}
			return
		}

		log.Info("unanswered connectivity method", logging.LogFields{
			"method": call.Method,
		})
	}
}

// ConnectivityStatusHandler acknowledges every status call with true.
func ConnectivityStatusHandler(log logging.Logger) HandlerFunc {
	codec := StandardMethodCodec{}
	return func(msg Message) {
		if _, err := codec.DecodeMethodCall(msg.Payload); err != nil {
			log.Error("connectivity-status message did not decode", err, nil)
			return
		}
		payload, encErr := codec.EncodeSuccessEnvelope(true)
		if encErr != nil {
			log.Error("connectivity-status envelope encoding failed", encErr, nil)
			return
		}
		if err := msg.Respond(payload); err != nil {
			log.Error("connectivity-status response failed", err, nil)
		}
	}
}

// MediaPlayerHandler stubs the media-playback lifecycle channel: init and
// dispose succeed, create echoes its argument map back, anything else
// answers success(false).
func MediaPlayerHandler(log logging.Logger) HandlerFunc {
	codec := StandardMethodCodec{}
	return func(msg Message) {
		call, err := codec.DecodeMethodCall(msg.Payload)
		if err != nil {
			log.Error("media-player message did not decode", err, nil)
			return
		}

		var result any
		switch call.Method {
		case "init":
			log.Info("media player init requested", nil)
			result = true
		case "dispose":
			log.Info("media player dispose requested", nil)
			result = true
		case "create":
			log.Info("media player create requested", logging.LogFields{
				"args": fmt.Sprintf("%v", call.Args),
			})
			result = call.Args
		default:
			result = false
		}

		payload, encErr := codec.EncodeSuccessEnvelope(result)
		if encErr != nil {
			log.Error("media-player envelope encoding failed", encErr, nil)
			return
		}
		if err := msg.Respond(payload); err != nil {
			log.Error("media-player response failed", err, nil)
		}
	}
}

// MediaPlayerEventsHandler acknowledges listen and cancel subscriptions.
func MediaPlayerEventsHandler(log logging.Logger) HandlerFunc {
	codec := StandardMethodCodec{}
	return func(msg Message) {
		call, err := codec.DecodeMethodCall(msg.Payload)
		if err != nil {
			log.Error("media-player events message did not decode", err, nil)
			return
		}

		log.Debug("media player event subscription", logging.LogFields{
			"method": call.Method,
		})

		payload, encErr := codec.EncodeSuccessEnvelope(true)
		if encErr != nil {
			log.Error("media-player events envelope encoding failed", encErr, nil)
			return
		}
		if err := msg.Respond(payload); err != nil {
			log.Error("media-player events response failed", err, nil)
		}
	}
}

// DefaultRegistrations builds the full channel catalogue.
func DefaultRegistrations(log logging.Logger, launcher URLLauncherConfig) []Registration {
	return []Registration{
		{Name: ChannelAccessibility, Handler: AccessibilityHandler(log)},
		{Name: ChannelPlatform, Handler: PlatformHandler(log)},
		{Name: ChannelTextInput, Handler: TextInputHandler(log)},
		{Name: ChannelPlatformViews, Handler: PlatformViewsHandler(log)},
		{Name: ChannelURLLauncher, Handler: URLLauncherHandler(log, launcher)},
		{Name: ChannelConnectivity, Handler: ConnectivityHandler(log)},
		{Name: ChannelConnectivityStatus, Handler: ConnectivityStatusHandler(log)},
		{Name: ChannelMediaPlayer, Handler: MediaPlayerHandler(log)},
		{Name: ChannelMediaPlayerEvents, Handler: MediaPlayerEventsHandler(log)},
	}
}
