// Package channel multiplexes the engine's platform-message transport into
// named logical channels, each with its own codec and handler.
package channel

// MethodCall is a decoded application-level call: a method name plus
// codec-specific arguments.
type MethodCall struct {
	Method string
	Args   any
}

// EnvelopeError is the typed error side of a response envelope.
type EnvelopeError struct {
	Code    string
	Message string
	Details any
}

// MethodCodec encodes and decodes method calls and their response envelopes
// for one channel family. Two families are supported: the JSON document
// codec and the binary standard codec.
type MethodCodec interface {
	// DecodeMethodCall parses an inbound payload into a method call.
	DecodeMethodCall(payload []byte) (MethodCall, error)

	// EncodeSuccessEnvelope wraps a result value into a success response.
	EncodeSuccessEnvelope(result any) ([]byte, error)

	// EncodeErrorEnvelope wraps a typed failure into an error response.
	EncodeErrorEnvelope(code, message string, details any) ([]byte, error)

	// DecodeEnvelope splits a response payload back into its success or
	// error side. Used by host-side callers and tests.
	DecodeEnvelope(payload []byte) (any, *EnvelopeError, error)
}

// ArgsMap extracts the string-keyed argument map from decoded method-call
// arguments, tolerating both codec families' map representations.
func ArgsMap(args any) (map[string]any, bool) {
	switch m := args.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				continue
			}
			out[key] = v
		}
		return out, true
	}
	return nil, false
}

// StringArg returns the named string argument, when present.
func StringArg(args any, name string) (string, bool) {
	m, ok := ArgsMap(args)
	if !ok {
		return "", false
	}
	s, ok := m[name].(string)
	return s, ok
}

// BoolArg returns the named boolean argument, when present.
func BoolArg(args any, name string) (bool, bool) {
	m, ok := ArgsMap(args)
	if !ok {
		return false, false
	}
	b, ok := m[name].(bool)
	return b, ok
}
