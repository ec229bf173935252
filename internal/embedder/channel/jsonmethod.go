package channel

import (
	"fmt"

	"github.com/seleneworks/lumen/internal/embedder/jsoncodec"
	errspkg "github.com/seleneworks/lumen/internal/embedder/errors"
)

// JSONMethodCodec frames method calls as JSON documents: calls are
// {"method": ..., "args": ...}, success envelopes are one-element arrays,
// error envelopes are [code, message, details] triples.
type JSONMethodCodec struct{}

type jsonMethodCall struct {
	Method string `json:"method"`
	Args   any    `json:"args,omitempty"`
}

func (JSONMethodCodec) DecodeMethodCall(payload []byte) (MethodCall, error) {
	var call jsonMethodCall
	if err := jsoncodec.Unmarshal(payload, &call); err != nil {
		return MethodCall{}, fmt.Errorf("json method call: %w", err)
	}
	if call.Method == "" {
		return MethodCall{}, errspkg.ErrMethodCallMalformed
	}
	return MethodCall{Method: call.Method, Args: call.Args}, nil
}

func (JSONMethodCodec) EncodeMethodCall(call MethodCall) ([]byte, error) {
	return jsoncodec.Marshal(jsonMethodCall{Method: call.Method, Args: call.Args})
}

func (JSONMethodCodec) EncodeSuccessEnvelope(result any) ([]byte, error) {
	return jsoncodec.Marshal([]any{result})
}

func (JSONMethodCodec) EncodeErrorEnvelope(code, message string, details any) ([]byte, error) {
	return jsoncodec.Marshal([]any{code, message, details})
}

func (JSONMethodCodec) DecodeEnvelope(payload []byte) (any, *EnvelopeError, error) {
	var envelope []any
	if err := jsoncodec.Unmarshal(payload, &envelope); err != nil {
		return nil, nil, fmt.Errorf("json envelope: %w", err)
	}
	switch len(envelope) {
	case 1:
		return envelope[0], nil, nil
	case 3:
		code, _ := envelope[0].(string)
		message, _ := envelope[1].(string)
		return nil, &EnvelopeError{Code: code, Message: message, Details: envelope[2]}, nil
	}
	return nil, nil, errspkg.ErrEnvelopeTruncated
}
