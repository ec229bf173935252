// Package jsoncodec is the session-wide JSON boundary. Channel payloads,
// key event messages, and tap records all pass through sonic configured
// for encoding/json compatibility, so swapping the implementation stays a
// one-file change.
package jsoncodec

import "github.com/bytedance/sonic"

var defaultConfig = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}
