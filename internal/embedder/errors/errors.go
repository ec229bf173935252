package errors

import sterrors "errors"

var (
	ErrEngineRequired      = sterrors.New("lumen: engine is required")
	ErrDisplayRequired     = sterrors.New("lumen: display connection is required")
	ErrGraphicsRequired    = sterrors.New("lumen: graphics context is required")
	ErrHandlerRequired     = sterrors.New("lumen: channel handler is required")
	ErrChannelNameRequired = sterrors.New("lumen: channel name is required")
	ErrChannelRegistered   = sterrors.New("lumen: channel is already registered")
	ErrInvalidSession      = sterrors.New("lumen: session is not valid")
	ErrKeymapFormat        = sterrors.New("lumen: unsupported keymap format")
	ErrEnvelopeTruncated   = sterrors.New("lumen: method envelope is truncated")
	ErrMethodCallMalformed = sterrors.New("lumen: method call payload is malformed")
)
