package embedder

import (
	"github.com/seleneworks/lumen/internal/embedder/logging"
)

// InvalidFramebuffer is reported when the rendering bridge is asked for a
// framebuffer while the session is not valid.
const InvalidFramebuffer uint32 = 999

// GraphicsContext is the underlying graphics API surface the rendering
// bridge forwards to. The windowing bootstrap owns creating it.
type GraphicsContext interface {
	MakeCurrent() error
	ClearCurrent() error
	Present() error
	MakeResourceCurrent() error
	FramebufferID() uint32
}

// RenderBridge adapts a GraphicsContext to the engine's rendering
// callbacks. Failures are reported to the engine via return value, never by
// panicking across the boundary.
type RenderBridge struct {
	gfx   GraphicsContext
	log   logging.Logger
	valid func() bool
}

// NewRenderBridge builds the bridge. valid gates every call: an invalid
// session refuses to touch the graphics context.
func NewRenderBridge(gfx GraphicsContext, log logging.Logger, valid func() bool) *RenderBridge {
	if valid == nil {
		valid = func() bool { return true }
	}
	return &RenderBridge{gfx: gfx, log: log, valid: valid}
}

// OnMakeCurrent binds the onscreen context to the calling thread.
func (b *RenderBridge) OnMakeCurrent() bool {
	if !b.valid() {
		b.log.Error("make-current on an invalid session", nil, nil)
		return false
	}
	if err := b.gfx.MakeCurrent(); err != nil {
		b.log.Error("could not make the onscreen context current", err, nil)
		return false
	}
	return true
}

// OnClearCurrent unbinds the context.
func (b *RenderBridge) OnClearCurrent() bool {
	if !b.valid() {
		b.log.Error("clear-current on an invalid session", nil, nil)
		return false
	}
	if err := b.gfx.ClearCurrent(); err != nil {
		b.log.Error("could not clear the context", err, nil)
		return false
	}
	return true
}

// OnPresent swaps the surface buffers.
func (b *RenderBridge) OnPresent() bool {
	if !b.valid() {
		b.log.Error("present on an invalid session", nil, nil)
		return false
	}
	if err := b.gfx.Present(); err != nil {
		b.log.Error("could not present the surface", err, nil)
		return false
	}
	return true
}

// OnMakeResourceCurrent binds the resource-upload context.
func (b *RenderBridge) OnMakeResourceCurrent() bool {
	if !b.valid() {
		b.log.Error("make-resource-current on an invalid session", nil, nil)
		return false
	}
	if err := b.gfx.MakeResourceCurrent(); err != nil {
		b.log.Error("could not make the resource context current", err, nil)
		return false
	}
	return true
}

// OnGetFramebuffer reports the onscreen framebuffer id.
func (b *RenderBridge) OnGetFramebuffer() uint32 {
	if !b.valid() {
		b.log.Error("framebuffer query on an invalid session", nil, nil)
		return InvalidFramebuffer
	}
	return b.gfx.FramebufferID()
}
