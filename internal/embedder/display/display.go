// Package display models the windowing-session collaborators the embedding
// core consumes. The protocol connection itself is an opaque dependency;
// this package holds the interfaces and the protocol state machines that do
// not require a live connection.
package display

import "time"

// Well-known registry interface names the session binds.
const (
	InterfaceCompositor = "wl_compositor"
	InterfaceShell      = "wl_shell"
	InterfaceSeat       = "wl_seat"
	InterfaceShm        = "wl_shm"
)

// Display is the protocol connection. DispatchTimed is the only blocking
// call in the event loop; its wait must be bounded by the scheduler's next
// deadline whenever deferred tasks are queued.
type Display interface {
	// DispatchTimed dispatches pending protocol events, blocking until at
	// least one arrives or the timeout elapses. A non-positive timeout
	// waits without bound.
	DispatchTimed(timeout time.Duration) error

	// Flush pushes buffered requests to the compositor.
	Flush() error

	// Roundtrip blocks until the compositor has processed every pending
	// request.
	Roundtrip() error

	Close() error
}

// SurfaceHooks are the surface lifecycle callbacks the session installs.
type SurfaceHooks struct {
	// OnConfigure is invoked with new surface dimensions.
	OnConfigure func(width, height int)
	// OnPing must answer the compositor's liveness probe.
	OnPing func(serial uint32)
	// OnClose is invoked when the compositor asks the surface to close.
	OnClose func()
}

// Global is one registry announcement.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Registry tracks announced globals so setup can verify the capabilities it
// needs before declaring the session valid.
type Registry struct {
	globals map[uint32]Global
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{globals: make(map[uint32]Global)}
}

// Announce records a global. Unknown interfaces are kept too; binding is
// the session's decision.
func (r *Registry) Announce(g Global) {
	r.globals[g.Name] = g
}

// Remove drops a revoked global.
func (r *Registry) Remove(name uint32) {
	delete(r.globals, name)
}

// Has reports whether any announced global implements the interface.
func (r *Registry) Has(iface string) bool {
	for _, g := range r.globals {
		if g.Interface == iface {
			return true
		}
	}
	return false
}

// Ready reports whether the compositor and shell globals required for
// surface setup have been announced.
func (r *Registry) Ready() bool {
	return r.Has(InterfaceCompositor) && r.Has(InterfaceShell)
}
