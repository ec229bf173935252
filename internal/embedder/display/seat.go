package display

import (
	"github.com/seleneworks/lumen/internal/embedder/input"
	"github.com/seleneworks/lumen/internal/embedder/logging"
)

// Capability is the seat capability bitmask announced by the compositor.
type Capability uint32

const (
	CapPointer Capability = 1 << iota
	CapKeyboard
	CapTouch
)

// Seat reacts to capability changes by creating and destroying the
// per-device translators, and routes raw protocol callbacks into whichever
// translator is live. At most one translator exists per device family.
type Seat struct {
	log    logging.Logger
	events input.EventSink
	msgs   input.MessageSink
	clock  input.Clock

	pointer  *input.Pointer
	keyboard *input.Keyboard
	touch    *input.Touch
}

// NewSeat builds a seat with no capabilities announced yet.
func NewSeat(events input.EventSink, msgs input.MessageSink, log logging.Logger, clock input.Clock) *Seat {
	return &Seat{log: log, events: events, msgs: msgs, clock: clock}
}

// Capabilities folds a seat-capability announcement into the device set.
// Gaining a capability creates its translator; losing it destroys the
// translator and its state.
func (s *Seat) Capabilities(caps Capability) {
	if caps&CapPointer != 0 && s.pointer == nil {
		s.pointer = input.NewPointer(s.events, s.log, s.clock)
		s.log.Info("pointer capability announced", nil)
	}
	if caps&CapPointer == 0 && s.pointer != nil {
		s.pointer = nil
		s.log.Info("pointer capability revoked", nil)
	}

	if caps&CapKeyboard != 0 && s.keyboard == nil {
		s.keyboard = input.NewKeyboard(s.msgs, s.log)
		s.log.Info("keyboard capability announced", nil)
	}
	if caps&CapKeyboard == 0 && s.keyboard != nil {
		s.keyboard = nil
		s.log.Info("keyboard capability revoked", nil)
	}

	if caps&CapTouch != 0 && s.touch == nil {
		s.touch = input.NewTouch(s.events, s.log, s.clock)
		s.log.Info("touch capability announced", nil)
	}
	if caps&CapTouch == 0 && s.touch != nil {
		s.touch = nil
		s.log.Info("touch capability revoked", nil)
	}
}

// HasPointer reports whether the pointer translator is live.
func (s *Seat) HasPointer() bool { return s.pointer != nil }

// HasKeyboard reports whether the keyboard translator is live.
func (s *Seat) HasKeyboard() bool { return s.keyboard != nil }

// HasTouch reports whether the touch translator is live.
func (s *Seat) HasTouch() bool { return s.touch != nil }

// Pointer raw callbacks. Events for a device without the capability are
// dropped.

func (s *Seat) PointerEnter(x, y float64) {
	if s.pointer == nil {
		return
	}
	s.pointer.Enter(x, y)
}

func (s *Seat) PointerLeave() {
	if s.pointer == nil {
		return
	}
	s.pointer.Leave()
}

func (s *Seat) PointerMotion(x, y float64) {
	if s.pointer == nil {
		return
	}
	s.pointer.Motion(x, y)
}

func (s *Seat) PointerButton(code uint32, pressed bool) {
	if s.pointer == nil {
		return
	}
	s.pointer.Button(code, pressed)
}

func (s *Seat) PointerAxis(axis uint32, value float64) {
	if s.pointer == nil {
		return
	}
	s.pointer.Axis(axis, value)
}

// Touch raw callbacks.

func (s *Seat) TouchDown(id int32, x, y float64) {
	if s.touch == nil {
		return
	}
	s.touch.Down(id, x, y)
}

func (s *Seat) TouchMotion(id int32, x, y float64) {
	if s.touch == nil {
		return
	}
	s.touch.Motion(id, x, y)
}

func (s *Seat) TouchUp(id int32) {
	if s.touch == nil {
		return
	}
	s.touch.Up(id)
}

func (s *Seat) TouchCancel() {
	if s.touch == nil {
		return
	}
	s.touch.Cancel()
}

// Keyboard raw callbacks.

func (s *Seat) KeyboardKeymap(format input.KeymapFormat, blob []byte) {
	if s.keyboard == nil {
		return
	}
	s.keyboard.SetKeymap(format, blob)
}

func (s *Seat) KeyboardKey(hwCode uint32, pressed bool) {
	if s.keyboard == nil {
		return
	}
	s.keyboard.Key(hwCode, pressed)
}

func (s *Seat) KeyboardModifiers(depressed, latched, locked, group uint32) {
	if s.keyboard == nil {
		return
	}
	s.keyboard.Modifiers(depressed, latched, locked, group)
}
