// Package input translates raw per-device windowing-protocol callbacks into
// the normalized pointer-event stream and structured key-event messages the
// engine consumes. All state in this package is owned by the event-loop
// thread; nothing here is safe for concurrent use.
package input

import "time"

// Phase describes a normalized pointer transition. The same phase set serves
// both the pointer and the touch device families.
type Phase int

const (
	PhaseAdd Phase = iota
	PhaseRemove
	PhaseHover
	PhaseDown
	PhaseMove
	PhaseUp
)

func (p Phase) String() string {
	switch p {
	case PhaseAdd:
		return "add"
	case PhaseRemove:
		return "remove"
	case PhaseHover:
		return "hover"
	case PhaseDown:
		return "down"
	case PhaseMove:
		return "move"
	case PhaseUp:
		return "up"
	}
	return "unknown"
}

// DeviceKind tags which device family produced an event.
type DeviceKind int

const (
	DeviceMouse DeviceKind = iota
	DeviceTouch
)

func (k DeviceKind) String() string {
	if k == DeviceTouch {
		return "touch"
	}
	return "mouse"
}

// Button identifies an abstract pointer button as a bitmask value.
type Button int64

const (
	ButtonPrimary   Button = 1 << 0
	ButtonSecondary Button = 1 << 1
	ButtonMiddle    Button = 1 << 2
)

// Raw evdev button codes delivered by the compositor.
const (
	RawButtonLeft   = 0x110
	RawButtonRight  = 0x111
	RawButtonMiddle = 0x112
)

// mapButton converts a raw protocol button code to the abstract identifier.
// Unrecognized codes map to zero: they still drive phase transitions but do
// not contribute to the button bitmask.
func mapButton(code uint32) Button {
	switch code {
	case RawButtonLeft:
		return ButtonPrimary
	case RawButtonRight:
		return ButtonSecondary
	case RawButtonMiddle:
		return ButtonMiddle
	}
	return 0
}

// PointerEvent is the normalized event handed to the engine.
type PointerEvent struct {
	Phase     Phase
	X, Y      float64
	Buttons   Button
	Device    DeviceKind
	PointerID int32
	// Timestamp is microseconds on the monotonic clock, captured at
	// translation time; the protocol does not carry one uniformly.
	Timestamp int64
}

// EventSink receives normalized pointer events. The embedding session
// satisfies it by forwarding to the engine.
type EventSink interface {
	SendPointerEvent(ev PointerEvent) error
}

// Clock abstracts event timestamping so translators are testable.
type Clock func() time.Time

func timestampMicros(clock Clock) int64 {
	return clock().UnixMicro()
}
