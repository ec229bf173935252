package input

import (
	"time"

	"github.com/seleneworks/lumen/internal/embedder/logging"
)

type pointerState int

const (
	pointerAbsent pointerState = iota
	pointerHover
	pointerDown
)

// Pointer owns the protocol state for one logical pointer device and feeds
// the normalized stream. Created when the seat announces the pointer
// capability, destroyed when it is revoked.
type Pointer struct {
	sink    EventSink
	log     logging.Logger
	clock   Clock
	state   pointerState
	x, y    float64
	buttons Button
}

// NewPointer builds a pointer translator. A nil clock falls back to time.Now.
func NewPointer(sink EventSink, log logging.Logger, clock Clock) *Pointer {
	if clock == nil {
		clock = time.Now
	}
	return &Pointer{sink: sink, log: log, clock: clock}
}

// Enter handles the device entering the surface at (x, y).
func (p *Pointer) Enter(x, y float64) {
	p.x, p.y = x, y
	p.state = pointerHover
	p.emit(PhaseAdd)
}

// Leave handles the device leaving the surface.
func (p *Pointer) Leave() {
	if p.state == pointerAbsent {
		return
	}
	p.state = pointerAbsent
	p.buttons = 0
	p.emit(PhaseRemove)
}

// Motion handles absolute movement in window space.
func (p *Pointer) Motion(x, y float64) {
	if p.state == pointerAbsent {
		p.log.Debug("pointer motion before enter dropped", logging.LogFields{"x": x, "y": y})
		return
	}
	p.x, p.y = x, y
	if p.state == pointerDown {
		p.emit(PhaseMove)
		return
	}
	p.emit(PhaseHover)
}

// Button handles a raw button transition. Unrecognized codes still move the
// phase machine but leave the button bitmask untouched.
func (p *Pointer) Button(code uint32, pressed bool) {
	if p.state == pointerAbsent {
		p.log.Debug("pointer button before enter dropped", logging.LogFields{"code": code})
		return
	}

	button := mapButton(code)
	if pressed {
		p.buttons |= button
		p.state = pointerDown
		p.emit(PhaseDown)
		return
	}

	p.buttons &^= button
	p.state = pointerHover
	p.emit(PhaseUp)
}

// Axis surfaces scroll input. No engine-visible event is produced; the value
// is recorded for diagnostics only.
func (p *Pointer) Axis(axis uint32, value float64) {
	p.log.Trace("pointer axis", logging.LogFields{"axis": axis, "value": value})
}

// Position returns the last known window-space position.
func (p *Pointer) Position() (x, y float64) {
	return p.x, p.y
}

func (p *Pointer) emit(phase Phase) {
	ev := PointerEvent{
		Phase:     phase,
		X:         p.x,
		Y:         p.y,
		Buttons:   p.buttons,
		Device:    DeviceMouse,
		Timestamp: timestampMicros(p.clock),
	}
	if err := p.sink.SendPointerEvent(ev); err != nil {
		p.log.Error("pointer event rejected by engine", err, logging.LogFields{
			"phase": phase.String(),
		})
	}
}
