package input

import (
	"time"

	"github.com/seleneworks/lumen/internal/embedder/logging"
)

type touchPoint struct {
	x, y float64
	down bool
}

// Touch translates multi-touch protocol callbacks. Each contact id owns an
// ephemeral state record created on Down and destroyed on Up, so concurrent
// contacts never observe each other.
type Touch struct {
	sink   EventSink
	log    logging.Logger
	clock  Clock
	points map[int32]*touchPoint
}

// NewTouch builds a touch translator. A nil clock falls back to time.Now.
func NewTouch(sink EventSink, log logging.Logger, clock Clock) *Touch {
	if clock == nil {
		clock = time.Now
	}
	return &Touch{sink: sink, log: log, clock: clock, points: make(map[int32]*touchPoint)}
}

// Down handles a new contact.
func (t *Touch) Down(id int32, x, y float64) {
	t.points[id] = &touchPoint{x: x, y: y, down: true}
	t.emit(id, PhaseDown, x, y)
}

// Motion handles movement of an existing contact. Mirrors the pointer
// semantics: a contact that is not down hovers.
func (t *Touch) Motion(id int32, x, y float64) {
	pt, ok := t.points[id]
	if !ok {
		t.log.Debug("touch motion for unknown contact dropped", logging.LogFields{"id": id})
		return
	}
	pt.x, pt.y = x, y
	if pt.down {
		t.emit(id, PhaseMove, x, y)
		return
	}
	t.emit(id, PhaseHover, x, y)
}

// Up handles contact release and destroys the per-id state.
func (t *Touch) Up(id int32) {
	pt, ok := t.points[id]
	if !ok {
		t.log.Debug("touch up for unknown contact dropped", logging.LogFields{"id": id})
		return
	}
	delete(t.points, id)
	t.emit(id, PhaseUp, pt.x, pt.y)
}

// Cancel drops all live contacts without emitting Up events.
func (t *Touch) Cancel() {
	clear(t.points)
}

// Active returns the number of live contacts.
func (t *Touch) Active() int {
	return len(t.points)
}

func (t *Touch) emit(id int32, phase Phase, x, y float64) {
	ev := PointerEvent{
		Phase:     phase,
		X:         x,
		Y:         y,
		Device:    DeviceTouch,
		PointerID: id,
		Timestamp: timestampMicros(t.clock),
	}
	if err := t.sink.SendPointerEvent(ev); err != nil {
		t.log.Error("touch event rejected by engine", err, logging.LogFields{
			"phase": phase.String(),
			"id":    id,
		})
	}
}
