package display

import (
	"testing"
	"time"

	"github.com/seleneworks/lumen/internal/embedder/input"
	"github.com/seleneworks/lumen/internal/embedder/logging"
)

type sinkRecorder struct {
	events   []input.PointerEvent
	messages []string
}

func (r *sinkRecorder) SendPointerEvent(ev input.PointerEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *sinkRecorder) SendChannelMessage(channel string, _ []byte) error {
	r.messages = append(r.messages, channel)
	return nil
}

func testClock() time.Time { return time.Unix(50, 0) }

func TestSeatCapabilityAnnouncements(t *testing.T) {
	rec := &sinkRecorder{}
	seat := NewSeat(rec, rec, logging.Nop(), testClock)

	if seat.HasPointer() || seat.HasKeyboard() || seat.HasTouch() {
		t.Fatal("no translators before the first announcement")
	}

	seat.Capabilities(CapPointer | CapKeyboard | CapTouch)
	if !seat.HasPointer() || !seat.HasKeyboard() || !seat.HasTouch() {
		t.Fatal("all translators should be live")
	}

	seat.Capabilities(CapKeyboard)
	if seat.HasPointer() || seat.HasTouch() {
		t.Fatal("revoked translators should be destroyed")
	}
	if !seat.HasKeyboard() {
		t.Fatal("keyboard should survive")
	}
}

func TestSeatRevocationDestroysTranslatorState(t *testing.T) {
	rec := &sinkRecorder{}
	seat := NewSeat(rec, rec, logging.Nop(), testClock)

	seat.Capabilities(CapPointer)
	seat.PointerEnter(1, 2)

	seat.Capabilities(0)
	seat.Capabilities(CapPointer)

	// The recreated translator has no focus; motion drops.
	before := len(rec.events)
	seat.PointerMotion(5, 5)
	if len(rec.events) != before {
		t.Fatal("recreated pointer should start without focus")
	}
}

func TestSeatDropsEventsWithoutCapability(t *testing.T) {
	rec := &sinkRecorder{}
	seat := NewSeat(rec, rec, logging.Nop(), testClock)

	seat.PointerEnter(1, 1)
	seat.PointerMotion(2, 2)
	seat.PointerButton(input.RawButtonLeft, true)
	seat.TouchDown(1, 3, 3)
	seat.TouchMotion(1, 4, 4)
	seat.TouchUp(1)
	seat.TouchCancel()
	seat.KeyboardKey(16, true)
	seat.KeyboardModifiers(1, 0, 0, 0)

	if len(rec.events) != 0 || len(rec.messages) != 0 {
		t.Fatalf("events without capability must drop, got %d/%d",
			len(rec.events), len(rec.messages))
	}
}

func TestSeatRoutesToLiveTranslators(t *testing.T) {
	rec := &sinkRecorder{}
	seat := NewSeat(rec, rec, logging.Nop(), testClock)
	seat.Capabilities(CapPointer | CapTouch)

	seat.PointerEnter(1, 1)
	seat.TouchDown(9, 2, 2)

	if len(rec.events) != 2 {
		t.Fatalf("got %d events, want 2", len(rec.events))
	}
	if rec.events[0].Device != input.DeviceMouse || rec.events[1].Device != input.DeviceTouch {
		t.Fatalf("devices = %v, %v", rec.events[0].Device, rec.events[1].Device)
	}
}

func TestRegistryReadiness(t *testing.T) {
	r := NewRegistry()
	if r.Ready() {
		t.Fatal("empty registry is not ready")
	}

	r.Announce(Global{Name: 1, Interface: InterfaceCompositor, Version: 4})
	if r.Ready() {
		t.Fatal("compositor alone is not enough")
	}

	r.Announce(Global{Name: 2, Interface: InterfaceShell, Version: 1})
	if !r.Ready() {
		t.Fatal("compositor and shell should satisfy readiness")
	}

	r.Remove(2)
	if r.Ready() {
		t.Fatal("removing the shell global revokes readiness")
	}

	if !r.Has(InterfaceCompositor) || r.Has(InterfaceSeat) {
		t.Fatal("Has should track announced interfaces")
	}
}
