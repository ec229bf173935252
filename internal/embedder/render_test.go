package embedder

import (
	"errors"
	"testing"

	"github.com/seleneworks/lumen/internal/embedder/logging"
)

func TestRenderBridgeForwardsWhenValid(t *testing.T) {
	gfx := &fakeGraphics{fbo: 3}
	b := NewRenderBridge(gfx, logging.Nop(), func() bool { return true })

	if !b.OnMakeCurrent() {
		t.Fatal("OnMakeCurrent should succeed")
	}
	if !b.OnClearCurrent() {
		t.Fatal("OnClearCurrent should succeed")
	}
	if !b.OnPresent() {
		t.Fatal("OnPresent should succeed")
	}
	if !b.OnMakeResourceCurrent() {
		t.Fatal("OnMakeResourceCurrent should succeed")
	}
	if got := b.OnGetFramebuffer(); got != 3 {
		t.Fatalf("framebuffer = %d, want 3", got)
	}
}

func TestRenderBridgeRefusesInvalidSession(t *testing.T) {
	gfx := &fakeGraphics{fbo: 3}
	b := NewRenderBridge(gfx, logging.Nop(), func() bool { return false })

	if b.OnMakeCurrent() || b.OnClearCurrent() || b.OnPresent() || b.OnMakeResourceCurrent() {
		t.Fatal("callbacks must fail on an invalid session")
	}
	if got := b.OnGetFramebuffer(); got != InvalidFramebuffer {
		t.Fatalf("framebuffer = %d, want the invalid sentinel", got)
	}
}

func TestRenderBridgeReportsGraphicsFailure(t *testing.T) {
	gfx := &fakeGraphics{currentErr: errors.New("egl: context lost")}
	b := NewRenderBridge(gfx, logging.Nop(), nil)

	if b.OnMakeCurrent() {
		t.Fatal("graphics failure must surface as false")
	}
}
