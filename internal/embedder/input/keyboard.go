package input

import (
	"github.com/seleneworks/lumen/internal/embedder/jsoncodec"
	"github.com/seleneworks/lumen/internal/embedder/logging"

	errspkg "github.com/seleneworks/lumen/internal/embedder/errors"
)

// KeyEventChannel is the outbound channel carrying structured key-event
// messages.
const KeyEventChannel = "host/keyevent"

// KeymapFormat mirrors the protocol's keymap format enum.
type KeymapFormat uint32

const (
	KeymapFormatNone KeymapFormat = iota
	KeymapFormatXKBText
)

// xkb real modifier mask bits.
const (
	modShift   = 1 << 0
	modLock    = 1 << 1
	modControl = 1 << 2
	modAlt     = 1 << 3 // Mod1
	modSuper   = 1 << 6 // Mod4
)

// Toolkit-style modifier bits reported in key-event messages.
const (
	kitModShift   = 1 << 0
	kitModControl = 1 << 1
	kitModAlt     = 1 << 2
	kitModSuper   = 1 << 3
)

// MessageSink posts fire-and-forget channel messages toward the engine.
type MessageSink interface {
	SendChannelMessage(channel string, payload []byte) error
}

// KeyEventMessage is the structured record emitted per physical key
// transition.
type KeyEventMessage struct {
	KeyCode             uint32 `json:"keyCode"`
	Keymap              string `json:"keymap"`
	ScanCode            uint32 `json:"scanCode"`
	Modifiers           int    `json:"modifiers"`
	Toolkit             string `json:"toolkit"`
	UnicodeScalarValues uint32 `json:"unicodeScalarValues"`
	Type                string `json:"type"`
}

const (
	keymapNamespace = "linux"
	toolkitTag      = "glfw"
	typeKeyDown     = "keydown"
	typeKeyUp       = "keyup"
)

// Keyboard owns the compiled keymap and the modifier state for the seat's
// keyboard device.
type Keyboard struct {
	sink     MessageSink
	log      logging.Logger
	keymap   *Keymap
	degraded bool

	depressed uint32
	latched   uint32
	locked    uint32
	group     uint32
}

// NewKeyboard builds a keyboard translator.
func NewKeyboard(sink MessageSink, log logging.Logger) *Keyboard {
	return &Keyboard{sink: sink, log: log}
}

// SetKeymap compiles a protocol-delivered keymap blob. An unrecognized
// format puts the keyboard into a degraded state where key events are
// ignored; this is a recoverable condition, not a fault.
func (k *Keyboard) SetKeymap(format KeymapFormat, blob []byte) {
	if format != KeymapFormatXKBText {
		k.keymap = nil
		k.degraded = true
		k.log.Error("key events will be ignored", errspkg.ErrKeymapFormat, logging.LogFields{
			"format": uint32(format),
		})
		return
	}

	compiled, err := CompileKeymap(blob)
	if err != nil {
		k.keymap = nil
		k.degraded = true
		k.log.Error("keymap compilation failed", err, nil)
		return
	}

	// Replace wholesale; the old table is dropped, never patched.
	k.keymap = compiled
	k.degraded = false
}

// Modifiers folds a protocol modifier update into the keyboard state. It
// affects every subsequent Key resolution.
func (k *Keyboard) Modifiers(depressed, latched, locked, group uint32) {
	k.depressed = depressed
	k.latched = latched
	k.locked = locked
	k.group = group
}

// Key resolves a raw hardware key transition through the compiled keymap and
// emits a structured key-event message when the symbol has a printable code
// point.
func (k *Keyboard) Key(hwCode uint32, pressed bool) {
	if k.keymap == nil {
		if !k.degraded {
			k.log.Info("key event before first keymap dropped", logging.LogFields{
				"key": hwCode,
			})
		}
		return
	}

	scanCode := hwCode + KeycodeBias
	r, name, ok := k.keymap.Lookup(scanCode, k.level())
	if !ok {
		k.log.Debug("key has no keymap entry", logging.LogFields{"scan_code": scanCode})
		return
	}
	if r == 0 {
		k.log.Debug("key resolved to non-printable symbol", logging.LogFields{
			"keysym":  name,
			"pressed": pressed,
		})
		return
	}

	msg := KeyEventMessage{
		KeyCode:             hwCode,
		Keymap:              keymapNamespace,
		ScanCode:            scanCode,
		Modifiers:           k.toolkitModifiers(),
		Toolkit:             toolkitTag,
		UnicodeScalarValues: uint32(r),
		Type:                typeKeyDown,
	}
	if !pressed {
		msg.Type = typeKeyUp
	}

	payload, err := jsoncodec.Marshal(msg)
	if err != nil {
		k.log.Error("key event encoding failed", err, nil)
		return
	}
	if err := k.sink.SendChannelMessage(KeyEventChannel, payload); err != nil {
		k.log.Error("key event rejected by engine", err, logging.LogFields{
			"keysym": name,
		})
	}
}

// HasKeymap reports whether a compiled keymap is installed.
func (k *Keyboard) HasKeymap() bool {
	return k.keymap != nil
}

func (k *Keyboard) effective() uint32 {
	return k.depressed | k.latched | k.locked
}

// level picks the shift level used for symbol resolution.
func (k *Keyboard) level() int {
	if k.effective()&(modShift|modLock) != 0 {
		return 1
	}
	return 0
}

func (k *Keyboard) toolkitModifiers() int {
	mods := 0
	eff := k.effective()
	if eff&modShift != 0 {
		mods |= kitModShift
	}
	if eff&modControl != 0 {
		mods |= kitModControl
	}
	if eff&modAlt != 0 {
		mods |= kitModAlt
	}
	if eff&modSuper != 0 {
		mods |= kitModSuper
	}
	return mods
}
