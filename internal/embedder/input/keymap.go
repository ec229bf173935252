package input

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// KeycodeBias is the fixed offset between the protocol's hardware key codes
// and the keymap's keycode namespace.
const KeycodeBias = 8

// Keymap is a compiled, immutable table mapping keymap keycodes to per-level
// symbols. It is replaced wholesale when the compositor delivers a new
// keymap; it is never mutated in place.
type Keymap struct {
	levels map[uint32][]keysym
}

type keysym struct {
	name string
	code rune // resolved code point, 0 when the symbol is not printable
}

var (
	keycodeRe = regexp.MustCompile(`<([A-Za-z0-9+_-]+)>\s*=\s*(\d+)\s*;`)
	aliasRe   = regexp.MustCompile(`alias\s*<([A-Za-z0-9+_-]+)>\s*=\s*<([A-Za-z0-9+_-]+)>\s*;`)
	keyRe     = regexp.MustCompile(`key\s*<([A-Za-z0-9+_-]+)>\s*\{([^}]*)\}\s*;`)
	bracketRe = regexp.MustCompile(`\[([^\]]*)\]`)
)

// CompileKeymap parses an xkb text-format keymap blob into a symbol table.
// Only the keycodes and symbols sections are consulted; geometry, types, and
// compatibility sections are skipped.
func CompileKeymap(src []byte) (*Keymap, error) {
	text := string(src)

	keycodesBody, err := sectionBody(text, "xkb_keycodes")
	if err != nil {
		return nil, err
	}
	symbolsBody, err := sectionBody(text, "xkb_symbols")
	if err != nil {
		return nil, err
	}

	byName := make(map[string]uint32)
	for _, m := range keycodeRe.FindAllStringSubmatch(keycodesBody, -1) {
		code, convErr := strconv.ParseUint(m[2], 10, 32)
		if convErr != nil {
			continue
		}
		byName[m[1]] = uint32(code)
	}
	for _, m := range aliasRe.FindAllStringSubmatch(keycodesBody, -1) {
		if code, ok := byName[m[2]]; ok {
			byName[m[1]] = code
		}
	}
	if len(byName) == 0 {
		return nil, fmt.Errorf("keymap: no keycode definitions found")
	}

	levels := make(map[uint32][]keysym)
	for _, m := range keyRe.FindAllStringSubmatch(symbolsBody, -1) {
		code, ok := byName[m[1]]
		if !ok {
			continue
		}
		group := bracketRe.FindStringSubmatch(m[2])
		if group == nil {
			continue
		}
		var syms []keysym
		for _, name := range strings.Split(group[1], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			syms = append(syms, keysym{name: name, code: keysymToRune(name)})
		}
		if len(syms) > 0 {
			levels[code] = syms
		}
	}

	return &Keymap{levels: levels}, nil
}

// Lookup resolves a keymap keycode at the given shift level. The returned
// name is the symbolic keysym name; code is zero for non-printable symbols.
func (k *Keymap) Lookup(code uint32, level int) (r rune, name string, ok bool) {
	syms, found := k.levels[code]
	if !found {
		return 0, "", false
	}
	if level >= len(syms) || level < 0 {
		level = 0
	}
	return syms[level].code, syms[level].name, true
}

// sectionBody extracts the brace-delimited body of the named xkb section.
func sectionBody(text, section string) (string, error) {
	idx := strings.Index(text, section)
	if idx < 0 {
		return "", fmt.Errorf("keymap: missing %s section", section)
	}
	open := strings.IndexByte(text[idx:], '{')
	if open < 0 {
		return "", fmt.Errorf("keymap: malformed %s section", section)
	}
	depth := 0
	for i := idx + open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[idx+open+1 : i], nil
			}
		}
	}
	return "", fmt.Errorf("keymap: unterminated %s section", section)
}

// namedKeysyms covers the punctuation and control symbols that do not spell
// their own character.
var namedKeysyms = map[string]rune{
	"space":        ' ',
	"exclam":       '!',
	"quotedbl":     '"',
	"numbersign":   '#',
	"dollar":       '$',
	"percent":      '%',
	"ampersand":    '&',
	"apostrophe":   '\'',
	"parenleft":    '(',
	"parenright":   ')',
	"asterisk":     '*',
	"plus":         '+',
	"comma":        ',',
	"minus":        '-',
	"period":       '.',
	"slash":        '/',
	"colon":        ':',
	"semicolon":    ';',
	"less":         '<',
	"equal":        '=',
	"greater":      '>',
	"question":     '?',
	"at":           '@',
	"bracketleft":  '[',
	"backslash":    '\\',
	"bracketright": ']',
	"asciicircum":  '^',
	"underscore":   '_',
	"grave":        '`',
	"braceleft":    '{',
	"bar":          '|',
	"braceright":   '}',
	"asciitilde":   '~',
	"BackSpace":    0x08,
	"Tab":          0x09,
	"Linefeed":     0x0a,
	"Return":       0x0d,
	"Escape":       0x1b,
	"Delete":       0x7f,
	"KP_Enter":     0x0d,
	"KP_Space":     ' ',
	"nobreakspace": 0xa0,
}

// keysymToRune resolves a keysym name to a Unicode code point, or zero when
// the symbol has no printable representation (pure modifiers, function keys,
// cursor keys).
func keysymToRune(name string) rune {
	if r, ok := namedKeysyms[name]; ok {
		return r
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return r
	}
	if len(name) > 1 && name[0] == 'U' {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil {
			return rune(v)
		}
	}
	return 0
}
