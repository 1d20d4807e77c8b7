package input

import (
	"fmt"
	"strings"
)

// virtual-key codes for named keys
var namedKeys = map[string]uint16{
	"backspace": 0x08,
	"tab":       0x09,
	"enter":     0x0D,
	"return":    0x0D,
	"shift":     0x10,
	"ctrl":      0x11,
	"control":   0x11,
	"alt":       0x12,
	"pause":     0x13,
	"capslock":  0x14,
	"escape":    0x1B,
	"esc":       0x1B,
	"space":     0x20,
	"pageup":    0x21,
	"pagedown":  0x22,
	"end":       0x23,
	"home":      0x24,
	"left":      0x25,
	"up":        0x26,
	"right":     0x27,
	"down":      0x28,
	"insert":    0x2D,
	"delete":    0x2E,
	"multiply":  0x6A,
	"add":       0x6B,
	"subtract":  0x6D,
	"decimal":   0x6E,
	"divide":    0x6F,
	";":         0xBA,
	"=":         0xBB,
	",":         0xBC,
	"-":         0xBD,
	".":         0xBE,
	"/":         0xBF,
	"`":         0xC0,
	"[":         0xDB,
	"\\":        0xDC,
	"]":         0xDD,
	"'":         0xDE,
}

var keyTable = buildKeyTable()

func buildKeyTable() map[string]uint16 {
	t := make(map[string]uint16, len(namedKeys)+70)
	for k, v := range namedKeys {
		t[k] = v
	}
	for c := 'a'; c <= 'z'; c++ {
		t[string(c)] = uint16('A' + (c - 'a'))
	}
	for d := 0; d <= 9; d++ {
		t[fmt.Sprint(d)] = uint16('0' + d)
		t[fmt.Sprintf("numpad%d", d)] = uint16(0x60 + d)
	}
	for f := 1; f <= 24; f++ {
		t[fmt.Sprintf("f%d", f)] = uint16(0x70 + f - 1)
	}
	return t
}

// KeyCode maps a key name to its virtual-key code. Names are case-insensitive.
func KeyCode(name string) (uint16, bool) {
	code, ok := keyTable[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// LookupKey is KeyCode with an ErrUnknownKey error.
func LookupKey(name string) (uint16, error) {
	code, ok := KeyCode(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return code, nil
}
