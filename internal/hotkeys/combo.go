package hotkeys

import (
	"fmt"
	"strings"

	"dd2-manager/internal/input"
)

type Modifier int

const (
	ModCtrl Modifier = iota
	ModShift
	ModAlt
	ModWin
)

func (m Modifier) String() string {
	switch m {
	case ModCtrl:
		return "ctrl"
	case ModShift:
		return "shift"
	case ModAlt:
		return "alt"
	case ModWin:
		return "win"
	default:
		return "?"
	}
}

var modifierNames = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"win":     ModWin,
	"super":   ModWin,
}

// Combo is a parsed hotkey such as "ctrl+alt+q".
type Combo struct {
	Mods []Modifier
	Key  uint16
	Name string
}

func (c Combo) String() string {
	return c.Name
}

const (
	vkF1  = 0x70
	vkF24 = 0x87
)

// Bare reports whether the combo is a plain typing key with no modifier.
// The OS withholds a registered hotkey from every application, so a bare
// key stops reaching the game while it is bound.
func (c Combo) Bare() bool {
	return len(c.Mods) == 0 && (c.Key < vkF1 || c.Key > vkF24)
}

// ParseCombo reads "mod+mod+key". The final part must be a key from the
// broadcast key table; the others must be modifiers.
func ParseCombo(s string) (Combo, error) {
	norm := strings.ToLower(strings.ReplaceAll(s, " ", ""))
	if norm == "" {
		return Combo{}, fmt.Errorf("empty hotkey")
	}
	parts := strings.Split(norm, "+")
	keyName := parts[len(parts)-1]
	if keyName == "" {
		return Combo{}, fmt.Errorf("hotkey %q has no key", s)
	}

	c := Combo{Name: norm}
	seen := map[Modifier]bool{}
	for _, p := range parts[:len(parts)-1] {
		m, ok := modifierNames[p]
		if !ok {
			return Combo{}, fmt.Errorf("hotkey %q: unknown modifier %q", s, p)
		}
		if !seen[m] {
			seen[m] = true
			c.Mods = append(c.Mods, m)
		}
	}

	code, err := input.LookupKey(keyName)
	if err != nil {
		return Combo{}, fmt.Errorf("hotkey %q: %w", s, err)
	}
	c.Key = code
	return c, nil
}
