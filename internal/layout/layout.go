package layout

import (
	"fmt"

	"dd2-manager/internal/models"
)

// MaxSecondaries is the number of secondary slots in the layout.
const MaxSecondaries = 3

// Spec holds the fixed layout options.
type Spec struct {
	MainWidth  int `json:"main_width" yaml:"main_width"`
	MainHeight int `json:"main_height" yaml:"main_height"`
	Padding    int `json:"padding" yaml:"padding"`
}

// Validate rejects specs that cannot produce a usable main slot.
func (s Spec) Validate() error {
	if s.MainWidth <= 0 || s.MainHeight <= 0 {
		return fmt.Errorf("main window size must be positive, got %dx%d", s.MainWidth, s.MainHeight)
	}
	if s.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %d", s.Padding)
	}
	return nil
}

// Slot names a position in the layout.
type Slot int

const (
	SlotMain Slot = iota
	SlotSide
	SlotBottomLeft
	SlotBottomRight
)

func (s Slot) String() string {
	switch s {
	case SlotMain:
		return "main"
	case SlotSide:
		return "side"
	case SlotBottomLeft:
		return "bottom-left"
	case SlotBottomRight:
		return "bottom-right"
	default:
		return "unknown"
	}
}

// Placement is the computed geometry for one layout.
// Secondaries holds side, bottom-left and bottom-right in that order,
// truncated to the number of secondary windows present.
type Placement struct {
	Main        models.Rect
	Secondaries []models.Rect
}

// Compute places the main window at the work area's top-left corner and fills
// the strip to its right and the strip below it with up to three secondaries.
// Missing secondaries leave blank space; nothing is re-flowed.
func Compute(workArea models.Rect, spec Spec, secondaries int) Placement {
	if secondaries < 0 {
		secondaries = 0
	}
	if secondaries > MaxSecondaries {
		secondaries = MaxSecondaries
	}

	x, y := workArea.Left, workArea.Top
	p := Placement{
		Main:        models.NewRect(x, y, spec.MainWidth, spec.MainHeight),
		Secondaries: make([]models.Rect, 0, secondaries),
	}
	if secondaries == 0 {
		return p
	}

	sideWidth := workArea.Right - (x + spec.MainWidth) - spec.Padding
	p.Secondaries = append(p.Secondaries,
		models.NewRect(x+spec.MainWidth+spec.Padding, y, sideWidth, spec.MainHeight))

	// Floor division: an odd remainder pixel stays unused on the right.
	bottomY := y + spec.MainHeight + spec.Padding
	bottomHeight := workArea.Bottom - (y + spec.MainHeight) - spec.Padding*2
	bottomWidth := (spec.MainWidth - spec.Padding) / 2

	if secondaries > 1 {
		p.Secondaries = append(p.Secondaries,
			models.NewRect(x, bottomY, bottomWidth, bottomHeight))
	}
	if secondaries > 2 {
		p.Secondaries = append(p.Secondaries,
			models.NewRect(x+bottomWidth+spec.Padding, bottomY, bottomWidth, bottomHeight))
	}
	return p
}

// Slots returns every computed rectangle keyed by slot, for previews.
func (p Placement) Slots() map[Slot]models.Rect {
	out := map[Slot]models.Rect{SlotMain: p.Main}
	for i, r := range p.Secondaries {
		out[Slot(i+1)] = r
	}
	return out
}
