// Package wmtest provides an in-memory window manager for tests.
package wmtest

import (
	"fmt"
	"sync"

	"dd2-manager/internal/models"
	"dd2-manager/internal/wm"
)

// Call records one mutating request.
type Call struct {
	Op     string
	Handle wm.Handle
	Rect   models.Rect
	Raise  bool
	Code   uint16
	Down   bool
}

func (c Call) String() string {
	switch c.Op {
	case "place":
		return fmt.Sprintf("place %d %s raise=%t", c.Handle, c.Rect, c.Raise)
	case "key":
		return fmt.Sprintf("key %d %#x down=%t", c.Handle, c.Code, c.Down)
	default:
		return fmt.Sprintf("%s %d", c.Op, c.Handle)
	}
}

// Fake implements wm.WindowManager. By default SetForeground succeeds.
type Fake struct {
	mu sync.Mutex

	Windows    []wm.Handle
	FindErr    error
	Area       models.Rect
	Foreground wm.Handle
	Threads    map[wm.Handle]uint32
	// RefuseFocus makes SetForeground a no-op for the listed handles.
	RefuseFocus map[wm.Handle]bool
	Points      map[models.Point]wm.Handle
	ButtonDown  bool

	Calls    []Call
	Attaches [][3]any
}

var _ wm.WindowManager = (*Fake)(nil)

func New(handles ...wm.Handle) *Fake {
	return &Fake{
		Windows:     handles,
		Area:        models.Rect{Right: 1920, Bottom: 1080},
		Threads:     map[wm.Handle]uint32{},
		RefuseFocus: map[wm.Handle]bool{},
		Points:      map[models.Point]wm.Handle{},
	}
}

func (f *Fake) record(c Call) {
	f.Calls = append(f.Calls, c)
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) FindWindows(string) ([]wm.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	return append([]wm.Handle(nil), f.Windows...), nil
}

func (f *Fake) WorkArea() (models.Rect, error) { return f.Area, nil }

func (f *Fake) Restore(h wm.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "restore", Handle: h})
	return nil
}

func (f *Fake) Place(h wm.Handle, r models.Rect, raise bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "place", Handle: h, Rect: r, Raise: raise})
	return nil
}

func (f *Fake) ForegroundWindow() wm.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Foreground
}

func (f *Fake) WindowThread(h wm.Handle) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tid, ok := f.Threads[h]; ok {
		return tid
	}
	return uint32(h)
}

func (f *Fake) AttachInput(from, to uint32, attach bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Attaches = append(f.Attaches, [3]any{from, to, attach})
	return nil
}

func (f *Fake) BringToTop(h wm.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "top", Handle: h})
	return nil
}

func (f *Fake) SetForeground(h wm.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "foreground", Handle: h})
	if f.RefuseFocus[h] {
		return false
	}
	f.Foreground = h
	return true
}

func (f *Fake) PostKey(h wm.Handle, code uint16, down bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Op: "key", Handle: h, Code: code, Down: down})
	return nil
}

func (f *Fake) WindowAt(p models.Point) wm.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Points[p]
}

func (f *Fake) LeftButtonDown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ButtonDown
}

// Ops returns recorded calls filtered by operation name.
func (f *Fake) Ops(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
	f.Attaches = nil
}

func (f *Fake) SetButton(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ButtonDown = down
}
