// Package rotation decides which tracked window is the main one.
package rotation

import (
	"errors"
	"fmt"
	"strings"

	"dd2-manager/internal/window"
	"dd2-manager/internal/wm"
	"dd2-manager/pkg/core"
)

// ErrNotTracked is returned by Select for a window outside the current set.
var ErrNotTracked = errors.New("window is not a tracked game window")

type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ParseDirection accepts forward/backward and the up/down aliases used by
// the default hotkeys.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "next", "up", "":
		return Forward, nil
	case "backward", "back", "prev", "down":
		return Backward, nil
	default:
		return Forward, fmt.Errorf("unknown direction %q", s)
	}
}

// Selector identifies the main window. Index is only meaningful against the
// set it was computed from; LastHandle survives rebuilds of the set.
type Selector struct {
	Index      int
	LastHandle wm.Handle
}

// Discoverer produces a fresh window set.
type Discoverer interface {
	Discover() (window.Set, error)
	Current() window.Set
}

// LayoutApplier arranges a set around its main window.
type LayoutApplier interface {
	ApplyLayout(set window.Set, main int) error
}

// Rotator is owned by the event loop.
type Rotator struct {
	windows  Discoverer
	layout   LayoutApplier
	sel      Selector
	log      core.Logger
	reporter core.Reporter
}

func NewRotator(windows Discoverer, layout LayoutApplier, log core.Logger, reporter core.Reporter) *Rotator {
	return &Rotator{windows: windows, layout: layout, log: log, reporter: reporter}
}

// Selector returns a copy of the current selection.
func (r *Rotator) Selector() Selector {
	return r.sel
}

// resolve finds the main index in set, preferring the last main handle.
func (r *Rotator) resolve(set window.Set) int {
	if i := set.IndexOf(r.sel.LastHandle); i >= 0 {
		return i
	}
	i := r.sel.Index
	if i >= len(set) {
		i = len(set) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Rotate moves the main slot one step through the set, wrapping both ways.
func (r *Rotator) Rotate(dir Direction) error {
	set, err := r.windows.Discover()
	if err != nil {
		return err
	}
	if len(set) == 0 {
		r.reporter.Report("No windows found, nothing to rotate.")
		return window.ErrNoWindows
	}

	start := r.resolve(set)
	n := len(set)
	next := (start + 1) % n
	if dir == Backward {
		next = (start - 1 + n) % n
	}

	r.sel = Selector{Index: next, LastHandle: set[next]}
	r.log.Info("Rotating main window", "direction", dir.String(), "index", next, "windows", n)
	r.reporter.Report(fmt.Sprintf("Rotating main window. New main index: %d", next))
	return r.layout.ApplyLayout(set, next)
}

// Select makes h the main window and re-applies the layout.
func (r *Rotator) Select(h wm.Handle) error {
	set, err := r.windows.Discover()
	if err != nil {
		return err
	}
	i := set.IndexOf(h)
	if i < 0 {
		return ErrNotTracked
	}

	r.sel = Selector{Index: i, LastHandle: h}
	r.log.Info("Main window selected", "hwnd", h, "index", i)
	r.reporter.Report(fmt.Sprintf("Window %#x selected as new main.", uintptr(h)))
	return r.layout.ApplyLayout(set, i)
}

// Refresh re-discovers and re-applies the layout around the current main
// window. An empty result clears the selection.
func (r *Rotator) Refresh() (int, error) {
	set, err := r.windows.Discover()
	if err != nil {
		return 0, err
	}
	r.reporter.Report(fmt.Sprintf("Refreshed: found %d windows.", len(set)))
	if len(set) == 0 {
		r.sel = Selector{}
		return 0, nil
	}
	return len(set), r.apply(set)
}

// Apply re-applies the layout to the last discovered set without
// re-enumerating.
func (r *Rotator) Apply() error {
	set := r.windows.Current()
	if len(set) == 0 {
		r.reporter.Report("Cannot apply layout, no windows found.")
		return window.ErrNoWindows
	}
	return r.apply(set)
}

func (r *Rotator) apply(set window.Set) error {
	i := r.resolve(set)
	r.sel = Selector{Index: i, LastHandle: set[i]}
	return r.layout.ApplyLayout(set, i)
}

// Main returns the current main window from the last discovered set.
func (r *Rotator) Main() (wm.Handle, bool) {
	set := r.windows.Current()
	if len(set) == 0 {
		return 0, false
	}
	return set[r.resolve(set)], true
}
