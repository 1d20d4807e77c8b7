// Package activation arranges the tracked windows and moves focus to the
// main one.
package activation

import (
	"fmt"
	"time"

	"dd2-manager/internal/layout"
	"dd2-manager/internal/models"
	"dd2-manager/internal/window"
	"dd2-manager/internal/wm"
	"dd2-manager/pkg/core"
)

// Windows is the subset of OS window services used here.
type Windows interface {
	Restore(h wm.Handle) error
	Place(h wm.Handle, r models.Rect, raise bool) error
	ForegroundWindow() wm.Handle
	WindowThread(h wm.Handle) uint32
	AttachInput(from, to uint32, attach bool) error
	BringToTop(h wm.Handle) error
	SetForeground(h wm.Handle) bool
}

// Timing holds the settle delays between OS calls.
type Timing struct {
	Settle       time.Duration
	AttachSettle time.Duration
	RetryDelay   time.Duration
	Attempts     int
}

func DefaultTiming() Timing {
	return Timing{
		Settle:       50 * time.Millisecond,
		AttachSettle: 10 * time.Millisecond,
		RetryDelay:   50 * time.Millisecond,
		Attempts:     5,
	}
}

type Sequencer struct {
	windows  Windows
	workArea models.Rect
	spec     layout.Spec
	timing   Timing
	sleep    func(time.Duration)
	log      core.Logger
	reporter core.Reporter
}

type Option func(*Sequencer)

// WithSleep replaces time.Sleep, mostly for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(s *Sequencer) { s.sleep = fn }
}

func WithTiming(t Timing) Option {
	return func(s *Sequencer) { s.timing = t }
}

func NewSequencer(windows Windows, workArea models.Rect, spec layout.Spec, log core.Logger, reporter core.Reporter, opts ...Option) *Sequencer {
	s := &Sequencer{
		windows:  windows,
		workArea: workArea,
		spec:     spec,
		timing:   DefaultTiming(),
		sleep:    time.Sleep,
		log:      log,
		reporter: reporter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyLayout arranges set with set[main] in the main slot. The remaining
// windows fill the secondary slots in set order; extras are left alone.
func (s *Sequencer) ApplyLayout(set window.Set, main int) error {
	if len(set) == 0 {
		s.reporter.Report("Cannot apply layout, no windows found.")
		return window.ErrNoWindows
	}
	if main < 0 || main >= len(set) {
		return fmt.Errorf("main index %d out of range for %d windows", main, len(set))
	}

	mainHandle := set[main]
	secondaries := set.Without(mainHandle)
	placement := layout.Compute(s.workArea, s.spec, len(secondaries))

	for _, h := range set {
		if err := s.windows.Restore(h); err != nil {
			s.log.Warn("Failed to restore window", "hwnd", h, "error", err)
		}
	}
	s.sleep(s.timing.Settle)

	if err := s.windows.Place(mainHandle, placement.Main, true); err != nil {
		s.log.Warn("Failed to place main window", "hwnd", mainHandle, "error", err)
	}
	for i, r := range placement.Secondaries {
		if err := s.windows.Place(secondaries[i], r, false); err != nil {
			s.log.Warn("Failed to place secondary window", "hwnd", secondaries[i], "slot", layout.Slot(i+1).String(), "error", err)
		}
	}
	if extra := len(secondaries) - len(placement.Secondaries); extra > 0 {
		s.log.Debug("Windows beyond layout slots left in place", "count", extra)
	}

	s.Activate(mainHandle)
	s.log.Info("Layout applied", "main", mainHandle, "windows", len(set))
	s.reporter.Report("Layout applied.")
	return nil
}

// Activate makes h the foreground window. Failure is only a warning.
func (s *Sequencer) Activate(h wm.Handle) bool {
	fg := s.windows.ForegroundWindow()
	if fg == h {
		return true
	}

	fgThread := s.windows.WindowThread(fg)
	targetThread := s.windows.WindowThread(h)
	attached := false
	if fgThread != 0 && fgThread != targetThread {
		if err := s.windows.AttachInput(fgThread, targetThread, true); err != nil {
			s.log.Debug("Thread input attach failed", "error", err)
		} else {
			attached = true
			s.sleep(s.timing.AttachSettle)
		}
	}
	defer func() {
		if attached {
			if err := s.windows.AttachInput(fgThread, targetThread, false); err != nil {
				s.log.Warn("Thread input detach failed", "error", err)
			}
		}
	}()

	for attempt := 1; attempt <= s.timing.Attempts; attempt++ {
		if err := s.windows.BringToTop(h); err != nil {
			s.log.Debug("BringToTop failed", "hwnd", h, "error", err)
		}
		s.windows.SetForeground(h)
		s.sleep(s.timing.RetryDelay)
		if s.windows.ForegroundWindow() == h {
			s.log.Debug("Window activated", "hwnd", h, "attempts", attempt)
			return true
		}
	}

	s.log.Warn("Window might not be foreground", "hwnd", h, "attempts", s.timing.Attempts)
	s.reporter.Report(fmt.Sprintf("Warning: window %#x might not be foreground after %d attempts.", uintptr(h), s.timing.Attempts))
	return false
}
