package wm

import (
	"errors"

	"dd2-manager/internal/models"
)

// ErrUnsupported is returned when no window manager backend exists for the
// running platform.
var ErrUnsupported = errors.New("window management is only supported on Windows")

// Handle is an opaque top-level window identifier. It is only meaningful
// until the window is destroyed and must be re-derived from a fresh
// enumeration before it is trusted.
type Handle uintptr

// WindowManager is the set of OS window services the core needs.
type WindowManager interface {
	// Name returns the WM name for logging/display
	Name() string
	// FindWindows returns visible, enabled top-level windows owned by a
	// process whose executable name equals processName, in enumeration order.
	FindWindows(processName string) ([]Handle, error)
	// WorkArea returns the primary display bounds minus taskbar reservations.
	WorkArea() (models.Rect, error)
	// Restore un-minimizes / un-maximizes a window.
	Restore(h Handle) error
	// Place moves and resizes a window. With raise set it goes to the top of
	// the Z-order, otherwise it is positioned without activation.
	Place(h Handle, r models.Rect, raise bool) error
	// ForegroundWindow returns the currently active window, or 0.
	ForegroundWindow() Handle
	// WindowThread returns the id of the thread owning the window.
	WindowThread(h Handle) uint32
	// AttachInput links or unlinks the input processing of two threads.
	AttachInput(from, to uint32, attach bool) error
	// BringToTop raises a window without activating it.
	BringToTop(h Handle) error
	// SetForeground asks the OS to activate a window.
	SetForeground(h Handle) bool
	// PostKey posts a key-down or key-up message for a virtual key code.
	PostKey(h Handle, code uint16, down bool) error
	// WindowAt returns the top-level window under a screen point.
	WindowAt(p models.Point) Handle
	// LeftButtonDown reports whether the primary mouse button is held.
	LeftButtonDown() bool
}
