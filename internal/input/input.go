// Package input posts synthetic keystrokes to game windows and drives the
// pointer.
package input

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dd2-manager/internal/window"
	"dd2-manager/internal/wm"
	"dd2-manager/pkg/core"
)

// ErrUnknownKey is returned for key names missing from the key table.
var ErrUnknownKey = errors.New("unknown key")

// Gap between key-down and key-up on one window.
const keyEventGap = 20 * time.Millisecond

type Scope int

const (
	ScopeAll Scope = iota
	ScopeInactiveOnly
)

func (s Scope) String() string {
	if s == ScopeInactiveOnly {
		return "inactive"
	}
	return "all"
}

func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return ScopeAll, nil
	case "inactive", "inactive_only", "inactiveonly":
		return ScopeInactiveOnly, nil
	default:
		return ScopeAll, fmt.Errorf("unknown broadcast scope %q", s)
	}
}

// KeyPoster is the subset of OS window services used to deliver keys.
type KeyPoster interface {
	PostKey(h wm.Handle, code uint16, down bool) error
	ForegroundWindow() wm.Handle
}

type Discoverer interface {
	Discover() (window.Set, error)
}

type Broadcaster struct {
	poster   KeyPoster
	windows  Discoverer
	sleep    func(time.Duration)
	log      core.Logger
	reporter core.Reporter
}

func NewBroadcaster(poster KeyPoster, windows Discoverer, log core.Logger, reporter core.Reporter) *Broadcaster {
	return &Broadcaster{
		poster:   poster,
		windows:  windows,
		sleep:    time.Sleep,
		log:      log,
		reporter: reporter,
	}
}

// SetSleep replaces time.Sleep, mostly for tests.
func (b *Broadcaster) SetSleep(fn func(time.Duration)) {
	b.sleep = fn
}

// Broadcast re-discovers the windows and taps key on each one in scope.
// It returns how many windows were sent to.
func (b *Broadcaster) Broadcast(key string, scope Scope) (int, error) {
	n, found, err := b.broadcast(key, scope)
	if err == nil && !found {
		b.reporter.Report(fmt.Sprintf("No windows found, nothing sent for %q.", key))
	}
	return n, err
}

// broadcast is Broadcast without the empty-set report. found is false when
// discovery returned no windows at all.
func (b *Broadcaster) broadcast(key string, scope Scope) (sent int, found bool, err error) {
	set, err := b.windows.Discover()
	if err != nil {
		return 0, false, err
	}
	if len(set) == 0 {
		return 0, false, nil
	}

	code, err := LookupKey(key)
	if err != nil {
		b.reporter.Report(fmt.Sprintf("Broadcast aborted: %v", err))
		return 0, true, err
	}

	targets := set
	if scope == ScopeInactiveOnly {
		targets = set.Without(b.poster.ForegroundWindow())
	}

	for _, h := range targets {
		b.tap(h, code)
	}

	b.log.Debug("Key broadcast", "key", key, "scope", scope.String(), "windows", len(targets))
	return len(targets), true, nil
}

// Send taps key on a single window.
func (b *Broadcaster) Send(h wm.Handle, key string) error {
	code, err := LookupKey(key)
	if err != nil {
		return err
	}
	b.tap(h, code)
	return nil
}

// tap errors are only logged; a vanished window is a lost message.
func (b *Broadcaster) tap(h wm.Handle, code uint16) {
	if err := b.poster.PostKey(h, code, true); err != nil {
		b.log.Debug("Key down not delivered", "hwnd", h, "error", err)
	}
	b.sleep(keyEventGap)
	if err := b.poster.PostKey(h, code, false); err != nil {
		b.log.Debug("Key up not delivered", "hwnd", h, "error", err)
	}
}
