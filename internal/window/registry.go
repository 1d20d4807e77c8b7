// Package window tracks the game's top-level windows.
package window

import (
	"errors"
	"fmt"

	"dd2-manager/internal/wm"
	"dd2-manager/pkg/core"
)

// ErrNoWindows reports that discovery found nothing to act on.
var ErrNoWindows = errors.New("no game windows found")

// Set is an ordered list of handles in the order of the last enumeration.
type Set []wm.Handle

func (s Set) IndexOf(h wm.Handle) int {
	for i, v := range s {
		if v == h {
			return i
		}
	}
	return -1
}

func (s Set) Contains(h wm.Handle) bool {
	return s.IndexOf(h) >= 0
}

// Without returns a copy of s with h removed.
func (s Set) Without(h wm.Handle) Set {
	out := make(Set, 0, len(s))
	for _, v := range s {
		if v != h {
			out = append(out, v)
		}
	}
	return out
}

// Finder enumerates windows for a process name.
type Finder interface {
	FindWindows(processName string) ([]wm.Handle, error)
}

// Registry holds the most recent discovery result. It is owned by the
// event loop and not safe for concurrent use.
type Registry struct {
	finder  Finder
	process string
	current Set
	log     core.Logger
}

func NewRegistry(finder Finder, process string, log core.Logger) *Registry {
	return &Registry{finder: finder, process: process, log: log}
}

// Process returns the executable name being tracked.
func (r *Registry) Process() string {
	return r.process
}

// Discover replaces the current set with a fresh enumeration. An empty
// result is not an error.
func (r *Registry) Discover() (Set, error) {
	handles, err := r.finder.FindWindows(r.process)
	if err != nil {
		return r.current, fmt.Errorf("failed to enumerate %s windows: %w", r.process, err)
	}

	set := make(Set, 0, len(handles))
	for _, h := range handles {
		if h == 0 || set.Contains(h) {
			continue
		}
		set = append(set, h)
	}
	r.current = set

	r.log.Debug("Windows discovered", "process", r.process, "count", len(set))
	return set, nil
}

// Current returns the set from the last Discover.
func (r *Registry) Current() Set {
	return r.current
}

// Reset forgets the current set.
func (r *Registry) Reset() {
	r.current = nil
}
