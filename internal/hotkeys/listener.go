// Package hotkeys binds global key combinations to callbacks that run on the
// event loop.
package hotkeys

import (
	"errors"
	"fmt"
	"sync"

	"dd2-manager/internal/loop"
	"dd2-manager/pkg/core"
)

// ErrUnsupported is returned by the registrar on platforms without global
// hotkeys.
var ErrUnsupported = errors.New("global hotkeys are only supported on Windows")

// Registration is one live OS hotkey.
type Registration interface {
	Unregister() error
}

// Registrar talks to the OS. fire is called from an arbitrary goroutine.
type Registrar interface {
	Register(c Combo, fire func()) (Registration, error)
}

type binding struct {
	combo  Combo
	action func()
}

type group struct {
	name     string
	bindings []binding
	regs     []Registration
	enabled  bool
}

// Listener groups bindings so related hotkeys are switched together, e.g.
// the rotation keys or the macro's cancel key.
type Listener struct {
	registrar Registrar
	poster    loop.Poster
	log       core.Logger
	mu        sync.Mutex
	groups    map[string]*group
	order     []string
}

func NewListener(registrar Registrar, poster loop.Poster, log core.Logger) *Listener {
	return &Listener{
		registrar: registrar,
		poster:    poster,
		log:       log,
		groups:    map[string]*group{},
	}
}

// Bind adds combo to a group. The action runs on the event loop. Binding to
// an enabled group takes effect on its next Enable.
func (l *Listener) Bind(groupName, combo string, action func()) error {
	c, err := ParseCombo(combo)
	if err != nil {
		return err
	}
	if c.Bare() {
		l.log.Warn("Hotkey has no modifier, the key will not reach the game while bound", "group", groupName, "combo", c.Name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.groups[groupName]
	if !ok {
		g = &group{name: groupName}
		l.groups[groupName] = g
		l.order = append(l.order, groupName)
	}
	g.bindings = append(g.bindings, binding{combo: c, action: action})
	return nil
}

// Enable registers every binding in the group. Calling it on an enabled
// group does nothing. If any registration fails the group is rolled back.
func (l *Listener) Enable(groupName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	g, ok := l.groups[groupName]
	if !ok {
		return fmt.Errorf("unknown hotkey group %q", groupName)
	}
	if g.enabled {
		return nil
	}

	for _, b := range g.bindings {
		action := b.action
		reg, err := l.registrar.Register(b.combo, func() {
			l.poster.Post(action)
		})
		if err != nil {
			l.unregister(g)
			return fmt.Errorf("failed to register hotkey %s: %w", b.combo, err)
		}
		g.regs = append(g.regs, reg)
	}
	g.enabled = true
	l.log.Debug("Hotkey group enabled", "group", groupName, "keys", len(g.bindings))
	return nil
}

// Disable unregisters the group's hotkeys. Safe to call repeatedly.
func (l *Listener) Disable(groupName string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g, ok := l.groups[groupName]
	if !ok || !g.enabled {
		return
	}
	l.unregister(g)
	g.enabled = false
	l.log.Debug("Hotkey group disabled", "group", groupName)
}

func (l *Listener) unregister(g *group) {
	for _, r := range g.regs {
		if err := r.Unregister(); err != nil {
			l.log.Warn("Failed to unregister hotkey", "group", g.name, "error", err)
		}
	}
	g.regs = nil
}

// Enabled reports whether a group's hotkeys are registered.
func (l *Listener) Enabled(groupName string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.groups[groupName]
	return ok && g.enabled
}

// DisableAll releases every registered hotkey.
func (l *Listener) DisableAll() {
	l.mu.Lock()
	names := append([]string(nil), l.order...)
	l.mu.Unlock()
	for _, name := range names {
		l.Disable(name)
	}
}

// Bindings lists group -> combos for display.
func (l *Listener) Bindings() map[string][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string][]string, len(l.groups))
	for name, g := range l.groups {
		for _, b := range g.bindings {
			out[name] = append(out[name], b.combo.String())
		}
	}
	return out
}

// forward calls fire for every key-down until stop is closed or keydown is
// closed, whichever comes first. Unregistering closes keydown, so a closed
// channel must not count as a press.
func forward[T any](keydown <-chan T, stop <-chan struct{}, fire func()) {
	for {
		select {
		case <-stop:
			return
		case _, ok := <-keydown:
			if !ok {
				return
			}
			fire()
		}
	}
}
