// Package pointer watches for global left clicks, used to pick the main
// window with the mouse.
package pointer

import (
	"sync"
	"time"

	"dd2-manager/internal/loop"
	"dd2-manager/internal/models"
	"dd2-manager/internal/wm"
	"dd2-manager/pkg/core"
)

const DefaultPollInterval = 15 * time.Millisecond

// Source reports button state and resolves the window under a point.
type Source interface {
	LeftButtonDown() bool
	WindowAt(p models.Point) wm.Handle
}

// ClickHandler runs on the event loop for every left button press.
type ClickHandler func(h wm.Handle, at models.Point)

// ClickListener polls the button state and reports presses.
type ClickListener struct {
	source   Source
	position func() models.Point
	poster   loop.Poster
	interval time.Duration
	handler  ClickHandler
	log      core.Logger

	mu      sync.Mutex
	stop    chan struct{}
	running bool
	wasDown bool
}

func NewClickListener(source Source, position func() models.Point, poster loop.Poster, handler ClickHandler, log core.Logger) *ClickListener {
	return &ClickListener{
		source:   source,
		position: position,
		poster:   poster,
		interval: DefaultPollInterval,
		handler:  handler,
		log:      log,
	}
}

// Enabled reports whether the listener is polling.
func (l *ClickListener) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Enable starts polling. A button already held at this point does not count
// as a click.
func (l *ClickListener) Enable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.stop = make(chan struct{})
	l.wasDown = l.source.LeftButtonDown()
	stop := l.stop

	go func() {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				l.step()
			}
		}
	}()
	l.log.Debug("Click listener enabled")
}

// Disable stops polling. Safe to call repeatedly.
func (l *ClickListener) Disable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	close(l.stop)
	l.running = false
	l.log.Debug("Click listener disabled")
}

// step samples once and posts a click on the press edge.
func (l *ClickListener) step() {
	down := l.source.LeftButtonDown()

	l.mu.Lock()
	pressed := down && !l.wasDown
	l.wasDown = down
	l.mu.Unlock()

	if !pressed {
		return
	}
	at := l.position()
	h := l.source.WindowAt(at)
	l.poster.Post(func() { l.handler(h, at) })
}
