package window

import (
	"fmt"
	"sync"
	"time"

	"dd2-manager/internal/loop"
	"dd2-manager/pkg/core"
)

// Watcher re-discovers windows on an interval and reports when the count
// changes, e.g. when a game instance is launched or closed.
type Watcher struct {
	registry  *Registry
	poster    loop.Poster
	interval  time.Duration
	log       core.Logger
	reporter  core.Reporter
	onChange  func(before, after int)
	lastCount int
	mu        sync.Mutex
	stopChan  chan struct{}
	running   bool
}

func NewWatcher(registry *Registry, poster loop.Poster, interval time.Duration, log core.Logger, reporter core.Reporter) *Watcher {
	return &Watcher{
		registry:  registry,
		poster:    poster,
		interval:  interval,
		log:       log,
		reporter:  reporter,
		lastCount: -1,
	}
}

// OnChange registers a callback run on the loop after a count change.
func (w *Watcher) OnChange(fn func(before, after int)) {
	w.onChange = fn
}

// Check runs one discovery. It must be called on the loop goroutine.
func (w *Watcher) Check() {
	set, err := w.registry.Discover()
	if err != nil {
		w.log.Error("Window detection error", err)
		return
	}

	count := len(set)
	if count == w.lastCount {
		return
	}
	before := w.lastCount
	w.lastCount = count

	switch {
	case before < 0:
		w.log.Info("Initial window scan", "process", w.registry.Process(), "count", count)
		return
	case count > before:
		w.log.Info("Game windows found", "before", before, "after", count)
		w.reporter.Report(fmt.Sprintf("%d %s window(s) detected (was %d).", count, w.registry.Process(), before))
	default:
		w.log.Info("Game windows lost", "before", before, "after", count)
		w.reporter.Report(fmt.Sprintf("%d %s window(s) remaining (was %d).", count, w.registry.Process(), before))
	}

	if w.onChange != nil {
		w.onChange(before, count)
	}
}

// Start begins periodic checks. Calling it while running does nothing.
func (w *Watcher) Start() error {
	if w.interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", w.interval)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		w.log.Debug("Window watcher already running")
		return nil
	}
	w.stopChan = make(chan struct{})
	w.running = true
	stop := w.stopChan

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				w.log.Info("Window watcher stopped")
				return
			case <-ticker.C:
				if !w.poster.Post(w.Check) {
					return
				}
			}
		}
	}()

	w.log.Info("Window watcher started", "interval", w.interval)
	return nil
}

// Stop ends periodic checks. It is safe to call repeatedly.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	close(w.stopChan)
	w.running = false
}
