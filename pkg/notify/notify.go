// Package notify fans operator status messages out to a set of sinks
// without ever blocking the caller.
package notify

import (
	"strings"
	"sync"
	"sync/atomic"

	"dd2-manager/pkg/logger"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	Info NotificationType = iota
	Warning
	Error
)

func (t NotificationType) String() string {
	switch t {
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Sink receives delivered notifications on the service goroutine.
type Sink interface {
	Notify(message string, nType NotificationType)
}

type SinkFunc func(message string, nType NotificationType)

func (f SinkFunc) Notify(message string, nType NotificationType) { f(message, nType) }

type entry struct {
	message string
	nType   NotificationType
}

const defaultQueueSize = 256

// NotifyService handles status notifications
type NotifyService struct {
	log     *logger.Logger
	queue   chan entry
	done    chan struct{}
	dropped atomic.Int64

	mu     sync.RWMutex
	sinks  []Sink
	closed bool
	once   sync.Once
}

// NewNotifyService creates a new notification service and starts delivery.
func NewNotifyService(log *logger.Logger, sinks ...Sink) *NotifyService {
	n := &NotifyService{
		log:   log,
		queue: make(chan entry, defaultQueueSize),
		done:  make(chan struct{}),
		sinks: sinks,
	}
	go n.run()
	return n
}

// AddSink registers another destination.
func (n *NotifyService) AddSink(s Sink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sinks = append(n.sinks, s)
}

// Report queues a status line, classifying warnings by their wording.
func (n *NotifyService) Report(message string) {
	n.Show(message, classify(message))
}

// Show queues a notification. When the queue is full the message is
// dropped and counted.
func (n *NotifyService) Show(message string, nType NotificationType) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.queue <- entry{message: message, nType: nType}:
	default:
		n.dropped.Add(1)
	}
}

// Dropped is the number of messages lost to a full queue.
func (n *NotifyService) Dropped() int64 {
	return n.dropped.Load()
}

// Close stops accepting messages and waits for queued ones to be delivered.
func (n *NotifyService) Close() {
	n.once.Do(func() {
		n.mu.Lock()
		n.closed = true
		close(n.queue)
		n.mu.Unlock()
	})
	<-n.done
}

func (n *NotifyService) run() {
	defer close(n.done)
	for e := range n.queue {
		n.deliver(e)
	}
}

func (n *NotifyService) deliver(e entry) {
	n.mu.RLock()
	sinks := append([]Sink(nil), n.sinks...)
	n.mu.RUnlock()

	for _, s := range sinks {
		func() {
			defer func() {
				if r := recover(); r != nil && n.log != nil {
					n.log.Warn("Notification sink panicked", "panic", r)
				}
			}()
			s.Notify(e.message, e.nType)
		}()
	}
}

func classify(message string) NotificationType {
	lower := strings.ToLower(message)
	switch {
	case strings.HasPrefix(lower, "warning"), strings.HasPrefix(lower, "cannot"):
		return Warning
	case strings.HasPrefix(lower, "error"), strings.Contains(lower, "failed"):
		return Error
	default:
		return Info
	}
}
