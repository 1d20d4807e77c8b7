package input

import (
	"fmt"
	"time"

	"dd2-manager/internal/loop"
	"dd2-manager/pkg/core"
)

// PeriodicSender repeats one broadcast on a fixed period. All methods must be
// called on the event loop goroutine.
type PeriodicSender struct {
	name        string
	key         string
	scope       Scope
	period      time.Duration
	broadcaster *Broadcaster
	sched       loop.Scheduler
	task        loop.Task
	running     bool
	log         core.Logger
	reporter    core.Reporter

	// idle is set while discovery finds nothing; the empty set is reported
	// once per stretch.
	idle bool
}

func NewPeriodicSender(name, key string, scope Scope, period time.Duration, b *Broadcaster, sched loop.Scheduler, log core.Logger, reporter core.Reporter) *PeriodicSender {
	return &PeriodicSender{
		name:        name,
		key:         key,
		scope:       scope,
		period:      period,
		broadcaster: b,
		sched:       sched,
		log:         log,
		reporter:    reporter,
	}
}

func (p *PeriodicSender) Name() string { return p.name }

func (p *PeriodicSender) Running() bool { return p.running }

// Start sends once now and then every period. A previous chain is cancelled.
func (p *PeriodicSender) Start() {
	p.cancel()
	p.running = true
	p.idle = false
	p.log.Info("Periodic sender started", "name", p.name, "key", p.key, "period", p.period, "scope", p.scope.String())
	p.reporter.Report(fmt.Sprintf("%s ON: %q every %s (%s).", p.name, p.key, p.period, p.scope))
	p.tick()
}

// Stop cancels the outstanding send before clearing state.
func (p *PeriodicSender) Stop() {
	if !p.running {
		return
	}
	p.cancel()
	p.running = false
	p.log.Info("Periodic sender stopped", "name", p.name)
	p.reporter.Report(fmt.Sprintf("%s OFF.", p.name))
}

// Toggle flips the sender and returns the new state.
func (p *PeriodicSender) Toggle() bool {
	if p.running {
		p.Stop()
	} else {
		p.Start()
	}
	return p.running
}

func (p *PeriodicSender) cancel() {
	if p.task != nil {
		p.task.Cancel()
		p.task = nil
	}
}

func (p *PeriodicSender) tick() {
	if !p.running {
		return
	}
	_, found, err := p.broadcaster.broadcast(p.key, p.scope)
	if err != nil {
		p.log.Error("Periodic send failed", err, "name", p.name)
		// an unknown key will never succeed
		p.cancel()
		p.running = false
		return
	}
	switch {
	case !found && !p.idle:
		p.idle = true
		p.reporter.Report(fmt.Sprintf("%s: no windows found, waiting for game windows.", p.name))
	case found && p.idle:
		p.idle = false
		p.log.Info("Periodic sender resumed", "name", p.name)
	}
	p.task = p.sched.AfterFunc(p.period, p.tick)
}
