// Package shopping runs the auto-shopping macro: click each shopping box,
// confirm the purchase, wait out the cooldown, then use a utility box and
// start over.
package shopping

import (
	"errors"
	"fmt"
	"time"

	"dd2-manager/internal/boxes"
	"dd2-manager/internal/input"
	"dd2-manager/internal/loop"
	"dd2-manager/internal/models"
	"dd2-manager/internal/overlay"
	"dd2-manager/internal/wm"
	"dd2-manager/pkg/core"
)

var (
	ErrNoOverlay     = errors.New("no overlay is open")
	ErrBoxOutOfRange = errors.New("utility box out of range")
	ErrNoMainWindow  = errors.New("no main game window")
)

// Stop reasons recorded in run history.
const (
	ReasonManual     = "manual"
	ReasonCancelled  = "cancelled"
	ReasonCycleLimit = "cycle limit"
	ReasonShutdown   = "shutdown"
)

type Config struct {
	ConfirmKey      string
	MoveDelay       time.Duration
	ConfirmInterval time.Duration
	ConfirmPresses  int
	Cooldown        time.Duration
	RestartDelay    time.Duration
	SettleDelay     time.Duration
	CycleLimit      int
	// UtilityBoxes are 1-based and used in turn, one per cycle.
	UtilityBoxes []int
}

func DefaultConfig() Config {
	return Config{
		ConfirmKey:      "e",
		MoveDelay:       100 * time.Millisecond,
		ConfirmInterval: time.Second,
		ConfirmPresses:  3,
		Cooldown:        15 * time.Second,
		RestartDelay:    time.Second,
		SettleDelay:     50 * time.Millisecond,
		CycleLimit:      3,
		UtilityBoxes:    []int{2, 3},
	}
}

func (c Config) Validate() error {
	if c.ConfirmPresses < 1 {
		return fmt.Errorf("confirm presses must be at least 1, got %d", c.ConfirmPresses)
	}
	if c.CycleLimit < 1 {
		return fmt.Errorf("cycle limit must be at least 1, got %d", c.CycleLimit)
	}
	if len(c.UtilityBoxes) == 0 {
		return fmt.Errorf("at least one utility box is required")
	}
	for _, n := range c.UtilityBoxes {
		if n < 1 || n > boxes.UtilityCount {
			return fmt.Errorf("utility box %d out of range 1..%d", n, boxes.UtilityCount)
		}
	}
	if _, err := input.LookupKey(c.ConfirmKey); err != nil {
		return fmt.Errorf("confirm key: %w", err)
	}
	return nil
}

// MainWindow resolves the current main game window.
type MainWindow interface {
	Main() (wm.Handle, bool)
}

type Activator interface {
	Activate(h wm.Handle) bool
}

type KeySender interface {
	Send(h wm.Handle, key string) error
}

type BoxStore interface {
	Load() boxes.Set
	Save(set boxes.Set) error
}

// Switch turns the cancel hotkey on and off.
type Switch interface {
	Enable() error
	Disable()
}

// Deps are the macro's collaborators.
type Deps struct {
	Scheduler loop.Scheduler
	Overlays  overlay.Factory
	Store     BoxStore
	Pointer   input.Pointer
	Main      MainWindow
	Activator Activator
	Keys      KeySender
	Cancel    Switch
	Log       core.Logger
	Reporter  core.Reporter
	Sleep     func(time.Duration)
}

// Macro is owned by the event loop; none of its methods are safe to call
// from other goroutines.
type Macro struct {
	deps Deps
	opt  Config

	phase      Phase
	step       Step
	cycle      int
	alternator int
	generation uint64
	task       loop.Task

	ov       overlay.Overlay
	boxes    boxes.Set
	mainWin  wm.Handle
	saved    models.Point
	hasSaved bool

	onStart  func()
	onFinish func(cycles int, reason string)
}

func NewMacro(opt Config, deps Deps) *Macro {
	if deps.Sleep == nil {
		deps.Sleep = time.Sleep
	}
	return &Macro{deps: deps, opt: opt}
}

// OnStart is called on entering AUTO_RUN.
func (m *Macro) OnStart(fn func()) { m.onStart = fn }

// OnFinish is called when AUTO_RUN ends, with completed cycles and reason.
func (m *Macro) OnFinish(fn func(cycles int, reason string)) { m.onFinish = fn }

func (m *Macro) State() State {
	return State{Phase: m.phase, Step: m.step, Cycle: m.cycle, Alternator: m.alternator}
}

// Cycle advances OFF -> SETUP -> AUTO_RUN -> OFF.
func (m *Macro) Cycle() error {
	switch m.phase {
	case PhaseOff:
		return m.enterSetup()
	case PhaseSetup:
		return m.enterAutoRun()
	default:
		m.Stop(ReasonManual)
		return nil
	}
}

func markers(set boxes.Set) []overlay.Marker {
	out := make([]overlay.Marker, 0, boxes.ShoppingCount+boxes.UtilityCount)
	for i, p := range set.Shopping {
		out = append(out, overlay.Marker{Label: fmt.Sprint(i + 1), Kind: overlay.KindShopping, Pos: p})
	}
	for i, p := range set.Utility {
		out = append(out, overlay.Marker{Label: fmt.Sprintf("U%d", i+1), Kind: overlay.KindUtility, Pos: p})
	}
	return out
}

func (m *Macro) enterSetup() error {
	set := m.deps.Store.Load()
	ov, err := m.deps.Overlays.Create(markers(set))
	if err != nil {
		m.deps.Reporter.Report(fmt.Sprintf("Could not open shopping overlay: %v", err))
		return fmt.Errorf("failed to create overlay: %w", err)
	}
	m.ov = ov
	m.boxes = set
	m.phase = PhaseSetup
	m.deps.Log.Info("Shopping setup started")
	m.deps.Reporter.Report("Shopping SETUP: drag the markers onto the shop, then cycle again to start.")
	return nil
}

func (m *Macro) enterAutoRun() error {
	main, ok := m.deps.Main.Main()
	if !ok {
		m.deps.Reporter.Report("No game window to shop in; staying in SETUP.")
		return ErrNoMainWindow
	}

	set, err := boxes.FromPositions(m.ov.Positions())
	if err != nil {
		m.deps.Log.Warn("Overlay positions unusable, keeping loaded boxes", "error", err)
		set = m.boxes
	}
	m.boxes = set
	if err := m.deps.Store.Save(set); err != nil {
		m.deps.Log.Error("Failed to save box positions", err)
		m.deps.Reporter.Report(fmt.Sprintf("Could not save box positions: %v", err))
	}

	if err := m.ov.SetClickThrough(true); err != nil {
		m.deps.Log.Warn("Click-through not applied", "error", err)
	}
	m.ov.HideUtilityMarkers()

	m.mainWin = main
	m.deps.Activator.Activate(main)
	m.saved = m.deps.Pointer.Position()
	m.hasSaved = true

	if err := m.deps.Cancel.Enable(); err != nil {
		m.deps.Log.Warn("Cancel hotkey unavailable", "error", err)
	}

	m.generation++
	m.phase = PhaseAutoRun
	m.cycle = 0
	m.alternator = 0
	m.deps.Log.Info("Auto-shopping started", "main", main, "cycle_limit", m.opt.CycleLimit)
	m.deps.Reporter.Report("Auto-shopping ON.")
	if m.onStart != nil {
		m.onStart()
	}

	m.run(Step{Kind: StepMoveToBox})
	return nil
}

// Cancel stops AUTO_RUN from the cancel hotkey.
func (m *Macro) Cancel() {
	if m.phase != PhaseAutoRun {
		return
	}
	m.Stop(ReasonCancelled)
}

// Stop tears everything down and returns to OFF.
func (m *Macro) Stop(reason string) {
	if m.phase == PhaseOff {
		return
	}
	wasRunning := m.phase == PhaseAutoRun
	cycles := m.cycle

	if m.task != nil {
		m.task.Cancel()
		m.task = nil
	}
	m.generation++

	if m.ov != nil {
		m.ov.Destroy()
		m.ov = nil
	}
	if m.hasSaved {
		m.deps.Pointer.SetPosition(m.saved)
		m.hasSaved = false
	}
	if wasRunning {
		m.deps.Cancel.Disable()
	}

	m.phase = PhaseOff
	m.step = Step{}
	m.cycle = 0
	m.alternator = 0
	m.mainWin = 0

	m.deps.Log.Info("Shopping stopped", "reason", reason, "cycles", cycles)
	m.deps.Reporter.Report(fmt.Sprintf("Auto-shopping OFF (%s).", reason))
	if wasRunning && m.onFinish != nil {
		m.onFinish(cycles, reason)
	}
}

// Shutdown persists marker positions of an open setup overlay and stops.
func (m *Macro) Shutdown() {
	if m.phase == PhaseSetup && m.ov != nil {
		if set, err := boxes.FromPositions(m.ov.Positions()); err == nil {
			if err := m.deps.Store.Save(set); err != nil {
				m.deps.Log.Error("Failed to save box positions on exit", err)
			}
		}
	}
	m.Stop(ReasonShutdown)
}

func (m *Macro) schedule(d time.Duration, next Step) {
	gen := m.generation
	m.task = m.deps.Scheduler.AfterFunc(d, func() {
		if m.phase != PhaseAutoRun || m.generation != gen {
			return
		}
		m.run(next)
	})
}

func (m *Macro) run(s Step) {
	m.step = s
	switch s.Kind {
	case StepMoveToBox:
		if s.Box < boxes.ShoppingCount {
			m.deps.Pointer.MoveTo(m.boxes.Shopping[s.Box])
			m.schedule(m.opt.MoveDelay, Step{Kind: StepConfirm, Box: s.Box, Press: 1})
			return
		}
		m.schedule(m.opt.MoveDelay, Step{Kind: StepUtility})

	case StepConfirm:
		if err := m.deps.Keys.Send(m.mainWin, m.opt.ConfirmKey); err != nil {
			m.deps.Log.Error("Confirm key not sent", err)
		}
		if s.Press < m.opt.ConfirmPresses {
			m.schedule(m.opt.ConfirmInterval, Step{Kind: StepConfirm, Box: s.Box, Press: s.Press + 1})
			return
		}
		m.schedule(m.opt.Cooldown, Step{Kind: StepMoveToBox, Box: s.Box + 1})

	case StepUtility:
		n := m.opt.UtilityBoxes[m.alternator%len(m.opt.UtilityBoxes)]
		if err := m.InteractWithUtilityBox(n); err != nil {
			m.deps.Log.Error("Utility box interaction failed", err, "box", n)
		}
		m.alternator = (m.alternator + 1) % len(m.opt.UtilityBoxes)
		m.cycle++
		m.deps.Log.Info("Shopping cycle complete", "cycle", m.cycle, "utility_box", n)
		if m.cycle >= m.opt.CycleLimit {
			m.Stop(ReasonCycleLimit)
			return
		}
		m.schedule(m.opt.RestartDelay, Step{Kind: StepMoveToBox})
	}
}

// InteractWithUtilityBox clicks utility box n (1-based) with the overlay
// hidden so it cannot swallow the click.
func (m *Macro) InteractWithUtilityBox(n int) error {
	if m.ov == nil {
		m.deps.Reporter.Report("Utility box interaction skipped: no overlay open.")
		return ErrNoOverlay
	}
	positions := m.ov.Positions()
	idx := boxes.ShoppingCount + n - 1
	if n < 1 || n > boxes.UtilityCount || idx >= len(positions) {
		m.deps.Reporter.Report(fmt.Sprintf("Utility box %d does not exist.", n))
		return fmt.Errorf("%w: %d", ErrBoxOutOfRange, n)
	}
	target := positions[idx]
	settle := m.deps.Sleep

	m.ov.Hide()
	settle(m.opt.SettleDelay)

	if h, ok := m.deps.Main.Main(); ok {
		m.deps.Activator.Activate(h)
		settle(m.opt.SettleDelay)
	}

	back := m.deps.Pointer.Position()
	m.deps.Pointer.MoveTo(target)
	settle(m.opt.SettleDelay)
	m.deps.Pointer.Click("left")
	settle(m.opt.SettleDelay)

	m.ov.Show()
	m.deps.Pointer.SetPosition(back)
	m.deps.Log.Debug("Utility box clicked", "box", n, "at", target.String())
	return nil
}
