package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"dd2-manager/internal/activation"
	"dd2-manager/internal/boxes"
	"dd2-manager/internal/hotkeys"
	"dd2-manager/internal/input"
	"dd2-manager/internal/ipc"
	"dd2-manager/internal/loop"
	"dd2-manager/internal/models"
	"dd2-manager/internal/overlay"
	"dd2-manager/internal/pointer"
	"dd2-manager/internal/rotation"
	"dd2-manager/internal/shopping"
	"dd2-manager/internal/window"
	"dd2-manager/internal/wm"
	"dd2-manager/pkg/config"
	"dd2-manager/pkg/core"
)

// Hotkey groups. Rotation can be switched off from the panel; cancel is
// only live while auto-shopping runs.
const (
	GroupGlobal   = "global"
	GroupRotation = "rotation"
	GroupCancel   = "cancel"
)

// teardownDeadline bounds the emergency stop before the process is killed.
const teardownDeadline = 2 * time.Second

// History records auto-shopping runs.
type History interface {
	BeginRun(start time.Time) (string, error)
	FinishRun(id string, end time.Time, cycles int, reason string) error
}

// Chimes are the audible start/finish cues.
type Chimes interface {
	PlayStart() error
	PlayFinish() error
}

// Services are the OS-facing collaborators. Poster and Scheduler default to
// the controller's own event loop.
type Services struct {
	WM        wm.WindowManager
	Registrar hotkeys.Registrar
	Overlays  overlay.Factory
	Pointer   input.Pointer
	Boxes     *boxes.Store
	History   History
	Chimes    Chimes
	Poster    loop.Poster
	Scheduler loop.Scheduler
	Sleep     func(time.Duration)
	Now       func() time.Time
	Exit      func(code int)
}

// Controller owns every piece of core state. Apart from Post, Handle and
// EmergencyStop its methods must run on the event loop.
type Controller struct {
	cfg      *config.Config
	log      core.Logger
	reporter core.Reporter
	svc      Services
	loop     *loop.Loop

	registry    *window.Registry
	watcher     *window.Watcher
	sequencer   *activation.Sequencer
	rotator     *rotation.Rotator
	broadcaster *input.Broadcaster
	senders     map[string]*input.PeriodicSender
	macro       *shopping.Macro
	hotkeys     *hotkeys.Listener
	clicks      *pointer.ClickListener

	runID    string
	stopOnce sync.Once
	changed  func()
}

func NewController(cfg *config.Config, log core.Logger, reporter core.Reporter, svc Services) (*Controller, error) {
	c := &Controller{
		cfg:      cfg,
		log:      log,
		reporter: reporter,
		loop:     loop.New(log, 256),
		senders:  map[string]*input.PeriodicSender{},
	}
	if svc.Poster == nil {
		svc.Poster = c.loop
	}
	if svc.Scheduler == nil {
		svc.Scheduler = c.loop
	}
	if svc.Sleep == nil {
		svc.Sleep = time.Sleep
	}
	if svc.Now == nil {
		svc.Now = time.Now
	}
	c.svc = svc

	spec := layoutSpec(cfg)
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	workArea, err := svc.WM.WorkArea()
	if err != nil {
		return nil, fmt.Errorf("failed to read work area: %w", err)
	}
	log.Info("Work area", "rect", workArea.String())

	c.registry = window.NewRegistry(svc.WM, cfg.GetTargetProcess(), log)
	c.watcher = window.NewWatcher(c.registry, svc.Poster, cfg.GetWatchInterval(), log, reporter)
	c.watcher.OnChange(c.windowsChanged)
	c.sequencer = activation.NewSequencer(svc.WM, workArea, spec, log, reporter, activation.WithSleep(svc.Sleep))
	c.rotator = rotation.NewRotator(c.registry, c.sequencer, log, reporter)
	c.broadcaster = input.NewBroadcaster(svc.WM, c.registry, log, reporter)
	c.broadcaster.SetSleep(svc.Sleep)

	senders, err := senderConfigs(cfg)
	if err != nil {
		return nil, err
	}
	for _, s := range senders {
		c.senders[s.name] = input.NewPeriodicSender(s.name, s.key, s.scope, s.period, c.broadcaster, svc.Scheduler, log, reporter)
	}

	c.hotkeys = hotkeys.NewListener(svc.Registrar, svc.Poster, log)
	c.clicks = pointer.NewClickListener(svc.WM, svc.Pointer.Position, svc.Poster, c.handleClick, log)

	opt, err := shoppingConfig(cfg)
	if err != nil {
		return nil, err
	}
	c.macro = shopping.NewMacro(opt, shopping.Deps{
		Scheduler: svc.Scheduler,
		Overlays:  svc.Overlays,
		Store:     svc.Boxes,
		Pointer:   svc.Pointer,
		Main:      c.rotator,
		Activator: c.sequencer,
		Keys:      c.broadcaster,
		Cancel:    groupSwitch{listener: c.hotkeys, group: GroupCancel},
		Log:       log,
		Reporter:  reporter,
		Sleep:     svc.Sleep,
	})
	c.macro.OnStart(c.runStarted)
	c.macro.OnFinish(c.runFinished)

	if err := c.bindHotkeys(); err != nil {
		return nil, err
	}
	return c, nil
}

// groupSwitch lets the macro toggle one hotkey group.
type groupSwitch struct {
	listener *hotkeys.Listener
	group    string
}

func (s groupSwitch) Enable() error { return s.listener.Enable(s.group) }
func (s groupSwitch) Disable()      { s.listener.Disable(s.group) }

func (c *Controller) bindHotkeys() error {
	bind := func(group, action string, fn func()) error {
		combo := c.cfg.GetHotkey(action)
		if combo == "" {
			return nil
		}
		if err := c.hotkeys.Bind(group, combo, fn); err != nil {
			return fmt.Errorf("hotkey %s: %w", action, err)
		}
		return nil
	}
	report := func(err error) {
		if err != nil && !errors.Is(err, window.ErrNoWindows) {
			c.log.Error("Hotkey action failed", err)
			c.reporter.Report(fmt.Sprintf("Error: %v", err))
		}
	}

	bindings := []struct {
		group, action string
		fn            func()
	}{
		{GroupRotation, config.ActionRotateForward, func() { report(c.rotator.Rotate(rotation.Forward)) }},
		{GroupRotation, config.ActionRotateBackward, func() { report(c.rotator.Rotate(rotation.Backward)) }},
		{GroupGlobal, config.ActionSelectMain, func() { c.ToggleSelectMode() }},
		{GroupGlobal, config.ActionRefresh, func() { report(c.Refresh()) }},
		{GroupGlobal, config.ActionCycleShopping, func() { report(c.CycleShopping()) }},
		{GroupGlobal, config.ActionToggleSenderA, func() { report(c.ToggleSender(config.SenderA)) }},
		{GroupGlobal, config.ActionToggleSenderB, func() { report(c.ToggleSender(config.SenderB)) }},
		{GroupGlobal, config.ActionEmergencyStop, func() { go c.EmergencyStop() }},
		{GroupCancel, config.ActionCancelShopping, func() { c.macro.Cancel(); c.notifyChanged() }},
	}
	for _, b := range bindings {
		if err := bind(b.group, b.action, b.fn); err != nil {
			return err
		}
	}

	for _, o := range c.cfg.GetOneShots() {
		key := o.Key
		scope, err := input.ParseScope(o.Scope)
		if err != nil {
			return fmt.Errorf("one-shot %s: %w", o.Hotkey, err)
		}
		if err := c.hotkeys.Bind(GroupGlobal, o.Hotkey, func() {
			_, err := c.broadcaster.Broadcast(key, scope)
			report(err)
		}); err != nil {
			return fmt.Errorf("one-shot %s: %w", o.Hotkey, err)
		}
	}
	return nil
}

// Loop exposes the event loop so the caller can run it.
func (c *Controller) Loop() *loop.Loop {
	return c.loop
}

// Post queues fn on the event loop.
func (c *Controller) Post(fn func()) bool {
	return c.svc.Poster.Post(fn)
}

// OnChange registers a callback run on the loop whenever toggles or the
// macro phase may have changed. The panel uses it to refresh.
func (c *Controller) OnChange(fn func()) {
	c.changed = fn
}

func (c *Controller) notifyChanged() {
	if c.changed != nil {
		c.changed()
	}
}

// Start discovers windows, applies the layout and registers hotkeys. It
// runs on the loop.
func (c *Controller) Start() error {
	if _, err := c.rotator.Refresh(); err != nil {
		c.log.Error("Initial discovery failed", err)
	}

	for _, group := range []string{GroupGlobal, GroupRotation} {
		if err := c.hotkeys.Enable(group); err != nil {
			c.log.Error("Failed to enable hotkeys", err, "group", group)
			c.reporter.Report(fmt.Sprintf("Error: %s hotkeys unavailable: %v", group, err))
		}
	}

	if err := c.watcher.Start(); err != nil {
		c.log.Warn("Window watcher not started", "error", err)
	}
	c.notifyChanged()
	c.log.Info("Controller started", "process", c.registry.Process(), "bindings", c.hotkeys.Bindings())
	return nil
}

func (c *Controller) windowsChanged(before, after int) {
	if after == 0 || c.macro.State().Phase == shopping.PhaseAutoRun {
		return
	}
	if err := c.rotator.Apply(); err != nil {
		c.log.Warn("Layout not re-applied after window change", "error", err)
	}
}

// Refresh re-discovers and re-applies the layout.
func (c *Controller) Refresh() error {
	_, err := c.rotator.Refresh()
	return err
}

// ToggleSelectMode arms or disarms the click-to-select listener.
func (c *Controller) ToggleSelectMode() bool {
	if c.clicks.Enabled() {
		c.clicks.Disable()
		c.reporter.Report("Select mode OFF.")
		c.notifyChanged()
		return false
	}
	c.clicks.Enable()
	c.reporter.Report("Select mode ON: click a game window to make it main.")
	c.notifyChanged()
	return true
}

// SelectModeEnabled reports whether a click will choose the main window.
func (c *Controller) SelectModeEnabled() bool {
	return c.clicks.Enabled()
}

func (c *Controller) handleClick(h wm.Handle, at models.Point) {
	if !c.clicks.Enabled() {
		return
	}
	err := c.rotator.Select(h)
	switch {
	case errors.Is(err, rotation.ErrNotTracked):
		c.log.Debug("Click outside game windows", "hwnd", h, "at", at.String())
		c.reporter.Report("Clicked window is not a game window, still waiting for a selection.")
		return
	case err != nil:
		c.log.Error("Selecting main window failed", err)
		c.reporter.Report(fmt.Sprintf("Error: %v", err))
	}
	c.clicks.Disable()
	c.notifyChanged()
}

// SetRotation enables or disables the rotation hotkeys.
func (c *Controller) SetRotation(on bool) error {
	if !on {
		c.hotkeys.Disable(GroupRotation)
		c.reporter.Report("Rotation hotkeys OFF.")
		c.notifyChanged()
		return nil
	}
	if err := c.hotkeys.Enable(GroupRotation); err != nil {
		return err
	}
	c.reporter.Report("Rotation hotkeys ON.")
	c.notifyChanged()
	return nil
}

func (c *Controller) RotationEnabled() bool {
	return c.hotkeys.Enabled(GroupRotation)
}

// ToggleSender flips a periodic broadcaster.
func (c *Controller) ToggleSender(name string) error {
	s, ok := c.senders[name]
	if !ok {
		return fmt.Errorf("unknown sender %q", name)
	}
	s.Toggle()
	c.notifyChanged()
	return nil
}

// SetSender starts or stops a periodic broadcaster.
func (c *Controller) SetSender(name string, on bool) error {
	s, ok := c.senders[name]
	if !ok {
		return fmt.Errorf("unknown sender %q", name)
	}
	if on {
		s.Start()
	} else {
		s.Stop()
	}
	c.notifyChanged()
	return nil
}

func (c *Controller) SenderNames() []string {
	names := make([]string, 0, len(c.senders))
	for name := range c.senders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Controller) SenderRunning(name string) bool {
	s, ok := c.senders[name]
	return ok && s.Running()
}

// CycleShopping advances the macro OFF -> SETUP -> AUTO_RUN -> OFF.
func (c *Controller) CycleShopping() error {
	defer c.notifyChanged()
	err := c.macro.Cycle()
	if errors.Is(err, shopping.ErrNoMainWindow) {
		return nil
	}
	return err
}

func (c *Controller) ShoppingState() shopping.State {
	return c.macro.State()
}

func (c *Controller) runStarted() {
	c.playChime(Chimes.PlayStart)
	if c.svc.History == nil {
		return
	}
	id, err := c.svc.History.BeginRun(c.svc.Now())
	if err != nil {
		c.log.Error("Failed to record run start", err)
		return
	}
	c.runID = id
}

func (c *Controller) runFinished(cycles int, reason string) {
	c.playChime(Chimes.PlayFinish)
	if c.svc.History == nil || c.runID == "" {
		return
	}
	if err := c.svc.History.FinishRun(c.runID, c.svc.Now(), cycles, reason); err != nil {
		c.log.Error("Failed to record run end", err, "id", c.runID)
	}
	c.runID = ""
}

func (c *Controller) playChime(play func(Chimes) error) {
	if c.svc.Chimes == nil {
		return
	}
	if err := play(c.svc.Chimes); err != nil {
		c.log.Warn("Chime failed", "error", err)
	}
}

// Status is a snapshot for the panel and `send status`.
func (c *Controller) Status() map[string]any {
	st := c.macro.State()
	set := c.registry.Current()
	sel := c.rotator.Selector()
	senders := map[string]bool{}
	for name, s := range c.senders {
		senders[name] = s.Running()
	}
	handles := make([]string, len(set))
	for i, h := range set {
		handles[i] = fmt.Sprintf("%#x", uintptr(h))
	}
	return map[string]any{
		"windows":  handles,
		"main":     sel.Index,
		"shopping": st.Phase.String(),
		"cycle":    st.Cycle,
		"rotation": c.RotationEnabled(),
		"select":   c.SelectModeEnabled(),
		"senders":  senders,
	}
}

// Execute runs a text command on the loop and returns a status line.
func (c *Controller) Execute(command string, args []string) (string, error) {
	arg := func(i int, def string) string {
		if i < len(args) {
			return args[i]
		}
		return def
	}

	switch strings.ToLower(command) {
	case "rotate":
		dir, err := rotation.ParseDirection(arg(0, "forward"))
		if err != nil {
			return "", err
		}
		if err := c.rotator.Rotate(dir); err != nil {
			return "", err
		}
		return fmt.Sprintf("rotated %s", dir), nil

	case "refresh":
		n, err := c.rotator.Refresh()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("found %d windows", n), nil

	case "apply":
		if err := c.rotator.Apply(); err != nil {
			return "", err
		}
		return "layout applied", nil

	case "select":
		if c.ToggleSelectMode() {
			return "select mode on", nil
		}
		return "select mode off", nil

	case "rotation":
		on, err := parseSwitch(arg(0, "toggle"), c.RotationEnabled())
		if err != nil {
			return "", err
		}
		if err := c.SetRotation(on); err != nil {
			return "", err
		}
		return fmt.Sprintf("rotation hotkeys %s", onOff(on)), nil

	case "sender":
		name := arg(0, "")
		on, err := parseSwitch(arg(1, "toggle"), c.SenderRunning(name))
		if err != nil {
			return "", err
		}
		if err := c.SetSender(name, on); err != nil {
			return "", err
		}
		return fmt.Sprintf("sender %s %s", name, onOff(on)), nil

	case "send":
		scope, err := input.ParseScope(arg(1, "all"))
		if err != nil {
			return "", err
		}
		n, err := c.broadcaster.Broadcast(arg(0, ""), scope)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("sent to %d windows", n), nil

	case "shop":
		if err := c.CycleShopping(); err != nil {
			return "", err
		}
		return fmt.Sprintf("shopping %s", c.macro.State().Phase), nil

	case "cancel":
		c.macro.Cancel()
		c.notifyChanged()
		return fmt.Sprintf("shopping %s", c.macro.State().Phase), nil

	case "status":
		return "ok", nil

	case "stop":
		go c.EmergencyStop()
		return "stopping", nil
	}
	return "", fmt.Errorf("unknown command %q", command)
}

func parseSwitch(s string, current bool) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	case "toggle", "":
		return !current, nil
	}
	return false, fmt.Errorf("expected on, off or toggle, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Handle serves IPC requests by running them on the loop.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	var (
		msg    string
		err    error
		status map[string]any
	)
	doErr := c.loop.Do(ctx, func() {
		msg, err = c.Execute(req.Command, req.Args)
		if err == nil && strings.EqualFold(req.Command, "status") {
			status = c.Status()
		}
	})
	if doErr != nil {
		return ipc.Failure(doErr)
	}
	if err != nil {
		return ipc.Failure(err)
	}
	resp := ipc.Success(msg)
	resp.Data = status
	return resp
}

// Shutdown saves state and releases every OS resource. It runs on the loop.
func (c *Controller) Shutdown() {
	c.log.Info("Shutting down controller")
	c.watcher.Stop()
	c.clicks.Disable()
	for _, s := range c.senders {
		s.Stop()
	}
	c.macro.Shutdown()
	c.hotkeys.DisableAll()
}

// EmergencyStop tears down within teardownDeadline and exits regardless of
// whether teardown finished. Safe to call from any goroutine.
func (c *Controller) EmergencyStop() {
	c.stopOnce.Do(func() {
		c.log.Warn("Emergency stop requested")
		c.reporter.Report("Emergency stop.")

		ctx, cancel := context.WithTimeout(context.Background(), teardownDeadline)
		defer cancel()
		if err := c.loop.Do(ctx, c.Shutdown); err != nil {
			c.log.Error("Teardown did not finish", err)
		}
		c.loop.Stop()

		exit := c.svc.Exit
		if exit == nil {
			return
		}
		exit(0)
	})
}
