package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dd2-manager/internal/boxes"
	"dd2-manager/internal/hotkeys"
	"dd2-manager/internal/ipc"
	"dd2-manager/internal/loop/looptest"
	"dd2-manager/internal/models"
	"dd2-manager/internal/overlay/overlaytest"
	"dd2-manager/internal/shopping"
	"dd2-manager/internal/wm"
	"dd2-manager/internal/wm/wmtest"
	"dd2-manager/pkg/config"
	"dd2-manager/pkg/logger"
)

type fakeReg struct {
	r    *fakeRegistrar
	name string
}

func (f *fakeReg) Unregister() error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	delete(f.r.live, f.name)
	return nil
}

type fakeRegistrar struct {
	mu   sync.Mutex
	live map[string]func()
}

func (f *fakeRegistrar) Register(c hotkeys.Combo, fire func()) (hotkeys.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[c.Name] = fire
	return &fakeReg{r: f, name: c.Name}, nil
}

func (f *fakeRegistrar) press(name string) bool {
	f.mu.Lock()
	fire, ok := f.live[name]
	f.mu.Unlock()
	if ok {
		fire()
	}
	return ok
}

func (f *fakeRegistrar) isLive(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.live[name]
	return ok
}

type syncPoster struct{}

func (syncPoster) Post(fn func()) bool { fn(); return true }

type fakePointer struct {
	mu  sync.Mutex
	pos models.Point
}

func (p *fakePointer) MoveTo(to models.Point) { p.SetPosition(to) }
func (p *fakePointer) Click(string)           {}
func (p *fakePointer) Position() models.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}
func (p *fakePointer) SetPosition(to models.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = to
}

type fakeHistory struct {
	begun    int
	finished []string
	err      error
}

func (h *fakeHistory) BeginRun(time.Time) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	h.begun++
	return "run-1", nil
}

func (h *fakeHistory) FinishRun(id string, _ time.Time, _ int, reason string) error {
	h.finished = append(h.finished, id+":"+reason)
	return nil
}

type fakeChimes struct{ starts, finishes int }

func (c *fakeChimes) PlayStart() error  { c.starts++; return nil }
func (c *fakeChimes) PlayFinish() error { c.finishes++; return nil }

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Report(m string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return ""
	}
	return r.msgs[len(r.msgs)-1]
}

type harness struct {
	ctrl     *Controller
	wm       *wmtest.Fake
	reg      *fakeRegistrar
	sched    *looptest.Scheduler
	overlays *overlaytest.Factory
	history  *fakeHistory
	chimes   *fakeChimes
	reporter *recorder
	exits    []int
}

func newHarness(t *testing.T, handles ...wm.Handle) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.DefaultConfig(dir, logger.Nop())
	require.NoError(t, err)

	h := &harness{
		wm:       wmtest.New(handles...),
		reg:      &fakeRegistrar{live: map[string]func(){}},
		sched:    looptest.New(),
		overlays: &overlaytest.Factory{},
		history:  &fakeHistory{},
		chimes:   &fakeChimes{},
		reporter: &recorder{},
	}
	ctrl, err := NewController(cfg, logger.Nop(), h.reporter, Services{
		WM:        h.wm,
		Registrar: h.reg,
		Overlays:  h.overlays,
		Pointer:   &fakePointer{pos: models.Point{X: 5, Y: 5}},
		Boxes:     boxes.NewStore(filepath.Join(dir, "boxes.json"), logger.Nop(), h.reporter),
		History:   h.history,
		Chimes:    h.chimes,
		Poster:    syncPoster{},
		Scheduler: h.sched,
		Sleep:     func(time.Duration) {},
		Exit:      func(code int) { h.exits = append(h.exits, code) },
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	t.Cleanup(ctrl.Shutdown)
	return h
}

func lastMain(f *wmtest.Fake) wm.Handle {
	places := f.Ops("place")
	for i := len(places) - 1; i >= 0; i-- {
		if places[i].Raise {
			return places[i].Handle
		}
	}
	return 0
}

func TestStartAppliesLayoutAndRegistersHotkeys(t *testing.T) {
	h := newHarness(t, 1, 2, 3)
	require.NoError(t, h.ctrl.Start())

	assert.Equal(t, wm.Handle(1), lastMain(h.wm))
	assert.Equal(t, models.NewRect(0, 0, 1720, 900), h.wm.Ops("place")[0].Rect)
	assert.Contains(t, h.reporter.msgs, "Refreshed: found 3 windows.")

	for _, name := range []string{"ctrl+up", "ctrl+down", "f8", "f9", "f6", "f7", "ctrl+alt+q", "f10"} {
		assert.True(t, h.reg.isLive(name), name)
	}
	assert.False(t, h.reg.isLive("shift+f9"), "cancel key is only live while shopping")
}

func TestDefaultHotkeysLeaveTypingKeysToTheGame(t *testing.T) {
	cfg, err := config.DefaultConfig(t.TempDir(), logger.Nop())
	require.NoError(t, err)

	for action, combo := range cfg.GetHotkeys() {
		c, err := hotkeys.ParseCombo(combo)
		require.NoError(t, err, action)
		assert.False(t, c.Bare(), "%s is bound to bare %q", action, combo)
	}
	for _, shot := range cfg.GetOneShots() {
		c, err := hotkeys.ParseCombo(shot.Hotkey)
		require.NoError(t, err)
		assert.False(t, c.Bare(), shot.Hotkey)
	}
}

func TestRotationHotkeys(t *testing.T) {
	h := newHarness(t, 1, 2, 3)
	require.NoError(t, h.ctrl.Start())

	require.True(t, h.reg.press("ctrl+up"))
	assert.Equal(t, wm.Handle(2), lastMain(h.wm))
	require.True(t, h.reg.press("ctrl+down"))
	require.True(t, h.reg.press("ctrl+down"))
	assert.Equal(t, wm.Handle(3), lastMain(h.wm))

	require.NoError(t, h.ctrl.SetRotation(false))
	assert.False(t, h.ctrl.RotationEnabled())
	assert.False(t, h.reg.press("ctrl+up"))
	require.NoError(t, h.ctrl.SetRotation(false))

	require.NoError(t, h.ctrl.SetRotation(true))
	assert.True(t, h.reg.press("ctrl+up"))
}

func TestRotateWithoutWindowsKeepsSelector(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start())

	require.True(t, h.reg.press("ctrl+up"))
	assert.Equal(t, "No windows found, nothing to rotate.", h.reporter.last())
	assert.Empty(t, h.wm.Ops("place"))
}

func TestSenderToggleHotkey(t *testing.T) {
	h := newHarness(t, 1, 2)
	require.NoError(t, h.ctrl.Start())
	h.wm.Reset()

	require.True(t, h.reg.press("f6"))
	assert.True(t, h.ctrl.SenderRunning(config.SenderA))
	assert.Len(t, h.wm.Ops("key"), 4)

	h.sched.Advance(1200 * time.Millisecond)
	assert.Len(t, h.wm.Ops("key"), 8)

	require.True(t, h.reg.press("f6"))
	assert.False(t, h.ctrl.SenderRunning(config.SenderA))
	h.sched.Advance(5 * time.Second)
	assert.Len(t, h.wm.Ops("key"), 8)
}

func TestShoppingLifecycleRecordsHistory(t *testing.T) {
	h := newHarness(t, 1, 2)
	require.NoError(t, h.ctrl.Start())

	require.True(t, h.reg.press("f9"))
	assert.Equal(t, shopping.PhaseSetup, h.ctrl.ShoppingState().Phase)
	require.NotNil(t, h.overlays.Last())

	require.True(t, h.reg.press("f9"))
	assert.Equal(t, shopping.PhaseAutoRun, h.ctrl.ShoppingState().Phase)
	assert.True(t, h.reg.isLive("shift+f9"))
	assert.Equal(t, 1, h.history.begun)
	assert.Equal(t, 1, h.chimes.starts)

	require.True(t, h.reg.press("shift+f9"))
	assert.Equal(t, shopping.PhaseOff, h.ctrl.ShoppingState().Phase)
	assert.False(t, h.reg.isLive("shift+f9"))
	assert.True(t, h.overlays.Last().Destroyed)
	assert.Equal(t, []string{"run-1:" + shopping.ReasonCancelled}, h.history.finished)
	assert.Equal(t, 1, h.chimes.finishes)
}

func TestShoppingRunsToCycleLimit(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.ctrl.Start())
	require.NoError(t, h.ctrl.CycleShopping())
	require.NoError(t, h.ctrl.CycleShopping())

	h.sched.RunAll(time.Hour)
	assert.Equal(t, shopping.PhaseOff, h.ctrl.ShoppingState().Phase)
	assert.Equal(t, []string{"run-1:" + shopping.ReasonCycleLimit}, h.history.finished)
}

func TestShoppingWithoutWindowStaysInSetup(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start())
	require.NoError(t, h.ctrl.CycleShopping())
	require.NoError(t, h.ctrl.CycleShopping())
	assert.Equal(t, shopping.PhaseSetup, h.ctrl.ShoppingState().Phase)
	assert.Zero(t, h.history.begun)
}

func TestHistoryFailureDoesNotStopMacro(t *testing.T) {
	h := newHarness(t, 1)
	h.history.err = errors.New("disk full")
	require.NoError(t, h.ctrl.Start())
	require.NoError(t, h.ctrl.CycleShopping())
	require.NoError(t, h.ctrl.CycleShopping())
	assert.Equal(t, shopping.PhaseAutoRun, h.ctrl.ShoppingState().Phase)

	h.ctrl.macro.Cancel()
	assert.Empty(t, h.history.finished)
}

func TestSelectMode(t *testing.T) {
	h := newHarness(t, 1, 2, 3)
	require.NoError(t, h.ctrl.Start())

	require.True(t, h.ctrl.ToggleSelectMode())
	h.ctrl.handleClick(99, models.Point{X: 10, Y: 10})
	assert.True(t, h.ctrl.SelectModeEnabled())
	assert.Contains(t, h.reporter.last(), "not a game window")

	h.ctrl.handleClick(3, models.Point{X: 1800, Y: 100})
	assert.False(t, h.ctrl.SelectModeEnabled())
	assert.Equal(t, wm.Handle(3), lastMain(h.wm))
	assert.Equal(t, 2, h.ctrl.rotator.Selector().Index)
}

func TestExecuteCommands(t *testing.T) {
	h := newHarness(t, 1, 2)
	require.NoError(t, h.ctrl.Start())
	h.wm.Foreground = 1
	h.wm.Reset()

	msg, err := h.ctrl.Execute("send", []string{"space", "inactive"})
	require.NoError(t, err)
	assert.Equal(t, "sent to 1 windows", msg)
	for _, c := range h.wm.Ops("key") {
		assert.Equal(t, wm.Handle(2), c.Handle)
	}

	msg, err = h.ctrl.Execute("rotate", []string{"backward"})
	require.NoError(t, err)
	assert.Equal(t, "rotated backward", msg)

	msg, err = h.ctrl.Execute("sender", []string{config.SenderB, "on"})
	require.NoError(t, err)
	assert.Equal(t, "sender b on", msg)
	assert.True(t, h.ctrl.SenderRunning(config.SenderB))

	msg, err = h.ctrl.Execute("rotation", nil)
	require.NoError(t, err)
	assert.Equal(t, "rotation hotkeys off", msg)

	_, err = h.ctrl.Execute("sender", []string{"z"})
	assert.Error(t, err)
	_, err = h.ctrl.Execute("send", []string{"nokey"})
	assert.Error(t, err)
	_, err = h.ctrl.Execute("dance", nil)
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	h := newHarness(t, 0x10, 0x20)
	require.NoError(t, h.ctrl.Start())

	st := h.ctrl.Status()
	assert.Equal(t, []string{"0x10", "0x20"}, st["windows"])
	assert.Equal(t, "OFF", st["shopping"])
	assert.Equal(t, true, st["rotation"])
}

func TestWindowChangeReappliesLayout(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.ctrl.Start())
	h.ctrl.watcher.Check()
	h.wm.Reset()

	h.wm.Windows = []wm.Handle{1, 2}
	h.ctrl.watcher.Check()
	assert.Len(t, h.wm.Ops("place"), 2)
}

func TestShutdownReleasesEverything(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.ctrl.Start())
	require.NoError(t, h.ctrl.SetSender(config.SenderA, true))
	h.ctrl.ToggleSelectMode()

	h.ctrl.Shutdown()
	assert.False(t, h.ctrl.SenderRunning(config.SenderA))
	assert.False(t, h.ctrl.SelectModeEnabled())
	assert.False(t, h.reg.isLive("ctrl+up"))
	assert.False(t, h.reg.isLive("f9"))
}

func newLoopController(t *testing.T) (*Controller, *fakeRegistrar, *[]int, context.CancelFunc) {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.DefaultConfig(dir, logger.Nop())
	require.NoError(t, err)

	reg := &fakeRegistrar{live: map[string]func(){}}
	var mu sync.Mutex
	exits := []int{}
	ctrl, err := NewController(cfg, logger.Nop(), &recorder{}, Services{
		WM:        wmtest.New(1, 2),
		Registrar: reg,
		Overlays:  &overlaytest.Factory{},
		Pointer:   &fakePointer{},
		Boxes:     boxes.NewStore(filepath.Join(dir, "boxes.json"), logger.Nop(), &recorder{}),
		Sleep:     func(time.Duration) {},
		Exit: func(code int) {
			mu.Lock()
			defer mu.Unlock()
			exits = append(exits, code)
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go ctrl.Loop().Run(ctx)
	require.NoError(t, ctrl.Loop().Do(ctx, func() { ctrl.Start() }))
	return ctrl, reg, &exits, cancel
}

func TestHandleRunsOnLoop(t *testing.T) {
	ctrl, _, _, cancel := newLoopController(t)
	defer cancel()

	resp := ctrl.Handle(context.Background(), ipc.Request{Command: "status"})
	require.True(t, resp.OK(), resp.Message)
	assert.Equal(t, []string{"0x1", "0x2"}, resp.Data["windows"])

	resp = ctrl.Handle(context.Background(), ipc.Request{Command: "rotate", Args: []string{"sideways"}})
	assert.False(t, resp.OK())
}

func TestEmergencyStop(t *testing.T) {
	ctrl, reg, exits, cancel := newLoopController(t)
	defer cancel()

	ctrl.EmergencyStop()
	ctrl.EmergencyStop()

	assert.Equal(t, []int{0}, *exits)
	assert.False(t, reg.isLive("ctrl+up"))
	select {
	case <-ctrl.Loop().Done():
	default:
		t.Fatal("loop still running after emergency stop")
	}
}
