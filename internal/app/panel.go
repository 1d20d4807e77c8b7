package app

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"dd2-manager/pkg/notify"
)

// Panel is the control window: a status log plus toggles that post into
// the controller's loop.
type Panel struct {
	ctrl   *Controller
	window fyne.Window
	status *widget.Label
	log    *logView

	rotation  *widget.Check
	selectBtn *widget.Button
	shopBtn   *widget.Button
	senders   map[string]*widget.Check

	mu       sync.Mutex
	updating bool
}

func NewPanel(a fyne.App, ctrl *Controller, debug *DebugWindow) *Panel {
	p := &Panel{
		ctrl:    ctrl,
		window:  a.NewWindow("dd2-manager"),
		status:  widget.NewLabel("Starting..."),
		log:     newLogView(true),
		senders: map[string]*widget.Check{},
	}

	p.rotation = widget.NewCheck("Rotation hotkeys", func(on bool) {
		p.fromUser(func() error { return ctrl.SetRotation(on) })
	})
	p.selectBtn = widget.NewButton("Select main", func() {
		p.fromUser(func() error { ctrl.ToggleSelectMode(); return nil })
	})
	p.shopBtn = widget.NewButton("Shopping: OFF", func() {
		p.fromUser(ctrl.CycleShopping)
	})
	refreshBtn := widget.NewButton("Refresh", func() {
		p.fromUser(ctrl.Refresh)
	})

	toggles := container.NewVBox(p.rotation)
	for _, name := range ctrl.SenderNames() {
		name := name
		check := widget.NewCheck(fmt.Sprintf("Sender %s", name), func(on bool) {
			p.fromUser(func() error { return ctrl.SetSender(name, on) })
		})
		p.senders[name] = check
		toggles.Add(check)
	}

	buttons := container.NewHBox(refreshBtn, p.selectBtn, p.shopBtn)
	if debug != nil {
		buttons.Add(widget.NewButton("Debug Logs", debug.Show))
	}

	p.window.SetContent(container.NewBorder(
		container.NewVBox(p.status, toggles),
		buttons,
		nil,
		nil,
		container.NewScroll(p.log.grid),
	))
	p.window.Resize(fyne.NewSize(520, 420))

	ctrl.OnChange(p.refresh)
	return p
}

func (p *Panel) Window() fyne.Window { return p.window }

// Notify implements notify.Sink.
func (p *Panel) Notify(message string, nType notify.NotificationType) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message)
	if nType != notify.Info {
		line = fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), nType, message)
	}
	p.log.Append(line)
}

// fromUser posts a widget action into the loop unless the widget is being
// updated programmatically.
func (p *Panel) fromUser(fn func() error) {
	p.mu.Lock()
	updating := p.updating
	p.mu.Unlock()
	if updating {
		return
	}
	p.ctrl.Post(func() {
		if err := fn(); err != nil {
			p.ctrl.reporter.Report(fmt.Sprintf("Error: %v", err))
		}
	})
}

// refresh runs on the loop and mirrors controller state into the widgets.
func (p *Panel) refresh() {
	st := p.ctrl.ShoppingState()
	rotation := p.ctrl.RotationEnabled()
	selecting := p.ctrl.SelectModeEnabled()
	running := map[string]bool{}
	for name := range p.senders {
		running[name] = p.ctrl.SenderRunning(name)
	}
	windows := len(p.ctrl.registry.Current())

	p.mu.Lock()
	p.updating = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.updating = false
		p.mu.Unlock()
	}()

	p.status.SetText(fmt.Sprintf("%d window(s) | main #%d | shopping %s cycle %d",
		windows, p.ctrl.rotator.Selector().Index, st.Phase, st.Cycle))
	p.rotation.SetChecked(rotation)
	for name, check := range p.senders {
		check.SetChecked(running[name])
	}
	if selecting {
		p.selectBtn.SetText("Selecting... (click a window)")
	} else {
		p.selectBtn.SetText("Select main")
	}
	p.shopBtn.SetText(fmt.Sprintf("Shopping: %s", st.Phase))
}
