package app

import (
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const maxLogLines = 1000

// logView is a scrolling text grid that keeps the last maxLogLines lines.
type logView struct {
	mu     sync.Mutex
	grid   *widget.TextGrid
	lines  []string
	newest bool
}

func newLogView(newestFirst bool) *logView {
	return &logView{grid: widget.NewTextGrid(), newest: newestFirst}
}

func (v *logView) Append(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.newest {
		v.lines = append([]string{text}, v.lines...)
		if len(v.lines) > maxLogLines {
			v.lines = v.lines[:maxLogLines]
		}
	} else {
		v.lines = append(v.lines, text)
		if len(v.lines) > maxLogLines {
			v.lines = v.lines[len(v.lines)-maxLogLines:]
		}
	}
	v.grid.SetText(strings.Join(v.lines, "\n"))
}

func (v *logView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lines = nil
	v.grid.SetText("")
}

// DebugWindow shows raw log output when running with --debug.
type DebugWindow struct {
	window fyne.Window
	view   *logView
}

func NewDebugWindow(a fyne.App) *DebugWindow {
	dw := &DebugWindow{
		window: a.NewWindow("dd2-manager debug"),
		view:   newLogView(false),
	}

	clearBtn := widget.NewButton("Clear", dw.view.Clear)
	dw.window.SetContent(container.NewBorder(
		container.NewHBox(clearBtn),
		nil, nil, nil,
		container.NewScroll(dw.view.grid),
	))
	dw.window.Resize(fyne.NewSize(800, 600))
	dw.window.SetCloseIntercept(dw.window.Hide)
	return dw
}

func (dw *DebugWindow) Show() { dw.window.Show() }

// Write implements io.Writer so the window can be added to the logger.
func (dw *DebugWindow) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		if line != "" {
			dw.view.Append(line)
		}
	}
	return len(p), nil
}
