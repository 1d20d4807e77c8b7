//go:build windows

package wm

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/windows"

	"dd2-manager/internal/models"
)

const (
	swRestore = 9

	hwndTop       = 0
	hwndNoTopmost = ^uintptr(1) // (HWND)-2

	swpNoActivate = 0x0010
	swpShowWindow = 0x0040

	wmKeyDown = 0x0100
	wmKeyUp   = 0x0101

	spiGetWorkArea = 0x0030
	gaRoot         = 2
	vkLButton      = 0x01
	mapvkVkToVsc   = 0
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procIsWindowEnabled      = user32.NewProc("IsWindowEnabled")
	procSetWindowPos         = user32.NewProc("SetWindowPos")
	procBringWindowToTop     = user32.NewProc("BringWindowToTop")
	procSetForegroundWindow  = user32.NewProc("SetForegroundWindow")
	procAttachThreadInput    = user32.NewProc("AttachThreadInput")
	procPostMessageW         = user32.NewProc("PostMessageW")
	procMapVirtualKeyW       = user32.NewProc("MapVirtualKeyW")
	procSystemParametersInfo = user32.NewProc("SystemParametersInfoW")
	procWindowFromPoint      = user32.NewProc("WindowFromPoint")
	procGetAncestor          = user32.NewProc("GetAncestor")
	procGetAsyncKeyState     = user32.NewProc("GetAsyncKeyState")
)

// EnumWindows callbacks are never freed by the runtime, so one callback is
// shared and the per-call visitor is swapped under enumMu.
var (
	enumMu       sync.Mutex
	enumVisit    func(windows.HWND)
	enumCallback = windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		if enumVisit != nil {
			enumVisit(hwnd)
		}
		return 1
	})
)

// Win32 implements WindowManager with user32 calls.
type Win32 struct{}

func newPlatformManager() (WindowManager, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("failed to load user32.dll: %w", err)
	}
	return &Win32{}, nil
}

func (w *Win32) Name() string {
	return "Win32"
}

func (w *Win32) FindWindows(processName string) ([]Handle, error) {
	pids, err := pidsByName(processName)
	if err != nil {
		return nil, err
	}
	if len(pids) == 0 {
		return nil, nil
	}

	enumMu.Lock()
	defer enumMu.Unlock()

	var found []Handle
	seen := make(map[Handle]struct{})
	enumVisit = func(hwnd windows.HWND) {
		if !windows.IsWindowVisible(hwnd) || !isWindowEnabled(hwnd) {
			return
		}
		var pid uint32
		if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
			return
		}
		if _, ok := pids[pid]; !ok {
			return
		}
		h := Handle(hwnd)
		if _, dup := seen[h]; dup {
			return
		}
		seen[h] = struct{}{}
		found = append(found, h)
	}
	defer func() { enumVisit = nil }()

	if err := windows.EnumWindows(enumCallback, nil); err != nil {
		return nil, fmt.Errorf("EnumWindows failed: %w", err)
	}
	return found, nil
}

func pidsByName(name string) (map[uint32]struct{}, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	pids := make(map[uint32]struct{})
	for _, p := range procs {
		n, err := p.Name()
		if err != nil {
			continue
		}
		if strings.EqualFold(n, name) {
			pids[uint32(p.Pid)] = struct{}{}
		}
	}
	return pids, nil
}

func isWindowEnabled(hwnd windows.HWND) bool {
	r, _, _ := procIsWindowEnabled.Call(uintptr(hwnd))
	return r != 0
}

func (w *Win32) WorkArea() (models.Rect, error) {
	var r windows.Rect
	ok, _, err := procSystemParametersInfo.Call(spiGetWorkArea, 0, uintptr(unsafe.Pointer(&r)), 0)
	if ok == 0 {
		return models.Rect{}, fmt.Errorf("SystemParametersInfo(SPI_GETWORKAREA) failed: %w", err)
	}
	return models.Rect{
		Left:   int(r.Left),
		Top:    int(r.Top),
		Right:  int(r.Right),
		Bottom: int(r.Bottom),
	}, nil
}

func (w *Win32) Restore(h Handle) error {
	windows.ShowWindow(windows.HWND(h), swRestore)
	return nil
}

func (w *Win32) Place(h Handle, r models.Rect, raise bool) error {
	insertAfter := uintptr(hwndTop)
	flags := uintptr(swpShowWindow)
	if !raise {
		insertAfter = hwndNoTopmost
		flags |= swpNoActivate
	}
	ok, _, err := procSetWindowPos.Call(
		uintptr(h), insertAfter,
		uintptr(int32(r.Left)), uintptr(int32(r.Top)),
		uintptr(int32(r.Width())), uintptr(int32(r.Height())),
		flags,
	)
	if ok == 0 {
		return fmt.Errorf("SetWindowPos(%#x) failed: %w", uintptr(h), err)
	}
	return nil
}

func (w *Win32) ForegroundWindow() Handle {
	return Handle(windows.GetForegroundWindow())
}

func (w *Win32) WindowThread(h Handle) uint32 {
	tid, _ := windows.GetWindowThreadProcessId(windows.HWND(h), nil)
	return tid
}

func (w *Win32) AttachInput(from, to uint32, attach bool) error {
	var flag uintptr
	if attach {
		flag = 1
	}
	ok, _, err := procAttachThreadInput.Call(uintptr(from), uintptr(to), flag)
	if ok == 0 {
		return fmt.Errorf("AttachThreadInput(%d, %d, %t) failed: %w", from, to, attach, err)
	}
	return nil
}

func (w *Win32) BringToTop(h Handle) error {
	ok, _, err := procBringWindowToTop.Call(uintptr(h))
	if ok == 0 {
		return fmt.Errorf("BringWindowToTop(%#x) failed: %w", uintptr(h), err)
	}
	return nil
}

func (w *Win32) SetForeground(h Handle) bool {
	ok, _, _ := procSetForegroundWindow.Call(uintptr(h))
	return ok != 0
}

func (w *Win32) PostKey(h Handle, code uint16, down bool) error {
	scan, _, _ := procMapVirtualKeyW.Call(uintptr(code), mapvkVkToVsc)
	lparam := uintptr(1) | (scan&0xff)<<16
	msg := uintptr(wmKeyDown)
	if !down {
		msg = wmKeyUp
		lparam |= 1<<30 | 1<<31
	}
	ok, _, err := procPostMessageW.Call(uintptr(h), msg, uintptr(code), lparam)
	if ok == 0 {
		return fmt.Errorf("PostMessage(%#x) failed: %w", uintptr(h), err)
	}
	return nil
}

func (w *Win32) WindowAt(p models.Point) Handle {
	// POINT is passed by value packed into one register on amd64.
	packed := uintptr(uint32(int32(p.X))) | uintptr(uint32(int32(p.Y)))<<32
	hwnd, _, _ := procWindowFromPoint.Call(packed)
	if hwnd == 0 {
		return 0
	}
	root, _, _ := procGetAncestor.Call(hwnd, gaRoot)
	if root == 0 {
		return Handle(hwnd)
	}
	return Handle(root)
}

func (w *Win32) LeftButtonDown() bool {
	state, _, _ := procGetAsyncKeyState.Call(vkLButton)
	return state&0x8000 != 0
}
