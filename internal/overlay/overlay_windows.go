//go:build windows

package overlay

import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"dd2-manager/internal/models"
	"dd2-manager/pkg/core"
)

const (
	markerSize  = 40
	markerAlpha = 170

	wsPopup          = 0x80000000
	wsExTopmost      = 0x00000008
	wsExTransparent  = 0x00000020
	wsExToolWindow   = 0x00000080
	wsExLayered      = 0x00080000
	wsExNoActivate   = 0x08000000
	gwlExStyle       = ^uintptr(19) // -20
	lwaAlpha         = 0x2
	swHide           = 0
	swShowNoActivate = 4

	wmDestroy   = 0x0002
	wmPaint     = 0x000F
	wmClose     = 0x0010
	wmNCHitTest = 0x0084
	htCaption   = 2

	dtCenter      = 0x01
	dtVCenter     = 0x04
	dtSingleLine  = 0x20
	bkTransparent = 1
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClassExW           = user32.NewProc("RegisterClassExW")
	procCreateWindowExW            = user32.NewProc("CreateWindowExW")
	procDefWindowProcW             = user32.NewProc("DefWindowProcW")
	procGetMessageW                = user32.NewProc("GetMessageW")
	procTranslateMessage           = user32.NewProc("TranslateMessage")
	procDispatchMessageW           = user32.NewProc("DispatchMessageW")
	procPostMessageW               = user32.NewProc("PostMessageW")
	procPostQuitMessage            = user32.NewProc("PostQuitMessage")
	procShowWindow                 = user32.NewProc("ShowWindow")
	procGetWindowRect              = user32.NewProc("GetWindowRect")
	procGetClientRect              = user32.NewProc("GetClientRect")
	procGetWindowLongPtrW          = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW          = user32.NewProc("SetWindowLongPtrW")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procBeginPaint                 = user32.NewProc("BeginPaint")
	procEndPaint                   = user32.NewProc("EndPaint")
	procDrawTextW                  = user32.NewProc("DrawTextW")
	procCreateSolidBrush           = gdi32.NewProc("CreateSolidBrush")
	procSetBkMode                  = gdi32.NewProc("SetBkMode")
	procSetTextColor               = gdi32.NewProc("SetTextColor")
	procGetModuleHandleW           = kernel32.NewProc("GetModuleHandleW")
)

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   uintptr
	Icon       uintptr
	Cursor     uintptr
	Background uintptr
	MenuName   *uint16
	ClassName  *uint16
	IconSm     uintptr
}

type winMsg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

type paintStruct struct {
	Hdc         uintptr
	Erase       int32
	Paint       windows.Rect
	Restore     int32
	IncUpdate   int32
	RgbReserved [32]byte
}

// colours are COLORREF 0x00BBGGRR
var markerClasses = map[Kind]struct {
	name   string
	colour uintptr
}{
	KindShopping: {"dd2ShoppingMarker", 0x0000C0FF},
	KindUtility:  {"dd2UtilityMarker", 0x00FF9030},
}

var (
	registerOnce sync.Once
	registerErr  error
	classNames   = map[Kind]*uint16{}
	wndProc      = windows.NewCallback(markerProc)

	// hwnd -> label, and live marker count per overlay thread
	labelsMu sync.Mutex
	labels   = map[uintptr]string{}
	owners   = map[uintptr]*win32Overlay{}
)

func registerClasses() error {
	registerOnce.Do(func() {
		instance, _, _ := procGetModuleHandleW.Call(0)
		for kind, c := range markerClasses {
			name, err := windows.UTF16PtrFromString(c.name)
			if err != nil {
				registerErr = err
				return
			}
			brush, _, _ := procCreateSolidBrush.Call(c.colour)
			wc := wndClassEx{
				WndProc:    wndProc,
				Instance:   instance,
				Background: brush,
				ClassName:  name,
			}
			wc.Size = uint32(unsafe.Sizeof(wc))
			if atom, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); atom == 0 {
				registerErr = fmt.Errorf("RegisterClassEx(%s) failed: %w", c.name, err)
				return
			}
			classNames[kind] = name
		}
	})
	return registerErr
}

func markerProc(hwnd, msg, wparam, lparam uintptr) uintptr {
	switch msg {
	case wmNCHitTest:
		// the whole marker acts as a title bar, so the OS handles dragging
		return htCaption
	case wmPaint:
		paintLabel(hwnd)
		return 0
	case wmDestroy:
		labelsMu.Lock()
		owner := owners[hwnd]
		delete(labels, hwnd)
		delete(owners, hwnd)
		labelsMu.Unlock()
		if owner != nil && owner.markerClosed() {
			procPostQuitMessage.Call(0)
		}
		return 0
	}
	r, _, _ := procDefWindowProcW.Call(hwnd, msg, wparam, lparam)
	return r
}

func paintLabel(hwnd uintptr) {
	var ps paintStruct
	hdc, _, _ := procBeginPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))
	defer procEndPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))

	labelsMu.Lock()
	label := labels[hwnd]
	labelsMu.Unlock()
	if label == "" {
		return
	}
	text, err := windows.UTF16FromString(label)
	if err != nil {
		return
	}
	var rc windows.Rect
	procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&rc)))
	procSetBkMode.Call(hdc, bkTransparent)
	procSetTextColor.Call(hdc, 0)
	procDrawTextW.Call(hdc, uintptr(unsafe.Pointer(&text[0])), uintptr(len(text)-1),
		uintptr(unsafe.Pointer(&rc)), dtCenter|dtVCenter|dtSingleLine)
}

type marker struct {
	hwnd uintptr
	kind Kind
}

// win32Overlay owns one OS thread that created its marker windows and pumps
// their messages until the last one is destroyed.
type win32Overlay struct {
	markers       []marker
	live          int
	hiddenUtility bool
	mu            sync.Mutex
	done          chan struct{}
	log           core.Logger
}

type win32Factory struct {
	log core.Logger
}

// NewFactory returns a factory of layered topmost marker windows.
func NewFactory(log core.Logger) Factory {
	return &win32Factory{log: log}
}

func (f *win32Factory) Create(markers []Marker) (Overlay, error) {
	o := &win32Overlay{done: make(chan struct{}), log: f.log}
	ready := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(o.done)

		if err := registerClasses(); err != nil {
			ready <- err
			return
		}
		err := o.createMarkers(markers)
		if err != nil {
			o.closeAll()
		}
		ready <- err
		if o.liveCount() > 0 {
			o.pump()
		}
	}()

	if err := <-ready; err != nil {
		return nil, err
	}
	f.log.Info("Overlay created", "markers", len(markers))
	return o, nil
}

func (o *win32Overlay) createMarkers(markers []Marker) error {
	for _, m := range markers {
		class := classNames[m.Kind]
		hwnd, _, err := procCreateWindowExW.Call(
			wsExLayered|wsExTopmost|wsExToolWindow|wsExNoActivate,
			uintptr(unsafe.Pointer(class)),
			0,
			wsPopup,
			uintptr(m.Pos.X-markerSize/2), uintptr(m.Pos.Y-markerSize/2),
			markerSize, markerSize,
			0, 0, 0, 0,
		)
		if hwnd == 0 {
			return fmt.Errorf("CreateWindowEx for marker %s failed: %w", m.Label, err)
		}
		labelsMu.Lock()
		labels[hwnd] = m.Label
		owners[hwnd] = o
		labelsMu.Unlock()

		o.mu.Lock()
		o.markers = append(o.markers, marker{hwnd: hwnd, kind: m.Kind})
		o.live++
		o.mu.Unlock()

		procSetLayeredWindowAttributes.Call(hwnd, 0, markerAlpha, lwaAlpha)
		procShowWindow.Call(hwnd, swShowNoActivate)
	}
	return nil
}

func (o *win32Overlay) liveCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.live
}

// markerClosed reports whether the last marker is gone.
func (o *win32Overlay) markerClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.live--
	return o.live <= 0
}

func (o *win32Overlay) pump() {
	var m winMsg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (o *win32Overlay) snapshot() []marker {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]marker(nil), o.markers...)
}

func (o *win32Overlay) Positions() []models.Point {
	markers := o.snapshot()
	out := make([]models.Point, 0, len(markers))
	for _, m := range markers {
		var r windows.Rect
		procGetWindowRect.Call(m.hwnd, uintptr(unsafe.Pointer(&r)))
		rect := models.Rect{Left: int(r.Left), Top: int(r.Top), Right: int(r.Right), Bottom: int(r.Bottom)}
		out = append(out, rect.Center())
	}
	return out
}

func (o *win32Overlay) SetClickThrough(enabled bool) error {
	for _, m := range o.snapshot() {
		style, _, _ := procGetWindowLongPtrW.Call(m.hwnd, gwlExStyle)
		if enabled {
			style |= wsExTransparent
		} else {
			style &^= wsExTransparent
		}
		if r, _, err := procSetWindowLongPtrW.Call(m.hwnd, gwlExStyle, style); r == 0 && err != windows.ERROR_SUCCESS {
			return fmt.Errorf("SetWindowLongPtr failed: %w", err)
		}
	}
	o.log.Debug("Overlay click-through changed", "enabled", enabled)
	return nil
}

func (o *win32Overlay) HideUtilityMarkers() {
	o.mu.Lock()
	o.hiddenUtility = true
	o.mu.Unlock()
	for _, m := range o.snapshot() {
		if m.kind == KindUtility {
			procShowWindow.Call(m.hwnd, swHide)
		}
	}
}

func (o *win32Overlay) Hide() {
	for _, m := range o.snapshot() {
		procShowWindow.Call(m.hwnd, swHide)
	}
}

// Show leaves utility markers hidden once HideUtilityMarkers was called;
// they come back only with a new overlay.
func (o *win32Overlay) Show() {
	o.mu.Lock()
	skipUtility := o.hiddenUtility
	o.mu.Unlock()
	for _, m := range o.snapshot() {
		if m.kind == KindUtility && skipUtility {
			continue
		}
		procShowWindow.Call(m.hwnd, swShowNoActivate)
	}
}

func (o *win32Overlay) closeAll() {
	for _, m := range o.snapshot() {
		procPostMessageW.Call(m.hwnd, wmClose, 0, 0)
	}
}

func (o *win32Overlay) Destroy() {
	o.closeAll()
	select {
	case <-o.done:
		o.log.Info("Overlay destroyed")
	case <-time.After(2 * time.Second):
		o.log.Warn("Overlay thread did not exit in time")
	}
}
