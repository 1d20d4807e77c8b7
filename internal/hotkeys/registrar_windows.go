//go:build windows

package hotkeys

import (
	"sync"

	"golang.design/x/hotkey"

	"dd2-manager/pkg/core"
)

type osRegistrar struct {
	log core.Logger
}

// NewRegistrar returns the OS-backed registrar.
func NewRegistrar(log core.Logger) (Registrar, error) {
	return &osRegistrar{log: log}, nil
}

var modMap = map[Modifier]hotkey.Modifier{
	ModCtrl:  hotkey.ModCtrl,
	ModShift: hotkey.ModShift,
	ModAlt:   hotkey.ModAlt,
	ModWin:   hotkey.ModWin,
}

type osRegistration struct {
	hk       *hotkey.Hotkey
	stop     chan struct{}
	stopOnce sync.Once
}

func (r *osRegistrar) Register(c Combo, fire func()) (Registration, error) {
	mods := make([]hotkey.Modifier, 0, len(c.Mods))
	for _, m := range c.Mods {
		mods = append(mods, modMap[m])
	}

	hk := hotkey.New(mods, hotkey.Key(c.Key))
	if err := hk.Register(); err != nil {
		return nil, err
	}

	reg := &osRegistration{hk: hk, stop: make(chan struct{})}
	go forward(hk.Keydown(), reg.stop, func() {
		r.log.Debug("Hotkey pressed", "combo", c.Name)
		fire()
	})
	return reg, nil
}

func (r *osRegistration) Unregister() error {
	var err error
	r.stopOnce.Do(func() {
		close(r.stop)
		err = r.hk.Unregister()
	})
	return err
}
