package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalid = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func validScope(s string) bool {
	switch strings.ToLower(s) {
	case "", "all", "inactive", "inactive_only", "inactiveonly":
		return true
	}
	return false
}

func (f fileConfig) validate() error {
	if strings.TrimSpace(f.TargetProcess) == "" {
		return invalid("target_process is empty")
	}
	if f.Layout.MainWidth <= 0 || f.Layout.MainHeight <= 0 {
		return invalid("layout main size must be positive, got %dx%d", f.Layout.MainWidth, f.Layout.MainHeight)
	}
	if f.Layout.Padding < 0 {
		return invalid("layout padding must not be negative")
	}
	for action := range f.Hotkeys {
		if !knownActions[action] {
			return invalid("unknown hotkey action %q", action)
		}
	}
	for name, s := range f.Senders {
		if s.Key == "" {
			return invalid("sender %q has no key", name)
		}
		if s.PeriodMs <= 0 {
			return invalid("sender %q period must be positive", name)
		}
		if !validScope(s.Scope) {
			return invalid("sender %q has unknown scope %q", name, s.Scope)
		}
	}
	for i, o := range f.OneShots {
		if o.Hotkey == "" || o.Key == "" {
			return invalid("one_shots[%d] needs both hotkey and key", i)
		}
		if !validScope(o.Scope) {
			return invalid("one_shots[%d] has unknown scope %q", i, o.Scope)
		}
	}

	s := f.Shopping
	if s.ConfirmKey == "" {
		return invalid("shopping.confirm_key is empty")
	}
	if s.MoveDelayMs < 0 || s.ConfirmIntervalMs <= 0 || s.CooldownMs < 0 ||
		s.RestartDelayMs < 0 || s.SettleDelayMs < 0 {
		return invalid("shopping timings must not be negative")
	}
	if s.ConfirmPresses <= 0 {
		return invalid("shopping.confirm_presses must be positive")
	}
	if s.CycleLimit < 1 {
		return invalid("shopping.cycle_limit must be at least 1")
	}
	for _, b := range s.UtilityBoxes {
		if b < 1 || b > 3 {
			return invalid("shopping.utility_boxes entry %d out of range 1..3", b)
		}
	}

	if f.BoxesPath == "" || f.HistoryPath == "" || f.SocketPath == "" {
		return invalid("boxes_path, history_path and socket_path are required")
	}
	if f.WatchIntervalMs <= 0 {
		return invalid("watch_interval_ms must be positive")
	}
	return nil
}
