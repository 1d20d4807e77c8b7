package app

import (
	"fmt"
	"time"

	"dd2-manager/internal/input"
	"dd2-manager/internal/layout"
	"dd2-manager/internal/shopping"
	"dd2-manager/pkg/config"
)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func layoutSpec(cfg *config.Config) layout.Spec {
	l := cfg.GetLayout()
	return layout.Spec{MainWidth: l.MainWidth, MainHeight: l.MainHeight, Padding: l.Padding}
}

func shoppingConfig(cfg *config.Config) (shopping.Config, error) {
	s := cfg.GetShopping()
	opt := shopping.Config{
		ConfirmKey:      s.ConfirmKey,
		MoveDelay:       ms(s.MoveDelayMs),
		ConfirmInterval: ms(s.ConfirmIntervalMs),
		ConfirmPresses:  s.ConfirmPresses,
		Cooldown:        ms(s.CooldownMs),
		RestartDelay:    ms(s.RestartDelayMs),
		SettleDelay:     ms(s.SettleDelayMs),
		CycleLimit:      s.CycleLimit,
		UtilityBoxes:    s.UtilityBoxes,
	}
	if err := opt.Validate(); err != nil {
		return shopping.Config{}, fmt.Errorf("invalid shopping config: %w", err)
	}
	return opt, nil
}

type senderSettings struct {
	name   string
	key    string
	scope  input.Scope
	period time.Duration
}

func senderConfigs(cfg *config.Config) ([]senderSettings, error) {
	var out []senderSettings
	for _, name := range cfg.GetSenderNames() {
		s, _ := cfg.GetSender(name)
		if _, err := input.LookupKey(s.Key); err != nil {
			return nil, fmt.Errorf("sender %s: %w", name, err)
		}
		scope, err := input.ParseScope(s.Scope)
		if err != nil {
			return nil, fmt.Errorf("sender %s: %w", name, err)
		}
		out = append(out, senderSettings{name: name, key: s.Key, scope: scope, period: s.Period()})
	}
	return out, nil
}
