package config

import (
	"os"
	"path/filepath"

	"dd2-manager/pkg/logger"
)

const (
	AppDir            = "dd2-manager"
	DefaultConfigFile = "config.json"
	DefaultProcess    = "DunDefGame.exe"
)

func defaultFile(dir string) fileConfig {
	return fileConfig{
		TargetProcess: DefaultProcess,
		Layout:        LayoutSpec{MainWidth: 1720, MainHeight: 900, Padding: 0},
		Hotkeys: map[string]string{
			ActionRotateForward:  "ctrl+up",
			ActionRotateBackward: "ctrl+down",
			ActionSelectMain:     "f8",
			ActionRefresh:        "ctrl+f8",
			ActionCycleShopping:  "f9",
			ActionCancelShopping: "shift+f9",
			ActionToggleSenderA:  "f6",
			ActionToggleSenderB:  "f7",
			ActionEmergencyStop:  "ctrl+alt+q",
		},
		Senders: map[string]SenderSpec{
			SenderA: {Key: "1", PeriodMs: 1200, Scope: "all"},
			SenderB: {Key: "2", PeriodMs: 100, Scope: "inactive"},
		},
		OneShots: []OneShotSpec{
			{Hotkey: "f10", Key: "space", Scope: "all"},
			{Hotkey: "f11", Key: "f", Scope: "inactive"},
		},
		Shopping: ShoppingSpec{
			ConfirmKey:        "e",
			MoveDelayMs:       100,
			ConfirmIntervalMs: 1000,
			ConfirmPresses:    3,
			CooldownMs:        15000,
			RestartDelayMs:    1000,
			SettleDelayMs:     50,
			CycleLimit:        3,
			UtilityBoxes:      []int{2, 3},
		},
		BoxesPath:       filepath.Join(dir, "boxes.json"),
		HistoryPath:     filepath.Join(dir, "history.db"),
		SocketPath:      filepath.Join(os.TempDir(), "dd2-manager.sock"),
		Sound:           boolPtr(true),
		WatchIntervalMs: 2000,
	}
}

func boolPtr(b bool) *bool { return &b }

// DefaultConfig creates a default configuration rooted at dir.
func DefaultConfig(dir string, log *logger.Logger) (*Config, error) {
	log.Debug("Creating default configuration", "dir", dir)

	config := &Config{log: log}
	if err := config.apply(defaultFile(dir)); err != nil {
		return nil, err
	}

	log.Info("Created default configuration",
		"target", config.targetProcess,
		"hotkey_count", len(config.hotkeys),
		"sender_count", len(config.senders))
	return config, nil
}
