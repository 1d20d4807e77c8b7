package config

import (
	"time"

	"dd2-manager/pkg/logger"
)

// LayoutSpec is the fixed size of the main window and the gap between slots.
type LayoutSpec struct {
	MainWidth  int `json:"main_width" yaml:"main_width"`
	MainHeight int `json:"main_height" yaml:"main_height"`
	Padding    int `json:"padding" yaml:"padding"`
}

// SenderSpec configures one periodic broadcaster.
type SenderSpec struct {
	Key      string `json:"key" yaml:"key"`
	PeriodMs int    `json:"period_ms" yaml:"period_ms"`
	Scope    string `json:"scope" yaml:"scope"`
}

func (s SenderSpec) Period() time.Duration {
	return time.Duration(s.PeriodMs) * time.Millisecond
}

// OneShotSpec binds a hotkey to a single broadcast.
type OneShotSpec struct {
	Hotkey string `json:"hotkey" yaml:"hotkey"`
	Key    string `json:"key" yaml:"key"`
	Scope  string `json:"scope" yaml:"scope"`
}

// ShoppingSpec holds the macro timings in milliseconds.
type ShoppingSpec struct {
	ConfirmKey        string `json:"confirm_key" yaml:"confirm_key"`
	MoveDelayMs       int    `json:"move_delay_ms" yaml:"move_delay_ms"`
	ConfirmIntervalMs int    `json:"confirm_interval_ms" yaml:"confirm_interval_ms"`
	ConfirmPresses    int    `json:"confirm_presses" yaml:"confirm_presses"`
	CooldownMs        int    `json:"cooldown_ms" yaml:"cooldown_ms"`
	RestartDelayMs    int    `json:"restart_delay_ms" yaml:"restart_delay_ms"`
	SettleDelayMs     int    `json:"settle_delay_ms" yaml:"settle_delay_ms"`
	CycleLimit        int    `json:"cycle_limit" yaml:"cycle_limit"`
	UtilityBoxes      []int  `json:"utility_boxes" yaml:"utility_boxes"`
}

// Config holds the application configuration.
type Config struct {
	// Configurable via file (private fields to enforce immutability)
	targetProcess   string
	layout          LayoutSpec
	hotkeys         map[string]string
	senders         map[string]SenderSpec
	oneShots        []OneShotSpec
	shopping        ShoppingSpec
	boxesPath       string
	historyPath     string
	socketPath      string
	sound           bool
	watchIntervalMs int

	// Internal fields
	path string
	log  *logger.Logger
}

// New creates a new Config instance with the provided logger.
func New(log *logger.Logger) *Config {
	return &Config{
		log: log,
	}
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) GetTargetProcess() string {
	return c.targetProcess
}

func (c *Config) GetLayout() LayoutSpec {
	return c.layout
}

func (c *Config) GetShopping() ShoppingSpec {
	s := c.shopping
	s.UtilityBoxes = append([]int(nil), c.shopping.UtilityBoxes...)
	return s
}

func (c *Config) GetBoxesPath() string {
	return c.boxesPath
}

func (c *Config) GetHistoryPath() string {
	return c.historyPath
}

func (c *Config) GetSocketPath() string {
	return c.socketPath
}

func (c *Config) SoundEnabled() bool {
	return c.sound
}

// GetWatchInterval is how often the window watcher re-discovers.
func (c *Config) GetWatchInterval() time.Duration {
	return time.Duration(c.watchIntervalMs) * time.Millisecond
}
