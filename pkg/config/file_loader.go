package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"dd2-manager/pkg/logger"
)

// fileConfig is the on-disk shape shared by JSON and YAML.
type fileConfig struct {
	TargetProcess   string                `json:"target_process" yaml:"target_process"`
	Layout          LayoutSpec            `json:"layout" yaml:"layout"`
	Hotkeys         map[string]string     `json:"hotkeys" yaml:"hotkeys"`
	Senders         map[string]SenderSpec `json:"senders" yaml:"senders"`
	OneShots        []OneShotSpec         `json:"one_shots" yaml:"one_shots"`
	Shopping        ShoppingSpec          `json:"shopping" yaml:"shopping"`
	BoxesPath       string                `json:"boxes_path" yaml:"boxes_path"`
	HistoryPath     string                `json:"history_path" yaml:"history_path"`
	SocketPath      string                `json:"socket_path" yaml:"socket_path"`
	Sound           *bool                 `json:"sound" yaml:"sound"`
	WatchIntervalMs int                   `json:"watch_interval_ms" yaml:"watch_interval_ms"`
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFromFile loads the configuration from a JSON or YAML file. Keys that
// are absent keep their default values.
func (c *Config) LoadFromFile(path string, log *logger.Logger) error {
	log.Debug("Loading configuration from file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("Failed to read config file", err, "path", path)
		return err
	}
	log.Debug("Config file read successfully", "size_bytes", len(data))

	temp := defaultFile(filepath.Dir(path))
	if isYAML(path) {
		err = yaml.Unmarshal(data, &temp)
	} else {
		err = json.Unmarshal(data, &temp)
	}
	if err != nil {
		log.Error("Failed to parse config", err, "path", path)
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	log.Debug("Config parsed successfully")

	c.path = path
	return c.apply(temp)
}

// apply validates f and copies it into the private fields.
func (c *Config) apply(f fileConfig) error {
	if err := f.validate(); err != nil {
		return err
	}

	c.targetProcess = f.TargetProcess
	c.layout = f.Layout
	c.hotkeys = f.Hotkeys
	c.senders = f.Senders
	c.oneShots = f.OneShots
	c.shopping = f.Shopping
	c.boxesPath = f.BoxesPath
	c.historyPath = f.HistoryPath
	c.socketPath = f.SocketPath
	c.sound = f.Sound == nil || *f.Sound
	c.watchIntervalMs = f.WatchIntervalMs
	return nil
}

func (c *Config) toFile() fileConfig {
	return fileConfig{
		TargetProcess:   c.targetProcess,
		Layout:          c.layout,
		Hotkeys:         c.GetHotkeys(),
		Senders:         c.senders,
		OneShots:        c.GetOneShots(),
		Shopping:        c.GetShopping(),
		BoxesPath:       c.boxesPath,
		HistoryPath:     c.historyPath,
		SocketPath:      c.socketPath,
		Sound:           boolPtr(c.sound),
		WatchIntervalMs: c.watchIntervalMs,
	}
}

// WriteFile saves the configuration, as YAML for .yaml/.yml paths.
func (c *Config) WriteFile(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c.toFile())
	} else {
		data, err = json.MarshalIndent(c.toFile(), "", "    ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// loadConfigFromPath loads the configuration from a file.
func loadConfigFromPath(path string, log *logger.Logger) (*Config, error) {
	config := &Config{log: log}
	if err := config.LoadFromFile(path, log); err != nil {
		return nil, err
	}
	return config, nil
}
