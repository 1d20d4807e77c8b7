package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dd2-manager/pkg/config"
	"dd2-manager/pkg/logger"
	"dd2-manager/pkg/notify"
)

const version = "1.0.0"

var (
	configPath string
	debug      bool

	log      *logger.Logger
	cfg      *config.Config
	notifier *notify.NotifyService
)

var rootCmd = &cobra.Command{
	Use:           "dd2-manager",
	Short:         "Lay out, rotate and drive several Dungeon Defenders 2 windows",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Name() == "run")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if notifier != nil {
			notifier.Close()
		}
		if log != nil {
			log.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (.json, .yaml or .yml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.Version = version
}

// setup initializes the logger first for early logging, then the config.
// Only the long-running command logs to the console.
func setup(console bool) error {
	logLevel := zerolog.InfoLevel
	if debug {
		logLevel = zerolog.DebugLevel
	}

	opts := []logger.Option{logger.WithLevel(logLevel)}
	if console {
		opts = append(opts, logger.WithConsole())
	}

	var err error
	log, err = logger.NewLogger(opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info("Starting dd2-manager",
		"version", version,
		"pid", os.Getpid(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
		"debug", debug)

	log.Debug("Loading configuration", "provided_path", configPath)
	cfg, err = config.FindConfig(configPath, log)
	if err != nil {
		log.Error("Failed to load configuration", err, "provided_path", configPath)
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Info("Configuration loaded successfully",
		"path", cfg.Path(),
		"target", cfg.GetTargetProcess(),
		"hotkey_count", len(cfg.GetHotkeys()))

	sinks := []notify.Sink{notify.LogSink(log)}
	if console {
		if notify.IsRunningInTerminal() {
			sinks = append(sinks, notify.TerminalSink(os.Stdout))
		}
		if dir, err := config.DefaultDir(); err == nil {
			if fs, err := notify.FileSink(filepath.Join(dir, "logs", "status.log")); err == nil {
				sinks = append(sinks, fs)
			} else {
				log.Warn("Status log file unavailable", "error", err.Error())
			}
		}
	}
	notifier = notify.NewNotifyService(log, sinks...)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
