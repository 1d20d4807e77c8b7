package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dd2-manager/internal/app"
	"dd2-manager/pkg/global"
)

var noGUI bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the window manager, hotkeys and control panel",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Debug("Initializing global instances")
		global.InitGlobals(cfg, log, notifier)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Debug("Creating dd2-manager instance")
		a, err := app.New(app.Options{Debug: debug, NoGUI: noGUI})
		if err != nil {
			log.Error("Failed to create dd2-manager", err)
			return err
		}

		log.Info("Starting application")
		if err := a.Run(ctx); err != nil {
			log.Error("Application error", err)
			return err
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&noGUI, "no-gui", false, "run without the control panel")
	rootCmd.AddCommand(runCmd)
}
