package app

import (
	"context"
	"fmt"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"dd2-manager/internal/boxes"
	"dd2-manager/internal/hotkeys"
	"dd2-manager/internal/input/robot"
	"dd2-manager/internal/ipc"
	"dd2-manager/internal/overlay"
	"dd2-manager/internal/storage"
	"dd2-manager/internal/wm"
	"dd2-manager/pkg/config"
	"dd2-manager/pkg/global"
	"dd2-manager/pkg/logger"
	"dd2-manager/pkg/notify"
)

type Options struct {
	Debug bool
	NoGUI bool
}

// App wires the controller to the real platform, the IPC socket and the
// control panel.
type App struct {
	cfg      *config.Config
	log      *logger.Logger
	notifier *notify.NotifyService
	opts     Options

	ctrl    *Controller
	server  *ipc.Server
	history *storage.DB
}

// New builds the app from the services stored by global.InitGlobals.
func New(opts Options) (*App, error) {
	cfg, log, notifier := global.GetAll()
	if cfg == nil || log == nil || notifier == nil {
		return nil, fmt.Errorf("globals are not initialized")
	}
	log.Debug("Initializing dd2-manager", "debug_mode", opts.Debug, "gui", !opts.NoGUI)

	manager, err := wm.NewManager(log)
	if err != nil {
		return nil, err
	}

	registrar, err := hotkeys.NewRegistrar(log)
	if err != nil {
		return nil, err
	}

	history, err := storage.Open(cfg.GetHistoryPath(), log)
	if err != nil {
		log.Warn("Run history disabled", "error", err.Error())
		history = nil
	}

	svc := Services{
		WM:        manager,
		Registrar: registrar,
		Overlays:  overlay.NewFactory(log),
		Pointer:   robot.NewPointer(),
		Boxes:     boxes.NewStore(cfg.GetBoxesPath(), log, notifier),
		Chimes:    global.GetSoundNotifier(),
		Exit:      os.Exit,
	}
	if history != nil {
		svc.History = history
	}

	ctrl, err := NewController(cfg, log, notifier, svc)
	if err != nil {
		if history != nil {
			history.Close()
		}
		return nil, err
	}

	return &App{
		cfg:      cfg,
		log:      log,
		notifier: notifier,
		opts:     opts,
		ctrl:     ctrl,
		server:   ipc.NewServer(cfg.GetSocketPath(), ctrl, log),
		history:  history,
	}, nil
}

// Run starts the loop, the controller and the socket server, then blocks
// in the panel (or until ctx is done without a GUI).
func (a *App) Run(ctx context.Context) error {
	a.log.Info("Starting dd2-manager", "process", a.cfg.GetTargetProcess())

	// The loop outlives ctx so Cleanup can still run the shutdown on it.
	loopErr := make(chan error, 1)
	go func() { loopErr <- a.ctrl.Loop().Run(context.Background()) }()

	if err := a.ctrl.Loop().Do(ctx, func() { a.ctrl.Start() }); err != nil {
		a.ctrl.Loop().Stop()
		return fmt.Errorf("failed to start controller: %w", err)
	}

	if err := a.server.Start(); err != nil {
		a.log.Error("IPC disabled", err)
		a.notifier.Report(fmt.Sprintf("Error: remote commands unavailable: %v", err))
	}
	defer a.Cleanup()

	if a.opts.NoGUI {
		select {
		case <-ctx.Done():
		case <-a.ctrl.Loop().Done():
		}
		return nil
	}

	fa := fyneapp.NewWithID("dd2-manager")
	var debug *DebugWindow
	if a.opts.Debug {
		debug = NewDebugWindow(fa)
		a.log.AddWriter(debug)
	}
	panel := NewPanel(fa, a.ctrl, debug)
	a.notifier.AddSink(panel)
	a.ctrl.Post(a.ctrl.notifyChanged)

	// Window close ends the program, same as ctx cancellation or a stopped loop.
	go func() {
		select {
		case <-ctx.Done():
		case <-a.ctrl.Loop().Done():
		}
		fa.Quit()
	}()

	panel.Window().SetMaster()
	panel.Window().ShowAndRun()

	select {
	case err := <-loopErr:
		return err
	default:
	}
	return nil
}

// Cleanup persists state and releases the OS hooks.
func (a *App) Cleanup() {
	a.log.Info("Cleaning up dd2-manager")

	ctx, cancel := context.WithTimeout(context.Background(), teardownDeadline)
	defer cancel()
	if err := a.ctrl.Loop().Do(ctx, a.ctrl.Shutdown); err != nil {
		a.log.Warn("Controller shutdown incomplete", "error", err.Error())
	}
	a.ctrl.Loop().Stop()

	if err := a.server.Close(); err != nil {
		a.log.Warn("Failed to close socket server", "error", err.Error())
	}
	if a.history != nil {
		a.history.Close()
	}
}
