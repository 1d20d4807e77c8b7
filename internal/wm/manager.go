package wm

import (
	"fmt"
	"runtime"

	"dd2-manager/pkg/core"
)

// Manager handles window management operations for the running platform
type Manager struct {
	WindowManager
}

// NewManager creates a new window manager based on the operating system
func NewManager(log core.Logger) (*Manager, error) {
	log.Info("Platform detected", "os", runtime.GOOS, "arch", runtime.GOARCH)

	wm, err := newPlatformManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize window manager: %w", err)
	}

	log.Info("Window manager initialized", "name", wm.Name())
	return &Manager{WindowManager: wm}, nil
}
