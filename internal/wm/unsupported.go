//go:build !windows

package wm

func newPlatformManager() (WindowManager, error) {
	return nil, ErrUnsupported
}
