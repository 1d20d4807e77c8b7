//go:build !windows

package hotkeys

import "dd2-manager/pkg/core"

func NewRegistrar(log core.Logger) (Registrar, error) {
	return nil, ErrUnsupported
}
