//go:build !windows

package overlay

import "dd2-manager/pkg/core"

// NewFactory returns a factory whose Create always fails off Windows.
func NewFactory(log core.Logger) Factory {
	return FactoryFunc(func([]Marker) (Overlay, error) {
		return nil, ErrUnsupported
	})
}
