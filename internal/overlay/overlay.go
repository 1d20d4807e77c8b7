// Package overlay shows small always-on-top markers the operator drags onto
// the shop's click targets.
package overlay

import (
	"errors"

	"dd2-manager/internal/models"
)

// ErrUnsupported is returned by the factory on platforms without an overlay.
var ErrUnsupported = errors.New("overlay is only supported on Windows")

type Kind int

const (
	KindShopping Kind = iota
	KindUtility
)

// Marker is one draggable target. Pos is its center.
type Marker struct {
	Label string
	Kind  Kind
	Pos   models.Point
}

// Overlay is a live set of markers. Positions are reported in creation order.
type Overlay interface {
	Positions() []models.Point
	SetClickThrough(enabled bool) error
	HideUtilityMarkers()
	Hide()
	Show()
	Destroy()
}

type Factory interface {
	Create(markers []Marker) (Overlay, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(markers []Marker) (Overlay, error)

func (f FactoryFunc) Create(markers []Marker) (Overlay, error) { return f(markers) }
