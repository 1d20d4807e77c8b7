// Package robot drives the real cursor. It is kept apart from package input
// because robotgo needs cgo.
package robot

import (
	"github.com/go-vgo/robotgo"

	"dd2-manager/internal/input"
	"dd2-manager/internal/models"
)

var _ input.Pointer = Pointer{}

// Pointer implements input.Pointer with robotgo.
type Pointer struct{}

func NewPointer() Pointer {
	return Pointer{}
}

func (Pointer) MoveTo(p models.Point) {
	robotgo.Move(p.X, p.Y)
}

func (Pointer) Click(button string) {
	if button == "" {
		button = "left"
	}
	robotgo.Click(button)
}

func (Pointer) Position() models.Point {
	x, y := robotgo.Location()
	return models.Point{X: x, Y: y}
}

func (r Pointer) SetPosition(p models.Point) {
	r.MoveTo(p)
}
