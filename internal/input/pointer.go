package input

import "dd2-manager/internal/models"

// Pointer is the mouse as seen by the shopping macro. The robotgo-backed
// implementation lives in input/robot.
type Pointer interface {
	MoveTo(p models.Point)
	Click(button string)
	Position() models.Point
	SetPosition(p models.Point)
}
