package models

import (
	"fmt"
	"time"
)

// Point is a screen coordinate in pixels.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Rect is a screen rectangle in Win32 form: right and bottom are exclusive.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// NewRect builds a Rect from an origin and a size.
func NewRect(x, y, width, height int) Rect {
	return Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Center returns the midpoint, rounded toward the top-left.
func (r Rect) Center() Point {
	return Point{X: r.Left + r.Width()/2, Y: r.Top + r.Height()/2}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// Run is one auto-shopping session as kept in history.
type Run struct {
	ID     string
	Start  time.Time
	End    time.Time
	Cycles int
	Reason string
}

// Duration is zero for runs that never finished.
func (r Run) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}
