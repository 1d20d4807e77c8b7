// Package overlaytest provides an in-memory overlay for tests.
package overlaytest

import (
	"dd2-manager/internal/models"
	"dd2-manager/internal/overlay"
)

type Overlay struct {
	Markers         []overlay.Marker
	ClickThrough    bool
	UtilityHidden   bool
	Hidden          bool
	Destroyed       bool
	HideCount       int
	ShowCount       int
	ClickThroughErr error
}

func (o *Overlay) Positions() []models.Point {
	out := make([]models.Point, len(o.Markers))
	for i, m := range o.Markers {
		out[i] = m.Pos
	}
	return out
}

func (o *Overlay) SetClickThrough(enabled bool) error {
	if o.ClickThroughErr != nil {
		return o.ClickThroughErr
	}
	o.ClickThrough = enabled
	return nil
}

func (o *Overlay) HideUtilityMarkers() { o.UtilityHidden = true }

func (o *Overlay) Hide() {
	o.Hidden = true
	o.HideCount++
}

func (o *Overlay) Show() {
	o.Hidden = false
	o.ShowCount++
}

func (o *Overlay) Destroy() { o.Destroyed = true }

// Move simulates the operator dragging marker i.
func (o *Overlay) Move(i int, p models.Point) {
	o.Markers[i].Pos = p
}

// Factory records every overlay it creates.
type Factory struct {
	Created []*Overlay
	Err     error
}

func (f *Factory) Create(markers []overlay.Marker) (overlay.Overlay, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	o := &Overlay{Markers: append([]overlay.Marker(nil), markers...)}
	f.Created = append(f.Created, o)
	return o, nil
}

// Last returns the most recently created overlay, or nil.
func (f *Factory) Last() *Overlay {
	if len(f.Created) == 0 {
		return nil
	}
	return f.Created[len(f.Created)-1]
}
