package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dd2-manager/internal/models"
	"dd2-manager/internal/wm"
	"dd2-manager/internal/wm/wmtest"
	"dd2-manager/pkg/logger"
)

type syncPoster struct{}

func (syncPoster) Post(fn func()) bool { fn(); return true }

type click struct {
	h  wm.Handle
	at models.Point
}

func TestStepReportsPressEdgeOnly(t *testing.T) {
	f := wmtest.New(1, 2)
	at := models.Point{X: 50, Y: 60}
	f.Points[at] = 2

	var clicks []click
	l := NewClickListener(f, func() models.Point { return at }, syncPoster{}, func(h wm.Handle, p models.Point) {
		clicks = append(clicks, click{h, p})
	}, logger.Nop())

	l.step()
	f.SetButton(true)
	l.step()
	l.step() // still held
	f.SetButton(false)
	l.step()
	f.SetButton(true)
	l.step()

	assert.Equal(t, []click{{2, at}, {2, at}}, clicks)
}

func TestEnableDisableIdempotent(t *testing.T) {
	f := wmtest.New()
	l := NewClickListener(f, func() models.Point { return models.Point{} }, syncPoster{}, func(wm.Handle, models.Point) {}, logger.Nop())

	l.Enable()
	l.Enable()
	assert.True(t, l.Enabled())
	l.Disable()
	l.Disable()
	assert.False(t, l.Enabled())
}

func TestHeldButtonAtEnableIsIgnored(t *testing.T) {
	f := wmtest.New()
	f.SetButton(true)
	count := 0
	l := NewClickListener(f, func() models.Point { return models.Point{} }, syncPoster{}, func(wm.Handle, models.Point) { count++ }, logger.Nop())

	l.Enable()
	l.Disable()
	l.step()
	assert.Zero(t, count)
}
