package rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dd2-manager/internal/window"
	"dd2-manager/internal/wm"
	"dd2-manager/internal/wm/wmtest"
	"dd2-manager/pkg/logger"
)

type applied struct {
	set  window.Set
	main int
}

type fakeLayout struct{ calls []applied }

func (f *fakeLayout) ApplyLayout(set window.Set, main int) error {
	f.calls = append(f.calls, applied{set: set, main: main})
	return nil
}

type recorder struct{ msgs []string }

func (r *recorder) Report(m string) { r.msgs = append(r.msgs, m) }

func setup(handles ...wm.Handle) (*Rotator, *wmtest.Fake, *fakeLayout, *recorder) {
	f := wmtest.New(handles...)
	reg := window.NewRegistry(f, "DunDefGame.exe", logger.Nop())
	lay := &fakeLayout{}
	rep := &recorder{}
	return NewRotator(reg, lay, logger.Nop(), rep), f, lay, rep
}

func TestRotateCycleLength(t *testing.T) {
	for n := 1; n <= 4; n++ {
		handles := make([]wm.Handle, n)
		for i := range handles {
			handles[i] = wm.Handle(100 + i)
		}
		r, _, _, _ := setup(handles...)
		start := r.Selector()

		for i := 0; i < n; i++ {
			require.NoError(t, r.Rotate(Forward))
		}
		assert.Equal(t, start.Index, r.Selector().Index, "n=%d", n)
	}
}

func TestRotateForwardThenBackwardIsIdentity(t *testing.T) {
	r, _, _, _ := setup(1, 2, 3)
	require.NoError(t, r.Rotate(Forward))
	before := r.Selector()

	require.NoError(t, r.Rotate(Forward))
	require.NoError(t, r.Rotate(Backward))
	assert.Equal(t, before, r.Selector())
}

func TestRotateWrapsBothWays(t *testing.T) {
	r, _, lay, _ := setup(1, 2, 3)

	require.NoError(t, r.Rotate(Backward))
	assert.Equal(t, Selector{Index: 2, LastHandle: 3}, r.Selector())
	assert.Equal(t, 2, lay.calls[0].main)

	require.NoError(t, r.Rotate(Forward))
	assert.Equal(t, Selector{Index: 0, LastHandle: 1}, r.Selector())
}

func TestRotateSingleWindowRotatesToItself(t *testing.T) {
	r, _, lay, _ := setup(42)
	require.NoError(t, r.Rotate(Forward))
	assert.Equal(t, Selector{Index: 0, LastHandle: 42}, r.Selector())
	require.Len(t, lay.calls, 1)
}

func TestRotateEmptyLeavesSelectorUnchanged(t *testing.T) {
	r, f, lay, rep := setup(1, 2)
	require.NoError(t, r.Rotate(Forward))
	before := r.Selector()

	f.Windows = nil
	err := r.Rotate(Forward)
	assert.ErrorIs(t, err, window.ErrNoWindows)
	assert.Equal(t, before, r.Selector())
	assert.Len(t, lay.calls, 1)
	assert.Contains(t, rep.msgs[len(rep.msgs)-1], "nothing to rotate")
}

func TestRotateFollowsLastHandleAcrossReorder(t *testing.T) {
	r, f, _, _ := setup(1, 2, 3)
	require.NoError(t, r.Rotate(Forward)) // main = 2

	f.Windows = []wm.Handle{3, 2, 1}
	require.NoError(t, r.Rotate(Forward))
	assert.Equal(t, Selector{Index: 2, LastHandle: 1}, r.Selector())
}

func TestRotateClampsWhenSetShrinks(t *testing.T) {
	r, f, _, _ := setup(1, 2, 3, 4)
	require.NoError(t, r.Rotate(Backward)) // index 3, handle 4

	f.Windows = []wm.Handle{1, 2}
	require.NoError(t, r.Rotate(Forward))
	// start clamps to 1, forward wraps to 0
	assert.Equal(t, Selector{Index: 0, LastHandle: 1}, r.Selector())
}

func TestSelect(t *testing.T) {
	r, _, lay, _ := setup(1, 2, 3)

	require.NoError(t, r.Select(3))
	assert.Equal(t, Selector{Index: 2, LastHandle: 3}, r.Selector())
	assert.Equal(t, 2, lay.calls[0].main)

	assert.ErrorIs(t, r.Select(99), ErrNotTracked)
	assert.Len(t, lay.calls, 1)
}

func TestRefreshEmptyResetsSelector(t *testing.T) {
	r, f, lay, rep := setup(1, 2)
	require.NoError(t, r.Select(2))

	f.Windows = nil
	n, err := r.Refresh()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, Selector{}, r.Selector())
	assert.Len(t, lay.calls, 1)
	assert.Contains(t, rep.msgs[len(rep.msgs)-1], "found 0 windows")
}

func TestRefreshKeepsMain(t *testing.T) {
	r, f, lay, _ := setup(1, 2, 3)
	require.NoError(t, r.Select(2))

	f.Windows = []wm.Handle{4, 2}
	n, err := r.Refresh()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, lay.calls[len(lay.calls)-1].main)

	h, ok := r.Main()
	assert.True(t, ok)
	assert.Equal(t, wm.Handle(2), h)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("down")
	require.NoError(t, err)
	assert.Equal(t, Backward, d)

	d, err = ParseDirection("Up")
	require.NoError(t, err)
	assert.Equal(t, Forward, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
