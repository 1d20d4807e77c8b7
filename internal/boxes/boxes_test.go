package boxes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dd2-manager/internal/models"
	"dd2-manager/pkg/logger"
)

type recorder struct{ msgs []string }

func (r *recorder) Report(m string) { r.msgs = append(r.msgs, m) }

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boxes.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultsLayout(t *testing.T) {
	d := Defaults()
	for i := 1; i < ShoppingCount; i++ {
		assert.Equal(t, d.Shopping[0].Y, d.Shopping[i].Y, "shopping boxes share a row")
		assert.Equal(t, defaultSpacing, d.Shopping[i].X-d.Shopping[i-1].X)
	}
	for i := range d.Utility {
		assert.Greater(t, d.Utility[i].Y, d.Shopping[0].Y, "utility row is below")
	}
}

func TestRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested", "boxes.json"), logger.Nop(), &recorder{})

	var s Set
	for i := range s.Shopping {
		s.Shopping[i] = models.Point{X: i * 10, Y: 500 - i}
	}
	s.Utility = [UtilityCount]models.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: -5, Y: 6}}

	require.NoError(t, store.Save(s))
	assert.Equal(t, s, store.Load())

	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestMissingUtilityBoxesYieldsFullDefaults(t *testing.T) {
	path := writeFile(t, `{"shoppingBoxes":[
		{"x":1,"y":1},{"x":2,"y":2},{"x":3,"y":3},{"x":4,"y":4},
		{"x":5,"y":5},{"x":6,"y":6},{"x":7,"y":7},{"x":8,"y":8}]}`)
	rep := &recorder{}

	got := NewStore(path, logger.Nop(), rep).Load()
	assert.Equal(t, Defaults(), got)
	assert.Len(t, rep.msgs, 1)
}

func TestMalformedJSONYieldsDefaultsAndReport(t *testing.T) {
	path := writeFile(t, `{"shoppingBoxes": [`)
	rep := &recorder{}

	got := NewStore(path, logger.Nop(), rep).Load()
	assert.Equal(t, Defaults(), got)
	require.Len(t, rep.msgs, 1)
	assert.Contains(t, rep.msgs[0], "using defaults")
}

func TestMissingFileIsSilent(t *testing.T) {
	rep := &recorder{}
	got := NewStore(filepath.Join(t.TempDir(), "none.json"), logger.Nop(), rep).Load()
	assert.Equal(t, Defaults(), got)
	assert.Empty(t, rep.msgs)
}

func TestDecodeRejects(t *testing.T) {
	eight := `[{"x":1,"y":1},{"x":1,"y":1},{"x":1,"y":1},{"x":1,"y":1},{"x":1,"y":1},{"x":1,"y":1},{"x":1,"y":1},{"x":1,"y":1}]`
	three := `[{"x":1,"y":1},{"x":1,"y":1},{"x":1,"y":1}]`

	cases := map[string]string{
		"wrong shopping length": `{"shoppingBoxes":[{"x":1,"y":1}],"utilityBoxes":` + three + `}`,
		"wrong utility length":  `{"shoppingBoxes":` + eight + `,"utilityBoxes":[]}`,
		"string coordinate":     `{"shoppingBoxes":` + eight + `,"utilityBoxes":[{"x":"1","y":1},{"x":1,"y":1},{"x":1,"y":1}]}`,
		"missing y":             `{"shoppingBoxes":` + eight + `,"utilityBoxes":[{"x":1},{"x":1,"y":1},{"x":1,"y":1}]}`,
		"extra key":             `{"shoppingBoxes":` + eight + `,"utilityBoxes":` + three + `,"more":1}`,
		"not an object":         `[1,2,3]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Decode([]byte(doc))
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Equal(t, Defaults(), got)
		})
	}

	got, err := Decode([]byte(`{"shoppingBoxes":` + eight + `,"utilityBoxes":` + three + `}`))
	require.NoError(t, err)
	assert.Equal(t, models.Point{X: 1, Y: 1}, got.Utility[2])
}

func TestSeedAndFromPositions(t *testing.T) {
	d := Defaults()
	seed := d.Seed()
	require.Len(t, seed, ShoppingCount+UtilityCount)

	back, err := FromPositions(seed)
	require.NoError(t, err)
	assert.Equal(t, d, back)

	_, err = FromPositions(seed[:3])
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	path := writeFile(t, `garbage`)
	store := NewStore(path, logger.Nop(), &recorder{})

	_, err := store.Reset()
	require.NoError(t, err)
	_, err = LoadFrom(path)
	assert.NoError(t, err)
}
