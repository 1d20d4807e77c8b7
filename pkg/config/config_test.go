package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dd2-manager/pkg/logger"
)

func TestDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := DefaultConfig(dir, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, DefaultProcess, cfg.GetTargetProcess())
	assert.Equal(t, LayoutSpec{MainWidth: 1720, MainHeight: 900}, cfg.GetLayout())
	assert.Equal(t, "f9", cfg.GetHotkey(ActionCycleShopping))
	assert.Equal(t, []string{SenderA, SenderB}, cfg.GetSenderNames())
	assert.Equal(t, filepath.Join(dir, "boxes.json"), cfg.GetBoxesPath())
	assert.True(t, cfg.SoundEnabled())

	a, ok := cfg.GetSender(SenderA)
	require.True(t, ok)
	assert.Equal(t, int64(1200), a.Period().Milliseconds())
}

func TestGettersReturnCopies(t *testing.T) {
	cfg, err := DefaultConfig(t.TempDir(), logger.Nop())
	require.NoError(t, err)

	hk := cfg.GetHotkeys()
	hk[ActionSelectMain] = "f1"
	assert.Equal(t, "f8", cfg.GetHotkey(ActionSelectMain))

	shop := cfg.GetShopping()
	shop.UtilityBoxes[0] = 1
	assert.Equal(t, []int{2, 3}, cfg.GetShopping().UtilityBoxes)
}

func TestLoadJSONOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"target_process": "Other.exe",
		"layout": {"main_width": 1280, "main_height": 720, "padding": 4},
		"sound": false
	}`), 0644))

	cfg := New(logger.Nop())
	require.NoError(t, cfg.LoadFromFile(path, logger.Nop()))
	assert.Equal(t, "Other.exe", cfg.GetTargetProcess())
	assert.Equal(t, 4, cfg.GetLayout().Padding)
	assert.False(t, cfg.SoundEnabled())
	assert.Equal(t, "e", cfg.GetShopping().ConfirmKey)
	assert.Equal(t, path, cfg.Path())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
target_process: Game.exe
senders:
  a:
    key: "3"
    period_ms: 500
    scope: inactive
`), 0644))

	cfg := New(logger.Nop())
	require.NoError(t, cfg.LoadFromFile(path, logger.Nop()))
	a, ok := cfg.GetSender(SenderA)
	require.True(t, ok)
	assert.Equal(t, "3", a.Key)
	assert.Equal(t, "inactive", a.Scope)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"empty process":  `{"target_process": ""}`,
		"bad layout":     `{"layout": {"main_width": 0, "main_height": 900}}`,
		"unknown action": `{"hotkeys": {"dance": "f1"}}`,
		"bad scope":      `{"senders": {"a": {"key": "1", "period_ms": 10, "scope": "some"}}}`,
		"zero period":    `{"senders": {"a": {"key": "1", "period_ms": 0}}}`,
		"utility range":  `{"shopping": {"confirm_key": "e", "confirm_interval_ms": 1, "confirm_presses": 1, "cycle_limit": 1, "utility_boxes": [4]}}`,
		"malformed":      `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			assert.Error(t, New(logger.Nop()).LoadFromFile(path, logger.Nop()))
		})
	}
}

func TestFindCreatesDefaultFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), AppDir)
	cfg, err := findIn(dir, "", logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultProcess, cfg.GetTargetProcess())
	assert.FileExists(t, filepath.Join(dir, DefaultConfigFile))

	again, err := findIn(dir, "", logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, cfg.GetHotkeys(), again.GetHotkeys())
}

func TestFindFallsBackOnBrokenDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("not json"), 0644))

	cfg, err := findIn(dir, "", logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultProcess, cfg.GetTargetProcess())
}

func TestFindExplicitPathMustLoad(t *testing.T) {
	dir := t.TempDir()
	_, err := findIn(dir, filepath.Join(dir, "missing.json"), logger.Nop())
	assert.Error(t, err)
}

func TestWriteFileRoundTripYAML(t *testing.T) {
	dir := t.TempDir()
	cfg, err := DefaultConfig(dir, logger.Nop())
	require.NoError(t, err)

	path := filepath.Join(dir, "out.yml")
	require.NoError(t, cfg.WriteFile(path))

	loaded := New(logger.Nop())
	require.NoError(t, loaded.LoadFromFile(path, logger.Nop()))
	assert.Equal(t, cfg.GetOneShots(), loaded.GetOneShots())
	assert.Equal(t, cfg.GetShopping(), loaded.GetShopping())
}
