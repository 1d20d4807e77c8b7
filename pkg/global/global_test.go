package global

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dd2-manager/pkg/config"
	"dd2-manager/pkg/logger"
	"dd2-manager/pkg/notify"
)

func TestInitGlobalsStoresServicesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sound": false}`), 0644))

	log := logger.Nop()
	cfg, err := config.FindConfig(path, log)
	require.NoError(t, err)
	n := notify.NewNotifyService(log)
	t.Cleanup(n.Close)

	InitGlobals(cfg, log, n)

	gotCfg, gotLog, gotNotifier := GetAll()
	assert.Same(t, cfg, gotCfg)
	assert.Same(t, log, gotLog)
	assert.Same(t, n, gotNotifier)

	require.NotNil(t, GetSoundNotifier())
	assert.NoError(t, GetSoundNotifier().PlayStart(), "disabled sound is silent")

	other, err := config.DefaultConfig(t.TempDir(), log)
	require.NoError(t, err)
	InitGlobals(other, log, n)
	gotCfg, _, _ = GetAll()
	assert.Same(t, cfg, gotCfg, "second call has no effect")
}
