package global

import (
	"sync"

	"dd2-manager/pkg/config"
	"dd2-manager/pkg/logger"
	"dd2-manager/pkg/notify"
	"dd2-manager/pkg/sound"
)

var (
	cfg           *config.Config
	log           *logger.Logger
	notifier      *notify.NotifyService
	soundNotifier *sound.SoundNotifier
	initOnce      sync.Once
	mu            sync.RWMutex
)

// InitGlobals stores the process-wide services. Only the first call has an
// effect. A sound failure is logged and leaves the sound notifier nil.
func InitGlobals(config *config.Config, logger *logger.Logger, n *notify.NotifyService) {
	initOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		cfg = config
		log = logger
		notifier = n

		sn, err := sound.NewSoundNotifier(config.SoundEnabled())
		if err != nil {
			logger.Error("Failed to initialize sound notifier", err)
		} else {
			soundNotifier = sn
		}
	})
}

func GetSoundNotifier() *sound.SoundNotifier {
	mu.RLock()
	defer mu.RUnlock()
	return soundNotifier
}

// GetAll returns all global instances at once.
func GetAll() (*config.Config, *logger.Logger, *notify.NotifyService) {
	mu.RLock()
	defer mu.RUnlock()
	return cfg, log, notifier
}
