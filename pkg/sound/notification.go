// Package sound plays short synthesized chimes for macro start and finish.
package sound

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	noteLength = 120 * time.Millisecond
	noteGap    = 30 * time.Millisecond
)

var (
	startNotes  = []float64{523.25, 783.99}
	finishNotes = []float64{783.99, 523.25}
)

type SoundNotifier struct {
	mu      sync.Mutex
	enabled bool
}

// NewSoundNotifier initializes the speaker. A disabled notifier never
// touches the audio device.
func NewSoundNotifier(enabled bool) (*SoundNotifier, error) {
	if enabled {
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			return nil, fmt.Errorf("failed to initialize audio: %w", err)
		}
	}
	return &SoundNotifier{enabled: enabled}, nil
}

// PlayStart is the rising two-note chime. It returns without waiting for
// playback.
func (s *SoundNotifier) PlayStart() error {
	return s.play(startNotes)
}

// PlayFinish is the falling chime.
func (s *SoundNotifier) PlayFinish() error {
	return s.play(finishNotes)
}

func (s *SoundNotifier) play(notes []float64) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return nil
	}

	streamer, err := chime(sampleRate, notes)
	if err != nil {
		return err
	}
	speaker.Play(streamer)
	return nil
}

// chime builds a sequence of sine notes separated by short silences.
func chime(sr beep.SampleRate, notes []float64) (beep.Streamer, error) {
	parts := make([]beep.Streamer, 0, len(notes)*2)
	for i, freq := range notes {
		tone, err := generators.SineTone(sr, freq)
		if err != nil {
			return nil, fmt.Errorf("failed to build %.2f Hz tone: %w", freq, err)
		}
		parts = append(parts, beep.Take(sr.N(noteLength), tone))
		if i < len(notes)-1 {
			parts = append(parts, beep.Silence(sr.N(noteGap)))
		}
	}
	return &effects.Volume{
		Streamer: beep.Seq(parts...),
		Base:     2,
		Volume:   -2,
	}, nil
}
