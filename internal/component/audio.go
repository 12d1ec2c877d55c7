package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/gamebus/internal/event"
	"github.com/dshills/gamebus/internal/event/catalog"
	"github.com/dshills/gamebus/internal/lifecycle"
)

// Sink plays audio cues.
type Sink interface {
	Play(cue string, volume float64)
}

// LogSink is a Sink that writes cues to a logger. It is the default for
// headless hosts.
type LogSink struct {
	Logger zerolog.Logger
}

// Play implements Sink.
func (s LogSink) Play(cue string, volume float64) {
	s.Logger.Info().Str("cue", cue).Float64("volume", volume).Msg("audio")
}

// RecordingSink remembers every played cue.
type RecordingSink struct {
	mu     sync.Mutex
	played []PlayedCue
}

// PlayedCue is one recorded call to Play.
type PlayedCue struct {
	Cue    string
	Volume float64
}

// Play implements Sink.
func (s *RecordingSink) Play(cue string, volume float64) {
	s.mu.Lock()
	s.played = append(s.played, PlayedCue{Cue: cue, Volume: volume})
	s.mu.Unlock()
}

// Played returns a copy of the recorded cues.
func (s *RecordingSink) Played() []PlayedCue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PlayedCue, len(s.played))
	copy(out, s.played)
	return out
}

// AudioTrigger plays a cue for each configured event kind it hears. It also
// follows options.volume_changed broadcasts, whose first parameter is the new
// master volume in [0, 1].
type AudioTrigger struct {
	mu     sync.Mutex
	cues   map[catalog.Kind]string
	volume float64
	sink   Sink
}

// NewAudioTrigger creates an audio trigger. A nil sink is replaced by a
// LogSink on the component's logger at Enable.
func NewAudioTrigger(cues map[catalog.Kind]string, volume float64, sink Sink) *AudioTrigger {
	cp := make(map[catalog.Kind]string, len(cues))
	for k, v := range cues {
		cp[k] = v
	}
	return &AudioTrigger{cues: cp, volume: clamp01(volume), sink: sink}
}

func newAudioTriggerFromParams(p Params) (lifecycle.Component, error) {
	raw, err := p.StringMap("cues")
	if err != nil {
		return nil, err
	}
	// Keys may be patterns such as "gameplay.*". When several keys select
	// the same kind the most specific one wins, ties broken by key order.
	type cueKey struct {
		pattern catalog.Pattern
		cue     string
	}
	keys := make([]cueKey, 0, len(raw))
	for s, cue := range raw {
		pat, err := catalog.ParsePattern(s)
		if err != nil {
			return nil, fmt.Errorf("audio: %w", err)
		}
		keys = append(keys, cueKey{pattern: pat, cue: cue})
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := keys[i].pattern.Rank(), keys[j].pattern.Rank()
		if ri != rj {
			return ri < rj
		}
		return keys[i].pattern.String() < keys[j].pattern.String()
	})

	cues := make(map[catalog.Kind]string, len(raw))
	for _, key := range keys {
		kinds, err := catalog.Select(key.pattern.String())
		if err != nil {
			return nil, fmt.Errorf("audio: %w", err)
		}
		for _, k := range kinds {
			if _, taken := cues[k]; !taken {
				cues[k] = key.cue
			}
		}
	}
	volume, err := p.Float("volume", 1)
	if err != nil {
		return nil, err
	}
	return NewAudioTrigger(cues, volume, nil), nil
}

// Enable subscribes once per cue kind, plus volume changes.
func (a *AudioTrigger) Enable(ctx *lifecycle.Context) error {
	if a.sink == nil {
		a.sink = LogSink{Logger: ctx.Logger}
	}

	kinds := make([]catalog.Kind, 0, len(a.cues))
	for k := range a.cues {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].String() < kinds[j].String() })

	for _, k := range kinds {
		cue := a.cues[k]
		if _, err := ctx.On(event.On(k), func(event.Payload) { a.play(cue) }, event.WithName("audio."+cue)); err != nil {
			return err
		}
	}
	_, err := ctx.On(event.On(catalog.VolumeChanged), a.onVolume, event.WithName("audio.volume"))
	return err
}

// Disable implements lifecycle.Component.
func (a *AudioTrigger) Disable() {}

// Volume returns the current master volume.
func (a *AudioTrigger) Volume() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.volume
}

func (a *AudioTrigger) play(cue string) {
	a.mu.Lock()
	volume := a.volume
	a.mu.Unlock()

	if volume == 0 {
		return
	}
	a.sink.Play(cue, volume)
}

func (a *AudioTrigger) onVolume(p event.Payload) {
	v, ok := p.Float(0)
	if !ok {
		return
	}
	a.mu.Lock()
	a.volume = clamp01(v)
	a.mu.Unlock()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
