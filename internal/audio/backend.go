package audio

import (
	"fmt"
	"strings"
	"time"
)

type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendOto    Backend = "oto"
	// BackendNone renders nothing. Scheduling still runs in real time.
	BackendNone Backend = "none"
)

// Output is a running audio stream pulling from a SampleSource.
type Output interface {
	Play()
	Pause()
	Stop() error
	// Position is how much audio the listener has heard so far.
	Position() time.Duration
}

func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendEbiten, BackendOto, BackendNone:
		return b, nil
	case "":
		return BackendEbiten, nil
	}
	return "", fmt.Errorf("unknown audio backend %q", s)
}

// Open creates a paused output for source on the given backend.
func Open(backend Backend, sampleRate int, source SampleSource) (Output, error) {
	switch backend {
	case BackendEbiten, "":
		return newEbitenOutput(sampleRate, source)
	case BackendOto:
		return newOtoOutput(sampleRate, source)
	case BackendNone:
		return nullOutput{}, nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", backend)
}

type nullOutput struct{}

func (nullOutput) Play()       {}
func (nullOutput) Pause()      {}
func (nullOutput) Stop() error { return nil }

func (nullOutput) Position() time.Duration { return 0 }
