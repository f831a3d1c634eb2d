// Package midiin feeds events from a live MIDI input port.
package midiin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cbegin/polysynth-go/internal/midifile"
	"github.com/cbegin/polysynth-go/internal/sequencer"
	"gitlab.com/gomidi/midi/v2"
)

var (
	ErrNoPorts     = errors.New("midiin: no MIDI input ports")
	ErrUnavailable = errors.New("midiin: MIDI input requires cgo")
)

// Handler receives events as they arrive, on the driver's goroutine.
type Handler func(sequencer.Event)

// Decode converts a live message. Only messages a channel acts on are
// reported.
func Decode(msg midi.Message) (sequencer.Event, bool) {
	ev := midifile.FromMessage(0, msg)
	if ev.Kind == sequencer.KindMeta {
		return ev, false
	}
	return ev, true
}

// pickPort returns the index of the port to open. An empty want takes the
// first port; otherwise an exact name wins over a prefix match.
func pickPort(names []string, want string) (int, error) {
	if len(names) == 0 {
		return -1, ErrNoPorts
	}
	if want == "" {
		return 0, nil
	}
	for i, n := range names {
		if n == want {
			return i, nil
		}
	}
	for i, n := range names {
		if strings.HasPrefix(n, want) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("midiin: no input port matching %q (have %s)", want, strings.Join(names, ", "))
}
