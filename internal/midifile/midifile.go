// Package midifile turns Standard MIDI Files into event sequences.
package midifile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/cbegin/polysynth-go/internal/sequencer"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const defaultBPM = 120

var ErrTimeFormat = errors.New("midifile: only metric time format is supported")

type Options struct {
	// Tracks selects which tracks to merge. Nil means all of them.
	Tracks []int
}

func Read(r io.Reader) ([]sequencer.Event, error) {
	return ReadWithOptions(r, Options{})
}

func ReadWithOptions(r io.Reader, opts Options) ([]sequencer.Event, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("midifile: %w", err)
	}
	return Decode(s, opts)
}

func ReadFile(path string) ([]sequencer.Event, error) {
	return ReadFileWithOptions(path, Options{})
}

func ReadFileWithOptions(path string, opts Options) ([]sequencer.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWithOptions(f, opts)
}

type timed struct {
	tick  int64
	track int
	index int
	msg   smf.Message
}

// Decode merges the selected tracks by absolute tick and converts tick
// deltas to durations with the file's tempo map. Tempo changes apply to the
// ticks after them.
func Decode(s *smf.SMF, opts Options) ([]sequencer.Event, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrTimeFormat
	}
	selected := func(i int) bool {
		if opts.Tracks == nil {
			return true
		}
		for _, t := range opts.Tracks {
			if t == i {
				return true
			}
		}
		return false
	}

	var all []timed
	for ti, track := range s.Tracks {
		// tempo lives on the conductor track, so every track's tempo events
		// are kept even when the track itself is not selected
		keep := selected(ti)
		var abs int64
		for ei, ev := range track {
			abs += int64(ev.Delta)
			var bpm float64
			if !keep && !ev.Message.GetMetaTempo(&bpm) {
				continue
			}
			all = append(all, timed{tick: abs, track: ti, index: ei, msg: ev.Message})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].tick != all[j].tick {
			return all[i].tick < all[j].tick
		}
		if all[i].track != all[j].track {
			return all[i].track < all[j].track
		}
		return all[i].index < all[j].index
	})

	events := make([]sequencer.Event, 0, len(all))
	bpm := float64(defaultBPM)
	var last int64
	for _, t := range all {
		delay := ticks.Duration(bpm, uint32(t.tick-last))
		last = t.tick
		var tempo float64
		if t.msg.GetMetaTempo(&tempo) && tempo > 0 {
			bpm = tempo
		}
		events = append(events, FromMessage(delay, midi.Message(t.msg)))
	}
	return events, nil
}

// FromMessage converts a channel message into an event. A note-on with
// velocity 0 is a note-off; anything the synth does not act on becomes a
// meta event.
func FromMessage(delay time.Duration, m midi.Message) sequencer.Event {
	var ch, key, vel uint8
	switch {
	case m.GetNoteOn(&ch, &key, &vel):
		if vel == 0 {
			return sequencer.NoteOff(delay, int(ch), int(key))
		}
		return sequencer.NoteOn(delay, int(ch), int(key), int(vel))
	case m.GetNoteOff(&ch, &key, &vel):
		return sequencer.NoteOff(delay, int(ch), int(key))
	}
	var rel int16
	var abs uint16
	if m.GetPitchBend(&ch, &rel, &abs) {
		return sequencer.PitchBend(delay, int(ch), int(abs))
	}
	return sequencer.Meta(delay)
}
