package sequencer

import (
	"fmt"
	"time"
)

type Kind int

const (
	// KindMeta covers every event the synth does not act on. Its delay still
	// counts toward the timing of the events after it.
	KindMeta Kind = iota
	KindNoteOn
	KindNoteOff
	KindPitchBend
)

func (k Kind) String() string {
	switch k {
	case KindMeta:
		return "meta"
	case KindNoteOn:
		return "note-on"
	case KindNoteOff:
		return "note-off"
	case KindPitchBend:
		return "pitch-bend"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is one entry of a track. Delay is measured from the previous event of
// the whole sequence, not from the previous event of the same channel.
type Event struct {
	Kind     Kind
	Delay    time.Duration
	Channel  int // -1 for events that belong to no channel
	Note     int
	Velocity int
	Value    int // pitch bend, 0..16383 with 8192 at rest
}

func NoteOn(delay time.Duration, channel, note, velocity int) Event {
	return Event{Kind: KindNoteOn, Delay: delay, Channel: channel, Note: note, Velocity: velocity}
}

func NoteOff(delay time.Duration, channel, note int) Event {
	return Event{Kind: KindNoteOff, Delay: delay, Channel: channel, Note: note}
}

func PitchBend(delay time.Duration, channel, value int) Event {
	return Event{Kind: KindPitchBend, Delay: delay, Channel: channel, Value: value}
}

func Meta(delay time.Duration) Event {
	return Event{Kind: KindMeta, Delay: delay, Channel: -1}
}

// Duration is the sum of all delays, i.e. the time of the last event.
func Duration(events []Event) time.Duration {
	var total time.Duration
	for _, ev := range events {
		if ev.Delay > 0 {
			total += ev.Delay
		}
	}
	return total
}

// Channels returns one more than the highest channel index addressed by
// events, i.e. how many channels a player needs to hear all of them.
func Channels(events []Event) int {
	n := 0
	for _, ev := range events {
		if ev.Channel+1 > n {
			n = ev.Channel + 1
		}
	}
	return n
}
