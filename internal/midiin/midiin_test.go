package midiin

import (
	"errors"
	"testing"

	"github.com/cbegin/polysynth-go/internal/sequencer"
	"gitlab.com/gomidi/midi/v2"
)

func TestPickPort(t *testing.T) {
	names := []string{"Midi Through:0", "Keystation 49:0", "Keystation 49 MkII:1"}
	tests := []struct {
		want string
		idx  int
	}{
		{"", 0},
		{"Keystation 49:0", 1},
		{"Keystation 49 M", 2},
		{"Keystation", 1},
	}
	for _, tc := range tests {
		got, err := pickPort(names, tc.want)
		if err != nil {
			t.Fatalf("pickPort(%q): %v", tc.want, err)
		}
		if got != tc.idx {
			t.Errorf("pickPort(%q) = %d, want %d", tc.want, got, tc.idx)
		}
	}
	if _, err := pickPort(names, "Launchpad"); err == nil {
		t.Fatalf("expected error for unknown port")
	}
	if _, err := pickPort(nil, ""); !errors.Is(err, ErrNoPorts) {
		t.Fatalf("err = %v, want ErrNoPorts", err)
	}
}

func TestDecodeFiltersMessages(t *testing.T) {
	ev, ok := Decode(midi.NoteOn(4, 64, 90))
	if !ok || ev.Kind != sequencer.KindNoteOn || ev.Channel != 4 || ev.Note != 64 || ev.Velocity != 90 {
		t.Fatalf("note on decoded as %+v ok=%v", ev, ok)
	}
	ev, ok = Decode(midi.NoteOff(4, 64))
	if !ok || ev.Kind != sequencer.KindNoteOff {
		t.Fatalf("note off decoded as %+v ok=%v", ev, ok)
	}
	if _, ok := Decode(midi.ControlChange(0, 7, 100)); ok {
		t.Fatalf("control change should be ignored")
	}
}
