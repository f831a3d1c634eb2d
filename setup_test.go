package polysynth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testSetup = `
sampleRate: 44100
backend: none
masterGain: 0.8
defaults:
  envelope:
    attack: 0.01
    release: 0.3
  polyphony: 4
channels:
  - waveform: square
  - waveform: sawtooth
    pan: -0.5
    envelope:
      sustain: 1
effects:
  - {type: delay, time: 0.05, wet: 0.2}
  - type: compressor
`

func TestParseSetupLayersDefaults(t *testing.T) {
	s, err := ParseSetup([]byte(testSetup))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.SampleRate != 44100 || s.Backend != BackendNone || s.MasterGain != 0.8 {
		t.Fatalf("player fields = %d %q %v", s.SampleRate, s.Backend, s.MasterGain)
	}
	if len(s.Channels) != 2 {
		t.Fatalf("channels = %d, want 2", len(s.Channels))
	}
	if len(s.Effects) != 2 || s.Effects[0].Time != 0.05 || s.Effects[1].Type != "compressor" {
		t.Fatalf("effects = %+v", s.Effects)
	}
	first, second := s.Channels[0], s.Channels[1]
	if first.Waveform != WaveSquare || first.Polyphony != 4 || first.Mode != ModeNormal {
		t.Fatalf("first channel = %+v", first)
	}
	// untouched envelope fields come from DefaultConfig
	want := EnvelopeParams{Volume: 0.5, Attack: 0.01, Decay: 0.1, Sustain: 0.5, Release: 0.3}
	if first.Envelope != want {
		t.Fatalf("first envelope = %+v, want %+v", first.Envelope, want)
	}
	want.Sustain = 1
	if second.Envelope != want || second.Pan != -0.5 || second.Waveform != WaveSawtooth {
		t.Fatalf("second channel = %+v", second)
	}
}

func TestParseSetupDefaultsAndErrors(t *testing.T) {
	s, err := ParseSetup([]byte("channels:\n  - {}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.SampleRate != 48000 || s.Backend != BackendEbiten || s.MasterGain != 1 {
		t.Fatalf("defaults = %+v", s)
	}
	if s.Channels[0] != DefaultConfig() {
		t.Fatalf("empty channel = %+v, want DefaultConfig", s.Channels[0])
	}

	tests := []struct {
		name string
		yaml string
		is   error
	}{
		{"fm mode", "channels:\n  - mode: fm\n", ErrUnimplementedMode},
		{"bad sustain", "channels:\n  - envelope: {sustain: 2}\n", ErrInvalidConfig},
		{"bad waveform", "channels:\n  - waveform: noise\n", ErrInvalidConfig},
		{"bad backend", "backend: jack\n", nil},
		{"bad effect", "effects:\n  - {type: flanger}\n", ErrUnknownEffect},
		{"not yaml", "channels: [", nil},
	}
	for _, tc := range tests {
		_, err := ParseSetup([]byte(tc.yaml))
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if tc.is != nil && !errors.Is(err, tc.is) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.is)
		}
	}
}

func TestLoadSetupBuildsPlayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setup.yaml")
	if err := os.WriteFile(path, []byte(testSetup), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := LoadSetup(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	pl, err := s.NewPlayer(WithOffline())
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	if pl.SampleRate() != 44100 || len(pl.Channels()) != 2 {
		t.Fatalf("player rate=%d channels=%d", pl.SampleRate(), len(pl.Channels()))
	}
	if pl.Channels()[1].Config().Pan != -0.5 {
		t.Fatalf("channel order not preserved")
	}

	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := ParseSetup(data)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(again.Channels) != 2 || again.Channels[1] != s.Channels[1] || len(again.Effects) != 2 {
		t.Fatalf("reparsed channels = %+v", again.Channels)
	}
}
