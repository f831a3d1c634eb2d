// Package polysynth is a polyphonic subtractive synthesizer driven by note
// event sequences. A Player owns an ordered list of channels; channel i plays
// the events addressed to index i of the loaded track.
package polysynth

import (
	"time"

	intaudio "github.com/cbegin/polysynth-go/internal/audio"
	intfx "github.com/cbegin/polysynth-go/internal/effects"
	intgraph "github.com/cbegin/polysynth-go/internal/graph"
	intmidifile "github.com/cbegin/polysynth-go/internal/midifile"
	intseq "github.com/cbegin/polysynth-go/internal/sequencer"
	intsynth "github.com/cbegin/polysynth-go/internal/synth"
)

type (
	Channel        = intsynth.Channel
	Config         = intsynth.Config
	EnvelopeParams = intsynth.EnvelopeParams
	VoiceMode      = intsynth.VoiceMode
	PitchBendMode  = intsynth.PitchBendMode
	Waveform       = intgraph.Waveform
	Event          = intseq.Event
	EventKind      = intseq.Kind
	Backend        = intaudio.Backend
	EffectConfig   = intfx.Config
)

const (
	ModeNormal = intsynth.ModeNormal
	ModeFM     = intsynth.ModeFM
	ModePSG    = intsynth.ModePSG
	ModePCM    = intsynth.ModePCM

	PitchBendRaw      = intsynth.PitchBendRaw
	PitchBendCentered = intsynth.PitchBendCentered

	WaveSine     = intgraph.WaveSine
	WaveSquare   = intgraph.WaveSquare
	WaveSawtooth = intgraph.WaveSawtooth
	WaveTriangle = intgraph.WaveTriangle

	BackendEbiten = intaudio.BackendEbiten
	BackendOto    = intaudio.BackendOto
	BackendNone   = intaudio.BackendNone
)

var (
	ErrUnimplementedMode = intsynth.ErrUnimplementedMode
	ErrInvalidConfig     = intsynth.ErrInvalidConfig
	ErrUnknownEffect     = intfx.ErrUnknownEffect
)

func DefaultConfig() Config { return intsynth.DefaultConfig() }

func NoteOn(delay time.Duration, channel, note, velocity int) Event {
	return intseq.NoteOn(delay, channel, note, velocity)
}

func NoteOff(delay time.Duration, channel, note int) Event {
	return intseq.NoteOff(delay, channel, note)
}

func PitchBend(delay time.Duration, channel, value int) Event {
	return intseq.PitchBend(delay, channel, value)
}

func Meta(delay time.Duration) Event { return intseq.Meta(delay) }

func ParseBackend(s string) (Backend, error) { return intaudio.ParseBackend(s) }

// ChannelsUsed is how many channels a player needs to hear every event.
func ChannelsUsed(events []Event) int { return intseq.Channels(events) }

// ReadMIDIFile decodes a Standard MIDI File into a single event sequence.
// With tracks given, only those tracks contribute notes.
func ReadMIDIFile(path string, tracks ...int) ([]Event, error) {
	return intmidifile.ReadFileWithOptions(path, trackOptions(tracks))
}
