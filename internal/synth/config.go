package synth

import (
	"errors"
	"fmt"

	"github.com/cbegin/polysynth-go/internal/graph"
)

var (
	// ErrUnimplementedMode marks a voice mode that is declared but not built.
	ErrUnimplementedMode = errors.New("synth: voice mode not implemented")
	// ErrInvalidConfig marks a channel configuration that can never work.
	ErrInvalidConfig = errors.New("synth: invalid channel config")
)

type VoiceMode string

const (
	ModeNormal VoiceMode = "normal"
	ModeFM     VoiceMode = "fm"
	ModePSG    VoiceMode = "psg"
	ModePCM    VoiceMode = "pcm"
)

// PitchBendMode selects how a raw 14-bit bend value becomes semitones.
type PitchBendMode string

const (
	// PitchBendRaw divides the raw value by 8192, so the wheel at rest
	// (8192) bends up one semitone and the range is [0, 2).
	PitchBendRaw PitchBendMode = "raw"
	// PitchBendCentered maps 8192 to no bend and the extremes to
	// ±BendRange semitones.
	PitchBendCentered PitchBendMode = "centered"
)

const bendCenter = 8192

type Config struct {
	Envelope  EnvelopeParams `yaml:"envelope"`
	Pan       float64        `yaml:"pan"`
	Polyphony int            `yaml:"polyphony"`
	Boost     float64        `yaml:"boost"`
	Waveform  graph.Waveform `yaml:"waveform"`
	Mode      VoiceMode      `yaml:"mode"`
	PitchBend PitchBendMode  `yaml:"pitchBend"`
	BendRange float64        `yaml:"bendRange"`
}

func DefaultConfig() Config {
	return Config{
		Envelope:  EnvelopeParams{Volume: 0.5, Attack: 0.1, Decay: 0.1, Sustain: 0.5, Release: 1},
		Polyphony: 16,
		Boost:     1,
		Waveform:  graph.WaveSine,
		Mode:      ModeNormal,
		PitchBend: PitchBendRaw,
		BendRange: 2,
	}
}

// voiceBuilder constructs the voice for one note-on.
type voiceBuilder func(c *Channel, note int, bend float64) *Voice

func builderFor(mode VoiceMode) (voiceBuilder, error) {
	switch mode {
	case ModeNormal:
		return newNormalVoice, nil
	case ModeFM, ModePSG, ModePCM:
		return nil, fmt.Errorf("%w: %q", ErrUnimplementedMode, mode)
	default:
		return nil, fmt.Errorf("%w: unknown voice mode %q", ErrInvalidConfig, mode)
	}
}

// Validate reports the first problem with c. Mode problems come back as
// ErrUnimplementedMode or ErrInvalidConfig; everything else is
// ErrInvalidConfig.
func (c Config) Validate() error {
	if _, err := builderFor(c.Mode); err != nil {
		return err
	}
	env := c.Envelope
	switch {
	case !c.Waveform.Valid():
		return fmt.Errorf("%w: unknown waveform %q", ErrInvalidConfig, c.Waveform)
	case c.Polyphony < 1:
		return fmt.Errorf("%w: polyphony %d must be at least 1", ErrInvalidConfig, c.Polyphony)
	case env.Attack < 0 || env.Decay < 0 || env.Release < 0:
		return fmt.Errorf("%w: envelope durations must not be negative", ErrInvalidConfig)
	case env.Sustain < 0 || env.Sustain > 1:
		return fmt.Errorf("%w: sustain %v outside [0,1]", ErrInvalidConfig, env.Sustain)
	case env.Volume < 0 || env.Volume > 1:
		return fmt.Errorf("%w: volume %v outside [0,1]", ErrInvalidConfig, env.Volume)
	case c.Boost < 0:
		return fmt.Errorf("%w: boost %v must not be negative", ErrInvalidConfig, c.Boost)
	case c.Pan < -1 || c.Pan > 1:
		return fmt.Errorf("%w: pan %v outside [-1,1]", ErrInvalidConfig, c.Pan)
	case c.PitchBend != PitchBendRaw && c.PitchBend != PitchBendCentered:
		return fmt.Errorf("%w: unknown pitch bend mode %q", ErrInvalidConfig, c.PitchBend)
	}
	return nil
}

func (c Config) bendOffset(raw int) float64 {
	if c.PitchBend == PitchBendCentered {
		return float64(raw-bendCenter) / bendCenter * c.BendRange
	}
	return float64(raw) / bendCenter
}
