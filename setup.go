package polysynth

import (
	"fmt"
	"os"

	intaudio "github.com/cbegin/polysynth-go/internal/audio"
	intfx "github.com/cbegin/polysynth-go/internal/effects"
	"gopkg.in/yaml.v3"
)

const defaultSampleRate = 48000

// Setup describes a player and its instruments. Every channel starts from
// Defaults, which itself starts from DefaultConfig, and overrides only the
// fields it names.
//
//	sampleRate: 44100
//	backend: oto
//	masterGain: 0.8
//	defaults:
//	  envelope: {attack: 0.01, release: 0.3}
//	channels:
//	  - waveform: square
//	  - waveform: sawtooth
//	    pan: -0.5
//	effects:
//	  - {type: delay, time: 0.3, wet: 0.2}
//	  - {type: reverb}
type Setup struct {
	SampleRate int
	Backend    Backend
	MasterGain float64
	Defaults   Config
	Channels   []Config
	Effects    []EffectConfig
}

type setupFile struct {
	SampleRate int            `yaml:"sampleRate"`
	Backend    string         `yaml:"backend"`
	MasterGain *float64       `yaml:"masterGain"`
	Defaults   yaml.Node      `yaml:"defaults"`
	Channels   []yaml.Node    `yaml:"channels"`
	Effects    []EffectConfig `yaml:"effects"`
}

func LoadSetup(path string) (*Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseSetup(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func ParseSetup(data []byte) (*Setup, error) {
	var f setupFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	s := &Setup{
		SampleRate: f.SampleRate,
		MasterGain: 1,
		Defaults:   DefaultConfig(),
		Effects:    f.Effects,
	}
	if s.SampleRate == 0 {
		s.SampleRate = defaultSampleRate
	}
	if s.SampleRate < 0 {
		return nil, fmt.Errorf("sampleRate %d must be positive", s.SampleRate)
	}
	if f.MasterGain != nil {
		s.MasterGain = *f.MasterGain
	}
	backend, err := intaudio.ParseBackend(f.Backend)
	if err != nil {
		return nil, err
	}
	s.Backend = backend
	if !f.Defaults.IsZero() {
		if err := f.Defaults.Decode(&s.Defaults); err != nil {
			return nil, fmt.Errorf("defaults: %w", err)
		}
	}
	for i, node := range f.Channels {
		cfg := s.Defaults
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		s.Channels = append(s.Channels, cfg)
	}
	if _, err := intfx.Build(s.SampleRate, s.Effects); err != nil {
		return nil, err
	}
	return s, nil
}

// NewPlayer builds a player with every channel of the setup. opts are
// applied after the setup's own settings.
func (s *Setup) NewPlayer(opts ...PlayerOption) (*Player, error) {
	base := []PlayerOption{WithBackend(s.Backend), WithMasterGain(s.MasterGain), WithEffects(s.Effects...)}
	pl, err := NewPlayer(s.SampleRate, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	for _, cfg := range s.Channels {
		if _, err := pl.NewChannel(cfg); err != nil {
			return nil, err
		}
	}
	return pl, nil
}

// Marshal encodes the setup with every channel written out in full.
func (s *Setup) Marshal() ([]byte, error) {
	return yaml.Marshal(struct {
		SampleRate int            `yaml:"sampleRate"`
		Backend    Backend        `yaml:"backend"`
		MasterGain float64        `yaml:"masterGain"`
		Channels   []Config       `yaml:"channels"`
		Effects    []EffectConfig `yaml:"effects,omitempty"`
	}{s.SampleRate, s.Backend, s.MasterGain, s.Channels, s.Effects})
}
