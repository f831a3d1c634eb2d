// Package effects holds master-bus inserts. Every effect processes
// interleaved stereo blocks in place.
package effects

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownEffect = errors.New("effects: unknown effect type")

type Effect interface {
	Process(buf []float32)
	Reset()
}

// Config describes one insert. Fields that do not apply to Type are ignored;
// zero values pick the effect's default. Times are seconds.
type Config struct {
	Type      string  `yaml:"type"`
	Time      float64 `yaml:"time,omitempty"`
	Feedback  float64 `yaml:"feedback,omitempty"`
	Cross     float64 `yaml:"cross,omitempty"`
	Wet       float64 `yaml:"wet,omitempty"`
	Room      float64 `yaml:"room,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty"` // dB
	Ratio     float64 `yaml:"ratio,omitempty"`
	Attack    float64 `yaml:"attack,omitempty"`
	Release   float64 `yaml:"release,omitempty"`
	Makeup    float64 `yaml:"makeup,omitempty"` // dB
}

func New(sampleRate int, cfg Config) (Effect, error) {
	switch strings.ToLower(cfg.Type) {
	case "delay":
		return NewDelay(sampleRate,
			or(cfg.Time, 0.25), or(cfg.Feedback, 0.4), cfg.Cross, or(cfg.Wet, 0.3)), nil
	case "reverb":
		return NewReverb(sampleRate, or(cfg.Room, 0.5), or(cfg.Feedback, 0.7), or(cfg.Wet, 0.25)), nil
	case "comp", "compressor":
		return NewCompressor(sampleRate,
			or(cfg.Threshold, -20), or(cfg.Ratio, 4), or(cfg.Attack, 0.005), or(cfg.Release, 0.1), cfg.Makeup), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownEffect, cfg.Type)
}

func or(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effect
}

func NewChain(effects ...Effect) *Chain {
	return &Chain{effects: effects}
}

// Build creates the chain described by cfgs, in order.
func Build(sampleRate int, cfgs []Config) (*Chain, error) {
	c := NewChain()
	for i, cfg := range cfgs {
		e, err := New(sampleRate, cfg)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		c.Add(e)
	}
	return c, nil
}

func (c *Chain) Process(buf []float32) {
	for _, e := range c.effects {
		e.Process(buf)
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effect) {
	c.effects = append(c.effects, e)
}

func (c *Chain) Len() int { return len(c.effects) }

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
