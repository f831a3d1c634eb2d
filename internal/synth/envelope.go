package synth

import "github.com/cbegin/polysynth-go/internal/graph"

// EnvelopeParams is the amplitude envelope template. Durations are seconds,
// Sustain is a fraction of the peak Volume.
type EnvelopeParams struct {
	Volume  float64 `yaml:"volume"`
	Attack  float64 `yaml:"attack"`
	Decay   float64 `yaml:"decay"`
	Sustain float64 `yaml:"sustain"`
	Release float64 `yaml:"release"`
}

type Phase int

const (
	PhaseAttack Phase = iota
	PhaseDecay
	PhaseSustain
	PhaseRelease
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseAttack:
		return "attack"
	case PhaseDecay:
		return "decay"
	case PhaseSustain:
		return "sustain"
	case PhaseRelease:
		return "release"
	case PhaseDone:
		return "done"
	}
	return "unknown"
}

/*
Envelope drives a gain stage through linear ramps and records when each
segment ends. The phase is never stored; it is derived from those
timestamps and the graph clock whenever it is asked for.

	boost*volume +   x
	             |  / \
	   *sustain  + /   x-------x
	             |/             \
	           0 +---+--+-------+--+--
	             |a  |d |       |r |
*/
type Envelope struct {
	ctx        *graph.Context
	gain       *graph.Gain
	params     EnvelopeParams
	boost      float64
	attackEnd  float64
	decayEnd   float64
	releaseEnd float64
	released   bool
}

func newEnvelope(ctx *graph.Context, params EnvelopeParams, boost float64) *Envelope {
	return &Envelope{
		ctx:    ctx,
		gain:   ctx.NewGain(0),
		params: params,
		boost:  boost,
	}
}

// Trigger starts the attack now: 0 up to boost*volume at the attack end, then
// down to the sustain level at the decay end. Any pending release is cleared.
func (e *Envelope) Trigger() {
	now := e.ctx.CurrentTime()
	e.attackEnd = now + e.params.Attack
	e.decayEnd = e.attackEnd + e.params.Decay
	e.releaseEnd = 0
	e.released = false

	peak := e.boost * e.params.Volume
	g := e.gain.Gain()
	g.CancelScheduledValues(now)
	g.SetValueAtTime(0, now)
	g.LinearRampToValueAtTime(peak, e.attackEnd)
	g.LinearRampToValueAtTime(peak*e.params.Sustain, e.decayEnd)
}

// Release ramps from the level sounding right now down to zero over the
// release time. A release during attack or decay cuts those segments short.
func (e *Envelope) Release() {
	now := e.ctx.CurrentTime()
	g := e.gain.Gain()
	level := g.ValueAt(now)
	e.releaseEnd = now + e.params.Release
	e.released = true
	e.attackEnd = min(e.attackEnd, now)
	e.decayEnd = min(e.decayEnd, now)

	g.CancelScheduledValues(now)
	g.SetValueAtTime(level, now)
	g.LinearRampToValueAtTime(0, e.releaseEnd)
}

func (e *Envelope) Phase() Phase {
	return e.PhaseAt(e.ctx.CurrentTime())
}

func (e *Envelope) PhaseAt(now float64) Phase {
	switch {
	case now < e.attackEnd:
		return PhaseAttack
	case now < e.decayEnd:
		return PhaseDecay
	case !e.released:
		return PhaseSustain
	case now < e.releaseEnd:
		return PhaseRelease
	default:
		return PhaseDone
	}
}

// Level returns the gain currently applied by the envelope.
func (e *Envelope) Level() float64 {
	return e.gain.Gain().Value()
}

func (e *Envelope) AttackEnd() float64 { return e.attackEnd }
func (e *Envelope) DecayEnd() float64  { return e.decayEnd }

// ReleaseEnd reports when the release ramp reaches zero; ok is false until
// Release has been called.
func (e *Envelope) ReleaseEnd() (t float64, ok bool) {
	return e.releaseEnd, e.released
}
