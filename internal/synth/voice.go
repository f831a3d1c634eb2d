package synth

import "github.com/cbegin/polysynth-go/internal/graph"

// Voice is one sounding note: oscillator into envelope into panner. A voice
// is used once; a new note-on always builds a new voice.
type Voice struct {
	note      int
	envParams EnvelopeParams
	waveform  graph.Waveform
	pan       float64
	level     float64
	env       *Envelope
	osc       *Oscillator
	panner    *graph.StereoPanner
	activated bool
	released  bool
	reclaimed bool
}

func newNormalVoice(c *Channel, note int, bend float64) *Voice {
	cfg := c.cfg
	v := &Voice{
		note:      note,
		envParams: cfg.Envelope,
		waveform:  cfg.Waveform,
		pan:       cfg.Pan,
		level:     cfg.Boost,
	}
	v.osc = newOscillator(c.ctx, note, v.waveform, bend)
	v.env = newEnvelope(c.ctx, v.envParams, v.level)
	v.panner = c.ctx.NewStereoPanner(v.pan)
	v.osc.node.Connect(v.env.gain)
	v.env.gain.Connect(v.panner)
	return v
}

func (v *Voice) Note() int                { return v.note }
func (v *Voice) Bend() float64            { return v.osc.Bend() }
func (v *Voice) Pan() float64             { return v.pan }
func (v *Voice) Envelope() *Envelope      { return v.env }
func (v *Voice) Oscillator() *Oscillator  { return v.osc }
func (v *Voice) Phase() Phase             { return v.env.Phase() }
func (v *Voice) Released() bool           { return v.released }
func (v *Voice) SetBend(bend float64)     { v.osc.SetBend(bend) }
func (v *Voice) Params() EnvelopeParams   { return v.envParams }
func (v *Voice) Waveform() graph.Waveform { return v.waveform }

// Activate triggers the envelope and starts the oscillator. Calls after the
// first are ignored.
func (v *Voice) Activate() {
	if v.activated {
		return
	}
	v.activated = true
	v.env.Trigger()
	v.osc.Start()
}

// Deactivate releases the envelope and stops the oscillator exactly when the
// release ramp reaches zero. Calls after the first are ignored.
func (v *Voice) Deactivate() {
	if !v.activated || v.released {
		return
	}
	v.released = true
	v.env.Release()
	end, _ := v.env.ReleaseEnd()
	v.osc.Stop(end)
}

func (v *Voice) connect(bus *graph.Bus) {
	v.panner.Connect(bus)
}

func (v *Voice) onEnded(fn func()) {
	v.osc.node.OnEnded(fn)
}

func (v *Voice) disconnect() {
	v.panner.Disconnect()
	v.env.gain.Disconnect()
	v.osc.node.Disconnect()
}
