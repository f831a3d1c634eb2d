package synth

import (
	"math"

	"github.com/cbegin/polysynth-go/internal/graph"
)

const (
	a4Note = 69
	a4Freq = 440.0
)

// NoteFrequency is the twelve-tone equal temperament frequency of note plus a
// fractional bend in semitones, with note 69 at 440 Hz.
func NoteFrequency(note int, bend float64) float64 {
	return a4Freq * math.Pow(2, (float64(note)+bend-a4Note)/12)
}

// Oscillator is the pitch side of a voice.
type Oscillator struct {
	ctx  *graph.Context
	node *graph.Oscillator
	note int
	bend float64
}

func newOscillator(ctx *graph.Context, note int, waveform graph.Waveform, bend float64) *Oscillator {
	o := &Oscillator{ctx: ctx, node: ctx.NewOscillator(waveform), note: note, bend: bend}
	o.applyFrequency()
	return o
}

func (o *Oscillator) Note() int          { return o.note }
func (o *Oscillator) Bend() float64      { return o.bend }
func (o *Oscillator) Frequency() float64 { return o.node.Frequency() }
func (o *Oscillator) Waveform() graph.Waveform {
	return o.node.Waveform()
}

// SetBend writes the new frequency directly; there is no glide.
func (o *Oscillator) SetBend(bend float64) {
	o.bend = bend
	o.applyFrequency()
}

func (o *Oscillator) Start() {
	o.node.Start(o.ctx.CurrentTime())
}

// Stop schedules the end of generation at graph time at.
func (o *Oscillator) Stop(at float64) {
	o.node.Stop(at)
}

func (o *Oscillator) applyFrequency() {
	o.node.SetFrequency(NoteFrequency(o.note, o.bend))
}
