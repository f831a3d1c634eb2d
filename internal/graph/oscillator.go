package graph

import "math"

const twoPi = math.Pi * 2

type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveSquare   Waveform = "square"
	WaveSawtooth Waveform = "sawtooth"
	WaveTriangle Waveform = "triangle"
)

func (w Waveform) Valid() bool {
	switch w {
	case WaveSine, WaveSquare, WaveSawtooth, WaveTriangle:
		return true
	}
	return false
}

// Oscillator is a periodic source. It is silent before its start time and
// from its stop time on.
type Oscillator struct {
	ctx      *Context
	waveform Waveform
	freq     float64
	phase    float64
	started  bool
	startAt  float64
	stopping bool
	stopAt   float64
	onEnded  func()
	out      *Gain
}

func (c *Context) NewOscillator(w Waveform) *Oscillator {
	return &Oscillator{ctx: c, waveform: w, freq: 440}
}

func (o *Oscillator) Waveform() Waveform { return o.waveform }

func (o *Oscillator) SetFrequency(hz float64) {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.freq = hz
}

func (o *Oscillator) Frequency() float64 {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.freq
}

// Start begins generation at graph time t. Only the first call counts.
func (o *Oscillator) Start(t float64) {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if o.started {
		return
	}
	o.started = true
	o.startAt = t
}

// Stop ends generation at graph time t and fires the ended callback on the
// scheduler at that time. Only the first call counts.
func (o *Oscillator) Stop(t float64) {
	o.ctx.mu.Lock()
	if o.stopping {
		o.ctx.mu.Unlock()
		return
	}
	o.stopping = true
	o.stopAt = t
	o.ctx.mu.Unlock()
	o.ctx.Schedule(t, o.ended)
}

// OnEnded installs the callback fired when a scheduled stop is reached.
func (o *Oscillator) OnEnded(fn func()) {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.onEnded = fn
}

func (o *Oscillator) ended() {
	o.ctx.mu.Lock()
	fn := o.onEnded
	o.ctx.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (o *Oscillator) Connect(g *Gain) {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	o.out = g
	g.in = o
}

func (o *Oscillator) Disconnect() {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if o.out != nil && o.out.in == o {
		o.out.in = nil
	}
	o.out = nil
}

func (o *Oscillator) sample(t, dt float64) float64 {
	if !o.started || t < o.startAt || (o.stopping && t >= o.stopAt) {
		return 0
	}
	v := waveValue(o.waveform, o.phase)
	o.phase += o.freq * dt
	o.phase -= math.Floor(o.phase)
	return v
}

func waveValue(w Waveform, phase float64) float64 {
	switch w {
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveSawtooth:
		return 2*phase - 1
	case WaveTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	default:
		return math.Sin(twoPi * phase)
	}
}
