package graph

import (
	"math"

	"github.com/viterin/vek/vek32"
)

type stereoNode interface {
	// render adds len(dst)/2 frames starting at t0 into dst.
	render(dst []float32, t0, dt float64)
}

// Gain scales a mono source by an automatable gain.
type Gain struct {
	ctx  *Context
	gain *Param
	in   *Oscillator
	out  *StereoPanner
}

func (c *Context) NewGain(initial float64) *Gain {
	return &Gain{ctx: c, gain: newParam(c, initial)}
}

func (g *Gain) Gain() *Param { return g.gain }

func (g *Gain) Connect(p *StereoPanner) {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()
	g.out = p
	p.in = g
}

func (g *Gain) Disconnect() {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()
	if g.out != nil && g.out.in == g {
		g.out.in = nil
	}
	g.out = nil
}

func (g *Gain) sample(t, dt float64) float64 {
	if g.in == nil {
		return 0
	}
	return g.in.sample(t, dt) * g.gain.valueAt(t)
}

// StereoPanner places a mono signal in the stereo field with an equal-power
// law. Pan -1 is hard left, +1 hard right.
type StereoPanner struct {
	ctx  *Context
	pan  float64
	in   *Gain
	out  *Bus
	l, r float64
}

func (c *Context) NewStereoPanner(pan float64) *StereoPanner {
	p := &StereoPanner{ctx: c}
	p.setPan(pan)
	return p
}

func (p *StereoPanner) SetPan(pan float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.setPan(pan)
}

func (p *StereoPanner) Pan() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.pan
}

func (p *StereoPanner) setPan(pan float64) {
	pan = math.Max(-1, math.Min(1, pan))
	p.pan = pan
	angle := (pan + 1) / 2 * (math.Pi / 2)
	p.l = math.Cos(angle)
	p.r = math.Sin(angle)
}

func (p *StereoPanner) Connect(b *Bus) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	if p.out != nil {
		p.out.remove(p)
	}
	p.out = b
	b.inputs = append(b.inputs, p)
}

func (p *StereoPanner) Disconnect() {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	if p.out != nil {
		p.out.remove(p)
	}
	p.out = nil
}

func (p *StereoPanner) render(dst []float32, t0, dt float64) {
	if p.in == nil {
		return
	}
	for i := 0; i+1 < len(dst); i += 2 {
		s := p.in.sample(t0+float64(i/2)*dt, dt)
		dst[i] += float32(s * p.l)
		dst[i+1] += float32(s * p.r)
	}
}

// Bus sums stereo inputs and applies a static gain.
type Bus struct {
	ctx     *Context
	gain    float64
	inputs  []stereoNode
	out     *Bus
	scratch []float32
}

func (c *Context) NewBus() *Bus {
	return &Bus{ctx: c, gain: 1}
}

func (b *Bus) SetGain(gain float64) {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	b.gain = gain
}

func (b *Bus) Gain() float64 {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	return b.gain
}

// Inputs returns the number of nodes connected to the bus.
func (b *Bus) Inputs() int {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	return len(b.inputs)
}

func (b *Bus) Connect(dst *Bus) {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	if b.out != nil {
		b.out.remove(b)
	}
	b.out = dst
	dst.inputs = append(dst.inputs, b)
}

func (b *Bus) Disconnect() {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	if b.out != nil {
		b.out.remove(b)
	}
	b.out = nil
}

func (b *Bus) remove(n stereoNode) {
	for i, in := range b.inputs {
		if in == n {
			b.inputs = append(b.inputs[:i], b.inputs[i+1:]...)
			return
		}
	}
}

func (b *Bus) render(dst []float32, t0, dt float64) {
	if len(b.inputs) == 0 {
		return
	}
	if cap(b.scratch) < len(dst) {
		b.scratch = make([]float32, len(dst))
	}
	mix := b.scratch[:len(dst)]
	clear(mix)
	for _, in := range b.inputs {
		in.render(mix, t0, dt)
	}
	if b.gain != 1 {
		vek32.MulNumber_Inplace(mix, float32(b.gain))
	}
	vek32.Add_Inplace(dst, mix)
}
