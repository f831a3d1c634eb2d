package graph

import "sort"

type eventKind int

const (
	eventSet eventKind = iota
	eventLinearRamp
)

type automationEvent struct {
	kind  eventKind
	time  float64
	value float64
}

// Param is an automatable value. Before the first automation event it holds
// its base value; a set event jumps, a ramp event interpolates linearly from
// the previous event to its own time and value.
type Param struct {
	ctx    *Context
	value  float64
	events []automationEvent
}

func newParam(ctx *Context, value float64) *Param {
	return &Param{ctx: ctx, value: value}
}

// Value returns the parameter value at the current graph time.
func (p *Param) Value() float64 {
	return p.ValueAt(p.ctx.CurrentTime())
}

// SetValue drops all automation and sets the base value.
func (p *Param) SetValue(v float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.value = v
	p.events = p.events[:0]
}

func (p *Param) SetValueAtTime(v, t float64) {
	p.insert(automationEvent{kind: eventSet, time: t, value: v})
}

func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.insert(automationEvent{kind: eventLinearRamp, time: t, value: v})
}

// CancelScheduledValues removes every event at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	p.events = p.events[:i]
}

func (p *Param) ValueAt(t float64) float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.valueAt(t)
}

func (p *Param) insert(ev automationEvent) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > ev.time })
	p.events = append(p.events, automationEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}

func (p *Param) valueAt(t float64) float64 {
	prevTime, prevValue := 0.0, p.value
	for _, ev := range p.events {
		if ev.time <= t {
			prevTime, prevValue = ev.time, ev.value
			continue
		}
		if ev.kind == eventLinearRamp && ev.time > prevTime {
			frac := (t - prevTime) / (ev.time - prevTime)
			return prevValue + (ev.value-prevValue)*frac
		}
		return prevValue
	}
	return prevValue
}
