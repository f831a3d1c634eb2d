// Package graph is a small audio signal graph: oscillators feed gain stages,
// gain stages feed stereo panners and panners feed buses. Parameters carry
// linear automation curves that the renderer evaluates per frame. Callers
// describe the graph; Process turns it into interleaved stereo samples.
package graph

import (
	"math"
	"sync"
	"time"
)

// Scheduler supplies the graph timeline and runs deferred callbacks such as
// oscillator end notifications.
type Scheduler interface {
	Now() time.Duration
	At(at time.Duration, fn func())
}

// Context owns a graph. Node mutations and rendering are serialized by its
// mutex, so nodes may be edited from the control goroutine while the audio
// backend pulls samples from another.
type Context struct {
	mu         sync.Mutex
	sampleRate int
	sched      Scheduler
	dest       *Bus
}

func NewContext(sampleRate int, sched Scheduler) *Context {
	c := &Context{sampleRate: sampleRate, sched: sched}
	c.dest = c.NewBus()
	return c
}

func (c *Context) SampleRate() int { return c.sampleRate }

// CurrentTime returns the graph time in seconds.
func (c *Context) CurrentTime() float64 {
	return c.sched.Now().Seconds()
}

// Destination is the master bus. Process renders whatever is connected to it.
func (c *Context) Destination() *Bus { return c.dest }

// Schedule runs fn on the scheduler once graph time reaches t seconds.
func (c *Context) Schedule(t float64, fn func()) {
	c.sched.At(DurationOf(t), fn)
}

// DurationOf converts graph seconds to a duration, rounding up so that a
// callback scheduled at t never observes a time before t.
func DurationOf(t float64) time.Duration {
	if t <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(t * float64(time.Second)))
}

// Process renders len(dst)/2 interleaved stereo frames starting at the
// current graph time.
func (c *Context) Process(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	frames := len(dst) / 2
	if frames == 0 {
		return
	}
	t0 := c.CurrentTime()
	dt := 1.0 / float64(c.sampleRate)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dest.render(dst[:frames*2], t0, dt)
}
