// Package clock provides the timer queue that drives playback. Every callback
// queued on a Loop runs on the goroutine that drives it, one at a time and in
// deadline order, so code running inside a callback never needs a lock to
// touch state owned by the loop.
package clock

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrVirtual is returned by Run on a loop whose time is advanced manually.
var ErrVirtual = errors.New("clock: virtual loop must be advanced with RunUntil")

type task struct {
	at  time.Duration
	seq uint64
	fn  func()
}

type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }
func (q taskQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}
func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *taskQueue) Push(x any)   { *q = append(*q, x.(*task)) }
func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// Loop is an ordered timer queue. Time is measured from the moment the loop
// was created.
type Loop struct {
	mu      sync.Mutex
	queue   taskQueue
	seq     uint64
	virtual bool
	now     time.Duration
	start   time.Time
	wake    chan struct{}
}

// New returns a loop that follows the wall clock.
func New() *Loop {
	return &Loop{start: time.Now(), wake: make(chan struct{}, 1)}
}

// NewVirtual returns a loop whose time only moves when RunUntil or Advance is
// called. Offline rendering and tests use it.
func NewVirtual() *Loop {
	return &Loop{virtual: true, wake: make(chan struct{}, 1)}
}

func (l *Loop) Now() time.Duration {
	if !l.virtual {
		return time.Since(l.start)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// At queues fn to run once the loop time reaches at. Callbacks with equal
// deadlines run in the order they were queued. A deadline in the past runs
// on the next turn of the loop.
func (l *Loop) At(at time.Duration, fn func()) {
	l.mu.Lock()
	l.seq++
	heap.Push(&l.queue, &task{at: at, seq: l.seq, fn: fn})
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc queues fn to run d after the current loop time.
func (l *Loop) AfterFunc(d time.Duration, fn func()) {
	l.At(l.Now()+d, fn)
}

// Post queues fn to run as soon as possible. It is safe to call from any
// goroutine and is the way outside code hands work to the loop.
func (l *Loop) Post(fn func()) {
	l.At(l.Now(), fn)
}

// Pending returns the number of queued callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Next returns the deadline of the earliest queued callback.
func (l *Loop) Next() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return 0, false
	}
	return l.queue[0].at, true
}

// popDue removes the earliest task if its deadline is at or before limit.
func (l *Loop) popDue(limit time.Duration) *task {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 || l.queue[0].at > limit {
		return nil
	}
	t := heap.Pop(&l.queue).(*task)
	if l.virtual && t.at > l.now {
		l.now = t.at
	}
	return t
}

// RunUntil runs every callback due at or before t, moving virtual time to
// each callback's deadline before it runs, and leaves the loop time at t.
// Callbacks queued while running are honored if they fall inside the window.
func (l *Loop) RunUntil(t time.Duration) {
	for {
		task := l.popDue(t)
		if task == nil {
			break
		}
		task.fn()
	}
	if l.virtual {
		l.mu.Lock()
		if t > l.now {
			l.now = t
		}
		l.mu.Unlock()
	}
}

// Advance runs the virtual loop forward by d.
func (l *Loop) Advance(d time.Duration) {
	l.RunUntil(l.Now() + d)
}

// Run drives a wall-clock loop on the calling goroutine until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if l.virtual {
		return ErrVirtual
	}
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		l.RunUntil(l.Now())
		wait := time.Hour
		if next, ok := l.Next(); ok {
			wait = next - l.Now()
			if wait < 0 {
				wait = 0
			}
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		case <-timer.C:
		}
	}
}
