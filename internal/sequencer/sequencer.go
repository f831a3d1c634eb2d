package sequencer

import (
	"log/slog"
	"time"
)

// Channel is the receiving end of dispatched events.
type Channel interface {
	StartNote(note int, bend float64)
	StopNote(note int)
	SetPitchBend(value int)
	// Bend is the channel-wide bend handed to new notes.
	Bend() float64
}

// Timer queues callbacks by absolute deadline. clock.Loop implements it.
type Timer interface {
	Now() time.Duration
	At(at time.Duration, fn func())
}

type Options struct {
	// OnDispatch is called after an event has been delivered to a channel.
	OnDispatch func(channel int, ev Event)
	// OnChannelDone is called when a channel's walker reaches the end.
	OnChannelDone func(channel int)
	Logger        *slog.Logger
}

// Scheduler plays an event sequence into a set of channels. Every channel
// index gets its own walker that steps through the entire shared sequence,
// waiting out each event's delay before looking at it and dispatching only
// the events addressed to its channel. Walkers keep their own deadlines, so
// each one's timeline is the running sum of all delays.
type Scheduler struct {
	events    []Event
	channels  []Channel
	timer     Timer
	opts      Options
	logger    *slog.Logger
	walkers   []*walker
	remaining int
	started   bool
	done      chan struct{}
}

type walker struct {
	s      *Scheduler
	index  int
	cursor int
	at     time.Duration
}

func New(events []Event, channels []Channel, timer Timer) *Scheduler {
	return NewWithOptions(events, channels, timer, Options{})
}

func NewWithOptions(events []Event, channels []Channel, timer Timer, opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		events:   events,
		channels: channels,
		timer:    timer,
		opts:     opts,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches one walker per channel from the current timer time. It must
// run on the timer's goroutine; later calls do nothing.
func (s *Scheduler) Start() {
	if s.started {
		return
	}
	s.started = true
	start := s.timer.Now()
	s.remaining = len(s.channels)
	if s.remaining == 0 {
		close(s.done)
		return
	}
	s.walkers = make([]*walker, len(s.channels))
	for i := range s.channels {
		s.walkers[i] = &walker{s: s, index: i, at: start}
	}
	for _, w := range s.walkers {
		w.arm()
	}
}

// Done is closed once every walker has reached the end of the sequence.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Running returns the number of walkers that have not finished.
func (s *Scheduler) Running() int { return s.remaining }

func (w *walker) arm() {
	if w.cursor >= len(w.s.events) {
		w.s.finish(w)
		return
	}
	if d := w.s.events[w.cursor].Delay; d > 0 {
		w.at += d
	}
	w.s.timer.At(w.at, w.wake)
}

func (w *walker) wake() {
	ev := w.s.events[w.cursor]
	w.cursor++
	if ev.Channel == w.index {
		if Dispatch(w.s.channels[w.index], ev) && w.s.opts.OnDispatch != nil {
			w.s.opts.OnDispatch(w.index, ev)
		}
	}
	w.arm()
}

func (s *Scheduler) finish(w *walker) {
	s.remaining--
	s.logger.Debug("walker finished", "channel", w.index, "events", len(s.events))
	if s.opts.OnChannelDone != nil {
		s.opts.OnChannelDone(w.index)
	}
	if s.remaining == 0 {
		close(s.done)
	}
}

// Dispatch delivers ev to ch and reports whether the kind was one a channel
// acts on.
func Dispatch(ch Channel, ev Event) bool {
	switch ev.Kind {
	case KindNoteOn:
		ch.StartNote(ev.Note, ch.Bend())
	case KindNoteOff:
		ch.StopNote(ev.Note)
	case KindPitchBend:
		ch.SetPitchBend(ev.Value)
	default:
		return false
	}
	return true
}
