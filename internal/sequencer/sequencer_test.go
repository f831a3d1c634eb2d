package sequencer

import (
	"testing"
	"time"

	"github.com/cbegin/polysynth-go/internal/clock"
)

type call struct {
	kind  Kind
	note  int
	value int
	bend  float64
	at    time.Duration
}

type recordingChannel struct {
	clock *clock.Loop
	bend  float64
	calls []call
}

func (c *recordingChannel) StartNote(note int, bend float64) {
	c.calls = append(c.calls, call{kind: KindNoteOn, note: note, bend: bend, at: c.clock.Now()})
}
func (c *recordingChannel) StopNote(note int) {
	c.calls = append(c.calls, call{kind: KindNoteOff, note: note, at: c.clock.Now()})
}
func (c *recordingChannel) SetPitchBend(value int) {
	c.bend = float64(value) / 8192
	c.calls = append(c.calls, call{kind: KindPitchBend, value: value, at: c.clock.Now()})
}
func (c *recordingChannel) Bend() float64 { return c.bend }

func newRecorders(loop *clock.Loop, n int) ([]*recordingChannel, []Channel) {
	recs := make([]*recordingChannel, n)
	chans := make([]Channel, n)
	for i := range recs {
		recs[i] = &recordingChannel{clock: loop}
		chans[i] = recs[i]
	}
	return recs, chans
}

func TestWalkersAdvanceThroughWholeSequence(t *testing.T) {
	loop := clock.NewVirtual()
	recs, chans := newRecorders(loop, 2)
	events := []Event{
		NoteOn(100*time.Millisecond, 0, 60, 100),
		NoteOn(50*time.Millisecond, 1, 64, 100),
	}
	seq := New(events, chans, loop)
	seq.Start()
	loop.RunUntil(time.Second)

	if len(recs[0].calls) != 1 || recs[0].calls[0].note != 60 {
		t.Fatalf("channel 0 calls %+v", recs[0].calls)
	}
	if got := recs[0].calls[0].at; got != 100*time.Millisecond {
		t.Fatalf("channel 0 started at %v, want 100ms", got)
	}
	if len(recs[1].calls) != 1 || recs[1].calls[0].note != 64 {
		t.Fatalf("channel 1 calls %+v", recs[1].calls)
	}
	if got := recs[1].calls[0].at; got != 150*time.Millisecond {
		t.Fatalf("channel 1 started at %v, want 150ms", got)
	}
	select {
	case <-seq.Done():
	default:
		t.Fatalf("scheduler not done after the sequence was exhausted")
	}
}

func TestDispatchByKindInSequenceOrder(t *testing.T) {
	loop := clock.NewVirtual()
	recs, chans := newRecorders(loop, 1)
	events := []Event{
		NoteOn(0, 0, 60, 90),
		Meta(10 * time.Millisecond),
		PitchBend(10*time.Millisecond, 0, 4096),
		NoteOn(0, 0, 62, 90),
		NoteOff(20*time.Millisecond, 0, 60),
		NoteOff(0, 0, 62),
	}
	var dispatched int
	seq := NewWithOptions(events, chans, loop, Options{
		OnDispatch: func(channel int, ev Event) { dispatched++ },
	})
	seq.Start()
	loop.RunUntil(time.Second)

	want := []call{
		{kind: KindNoteOn, note: 60, at: 0},
		{kind: KindPitchBend, value: 4096, at: 20 * time.Millisecond},
		{kind: KindNoteOn, note: 62, bend: 0.5, at: 20 * time.Millisecond},
		{kind: KindNoteOff, note: 60, at: 40 * time.Millisecond},
		{kind: KindNoteOff, note: 62, at: 40 * time.Millisecond},
	}
	got := recs[0].calls
	if len(got) != len(want) {
		t.Fatalf("calls %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if dispatched != 5 {
		t.Fatalf("OnDispatch fired %d times, want 5", dispatched)
	}
}

func TestEventsForMissingChannelsAreIgnored(t *testing.T) {
	loop := clock.NewVirtual()
	recs, chans := newRecorders(loop, 1)
	events := []Event{
		NoteOn(10*time.Millisecond, 5, 60, 100),
		NoteOn(10*time.Millisecond, 0, 61, 100),
	}
	seq := New(events, chans, loop)
	seq.Start()
	loop.RunUntil(time.Second)
	if len(recs[0].calls) != 1 || recs[0].calls[0].at != 20*time.Millisecond {
		t.Fatalf("channel 0 calls %+v", recs[0].calls)
	}
}

func TestWalkerCompletionAndDone(t *testing.T) {
	loop := clock.NewVirtual()
	_, chans := newRecorders(loop, 3)
	events := []Event{NoteOn(time.Second, 0, 60, 100)}
	var finished []int
	seq := NewWithOptions(events, chans, loop, Options{
		OnChannelDone: func(channel int) { finished = append(finished, channel) },
	})
	seq.Start()
	loop.RunUntil(500 * time.Millisecond)
	if seq.Running() != 3 {
		t.Fatalf("running = %d before the last event, want 3", seq.Running())
	}
	select {
	case <-seq.Done():
		t.Fatalf("done closed early")
	default:
	}
	loop.RunUntil(2 * time.Second)
	if seq.Running() != 0 || len(finished) != 3 {
		t.Fatalf("running=%d finished=%v", seq.Running(), finished)
	}
}

func TestEmptyInputsFinishImmediately(t *testing.T) {
	loop := clock.NewVirtual()
	seq := New(nil, nil, loop)
	seq.Start()
	select {
	case <-seq.Done():
	default:
		t.Fatalf("scheduler without channels should be done")
	}

	_, chans := newRecorders(loop, 2)
	seq = New(nil, chans, loop)
	seq.Start()
	select {
	case <-seq.Done():
	default:
		t.Fatalf("scheduler without events should be done")
	}
}

func TestNegativeDelayTreatedAsZero(t *testing.T) {
	loop := clock.NewVirtual()
	recs, chans := newRecorders(loop, 1)
	events := []Event{
		NoteOn(10*time.Millisecond, 0, 60, 100),
		NoteOff(-5*time.Millisecond, 0, 60),
	}
	New(events, chans, loop).Start()
	loop.RunUntil(time.Second)
	if got := recs[0].calls[1].at; got != 10*time.Millisecond {
		t.Fatalf("note-off at %v, want 10ms", got)
	}
	if d := Duration(events); d != 10*time.Millisecond {
		t.Fatalf("Duration = %v, want 10ms", d)
	}
}
