package polysynth

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
)

const testRate = 48000

func quickConfig(pan float64) Config {
	cfg := DefaultConfig()
	cfg.Envelope = EnvelopeParams{Volume: 0.5, Attack: 0.01, Decay: 0.01, Sustain: 0.5, Release: 0.05}
	cfg.Pan = pan
	return cfg
}

// peak returns the largest magnitude of one stereo side between from and to.
func peak(samples []float32, side int, from, to time.Duration) float64 {
	start := int(from.Seconds() * testRate)
	end := int(to.Seconds() * testRate)
	var m float64
	for f := start; f < end && f*2+side < len(samples); f++ {
		m = math.Max(m, math.Abs(float64(samples[f*2+side])))
	}
	return m
}

func TestRenderProducesSoundThenSilence(t *testing.T) {
	events := []Event{
		NoteOn(0, 0, 69, 100),
		NoteOff(100*time.Millisecond, 0, 69),
	}
	out, err := RenderSamples(events, []Config{quickConfig(0)}, testRate, 0.5)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out) != testRate/2*2 {
		t.Fatalf("len = %d, want %d", len(out), testRate/2*2)
	}
	if p := peak(out, 0, 20*time.Millisecond, 100*time.Millisecond); p < 0.05 {
		t.Fatalf("sustained note too quiet: peak %v", p)
	}
	if p := peak(out, 0, 200*time.Millisecond, 500*time.Millisecond); p > 1e-6 {
		t.Fatalf("expected silence after release, peak %v", p)
	}
}

func TestRenderWalkersUseSharedTimeline(t *testing.T) {
	events := []Event{
		NoteOn(100*time.Millisecond, 0, 60, 100),
		NoteOn(50*time.Millisecond, 1, 64, 100),
	}
	// channel 0 hard left, channel 1 hard right
	out, err := RenderSamples(events, []Config{quickConfig(-1), quickConfig(1)}, testRate, 0.3)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	const left, right = 0, 1
	if p := peak(out, left, 0, 95*time.Millisecond); p > 1e-6 {
		t.Fatalf("channel 0 sounded before 100ms: %v", p)
	}
	if p := peak(out, left, 120*time.Millisecond, 200*time.Millisecond); p < 0.01 {
		t.Fatalf("channel 0 silent after 100ms: %v", p)
	}
	if p := peak(out, right, 0, 145*time.Millisecond); p > 1e-6 {
		t.Fatalf("channel 1 sounded before 150ms: %v", p)
	}
	if p := peak(out, right, 170*time.Millisecond, 250*time.Millisecond); p < 0.01 {
		t.Fatalf("channel 1 silent after 150ms: %v", p)
	}
}

func TestRenderUntilDrained(t *testing.T) {
	pl, err := NewPlayer(testRate, WithOffline())
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	if _, err := pl.NewChannel(quickConfig(0)); err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := pl.LoadTrack([]Event{NoteOn(0, 0, 60, 100), NoteOff(100*time.Millisecond, 0, 60)}); err != nil {
		t.Fatalf("load: %v", err)
	}
	ch := pl.Watch()
	out, err := pl.Render(0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := time.Duration(len(out)/2) * time.Second / testRate
	// note-off at 100ms plus a 50ms release, rounded up to whole blocks
	if got < 150*time.Millisecond || got > 200*time.Millisecond {
		t.Fatalf("rendered %v, want about 150ms", got)
	}
	var ended bool
	for len(ch) > 0 {
		if ev := <-ch; ev.Kind == EventPlaybackEnded {
			ended = true
		}
	}
	if !ended {
		t.Fatalf("no EventPlaybackEnded after render")
	}
	if _, err := pl.Render(1); err != ErrPlaying {
		t.Fatalf("second render err = %v, want ErrPlaying", err)
	}
	if err := pl.Play(); err != ErrOffline {
		t.Fatalf("Play on offline player err = %v, want ErrOffline", err)
	}
}

func TestRenderSampleTapSeesEveryBlock(t *testing.T) {
	var frames int
	tap := func(buf []float32) { frames += len(buf) / 2 }
	out, err := RenderSamples([]Event{NoteOn(0, 0, 60, 100)}, []Config{quickConfig(0)}, testRate, 0.1, WithSampleTap(tap))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if frames != len(out)/2 {
		t.Fatalf("tap saw %d frames, rendered %d", frames, len(out)/2)
	}
}

func TestEncodeWAVFloat32LEHeader(t *testing.T) {
	wav := EncodeWAVFloat32LE([]float32{0, 0.5, -0.5, 1}, 44100, 2)
	if len(wav) != 44+16 {
		t.Fatalf("len = %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("bad chunk ids")
	}
	if f := binary.LittleEndian.Uint16(wav[20:]); f != 3 {
		t.Fatalf("format = %d, want 3 (IEEE float)", f)
	}
	if sr := binary.LittleEndian.Uint32(wav[24:]); sr != 44100 {
		t.Fatalf("sample rate = %d", sr)
	}
	if s := math.Float32frombits(binary.LittleEndian.Uint32(wav[44+4:])); s != 0.5 {
		t.Fatalf("second sample = %v", s)
	}
}

func TestRenderAppliesMasterEffects(t *testing.T) {
	events := []Event{NoteOn(0, 0, 69, 100), NoteOff(50*time.Millisecond, 0, 69)}
	echo := EffectConfig{Type: "delay", Time: 0.2, Feedback: 0.1, Wet: 0.5}
	out, err := RenderSamples(events, []Config{quickConfig(0)}, testRate, 0.4, WithEffects(echo))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if p := peak(out, 0, 150*time.Millisecond, 190*time.Millisecond); p > 1e-6 {
		t.Fatalf("expected a gap before the echo, peak %v", p)
	}
	if p := peak(out, 0, 210*time.Millisecond, 250*time.Millisecond); p < 0.01 {
		t.Fatalf("echo missing, peak %v", p)
	}
	if _, err := RenderSamples(events, nil, testRate, 0.1, WithEffects(EffectConfig{Type: "phaser"})); !errors.Is(err, ErrUnknownEffect) {
		t.Fatalf("err = %v, want ErrUnknownEffect", err)
	}
}

func TestRenderStartsNotesOnTheirFrame(t *testing.T) {
	cfg := quickConfig(0)
	cfg.Waveform = WaveSquare
	// 1ms lands inside the first render block
	out, err := RenderSamples([]Event{NoteOn(time.Millisecond, 0, 69, 100)}, []Config{cfg}, testRate, 0.02)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if p := peak(out, 0, 0, time.Millisecond); p != 0 {
		t.Fatalf("sound before the note-on: %v", p)
	}
	if p := peak(out, 0, time.Millisecond, 2*time.Millisecond); p == 0 {
		t.Fatalf("note-on at 1ms silent until a later block")
	}
}

func TestFrameAtRoundsUp(t *testing.T) {
	for _, tc := range []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{time.Millisecond, 48},
		{time.Millisecond + 1, 49},
		{-time.Second, 0},
	} {
		if got := frameAt(tc.d, testRate); got != tc.want {
			t.Errorf("frameAt(%v) = %d, want %d", tc.d, got, tc.want)
		}
		if got := frameAt(tc.d, testRate); tc.d > 0 && frameTime(got, testRate) < tc.d {
			t.Errorf("frame %d starts before %v", got, tc.d)
		}
	}
}

func TestRenderClearsEffectTails(t *testing.T) {
	pl, err := NewPlayer(testRate, WithOffline(), WithEffects(EffectConfig{Type: "delay", Time: 0.01, Wet: 1}))
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	// leave an impulse sitting in the delay line
	impulse := make([]float32, 64)
	impulse[0], impulse[1] = 1, 1
	pl.inserts.Process(impulse)

	out, err := pl.Render(0.05)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if p := peak(out, 0, 0, 50*time.Millisecond); p != 0 {
		t.Fatalf("echo from before the render leaked in: %v", p)
	}
}
