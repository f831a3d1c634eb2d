package polysynth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	intaudio "github.com/cbegin/polysynth-go/internal/audio"
	intclock "github.com/cbegin/polysynth-go/internal/clock"
	intfx "github.com/cbegin/polysynth-go/internal/effects"
	intgraph "github.com/cbegin/polysynth-go/internal/graph"
	intmidifile "github.com/cbegin/polysynth-go/internal/midifile"
	intmidiin "github.com/cbegin/polysynth-go/internal/midiin"
	intseq "github.com/cbegin/polysynth-go/internal/sequencer"
	intsynth "github.com/cbegin/polysynth-go/internal/synth"
	"golang.org/x/sync/errgroup"
)

var (
	ErrPlaying    = errors.New("polysynth: player has already been started")
	ErrOffline    = errors.New("polysynth: offline player cannot play in real time")
	ErrNotOffline = errors.New("polysynth: player was not created with WithOffline")
)

// PlaybackEvent carries playback progress from Watch().
type PlaybackEvent struct {
	Kind    int // EventPlaybackEnded, EventDispatched or EventChannelDone
	Channel int // -1 for EventPlaybackEnded
	Event   Event
}

const (
	EventPlaybackEnded int = iota
	EventDispatched
	EventChannelDone
)

// drainPoll is how often a finished sequence is checked for voices still
// ringing out.
const drainPoll = 50 * time.Millisecond

type PlayerOption func(*playerConfig)

type playerConfig struct {
	backend    Backend
	masterGain float64
	sampleTap  func([]float32)
	logger     *slog.Logger
	offline    bool
	keepAlive  bool
	effects    []EffectConfig
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{backend: BackendEbiten, masterGain: 1, logger: slog.Default()}
}

func WithBackend(backend Backend) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = backend
	}
}

// WithMasterGain sets the gain of the master bus. SetMasterVolume scales it.
func WithMasterGain(gain float64) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.masterGain = gain
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

func WithLogger(logger *slog.Logger) PlayerOption {
	return func(cfg *playerConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithOffline drives the player from virtual time. Such a player is rendered
// with Render instead of Play.
func WithOffline() PlayerOption {
	return func(cfg *playerConfig) {
		cfg.offline = true
	}
}

// WithKeepAlive keeps playback running after the track is over, until Stop.
// Use it when events arrive live through Send or ListenMIDI.
func WithKeepAlive(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.keepAlive = enabled
	}
}

// WithEffects inserts effects, in order, after the master bus.
func WithEffects(effects ...EffectConfig) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.effects = append(cfg.effects, effects...)
	}
}

type playState int

const (
	stateIdle playState = iota
	statePlaying
	stateFinished
)

// Player owns the timer loop, the signal graph and an ordered list of
// channels. It plays one track, once.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	cfg        playerConfig
	loop       *intclock.Loop
	graph      *intgraph.Context
	inserts    *intfx.Chain
	out        intaudio.Output
	drained    atomic.Bool
	channels   []*Channel
	events     []Event
	volume     float64
	state      playState
	cancel     context.CancelFunc
	done       chan struct{}
	err        error
	eventCh    chan PlaybackEvent
	eventChMu  sync.Mutex
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.masterGain < 0 {
		return nil, fmt.Errorf("master gain %v must not be negative", cfg.masterGain)
	}
	if cfg.offline {
		cfg.backend = BackendNone
	}
	inserts, err := intfx.Build(sampleRate, cfg.effects)
	if err != nil {
		return nil, err
	}
	loop := intclock.New()
	if cfg.offline {
		loop = intclock.NewVirtual()
	}
	g := intgraph.NewContext(sampleRate, loop)
	g.Destination().SetGain(cfg.masterGain)
	return &Player{
		sampleRate: sampleRate,
		cfg:        cfg,
		loop:       loop,
		graph:      g,
		inserts:    inserts,
		volume:     1,
	}, nil
}

func (p *Player) SampleRate() int { return p.sampleRate }

// NewChannel appends a channel built from cfg. The channel's index is its
// position in creation order; events addressed to that index reach it.
func (p *Player) NewChannel(cfg Config) (*Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateIdle {
		return nil, ErrPlaying
	}
	idx := len(p.channels)
	ch, err := intsynth.NewChannel(p.graph, p.graph.Destination(), cfg,
		intsynth.WithLogger(p.cfg.logger), intsynth.WithIndex(idx))
	if err != nil {
		return nil, fmt.Errorf("channel %d: %w", idx, err)
	}
	p.channels = append(p.channels, ch)
	return ch, nil
}

func (p *Player) Channels() []*Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Channel, len(p.channels))
	copy(out, p.channels)
	return out
}

// LoadTrack replaces the event sequence to play.
func (p *Player) LoadTrack(events []Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateIdle {
		return ErrPlaying
	}
	p.events = append([]Event(nil), events...)
	return nil
}

// LoadSMF loads a Standard MIDI File. MIDI channel n plays on channel n.
// With tracks given, only those tracks are merged; tempo changes are taken
// from every track regardless.
func (p *Player) LoadSMF(r io.Reader, tracks ...int) error {
	events, err := intmidifile.ReadWithOptions(r, trackOptions(tracks))
	if err != nil {
		return err
	}
	return p.LoadTrack(events)
}

func (p *Player) LoadFile(path string, tracks ...int) error {
	events, err := intmidifile.ReadFileWithOptions(path, trackOptions(tracks))
	if err != nil {
		return err
	}
	return p.LoadTrack(events)
}

func trackOptions(tracks []int) intmidifile.Options {
	if len(tracks) == 0 {
		return intmidifile.Options{}
	}
	return intmidifile.Options{Tracks: tracks}
}

// Track returns the loaded event sequence.
func (p *Player) Track() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func (p *Player) newScheduler() *intseq.Scheduler {
	chans := make([]intseq.Channel, len(p.channels))
	for i, ch := range p.channels {
		chans[i] = ch
	}
	return intseq.NewWithOptions(p.events, chans, p.loop, intseq.Options{
		OnDispatch: func(channel int, ev Event) {
			p.sendEvent(PlaybackEvent{Kind: EventDispatched, Channel: channel, Event: ev})
		},
		OnChannelDone: func(channel int) {
			p.sendEvent(PlaybackEvent{Kind: EventChannelDone, Channel: channel})
		},
		Logger: p.cfg.logger,
	})
}

// Play starts the track on the audio backend and returns immediately. Every
// channel starts walking the sequence at the same instant. Playback ends once
// every walker is through and every voice has finished its release.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.offline {
		return ErrOffline
	}
	if p.state != stateIdle {
		return ErrPlaying
	}
	out, err := intaudio.Open(p.cfg.backend, p.sampleRate, renderSource{p})
	if err != nil {
		return err
	}
	p.inserts.Reset()
	seq := p.newScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	drained := make(chan struct{})

	p.loop.Post(func() {
		seq.Start()
		p.cfg.logger.Info("playback started", "channels", len(p.channels), "events", len(p.events))
		p.awaitDrain(seq, func() {
			p.drained.Store(true)
			close(drained)
		})
	})
	g.Go(func() error {
		return p.loop.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-drained:
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	p.state = statePlaying
	p.cancel = cancel
	p.out = out
	p.done = make(chan struct{})
	out.Play()
	go p.finish(g, out, cancel, p.done)
	return nil
}

func (p *Player) finish(g *errgroup.Group, out intaudio.Output, cancel context.CancelFunc, done chan struct{}) {
	err := g.Wait()
	cancel()
	if stopErr := out.Stop(); err == nil {
		err = stopErr
	}
	p.mu.Lock()
	p.state = stateFinished
	p.err = err
	p.mu.Unlock()
	p.cfg.logger.Info("playback ended")
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded, Channel: -1})
	close(done)
}

// awaitDrain calls drained on the loop once the sequence is exhausted and no
// channel has a voice left.
func (p *Player) awaitDrain(seq *intseq.Scheduler, drained func()) {
	if p.cfg.keepAlive {
		return
	}
	var check func()
	check = func() {
		if seq.Running() == 0 && p.sounding() == 0 {
			drained()
			return
		}
		p.loop.AfterFunc(drainPoll, check)
	}
	check()
}

// sounding must run on the loop.
func (p *Player) sounding() int {
	n := 0
	for _, ch := range p.channels {
		n += ch.Sounding()
	}
	return n
}

// Send dispatches ev to its channel as soon as the loop gets to it, ignoring
// ev.Delay. Events for channels the player does not have are dropped.
func (p *Player) Send(ev Event) {
	p.loop.Post(func() {
		if ev.Channel < 0 || ev.Channel >= len(p.channels) {
			return
		}
		if intseq.Dispatch(p.channels[ev.Channel], ev) {
			p.sendEvent(PlaybackEvent{Kind: EventDispatched, Channel: ev.Channel, Event: ev})
		}
	})
}

// ListenMIDI plays notes from a live MIDI input port until ctx is done. An
// empty port takes the first one available.
func (p *Player) ListenMIDI(ctx context.Context, port string) error {
	return intmidiin.Listen(ctx, port, p.Send, p.cfg.logger)
}

// MIDIPorts lists the MIDI input ports ListenMIDI can open.
func MIDIPorts() ([]string, error) {
	return intmidiin.Ports()
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

// Stop ends playback and waits for the backend to shut down.
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.state != statePlaying || p.cancel == nil {
		p.mu.Unlock()
		return nil
	}
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	cancel()
	<-done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Wait blocks until playback ends and returns the error it ended with.
// It returns immediately if playback was never started.
func (p *Player) Wait() error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Watch returns a channel that receives playback events:
//   - EventDispatched: an event reached a channel (Channel, Event set)
//   - EventChannelDone: a channel's walker reached the end of the track
//   - EventPlaybackEnded: the track and all release tails are over, or Stop was called
//
// The channel is buffered (cap 64); receive in a goroutine to avoid dropping
// events. Only the most recent Watch() channel receives events; call Watch
// before Play.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 64)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	p.graph.Destination().SetGain(p.cfg.masterGain * p.volume)
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// PlaybackPosition returns the current output position of the audio driver
// in frames, i.e. what the listener actually hears right now. Returns 0 if
// not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	out := p.out
	p.mu.Unlock()
	if out == nil {
		return 0
	}
	pos := out.Position()
	return int64(pos.Seconds() * float64(p.sampleRate))
}

// renderSource feeds the audio backend from the signal graph.
type renderSource struct {
	p *Player
}

func (s renderSource) Process(dst []float32) {
	s.p.renderBlock(dst)
}

// Finished reports that the track is over and every voice has drained, which
// ends the backend stream.
func (s renderSource) Finished() bool {
	return s.p.drained.Load()
}

// renderBlock runs on whichever goroutine pulls audio: the backend's, or
// Render's.
func (p *Player) renderBlock(dst []float32) {
	p.graph.Process(dst)
	p.inserts.Process(dst)
	if p.cfg.sampleTap != nil {
		p.cfg.sampleTap(dst)
	}
}
