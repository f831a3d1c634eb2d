package synth

import (
	"log/slog"

	"github.com/cbegin/polysynth-go/internal/graph"
)

// recheckDelay pads the second look at a voice whose stop fired a hair before
// its release ramp was over.
const recheckDelay = 0.001

type ChannelOption func(*Channel)

func WithLogger(logger *slog.Logger) ChannelOption {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIndex tags the channel's log records with its position in the player.
func WithIndex(index int) ChannelOption {
	return func(c *Channel) {
		c.index = index
	}
}

// Channel owns the voices of one instrument part, at most Polyphony of them
// keyed by note number. Its methods are not safe for concurrent use; the
// player calls them from its timer loop only.
type Channel struct {
	ctx    *graph.Context
	cfg    Config
	build  voiceBuilder
	bus    *graph.Bus
	voices map[int]*Voice
	// tails are superseded voices still running out their release.
	tails  map[*Voice]struct{}
	bend   float64
	index  int
	logger *slog.Logger
}

// NewChannel validates cfg and connects a fresh channel bus into out.
// Requesting an unbuilt synthesis method fails with ErrUnimplementedMode, an
// unknown mode or a bad parameter with ErrInvalidConfig.
func NewChannel(ctx *graph.Context, out *graph.Bus, cfg Config, opts ...ChannelOption) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	build, err := builderFor(cfg.Mode)
	if err != nil {
		return nil, err
	}
	c := &Channel{
		ctx:    ctx,
		cfg:    cfg,
		build:  build,
		bus:    ctx.NewBus(),
		voices: make(map[int]*Voice, cfg.Polyphony),
		tails:  make(map[*Voice]struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.bus.Connect(out)
	return c, nil
}

// StartNote sounds note with the given bend. At the polyphony ceiling the
// request is dropped. A note that is already sounding is force-released and
// replaced; the old voice finishes its release on its own.
func (c *Channel) StartNote(note int, bend float64) {
	if len(c.voices) >= c.cfg.Polyphony {
		c.logger.Debug("note dropped", "channel", c.index, "note", note,
			"active", len(c.voices), "polyphony", c.cfg.Polyphony)
		return
	}
	v := c.build(c, note, bend)
	if old, ok := c.voices[note]; ok {
		c.supersede(old)
	}
	c.voices[note] = v
	v.Activate()
	v.connect(c.bus)
	v.onEnded(func() { c.complete(v) })
}

// StopNote releases the voice sounding note, if there is one.
func (c *Channel) StopNote(note int) {
	v, ok := c.voices[note]
	if !ok {
		c.logger.Debug("note-off without voice", "channel", c.index, "note", note)
		return
	}
	v.Deactivate()
}

// SetPitchBend bends every voice of the channel, including ones in their
// release tail, and remembers the bend for later note-ons.
func (c *Channel) SetPitchBend(raw int) {
	c.bend = c.cfg.bendOffset(raw)
	for _, v := range c.voices {
		v.SetBend(c.bend)
	}
	for v := range c.tails {
		v.SetBend(c.bend)
	}
}

// Bend is the current channel-wide bend in semitones.
func (c *Channel) Bend() float64 { return c.bend }

// Len is the number of voices holding a polyphony slot.
func (c *Channel) Len() int { return len(c.voices) }

// Sounding counts every voice still producing output, superseded ones too.
func (c *Channel) Sounding() int { return len(c.voices) + len(c.tails) }

func (c *Channel) Voice(note int) (*Voice, bool) {
	v, ok := c.voices[note]
	return v, ok
}

func (c *Channel) Config() Config { return c.cfg }

func (c *Channel) Bus() *graph.Bus { return c.bus }

func (c *Channel) supersede(old *Voice) {
	old.Deactivate()
	c.tails[old] = struct{}{}
	c.logger.Debug("voice superseded", "channel", c.index, "note", old.note)
}

// complete runs when a voice's oscillator stop fires. Only a voice whose
// envelope is Done is reclaimed; otherwise it is looked at again once the
// release end has passed.
func (c *Channel) complete(v *Voice) {
	if v.reclaimed {
		return
	}
	if v.Phase() != PhaseDone {
		end, _ := v.env.ReleaseEnd()
		c.ctx.Schedule(end+recheckDelay, func() { c.complete(v) })
		return
	}
	if cur, ok := c.voices[v.note]; ok && cur == v {
		delete(c.voices, v.note)
	}
	delete(c.tails, v)
	v.reclaimed = true
	v.disconnect()
	c.logger.Debug("voice reclaimed", "channel", c.index, "note", v.note)
}
