package polysynth

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	renderBlock = 256
	// maxRenderSeconds caps a render that runs until the track drains.
	maxRenderSeconds = 600
)

// Render plays the loaded track in virtual time and returns interleaved
// stereo samples. With seconds <= 0 it renders until every walker is through
// and every voice has finished its release.
func (p *Player) Render(seconds float64) ([]float32, error) {
	p.mu.Lock()
	if !p.cfg.offline {
		p.mu.Unlock()
		return nil, ErrNotOffline
	}
	if p.state != stateIdle {
		p.mu.Unlock()
		return nil, ErrPlaying
	}
	p.state = statePlaying
	seq := p.newScheduler()
	p.mu.Unlock()

	untilDrained := seconds <= 0
	if untilDrained {
		seconds = maxRenderSeconds
	}
	frames := int(float64(p.sampleRate) * seconds)
	out := make([]float32, 0, min(frames, p.sampleRate*10)*2)

	p.inserts.Reset()
	start := p.loop.Now()
	seq.Start()
	p.cfg.logger.Info("render started", "channels", len(p.channels), "events", len(p.events), "seconds", seconds)
	for f := 0; f < frames; {
		p.loop.RunUntil(start + frameTime(f, p.sampleRate))
		if untilDrained && seq.Running() == 0 && p.sounding() == 0 {
			break
		}
		n := min(renderBlock, frames-f)
		// a block ends where the next callback is due, so the callback
		// runs before the frames it affects
		if next, ok := p.loop.Next(); ok {
			if at := frameAt(next-start, p.sampleRate); at > f && at < f+n {
				n = at - f
			}
		}
		out = append(out, make([]float32, n*2)...)
		p.renderBlock(out[len(out)-n*2:])
		f += n
	}
	p.drained.Store(true)

	p.mu.Lock()
	p.state = stateFinished
	p.mu.Unlock()
	p.cfg.logger.Info("render ended", "frames", len(out)/2)
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded, Channel: -1})
	return out, nil
}

func frameTime(frame, sampleRate int) time.Duration {
	return time.Duration(frame) * time.Second / time.Duration(sampleRate)
}

// frameAt is the first frame whose time is at or after d.
func frameAt(d time.Duration, sampleRate int) int {
	if d <= 0 {
		return 0
	}
	n := int64(d) * int64(sampleRate)
	return int((n + int64(time.Second) - 1) / int64(time.Second))
}

// RenderSamples renders events through one channel per config, in order.
func RenderSamples(events []Event, configs []Config, sampleRate int, seconds float64, opts ...PlayerOption) ([]float32, error) {
	pl, err := NewPlayer(sampleRate, append(opts, WithOffline())...)
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		if _, err := pl.NewChannel(cfg); err != nil {
			return nil, err
		}
	}
	if err := pl.LoadTrack(events); err != nil {
		return nil, err
	}
	return pl.Render(seconds)
}

func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
