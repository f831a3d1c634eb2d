package effects

// Reverb is a Schroeder reverb: four parallel combs into two series
// allpasses over the mono sum, mixed back into both sides.
type Reverb struct {
	combs   [4]feedbackLine
	allpass [2]feedbackLine
	wet     float32
}

type feedbackLine struct {
	buf []float32
	pos int
	fb  float32
}

// comb and allpass lengths relative to the room's base length
var (
	combRatios    = [4]float64{1, 1.117, 1.271, 1.437}
	allpassRatios = [2]float64{0.347, 0.213}
)

// NewReverb creates a reverb. room in [0,1] scales the delay lengths up to
// 50ms, feedback sets the decay and wet the mix.
func NewReverb(sampleRate int, room, feedback, wet float64) *Reverb {
	base := max(float64(sampleRate)*room*0.05, 10)
	r := &Reverb{wet: clamp(float32(wet), 0, 1)}
	fb := clamp(float32(feedback), 0, 0.95)
	for i, ratio := range combRatios {
		r.combs[i] = feedbackLine{buf: make([]float32, int(base*ratio)), fb: fb}
	}
	for i, ratio := range allpassRatios {
		r.allpass[i] = feedbackLine{buf: make([]float32, max(int(base*ratio), 1)), fb: 0.5}
	}
	return r
}

func (r *Reverb) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		mono := (buf[i] + buf[i+1]) * 0.5
		var tail float32
		for c := range r.combs {
			tail += r.combs[c].comb(mono)
		}
		tail *= 0.25
		for a := range r.allpass {
			tail = r.allpass[a].allpass(tail)
		}
		buf[i] += (tail - buf[i]) * r.wet
		buf[i+1] += (tail - buf[i+1]) * r.wet
	}
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		r.combs[i].reset()
	}
	for i := range r.allpass {
		r.allpass[i].reset()
	}
}

func (l *feedbackLine) comb(in float32) float32 {
	out := l.buf[l.pos]
	l.buf[l.pos] = in + out*l.fb
	l.advance()
	return out
}

func (l *feedbackLine) allpass(in float32) float32 {
	delayed := l.buf[l.pos]
	l.buf[l.pos] = in + delayed*l.fb
	l.advance()
	return delayed - in
}

func (l *feedbackLine) advance() {
	if l.pos++; l.pos == len(l.buf) {
		l.pos = 0
	}
}

func (l *feedbackLine) reset() {
	clear(l.buf)
	l.pos = 0
}
