package effects

// Delay is a stereo echo. Cross feeds part of each side's echo into the
// other side.
type Delay struct {
	line     [2][]float32
	pos      int
	feedback float32
	cross    float32
	wet      float32
}

// NewDelay creates a delay of the given time in seconds. feedback is clamped
// to [0, 0.95], cross and wet to [0, 1].
func NewDelay(sampleRate int, seconds, feedback, cross, wet float64) *Delay {
	n := max(int(seconds*float64(sampleRate)), 1)
	return &Delay{
		line:     [2][]float32{make([]float32, n), make([]float32, n)},
		feedback: clamp(float32(feedback), 0, 0.95),
		cross:    clamp(float32(cross), 0, 1),
		wet:      clamp(float32(wet), 0, 1),
	}
}

func (d *Delay) Process(buf []float32) {
	straight := d.feedback * (1 - d.cross)
	crossed := d.feedback * d.cross
	for i := 0; i+1 < len(buf); i += 2 {
		el, er := d.line[0][d.pos], d.line[1][d.pos]
		d.line[0][d.pos] = buf[i] + el*straight + er*crossed
		d.line[1][d.pos] = buf[i+1] + er*straight + el*crossed
		if d.pos++; d.pos == len(d.line[0]) {
			d.pos = 0
		}
		buf[i] += (el - buf[i]) * d.wet
		buf[i+1] += (er - buf[i+1]) * d.wet
	}
}

func (d *Delay) Reset() {
	clear(d.line[0])
	clear(d.line[1])
	d.pos = 0
}
