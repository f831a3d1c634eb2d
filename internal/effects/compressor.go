package effects

import "math"

// Compressor reduces the level of each side above a threshold. It keeps a
// dense chord from clipping the master bus.
type Compressor struct {
	threshold float64
	slope     float64
	attack    float64
	release   float64
	makeup    float32
	env       [2]float64
}

// NewCompressor takes the threshold and makeup gain in dB and the attack and
// release times in seconds.
func NewCompressor(sampleRate int, thresholdDB, ratio, attack, release, makeupDB float64) *Compressor {
	return &Compressor{
		threshold: dbToGain(thresholdDB),
		slope:     1/math.Max(ratio, 1) - 1,
		attack:    smoothing(attack, sampleRate),
		release:   smoothing(release, sampleRate),
		makeup:    float32(dbToGain(makeupDB)),
	}
}

func dbToGain(db float64) float64 { return math.Pow(10, db/20) }

// smoothing is the one-pole coefficient reaching 63% of a step in seconds.
func smoothing(seconds float64, sampleRate int) float64 {
	if seconds <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(seconds*float64(sampleRate)))
}

func (c *Compressor) Process(buf []float32) {
	for i, s := range buf {
		side := i & 1
		level := math.Abs(float64(s))
		coef := c.release
		if level > c.env[side] {
			coef = c.attack
		}
		c.env[side] += coef * (level - c.env[side])
		buf[i] = s * float32(c.gain(c.env[side])) * c.makeup
	}
}

func (c *Compressor) gain(env float64) float64 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1
	}
	return math.Pow(env/c.threshold, c.slope)
}

func (c *Compressor) Reset() {
	c.env = [2]float64{}
}
