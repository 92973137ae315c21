package capture

import (
	"math"
	"time"
)

// biquad is a second-order IIR filter section (direct form II transposed).
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

// newHighPass returns a Butterworth high-pass biquad at the given cutoff.
func newHighPass(sampleRate int, cutoffHz float64) *biquad {
	return newBiquad(sampleRate, cutoffHz, true)
}

// newLowPass returns a Butterworth low-pass biquad at the given cutoff.
func newLowPass(sampleRate int, cutoffHz float64) *biquad {
	return newBiquad(sampleRate, cutoffHz, false)
}

func newBiquad(sampleRate int, cutoffHz float64, highpass bool) *biquad {
	const q = math.Sqrt2 / 2 // Butterworth

	w0 := 2 * math.Pi * cutoffHz / float64(sampleRate)
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	var b0, b1, b2 float64
	if highpass {
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
	} else {
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
	}
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	return &biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

// process filters a single sample.
func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x - f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	return y
}

// reset clears the filter state.
func (f *biquad) reset() {
	f.z1 = 0
	f.z2 = 0
}

// compressor is a feed-forward dynamic range compressor with an
// attack/release envelope follower. Input and output are normalized
// samples in [-1, 1].
type compressor struct {
	threshold float64 // linear amplitude
	ratio     float64
	attack    float64 // per-sample smoothing coefficient
	release   float64
	envelope  float64
}

func newCompressor(sampleRate int, thresholdDB, ratio float64, attack, release time.Duration) *compressor {
	return &compressor{
		threshold: math.Pow(10, thresholdDB/20),
		ratio:     ratio,
		attack:    timeCoefficient(sampleRate, attack),
		release:   timeCoefficient(sampleRate, release),
	}
}

// timeCoefficient converts a time constant to a one-pole smoothing coefficient.
func timeCoefficient(sampleRate int, tc time.Duration) float64 {
	samples := float64(sampleRate) * tc.Seconds()
	if samples < 1 {
		samples = 1
	}
	return math.Exp(-1 / samples)
}

// process compresses a single sample.
func (c *compressor) process(x float64) float64 {
	level := math.Abs(x)

	// Fast attack, slow release envelope
	if level > c.envelope {
		c.envelope = c.attack*c.envelope + (1-c.attack)*level
	} else {
		c.envelope = c.release*c.envelope + (1-c.release)*level
	}

	if c.envelope <= c.threshold || c.envelope == 0 {
		return x
	}

	// Gain reduction above threshold
	compressed := c.threshold * math.Pow(c.envelope/c.threshold, 1/c.ratio)
	return x * compressed / c.envelope
}

// reset clears the envelope state.
func (c *compressor) reset() {
	c.envelope = 0
}

// filterChain is the per-frame noise pipeline:
// high-pass -> low-pass -> compressor.
type filterChain struct {
	highpass *biquad
	lowpass  *biquad
	comp     *compressor
}

func newFilterChain(cfg Config) *filterChain {
	return &filterChain{
		highpass: newHighPass(cfg.SampleRate, cfg.HighPassHz),
		lowpass:  newLowPass(cfg.SampleRate, cfg.LowPassHz),
		comp:     newCompressor(cfg.SampleRate, cfg.CompThresholdDB, cfg.CompRatio, cfg.CompAttack, cfg.CompRelease),
	}
}

// process filters a frame in place.
func (fc *filterChain) process(samples []int16) {
	for i, s := range samples {
		x := float64(s) / 32768
		x = fc.highpass.process(x)
		x = fc.lowpass.process(x)
		x = fc.comp.process(x)
		if x > 1 {
			x = 1
		} else if x < -1 {
			x = -1
		}
		samples[i] = int16(x * 32767)
	}
}

// reset clears all filter state.
func (fc *filterChain) reset() {
	fc.highpass.reset()
	fc.lowpass.reset()
	fc.comp.reset()
}
