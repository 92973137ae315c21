package playback

import (
	"errors"
	"math"
)

// Config holds tunable parameters for the playback output chain.
type Config struct {
	// SampleRate is the playback sample rate (default: 24000).
	SampleRate int

	// Gain is the linear output gain applied before limiting (default: 1.0).
	Gain float64

	// LimiterThresholdDB is the ceiling in dBFS the limiter holds peaks
	// under to avoid clipping (default: -3).
	LimiterThresholdDB float64
}

// DefaultConfig returns a Config with sensible defaults for 24kHz speech.
func DefaultConfig() Config {
	return Config{
		SampleRate:         24000,
		Gain:               1.0,
		LimiterThresholdDB: -3,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("playback: sample rate must be positive")
	}
	if c.Gain <= 0 {
		return errors.New("playback: gain must be positive")
	}
	if c.LimiterThresholdDB > 0 {
		return errors.New("playback: limiter threshold must be at most 0 dBFS")
	}
	return nil
}

// WithGain returns a copy with the output gain set.
func (c Config) WithGain(gain float64) Config {
	c.Gain = gain
	return c
}

// outputChain is the gain stage plus peak limiter applied to each
// coalesced buffer before it reaches the sink.
type outputChain struct {
	gain    float64
	ceiling float64 // linear amplitude
}

func newOutputChain(cfg Config) *outputChain {
	return &outputChain{
		gain:    cfg.Gain,
		ceiling: math.Pow(10, cfg.LimiterThresholdDB/20),
	}
}

// process applies gain and limiting in place.
func (oc *outputChain) process(buf []int16) {
	if len(buf) == 0 {
		return
	}

	// Peak after gain
	peak := 0.0
	for _, s := range buf {
		v := math.Abs(float64(s)) / 32768 * oc.gain
		if v > peak {
			peak = v
		}
	}

	scale := oc.gain
	if peak > oc.ceiling && peak > 0 {
		// Pull the whole buffer down so the loudest peak sits at the
		// ceiling; cheaper than per-sample lookahead and inaudible on
		// speech-length buffers.
		scale = oc.gain * oc.ceiling / peak
	}

	if scale == 1.0 {
		return
	}
	for i, s := range buf {
		buf[i] = int16(float64(s) * scale)
	}
}
