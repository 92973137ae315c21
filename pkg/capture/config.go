package capture

import (
	"errors"
	"time"
)

// Config holds all tunable parameters for the capture pipeline.
// Parameters are organized by stage for clarity.
type Config struct {
	// Audio settings
	SampleRate    int           // Capture sample rate (default: 16000)
	FrameDuration time.Duration // Duration of each emitted frame (default: 170ms)

	// Noise pipeline settings
	NoiseReduction  bool          // Enable filtering and gating (default: true)
	HighPassHz      float64       // Cut rumble below this frequency (default: 85)
	LowPassHz       float64       // Cut hiss above this frequency (default: 8000)
	CompThresholdDB float64       // Compressor threshold in dBFS (default: -24)
	CompRatio       float64       // Compression ratio (default: 4)
	CompAttack      time.Duration // Compressor attack time (default: 3ms)
	CompRelease     time.Duration // Compressor release time (default: 250ms)

	// VAD (Voice Activity Detection) settings
	VADMinRMS          float64 // Fixed minimum RMS for voice, 0.0-1.0 (default: 0.01)
	VADFloorMultiplier float64 // Voice threshold as multiple of noise floor (default: 3)
	VADFloorAdaptRate  float64 // Noise floor blend rate per quiet frame (default: 0.05)
	VADZeroCrossMin    float64 // Minimum zero-crossing rate for speech (default: 0.01)
	VADZeroCrossMax    float64 // Maximum zero-crossing rate for speech (default: 0.35)
	HangoverFrames     int     // Consecutive non-voice frames before suppression (default: 3)

	// Debug settings
	Debug bool // Enable debug logging
}

// DefaultConfig returns a Config with sensible defaults for 16kHz speech.
func DefaultConfig() Config {
	return Config{
		SampleRate:    16000,
		FrameDuration: 170 * time.Millisecond,

		NoiseReduction:  true,
		HighPassHz:      85,
		LowPassHz:       8000,
		CompThresholdDB: -24,
		CompRatio:       4,
		CompAttack:      3 * time.Millisecond,
		CompRelease:     250 * time.Millisecond,

		VADMinRMS:          0.01,
		VADFloorMultiplier: 3,
		VADFloorAdaptRate:  0.05,
		VADZeroCrossMin:    0.01,
		VADZeroCrossMax:    0.35,
		HangoverFrames:     3,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("capture: sample rate must be positive")
	}
	if c.FrameDuration <= 0 {
		return errors.New("capture: frame duration must be positive")
	}
	if c.VADMinRMS < 0 || c.VADMinRMS > 1 {
		return errors.New("capture: VAD minimum RMS must be between 0 and 1")
	}
	if c.VADFloorMultiplier <= 1 {
		return errors.New("capture: VAD floor multiplier must be greater than 1")
	}
	if c.VADFloorAdaptRate <= 0 || c.VADFloorAdaptRate >= 1 {
		return errors.New("capture: VAD floor adapt rate must be between 0 and 1")
	}
	if c.VADZeroCrossMin >= c.VADZeroCrossMax {
		return errors.New("capture: VAD zero-crossing band is empty")
	}
	if c.HangoverFrames < 1 {
		return errors.New("capture: hangover frames must be at least 1")
	}
	if c.NoiseReduction {
		if c.HighPassHz <= 0 || c.LowPassHz <= c.HighPassHz {
			return errors.New("capture: filter band is invalid")
		}
		if c.CompRatio < 1 {
			return errors.New("capture: compression ratio must be at least 1")
		}
	}
	return nil
}

// FrameSize returns the number of samples per emitted frame.
func (c *Config) FrameSize() int {
	return int(float64(c.SampleRate) * c.FrameDuration.Seconds())
}

// WithFrameDuration returns a copy with the frame duration set.
func (c Config) WithFrameDuration(d time.Duration) Config {
	c.FrameDuration = d
	return c
}

// WithNoiseReduction returns a copy with the noise pipeline toggled.
func (c Config) WithNoiseReduction(enabled bool) Config {
	c.NoiseReduction = enabled
	return c
}

// WithVAD returns a copy with the core VAD thresholds set.
func (c Config) WithVAD(minRMS, floorMultiplier float64) Config {
	c.VADMinRMS = minRMS
	c.VADFloorMultiplier = floorMultiplier
	return c
}

// WithDebug returns a copy with debug enabled.
func (c Config) WithDebug(debug bool) Config {
	c.Debug = debug
	return c
}
