// Package audioio provides the audio plumbing shared by the capture and
// playback sides of the tutoring engine: PCM16 chunk types, source/sink
// interfaces, a mock implementation for tests, and resampling helpers.
//
// The engine never opens an OS audio device itself. The browser is the
// microphone and the speaker; the web gateway feeds chunks into a Source
// and drains a Sink.
package audioio

import (
	"fmt"
	"time"
)

// Standard sample rates used by the session protocol.
const (
	// CaptureRate is the sample rate of microphone audio sent to the model.
	CaptureRate = 16000

	// PlaybackRate is the sample rate of synthesized audio from the model.
	PlaybackRate = 24000
)

// Config holds audio configuration for a source or sink.
type Config struct {
	// SampleRate is the audio sample rate in Hz.
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels is the number of audio channels.
	// Default: 1 (mono)
	Channels int `yaml:"channels" json:"channels"`

	// FrameDuration is the size of audio frames produced or consumed.
	FrameDuration time.Duration `yaml:"frame_duration" json:"frame_duration"`
}

// DefaultCaptureConfig returns a Config for the microphone side.
func DefaultCaptureConfig() Config {
	return Config{
		SampleRate:    CaptureRate,
		Channels:      1,
		FrameDuration: 170 * time.Millisecond,
	}
}

// DefaultPlaybackConfig returns a Config for the speaker side.
func DefaultPlaybackConfig() Config {
	return Config{
		SampleRate:    PlaybackRate,
		Channels:      1,
		FrameDuration: 20 * time.Millisecond,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.FrameDuration <= 0 {
		return fmt.Errorf("frame_duration must be positive, got %v", c.FrameDuration)
	}
	return nil
}

// FrameSize returns the number of samples per frame.
func (c *Config) FrameSize() int {
	return int(float64(c.SampleRate) * c.FrameDuration.Seconds())
}

// FrameBytes returns the size of a frame in bytes (assuming int16 samples).
func (c *Config) FrameBytes() int {
	return c.FrameSize() * c.Channels * 2
}
