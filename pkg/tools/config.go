package tools

import (
	"fmt"
	"time"
)

// Config holds tool dispatcher settings.
type Config struct {
	// SpeechWaitTimeout bounds how long play_video/restart_video wait
	// for tutor narration to finish before giving up. Default: 20s.
	SpeechWaitTimeout time.Duration

	// SpeechPollInterval is how often the deferred wait re-checks the
	// playback queue. Default: 200ms.
	SpeechPollInterval time.Duration

	// SeekOffset is the relative seek distance used when the peer
	// omits the seconds argument. Default: 10s.
	SeekOffset float64

	// Debug enables verbose dispatch logging
	Debug bool
}

// DefaultConfig returns production-ready dispatcher settings.
func DefaultConfig() Config {
	return Config{
		SpeechWaitTimeout:  20 * time.Second,
		SpeechPollInterval: 200 * time.Millisecond,
		SeekOffset:         10,
	}
}

// Validate checks configuration values.
func (c Config) Validate() error {
	if c.SpeechWaitTimeout <= 0 {
		return fmt.Errorf("tools: speech wait timeout must be positive, got %v", c.SpeechWaitTimeout)
	}
	if c.SpeechPollInterval <= 0 {
		return fmt.Errorf("tools: speech poll interval must be positive, got %v", c.SpeechPollInterval)
	}
	if c.SeekOffset <= 0 {
		return fmt.Errorf("tools: seek offset must be positive, got %v", c.SeekOffset)
	}
	return nil
}

// WithSpeechWaitTimeout returns a copy with a custom wait bound.
func (c Config) WithSpeechWaitTimeout(d time.Duration) Config {
	c.SpeechWaitTimeout = d
	return c
}

// WithSpeechPollInterval returns a copy with a custom poll interval.
func (c Config) WithSpeechPollInterval(d time.Duration) Config {
	c.SpeechPollInterval = d
	return c
}

// WithSeekOffset returns a copy with a custom default seek distance.
func (c Config) WithSeekOffset(seconds float64) Config {
	c.SeekOffset = seconds
	return c
}

// WithDebug returns a copy with debug logging enabled.
func (c Config) WithDebug(debug bool) Config {
	c.Debug = debug
	return c
}
