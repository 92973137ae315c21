package silence

import (
	"fmt"
	"time"
)

// Config holds silence watchdog settings.
type Config struct {
	// Threshold is how long the student may stay silent after the
	// tutor finishes speaking before a re-engagement prompt fires.
	// Default: 3s. Tunable, no derivation beyond field testing.
	Threshold time.Duration

	// RecheckInterval is how long to wait before re-checking when the
	// timer expires while tutor audio is still playing. Default: 500ms.
	RecheckInterval time.Duration

	// Debug enables verbose arm/cancel/fire logging
	Debug bool
}

// DefaultConfig returns production-ready watchdog settings.
func DefaultConfig() Config {
	return Config{
		Threshold:       3 * time.Second,
		RecheckInterval: 500 * time.Millisecond,
	}
}

// Validate checks configuration values.
func (c Config) Validate() error {
	if c.Threshold <= 0 {
		return fmt.Errorf("silence: threshold must be positive, got %v", c.Threshold)
	}
	if c.RecheckInterval <= 0 {
		return fmt.Errorf("silence: recheck interval must be positive, got %v", c.RecheckInterval)
	}
	return nil
}

// WithThreshold returns a copy with a custom silence threshold.
func (c Config) WithThreshold(d time.Duration) Config {
	c.Threshold = d
	return c
}

// WithRecheckInterval returns a copy with a custom recheck interval.
func (c Config) WithRecheckInterval(d time.Duration) Config {
	c.RecheckInterval = d
	return c
}

// WithDebug returns a copy with debug logging enabled.
func (c Config) WithDebug(debug bool) Config {
	c.Debug = debug
	return c
}
