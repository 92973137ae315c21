package session

import (
	"fmt"

	"github.com/altalearn/voicetutor/pkg/silence"
	"github.com/altalearn/voicetutor/pkg/tools"
)

// Gemini Live API WebSocket endpoint.
const liveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Config holds session settings.
type Config struct {
	// StudentID identifies the student for memory persistence.
	// Supplied by the session bootstrap layer, never derived here.
	StudentID string

	// SystemInstruction is the tutoring persona sent in the setup
	// frame and pinned into the ephemeral credential.
	SystemInstruction string

	// Voice selects the peer's prebuilt voice. Default: "Puck".
	Voice string

	// ChannelURL overrides the live endpoint; used by tests.
	ChannelURL string

	// Silence configures the re-engagement watchdog.
	Silence silence.Config

	// Tools configures the tool dispatcher.
	Tools tools.Config

	// Debug enables verbose protocol logging
	Debug bool
}

// DefaultConfig returns production-ready session settings.
func DefaultConfig() Config {
	return Config{
		Voice:      "Puck",
		ChannelURL: liveURL,
		Silence:    silence.DefaultConfig(),
		Tools:      tools.DefaultConfig(),
	}
}

// Validate checks configuration values.
func (c Config) Validate() error {
	if c.SystemInstruction == "" {
		return fmt.Errorf("session: system instruction is required")
	}
	if c.ChannelURL == "" {
		return fmt.Errorf("session: channel URL is required")
	}
	if err := c.Silence.Validate(); err != nil {
		return err
	}
	return c.Tools.Validate()
}

// WithStudentID returns a copy bound to the given student.
func (c Config) WithStudentID(id string) Config {
	c.StudentID = id
	return c
}

// WithSystemInstruction returns a copy with the given persona.
func (c Config) WithSystemInstruction(text string) Config {
	c.SystemInstruction = text
	return c
}

// WithVoice returns a copy with a custom voice.
func (c Config) WithVoice(voice string) Config {
	c.Voice = voice
	return c
}

// WithDebug returns a copy with debug logging enabled.
func (c Config) WithDebug(debug bool) Config {
	c.Debug = debug
	c.Silence = c.Silence.WithDebug(debug)
	c.Tools = c.Tools.WithDebug(debug)
	return c
}
