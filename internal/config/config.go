// Package config provides configuration helpers for voicetutor commands.
package config

import (
	"fmt"
	"os"
)

// Defaults for the gateway daemon.
const (
	DefaultListenAddr = ":8080"
	DefaultMemoryDir  = "data/memory"
	DefaultLogLevel   = "info"

	defaultSystemInstruction = "You are a warm, patient voice tutor guiding a student " +
		"through a lesson video. Speak simply and briefly. Pause the video when the " +
		"student asks a question, and resume it when you finish explaining. Use the " +
		"video controls you have been given rather than describing what to do. When " +
		"the student tells you their name or shows how they feel, remember it."
)

// GeminiAPIKey returns the API key from GEMINI_API_KEY.
// Exits with a usage message if not set.
func GeminiAPIKey() string {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: GEMINI_API_KEY=... go run ./cmd/tutord")
		os.Exit(1)
	}
	return key
}

// ListenAddr returns the gateway listen address from TUTOR_ADDR or default.
func ListenAddr() string {
	if addr := os.Getenv("TUTOR_ADDR"); addr != "" {
		return addr
	}
	return DefaultListenAddr
}

// MemoryDir returns the student memory directory from TUTOR_MEMORY_DIR or default.
func MemoryDir() string {
	if p := os.Getenv("TUTOR_MEMORY_DIR"); p != "" {
		return p
	}
	return DefaultMemoryDir
}

// SystemInstruction returns the tutoring persona from TUTOR_SYSTEM_PROMPT
// or the built-in default.
func SystemInstruction() string {
	if p := os.Getenv("TUTOR_SYSTEM_PROMPT"); p != "" {
		return p
	}
	return defaultSystemInstruction
}

// Model returns the realtime model override from TUTOR_MODEL, or ""
// to use the token issuer default.
func Model() string {
	return os.Getenv("TUTOR_MODEL")
}

// LogLevel returns the log level from TUTOR_LOG_LEVEL or default.
func LogLevel() string {
	if lvl := os.Getenv("TUTOR_LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return DefaultLogLevel
}
