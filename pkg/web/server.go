// Package web is the browser-facing gateway. Each student connects
// over one WebSocket that carries microphone audio up, tutor audio
// down, and JSON control frames (session lifecycle, transcripts,
// video commands) in both directions.
package web

import (
	"fmt"
	"path/filepath"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/altalearn/voicetutor/internal/log"
	"github.com/altalearn/voicetutor/pkg/session"
	"github.com/altalearn/voicetutor/pkg/tokens"
)

// Config holds gateway settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Session is the template applied to every student session;
	// StudentID is stamped per connection.
	Session session.Config

	// Issuer mints a credential for each session.
	Issuer tokens.Issuer

	// MemoryDir is where per-student memory files live.
	MemoryDir string

	// Debug enables verbose gateway logging
	Debug bool
}

// Validate checks configuration values.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("web: listen address is required")
	}
	if c.Issuer == nil {
		return fmt.Errorf("web: token issuer is required")
	}
	if c.MemoryDir == "" {
		return fmt.Errorf("web: memory directory is required")
	}
	return c.Session.Validate()
}

// Server is the gateway HTTP/WebSocket server.
type Server struct {
	cfg Config
	app *fiber.App
}

// NewServer creates the gateway and registers its routes.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg}

	app := fiber.New(fiber.Config{
		AppName:               "voicetutor",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/session/:student", websocket.New(s.handleSession))

	s.app = app
	return s, nil
}

// Start serves until Shutdown.
func (s *Server) Start() error {
	log.Info("gateway listening", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// memoryPath returns the per-student memory file location.
func (s *Server) memoryPath(studentID string) string {
	return filepath.Join(s.cfg.MemoryDir, studentID+".json")
}
