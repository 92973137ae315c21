// tutord: voice tutoring gateway daemon.
// Accepts student WebSocket connections and runs one realtime
// tutoring session per student against the conversational peer.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/altalearn/voicetutor/internal/config"
	"github.com/altalearn/voicetutor/internal/log"
	"github.com/altalearn/voicetutor/pkg/session"
	"github.com/altalearn/voicetutor/pkg/tokens"
	"github.com/altalearn/voicetutor/pkg/web"
)

var (
	version = "1.0.0"
	debug   = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	level := config.LogLevel()
	if *debug {
		level = "debug"
	}
	log.Init(level)

	issuer := &tokens.APIKeyIssuer{
		APIKey: config.GeminiAPIKey(),
		Model:  config.Model(),
	}

	sessCfg := session.DefaultConfig().
		WithSystemInstruction(config.SystemInstruction()).
		WithDebug(*debug)

	server, err := web.NewServer(web.Config{
		Addr:      config.ListenAddr(),
		Session:   sessCfg,
		Issuer:    issuer,
		MemoryDir: config.MemoryDir(),
		Debug:     *debug,
	})
	if err != nil {
		log.Error("failed to build gateway", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Error("gateway stopped", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("tutord started", "version", version, "addr", config.ListenAddr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
