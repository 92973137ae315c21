// Package session drives one realtime tutoring conversation.
//
// A Controller owns the duplex channel to the conversational peer and
// coordinates the capture pipeline, the playback queue, the tool
// dispatcher, and the silence watchdog around it. One Controller per
// student session; all mutable state is confined to the instance.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/altalearn/voicetutor/internal/log"
	"github.com/altalearn/voicetutor/pkg/audioio"
	"github.com/altalearn/voicetutor/pkg/capture"
	"github.com/altalearn/voicetutor/pkg/media"
	"github.com/altalearn/voicetutor/pkg/playback"
	"github.com/altalearn/voicetutor/pkg/silence"
	"github.com/altalearn/voicetutor/pkg/tokens"
	"github.com/altalearn/voicetutor/pkg/tools"
)

// Role identifies who produced a transcript line.
type Role string

const (
	// RoleStudent marks transcriptions of the student's speech.
	RoleStudent Role = "student"

	// RoleTutor marks transcriptions of the tutor's speech.
	RoleTutor Role = "tutor"
)

// Deps are the controller's collaborators. Issuer, Capture, Playback,
// Media, and Memory are required. A nil Dial uses the production
// WebSocket dialer; a nil Mic fails StartListening.
type Deps struct {
	Issuer   tokens.Issuer
	Dial     Dialer
	Capture  *capture.Sink
	Playback *playback.Queue
	Media    *media.Controller
	Memory   tools.Memory
	Mic      audioio.Source
}

// Controller is the session engine.
type Controller struct {
	cfg  Config
	deps Deps

	dispatcher *tools.Dispatcher
	watchdog   *silence.Watchdog
	metrics    *metricsCollector

	mu     sync.Mutex
	state  State
	ch     Channel
	epoch  string
	cancel context.CancelFunc

	onState      func(State)
	onTranscript func(role Role, text string)
	onError      func(err error)
}

// New creates a session controller. The capture sink's callbacks are
// claimed by the controller; do not set them elsewhere.
func New(cfg Config, deps Deps) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Issuer == nil || deps.Capture == nil || deps.Playback == nil || deps.Media == nil || deps.Memory == nil {
		return nil, fmt.Errorf("session: issuer, capture, playback, media, and memory are required")
	}
	if deps.Dial == nil {
		deps.Dial = DialWebSocket
	}

	c := &Controller{
		cfg:     cfg,
		deps:    deps,
		metrics: newMetricsCollector(),
		state:   StateIdle,
	}

	c.dispatcher = tools.NewDispatcher(cfg.Tools, deps.Media, deps.Playback, deps.Memory, c)

	c.watchdog = silence.NewWatchdog(cfg.Silence, silence.Deps{
		SurfacePaused: deps.Media.IsPaused,
		PlaybackBusy:  func() bool { return !deps.Playback.Idle() },
		SendPrompt:    c.sendPrompt,
	}, nil)

	deps.Capture.OnFrame(c.sendAudioFrame)
	deps.Capture.OnVoice(c.watchdog.StudentSpeech)

	return c, nil
}

// OnStateChange sets the callback for lifecycle transitions.
func (c *Controller) OnStateChange(fn func(State)) {
	c.onState = fn
}

// OnTranscript sets the callback for completed transcript lines.
func (c *Controller) OnTranscript(fn func(role Role, text string)) {
	c.onTranscript = fn
}

// OnError sets the error callback.
func (c *Controller) OnError(fn func(err error)) {
	c.onError = fn
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Metrics returns the in-progress turn metrics snapshot.
func (c *Controller) Metrics() TurnMetrics {
	return c.metrics.Current()
}

// Connect exchanges credentials, opens the duplex channel, and sends
// the setup frame. A failed token exchange leaves no channel open.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	c.setState(StateConnecting)

	cred, err := c.deps.Issuer.Issue(ctx, c.cfg.SystemInstruction)
	if err != nil {
		cerr := &CredentialError{Cause: err}
		c.setState(StateError)
		c.emitError(cerr)
		return cerr
	}

	url := fmt.Sprintf("%s?access_token=%s", c.cfg.ChannelURL, cred.Token)
	ch, err := c.deps.Dial(ctx, url)
	if err != nil {
		cherr := &ChannelError{Reason: "dial failed", Cause: err}
		c.setState(StateError)
		c.emitError(cherr)
		return cherr
	}

	setup := setupFrame(cred.Model, c.cfg.Voice, c.cfg.SystemInstruction, tools.Declarations())
	if err := ch.SendJSON(setup); err != nil {
		ch.Close()
		cherr := &ChannelError{Reason: "setup failed", Cause: err}
		c.setState(StateError)
		c.emitError(cherr)
		return cherr
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	epoch := uuid.NewString()

	c.mu.Lock()
	c.ch = ch
	c.epoch = epoch
	c.cancel = cancel
	c.mu.Unlock()

	c.deps.Playback.Start(sessionCtx)
	c.setState(StateConnected)

	go c.readLoop(ch, epoch)

	log.Info("session connected", "model", cred.Model, "student", c.cfg.StudentID)
	return nil
}

// Disconnect tears the session down: cancels timers and deferred
// waits, discards queued audio, and closes the channel with a normal
// close code. Idempotent.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	ch := c.ch
	c.ch = nil
	c.epoch = ""
	cancel := c.cancel
	c.cancel = nil
	already := c.state == StateDisconnected || c.state == StateIdle
	c.mu.Unlock()

	if already && ch == nil {
		return nil
	}

	c.watchdog.Stop()
	c.dispatcher.Reset()
	c.deps.Capture.Stop()
	c.deps.Playback.Flush()
	c.deps.Playback.Stop()

	if cancel != nil {
		cancel()
	}

	var err error
	if ch != nil {
		err = ch.Close()
	}

	c.setState(StateDisconnected)
	log.Info("session disconnected", "student", c.cfg.StudentID)
	return err
}

// StartListening begins streaming microphone frames to the peer.
func (c *Controller) StartListening(ctx context.Context) error {
	c.mu.Lock()
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected {
		return ErrNotConnected
	}
	if c.deps.Mic == nil {
		return fmt.Errorf("%w: no microphone source configured", ErrMicrophoneAccess)
	}

	if err := c.deps.Mic.Start(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrMicrophoneAccess, err)
	}
	return c.deps.Capture.Start(ctx, c.deps.Mic)
}

// StopListening halts microphone streaming. The session stays up.
func (c *Controller) StopListening() error {
	if err := c.deps.Capture.Stop(); err != nil {
		return err
	}
	if c.deps.Mic != nil {
		return c.deps.Mic.Stop()
	}
	return nil
}

// SendText sends a typed student message as a user turn and requests
// a response. The transcript callback fires immediately so the UI can
// echo the message without waiting for the peer.
func (c *Controller) SendText(text string) error {
	c.mu.Lock()
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected {
		return ErrNotConnected
	}

	c.emitTranscript(RoleStudent, text)
	c.watchdog.StudentSpeech()
	return c.sendJSON(textTurnFrame(text))
}

// SendToolResult returns a tool outcome to the peer.
// Implements tools.Responder.
func (c *Controller) SendToolResult(res tools.Result) error {
	return c.sendJSON(toolResultFrame(res))
}

// RequestContinuation asks the peer to resume its turn.
// Implements tools.Responder.
func (c *Controller) RequestContinuation() error {
	return c.sendJSON(continuationFrame())
}

// sendPrompt delivers a silence re-engagement prompt as a user turn.
func (c *Controller) sendPrompt(prompt string) {
	if err := c.sendJSON(textTurnFrame(prompt)); err != nil {
		log.Warn("failed to send re-engagement prompt", "error", err)
	}
}

// sendAudioFrame ships one captured mic frame upstream.
func (c *Controller) sendAudioFrame(b64 string) {
	c.mu.Lock()
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected {
		return
	}

	c.metrics.incrementAudioOut()
	if err := c.sendJSON(audioFrame(b64)); err != nil {
		log.Warn("failed to send audio frame", "error", err)
	}
}

func (c *Controller) sendJSON(v any) error {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()

	if ch == nil {
		return ErrNotConnected
	}
	if err := ch.SendJSON(v); err != nil {
		return &ChannelError{Reason: "send failed", Cause: err}
	}
	return nil
}

// readLoop drains the channel until it closes. Malformed frames are
// swallowed with a diagnostic; they never crash the loop.
func (c *Controller) readLoop(ch Channel, epoch string) {
	for {
		data, err := ch.ReadMessage()
		if err != nil {
			c.mu.Lock()
			deliberate := c.epoch != epoch
			c.mu.Unlock()

			if !deliberate {
				// Abnormal close: transition and report, channel is gone.
				log.Warn("channel closed abnormally", "error", err)
				c.teardownAfterChannelLoss()
				c.emitError(&ChannelError{Reason: "closed abnormally", Cause: err})
			}
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn("dropping malformed inbound frame", "error", err)
			continue
		}

		c.handleMessage(msg, epoch)
	}
}

// teardownAfterChannelLoss mirrors Disconnect without touching the
// already-dead channel.
func (c *Controller) teardownAfterChannelLoss() {
	c.mu.Lock()
	c.ch = nil
	c.epoch = ""
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	c.watchdog.Stop()
	c.dispatcher.Reset()
	c.deps.Capture.Stop()
	c.deps.Playback.Flush()
	c.deps.Playback.Stop()
	if cancel != nil {
		cancel()
	}
	c.setState(StateDisconnected)
}

// handleMessage routes one inbound frame. Events from a previous
// session epoch are dropped; a stray audio delta arriving after
// disconnect must not reach the playback queue.
func (c *Controller) handleMessage(msg map[string]any, epoch string) {
	c.mu.Lock()
	stale := c.epoch != epoch
	c.mu.Unlock()
	if stale {
		return
	}

	if _, ok := msg["setupComplete"]; ok {
		if c.cfg.Debug {
			log.Debug("session setup complete")
		}
		return
	}

	// Error envelope: report without closing the channel.
	if errBody, ok := msg["error"]; ok {
		c.emitError(fmt.Errorf("session: peer error: %v", errBody))
		return
	}

	// Tool calls arrive in several wire shapes; normalize and dispatch
	// them all. Re-deliveries collapse on callId in the dispatcher.
	for _, req := range extractToolCalls(msg) {
		c.metrics.incrementToolCalls()
		c.dispatcher.HandleRequest(req)
	}

	if sc, ok := msg["serverContent"].(map[string]any); ok {
		c.handleServerContent(sc)
	}
}

// handleServerContent processes audio, transcripts, and turn signals.
func (c *Controller) handleServerContent(content map[string]any) {
	// Student barged in: drop queued tutor audio immediately.
	if interrupted, ok := content["interrupted"].(bool); ok && interrupted {
		c.deps.Playback.Flush()
		c.watchdog.StudentSpeech()
		return
	}

	if turnComplete, ok := content["turnComplete"].(bool); ok && turnComplete {
		c.metrics.markTurnDone()
		c.watchdog.PeerTurnComplete()
		return
	}

	if modelTurn, ok := content["modelTurn"].(map[string]any); ok {
		c.handleModelTurn(modelTurn)
	}

	if it, ok := content["inputTranscription"].(map[string]any); ok {
		if text, ok := it["text"].(string); ok && text != "" {
			c.metrics.markTranscript()
			c.watchdog.StudentSpeech()
			c.emitTranscript(RoleStudent, text)
		}
	}

	if ot, ok := content["outputTranscription"].(map[string]any); ok {
		if text, ok := ot["text"].(string); ok && text != "" {
			c.emitTranscript(RoleTutor, text)
		}
	}
}

func (c *Controller) handleModelTurn(modelTurn map[string]any) {
	parts, ok := modelTurn["parts"].([]any)
	if !ok {
		return
	}

	for _, p := range parts {
		part, ok := p.(map[string]any)
		if !ok {
			continue
		}

		if inline, ok := part["inlineData"].(map[string]any); ok {
			mime, _ := inline["mimeType"].(string)
			if mime != "audio/pcm" && mime != "audio/pcm;rate=24000" {
				continue
			}
			data, _ := inline["data"].(string)
			if data == "" {
				continue
			}
			c.metrics.markFirstAudio()
			c.metrics.incrementAudioIn()
			if err := c.deps.Playback.Enqueue(data); err != nil {
				log.Warn("dropping undecodable audio delta", "error", err)
			}
		}

		if text, ok := part["text"].(string); ok && text != "" {
			c.emitTranscript(RoleTutor, text)
		}
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	fn := c.onState
	c.mu.Unlock()

	if changed && fn != nil {
		fn(s)
	}
}

func (c *Controller) emitTranscript(role Role, text string) {
	if c.onTranscript != nil {
		c.onTranscript(role, text)
	}
}

func (c *Controller) emitError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

var _ tools.Responder = (*Controller)(nil)
