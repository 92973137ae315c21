// Package tools executes tool calls issued by the conversational peer.
//
// The session layer normalizes every wire shape into a Request before it
// reaches the Dispatcher, so this package never sees protocol framing.
// Each handled call produces exactly one Result and exactly one turn
// continuation, success or failure; tool failures are data sent back to
// the peer, never errors thrown across the dispatch boundary.
package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/altalearn/voicetutor/internal/log"
	"github.com/altalearn/voicetutor/pkg/media"
)

// Request is a tool call normalized from any wire shape.
type Request struct {
	// Name is the tool being invoked (e.g., "pause_video").
	Name string

	// CallID matches results back to the correct call.
	CallID string

	// Args contains the parsed arguments from the peer.
	Args map[string]any
}

// Result is the outcome of a tool invocation, addressed by CallID.
type Result struct {
	CallID  string
	OK      bool
	Message string
}

// Responder delivers tool results and turn continuations to the peer.
// The session controller implements it over the duplex channel.
type Responder interface {
	// SendToolResult returns a result to the peer.
	SendToolResult(res Result) error

	// RequestContinuation asks the peer to resume its turn.
	RequestContinuation() error
}

// Speech reports whether the tutor is currently narrating.
// The playback queue satisfies it.
type Speech interface {
	IsSpeaking() bool
	Idle() bool
}

// Memory is the student-knowledge sink the save tools write to.
type Memory interface {
	SaveStudentName(name string) error
	SaveEmotionalObservation(emotion, context string) error
}

// Dispatcher executes tool calls against the media surface and
// memory sink. Safe for concurrent use; one instance per session.
type Dispatcher struct {
	cfg    Config
	media  *media.Controller
	speech Speech
	memory Memory
	resp   Responder

	mu        sync.Mutex
	processed map[string]struct{}
	epoch     uint64
	waitGen   uint64
}

// NewDispatcher creates a dispatcher bound to its collaborators.
func NewDispatcher(cfg Config, mediaCtrl *media.Controller, speech Speech, memory Memory, resp Responder) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		media:     mediaCtrl,
		speech:    speech,
		memory:    memory,
		resp:      resp,
		processed: make(map[string]struct{}),
	}
}

// Reset clears per-session state: the processed-callID set and any
// outstanding deferred wait. Called on disconnect; deferred actions
// captured before the reset become no-ops.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processed = make(map[string]struct{})
	d.epoch++
	d.waitGen++
}

// Handle executes one tool call. The same callID is acted on at most
// once per session regardless of how many times or in which wire shape
// it arrives. Malformed argsJSON degrades to an empty argument set.
// Handle returns quickly; play/restart waits run asynchronously.
func (d *Dispatcher) Handle(name, callID, argsJSON string) {
	args := map[string]any{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			log.Warn("malformed tool arguments, using empty set", "tool", name, "error", err)
			args = map[string]any{}
		}
	}
	d.HandleRequest(Request{Name: name, CallID: callID, Args: args})
}

// HandleRequest executes one normalized tool call.
func (d *Dispatcher) HandleRequest(req Request) {
	d.mu.Lock()
	if _, seen := d.processed[req.CallID]; seen {
		d.mu.Unlock()
		if d.cfg.Debug {
			log.Debug("duplicate tool call ignored", "tool", req.Name, "call_id", req.CallID)
		}
		return
	}
	d.processed[req.CallID] = struct{}{}
	epoch := d.epoch
	d.mu.Unlock()

	if d.cfg.Debug {
		log.Debug("tool call", "tool", req.Name, "call_id", req.CallID)
	}

	switch req.Name {
	case "play_video":
		d.deferUntilQuiet(req, epoch, d.media.Play)
	case "restart_video":
		d.deferUntilQuiet(req, epoch, d.media.Restart)
	case "pause_video":
		d.respond(req, d.media.Pause())
	case "seek_video":
		seconds, ok := toSeconds(req.Args["seconds"])
		if !ok {
			seconds = 0
		}
		d.respond(req, d.media.SeekTo(seconds))
	case "seek_forward":
		d.relativeSeek(req, 1)
	case "seek_backward":
		d.relativeSeek(req, -1)
	case "save_student_name":
		d.saveName(req)
	case "save_emotional_observation":
		d.saveObservation(req)
	default:
		d.fail(req, fmt.Sprintf("unknown tool %q", req.Name))
	}
}

// deferUntilQuiet runs action once the tutor stops narrating, so the
// video's audio never talks over the model's own voice. Only the most
// recent play/restart wait stays live; an older one is superseded.
// The wait is bounded by SpeechWaitTimeout.
func (d *Dispatcher) deferUntilQuiet(req Request, epoch uint64, action func() error) {
	if !d.speech.IsSpeaking() && d.speech.Idle() {
		// An immediate play/restart still supersedes a wait left over
		// from when narration was active.
		d.mu.Lock()
		d.waitGen++
		d.mu.Unlock()
		d.respond(req, action())
		return
	}

	d.mu.Lock()
	d.waitGen++
	gen := d.waitGen
	d.mu.Unlock()

	go func() {
		deadline := time.Now().Add(d.cfg.SpeechWaitTimeout)
		for {
			time.Sleep(d.cfg.SpeechPollInterval)

			d.mu.Lock()
			stale := d.epoch != epoch
			superseded := d.waitGen != gen
			d.mu.Unlock()

			if stale {
				// Session ended while waiting; no peer to answer.
				return
			}
			if superseded {
				d.fail(req, "superseded by a newer playback command")
				return
			}
			if !d.speech.IsSpeaking() && d.speech.Idle() {
				d.respond(req, action())
				return
			}
			if time.Now().After(deadline) {
				d.fail(req, fmt.Sprintf("narration did not finish within %v", d.cfg.SpeechWaitTimeout))
				return
			}
		}
	}()
}

func (d *Dispatcher) relativeSeek(req Request, direction float64) {
	offset, ok := toSeconds(req.Args["seconds"])
	if !ok {
		offset = d.cfg.SeekOffset
	}

	current, err := d.media.CurrentTime()
	if err != nil {
		d.respond(req, err)
		return
	}

	target := current + direction*offset
	if target < 0 {
		target = 0
	}
	d.respond(req, d.media.SeekTo(target))
}

func (d *Dispatcher) saveName(req Request) {
	name, _ := req.Args["name"].(string)
	if name == "" {
		d.fail(req, "save_student_name requires a name argument")
		return
	}
	d.respond(req, d.memory.SaveStudentName(name))
}

func (d *Dispatcher) saveObservation(req Request) {
	emotion, _ := req.Args["emotion"].(string)
	context, _ := req.Args["context"].(string)
	if emotion == "" || context == "" {
		d.fail(req, "save_emotional_observation requires emotion and context arguments")
		return
	}
	d.respond(req, d.memory.SaveEmotionalObservation(emotion, context))
}

// respond turns an action outcome into a Result and a continuation.
func (d *Dispatcher) respond(req Request, err error) {
	if err != nil {
		d.fail(req, err.Error())
		return
	}
	d.send(Result{CallID: req.CallID, OK: true, Message: "ok"})
}

// fail reports a tool failure to the peer as data. The session stays
// connected and the conversation continues.
func (d *Dispatcher) fail(req Request, message string) {
	log.Warn("tool call failed", "tool", req.Name, "call_id", req.CallID, "reason", message)
	d.send(Result{CallID: req.CallID, OK: false, Message: message})
}

func (d *Dispatcher) send(res Result) {
	if err := d.resp.SendToolResult(res); err != nil {
		log.Error("failed to send tool result", "call_id", res.CallID, "error", err)
		return
	}
	if err := d.resp.RequestContinuation(); err != nil {
		log.Error("failed to request turn continuation", "call_id", res.CallID, "error", err)
	}
}

// toSeconds extracts a finite seconds value from a JSON argument.
func toSeconds(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
