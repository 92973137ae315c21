package web

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/altalearn/voicetutor/internal/log"
	"github.com/altalearn/voicetutor/pkg/audioio"
	"github.com/altalearn/voicetutor/pkg/capture"
	"github.com/altalearn/voicetutor/pkg/media"
	"github.com/altalearn/voicetutor/pkg/memory"
	"github.com/altalearn/voicetutor/pkg/playback"
	"github.com/altalearn/voicetutor/pkg/session"
)

// controlMessage is a JSON frame from the browser.
type controlMessage struct {
	Type string `json:"type"`

	// Text carries the message for type "text".
	Text string `json:"text,omitempty"`

	// Codec and SampleRate negotiate the mic format ("audio_format").
	Codec      string `json:"codec,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`

	// Position, Paused, and Ready report video state ("media_state").
	Position float64 `json:"position,omitempty"`
	Paused   bool    `json:"paused,omitempty"`
	Ready    bool    `json:"ready,omitempty"`
}

// event is a JSON frame to the browser.
type event struct {
	Type    string `json:"type"`
	State   string `json:"state,omitempty"`
	Role    string `json:"role,omitempty"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

// client holds everything owned by one student connection.
type client struct {
	studentID string
	conn      *websocket.Conn
	writeMu   sync.Mutex

	ctrl      *session.Controller
	source    *BrowserSource
	sink      *BrowserSink
	surface   *BrowserSurface
	mediaCtrl *media.Controller
	profile   *memory.Profile
	opus      *OpusDecoder

	debug bool
}

// handleSession runs one student connection to completion.
func (s *Server) handleSession(c *websocket.Conn) {
	studentID := c.Params("student")
	if studentID == "" {
		studentID = "anonymous"
	}

	cl, err := s.newClient(c, studentID)
	if err != nil {
		log.Error("failed to build session", "student", studentID, "error", err)
		c.WriteJSON(event{Type: "error", Message: err.Error()})
		return
	}
	defer cl.teardown()

	log.Info("student connected", "student", studentID)
	cl.run()
	log.Info("student disconnected", "student", studentID)
}

// newClient wires the full per-session stack: memory, audio pipelines,
// media surface, and the session controller.
func (s *Server) newClient(c *websocket.Conn, studentID string) (*client, error) {
	cl := &client{
		studentID: studentID,
		conn:      c,
		debug:     s.cfg.Debug,
	}

	cl.profile = memory.NewWithFile(studentID, s.memoryPath(studentID))

	// Browsers capture at 48kHz; the capture pipeline resamples to 16k.
	cl.source = NewBrowserSource(audioio.Config{
		SampleRate:    48000,
		Channels:      1,
		FrameDuration: 20 * time.Millisecond,
	})

	cl.sink = NewBrowserSink(audioio.DefaultPlaybackConfig(), cl.sendBinary, func() error {
		return cl.sendJSON(event{Type: "audio_clear"})
	})
	if err := cl.sink.Start(context.Background()); err != nil {
		return nil, err
	}

	queue, err := playback.New(playback.DefaultConfig(), cl.sink, nil)
	if err != nil {
		return nil, err
	}

	cap, err := capture.New(capture.DefaultConfig(), nil)
	if err != nil {
		return nil, err
	}

	cl.surface = NewBrowserSurface(func(v any) error { return cl.sendJSON(v) })
	cl.mediaCtrl = media.NewController(nil)
	cl.mediaCtrl.Attach(cl.surface)

	cl.ctrl, err = session.New(s.cfg.Session.WithStudentID(studentID), session.Deps{
		Issuer:   s.cfg.Issuer,
		Capture:  cap,
		Playback: queue,
		Media:    cl.mediaCtrl,
		Memory:   cl.profile,
		Mic:      cl.source,
	})
	if err != nil {
		return nil, err
	}

	cl.ctrl.OnStateChange(func(st session.State) {
		cl.sendJSON(event{Type: "state", State: st.String()})
	})
	cl.ctrl.OnTranscript(func(role session.Role, text string) {
		cl.sendJSON(event{Type: "transcript", Role: string(role), Text: text})
	})
	cl.ctrl.OnError(func(err error) {
		cl.sendJSON(event{Type: "error", Message: err.Error()})
	})

	return cl, nil
}

// run drains the socket: binary frames are microphone audio, text
// frames are control messages. Malformed frames are logged and dropped.
func (cl *client) run() {
	for {
		mt, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}

		switch mt {
		case websocket.BinaryMessage:
			cl.pushAudio(data)
		case websocket.TextMessage:
			cl.control(data)
		}
	}
}

func (cl *client) pushAudio(data []byte) {
	if cl.opus != nil {
		samples, err := cl.opus.Decode(data)
		if err != nil {
			if cl.debug {
				log.Debug("dropping bad opus packet", "error", err)
			}
			return
		}
		cl.source.Push(append([]int16(nil), samples...))
		return
	}
	cl.source.Push(audioio.BytesToSamples(data))
}

func (cl *client) control(data []byte) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn("dropping malformed control frame", "student", cl.studentID, "error", err)
		return
	}

	switch msg.Type {
	case "connect":
		if err := cl.ctrl.Connect(context.Background()); err != nil {
			log.Warn("connect failed", "student", cl.studentID, "error", err)
		}

	case "disconnect":
		cl.ctrl.Disconnect()

	case "start_listening":
		if err := cl.ctrl.StartListening(context.Background()); err != nil {
			cl.sendJSON(event{Type: "error", Message: err.Error()})
		}

	case "stop_listening":
		cl.ctrl.StopListening()

	case "text":
		if msg.Text == "" {
			return
		}
		if err := cl.ctrl.SendText(msg.Text); err != nil {
			cl.sendJSON(event{Type: "error", Message: err.Error()})
		}

	case "audio_format":
		cl.negotiateAudio(msg)

	case "media_state":
		cl.surface.UpdateState(msg.Position, msg.Paused)
		if msg.Ready {
			cl.mediaCtrl.SetReady()
		}

	default:
		if cl.debug {
			log.Debug("unknown control message", "type", msg.Type)
		}
	}
}

func (cl *client) negotiateAudio(msg controlMessage) {
	if msg.SampleRate > 0 {
		cl.source.SetSampleRate(msg.SampleRate)
	}

	switch msg.Codec {
	case "opus":
		dec, err := NewOpusDecoder()
		if err != nil {
			cl.sendJSON(event{Type: "error", Message: err.Error()})
			return
		}
		cl.opus = dec
		// libopus always decodes at the rate the decoder was built for.
		cl.source.SetSampleRate(48000)
	case "", "pcm16":
		cl.opus = nil
	default:
		cl.sendJSON(event{Type: "error", Message: "unsupported codec " + msg.Codec})
	}
}

func (cl *client) sendJSON(v any) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	return cl.conn.WriteJSON(v)
}

func (cl *client) sendBinary(pcm []byte) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	return cl.conn.WriteMessage(websocket.BinaryMessage, pcm)
}

func (cl *client) teardown() {
	cl.ctrl.Disconnect()
	cl.source.Close()
	cl.sink.Close()
	cl.profile.Close()
}
