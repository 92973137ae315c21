package session

import (
	"testing"

	"github.com/altalearn/voicetutor/pkg/tools"
)

func TestSetupFrame(t *testing.T) {
	frame := setupFrame("models/test-live", "Puck", "Be patient.", tools.Declarations())

	setup, ok := frame["setup"].(map[string]any)
	if !ok {
		t.Fatal("missing setup envelope")
	}
	if setup["model"] != "models/test-live" {
		t.Errorf("unexpected model %v", setup["model"])
	}

	si, _ := setup["system_instruction"].(map[string]any)
	parts, _ := si["parts"].([]map[string]any)
	if len(parts) != 1 || parts[0]["text"] != "Be patient." {
		t.Errorf("system instruction not carried: %v", si)
	}

	declared, _ := setup["tools"].([]map[string]any)
	if len(declared) != 1 {
		t.Fatalf("expected one tools entry, got %d", len(declared))
	}
	fns, _ := declared[0]["function_declarations"].([]map[string]any)
	if len(fns) != len(tools.Declarations()) {
		t.Errorf("expected %d declarations, got %d", len(tools.Declarations()), len(fns))
	}

	if _, ok := setup["input_audio_transcription"]; !ok {
		t.Error("input transcription not requested")
	}
	if _, ok := setup["output_audio_transcription"]; !ok {
		t.Error("output transcription not requested")
	}
}

func TestExtractToolCalls_BatchShape(t *testing.T) {
	msg := map[string]any{
		"toolCall": map[string]any{
			"functionCalls": []any{
				map[string]any{
					"name": "pause_video",
					"id":   "c1",
					"args": map[string]any{},
				},
				map[string]any{
					"name": "seek_video",
					"id":   "c2",
					"args": map[string]any{"seconds": float64(30)},
				},
			},
		},
	}

	reqs := extractToolCalls(msg)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].Name != "pause_video" || reqs[0].CallID != "c1" {
		t.Errorf("unexpected first request %+v", reqs[0])
	}
	if reqs[1].Args["seconds"] != float64(30) {
		t.Errorf("args not carried: %+v", reqs[1])
	}
}

func TestExtractToolCalls_InlinePartShape(t *testing.T) {
	msg := map[string]any{
		"serverContent": map[string]any{
			"modelTurn": map[string]any{
				"parts": []any{
					map[string]any{"text": "let me pause that"},
					map[string]any{
						"functionCall": map[string]any{
							"name": "pause_video",
							"id":   "c3",
						},
					},
				},
			},
		},
	}

	reqs := extractToolCalls(msg)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Name != "pause_video" || reqs[0].CallID != "c3" {
		t.Errorf("unexpected request %+v", reqs[0])
	}
	if reqs[0].Args == nil {
		t.Error("missing args must normalize to an empty map")
	}
}

func TestExtractToolCalls_TurnEnvelopeShape(t *testing.T) {
	msg := map[string]any{
		"response": map[string]any{
			"output": []any{
				map[string]any{"type": "message"},
				map[string]any{
					"type":      "function_call",
					"name":      "seek_forward",
					"call_id":   "c4",
					"arguments": `{"seconds": 15}`,
				},
			},
		},
	}

	reqs := extractToolCalls(msg)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Name != "seek_forward" || reqs[0].CallID != "c4" {
		t.Errorf("unexpected request %+v", reqs[0])
	}
	if reqs[0].Args["seconds"] != float64(15) {
		t.Errorf("string arguments not parsed: %+v", reqs[0].Args)
	}
}

func TestExtractToolCalls_MalformedEnvelopeArguments(t *testing.T) {
	msg := map[string]any{
		"response": map[string]any{
			"output": []any{
				map[string]any{
					"type":      "function_call",
					"name":      "seek_forward",
					"call_id":   "c5",
					"arguments": "{broken",
				},
			},
		},
	}

	reqs := extractToolCalls(msg)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if len(reqs[0].Args) != 0 {
		t.Errorf("malformed arguments must degrade to empty, got %+v", reqs[0].Args)
	}
}

func TestExtractToolCalls_SkipsEntriesMissingNameOrID(t *testing.T) {
	msg := map[string]any{
		"toolCall": map[string]any{
			"functionCalls": []any{
				map[string]any{"name": "pause_video"},
				map[string]any{"id": "c6"},
				map[string]any{"name": "pause_video", "id": "c7"},
			},
		},
		"serverContent": map[string]any{
			"modelTurn": map[string]any{
				"parts": []any{
					map[string]any{
						"functionCall": map[string]any{"name": "play_video"},
					},
				},
			},
		},
		"response": map[string]any{
			"output": []any{
				map[string]any{"type": "function_call", "name": "seek_forward"},
				map[string]any{"type": "function_call", "call_id": "c8"},
			},
		},
	}

	reqs := extractToolCalls(msg)
	if len(reqs) != 1 {
		t.Fatalf("expected only the addressable call, got %+v", reqs)
	}
	if reqs[0].Name != "pause_video" || reqs[0].CallID != "c7" {
		t.Errorf("unexpected surviving request %+v", reqs[0])
	}
}

func TestExtractToolCalls_IgnoresUnrelatedMessages(t *testing.T) {
	msg := map[string]any{
		"serverContent": map[string]any{
			"turnComplete": true,
		},
	}
	if reqs := extractToolCalls(msg); len(reqs) != 0 {
		t.Errorf("expected no requests, got %+v", reqs)
	}
}

func TestToolResultFrame(t *testing.T) {
	frame := toolResultFrame(tools.Result{CallID: "c1", OK: true, Message: "ok"})

	tr, _ := frame["tool_response"].(map[string]any)
	responses, _ := tr["function_responses"].([]map[string]any)
	if len(responses) != 1 || responses[0]["id"] != "c1" {
		t.Fatalf("result not addressed by callId: %v", frame)
	}
}

func TestTextTurnFrame(t *testing.T) {
	frame := textTurnFrame("hello")

	cc, _ := frame["client_content"].(map[string]any)
	if cc["turn_complete"] != true {
		t.Error("text turn must request a response")
	}
	turns, _ := cc["turns"].([]map[string]any)
	if len(turns) != 1 || turns[0]["role"] != "user" {
		t.Fatalf("unexpected turns: %v", cc)
	}
}
