package session

import (
	"encoding/json"

	"github.com/altalearn/voicetutor/pkg/tools"
)

// Outbound frame builders. The peer protocol is JSON over the duplex
// channel; frames are plain maps the channel serializes on write.

// setupFrame is the one-time session configuration: model, voice,
// persona, transcription, and the tool declarations the peer may call.
func setupFrame(model, voice, systemInstruction string, decls []tools.Declaration) map[string]any {
	var declarations []map[string]any
	for _, d := range decls {
		entry := map[string]any{
			"name":        d.Name,
			"description": d.Description,
		}
		if d.Parameters != nil {
			entry["parameters"] = d.Parameters
		}
		declarations = append(declarations, entry)
	}

	setup := map[string]any{
		"model": model,
		"generation_config": map[string]any{
			"response_modalities": []string{"AUDIO"},
			"speech_config": map[string]any{
				"voice_config": map[string]any{
					"prebuilt_voice_config": map[string]any{
						"voice_name": voice,
					},
				},
			},
		},
		"system_instruction": map[string]any{
			"parts": []map[string]any{
				{"text": systemInstruction},
			},
		},
		"input_audio_transcription":  map[string]any{},
		"output_audio_transcription": map[string]any{},
	}

	if len(declarations) > 0 {
		setup["tools"] = []map[string]any{
			{"function_declarations": declarations},
		}
	}

	return map[string]any{"setup": setup}
}

// audioFrame wraps one base64 PCM16 frame as a realtime media chunk.
func audioFrame(b64 string) map[string]any {
	return map[string]any{
		"realtime_input": map[string]any{
			"media_chunks": []map[string]any{
				{
					"data":      b64,
					"mime_type": "audio/pcm",
				},
			},
		},
	}
}

// toolResultFrame returns a tool outcome addressed by callID.
func toolResultFrame(res tools.Result) map[string]any {
	return map[string]any{
		"tool_response": map[string]any{
			"function_responses": []map[string]any{
				{
					"id": res.CallID,
					"response": map[string]any{
						"result": map[string]any{
							"ok":      res.OK,
							"message": res.Message,
						},
					},
				},
			},
		},
	}
}

// continuationFrame asks the peer to resume its turn after a tool result.
func continuationFrame() map[string]any {
	return map[string]any{
		"client_content": map[string]any{
			"turn_complete": true,
		},
	}
}

// textTurnFrame sends a user text turn and requests a response.
func textTurnFrame(text string) map[string]any {
	return map[string]any{
		"client_content": map[string]any{
			"turns": []map[string]any{
				{
					"role": "user",
					"parts": []map[string]any{
						{"text": text},
					},
				},
			},
			"turn_complete": true,
		},
	}
}

// Inbound normalization. The peer delivers tool calls in three wire
// shapes; all are normalized into tools.Request before dispatch, so
// protocol churn never reaches the dispatcher. Duplicate deliveries
// across shapes collapse on callID there.

// extractToolCalls pulls every tool call out of one inbound message,
// whatever shape it arrived in.
func extractToolCalls(msg map[string]any) []tools.Request {
	var reqs []tools.Request

	// Shape: standalone batch keyed "toolCall".
	if tc, ok := msg["toolCall"].(map[string]any); ok {
		reqs = append(reqs, functionCallBatch(tc)...)
	}

	// Shape: inline within a content part of the model turn.
	if sc, ok := msg["serverContent"].(map[string]any); ok {
		if mt, ok := sc["modelTurn"].(map[string]any); ok {
			if parts, ok := mt["parts"].([]any); ok {
				for _, p := range parts {
					part, ok := p.(map[string]any)
					if !ok {
						continue
					}
					if fc, ok := part["functionCall"].(map[string]any); ok {
						if req, ok := requestFromCall(fc); ok {
							reqs = append(reqs, req)
						}
					}
				}
			}
		}
	}

	// Shape: embedded in a turn-completion envelope's output list.
	if resp, ok := msg["response"].(map[string]any); ok {
		if output, ok := resp["output"].([]any); ok {
			for _, o := range output {
				item, ok := o.(map[string]any)
				if !ok {
					continue
				}
				if t, _ := item["type"].(string); t != "function_call" {
					continue
				}
				name, _ := item["name"].(string)
				id, _ := item["call_id"].(string)
				if name == "" || id == "" {
					continue
				}
				args := map[string]any{}
				if raw, ok := item["arguments"].(string); ok && raw != "" {
					// Malformed argument JSON degrades to empty args.
					_ = json.Unmarshal([]byte(raw), &args)
				}
				reqs = append(reqs, tools.Request{Name: name, CallID: id, Args: args})
			}
		}
	}

	return reqs
}

// functionCallBatch normalizes a "toolCall" batch.
func functionCallBatch(tc map[string]any) []tools.Request {
	calls, ok := tc["functionCalls"].([]any)
	if !ok {
		return nil
	}

	var reqs []tools.Request
	for _, c := range calls {
		fc, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if req, ok := requestFromCall(fc); ok {
			reqs = append(reqs, req)
		}
	}
	return reqs
}

// requestFromCall normalizes one function call entry. An entry missing
// its name or call id cannot be answered and is skipped.
func requestFromCall(fc map[string]any) (tools.Request, bool) {
	name, _ := fc["name"].(string)
	id, _ := fc["id"].(string)
	if name == "" || id == "" {
		return tools.Request{}, false
	}
	args, _ := fc["args"].(map[string]any)
	if args == nil {
		args = map[string]any{}
	}
	return tools.Request{Name: name, CallID: id, Args: args}, true
}
