package tools

// Declaration describes one tool to the peer in the session setup
// frame: its name, when to use it, and a JSON-schema parameter list.
type Declaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Declarations returns the full set of tools the tutor exposes.
func Declarations() []Declaration {
	secondsParam := func(desc string) map[string]any {
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"seconds": map[string]any{
					"type":        "number",
					"description": desc,
				},
			},
		}
	}

	return []Declaration{
		{
			Name:        "play_video",
			Description: "Resume playback of the lesson video. Use after you finish explaining something.",
		},
		{
			Name:        "pause_video",
			Description: "Pause the lesson video, for example when the student asks a question.",
		},
		{
			Name:        "restart_video",
			Description: "Restart the lesson video from the beginning.",
		},
		{
			Name:        "seek_video",
			Description: "Jump to an absolute position in the lesson video.",
			Parameters:  secondsParam("Absolute position in seconds from the start of the video."),
		},
		{
			Name:        "seek_forward",
			Description: "Skip forward in the lesson video.",
			Parameters:  secondsParam("How many seconds to skip forward. Defaults to 10."),
		},
		{
			Name:        "seek_backward",
			Description: "Skip backward in the lesson video to replay a section.",
			Parameters:  secondsParam("How many seconds to skip backward. Defaults to 10."),
		},
		{
			Name:        "save_student_name",
			Description: "Remember the student's name when they introduce themselves.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "The student's preferred name.",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "save_emotional_observation",
			Description: "Record how the student seems to be feeling and what prompted it.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"emotion": map[string]any{
						"type":        "string",
						"description": "The observed emotional state, e.g. frustrated, proud.",
					},
					"context": map[string]any{
						"type":        "string",
						"description": "What was happening when the emotion was observed.",
					},
				},
				"required": []string{"emotion", "context"},
			},
		},
	}
}
