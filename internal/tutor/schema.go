package tutor

import "github.com/abhisek/tierlab/internal/llm"

// HintSchema is the structured output of Hint.
var HintSchema = &llm.Schema{
	Name:        "tutor-hint",
	Description: "A single hint that guides the student without giving the answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hint": map[string]any{
				"type":        "string",
				"description": "One or two sentences nudging the student toward the learning goal",
				"minLength":   1,
			},
		},
		"required":             []any{"hint"},
		"additionalProperties": false,
	},
}
