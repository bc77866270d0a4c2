package chat

import (
	"context"
	"fmt"

	"keystone/llm"
	"keystone/models"
)

var estimateSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"low":   map[string]any{"type": "number", "minimum": 0},
		"high":  map[string]any{"type": "number", "minimum": 0},
		"notes": map[string]any{"type": "string"},
	},
	"required": []any{"low", "high"},
}

// Suggestion is a drafted price range for an estimate request.
type Suggestion struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Notes string  `json:"notes,omitempty"`
}

// SuggestEstimate asks the model for a rough price range.
func (s *Service) SuggestEstimate(ctx context.Context, e models.Estimate) (Suggestion, error) {
	prompt := fmt.Sprintf(
		"Give a rough price range in USD for a %s project of %.0f square feet. Budget stated: %q. Details: %q. Respond as JSON.",
		e.ProjectType, e.SquareFeet, e.Budget, e.Details)

	resp, err := s.gen.Generate(ctx, llm.Request{
		Prompt:             prompt,
		System:             systemPrompt,
		ResponseJSONSchema: estimateSchema,
	})
	if err != nil {
		return Suggestion{}, err
	}

	low, _ := resp.JSON["low"].(float64)
	high, _ := resp.JSON["high"].(float64)
	notes, _ := resp.JSON["notes"].(string)
	if high < low {
		low, high = high, low
	}
	return Suggestion{Low: low, High: high, Notes: notes}, nil
}
