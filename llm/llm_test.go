package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	text string
	err  error
	last Request
}

func (f *fakeBackend) GenerateText(ctx context.Context, req Request) (string, error) {
	f.last = req
	return f.text, f.err
}

var rangeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"low":  map[string]any{"type": "number"},
		"high": map[string]any{"type": "number"},
	},
	"required": []any{"low", "high"},
}

func TestGenerate_PlainText(t *testing.T) {
	backend := &fakeBackend{text: "We build decks."}
	resp, err := New(backend).Generate(context.Background(), Request{Prompt: "what do you build?", AddContextFromInternet: true})
	require.NoError(t, err)
	assert.Equal(t, "We build decks.", resp.Text)
	assert.Nil(t, resp.JSON)
	assert.True(t, backend.last.AddContextFromInternet)
}

func TestGenerate_Structured(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantErr bool
	}{
		{"valid", `{"low": 1000, "high": 2500}`, false},
		{"fenced", "```json\n{\"low\": 1, \"high\": 2}\n```", false},
		{"missing field", `{"low": 1000}`, true},
		{"not json", `about a thousand`, true},
		{"array", `[1, 2]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fakeBackend{text: tt.output})
			resp, err := c.Generate(context.Background(), Request{Prompt: "estimate", ResponseJSONSchema: rangeSchema})
			if tt.wantErr {
				var schemaErr *SchemaError
				assert.ErrorAs(t, err, &schemaErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, resp.JSON, "low")
			assert.Contains(t, resp.JSON, "high")
		})
	}
}

func TestGenerate_Errors(t *testing.T) {
	_, err := New(nil).Generate(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = New(&fakeBackend{}).Generate(context.Background(), Request{Prompt: "  "})
	assert.Error(t, err)

	boom := errors.New("quota exceeded")
	_, err = New(&fakeBackend{err: boom}).Generate(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, boom)

	_, err = New(&fakeBackend{}).Generate(context.Background(), Request{
		Prompt:             "hi",
		ResponseJSONSchema: map[string]any{"type": 12},
	})
	assert.Error(t, err)
}
