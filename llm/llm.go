// Package llm generates chat replies and structured drafts with a hosted
// language model.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when no model backend is configured.
var ErrUnavailable = errors.New("language model not configured")

// Request is one generation call. With a ResponseJSONSchema the model is
// asked for JSON and the output is checked against the schema.
type Request struct {
	Prompt                 string
	System                 string
	AddContextFromInternet bool
	ResponseJSONSchema     map[string]any
}

type Response struct {
	Text string
	JSON map[string]any
}

// Backend produces raw model output for a request.
type Backend interface {
	GenerateText(ctx context.Context, req Request) (string, error)
}

// SchemaError is returned when structured output does not match the
// requested schema.
type SchemaError struct {
	Output string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("model output does not match schema: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

type Client struct {
	backend Backend
}

func New(backend Backend) *Client {
	return &Client{backend: backend}
}

func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("prompt is required")
	}
	if c.backend == nil {
		return nil, ErrUnavailable
	}

	var schema *jsonschema.Schema
	if req.ResponseJSONSchema != nil {
		var err error
		if schema, err = compileSchema(req.ResponseJSONSchema); err != nil {
			return nil, fmt.Errorf("invalid response schema: %w", err)
		}
	}

	start := time.Now()
	text, err := c.backend.GenerateText(ctx, req)
	zap.S().Debugw("Generate", "duration", time.Since(start), "structured", schema != nil,
		"internet", req.AddContextFromInternet, "error", err)
	if err != nil {
		return nil, fmt.Errorf("failed to generate text: %w", err)
	}

	resp := &Response{Text: text}
	if schema == nil {
		return resp, nil
	}

	raw := stripCodeFence(text)
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, &SchemaError{Output: text, Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &SchemaError{Output: text, Err: err}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &SchemaError{Output: text, Err: fmt.Errorf("expected a JSON object, got %T", doc)}
	}
	resp.JSON = obj
	return resp, nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// stripCodeFence removes a ```json fence some models wrap output in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
