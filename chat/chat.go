// Package chat runs the site's chat widget and estimate drafts on top of
// the language model.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"keystone/llm"
	"keystone/state"
)

const (
	maxTurns      = 20
	maxMessageLen = 2000
)

var ErrEmptyMessage = errors.New("message is required")

const systemPrompt = `You are the website assistant for a construction and renovation company.
Answer questions about residential, commercial, renovation and restoration work.
Keep answers short. For quotes, suggest the estimate form or a call.`

// Generator is the part of the model client chat needs.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (*llm.Response, error)
}

type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type Reply struct {
	Reply   string `json:"reply"`
	Welcome bool   `json:"welcome"`
}

type Service struct {
	gen   Generator
	state state.Store
}

func NewService(gen Generator, st state.Store) *Service {
	return &Service{gen: gen, state: st}
}

// Send answers message in the context of the session's history.
// Welcome is set on the first message of a session only.
func (s *Service) Send(ctx context.Context, session, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	message = truncate(message, maxMessageLen)

	welcome, err := s.firstVisit(ctx, session)
	if err != nil {
		return Reply{}, err
	}
	history, err := s.History(ctx, session)
	if err != nil {
		return Reply{}, err
	}

	resp, err := s.gen.Generate(ctx, llm.Request{
		Prompt: buildPrompt(history, message),
		System: systemPrompt,
	})
	if err != nil {
		return Reply{}, err
	}
	reply := strings.TrimSpace(resp.Text)

	history = append(history, Turn{Role: "user", Text: message}, Turn{Role: "assistant", Text: reply})
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	if err := s.saveHistory(ctx, session, history); err != nil {
		zap.S().Warnw("failed to save chat history", "session", session, "error", err)
	}
	return Reply{Reply: reply, Welcome: welcome}, nil
}

func (s *Service) firstVisit(ctx context.Context, session string) (bool, error) {
	_, shown, err := s.state.Get(ctx, session, state.KeyChatWelcomeShown)
	if err != nil {
		return false, fmt.Errorf("failed to read chat state: %w", err)
	}
	if shown {
		return false, nil
	}
	if err := s.state.Set(ctx, session, state.KeyChatWelcomeShown, "true"); err != nil {
		return false, fmt.Errorf("failed to write chat state: %w", err)
	}
	return true, nil
}

// History returns the stored turns of a session, oldest first.
func (s *Service) History(ctx context.Context, session string) ([]Turn, error) {
	raw, ok, err := s.state.Get(ctx, session, state.KeyChatHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var turns []Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		// Corrupt history is dropped rather than failing the chat.
		zap.S().Warnw("discarding chat history", "session", session, "error", err)
		return nil, s.state.Clear(ctx, session, state.KeyChatHistory)
	}
	return turns, nil
}

// Reset forgets a session's history but keeps the welcome flag.
func (s *Service) Reset(ctx context.Context, session string) error {
	return s.state.Clear(ctx, session, state.KeyChatHistory)
}

func (s *Service) saveHistory(ctx context.Context, session string, turns []Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return err
	}
	return s.state.Set(ctx, session, state.KeyChatHistory, string(data))
}

func buildPrompt(history []Turn, message string) string {
	var b strings.Builder
	for _, t := range history {
		speaker := "Customer"
		if t.Role == "assistant" {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, t.Text)
	}
	fmt.Fprintf(&b, "Customer: %s\nAssistant:", message)
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
