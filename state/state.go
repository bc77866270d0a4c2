// Package state holds per-session UI state such as chat history and
// "already shown" flags.
package state

import (
	"context"
	"sync"
	"time"
)

// Keys shared with the site's widgets.
const (
	KeyChatHistory        = "chat_history"
	KeyChatWelcomeShown   = "chatbot_welcome_shown"
	KeyNotificationsShown = "ig_notification_shown"
)

// Store is session-scoped key/value state. Nothing is shared between
// sessions and values may be dropped at any time.
type Store interface {
	Get(ctx context.Context, session, key string) (string, bool, error)
	Set(ctx context.Context, session, key, value string) error
	Clear(ctx context.Context, session, key string) error
}

type entry struct {
	values  map[string]string
	touched time.Time
}

// MemoryStore keeps session state in process. Sessions idle for longer
// than the TTL are dropped on the next write.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: map[string]*entry{},
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, session, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[session]
	if !ok || s.expired(e) {
		return "", false, nil
	}
	v, ok := e.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, session, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	e, ok := s.sessions[session]
	if !ok {
		e = &entry{values: map[string]string{}}
		s.sessions[session] = e
	}
	e.values[key] = value
	e.touched = s.now()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, session, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[session]; ok {
		delete(e.values, key)
		if len(e.values) == 0 {
			delete(s.sessions, session)
		}
	}
	return nil
}

func (s *MemoryStore) expired(e *entry) bool {
	return s.ttl > 0 && s.now().Sub(e.touched) > s.ttl
}

func (s *MemoryStore) sweep() {
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
		}
	}
}
