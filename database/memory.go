package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"keystone/models"
)

// MemoryStore keeps documents in process. It backs dev mode and tests.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string][]models.Record
	last        time.Time
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: map[string][]models.Record{},
		now:         time.Now,
	}
}

// timestamp returns a strictly increasing time so creation order is total.
func (s *MemoryStore) timestamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func (s *MemoryStore) List(ctx context.Context, collection string, opts ListOptions) ([]models.Record, error) {
	return s.Filter(ctx, collection, nil, opts)
}

func (s *MemoryStore) Filter(ctx context.Context, collection string, match map[string]any, opts ListOptions) ([]models.Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	recs := make([]models.Record, 0, len(s.collections[collection]))
	for _, rec := range s.collections[collection] {
		recs = append(recs, cloneRecord(rec))
	}
	s.mu.Unlock()
	return queryRecords(recs, match, opts)
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(collection, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	rec := cloneRecord(s.collections[collection][i])
	return &rec, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, fields map[string]any) (*models.Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized, err := normalizeFields(models.StripMetadata(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.timestamp()
	rec := models.Record{
		ID:          uuid.NewString(),
		CreatedDate: now,
		UpdatedDate: now,
		Fields:      normalized,
	}
	s.collections[collection] = append(s.collections[collection], rec)
	out := cloneRecord(rec)
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) (*models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized, err := normalizeFields(models.StripMetadata(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(collection, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	rec := s.collections[collection][i]
	merged := make(map[string]any, len(rec.Fields)+len(normalized))
	for k, v := range rec.Fields {
		merged[k] = v
	}
	for k, v := range normalized {
		merged[k] = v
	}
	rec.Fields = merged
	rec.UpdatedDate = s.timestamp()
	s.collections[collection][i] = rec
	out := cloneRecord(rec)
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(collection, id)
	if i < 0 {
		return ErrNotFound
	}
	recs := s.collections[collection]
	s.collections[collection] = append(recs[:i:i], recs[i+1:]...)
	return nil
}

// Count returns the number of records in a collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) indexOf(collection, id string) int {
	for i, rec := range s.collections[collection] {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func cloneRecord(rec models.Record) models.Record {
	out := rec
	out.Fields = cloneValue(rec.Fields).(map[string]any)
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}
