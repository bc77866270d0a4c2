package reorder

import (
	"context"
	"strings"
	"sync"
)

// Editor holds the admin's working copy of an ordered list.
//
// While there are unsaved changes the local order wins over anything
// loaded from the store. Dragging is only allowed on the unfiltered list.
type Editor[T any] struct {
	mu         sync.Mutex
	items      []T
	dirty      bool
	revision   int
	search     string
	id         func(T) string
	matches    func(T, string) bool
	invalidate func()
}

// NewEditor builds an editor. matches decides whether an item is shown for
// a search query; invalidate is called after a successful save and may be nil.
func NewEditor[T any](id func(T) string, matches func(T, string) bool, invalidate func()) *Editor[T] {
	return &Editor[T]{id: id, matches: matches, invalidate: invalidate}
}

// Load replaces the working copy with fresh store data unless there are
// unsaved changes. It reports whether the data was applied.
func (e *Editor[T]) Load(items []T) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dirty {
		return false
	}
	e.items = append([]T(nil), items...)
	return true
}

// Items returns the full list in its local order.
func (e *Editor[T]) Items() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]T(nil), e.items...)
}

// View returns the list as displayed, filtered by the current search.
func (e *Editor[T]) View() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.search == "" {
		return append([]T(nil), e.items...)
	}
	var out []T
	for _, item := range e.items {
		if e.matches(item, e.search) {
			out = append(out, item)
		}
	}
	return out
}

func (e *Editor[T]) SetSearch(query string) {
	e.mu.Lock()
	e.search = strings.TrimSpace(query)
	e.mu.Unlock()
}

func (e *Editor[T]) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Drag moves an item within the unfiltered list and marks the editor dirty.
func (e *Editor[T]) Drag(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.search != "" {
		return ErrReorderDisabled
	}
	moved, err := Move(e.items, from, to)
	if err != nil {
		return err
	}
	if from != to {
		e.items = moved
		e.dirty = true
		e.revision++
	}
	return nil
}

// Save persists the local order. On failure the editor stays dirty so the
// save can be retried.
func (e *Editor[T]) Save(ctx context.Context, u Updater, collection string) error {
	e.mu.Lock()
	ids := make([]string, len(e.items))
	for i, item := range e.items {
		ids[i] = e.id(item)
	}
	rev := e.revision
	e.mu.Unlock()

	if err := SaveOrder(ctx, u, collection, ids); err != nil {
		return err
	}

	e.mu.Lock()
	if e.revision == rev {
		e.dirty = false
	}
	e.mu.Unlock()

	if e.invalidate != nil {
		e.invalidate()
	}
	return nil
}
