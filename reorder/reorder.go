// Package reorder persists drag-and-drop ordering of admin lists.
package reorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"keystone/models"
)

var (
	// ErrReorderDisabled is returned by Drag while a search filter is active.
	ErrReorderDisabled = errors.New("reordering is disabled while searching")

	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNotPermutation  = errors.New("requested order is not a permutation of the current list")
)

// Updater is the part of the document store SaveOrder needs.
type Updater interface {
	Update(ctx context.Context, collection, id string, fields map[string]any) (*models.Record, error)
}

// Move removes the item at from and reinserts it at to.
// The input slice is not modified.
func Move[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, fmt.Errorf("move %d -> %d in list of %d: %w", from, to, len(items), ErrIndexOutOfRange)
	}
	out := make([]T, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)

	moved := items[from]
	out = append(out, moved)
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = moved
	return out, nil
}

// SaveOrder writes order=i for the record at position i. Updates run
// concurrently and the first failure fails the whole save. Records
// already updated keep their new order.
func SaveOrder(ctx context.Context, u Updater, collection string, ids []string) error {
	start := time.Now()
	defer func() {
		zap.S().Debugw("SaveOrder", "duration", time.Since(start), "collection", collection, "count", len(ids))
	}()

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("empty id in %s order", collection)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate id %s in %s order", id, collection)
		}
		seen[id] = struct{}{}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for i, id := range ids {
		eg.Go(func() error {
			if _, err := u.Update(egCtx, collection, id, map[string]any{models.FieldOrder: i}); err != nil {
				return fmt.Errorf("failed to update order of %s %s: %w", collection, id, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// ReorderImages checks that requested holds exactly the images of current,
// in any order, and returns it.
func ReorderImages(current, requested []string) ([]string, error) {
	if len(current) != len(requested) {
		return nil, fmt.Errorf("expected %d images, got %d: %w", len(current), len(requested), ErrNotPermutation)
	}
	counts := make(map[string]int, len(current))
	for _, img := range current {
		counts[img]++
	}
	for _, img := range requested {
		if counts[img] == 0 {
			return nil, fmt.Errorf("unknown image %q: %w", img, ErrNotPermutation)
		}
		counts[img]--
	}
	out := make([]string, len(requested))
	copy(out, requested)
	return out, nil
}
