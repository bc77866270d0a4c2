package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"keystone/models"
)

const (
	defaultLimit = 500
	maxLimit     = 1000
)

// ErrNotFound is returned when a record does not exist in its collection.
var ErrNotFound = errors.New("record not found")

// Store is the document store every backend implements.
// Records are grouped by collection name and identified by an opaque id.
type Store interface {
	List(ctx context.Context, collection string, opts ListOptions) ([]models.Record, error)
	Filter(ctx context.Context, collection string, match map[string]any, opts ListOptions) ([]models.Record, error)
	Get(ctx context.Context, collection, id string) (*models.Record, error)
	Create(ctx context.Context, collection string, fields map[string]any) (*models.Record, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) (*models.Record, error)
	Delete(ctx context.Context, collection, id string) error
	Close()
}

// ListOptions controls ordering and paging of List and Filter.
// Sort is a field name, prefixed with "-" for descending order.
type ListOptions struct {
	Sort   string
	Limit  int
	Offset int
}

// Sort is a parsed sort spec.
type Sort struct {
	Field string
	Desc  bool
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseSort parses "field" or "-field". An empty spec sorts by creation time.
func ParseSort(spec string) (Sort, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Sort{Field: models.FieldCreatedDate}, nil
	}
	s := Sort{Field: spec}
	if strings.HasPrefix(spec, "-") {
		s.Desc = true
		s.Field = spec[1:]
	} else if strings.HasPrefix(spec, "+") {
		s.Field = spec[1:]
	}
	if !fieldNamePattern.MatchString(s.Field) {
		return Sort{}, fmt.Errorf("invalid sort field %q", s.Field)
	}
	return s, nil
}

func (s Sort) String() string {
	if s.Desc {
		return "-" + s.Field
	}
	return s.Field
}

func validateCollection(collection string) error {
	if !fieldNamePattern.MatchString(collection) {
		return fmt.Errorf("invalid collection name %q", collection)
	}
	return nil
}

// Helper functions

func validateLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func validateOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
