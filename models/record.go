package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metadata keys every record carries next to its fields.
const (
	FieldID          = "id"
	FieldCreatedDate = "created_date"
	FieldUpdatedDate = "updated_date"
	FieldOrder       = "order"
)

// Record is an opaque document in a named collection.
// Fields holds everything except the metadata keys.
type Record struct {
	ID          string
	CreatedDate time.Time
	UpdatedDate time.Time
	Fields      map[string]any
}

// Value returns a field or metadata value by name.
func (r Record) Value(name string) any {
	switch name {
	case FieldID:
		return r.ID
	case FieldCreatedDate:
		return r.CreatedDate
	case FieldUpdatedDate:
		return r.UpdatedDate
	}
	return r.Fields[name]
}

// MarshalJSON flattens fields next to id, created_date and updated_date.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[FieldID] = r.ID
	out[FieldCreatedDate] = r.CreatedDate
	out[FieldUpdatedDate] = r.UpdatedDate
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields, id, created, updated, err := SplitMetadata(raw)
	if err != nil {
		return err
	}
	r.ID = id
	r.CreatedDate = created
	r.UpdatedDate = updated
	r.Fields = fields
	return nil
}

// SplitMetadata separates metadata keys from user fields.
func SplitMetadata(raw map[string]any) (map[string]any, string, time.Time, time.Time, error) {
	fields := make(map[string]any, len(raw))
	var (
		id               string
		created, updated time.Time
	)
	for k, v := range raw {
		switch k {
		case FieldID:
			s, ok := v.(string)
			if !ok {
				return nil, "", time.Time{}, time.Time{}, fmt.Errorf("id must be a string, got %T", v)
			}
			id = s
		case FieldCreatedDate, FieldUpdatedDate:
			ts, err := parseTimestamp(v)
			if err != nil {
				return nil, "", time.Time{}, time.Time{}, fmt.Errorf("invalid %s: %w", k, err)
			}
			if k == FieldCreatedDate {
				created = ts
			} else {
				updated = ts
			}
		default:
			fields[k] = v
		}
	}
	return fields, id, created, updated, nil
}

// StripMetadata returns a copy of fields without keys the store owns.
func StripMetadata(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == FieldID || k == FieldCreatedDate || k == FieldUpdatedDate {
			continue
		}
		out[k] = v
	}
	return out
}

func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		if t == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339Nano, t)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

// ParseError reports a record that could not be decoded into its typed shape.
type ParseError struct {
	Collection string
	ID         string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s record %s: %v", e.Collection, e.ID, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Decode converts a record into a typed value through its JSON form.
func Decode[T any](collection string, rec Record, out *T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return &ParseError{Collection: collection, ID: rec.ID, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ParseError{Collection: collection, ID: rec.ID, Err: err}
	}
	return nil
}

// DecodeAll decodes every record, failing on the first bad one.
func DecodeAll[T any](collection string, recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := Decode(collection, rec, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ToFields converts a typed value into store fields, dropping metadata keys.
func ToFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	return StripMetadata(fields), nil
}
