package database

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"keystone/models"
)

// normalizeFields round-trips fields through JSON so in-process backends
// hold the same value types the postgres backend returns.
func normalizeFields(fields map[string]any) (map[string]any, error) {
	if len(fields) == 0 {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	return out, nil
}

// matches reports whether doc contains every key/value in match,
// following jsonb @> containment rules.
func matches(rec models.Record, match map[string]any) bool {
	for k, want := range match {
		if !contains(rec.Value(k), want) {
			return false
		}
	}
	return true
}

func contains(have, want any) bool {
	switch w := want.(type) {
	case map[string]any:
		h, ok := have.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range w {
			if !contains(h[k], v) {
				return false
			}
		}
		return true
	case []any:
		h, ok := have.([]any)
		if !ok {
			return false
		}
		for _, wv := range w {
			found := false
			for _, hv := range h {
				if contains(hv, wv) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		if have == nil || want == nil {
			return have == nil && want == nil
		}
		return compareValues(have, want) == 0 && typeRank(have) == typeRank(want)
	}
}

// sortRecords orders records by s, then by creation time and id.
// Missing values sort last in both directions.
func sortRecords(recs []models.Record, s Sort) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].Value(s.Field), recs[j].Value(s.Field)
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			if c := compareValues(a, b); c != 0 {
				if s.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		if s.Field != models.FieldCreatedDate && !recs[i].CreatedDate.Equal(recs[j].CreatedDate) {
			if s.Desc {
				return recs[i].CreatedDate.After(recs[j].CreatedDate)
			}
			return recs[i].CreatedDate.Before(recs[j].CreatedDate)
		}
		return false
	})
}

// typeRank mirrors jsonb ordering across types: string < number < bool.
func typeRank(v any) int {
	switch v.(type) {
	case string:
		return 1
	case float64, float32, int, int32, int64:
		return 2
	case bool:
		return 3
	case time.Time:
		return 4
	default:
		return 5
	}
}

func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case time.Time:
		return av.Compare(b.(time.Time))
	}
	if ra == 2 {
		af, bf := toFloat(a), toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	return strings.Compare(string(ja), string(jb))
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// page applies offset and limit after sorting.
func page(recs []models.Record, opts ListOptions) []models.Record {
	offset := validateOffset(opts.Offset)
	limit := validateLimit(opts.Limit, defaultLimit, maxLimit)
	if offset >= len(recs) {
		return []models.Record{}
	}
	end := offset + limit
	if end > len(recs) {
		end = len(recs)
	}
	return recs[offset:end]
}

// queryRecords filters, sorts and pages an in-memory slice of records.
func queryRecords(recs []models.Record, match map[string]any, opts ListOptions) ([]models.Record, error) {
	s, err := ParseSort(opts.Sort)
	if err != nil {
		return nil, err
	}
	normalized, err := normalizeFields(match)
	if err != nil {
		return nil, err
	}
	out := make([]models.Record, 0, len(recs))
	for _, rec := range recs {
		if matches(rec, normalized) {
			out = append(out, rec)
		}
	}
	sortRecords(out, s)
	return page(out, opts), nil
}
