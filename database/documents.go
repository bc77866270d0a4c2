package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"keystone/models"
)

const selectColumns = "id, data, created_at, updated_at"

func (db *DB) List(ctx context.Context, collection string, opts ListOptions) ([]models.Record, error) {
	return db.Filter(ctx, collection, nil, opts)
}

// Filter returns documents whose data contains match, ordered by opts.Sort.
// Missing sort values come last; ties fall back to creation time then id.
func (db *DB) Filter(ctx context.Context, collection string, match map[string]any, opts ListOptions) ([]models.Record, error) {
	start := time.Now()
	defer func() {
		zap.S().Debugw("Filter", "duration", time.Since(start), "collection", collection, "sort", opts.Sort, "limit", opts.Limit)
	}()

	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	s, err := ParseSort(opts.Sort)
	if err != nil {
		return nil, err
	}
	limit := validateLimit(opts.Limit, defaultLimit, maxLimit)
	offset := validateOffset(opts.Offset)

	qb := NewQueryBuilder()
	qb.AddCondition(columnCollection, collection)
	if err := qb.AddContains(match); err != nil {
		return nil, err
	}
	qb.AddSort(s)

	// SAFETY: values are parameterized; clauses only contain fixed column names.
	query := fmt.Sprintf(`
		SELECT %s
		FROM documents
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, selectColumns, qb.WhereClause(), qb.OrderClause(), qb.NextArgNum(), qb.NextArgNum()+1)

	args := append(qb.Args(), limit, offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (db *DB) Get(ctx context.Context, collection, id string) (*models.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM documents
		WHERE collection = $1 AND id = $2
	`, selectColumns)

	rec, err := scanRecord(db.Pool.QueryRow(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s record: %w", collection, err)
	}
	return rec, nil
}

func (db *DB) Create(ctx context.Context, collection string, fields map[string]any) (*models.Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	data, err := json.Marshal(models.StripMetadata(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s record: %w", collection, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO documents (id, collection, data)
		VALUES ($1, $2, $3::jsonb)
		RETURNING %s
	`, selectColumns)

	rec, err := scanRecord(db.Pool.QueryRow(ctx, query, uuid.NewString(), collection, string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", collection, err)
	}

	zap.S().Debugw("Created record", "collection", collection, "id", rec.ID)
	return rec, nil
}

// Update merges fields into the stored document (jsonb ||).
func (db *DB) Update(ctx context.Context, collection, id string, fields map[string]any) (*models.Record, error) {
	data, err := json.Marshal(models.StripMetadata(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s record: %w", collection, err)
	}

	query := fmt.Sprintf(`
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
		RETURNING %s
	`, selectColumns)

	rec, err := scanRecord(db.Pool.QueryRow(ctx, query, collection, id, string(data)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update %s record: %w", collection, err)
	}
	return rec, nil
}

func (db *DB) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`

	result, err := db.Pool.Exec(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s record: %w", collection, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	zap.S().Debugw("Deleted record", "collection", collection, "id", id)
	return nil
}

// Helper functions

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec  models.Record
		data []byte
	)
	err := row.Scan(
		&rec.ID,
		&data,
		&rec.CreatedDate,
		&rec.UpdatedDate,
	)
	if err != nil {
		return nil, err
	}
	rec.Fields = map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", rec.ID, err)
		}
	}
	rec.CreatedDate = rec.CreatedDate.UTC()
	rec.UpdatedDate = rec.UpdatedDate.UTC()
	return &rec, nil
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanRecords(rows rowsScanner) ([]models.Record, error) {
	recs := []models.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		recs = append(recs, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return recs, nil
}
