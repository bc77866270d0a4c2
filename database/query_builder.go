package database

import (
	"encoding/json"
	"fmt"
	"strings"

	"keystone/models"
)

const (
	columnID         = "id"
	columnCollection = "collection"
	columnData       = "data"
	columnCreatedAt  = "created_at"
	columnUpdatedAt  = "updated_at"
)

// metadataColumns maps record metadata keys to table columns.
var metadataColumns = map[string]string{
	models.FieldID:          columnID,
	models.FieldCreatedDate: columnCreatedAt,
	models.FieldUpdatedDate: columnUpdatedAt,
}

// QueryBuilder helps build WHERE and ORDER BY clauses safely
type QueryBuilder struct {
	conditions []string
	orderBy    []string
	args       []interface{}
	argCount   int
}

func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		conditions: []string{},
		orderBy:    []string{},
		args:       []interface{}{},
		argCount:   1,
	}
}

func (qb *QueryBuilder) AddCondition(column string, value interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf("%s = $%d", column, qb.argCount))
	qb.args = append(qb.args, value)
	qb.argCount++
}

// AddContains restricts rows to documents whose data contains match (jsonb @>).
func (qb *QueryBuilder) AddContains(match map[string]any) error {
	if len(match) == 0 {
		return nil
	}
	encoded, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	qb.conditions = append(qb.conditions, fmt.Sprintf("%s @> $%d::jsonb", columnData, qb.argCount))
	qb.args = append(qb.args, string(encoded))
	qb.argCount++
	return nil
}

// AddSort orders by a metadata column or a data field, with creation time
// and id as tiebreakers.
func (qb *QueryBuilder) AddSort(s Sort) {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	if column, ok := metadataColumns[s.Field]; ok {
		qb.orderBy = append(qb.orderBy, fmt.Sprintf("%s %s", column, dir))
	} else {
		qb.orderBy = append(qb.orderBy, fmt.Sprintf("%s->($%d::text) %s NULLS LAST", columnData, qb.argCount, dir))
		qb.args = append(qb.args, s.Field)
		qb.argCount++
	}
	if s.Field != models.FieldCreatedDate {
		qb.orderBy = append(qb.orderBy, fmt.Sprintf("%s %s", columnCreatedAt, dir))
	}
	qb.orderBy = append(qb.orderBy, fmt.Sprintf("%s %s", columnID, dir))
}

func (qb *QueryBuilder) WhereClause() string {
	if len(qb.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(qb.conditions, " AND ")
}

func (qb *QueryBuilder) OrderClause() string {
	if len(qb.orderBy) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(qb.orderBy, ", ")
}

func (qb *QueryBuilder) Args() []interface{} {
	return qb.args
}

func (qb *QueryBuilder) NextArgNum() int {
	return qb.argCount
}
