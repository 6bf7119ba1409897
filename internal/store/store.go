// Package store defines the persistence contracts for the application.
// Implementations live under internal/platform.
package store

import (
	"context"
	"database/sql"
)

// DBTX is an interface that abstracts the database access layer.
// It is implemented by both *sql.DB and *sql.Tx, allowing store code
// to work with either a database connection or a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Op enumerates the comparison operators a query condition may use.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

// Condition is a single field comparison inside a query filter.
type Condition struct {
	Op    Op
	Value any
}

// Eq builds an equality condition, the overwhelmingly common case.
func Eq(value any) Condition {
	return Condition{Op: OpEq, Value: value}
}

// Query describes a list operation over a collection of entities.
// Fields that implementations do not recognize are ignored rather than
// treated as errors, so callers can pass through client-supplied options.
type Query struct {
	// Conditions maps field names to comparison conditions. All conditions
	// must hold (logical AND).
	Conditions map[string]Condition

	// Sort is a field name prefixed with "+" (ascending) or "-" (descending),
	// e.g. "+created_at". Empty means implementation default order.
	Sort string

	// Page and PerPage paginate results. Zero values disable pagination.
	Page    int
	PerPage int

	// Projection lists the fields to return. Empty means all fields.
	// Fields required to reconstruct the entity (its id) are always loaded.
	Projection []string
}
