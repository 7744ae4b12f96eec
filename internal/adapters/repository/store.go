// Package repository defines the evaluation store interface and errors.
package repository

import (
	"context"
	"fmt"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the append-only ledger of evaluation records and the single
// source of truth for every derived view. Records are never mutated or
// deleted; corrections arrive as new records.
type Store interface {
	// Append durably commits a record. The record must already carry a
	// globally unique id; ErrDuplicateID is returned when the id
	// exists. Once Append returns nil the record is visible, whole, to
	// every subsequent read.
	Append(ctx context.Context, rec model.EvaluationRecord) error

	// Get returns the record with the given id.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (model.EvaluationRecord, error)

	// List returns records in insertion order. A non-empty
	// problemStatementID restricts the result to that cohort.
	List(ctx context.Context, problemStatementID string) ([]model.EvaluationRecord, error)

	// Count returns the number of committed records.
	Count(ctx context.Context) int

	// Close releases the store's resources.
	Close() error
}

// Open builds a Store for the configured driver. The memory driver
// ignores dsn and options; sqlite and postgres open a database through
// OpenSQL.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, DriverPostgres:
		return OpenSQL(ctx, driver, dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
