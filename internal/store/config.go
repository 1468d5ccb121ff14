package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/configstore-api/internal/domain"
)

// ConfigStore defines the interface for configuration record persistence.
type ConfigStore interface {
	// Create saves a new configuration record to the store.
	// It handles domain validation internally.
	// Returns ErrVersionExists if a record with the same (service, version)
	// already exists; records are never overwritten.
	Create(ctx context.Context, record *domain.ConfigRecord) error

	// GetByVersion retrieves the record for the given service and version.
	// Returns ErrConfigNotFound if no such record exists.
	GetByVersion(ctx context.Context, service string, version int) (*domain.ConfigRecord, error)

	// GetLatest retrieves the highest-versioned record for the given service.
	// Returns ErrConfigNotFound if the service has no records.
	GetLatest(ctx context.Context, service string) (*domain.ConfigRecord, error)

	// GetHistory retrieves the version history for a service, ordered by
	// version descending. Returns an empty slice if the service has no
	// records.
	GetHistory(ctx context.Context, service string) ([]domain.HistoryEntry, error)

	// NextVersion computes the next version number for a service:
	// max(existing versions) + 1, or 1 for a service with no records.
	// Callers that need the computation and the subsequent insert to be
	// atomic must run both inside a transaction via WithTx.
	NextVersion(ctx context.Context, service string) (int, error)

	// WithTx returns a new ConfigStore instance that uses the provided
	// transaction. The transaction should be created and managed by the
	// caller (typically a service).
	WithTx(tx *sql.Tx) ConfigStore
}
