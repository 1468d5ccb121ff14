package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/configstore-api/internal/domain"
	"github.com/phrazzld/configstore-api/internal/platform/logger"
	"github.com/phrazzld/configstore-api/internal/store"
)

// PostgresConfigStore implements the store.ConfigStore interface
// using a PostgreSQL database as the storage backend.
type PostgresConfigStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresConfigStore creates a new PostgreSQL implementation of the
// ConfigStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresConfigStore(db store.DBTX, log *slog.Logger) *PostgresConfigStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresConfigStore{
		db:     db,
		logger: log.With(slog.String("component", "config_store")),
	}
}

// Ensure PostgresConfigStore implements store.ConfigStore interface
var _ store.ConfigStore = (*PostgresConfigStore)(nil)

// WithTx implements store.ConfigStore.WithTx
func (s *PostgresConfigStore) WithTx(tx *sql.Tx) store.ConfigStore {
	return &PostgresConfigStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ConfigStore.Create
// It saves a new configuration record, handling domain validation.
// Returns store.ErrVersionExists if the (service, version) pair already
// exists; records are never overwritten.
func (s *PostgresConfigStore) Create(ctx context.Context, record *domain.ConfigRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("config record validation failed during create",
			slog.String("error", err.Error()),
			slog.String("service", record.Service))
		return err
	}

	payload, err := record.Payload.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize payload: %w", err)
	}

	query := `
		INSERT INTO configurations (service, version, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		record.Service,
		record.Version,
		string(payload),
		record.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate configuration version",
				slog.String("service", record.Service),
				slog.Int("version", record.Version))
			return fmt.Errorf("%w: service %s version %d",
				store.ErrVersionExists, record.Service, record.Version)
		}

		log.Error("failed to create configuration record",
			slog.String("error", err.Error()),
			slog.String("service", record.Service),
			slog.Int("version", record.Version))
		return MapError(err)
	}

	log.Info("configuration record created",
		slog.String("service", record.Service),
		slog.Int("version", record.Version))
	return nil
}

// GetByVersion implements store.ConfigStore.GetByVersion
// Returns store.ErrConfigNotFound if no such record exists.
func (s *PostgresConfigStore) GetByVersion(
	ctx context.Context,
	service string,
	version int,
) (*domain.ConfigRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving configuration by version",
		slog.String("service", service),
		slog.Int("version", version))

	query := `
		SELECT payload, created_at
		FROM configurations
		WHERE service = $1 AND version = $2
	`

	return s.scanRecord(log, service, version,
		s.db.QueryRowContext(ctx, query, service, version))
}

// GetLatest implements store.ConfigStore.GetLatest
// Returns store.ErrConfigNotFound if the service has no records.
func (s *PostgresConfigStore) GetLatest(
	ctx context.Context,
	service string,
) (*domain.ConfigRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving latest configuration",
		slog.String("service", service))

	query := `
		SELECT version, payload, created_at
		FROM configurations
		WHERE service = $1
		ORDER BY version DESC
		LIMIT 1
	`

	var version int
	var payload string
	var record domain.ConfigRecord

	err := s.db.QueryRowContext(ctx, query, service).Scan(
		&version,
		&payload,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no configuration found", slog.String("service", service))
			return nil, store.ErrConfigNotFound
		}
		log.Error("failed to get latest configuration",
			slog.String("error", err.Error()),
			slog.String("service", service))
		return nil, MapError(err)
	}

	doc, err := domain.ParseStored([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored payload: %w", err)
	}

	record.Service = service
	record.Version = version
	record.Payload = doc
	return &record, nil
}

// GetHistory implements store.ConfigStore.GetHistory
// It returns the version history ordered by version descending, or an
// empty slice when the service has no records.
func (s *PostgresConfigStore) GetHistory(
	ctx context.Context,
	service string,
) ([]domain.HistoryEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving configuration history",
		slog.String("service", service))

	query := `
		SELECT version, created_at
		FROM configurations
		WHERE service = $1
		ORDER BY version DESC
	`

	rows, err := s.db.QueryContext(ctx, query, service)
	if err != nil {
		log.Error("failed to query configuration history",
			slog.String("error", err.Error()),
			slog.String("service", service))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(&entry.Version, &entry.CreatedAt); err != nil {
			log.Error("failed to scan history row",
				slog.String("error", err.Error()))
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning history rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("configuration history retrieved",
		slog.String("service", service),
		slog.Int("count", len(entries)))
	return entries, nil
}

// NextVersion implements store.ConfigStore.NextVersion
// COALESCE makes a service with no records resolve to 1. Callers that
// insert the resolved version must hold the surrounding transaction; the
// primary key rejects the loser of a concurrent race.
func (s *PostgresConfigStore) NextVersion(ctx context.Context, service string) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM configurations
		WHERE service = $1
	`

	var next int
	if err := s.db.QueryRowContext(ctx, query, service).Scan(&next); err != nil {
		log.Error("failed to resolve next version",
			slog.String("error", err.Error()),
			slog.String("service", service))
		return 0, MapError(err)
	}

	log.Debug("next version resolved",
		slog.String("service", service),
		slog.Int("version", next))
	return next, nil
}

// scanRecord completes a single-record row scan for GetByVersion.
func (s *PostgresConfigStore) scanRecord(
	log *slog.Logger,
	service string,
	version int,
	row *sql.Row,
) (*domain.ConfigRecord, error) {
	var payload string
	var record domain.ConfigRecord

	err := row.Scan(&payload, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("configuration not found",
				slog.String("service", service),
				slog.Int("version", version))
			return nil, store.ErrConfigNotFound
		}
		log.Error("failed to get configuration",
			slog.String("error", err.Error()),
			slog.String("service", service),
			slog.Int("version", version))
		return nil, MapError(err)
	}

	doc, err := domain.ParseStored([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored payload: %w", err)
	}

	record.Service = service
	record.Version = version
	record.Payload = doc
	return &record, nil
}
