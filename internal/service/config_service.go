package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/configstore-api/internal/domain"
	"github.com/phrazzld/configstore-api/internal/platform/logger"
	"github.com/phrazzld/configstore-api/internal/store"
	"github.com/phrazzld/configstore-api/internal/template"
	"github.com/phrazzld/configstore-api/internal/validation"
)

// defaultTemplateUser is substituted for the "user" variable when the
// caller does not supply one.
const defaultTemplateUser = "Anonymous"

// SubmitResult is the acknowledgement returned for a successful write.
type SubmitResult struct {
	Service string `json:"service"`
	Version int    `json:"version"`
	Status  string `json:"status"`
}

// ConfigService orchestrates the configuration read and write paths:
// validation, version resolution, persistence and template rendering.
// It is the single point that turns component failures into the typed
// errors the API layer classifies.
type ConfigService struct {
	db          *sql.DB
	configStore store.ConfigStore
	logger      *slog.Logger
}

// NewConfigService creates a new ConfigService. The *sql.DB is needed in
// addition to the store so omitted-version writes can wrap version
// resolution and insert in one transaction.
// If logger is nil, a default logger will be used.
func NewConfigService(db *sql.DB, configStore store.ConfigStore, log *slog.Logger) *ConfigService {
	if configStore == nil {
		panic("configStore cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ConfigService{
		db:          db,
		configStore: configStore,
		logger:      log.With(slog.String("component", "config_service")),
	}
}

// Submit runs the write path: parse, structural check, version resolution,
// persist. Failures come back as *validation.ParseError,
// *ValidationFailedError, *VersionConflictError, or an unclassified store
// error.
func (s *ConfigService) Submit(ctx context.Context, service string, raw []byte) (*SubmitResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	doc, err := validation.Parse(raw)
	if err != nil {
		log.Debug("configuration payload failed to parse",
			slog.String("service", service),
			slog.String("error", err.Error()))
		return nil, err
	}

	if errs := validation.Check(doc); len(errs) > 0 {
		log.Debug("configuration payload failed structural checks",
			slog.String("service", service),
			slog.Int("error_count", len(errs)))
		return nil, &ValidationFailedError{Errors: errs}
	}

	version, hasVersion := doc.Int("version")

	if hasVersion {
		err = s.createWithVersion(ctx, service, version, doc)
	} else {
		version, err = s.createWithNextVersion(ctx, service, doc)
	}
	if err != nil {
		var conflict *VersionConflictError
		if errors.As(err, &conflict) {
			log.Info("configuration version conflict",
				slog.String("service", service),
				slog.Int("version", conflict.Version))
			return nil, err
		}
		log.Error("failed to persist configuration",
			slog.String("service", service),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("configuration saved",
		slog.String("service", service),
		slog.Int("version", version))

	return &SubmitResult{
		Service: service,
		Version: version,
		Status:  "saved",
	}, nil
}

// createWithVersion persists a record under a caller-chosen version. The
// (service, version) unique constraint rejects duplicates; the insert is a
// single statement so no explicit transaction is needed.
func (s *ConfigService) createWithVersion(ctx context.Context, service string, version int, doc domain.Document) error {
	record, err := domain.NewConfigRecord(service, version, doc)
	if err != nil {
		return err
	}

	if err := s.configStore.Create(ctx, record); err != nil {
		if errors.Is(err, store.ErrVersionExists) {
			return &VersionConflictError{Service: service, Version: version}
		}
		return err
	}
	return nil
}

// createWithNextVersion resolves max(version)+1 and inserts inside one
// transaction so two concurrent omitted-version writes cannot both commit
// the same number: the unique constraint fails one of the racers, which is
// surfaced as a conflict rather than silently retried.
func (s *ConfigService) createWithNextVersion(ctx context.Context, service string, doc domain.Document) (int, error) {
	var version int

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.configStore.WithTx(tx)

		next, err := txStore.NextVersion(ctx, service)
		if err != nil {
			return fmt.Errorf("failed to resolve next version: %w", err)
		}

		record, err := domain.NewConfigRecord(service, next, doc)
		if err != nil {
			return err
		}

		if err := txStore.Create(ctx, record); err != nil {
			if errors.Is(err, store.ErrVersionExists) {
				return &VersionConflictError{Service: service, Version: next}
			}
			return err
		}

		version = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Fetch runs the read path: look up the record by version (or latest when
// version is nil), then optionally render it with the supplied template
// variables. A missing record comes back as *NotFoundError; a rendering
// failure as *template.RenderError.
func (s *ConfigService) Fetch(
	ctx context.Context,
	service string,
	version *int,
	render bool,
	vars map[string]string,
) (domain.Document, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var record *domain.ConfigRecord
	var err error

	if version != nil {
		record, err = s.configStore.GetByVersion(ctx, service, *version)
	} else {
		record, err = s.configStore.GetLatest(ctx, service)
	}

	if err != nil {
		if errors.Is(err, store.ErrConfigNotFound) {
			return nil, notFound(service, version)
		}
		log.Error("failed to fetch configuration",
			slog.String("service", service),
			slog.String("error", err.Error()))
		return nil, err
	}

	if !render {
		return record.Payload, nil
	}

	if vars == nil {
		vars = map[string]string{}
	}
	if _, ok := vars["user"]; !ok {
		vars["user"] = defaultTemplateUser
	}

	rendered, err := template.Render(record.Payload, vars)
	if err != nil {
		log.Debug("template rendering failed",
			slog.String("service", service),
			slog.Int("version", record.Version),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("configuration rendered",
		slog.String("service", service),
		slog.Int("version", record.Version),
		slog.Int("var_count", len(vars)))
	return rendered, nil
}

// History returns the service's version history, newest first.
// A service with no records comes back as *NotFoundError.
func (s *ConfigService) History(ctx context.Context, service string) ([]domain.HistoryEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entries, err := s.configStore.GetHistory(ctx, service)
	if err != nil {
		log.Error("failed to fetch configuration history",
			slog.String("service", service),
			slog.String("error", err.Error()))
		return nil, err
	}

	if len(entries) == 0 {
		return nil, &NotFoundError{
			Message: fmt.Sprintf("No configuration history found for service %s", service),
		}
	}

	return entries, nil
}

// notFound builds the read-path not-found error, distinguishing a missing
// version from a service with no records at all.
func notFound(service string, version *int) *NotFoundError {
	if version != nil {
		return &NotFoundError{
			Message: fmt.Sprintf("Configuration version %d not found for service %s", *version, service),
		}
	}
	return &NotFoundError{
		Message: fmt.Sprintf("No configuration found for service %s", service),
	}
}
