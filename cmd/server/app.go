package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/configstore-api/internal/config"
	"github.com/phrazzld/configstore-api/internal/platform/postgres"
	"github.com/phrazzld/configstore-api/internal/service"
)

// application holds the wired dependencies of the running server.
type application struct {
	config        *config.Config
	logger        *slog.Logger
	db            *sql.DB
	configService *service.ConfigService
}

// newApplication connects to the database, applies pending migrations and
// wires the store and service layers.
func newApplication(cfg *config.Config, appLogger *slog.Logger) (*application, error) {
	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		closeDatabase(db, appLogger)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	configStore := postgres.NewPostgresConfigStore(db, appLogger)
	configService := service.NewConfigService(db, configStore, appLogger)

	return &application{
		config:        cfg,
		logger:        appLogger,
		db:            db,
		configService: configService,
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	closeDatabase(app.db, app.logger)
}

func closeDatabase(db *sql.DB, log *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Error("failed to close database", "error", err)
	}
}
