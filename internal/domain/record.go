package domain

import (
	"errors"
	"time"
)

// Common validation errors for ConfigRecord
var (
	ErrEmptyService   = errors.New("service name cannot be empty")
	ErrInvalidVersion = errors.New("version must be a positive integer")
	ErrNilPayload     = errors.New("payload cannot be nil")
)

// ConfigRecord represents one immutable configuration snapshot for a
// service. Records are append-only: once written they are never updated
// or deleted, and (Service, Version) identifies a record uniquely.
type ConfigRecord struct {
	Service   string    `json:"service"`
	Version   int       `json:"version"`
	Payload   Document  `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// NewConfigRecord creates a new ConfigRecord for the given service and
// version, stamping the creation time. Returns an error if validation fails.
func NewConfigRecord(service string, version int, payload Document) (*ConfigRecord, error) {
	record := &ConfigRecord{
		Service:   service,
		Version:   version,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the ConfigRecord has valid data.
// Returns an error if any field fails validation.
func (r *ConfigRecord) Validate() error {
	if r.Service == "" {
		return ErrEmptyService
	}

	if r.Version <= 0 {
		return ErrInvalidVersion
	}

	if r.Payload == nil {
		return ErrNilPayload
	}

	return nil
}

// HistoryEntry is one row of a service's version history, ordered by
// version descending when returned from the store.
type HistoryEntry struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}
