package service

import (
	"fmt"

	"github.com/phrazzld/configstore-api/internal/store"
	"github.com/phrazzld/configstore-api/internal/validation"
)

// ValidationFailedError is returned when a submitted document parses but
// violates the structural contract. It carries the full accumulated error
// list, never a partial one.
type ValidationFailedError struct {
	Errors []validation.ValidationError
}

// Error implements the error interface for ValidationFailedError.
func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("configuration validation failed with %d error(s)", len(e.Errors))
}

// VersionConflictError is returned when a submitted version already exists
// for the service. Records are immutable, so the caller must resubmit with
// a different version or omit the version entirely.
type VersionConflictError struct {
	Service string
	Version int
}

// Error implements the error interface for VersionConflictError.
func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("Version %d already exists for service %s", e.Version, e.Service)
}

// Unwrap ties the conflict to the store sentinel so errors.Is works.
func (e *VersionConflictError) Unwrap() error {
	return store.ErrVersionExists
}

// NotFoundError is returned when no configuration record matches a read
// request. Message distinguishes a missing version from a service with no
// records at all.
type NotFoundError struct {
	Message string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return e.Message
}

// Unwrap ties the error to the store sentinel so errors.Is works.
func (e *NotFoundError) Unwrap() error {
	return store.ErrConfigNotFound
}
