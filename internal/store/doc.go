// Package store defines the persistence interface for configuration
// records along with the sentinel errors and transaction helper shared
// by its implementations. Keeping the interface here lets the service
// layer stay independent of the concrete database.
package store
