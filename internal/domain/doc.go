// Package domain holds the core entities of the configuration store:
// the parsed configuration document and the immutable versioned record
// it is persisted as. It has no dependencies on storage or transport.
package domain
