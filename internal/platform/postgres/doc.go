// Package postgres implements the configuration record store on
// PostgreSQL. It owns the SQL for inserts, version lookups and history
// queries, and translates driver errors such as unique violations into
// the store package's sentinel errors.
package postgres
