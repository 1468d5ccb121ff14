// Package config loads the server's own settings (listen port, log
// level, database connection) from environment variables and an optional
// config file. It is unrelated to the configuration documents the
// service stores for its clients.
package config
