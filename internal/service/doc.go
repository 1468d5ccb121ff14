// Package service contains the request orchestration layer. It sequences
// validation, version resolution, persistence and template rendering, and
// owns the translation of component failures into the typed errors the
// API layer classifies.
package service
