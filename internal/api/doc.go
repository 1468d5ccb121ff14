// Package api exposes the configuration store over HTTP. It routes
// submit, fetch and history requests to the service layer, parses the
// version and template query parameters, and maps service errors onto
// the JSON error responses and status codes clients see.
package api
