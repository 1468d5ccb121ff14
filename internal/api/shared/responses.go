package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phrazzld/configstore-api/internal/redact"
)

// ErrorResponse defines the standard error response structure. Exactly one
// of Message or ValidationErrors is set depending on the failure kind.
type ErrorResponse struct {
	Error            string   `json:"error"`
	Message          string   `json:"message,omitempty"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
	TraceID          string   `json:"trace_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithError writes a JSON error response with the given status
// code, error label and message, and sets the TraceID from the request
// context if available.
//
// Log level strategy: 5xx at ERROR with the redacted underlying error,
// 4xx at DEBUG. The cause never reaches the response body beyond the
// message the caller chose to expose.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, label, message string, cause error) {
	traceID := GetTraceID(r.Context())

	response := ErrorResponse{
		Error:   label,
		Message: message,
		TraceID: traceID,
	}

	logAttrs := []slog.Attr{
		slog.Int("status_code", status),
		slog.String("error", label),
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
	}
	if cause != nil {
		logAttrs = append(logAttrs, slog.String("cause", redact.Error(cause)))
	}

	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}
	slog.LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, response)
}

// RespondWithValidationErrors writes the 422 response carrying the full
// accumulated validation error list.
func RespondWithValidationErrors(w http.ResponseWriter, r *http.Request, messages []string) {
	traceID := GetTraceID(r.Context())

	response := ErrorResponse{
		Error:            "Unprocessable Entity",
		ValidationErrors: messages,
		TraceID:          traceID,
	}

	slog.LogAttrs(r.Context(), slog.LevelDebug, "API validation error response",
		slog.Int("status_code", http.StatusUnprocessableEntity),
		slog.Int("error_count", len(messages)),
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path))

	RespondWithJSON(w, r, http.StatusUnprocessableEntity, response)
}
