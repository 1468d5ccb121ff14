package validation

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/phrazzld/configstore-api/internal/domain"
)

// Required top-level and nested fields every configuration must carry.
var (
	requiredFields       = []string{"version"}
	requiredNestedFields = []string{"database.host", "database.port"}
)

// ParseError indicates that a raw payload is not well-formed YAML or is
// not a usable document (empty, or not a top-level mapping).
type ParseError struct {
	Message string
	Err     error
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped parser diagnostic, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError describes one structural-contract violation in a parsed
// document. Field is the dotted path that failed; Message is the stable,
// caller-facing description.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return e.Message
}

// Messages flattens a list of validation errors into their caller-facing
// message strings, preserving order.
func Messages(errs []ValidationError) []string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return msgs
}

// Parse parses raw YAML text into a Document. Empty or whitespace-only
// input, malformed syntax, and non-mapping top-level content are all
// reported as a *ParseError; the Err field carries the underlying parser
// diagnostic when one exists.
//
// YAML is a superset of JSON, so JSON payloads parse unchanged.
func Parse(raw []byte) (domain.Document, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, &ParseError{Message: "empty content"}
	}

	var parsed any
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, &ParseError{Message: "invalid YAML", Err: err}
	}

	// "null" and comment-only bodies parse successfully to nil.
	if parsed == nil {
		return nil, &ParseError{Message: "empty content"}
	}

	mapping, ok := parsed.(map[string]any)
	if !ok {
		return nil, &ParseError{Message: "top-level content must be a mapping"}
	}

	return domain.Document(mapping), nil
}

// Check validates a parsed document against the structural contract and
// returns the full accumulated error list; an empty list means the
// document is valid. Checks run independently and never short-circuit,
// except that a dotted-path descent stops at the first missing segment so
// deeper segments of the same path do not cascade.
func Check(doc domain.Document) []ValidationError {
	var errs []ValidationError

	for _, field := range requiredFields {
		if _, ok := doc[field]; !ok {
			errs = append(errs, missingField(field))
		}
	}

	for _, field := range requiredNestedFields {
		if _, ok := doc.Lookup(field); !ok {
			errs = append(errs, missingField(field))
		}
	}

	if v, ok := doc["version"]; ok && !domain.IsInt(v) {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: "Field 'version' must be an integer",
		})
	}

	if v, ok := doc.Lookup("database.port"); ok && !domain.IsInt(v) {
		errs = append(errs, ValidationError{
			Field:   "database.port",
			Message: "Field 'database.port' must be an integer",
		})
	}

	return errs
}

func missingField(field string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("Missing required field: %s", field),
	}
}
