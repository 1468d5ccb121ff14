package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/phrazzld/configstore-api/internal/domain"
)

// placeholderPattern matches {{ name }} and {{ name | default('value') }}
// tokens. Group 1 is the variable name, group 3 the default value when the
// filter is present (single- or double-quoted).
var placeholderPattern = regexp.MustCompile(
	`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*(\|\s*default\(\s*(?:'([^']*)'|"([^"]*)")\s*\))?\s*\}\}`,
)

// RenderError indicates that template rendering failed, either because a
// placeholder had no variable and no default, or because substitution
// produced text that no longer parses as a document.
type RenderError struct {
	Message string
	Err     error
}

// Error implements the error interface for RenderError.
func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped parse diagnostic, if any.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// Render substitutes {{ name }} placeholders in the serialized document
// with values from vars and parses the result back into a Document.
//
// A placeholder whose variable is absent falls back to its default('x')
// filter value; with no default present, rendering fails. This is the
// strict-undefined policy: unresolved placeholders are never left as
// literal text or replaced with an empty string.
//
// Variable values are substituted verbatim, so a value containing syntax
// that breaks the surrounding document (e.g. an unescaped quote) causes
// the re-parse to fail with a RenderError carrying the parse diagnostic.
func Render(doc domain.Document, vars map[string]string) (domain.Document, error) {
	serialized, err := doc.Serialize()
	if err != nil {
		return nil, &RenderError{Message: "failed to serialize document", Err: err}
	}

	rendered, err := substitute(string(serialized), vars)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(rendered), &result); err != nil {
		return nil, &RenderError{
			Message: "template processing resulted in invalid JSON",
			Err:     err,
		}
	}

	return result, nil
}

// ExtractVars returns the sorted, de-duplicated placeholder names found in
// the document's serialized form.
func ExtractVars(doc domain.Document) ([]string, error) {
	serialized, err := doc.Serialize()
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, match := range placeholderPattern.FindAllStringSubmatch(string(serialized), -1) {
		seen[match[1]] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// substitute replaces every placeholder in text, failing on the first
// variable that has neither a supplied value nor a default.
func substitute(text string, vars map[string]string) (string, error) {
	var renderErr error

	rendered := placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		groups := placeholderPattern.FindStringSubmatch(token)
		name := groups[1]

		if value, ok := vars[name]; ok {
			return value
		}

		// default('x') or default("x") fallback
		if groups[2] != "" {
			if groups[4] != "" {
				return groups[4]
			}
			return groups[3]
		}

		if renderErr == nil {
			renderErr = &RenderError{
				Message: fmt.Sprintf("undefined template variable: %s", name),
			}
		}
		return token
	})

	if renderErr != nil {
		return "", renderErr
	}
	return rendered, nil
}
