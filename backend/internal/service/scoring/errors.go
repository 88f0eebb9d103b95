package scoring

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports every offending field of a submitted round at once,
// so the caller can present actionable feedback instead of fixing one field
// per request.
type ValidationError struct {
	// Fields maps the submitted field name to a human-readable reason.
	Fields map[string]string
}

// Error renders the field problems in a stable, sorted order.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add records one field problem, allocating the map lazily.
func (e *ValidationError) add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = reason
}

// orNil collapses an empty error to nil so callers can return it directly.
func (e *ValidationError) orNil() *ValidationError {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
