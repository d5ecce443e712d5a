// Package validation checks tool call arguments before any handler runs.
package validation

import (
	"fmt"
	"sort"
)

// FieldError describes one argument that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

// RequireString returns args[key] when it is present and a string.
// An empty string is accepted; whether emptiness is legal is up to the
// handler.
func RequireString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", &FieldError{Field: key, Reason: "required"}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &FieldError{Field: key, Reason: fmt.Sprintf("must be a string, got %T", raw)}
	}
	return s, nil
}

// ValidateArguments checks that every required key is a string and returns
// them. Unknown keys are ignored. Fields are checked in sorted order so the
// reported error is stable.
func ValidateArguments(args map[string]any, required []string) (map[string]string, error) {
	keys := append([]string(nil), required...)
	sort.Strings(keys)

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		s, err := RequireString(args, key)
		if err != nil {
			return nil, err
		}
		out[key] = s
	}
	return out, nil
}
