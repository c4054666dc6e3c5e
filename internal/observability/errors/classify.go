// Package errors classifies errors into stable names for metric and log tags.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/ragforge/console/internal/errors"
)

// Classify returns a normalized error class suitable for tagging metrics and
// logs. Structured application errors classify by their code; anything else
// falls back to the innermost concrete type name.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
