package main

import (
	"encoding/json"
	"fmt"
	"io"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// renderJSON marshals v as indented JSON, optionally filtered through a
// JMESPath expression first.
func renderJSON(v any, query string) (string, error) {
	if query != "" {
		// Round-trip through plain JSON types so JMESPath sees maps and
		// slices rather than structs.
		raw, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode output: %w", err)
		}
		var plain any
		if err := json.Unmarshal(raw, &plain); err != nil {
			return "", fmt.Errorf("decode output: %w", err)
		}
		v, err = jmespath.Search(query, plain)
		if err != nil {
			return "", fmt.Errorf("apply query %q: %w", query, err)
		}
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}
	return string(out), nil
}

func printJSON(w io.Writer, v any, query string) error {
	out, err := renderJSON(v, query)
	if err != nil {
		return err
	}
	return writef(w, "%s\n", out)
}

func writef(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
