package researcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// decode parses model output into T, trims over-long lists and validates
// the result. T must be a struct carrying validate tags.
func decode[T any](raw string) (T, error) {
	var out T

	cleaned := stripFences(raw)
	if cleaned == "" {
		return out, errors.New("empty response")
	}

	idx := strings.IndexAny(cleaned, "{[")
	if idx == -1 {
		return out, errors.New("no JSON value found in response")
	}

	// Decoder reads one value and ignores trailing chatter after it.
	dec := json.NewDecoder(strings.NewReader(cleaned[idx:]))
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("parse JSON: %w", err)
	}

	if t, ok := any(&out).(interface{ trim() }); ok {
		t.trim()
	}

	if err := validate.Struct(out); err != nil {
		return out, fmt.Errorf("validate response: %w", err)
	}
	return out, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		// drop the language tag line, e.g. ```json
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
