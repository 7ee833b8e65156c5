// internal/notify/render/sanitize.go
package render

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
)

const maxDescriptionLen = 250

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// extractPlainDescription unwraps the JSON envelope some upstream rows
// carry: a raw description that parses as an object with a string
// "description" key is replaced by that value. Anything else passes
// through untouched. Only this one envelope shape is recognized; the
// ambiguity is a store-schema smell, not something to parse harder at.
func extractPlainDescription(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return raw
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return raw
	}

	inner, ok := envelope["description"]
	if !ok {
		return raw
	}

	var value string
	if err := json.Unmarshal(inner, &value); err != nil {
		return raw
	}
	return value
}

// CleanDescription runs the sanitization pipeline: JSON unwrap, HTML tag
// strip, entity unescape, then truncation to 250 characters with a "..."
// marker.
func CleanDescription(raw string) string {
	desc := extractPlainDescription(raw)
	desc = htmlTagPattern.ReplaceAllString(desc, "")
	desc = html.UnescapeString(desc)

	if runes := []rune(desc); len(runes) > maxDescriptionLen {
		desc = strings.TrimSpace(string(runes[:maxDescriptionLen])) + "..."
	}
	return desc
}
