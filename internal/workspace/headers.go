package workspace

import (
	"encoding/json"
	"strings"
)

// headerFromJSON reads a single header value out of a JSON object of headers.
// Lookup is case-insensitive, matching HTTP header semantics.
func headerFromJSON(encoded, key string) string {
	var flat map[string]string
	if err := json.Unmarshal([]byte(encoded), &flat); err != nil {
		return ""
	}
	for k, v := range flat {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
