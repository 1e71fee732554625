// Package interpolate resolves {{variable}} placeholders against an
// environment's variable map.
package interpolate

import (
	"regexp"
	"strings"
)

// placeholderPattern matches {{variable}} or {{ variable }} syntax, non-greedy.
var placeholderPattern = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Extract returns the unique placeholder keys found in the input, in
// first-appearance order. Whitespace inside the braces is trimmed; blank keys
// are ignored.
func Extract(input string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(input, -1)
	seen := make(map[string]bool)
	var result []string

	for _, match := range matches {
		key := strings.TrimSpace(match[1])
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, key)
	}

	return result
}

// Resolve replaces every occurrence of a known key with its value in a single
// pass. Unknown keys are left verbatim in the output so broken templates stay
// visibly broken.
func Resolve(input string, vars map[string]string) string {
	if len(vars) == 0 {
		return input
	}
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		key := strings.TrimSpace(match[2 : len(match)-2])
		if value, ok := vars[key]; ok {
			return value
		}
		return match
	})
}

// Exists reports whether the key is defined in the variable map.
func Exists(key string, vars map[string]string) bool {
	_, ok := vars[key]
	return ok
}

// ValueOf returns the value for the key and whether it is defined.
func ValueOf(key string, vars map[string]string) (string, bool) {
	value, ok := vars[key]
	return value, ok
}
