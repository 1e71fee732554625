package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// HeaderMode selects which header representation is authoritative.
type HeaderMode string

const (
	// HeaderModeRaw means the headers are free text expected to parse as a
	// JSON object or an array of {key, value} pairs.
	HeaderModeRaw HeaderMode = "raw"
	// HeaderModeKeyValue means the headers are an ordered list of pairs.
	HeaderModeKeyValue HeaderMode = "keyvalue"
)

// HeaderPair is a single header entry.
type HeaderPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HeaderSet is a tagged union over the two header representations. Exactly one
// representation is authoritative at a time, selected by the mode.
type HeaderSet struct {
	mode  HeaderMode
	raw   string
	pairs []HeaderPair
}

// RawHeaders creates a header set backed by raw text.
func RawHeaders(text string) HeaderSet {
	return HeaderSet{mode: HeaderModeRaw, raw: text}
}

// KeyValueHeaders creates a header set backed by an ordered pair list.
func KeyValueHeaders(pairs []HeaderPair) HeaderSet {
	return HeaderSet{mode: HeaderModeKeyValue, pairs: pairs}
}

func (h HeaderSet) Mode() HeaderMode { return h.mode }
func (h HeaderSet) Raw() string      { return h.raw }

// Pairs returns a copy of the pair list.
func (h HeaderSet) Pairs() []HeaderPair {
	result := make([]HeaderPair, len(h.pairs))
	copy(result, h.pairs)
	return result
}

// Normalize resolves the authoritative representation into an ordered pair
// list, dropping entries with blank keys. Raw text that is neither a JSON
// object nor an array of pairs is a validation error.
func (h HeaderSet) Normalize() ([]HeaderPair, error) {
	switch h.mode {
	case HeaderModeKeyValue:
		return filterBlankKeys(h.pairs), nil
	case HeaderModeRaw:
		trimmed := strings.TrimSpace(h.raw)
		if trimmed == "" {
			return nil, nil
		}
		var pairs []HeaderPair
		if err := json.Unmarshal([]byte(trimmed), &pairs); err == nil {
			return filterBlankKeys(pairs), nil
		}
		var headerMap map[string]string
		if err := json.Unmarshal([]byte(trimmed), &headerMap); err == nil {
			pairs = make([]HeaderPair, 0, len(headerMap))
			for k, v := range headerMap {
				pairs = append(pairs, HeaderPair{Key: k, Value: v})
			}
			return filterBlankKeys(pairs), nil
		}
		return nil, fmt.Errorf("headers: %w", ErrMalformedHeaders)
	default:
		return nil, nil
	}
}

// Encode serializes the header set to its storage form: raw text verbatim, or
// the pair list as a JSON array with blank keys removed.
func (h HeaderSet) Encode() string {
	if h.mode == HeaderModeRaw {
		return h.raw
	}
	pairs := filterBlankKeys(h.pairs)
	if len(pairs) == 0 {
		return ""
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return ""
	}
	return string(data)
}

// ParseHeaders rebuilds a header set from its stored form. Text that decodes
// as an array of pairs hydrates the key/value representation; any other JSON
// stays raw; text that is not JSON at all yields an empty key/value set.
func ParseHeaders(stored string) HeaderSet {
	trimmed := strings.TrimSpace(stored)
	if trimmed == "" {
		return KeyValueHeaders(nil)
	}
	var pairs []HeaderPair
	if err := json.Unmarshal([]byte(trimmed), &pairs); err == nil {
		return KeyValueHeaders(pairs)
	}
	if json.Valid([]byte(trimmed)) {
		return RawHeaders(stored)
	}
	return KeyValueHeaders(nil)
}

// Clone creates a deep copy of the header set.
func (h HeaderSet) Clone() HeaderSet {
	clone := h
	clone.pairs = make([]HeaderPair, len(h.pairs))
	copy(clone.pairs, h.pairs)
	return clone
}

func filterBlankKeys(pairs []HeaderPair) []HeaderPair {
	var result []HeaderPair
	for _, p := range pairs {
		if strings.TrimSpace(p.Key) != "" {
			result = append(result, p)
		}
	}
	return result
}
