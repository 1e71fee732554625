// Package classify decides the content kind of a payload and pretty-prints it
// for display.
package classify

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Kind is the canonical content kind of a payload.
type Kind string

const (
	KindJSON       Kind = "json"
	KindHTML       Kind = "html"
	KindXML        Kind = "xml"
	KindJavaScript Kind = "javascript"
	KindCSS        Kind = "css"
	KindPlain      Kind = "plain"
)

func (k Kind) String() string { return string(k) }

// Upper returns the uppercase string for display.
func (k Kind) Upper() string { return strings.ToUpper(string(k)) }

// genericTagPattern matches text containing an opening tag, the loose way
// browsers treat fragments as markup.
var genericTagPattern = regexp.MustCompile(`(?is)<[a-z].*>`)

// Detect decides the content kind from the declared content type, falling back
// to sniffing the body when the type is absent or matches no known family.
func Detect(contentType, body string) Kind {
	ct := strings.ToLower(contentType)

	switch {
	case strings.Contains(ct, "json"):
		return KindJSON
	case strings.Contains(ct, "html"):
		return KindHTML
	case strings.Contains(ct, "xml"):
		return KindXML
	case strings.Contains(ct, "javascript"):
		return KindJavaScript
	case strings.Contains(ct, "css"):
		return KindCSS
	}

	return sniff(body)
}

// FromFormatName maps a declared body format name (JSON, HTML, XML,
// JavaScript, Text) to a content kind.
func FromFormatName(name string) Kind {
	switch strings.ToLower(name) {
	case "json":
		return KindJSON
	case "html":
		return KindHTML
	case "xml":
		return KindXML
	case "javascript":
		return KindJavaScript
	case "css":
		return KindCSS
	default:
		return KindPlain
	}
}

// sniff detects the kind from the content itself.
func sniff(body string) Kind {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return KindPlain
	}

	if bracketed(trimmed, '{', '}') || bracketed(trimmed, '[', ']') {
		if json.Valid([]byte(trimmed)) {
			return KindJSON
		}
	}

	if trimmed[0] != '<' {
		return KindPlain
	}

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return KindHTML
	}
	// An XML declaration wins over the generic-tag test, so a prolog followed
	// by arbitrary elements still classifies as xml.
	if strings.HasPrefix(trimmed, "<?xml") {
		if strings.Contains(lower, "<html") {
			return KindHTML
		}
		return KindXML
	}
	if genericTagPattern.MatchString(trimmed) {
		return KindHTML
	}
	return KindXML
}

func bracketed(s string, open, close byte) bool {
	return s[0] == open && s[len(s)-1] == close
}
