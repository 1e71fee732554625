package core

import (
	"encoding/json"
	"fmt"
)

// BodyType tags the request body representation.
type BodyType string

const (
	BodyNone    BodyType = "none"
	BodyRaw     BodyType = "raw"
	BodyGraphQL BodyType = "graphql"
)

// BodyFormat is the declared language of a raw body.
type BodyFormat string

const (
	FormatText       BodyFormat = "Text"
	FormatJavaScript BodyFormat = "JavaScript"
	FormatJSON       BodyFormat = "JSON"
	FormatHTML       BodyFormat = "HTML"
	FormatXML        BodyFormat = "XML"
)

// Body is a tagged union over the request body representations.
type Body struct {
	kind      BodyType
	raw       string
	format    BodyFormat
	query     string
	variables string
}

// NoBody creates an empty body.
func NoBody() Body {
	return Body{kind: BodyNone}
}

// RawBody creates a raw text body with the given format.
func RawBody(text string, format BodyFormat) Body {
	if format == "" {
		format = FormatText
	}
	return Body{kind: BodyRaw, raw: text, format: format}
}

// GraphQLBody creates a GraphQL body from a query and a variables JSON text.
func GraphQLBody(query, variablesJSON string) Body {
	if variablesJSON == "" {
		variablesJSON = "{}"
	}
	return Body{kind: BodyGraphQL, query: query, variables: variablesJSON}
}

func (b Body) Type() BodyType     { return b.kind }
func (b Body) Raw() string        { return b.raw }
func (b Body) Format() BodyFormat { return b.format }
func (b Body) Query() string      { return b.query }
func (b Body) Variables() string  { return b.variables }

// Encode serializes the body to its storage/wire form. GraphQL bodies become
// the {"query": ..., "variables": ...} envelope; the variables text must be a
// JSON value or encoding fails with a validation error.
func (b Body) Encode() (string, error) {
	switch b.kind {
	case BodyRaw:
		return b.raw, nil
	case BodyGraphQL:
		var vars json.RawMessage
		if err := json.Unmarshal([]byte(b.variables), &vars); err != nil {
			return "", fmt.Errorf("graphql variables: %w", ErrMalformedBody)
		}
		envelope, err := json.Marshal(struct {
			Query     string          `json:"query"`
			Variables json.RawMessage `json:"variables"`
		}{Query: b.query, Variables: vars})
		if err != nil {
			return "", err
		}
		return string(envelope), nil
	default:
		return "", nil
	}
}

// ContentType returns the Content-Type implied by the body, or "" when the
// body carries none.
func (b Body) ContentType() string {
	switch b.kind {
	case BodyGraphQL:
		return "application/json"
	case BodyRaw:
		switch b.format {
		case FormatJSON:
			return "application/json"
		case FormatHTML:
			return "text/html"
		case FormatXML:
			return "application/xml"
		case FormatJavaScript:
			return "application/javascript"
		default:
			return "text/plain"
		}
	default:
		return ""
	}
}

// DecodeBody rebuilds a body from its stored form. A GraphQL body whose
// envelope no longer parses hydrates as an empty query with {} variables
// rather than failing the load.
func DecodeBody(bodyType BodyType, format BodyFormat, stored string) Body {
	switch bodyType {
	case BodyRaw:
		return RawBody(stored, format)
	case BodyGraphQL:
		var envelope struct {
			Query     string          `json:"query"`
			Variables json.RawMessage `json:"variables"`
		}
		if err := json.Unmarshal([]byte(stored), &envelope); err != nil {
			return GraphQLBody("", "{}")
		}
		vars := "{}"
		if len(envelope.Variables) > 0 {
			indented, err := json.MarshalIndent(json.RawMessage(envelope.Variables), "", "  ")
			if err == nil {
				vars = string(indented)
			}
		}
		return GraphQLBody(envelope.Query, vars)
	default:
		return NoBody()
	}
}
