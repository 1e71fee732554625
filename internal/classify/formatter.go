package classify

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Format pretty-prints content according to its kind. Formatting never fails:
// content that does not parse as its declared kind is returned unchanged.
// Formatting is idempotent; formatting already-formatted output returns the
// same text.
func Format(content string, kind Kind) string {
	switch kind {
	case KindJSON:
		return formatJSON(content)
	case KindHTML:
		return reflowHTML(content)
	case KindXML:
		return reflowXML(content)
	default:
		return content
	}
}

// formatJSON re-serializes JSON with 2-space indentation. UseNumber keeps
// numeric literals byte-exact across the round trip.
func formatJSON(content string) string {
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return content
	}
	// Trailing non-whitespace after the first value means this was never a
	// single JSON document.
	if decoder.More() {
		return content
	}

	formatted, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return content
	}
	return string(formatted)
}

// voidElements are HTML tags that never take a closing tag and therefore must
// not deepen the indentation.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// reflowHTML re-renders markup with one tag per line, indented by nesting
// depth. Inter-tag whitespace is collapsed, so the output is stable under
// repeated formatting.
func reflowHTML(content string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(content))
	var buf strings.Builder
	depth := 0

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			if tokenizer.Err() == io.EOF {
				break
			}
			return content
		}

		raw := string(tokenizer.Raw())
		switch tt {
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			writeIndented(&buf, depth, raw)
			if !voidElements[string(name)] {
				depth++
			}
		case html.EndTagToken:
			if depth > 0 {
				depth--
			}
			writeIndented(&buf, depth, raw)
		case html.SelfClosingTagToken, html.CommentToken, html.DoctypeToken:
			writeIndented(&buf, depth, raw)
		case html.TextToken:
			text := strings.TrimSpace(raw)
			if text != "" {
				writeIndented(&buf, depth, text)
			}
		}
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

// reflowXML walks the token stream and re-renders one token per line, indented
// by element depth. Invalid XML is returned unchanged.
func reflowXML(content string) string {
	decoder := xml.NewDecoder(strings.NewReader(content))
	var buf bytes.Buffer
	indent := 0

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return content
		}

		switch t := token.(type) {
		case xml.StartElement:
			writeXMLIndent(&buf, indent)
			buf.WriteString("<")
			buf.WriteString(t.Name.Local)
			for _, attr := range t.Attr {
				buf.WriteString(" ")
				buf.WriteString(attr.Name.Local)
				buf.WriteString(`="`)
				buf.WriteString(attr.Value)
				buf.WriteString(`"`)
			}
			buf.WriteString(">\n")
			indent++

		case xml.EndElement:
			indent--
			writeXMLIndent(&buf, indent)
			buf.WriteString("</")
			buf.WriteString(t.Name.Local)
			buf.WriteString(">\n")

		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text != "" {
				writeXMLIndent(&buf, indent)
				buf.WriteString(text)
				buf.WriteString("\n")
			}

		case xml.Comment:
			writeXMLIndent(&buf, indent)
			buf.WriteString("<!--")
			buf.WriteString(string(t))
			buf.WriteString("-->\n")

		case xml.ProcInst:
			writeXMLIndent(&buf, indent)
			buf.WriteString("<?")
			buf.WriteString(t.Target)
			if len(t.Inst) > 0 {
				buf.WriteString(" ")
				buf.WriteString(string(t.Inst))
			}
			buf.WriteString("?>\n")

		case xml.Directive:
			writeXMLIndent(&buf, indent)
			buf.WriteString("<!")
			buf.WriteString(string(t))
			buf.WriteString(">\n")
		}
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

func writeIndented(buf *strings.Builder, depth int, text string) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
	buf.WriteString(text)
	buf.WriteString("\n")
}

func writeXMLIndent(buf *bytes.Buffer, level int) {
	for i := 0; i < level; i++ {
		buf.WriteString("  ")
	}
}
