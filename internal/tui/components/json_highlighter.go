package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// JSONHighlighter provides syntax highlighting for JSON content.
type JSONHighlighter struct {
	keyStyle     lipgloss.Style
	stringStyle  lipgloss.Style
	numberStyle  lipgloss.Style
	boolStyle    lipgloss.Style
	nullStyle    lipgloss.Style
	bracketStyle lipgloss.Style
	colonStyle   lipgloss.Style
}

// NewJSONHighlighter creates a highlighter with default styles.
func NewJSONHighlighter() *JSONHighlighter {
	return &JSONHighlighter{
		keyStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		stringStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		numberStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		boolStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		nullStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		bracketStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		colonStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// HighlightLines applies syntax highlighting and returns the result line by
// line. The input is expected to be formatted already.
func (h *JSONHighlighter) HighlightLines(content string) []string {
	lines := strings.Split(content, "\n")
	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = h.highlightLine(line)
	}
	return result
}

func (h *JSONHighlighter) highlightLine(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(trimmed)]
	if trimmed == "" {
		return line
	}

	var result strings.Builder
	result.WriteString(indent)

	chars := []rune(trimmed)
	i := 0
	for i < len(chars) {
		ch := chars[i]
		switch {
		case ch == '"':
			str, end := extractQuoted(chars, i)
			if followedByColon(chars, end) {
				result.WriteString(h.keyStyle.Render(str))
			} else {
				result.WriteString(h.stringStyle.Render(str))
			}
			i = end

		case ch == ':':
			result.WriteString(h.colonStyle.Render(":"))
			i++

		case ch == '{' || ch == '}' || ch == '[' || ch == ']':
			result.WriteString(h.bracketStyle.Render(string(ch)))
			i++

		case ch == 't' || ch == 'f':
			word := extractWord(chars, i)
			if word == "true" || word == "false" {
				result.WriteString(h.boolStyle.Render(word))
				i += len(word)
			} else {
				result.WriteRune(ch)
				i++
			}

		case ch == 'n':
			word := extractWord(chars, i)
			if word == "null" {
				result.WriteString(h.nullStyle.Render(word))
				i += len(word)
			} else {
				result.WriteRune(ch)
				i++
			}

		case ch == '-' || (ch >= '0' && ch <= '9'):
			num := extractNumber(chars, i)
			result.WriteString(h.numberStyle.Render(num))
			i += len(num)

		default:
			result.WriteRune(ch)
			i++
		}
	}

	return result.String()
}

func followedByColon(chars []rune, from int) bool {
	for i := from; i < len(chars); i++ {
		switch chars[i] {
		case ' ', '\t':
			continue
		case ':':
			return true
		default:
			return false
		}
	}
	return false
}

func extractQuoted(chars []rune, start int) (string, int) {
	var sb strings.Builder
	sb.WriteRune('"')
	i := start + 1

	for i < len(chars) {
		ch := chars[i]
		sb.WriteRune(ch)
		if ch == '\\' && i+1 < len(chars) {
			i++
			sb.WriteRune(chars[i])
		} else if ch == '"' {
			i++
			break
		}
		i++
	}

	return sb.String(), i
}

func extractWord(chars []rune, start int) string {
	i := start
	for i < len(chars) && chars[i] >= 'a' && chars[i] <= 'z' {
		i++
	}
	return string(chars[start:i])
}

func extractNumber(chars []rune, start int) string {
	i := start
	if i < len(chars) && chars[i] == '-' {
		i++
	}
	digits := func() {
		for i < len(chars) && chars[i] >= '0' && chars[i] <= '9' {
			i++
		}
	}
	digits()
	if i < len(chars) && chars[i] == '.' {
		i++
		digits()
	}
	if i < len(chars) && (chars[i] == 'e' || chars[i] == 'E') {
		i++
		if i < len(chars) && (chars[i] == '+' || chars[i] == '-') {
			i++
		}
		digits()
	}
	return string(chars[start:i])
}
