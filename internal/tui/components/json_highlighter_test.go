package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractQuoted(t *testing.T) {
	t.Run("simple string", func(t *testing.T) {
		str, end := extractQuoted([]rune(`"name": 1`), 0)
		assert.Equal(t, `"name"`, str)
		assert.Equal(t, 6, end)
	})

	t.Run("escaped quote stays inside", func(t *testing.T) {
		str, end := extractQuoted([]rune(`"a\"b"`), 0)
		assert.Equal(t, `"a\"b"`, str)
		assert.Equal(t, 6, end)
	})

	t.Run("unterminated string consumes the rest", func(t *testing.T) {
		str, end := extractQuoted([]rune(`"open`), 0)
		assert.Equal(t, `"open`, str)
		assert.Equal(t, 5, end)
	})
}

func TestFollowedByColon(t *testing.T) {
	assert.True(t, followedByColon([]rune(`"k": 1`), 3))
	assert.True(t, followedByColon([]rune(`"k"  : 1`), 3))
	assert.False(t, followedByColon([]rune(`"v",`), 3))
	assert.False(t, followedByColon([]rune(`"v"`), 3))
}

func TestExtractNumber(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"42,", "42"},
		{"-3.14}", "-3.14"},
		{"1e10,", "1e10"},
		{"2.5E-3 ", "2.5E-3"},
		{"7", "7"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extractNumber([]rune(tc.input), 0), "input %q", tc.input)
	}
}

func TestHighlightLines(t *testing.T) {
	h := NewJSONHighlighter()

	t.Run("line structure is preserved", func(t *testing.T) {
		lines := h.HighlightLines("{\n  \"a\": 1\n}")
		assert.Len(t, lines, 3)
	})

	t.Run("indentation is preserved", func(t *testing.T) {
		lines := h.HighlightLines("    \"deep\": true")
		assert.Len(t, lines, 1)
		assert.Contains(t, lines[0], "    ")
	})

	t.Run("blank lines pass through", func(t *testing.T) {
		lines := h.HighlightLines("")
		assert.Equal(t, []string{""}, lines)
	})
}
