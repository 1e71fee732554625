package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderSetNormalize(t *testing.T) {
	t.Run("keyvalue drops blank keys", func(t *testing.T) {
		h := KeyValueHeaders([]HeaderPair{
			{Key: "Accept", Value: "application/json"},
			{Key: "  ", Value: "dropped"},
			{Key: "X-Trace", Value: ""},
		})

		pairs, err := h.Normalize()
		require.NoError(t, err)
		assert.Equal(t, []HeaderPair{
			{Key: "Accept", Value: "application/json"},
			{Key: "X-Trace", Value: ""},
		}, pairs)
	})

	t.Run("raw array of pairs", func(t *testing.T) {
		h := RawHeaders(`[{"key":"A","value":"1"},{"key":"B","value":"2"}]`)

		pairs, err := h.Normalize()
		require.NoError(t, err)
		assert.Len(t, pairs, 2)
		assert.Equal(t, "A", pairs[0].Key)
	})

	t.Run("raw json object", func(t *testing.T) {
		h := RawHeaders(`{"Accept":"text/html"}`)

		pairs, err := h.Normalize()
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.Equal(t, HeaderPair{Key: "Accept", Value: "text/html"}, pairs[0])
	})

	t.Run("raw garbage is a validation error", func(t *testing.T) {
		h := RawHeaders("Accept: text/html")

		_, err := h.Normalize()
		assert.ErrorIs(t, err, ErrMalformedHeaders)
	})

	t.Run("empty raw text is empty, not an error", func(t *testing.T) {
		pairs, err := RawHeaders("   ").Normalize()
		require.NoError(t, err)
		assert.Nil(t, pairs)
	})
}

func TestHeaderSetEncode(t *testing.T) {
	t.Run("raw text is stored verbatim", func(t *testing.T) {
		assert.Equal(t, "whatever", RawHeaders("whatever").Encode())
	})

	t.Run("pairs become a json array without blank keys", func(t *testing.T) {
		h := KeyValueHeaders([]HeaderPair{
			{Key: "A", Value: "1"},
			{Key: "", Value: "x"},
		})
		assert.Equal(t, `[{"key":"A","value":"1"}]`, h.Encode())
	})

	t.Run("no pairs encode as empty", func(t *testing.T) {
		assert.Equal(t, "", KeyValueHeaders(nil).Encode())
	})
}

func TestParseHeaders(t *testing.T) {
	t.Run("stored array hydrates keyvalue", func(t *testing.T) {
		h := ParseHeaders(`[{"key":"A","value":"1"}]`)
		assert.Equal(t, HeaderModeKeyValue, h.Mode())
		assert.Len(t, h.Pairs(), 1)
	})

	t.Run("other valid json stays raw", func(t *testing.T) {
		h := ParseHeaders(`{"Accept":"x"}`)
		assert.Equal(t, HeaderModeRaw, h.Mode())
	})

	t.Run("non-json yields empty keyvalue", func(t *testing.T) {
		h := ParseHeaders("corrupted!")
		assert.Equal(t, HeaderModeKeyValue, h.Mode())
		assert.Empty(t, h.Pairs())
	})

	t.Run("round trip through encode", func(t *testing.T) {
		original := KeyValueHeaders([]HeaderPair{{Key: "A", Value: "1"}})
		hydrated := ParseHeaders(original.Encode())
		assert.Equal(t, original.Pairs(), hydrated.Pairs())
	})
}
