package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyEncode(t *testing.T) {
	t.Run("none encodes empty", func(t *testing.T) {
		encoded, err := NoBody().Encode()
		require.NoError(t, err)
		assert.Equal(t, "", encoded)
	})

	t.Run("raw passes through", func(t *testing.T) {
		encoded, err := RawBody(`{"a":1}`, FormatJSON).Encode()
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, encoded)
	})

	t.Run("graphql builds the envelope", func(t *testing.T) {
		encoded, err := GraphQLBody("query { me { id } }", `{"limit": 5}`).Encode()
		require.NoError(t, err)

		var envelope struct {
			Query     string          `json:"query"`
			Variables json.RawMessage `json:"variables"`
		}
		require.NoError(t, json.Unmarshal([]byte(encoded), &envelope))
		assert.Equal(t, "query { me { id } }", envelope.Query)
		assert.JSONEq(t, `{"limit": 5}`, string(envelope.Variables))
	})

	t.Run("graphql with empty variables defaults to object", func(t *testing.T) {
		encoded, err := GraphQLBody("query { me }", "").Encode()
		require.NoError(t, err)
		assert.Contains(t, encoded, `"variables":{}`)
	})

	t.Run("graphql with invalid variables fails", func(t *testing.T) {
		_, err := GraphQLBody("query { me }", "{nope").Encode()
		assert.ErrorIs(t, err, ErrMalformedBody)
	})
}

func TestBodyContentType(t *testing.T) {
	assert.Equal(t, "application/json", GraphQLBody("q", "{}").ContentType())
	assert.Equal(t, "application/json", RawBody("{}", FormatJSON).ContentType())
	assert.Equal(t, "text/html", RawBody("<p/>", FormatHTML).ContentType())
	assert.Equal(t, "application/xml", RawBody("<r/>", FormatXML).ContentType())
	assert.Equal(t, "application/javascript", RawBody("1", FormatJavaScript).ContentType())
	assert.Equal(t, "text/plain", RawBody("x", FormatText).ContentType())
	assert.Equal(t, "", NoBody().ContentType())
}

func TestDecodeBody(t *testing.T) {
	t.Run("raw round trip", func(t *testing.T) {
		b := DecodeBody(BodyRaw, FormatJSON, `{"a":1}`)
		assert.Equal(t, BodyRaw, b.Type())
		assert.Equal(t, FormatJSON, b.Format())
		assert.Equal(t, `{"a":1}`, b.Raw())
	})

	t.Run("graphql round trip", func(t *testing.T) {
		encoded, err := GraphQLBody("query { me }", `{"a":1}`).Encode()
		require.NoError(t, err)

		b := DecodeBody(BodyGraphQL, "", encoded)
		assert.Equal(t, BodyGraphQL, b.Type())
		assert.Equal(t, "query { me }", b.Query())
		assert.JSONEq(t, `{"a":1}`, b.Variables())
	})

	t.Run("corrupt graphql envelope hydrates empty", func(t *testing.T) {
		b := DecodeBody(BodyGraphQL, "", "{corrupt")
		assert.Equal(t, "", b.Query())
		assert.Equal(t, "{}", b.Variables())
	})

	t.Run("unknown type hydrates none", func(t *testing.T) {
		b := DecodeBody("", "", "anything")
		assert.Equal(t, BodyNone, b.Type())
	})
}
