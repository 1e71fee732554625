package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/interfaces"
)

func TestExecute(t *testing.T) {
	t.Run("sends method, headers, auth and body", func(t *testing.T) {
		var got *http.Request
		var gotBody string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte("created"))
		}))
		defer server.Close()

		client := NewClient()
		resp, err := client.Execute(context.Background(), interfaces.ExecutionPlan{
			Method:      "POST",
			URL:         server.URL + "/things",
			Headers:     []core.HeaderPair{{Key: "X-Trace", Value: "t1"}},
			Body:        `{"a":1}`,
			ContentType: "application/json",
			Auth:        "Bearer tok",
		})
		require.NoError(t, err)

		assert.Equal(t, "POST", got.Method)
		assert.Equal(t, "t1", got.Header.Get("X-Trace"))
		assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
		assert.Equal(t, `{"a":1}`, gotBody)

		assert.Equal(t, http.StatusCreated, resp.StatusCode())
		assert.Equal(t, "created", resp.Body())
		assert.True(t, resp.RuntimeMS() >= 0)
	})

	t.Run("explicit content type is not overridden", func(t *testing.T) {
		var got string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get("Content-Type")
		}))
		defer server.Close()

		client := NewClient()
		_, err := client.Execute(context.Background(), interfaces.ExecutionPlan{
			Method:      "POST",
			URL:         server.URL,
			Headers:     []core.HeaderPair{{Key: "Content-Type", Value: "text/custom"}},
			Body:        "x",
			ContentType: "application/json",
		})
		require.NoError(t, err)
		assert.Equal(t, "text/custom", got)
	})

	t.Run("error statuses are responses, not errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		}))
		defer server.Close()

		client := NewClient()
		resp, err := client.Execute(context.Background(), interfaces.ExecutionPlan{
			Method: "GET",
			URL:    server.URL,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())
	})

	t.Run("transport failures are errors", func(t *testing.T) {
		client := NewClient()
		_, err := client.Execute(context.Background(), interfaces.ExecutionPlan{
			Method: "GET",
			URL:    "http://127.0.0.1:1",
		})
		assert.Error(t, err)
	})

	t.Run("response headers are cached as json", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte("{}"))
		}))
		defer server.Close()

		client := NewClient()
		resp, err := client.Execute(context.Background(), interfaces.ExecutionPlan{
			Method: "GET",
			URL:    server.URL,
		})
		require.NoError(t, err)

		var headers map[string]string
		require.NoError(t, json.Unmarshal([]byte(resp.Headers()), &headers))
		assert.Equal(t, "application/json", headers["Content-Type"])
	})
}
