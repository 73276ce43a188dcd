package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfeval/internal/platform/config"
)

func TestNewDisabled(t *testing.T) {
	_, err := New(config.Config{AIEnabled: false})
	require.ErrorIs(t, err, ErrDisabled)
}

func TestCompleteParsesContent(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"summary\":\"ok\"}"}}]}`))
	}))
	defer srv.Close()

	client, err := New(config.Config{AIEnabled: true, AIAPIKey: "key", AIBaseURL: srv.URL + "/v1/", AIModel: "test-model"})
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, out)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestCompleteSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	client := &Client{APIKey: "key", BaseURL: srv.URL, Model: "m"}
	_, err := client.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := &Client{APIKey: "key", BaseURL: srv.URL, Model: "m"}
	_, err := client.Complete(context.Background(), "s", "p")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestStaticCompleter(t *testing.T) {
	s := &StaticCompleter{Err: errors.New("boom")}
	_, err := s.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Equal(t, []string{"p"}, s.Prompts)
}
