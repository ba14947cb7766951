package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		config: &clientConfig{
			APIKey:  "test-key",
			BaseURL: baseURL,
			Model:   "gpt-3.5-turbo",
		},
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func completionReply(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

func TestSuggestMessages(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)

		require.NoError(t, json.NewEncoder(w).Encode(
			completionReply("What makes you smile? || Favorite book? ||Best trip ever?"),
		))
	}))
	defer upstream.Close()

	client := newTestClient(upstream.URL)

	suggestions, err := client.SuggestMessages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"What makes you smile?", "Favorite book?", "Best trip ever?"}, suggestions)
}

func TestSuggestMessagesUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	client := newTestClient(upstream.URL)

	_, err := client.SuggestMessages(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestSuggestMessagesEmptyChoices(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"choices": []any{}}))
	}))
	defer upstream.Close()

	client := newTestClient(upstream.URL)

	_, err := client.SuggestMessages(context.Background())
	assert.ErrorIs(t, err, ErrNoSuggestions)
}

func TestSplitSuggestions(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitSuggestions(" a ||b"))
	assert.Equal(t, []string{"only one"}, splitSuggestions("only one"))
	assert.Nil(t, splitSuggestions("  ||  "))
}
