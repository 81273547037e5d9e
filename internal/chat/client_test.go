package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unsaid-app/backend/internal/config"
)

func testClient(url string) *Client {
	return NewClient(&config.ChatConfig{
		APIURL:         url,
		APIKey:         "test-key",
		Model:          "test-model",
		RequestTimeout: 5 * time.Second,
	})
}

func TestStreamCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPost, r.Method)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		chunks := []string{
			"data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n",
			"data: [DONE]\n\n",
		}
		for _, chunk := range chunks {
			_, _ = w.Write([]byte(chunk))
			flusher.Flush()
		}
	}))
	defer server.Close()

	var fragments []string
	content, err := testClient(server.URL).StreamCompletion(context.Background(),
		[]Message{{Role: "user", Content: "hi"}},
		func(fragment string) { fragments = append(fragments, fragment) },
	)

	require.NoError(t, err)
	assert.Equal(t, "Hello", content)
	assert.Equal(t, []string{"Hel", "lo"}, fragments)
}

func TestStreamCompletionWithoutSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"bye\"}}]}\n"))
		// Connection closes cleanly with no [DONE]
	}))
	defer server.Close()

	content, err := testClient(server.URL).StreamCompletion(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "bye", content)
}

func TestStreamCompletionUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limit reached"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).StreamCompletion(context.Background(), nil, nil)
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusTooManyRequests, upstreamErr.StatusCode)
	assert.Equal(t, "rate limit reached", upstreamErr.Message)
}

func TestStreamCompletionErrorFallbackMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := testClient(server.URL).StreamCompletion(context.Background(), nil, nil)
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, "Error 502", upstreamErr.Message)
}
