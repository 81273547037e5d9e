package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/unsaid-app/backend/internal/config"
	"github.com/unsaid-app/backend/internal/logger"
	"go.uber.org/zap"
)

// Message is one conversational turn sent to the upstream provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UpstreamError is a non-success response from the chat provider, carrying
// the provider's reported message when it sent one.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// Client streams chat completions from an OpenAI-compatible endpoint.
type Client struct {
	cfg        *config.ChatConfig
	httpClient *http.Client
}

// NewClient creates a streaming chat client.
func NewClient(cfg *config.ChatConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// StreamCompletion sends the conversation upstream and assembles the
// streamed reply. Each content fragment is passed to onFragment as it
// becomes complete; the full assembled message is returned at the end.
// A nil onFragment is allowed.
func (c *Client) StreamCompletion(ctx context.Context, messages []Message, onFragment func(fragment string)) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.readError(resp)
	}

	assembler := NewAssembler()
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, fragment := range assembler.Push(buf[:n]) {
				if onFragment != nil {
					onFragment(fragment)
				}
			}
		}
		if assembler.Done() {
			break
		}
		if readErr == io.EOF {
			for _, fragment := range assembler.Flush() {
				if onFragment != nil {
					onFragment(fragment)
				}
			}
			break
		}
		if readErr != nil {
			// Mid-stream transport failure; whatever assembled so far is
			// returned alongside the error so the caller can decide what
			// to keep.
			return assembler.Content(), fmt.Errorf("stream read failed: %w", readErr)
		}
	}

	return assembler.Content(), nil
}

// readError extracts the provider's error message from a non-success
// response, falling back to a generic "Error N" message.
func (c *Client) readError(resp *http.Response) error {
	message := fmt.Sprintf("Error %d", resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(body) > 0 {
		var payload struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &payload); jsonErr == nil && payload.Error != "" {
			message = payload.Error
		}
	}

	logger.Log.Warn("chat upstream returned error",
		zap.Int("status", resp.StatusCode),
		zap.String("message", message),
	)

	return &UpstreamError{StatusCode: resp.StatusCode, Message: message}
}
