// Package client talks to a running dentalchat server over HTTP. It backs
// the terminal widget's conversation session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RichardoC/dentalchat/internal/dialogue"
	"github.com/RichardoC/dentalchat/internal/models"
)

const chatPath = "/api/ai/chat"

var ErrEmptyReply = errors.New("server returned an empty reply")

// Error is a failure envelope returned by the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error: status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// CompleteChat sends the full conversation to the inference proxy and
// returns the assistant's reply.
func (c *Client) CompleteChat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	var data models.ChatData
	if err := c.post(ctx, chatPath, map[string]any{"messages": messages}, &data); err != nil {
		return "", err
	}
	if strings.TrimSpace(data.Message) == "" {
		return "", ErrEmptyReply
	}
	return data.Message, nil
}

// SubmitLead posts a record to the lead-intake endpoint for kind.
func (c *Client) SubmitLead(ctx context.Context, kind models.LeadKind, record map[string]string) error {
	path := dialogue.Path(kind)
	if path == "" {
		return fmt.Errorf("unknown lead kind %q", kind)
	}
	return c.post(ctx, path, record, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
