// Package ollama provides a shared HTTP client for talking to a local
// Ollama daemon, used both as the "local in-process" model backend (Ollama
// manages the quantized model weights itself) and by the embedder.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nucleus-go/assistant/internal/httpclient"
)

// Client is a thin wrapper around the Ollama HTTP API shared by the chat
// and embedding call sites.
type Client struct {
	baseURL    string
	httpClient *httpclient.Client
}

// NewClient creates a client with the default 60s timeout.
func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 60*time.Second)
}

// NewClientWithTimeout creates a client with a custom request timeout.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &Client{
		baseURL: baseURL,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
			httpclient.WithMaxRetries(3),
			httpclient.WithBaseDelay(2*time.Second),
		),
	}
}

// MakeRequest performs a single-shot (non-streaming) POST against endpoint.
func (c *Client) MakeRequest(ctx context.Context, endpoint string, payload interface{}) (*http.Response, error) {
	req, err := c.newRequest(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: request failed: %w", err)
	}
	return resp, nil
}

// MakeStreamingRequest performs a POST whose response body is a stream of
// newline-delimited JSON objects.
func (c *Client) MakeStreamingRequest(ctx context.Context, endpoint string, payload interface{}) (*http.Response, error) {
	req, err := c.newRequest(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: streaming request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, endpoint string, payload interface{}) (*http.Request, error) {
	url := c.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("ollama: marshal request payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("ollama: create request: %w", err)
	}
	return req, nil
}

// GetBaseURL returns the client's configured base URL.
func (c *Client) GetBaseURL() string {
	return c.baseURL
}
