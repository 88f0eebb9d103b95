package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// defaultBaseURL targets the OpenAI API; any compatible provider can be
	// substituted via WithBaseURL.
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 30 * time.Second
)

// Client talks HTTP to an OpenAI-compatible chat completion API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customises Client behaviour.
type Option func(*Client)

// WithBaseURL points the client at a different provider endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient injects a caller-owned http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient builds the client with a 30s default timeout.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	return client
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

// APIError wraps the provider's error envelope for typed handling upstream.
type APIError struct {
	StatusCode int             `json:"-"`
	Type       string          `json:"type,omitempty"`
	Code       string          `json:"code,omitempty"`
	Message    string          `json:"message"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	desc := e.Message
	if e.Code != "" {
		desc = fmt.Sprintf("%s (%s)", desc, e.Code)
	}
	if e.Type != "" {
		desc = fmt.Sprintf("%s [%s]", desc, e.Type)
	}
	return desc
}

// ChatCompletion posts the request and decodes either the completion or the
// provider's error envelope.
func (c *Client) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	if c == nil {
		return ChatCompletionResponse{}, fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Model == "" {
		return ChatCompletionResponse{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return ChatCompletionResponse{}, fmt.Errorf("at least one message is required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return ChatCompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/chat/completions"), bytes.NewReader(body))
	if err != nil {
		return ChatCompletionResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ChatCompletionResponse{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatCompletionResponse{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return ChatCompletionResponse{}, c.parseAPIError(resp.StatusCode, rawBody)
	}

	var completion ChatCompletionResponse
	if err := json.Unmarshal(rawBody, &completion); err != nil {
		return ChatCompletionResponse{}, fmt.Errorf("decode response: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(rawBody, &raw); err == nil {
		completion.Raw = raw
	}
	return completion, nil
}

func (c *Client) parseAPIError(status int, payload []byte) error {
	type errorEnvelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if len(payload) == 0 {
		return &APIError{
			StatusCode: status,
			Message:    fmt.Sprintf("chat completion api error: status %d", status),
		}
	}
	var env errorEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return &APIError{
			StatusCode: status,
			Message:    fmt.Sprintf("chat completion api error: status %d, body: %s", status, string(payload)),
			Raw:        payload,
		}
	}
	return &APIError{
		StatusCode: status,
		Message:    env.Error.Message,
		Type:       env.Error.Type,
		Code:       env.Error.Code,
		Raw:        payload,
	}
}
