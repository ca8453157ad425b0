// Package transport is a client for the Anthropic Messages API.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/iksnae/claude-session/internal"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public Anthropic API endpoint
	DefaultBaseURL = "https://api.anthropic.com"
	// DefaultVersion is sent as the anthropic-version header
	DefaultVersion = "2023-06-01"
)

// Compile-time interface guard.
var _ internal.Transport = (*Client)(nil)

// Config configures a Client
type Config struct {
	BaseURL string
	Version string
	Timeout time.Duration
}

// Client sends conversations to the Messages API
type Client struct {
	apiKey     string
	baseURL    string
	version    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client. The API key is required.
func New(cfg Config, apiKey string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required (set %s)", internal.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		version:    cfg.Version,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Send posts the conversation and returns the concatenated reply text
func (c *Client) Send(ctx context.Context, messages []internal.ProviderMessage, model string, maxTokens int) (string, error) {
	if len(messages) == 0 {
		return "", NewProviderError(ErrCodeInvalidRequest, "messages must not be empty", nil)
	}

	req := messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  make([]chatMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = toChatMessage(m)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal messages request: %w", err)
	}

	start := time.Now()
	respBody, err := c.do(ctx, http.MethodPost, "/v1/messages", body)
	if err != nil {
		c.logger.Warn("messages request failed", zap.String("model", model), zap.Error(err))
		return "", mapError(err)
	}
	defer respBody.Close()

	var resp messagesResponse
	if err := json.NewDecoder(respBody).Decode(&resp); err != nil {
		return "", NewProviderError(ErrCodeMalformedResponse, "decode messages response", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if content.Len() == 0 {
		return "", NewProviderError(ErrCodeMalformedResponse, "response contained no text", nil)
	}

	c.logger.Debug("messages request complete",
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return content.String(), nil
}

// ListModels returns the ids of available Claude models, sorted
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/v1/models?limit=1000", nil)
	if err != nil {
		return nil, mapError(err)
	}
	defer respBody.Close()

	var resp modelsResponse
	if err := json.NewDecoder(respBody).Decode(&resp); err != nil {
		return nil, NewProviderError(ErrCodeMalformedResponse, "decode models response", err)
	}

	models := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		if strings.HasPrefix(m.ID, "claude") {
			models = append(models, m.ID)
		}
	}
	sort.Strings(models)
	return models, nil
}

// Heartbeat checks whether the API is reachable with the configured key
func (c *Client) Heartbeat(ctx context.Context) error {
	respBody, err := c.do(ctx, http.MethodGet, "/v1/models?limit=1", nil)
	if err != nil {
		return mapError(err)
	}
	return respBody.Close()
}

// BaseURL returns the endpoint the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends an authenticated request and returns the response body
func (c *Client) do(ctx context.Context, method, path string, body []byte) (io.ReadCloser, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseStatusError(resp)
	}

	return resp.Body, nil
}

// parseStatusError reads an error response body
func parseStatusError(resp *http.Response) *statusError {
	var errResp struct {
		Type  string `json:"type"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || json.Unmarshal(data, &errResp) != nil {
		return &statusError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	msg := errResp.Error.Message
	if msg == "" {
		msg = resp.Status
	}
	return &statusError{
		StatusCode: resp.StatusCode,
		Type:       errResp.Error.Type,
		Message:    msg,
	}
}

// toChatMessage converts a provider message; an image block precedes the text block
func toChatMessage(m internal.ProviderMessage) chatMessage {
	if m.Image == nil {
		return chatMessage{Role: string(m.Role), Content: m.Text}
	}
	return chatMessage{
		Role: string(m.Role),
		Content: []contentBlock{
			{
				Type: "image",
				Source: &imageSource{
					Type:      "base64",
					MediaType: m.Image.MediaType,
					Data:      m.Image.Data,
				},
			},
			{Type: "text", Text: m.Text},
		},
	}
}

// --- Messages API types ---

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

// chatMessage content is either a string or a list of content blocks
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Content []contentBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type modelsResponse struct {
	Data []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
	HasMore bool `json:"has_more"`
}
