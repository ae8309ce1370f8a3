package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"traveldocs-relay/internal/contextutil"
	"traveldocs-relay/internal/domain"
	"traveldocs-relay/internal/prompt"
)

const defaultTimeout = 30 * time.Second

// Client calls the Gemini generateContent API.
// It is safe for concurrent use.
type Client struct {
	Provider   string
	BaseURL    string
	APIVersion string
	Model      string
	apiKey     string
	timeout    time.Duration
	client     *http.Client
}

// NewClient creates a new LLM client. A zero Timeout defaults to 30 seconds.
func NewClient(s Settings) *Client {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		Provider:   s.Provider,
		BaseURL:    strings.TrimRight(s.BaseURL, "/"),
		APIVersion: s.APIVersion,
		Model:      s.Model,
		apiKey:     s.APIKey,
		timeout:    timeout,
		client:     http.DefaultClient,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// Check reports whether the client is configured well enough to make a call.
// It performs no network I/O.
func (c *Client) Check() error {
	if c.Provider != ProviderGemini {
		return newError(KindUnsupportedProvider, fmt.Sprintf("LLM provider %q is not implemented", c.Provider), nil)
	}
	if c.apiKey == "" {
		return newError(KindConfiguration, "missing API key: set GEMINI_API_KEY or GOOGLE_API_KEY", nil)
	}
	return nil
}

// Ask builds the prompt for question and history, sends it to the provider and
// returns the first candidate's text. Exactly one request is made per call.
func (c *Client) Ask(ctx context.Context, question string, history []domain.ChatMessage) (Answer, error) {
	if err := c.Check(); err != nil {
		return Answer{}, err
	}
	logger := contextutil.LoggerFromContext(ctx)

	text := prompt.Build(question, history)
	payload := GenerateContentRequest{
		Contents: []Content{
			{Parts: []Part{{Text: text}}},
		},
		GenerationConfig: GenerationConfig{
			MaxOutputTokens: maxOutputTokens,
			Temperature:     temperature,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Answer{}, newError(KindParse, "failed to marshal request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return Answer{}, newError(KindTransport, "failed to create request", redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	logger.DebugContext(ctx, "sending generateContent request",
		"model", c.Model,
		"prompt_length", len(text),
		"history_messages", len(history),
	)
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Answer{}, newError(KindTransport, fmt.Sprintf("request to LLM provider timed out after %s", c.timeout), nil)
		}
		return Answer{}, newError(KindTransport, "failed to send request to LLM provider", redact(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Answer{}, newError(KindTransport, "failed to read LLM provider response", redact(err))
	}

	logger.DebugContext(ctx, "received generateContent response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Answer{}, &Error{
			Kind:       KindUpstream,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("LLM provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	answer, err := parseResponse(raw)
	if err != nil {
		return Answer{}, err
	}
	return answer, nil
}

func (c *Client) endpoint() string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	return fmt.Sprintf("%s/%s/models/%s:generateContent?%s", c.BaseURL, c.APIVersion, c.Model, q.Encode())
}

func parseResponse(raw []byte) (Answer, error) {
	var genResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text *string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &genResp); err != nil {
		return Answer{}, newError(KindParse, "failed to decode LLM provider response", err)
	}
	if len(genResp.Candidates) == 0 {
		return Answer{}, newError(KindParse, "LLM provider response has no candidates", nil)
	}
	parts := genResp.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == nil {
		return Answer{}, newError(KindParse, "LLM provider response has no text content", nil)
	}
	return Answer{
		Text: *parts[0].Text,
		Raw:  json.RawMessage(raw),
	}, nil
}

// redact drops the request URL from a *url.Error so the API key never reaches
// logs or error responses.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
