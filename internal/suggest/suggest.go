// Package suggest asks an OpenAI-compatible chat model to break a task into
// subtasks.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"

	maxRetries   = 3
	initialDelay = 1 * time.Second
	maxSubtasks  = 10
)

var ErrNoAPIKey = errors.New("suggest: OPENAI_API_KEY not set")

const systemPrompt = "You split a to-do item into small, concrete next actions. " +
	"Reply with one action per line and nothing else. Use at most 7 lines."

// Client calls the chat-completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	delay   time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRetryDelay sets the first backoff step; later ones double.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

func NewClient(apiKey, baseURL, model string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		delay:   initialDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// SuggestSubtasks returns cleaned subtask titles for title.
func (c *Client) SuggestSubtasks(ctx context.Context, title string) ([]string, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("suggest: empty task title")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Break this task into subtasks: " + title},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		return nil, err
	}
	lines := CleanLines(content)
	if len(lines) == 0 {
		return nil, fmt.Errorf("suggest: model returned no subtasks")
	}
	return lines, nil
}

func (c *Client) complete(ctx context.Context, body []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// 1x, 2x, 4x the base delay
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.delay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				lastErr = fmt.Errorf("api error (%d): %s", resp.StatusCode, apiErr.Error.Message)
			} else {
				lastErr = fmt.Errorf("api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return "", lastErr
		}

		var chat chatResponse
		if err := json.Unmarshal(respBody, &chat); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(chat.Choices) == 0 {
			return "", fmt.Errorf("suggest: response has no choices")
		}
		return chat.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}

// CleanLines splits a model reply into titles, stripping bullets and
// numbering ("-", "*", "•", "1.", "2)") and dropping blank lines.
func CleanLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•# \t")
		line = stripNumber(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxSubtasks {
			break
		}
	}
	return out
}

func stripNumber(line string) string {
	i := 0
	for i < len(line) && unicode.IsDigit(rune(line[i])) {
		i++
	}
	if i == 0 || i == len(line) {
		return line
	}
	if line[i] == '.' || line[i] == ')' {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
