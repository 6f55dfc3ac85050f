// Package caption wraps the OpenAI-compatible chat-completions endpoint used
// to generate one-sentence image captions.
package caption

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/timmy/capeval/internal/logger"
	"github.com/timmy/capeval/internal/prompts"
)

// rateLimitCap bounds how many rate-limit pauses a single call may absorb so
// the call always terminates even against a permanently throttling endpoint.
const rateLimitCap = 5

// Client issues captioning requests with bounded retry.
type Client struct {
	client   *resty.Client
	endpoint string
	model    string

	maxTokens      int
	retryCount     int
	retryDelay     time.Duration
	rateLimitPause time.Duration

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

// ClientConfig holds configuration for the captioning client.
type ClientConfig struct {
	Model          string
	APIKey         string
	BaseURL        string
	MaxTokens      int
	RetryCount     int
	RetryDelay     time.Duration
	RateLimitPause time.Duration
}

// NewClient creates a captioning client.
// Parameters:
//   - cfg: endpoint, credentials and retry policy.
//
// Returns:
//   - *Client: initialized client.
func NewClient(cfg *ClientConfig) *Client {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(60 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 100
	}
	retryCount := cfg.RetryCount
	if retryCount <= 0 {
		retryCount = 3
	}

	return &Client{
		client:         client,
		endpoint:       strings.TrimSuffix(baseURL, "/") + "/chat/completions",
		model:          cfg.Model,
		maxTokens:      maxTokens,
		retryCount:     retryCount,
		retryDelay:     cfg.RetryDelay,
		rateLimitPause: cfg.RateLimitPause,
		sleep:          time.Sleep,
	}
}

// GetModel returns the model name being used.
func (c *Client) GetModel() string {
	return c.model
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []interface{} `json:"content"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imageContent struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Caption requests a one-sentence description of the base64 PNG image.
//
// Transient failures are retried up to the configured count with a linearly
// increasing delay. Rate-limit responses sleep the longer fixed pause and do
// not consume the retry budget. When every attempt fails the caption is
// empty and the transport error is logged, never returned: a failed item is
// a skip condition for the batch driver, not an abort.
// Parameters:
//   - ctx: context for cancellation.
//   - b64Image: base64-encoded PNG payload.
//
// Returns:
//   - string: trimmed caption text, empty on failure.
//   - error: non-nil only when ctx is cancelled.
func (c *Client) Caption(ctx context.Context, b64Image string) (string, error) {
	log := logger.FromContext(ctx)
	rateLimited := 0

	for attempt := 1; attempt <= c.retryCount; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, status, err := c.request(ctx, b64Image)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if status == http.StatusTooManyRequests && rateLimited < rateLimitCap {
			rateLimited++
			attempt-- // does not count against the retry budget
			log.WithField("pause", c.rateLimitPause.String()).Warn("Rate limited, pausing")
			c.sleep(c.rateLimitPause)
			continue
		}

		log.WithFields(logger.Fields{
			"attempt": attempt,
			"status":  status,
		}).WithError(err).Warn("Caption request failed")

		if attempt < c.retryCount {
			c.sleep(c.retryDelay * time.Duration(attempt))
		}
	}

	log.Warn("Caption request failed after all retries")
	return "", nil
}

// request performs one round trip. The returned status is 0 for transport
// errors that never reached the server.
func (c *Client) request(ctx context.Context, b64Image string) (string, int, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []interface{}{
					textContent{
						Type: "text",
						Text: prompts.CaptionInstruction,
					},
					imageContent{
						Type: "image_url",
						ImageURL: imageURL{
							URL: "data:image/png;base64," + b64Image,
						},
					},
				},
			},
		},
		MaxTokens: c.maxTokens,
	}

	var resp chatResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(c.endpoint)

	if err != nil {
		return "", 0, fmt.Errorf("failed to call caption API: %w", err)
	}

	status := httpResp.StatusCode()
	if status < 200 || status >= 300 {
		if resp.Error != nil {
			return "", status, fmt.Errorf("caption API returned error: HTTP %d: %s", status, resp.Error.Message)
		}
		return "", status, fmt.Errorf("caption API returned error: HTTP %d: %s", status, string(httpResp.Body()))
	}

	if resp.Error != nil {
		return "", status, fmt.Errorf("caption API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return "", status, fmt.Errorf("no choices in caption API response (status: %d)", status)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), status, nil
}
