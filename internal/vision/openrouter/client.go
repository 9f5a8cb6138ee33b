package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"spotter/internal/config"
	"spotter/internal/port"
	"spotter/internal/vision"
)

const (
	defaultEndpoint  = "https://openrouter.ai/api/v1/chat/completions"
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 2000
)

// Client implements port.VisionClient against an OpenAI-compatible chat
// completions endpoint. Each Complete call makes exactly one HTTP request.
type Client struct {
	apiKey      string
	endpoint    string
	referer     string
	title       string
	maxTokens   int
	temperature float64
	limiter     *rate.Limiter
	client      *http.Client
}

// NewClient creates a Client from cfg. A missing or malformed API key is a
// *config.ConfigurationError.
func NewClient(cfg *config.VisionConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Client{
		apiKey:      cfg.APIKey,
		endpoint:    endpoint,
		referer:     cfg.Referer,
		title:       cfg.Title,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		limiter:     limiter,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type apiRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// apiResponse models the chat completions envelope.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Complete sends the image and prompt to req.Model and returns the reply text.
func (c *Client) Complete(ctx context.Context, req port.VisionRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &vision.TransientError{Model: req.Model, Err: fmt.Errorf("waiting for rate limiter: %w", err)}
	}

	contentType := req.Image.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(req.Image.Bytes))

	body := apiRequest{
		Model: req.Model,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
			},
		}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", &vision.ModelError{Model: req.Model, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &vision.ModelError{Model: req.Model, Err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		httpReq.Header.Set("X-Title", c.title)
	}

	zap.L().Debug("openrouter.Client: sending request",
		zap.String("model", req.Model), zap.String("image", req.Image.Path), zap.Int("prompt_chars", len(req.Prompt)))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &vision.TransientError{Model: req.Model, Err: fmt.Errorf("calling chat completions: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &vision.TransientError{Model: req.Model, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &vision.ModelError{
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("chat completions error: %s", truncate(string(respBody), 200)),
		}
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &vision.ModelError{Model: req.Model, Err: fmt.Errorf("unmarshaling response: %w", err)}
	}
	if parsed.Error != nil {
		return "", &vision.ModelError{Model: req.Model, Err: fmt.Errorf("provider error: %s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", &vision.ModelError{Model: req.Model, Err: fmt.Errorf("empty response from API: no choices")}
	}

	content := parsed.Choices[0].Message.Content
	zap.L().Debug("openrouter.Client: response received",
		zap.String("model", req.Model), zap.Int("chars", len(content)),
		zap.String("finish_reason", parsed.Choices[0].FinishReason))
	return content, nil
}

// truncate cuts s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
