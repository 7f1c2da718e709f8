package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	openAIBaseURL   = "https://api.openai.com/v1"
	deepseekBaseURL = "https://api.deepseek.com"

	defaultOpenAIModel   = "gpt-4o-mini"
	defaultDeepseekModel = "deepseek-chat"
)

// OpenAICompatible talks to any chat-completions API sharing the OpenAI wire
// contract. It covers both OpenAI itself and Deepseek.
type OpenAICompatible struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	retries    int
	httpClient *http.Client
	limiter    *RateLimiter
	logger     *slog.Logger
}

// chatCompletionRequest is the OpenAI-compatible request payload
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI-compatible response payload
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code,omitempty"`
	} `json:"error,omitempty"`
}

// NewOpenAI creates the OpenAI adapter
func NewOpenAI(apiKey, model, baseURL string, timeout time.Duration, retries int, limiter *RateLimiter, logger *slog.Logger) *OpenAICompatible {
	if model == "" {
		model = defaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	return newOpenAICompatible("openai", apiKey, model, baseURL, timeout, retries, limiter, logger)
}

// NewDeepseek creates the Deepseek adapter, which shares the OpenAI wire
// contract but flags insufficient-balance failures as quota errors and skips
// its remaining in-adapter retries when one is seen.
func NewDeepseek(apiKey, model string, timeout time.Duration, retries int, limiter *RateLimiter, logger *slog.Logger) *OpenAICompatible {
	if model == "" {
		model = defaultDeepseekModel
	}
	return newOpenAICompatible("deepseek", apiKey, model, deepseekBaseURL, timeout, retries, limiter, logger)
}

func newOpenAICompatible(name, apiKey, model, baseURL string, timeout time.Duration, retries int, limiter *RateLimiter, logger *slog.Logger) *OpenAICompatible {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	c := &OpenAICompatible{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		retries: retries,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		logger:  logger,
	}

	logger.Info("chat-completions client initialized",
		"provider", name,
		"base_url", c.baseURL,
		"model", model,
		"key_configured", apiKey != "",
	)

	return c
}

func (c *OpenAICompatible) Name() string { return c.name }

// Attempt sends one chat-completion request. Transient transport failures are
// retried in-adapter with linear backoff; quota failures abort the retry loop
// immediately so the orchestrator falls through to the next provider.
func (c *OpenAICompatible) Attempt(ctx context.Context, req Request) (*Response, error) {
	if c.apiKey == "" {
		return nil, NewError(c.name, KindAuth, fmt.Errorf("API key not configured"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classifyTransport(c.name, err)
	}

	var lastErr *Error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, classifyTransport(c.name, ctx.Err())
			case <-time.After(backoff):
			}
		}

		resp, err := c.doRequest(ctx, req)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("request succeeded after retry", "provider", c.name, "attempt", attempt+1)
			}
			return resp, nil
		}

		lastErr = err
		c.logger.Warn("chat-completions request failed",
			"provider", c.name,
			"attempt", attempt+1,
			"kind", err.Kind,
			"error", err.Err,
		)

		// Only transient transport failures are worth another in-adapter try
		if err.Kind != KindTransport {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *OpenAICompatible) doRequest(ctx context.Context, req Request) (*Response, *Error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.2,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, NewError(c.name, KindMalformedResponse, fmt.Errorf("failed to marshal request: %w", err))
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(c.name, KindTransport, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(c.name, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyTransport(c.name, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyStatus(c.name, httpResp.StatusCode, respBody)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, NewError(c.name, KindMalformedResponse, fmt.Errorf("failed to parse response: %w", err))
	}
	if parsed.Error != nil {
		msg := strings.ToLower(parsed.Error.Message)
		for _, marker := range quotaMarkers {
			if strings.Contains(msg, marker) {
				return nil, NewError(c.name, KindRateLimitOrQuota, fmt.Errorf("%s", parsed.Error.Message))
			}
		}
		return nil, NewError(c.name, KindMalformedResponse, fmt.Errorf("%s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, NewError(c.name, KindMalformedResponse, fmt.Errorf("no choices in response"))
	}

	c.logger.Debug("chat-completions request completed",
		"provider", c.name,
		"latency_ms", time.Since(start).Milliseconds(),
		"tokens_used", parsed.Usage.TotalTokens,
	)

	return &Response{Text: parsed.Choices[0].Message.Content, Model: c.model}, nil
}
