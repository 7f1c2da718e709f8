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

const defaultOllamaModel = "llama3.2"

// Ollama talks to a local Ollama server. A short availability probe runs
// before each generation so an absent local server fails fast instead of
// burning the full generation timeout.
type Ollama struct {
	baseURL      string
	model        string
	probeTimeout time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`

	TotalDuration   int64 `json:"total_duration"`
	PromptEvalCount int   `json:"prompt_eval_count"`
	EvalCount       int   `json:"eval_count"`
}

// NewOllama creates the Ollama adapter
func NewOllama(baseURL, model string, timeout, probeTimeout time.Duration, logger *slog.Logger) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = defaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}

	o := &Ollama{
		baseURL:      strings.TrimRight(baseURL, "/"),
		model:        model,
		probeTimeout: probeTimeout,
		httpClient: &http.Client{
			Timeout: timeout, // local inference can be slow
		},
		logger: logger,
	}

	logger.Info("Ollama client initialized", "base_url", o.baseURL, "model", model)

	return o
}

func (o *Ollama) Name() string { return "ollama" }

// Ping checks whether the Ollama server is reachable
func (o *Ollama) Ping(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), o.model) {
		o.logger.Warn("model may not be loaded", "model", o.model)
	}

	return nil
}

func (o *Ollama) Attempt(ctx context.Context, req Request) (*Response, error) {
	if err := o.Ping(ctx); err != nil {
		return nil, NewError("ollama", KindTransport, err)
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  o.model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: ollamaOptions{
			Temperature: 0.3,
			NumPredict:  300,
		},
	})
	if err != nil {
		return nil, NewError("ollama", KindMalformedResponse, fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, NewError("ollama", KindTransport, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport("ollama", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyTransport("ollama", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyStatus("ollama", httpResp.StatusCode, respBody)
	}

	var parsed ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, NewError("ollama", KindMalformedResponse, fmt.Errorf("failed to parse response: %w", err))
	}
	if parsed.Error != "" {
		return nil, NewError("ollama", KindMalformedResponse, fmt.Errorf("Ollama API error: %s", parsed.Error))
	}
	if parsed.Response == "" {
		return nil, NewError("ollama", KindMalformedResponse, fmt.Errorf("empty response"))
	}

	o.logger.Debug("Ollama request completed",
		"latency_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", parsed.PromptEvalCount,
		"eval_tokens", parsed.EvalCount,
	)

	return &Response{Text: parsed.Response, Model: o.model}, nil
}
