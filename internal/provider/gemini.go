package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// geminiFallbackModels are tried, in order, after the cached discovered model
// and the configured override.
var geminiFallbackModels = []string{
	"gemini-1.5-pro",
	"gemini-1.5-flash-latest",
	"gemini-pro",
	"gemini-1.0-pro",
}

// Gemini calls the Google generative-language REST API. Model names change
// between API revisions, so the adapter probes a candidate list and caches
// the first identifier that accepts a generation call. The cache is a simple
// last-writer-wins value: rediscovery always converges on the same model.
type Gemini struct {
	apiKey     string
	override   string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu         sync.Mutex
	discovered string
}

type geminiGenerateRequest struct {
	Contents []geminiContent `json:"contents"`
	Config   *geminiConfig   `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGemini creates the Gemini adapter. overrideModel comes from config and
// is tried after any previously discovered model.
func NewGemini(apiKey, overrideModel string, timeout time.Duration, logger *slog.Logger) *Gemini {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	g := &Gemini{
		apiKey:   apiKey,
		override: overrideModel,
		baseURL:  geminiAPIBase,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}

	logger.Info("Gemini client initialized",
		"override_model", overrideModel,
		"key_configured", apiKey != "",
	)

	return g
}

func (g *Gemini) Name() string { return "gemini" }

// candidates returns the model identifiers to probe: discovered first, then
// the configured override, then the fixed fallback list, deduplicated.
func (g *Gemini) candidates() []string {
	g.mu.Lock()
	discovered := g.discovered
	g.mu.Unlock()

	var out []string
	seen := make(map[string]bool)
	add := func(m string) {
		if m != "" && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	add(discovered)
	add(g.override)
	for _, m := range geminiFallbackModels {
		add(m)
	}
	return out
}

// Attempt tries each candidate model in order, moving to the next only on
// MODEL_NOT_FOUND. Any other failure ends the provider turn.
func (g *Gemini) Attempt(ctx context.Context, req Request) (*Response, error) {
	if g.apiKey == "" {
		return nil, NewError("gemini", KindAuth, fmt.Errorf("API key not configured"))
	}

	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + req.Prompt
	}

	var lastErr *Error
	for _, m := range g.candidates() {
		resp, err := g.generate(ctx, m, prompt)
		if err == nil {
			g.mu.Lock()
			if g.discovered != m {
				g.discovered = m
				g.logger.Info("discovered working Gemini model", "model", m)
			}
			g.mu.Unlock()
			return resp, nil
		}

		lastErr = err
		if err.Kind != KindModelNotFound {
			return nil, err
		}
		g.logger.Warn("Gemini model rejected, trying next candidate", "model", m, "error", err.Err)
	}

	if lastErr == nil {
		lastErr = NewError("gemini", KindModelNotFound, fmt.Errorf("no candidate models configured"))
	}
	return nil, lastErr
}

func (g *Gemini) generate(ctx context.Context, model, prompt string) (*Response, *Error) {
	body, err := json.Marshal(geminiGenerateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		Config:   &geminiConfig{Temperature: 0.3, MaxOutputTokens: 800},
	})
	if err != nil {
		return nil, NewError("gemini", KindMalformedResponse, fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewError("gemini", KindTransport, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport("gemini", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyTransport("gemini", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyStatus("gemini", httpResp.StatusCode, respBody)
	}

	var parsed geminiGenerateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, NewError("gemini", KindMalformedResponse, fmt.Errorf("failed to parse response: %w", err))
	}
	if parsed.Error != nil {
		return nil, classifyStatus("gemini", parsed.Error.Code, []byte(parsed.Error.Message))
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, NewError("gemini", KindMalformedResponse, fmt.Errorf("no candidates in response"))
	}

	var text bytes.Buffer
	for i, p := range parsed.Candidates[0].Content.Parts {
		if i > 0 {
			text.WriteString("\n")
		}
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return nil, NewError("gemini", KindMalformedResponse, fmt.Errorf("empty candidate text"))
	}

	return &Response{Text: text.String(), Model: model}, nil
}
