package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	huggingFaceAPIBase = "https://api-inference.huggingface.co/models"

	defaultHuggingFaceModel = "google/flan-t5-large"
)

// HuggingFace calls the hosted inference API. It is a best-effort,
// low-priority fallback: responses are loosely shaped, so parsing tries the
// known variants before giving up.
type HuggingFace struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHuggingFace creates the HuggingFace inference adapter
func NewHuggingFace(apiKey, model string, timeout time.Duration, logger *slog.Logger) *HuggingFace {
	if model == "" {
		model = defaultHuggingFaceModel
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &HuggingFace{
		apiKey:  apiKey,
		model:   model,
		baseURL: huggingFaceAPIBase,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (h *HuggingFace) Name() string { return "huggingface" }

func (h *HuggingFace) Attempt(ctx context.Context, req Request) (*Response, error) {
	if h.apiKey == "" {
		return nil, NewError("huggingface", KindAuth, fmt.Errorf("API key not configured"))
	}

	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + req.Prompt
	}

	body, err := json.Marshal(map[string]any{
		"inputs":  prompt,
		"options": map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, NewError("huggingface", KindMalformedResponse, fmt.Errorf("failed to marshal request: %w", err))
	}

	url := h.baseURL + "/" + h.model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewError("huggingface", KindTransport, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)

	httpResp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport("huggingface", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyTransport("huggingface", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyStatus("huggingface", httpResp.StatusCode, respBody)
	}

	text, err := extractHFText(respBody)
	if err != nil {
		return nil, NewError("huggingface", KindMalformedResponse, err)
	}

	return &Response{Text: text, Model: h.model}, nil
}

// extractHFText handles the inference API's response shape variants:
// [{"generated_text": ...}], {"generated_text": ...}, or a bare string.
func extractHFText(body []byte) (string, error) {
	var asList []struct {
		GeneratedText string `json:"generated_text"`
		Text          string `json:"text"`
	}
	if err := json.Unmarshal(body, &asList); err == nil && len(asList) > 0 {
		if asList[0].GeneratedText != "" {
			return asList[0].GeneratedText, nil
		}
		if asList[0].Text != "" {
			return asList[0].Text, nil
		}
	}

	var asObject struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(body, &asObject); err == nil && asObject.GeneratedText != "" {
		return asObject.GeneratedText, nil
	}

	var asString string
	if err := json.Unmarshal(body, &asString); err == nil && asString != "" {
		return asString, nil
	}

	return "", fmt.Errorf("unrecognized inference response shape")
}
