// Package client holds HTTP clients for external services the API depends
// on, currently the damage detection model server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autofix-api/internal/model"
)

// Detector calls the detection model server over HTTP. The server accepts a
// multipart image upload and returns the detected damaged parts.
type Detector struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDetector creates the detection client
func NewDetector(baseURL string, timeout time.Duration, logger *slog.Logger) *Detector {
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Detector{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// DetectDamage uploads an image and returns the detected damaged parts
func (d *Detector) DetectDamage(ctx context.Context, imagePath string) (*model.DetectionResponse, error) {
	respBody, err := d.postFile(ctx, "/detect", "image", imagePath)
	if err != nil {
		return nil, err
	}

	var parsed model.DetectionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse detection response: %w", err)
	}

	d.logger.Info("damage detection completed",
		"image", filepath.Base(imagePath),
		"parts", len(parsed.Parts),
	)

	return &parsed, nil
}

// AnalyzeAudio uploads an engine-sound recording and returns the model
// server's raw analysis JSON.
func (d *Detector) AnalyzeAudio(ctx context.Context, audioPath string) (json.RawMessage, error) {
	respBody, err := d.postFile(ctx, "/analyze-audio", "audio", audioPath)
	if err != nil {
		return nil, err
	}

	if !json.Valid(respBody) {
		return nil, fmt.Errorf("model server returned invalid JSON")
	}
	return json.RawMessage(respBody), nil
}

// postFile sends one file as a multipart upload and returns the response body
func (d *Detector) postFile(ctx context.Context, path, field, filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file into request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach model server: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read model server response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server returned status %d: %s", resp.StatusCode, truncateBody(respBody))
	}

	return respBody, nil
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
