package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestDetector(url string) *Detector {
	return NewDetector(url, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDetectDamage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("image")
		require.NoError(t, err)
		assert.Equal(t, "car.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"parts":["bumper","headlight"],"detections":[{"name":"bumper","confidence":0.92}],"confidence_used":0.5,"model_type":"yolov8"}`))
	}))
	defer server.Close()

	detector := newTestDetector(server.URL)
	resp, err := detector.DetectDamage(context.Background(), writeTempFile(t, "car.jpg", "fake image bytes"))
	require.NoError(t, err)

	assert.Equal(t, []string{"bumper", "headlight"}, resp.Parts)
	require.Len(t, resp.Detections, 1)
	assert.Equal(t, 0.92, resp.Detections[0].Confidence)
	assert.Equal(t, "yolov8", resp.ModelType)
}

func TestDetectDamageServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	detector := newTestDetector(server.URL)
	_, err := detector.DetectDamage(context.Background(), writeTempFile(t, "car.jpg", "fake"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestDetectDamageMissingFile(t *testing.T) {
	detector := newTestDetector("http://localhost:1")
	_, err := detector.DetectDamage(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}

func TestAnalyzeAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("audio")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"engine_condition":"normal","confidence":0.87}`))
	}))
	defer server.Close()

	detector := newTestDetector(server.URL)
	raw, err := detector.AnalyzeAudio(context.Background(), writeTempFile(t, "engine.wav", "fake audio"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"engine_condition":"normal","confidence":0.87}`, string(raw))
}
