package provider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOpenAI(t *testing.T, url string, retries int) *OpenAICompatible {
	t.Helper()
	return NewOpenAI("test-key", "gpt-4o-mini", url, 5*time.Second, retries, nil, testLogger())
}

func TestOpenAISuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"bumper\":6500,\"total\":6500}"}}],"usage":{"total_tokens":42}}`))
	}))
	defer server.Close()

	c := newTestOpenAI(t, server.URL, 0)
	resp, err := c.Attempt(context.Background(), Request{Prompt: "estimate", System: "assessor"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "bumper")
	assert.Equal(t, "gpt-4o-mini", resp.Model)
}

func TestOpenAIMissingKeyIsAuthError(t *testing.T) {
	c := NewOpenAI("", "", "http://localhost:1", time.Second, 0, nil, testLogger())

	_, err := c.Attempt(context.Background(), Request{Prompt: "estimate"})
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
}

func TestOpenAIStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   ErrorKind
	}{
		{http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, KindAuth},
		{http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, KindRateLimitOrQuota},
		{http.StatusNotFound, `{"error":{"message":"model does not exist"}}`, KindModelNotFound},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		}))

		c := newTestOpenAI(t, server.URL, 3)
		_, err := c.Attempt(context.Background(), Request{Prompt: "estimate"})
		require.Error(t, err)
		assert.Equal(t, tc.kind, KindOf(err), "status %d", tc.status)

		server.Close()
	}
}

func TestOpenAIRetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("upstream hiccup"))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"recovered"}}]}`))
	}))
	defer server.Close()

	c := newTestOpenAI(t, server.URL, 2)
	resp, err := c.Attempt(context.Background(), Request{Prompt: "estimate"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeepseekQuotaAbortsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":{"message":"Insufficient Balance","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	c := NewDeepseek("test-key", "", 5*time.Second, 3, nil, testLogger())
	c.baseURL = server.URL

	_, err := c.Attempt(context.Background(), Request{Prompt: "estimate"})
	require.Error(t, err)
	assert.Equal(t, KindRateLimitOrQuota, KindOf(err))
	assert.Equal(t, int32(1), calls.Load(), "quota errors must not be retried")
}

func TestOpenAIEmptyChoicesIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	c := newTestOpenAI(t, server.URL, 0)
	_, err := c.Attempt(context.Background(), Request{Prompt: "estimate"})
	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}
