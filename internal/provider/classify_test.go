package provider

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, "invalid key", KindAuth},
		{"forbidden", http.StatusForbidden, "denied", KindAuth},
		{"payment required", http.StatusPaymentRequired, "pay up", KindRateLimitOrQuota},
		{"rate limited", http.StatusTooManyRequests, "slow down", KindRateLimitOrQuota},
		{"model missing", http.StatusNotFound, "no such model", KindModelNotFound},
		{"quota marker in 500", http.StatusInternalServerError, "Insufficient Balance", KindRateLimitOrQuota},
		{"billing marker", http.StatusBadRequest, "billing hard limit reached", KindRateLimitOrQuota},
		{"plain server error", http.StatusInternalServerError, "oops", KindTransport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStatus("test", tc.status, []byte(tc.body))
			assert.Equal(t, tc.kind, err.Kind)
			assert.Equal(t, "test", err.Provider)
		})
	}
}

func TestClassifyTransportTimeouts(t *testing.T) {
	assert.Equal(t, KindTimeout, classifyTransport("test", context.DeadlineExceeded).Kind)
	assert.Equal(t, KindTransport, classifyTransport("test", fmt.Errorf("connection refused")).Kind)
}

func TestKindOfDefaultsToTransport(t *testing.T) {
	assert.Equal(t, KindAuth, KindOf(NewError("x", KindAuth, nil)))
	assert.Equal(t, KindTransport, KindOf(fmt.Errorf("plain error")))
}

func TestRateLimiterNilNeverBlocks(t *testing.T) {
	var rl *RateLimiter
	assert.NoError(t, rl.Wait(context.Background()))
	assert.Nil(t, NewRateLimiter(0))
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	rl := NewRateLimiter(600) // 100ms interval

	start := time.Now()
	for i := 0; i < 3; i++ {
		assert.NoError(t, rl.Wait(context.Background()))
	}
	// first call is free, the next two wait one interval each
	assert.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)
}
