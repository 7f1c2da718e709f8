package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// quotaMarkers are response fragments that indicate quota or balance
// exhaustion rather than a transient rate limit window.
var quotaMarkers = []string{
	"insufficient balance",
	"insufficient_quota",
	"quota",
	"billing",
}

// classifyStatus maps an HTTP error response to an ErrorKind
func classifyStatus(provider string, status int, body []byte) *Error {
	lower := strings.ToLower(string(body))

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewError(provider, KindAuth, fmt.Errorf("status %d: %s", status, truncate(lower, 200)))
	case status == http.StatusPaymentRequired || status == http.StatusTooManyRequests:
		return NewError(provider, KindRateLimitOrQuota, fmt.Errorf("status %d: %s", status, truncate(lower, 200)))
	case status == http.StatusNotFound:
		return NewError(provider, KindModelNotFound, fmt.Errorf("status %d: %s", status, truncate(lower, 200)))
	}

	for _, marker := range quotaMarkers {
		if strings.Contains(lower, marker) {
			return NewError(provider, KindRateLimitOrQuota, fmt.Errorf("status %d: %s", status, truncate(lower, 200)))
		}
	}

	return NewError(provider, KindTransport, fmt.Errorf("status %d: %s", status, truncate(lower, 200)))
}

// classifyTransport maps a request/IO error to TIMEOUT or TRANSPORT
func classifyTransport(provider string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(provider, KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(provider, KindTimeout, err)
	}
	return NewError(provider, KindTransport, err)
}

// KindOf extracts the ErrorKind from an adapter error, defaulting to TRANSPORT
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransport
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
