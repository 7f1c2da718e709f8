// Package provider wraps each estimation/chat backend behind a uniform
// Attempt interface. Adapters never let raw errors escape: every failure is
// translated into an *Error carrying one of the closed ErrorKind values so
// the orchestrator can decide how to continue.
package provider

import (
	"context"
	"fmt"

	"autofix-api/internal/model"
)

// ErrorKind classifies an adapter failure
type ErrorKind string

const (
	KindAuth              ErrorKind = "AUTH"
	KindRateLimitOrQuota  ErrorKind = "RATE_LIMIT_OR_QUOTA"
	KindModelNotFound     ErrorKind = "MODEL_NOT_FOUND"
	KindTransport         ErrorKind = "TRANSPORT"
	KindMalformedResponse ErrorKind = "MALFORMED_RESPONSE"
	KindTimeout           ErrorKind = "TIMEOUT"
)

// Error is a tagged adapter failure
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a tagged adapter failure
func NewError(provider string, kind ErrorKind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// Request carries everything a provider may need. Remote adapters use the
// prompt fields; the local providers work from the structured fields so they
// can answer without any network call.
type Request struct {
	Prompt string
	System string

	// Structured estimation inputs
	Car   model.CarInfo
	Parts []string
	State string

	// Structured chat inputs
	Question string
	Context  *model.ReportContext
	Docs     []model.RetrievedDoc
}

// Response is a successful provider result
type Response struct {
	Text  string
	Model string
	Local bool // locally generated, reduced-confidence result
}

// Provider is one backend capable of producing an estimate or chat answer
type Provider interface {
	Name() string
	Attempt(ctx context.Context, req Request) (*Response, error)
}
