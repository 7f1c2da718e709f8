// Package orchestrator sequences provider attempts for estimation and chat
// requests. Providers are tried one at a time in priority order; the last
// candidate is a local provider that cannot fail, so a chain always ends
// with a successful result.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"autofix-api/internal/model"
	"autofix-api/internal/provider"
)

// Result is the outcome of a completed fallback run
type Result struct {
	Response *provider.Response
	Provider string
	Attempts []model.ProviderAttempt
}

// Options configures one orchestrator chain
type Options struct {
	// Preferred moves the named provider to the front of the chain.
	Preferred string
	// AttemptTimeout bounds each provider attempt. Zero disables the
	// per-attempt deadline and leaves timeouts to the adapters.
	AttemptTimeout time.Duration
	// Validate, when set, rejects a provider response whose text does not
	// have the expected shape; the failure is recorded as MALFORMED_RESPONSE
	// and the chain moves on.
	Validate func(text string) error
}

// Orchestrator tries providers in order until one succeeds
type Orchestrator struct {
	providers []provider.Provider
	opts      Options
	logger    *slog.Logger
}

// New creates an orchestrator over an ordered provider chain. The caller is
// responsible for placing an infallible local provider last.
func New(providers []provider.Provider, opts Options, logger *slog.Logger) (*Orchestrator, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("orchestrator requires at least one provider")
	}
	return &Orchestrator{providers: providers, opts: opts, logger: logger}, nil
}

// order returns the chain with the preferred provider, if any, moved first
func (o *Orchestrator) order() []provider.Provider {
	preferred := strings.ToLower(strings.TrimSpace(o.opts.Preferred))
	if preferred == "" {
		return o.providers
	}

	ordered := make([]provider.Provider, 0, len(o.providers))
	for _, p := range o.providers {
		if strings.ToLower(p.Name()) == preferred {
			ordered = append(ordered, p)
		}
	}
	if len(ordered) == 0 {
		// unknown preference, keep the default order
		return o.providers
	}
	for _, p := range o.providers {
		if strings.ToLower(p.Name()) != preferred {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// Do runs the fallback chain for one request. Every attempt, failed or not,
// is recorded in the returned attempt log. An error return means even the
// terminal local provider failed, which callers treat as a defect.
func (o *Orchestrator) Do(ctx context.Context, req provider.Request) (*Result, error) {
	attempts := make([]model.ProviderAttempt, 0, len(o.providers))

	for _, p := range o.order() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, latency, err := o.attempt(ctx, p, req)
		if err != nil {
			kind := provider.KindOf(err)
			attempts = append(attempts, model.ProviderAttempt{
				Provider:  p.Name(),
				OK:        false,
				Error:     string(kind),
				LatencyMs: latency.Milliseconds(),
			})
			o.logger.Warn("provider attempt failed",
				"provider", p.Name(),
				"kind", kind,
				"latency_ms", latency.Milliseconds(),
				"error", err,
			)
			continue
		}

		if o.opts.Validate != nil {
			if verr := o.opts.Validate(resp.Text); verr != nil {
				attempts = append(attempts, model.ProviderAttempt{
					Provider:  p.Name(),
					OK:        false,
					Error:     string(provider.KindMalformedResponse),
					LatencyMs: latency.Milliseconds(),
				})
				o.logger.Warn("provider response rejected by validator",
					"provider", p.Name(),
					"error", verr,
				)
				continue
			}
		}

		attempts = append(attempts, model.ProviderAttempt{
			Provider:  p.Name(),
			OK:        true,
			LatencyMs: latency.Milliseconds(),
		})
		o.logger.Info("provider attempt succeeded",
			"provider", p.Name(),
			"model", resp.Model,
			"local", resp.Local,
			"failed_attempts", len(attempts)-1,
		)
		return &Result{Response: resp, Provider: p.Name(), Attempts: attempts}, nil
	}

	// Reachable only if the terminal local provider itself failed
	return nil, fmt.Errorf("all providers exhausted after %d attempts", len(attempts))
}

// attempt runs a single provider call under the per-attempt deadline
func (o *Orchestrator) attempt(ctx context.Context, p provider.Provider, req provider.Request) (*provider.Response, time.Duration, error) {
	attemptCtx := ctx
	if o.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.opts.AttemptTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.Attempt(attemptCtx, req)
	return resp, time.Since(start), err
}
