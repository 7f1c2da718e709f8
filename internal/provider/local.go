package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"autofix-api/internal/pricing"
)

// LocalHeuristic prices detected parts straight from the baseline table. It
// is the terminal candidate of the estimation chain: a pure function over
// static data, so it can never fail.
type LocalHeuristic struct {
	table  *pricing.Table
	logger *slog.Logger
}

// NewLocalHeuristic creates the terminal estimation provider
func NewLocalHeuristic(table *pricing.Table, logger *slog.Logger) *LocalHeuristic {
	return &LocalHeuristic{table: table, logger: logger}
}

func (l *LocalHeuristic) Name() string { return "local" }

// Attempt emits the same minified JSON shape the remote providers are asked
// for, so the estimation service parses every provider result uniformly.
// Costs start from the baseline average, scaled by the state multiplier and
// kept inside the part's [min, max] range.
func (l *LocalHeuristic) Attempt(_ context.Context, req Request) (*Response, error) {
	multiplier := pricing.StateMultiplier(req.State)

	costs := make(map[string]float64, len(req.Parts)+1)
	var total float64
	for _, part := range req.Parts {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" {
			continue
		}
		rec, _ := l.table.Lookup(key)

		cost := rec.Avg * multiplier
		if cost < rec.Min {
			cost = rec.Min
		} else if cost > rec.Max {
			cost = rec.Max
		}
		costs[key] = cost
		total += cost
	}
	costs["total"] = total

	text, err := json.Marshal(costs)
	if err != nil {
		// marshalling a map of floats cannot fail; keep the guarantee anyway
		return nil, NewError("local", KindMalformedResponse, fmt.Errorf("failed to marshal heuristic breakdown: %w", err))
	}

	l.logger.Info("local heuristic estimate generated",
		"parts", len(req.Parts),
		"state_multiplier", multiplier,
	)

	return &Response{Text: string(text), Model: "baseline-" + l.table.Version, Local: true}, nil
}
