// Package service implements the estimation and chat use cases on top of the
// provider orchestrator, the baseline pricing table and the report store.
package service

import (
	"sort"
	"strings"

	"autofix-api/internal/model"
	"autofix-api/internal/pricing"
)

// NormalizedBreakdown is the result of reconciling a raw provider cost map
// against the baseline table.
type NormalizedBreakdown struct {
	Entries         []model.CostBreakdownEntry
	Notes           []model.NormalizationNote
	TotalCost       float64
	TotalThirdParty float64
	TotalOEM        float64
}

// NormalizeBreakdown validates a raw per-part cost map against the baseline
// table. Costs outside a part's [min, max] range are clamped, non-positive
// costs are replaced with the part's average, and detected parts the
// provider omitted are synthesized from the average. Every adjustment is
// recorded as a note. Applying the function to its own output changes
// nothing.
func NormalizeBreakdown(table *pricing.Table, detected []string, raw map[string]float64) NormalizedBreakdown {
	var out NormalizedBreakdown

	seen := make(map[string]bool, len(raw))

	// provider-supplied parts first, in a stable alphabetical order
	keys := make([]string, 0, len(raw))
	for key := range raw {
		k := strings.ToLower(strings.TrimSpace(key))
		if k == "" || k == "total" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true

		rec, _ := table.Lookup(key)
		original := rawValue(raw, key)
		cost := original

		if cost <= 0 {
			cost = rec.Avg
		}
		if cost < rec.Min {
			cost = rec.Min
		} else if cost > rec.Max {
			cost = rec.Max
		}

		if cost != original {
			orig := original
			out.Notes = append(out.Notes, model.NormalizationNote{
				Part:     key,
				Original: &orig,
				Adjusted: cost,
				Min:      rec.Min,
				Max:      rec.Max,
			})
		}

		out.append(key, cost, rec)
	}

	// synthesize entries for detected parts the provider skipped
	for _, part := range detected {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		rec, _ := table.Lookup(key)
		out.Notes = append(out.Notes, model.NormalizationNote{
			Part:     key,
			Original: nil,
			Adjusted: rec.Avg,
			Min:      rec.Min,
			Max:      rec.Max,
			Added:    true,
		})
		out.append(key, rec.Avg, rec)
	}

	return out
}

// append adds one normalized line and keeps the running totals in sync
func (n *NormalizedBreakdown) append(part string, cost float64, rec pricing.PartCostRecord) {
	thirdParty := cost
	if rec.Aftermarket > 0 {
		thirdParty = rec.Aftermarket
	}
	oem := cost
	if rec.OEM > 0 {
		oem = rec.OEM
	} else if rec.Avg > cost {
		oem = rec.Avg
	}
	if oem < thirdParty {
		oem = thirdParty
	}

	n.Entries = append(n.Entries, model.CostBreakdownEntry{
		Part:       part,
		Cost:       cost,
		ThirdParty: thirdParty,
		OEM:        oem,
	})
	n.TotalCost += cost
	n.TotalThirdParty += thirdParty
	n.TotalOEM += oem
}

// Dual converts the normalized entries into the dual-pricing view
func (n *NormalizedBreakdown) Dual() model.DualBreakdown {
	dual := model.DualBreakdown{
		Parts:           make([]model.DualEntry, 0, len(n.Entries)),
		TotalThirdParty: n.TotalThirdParty,
		TotalOEM:        n.TotalOEM,
	}
	for _, e := range n.Entries {
		dual.Parts = append(dual.Parts, model.DualEntry{
			Part:       e.Part,
			ThirdParty: e.ThirdParty,
			OEM:        e.OEM,
		})
	}
	return dual
}

// rawValue finds the value for a normalized key, tolerating the provider's
// original casing and padding.
func rawValue(raw map[string]float64, key string) float64 {
	if v, ok := raw[key]; ok {
		return v
	}
	for k, v := range raw {
		if strings.ToLower(strings.TrimSpace(k)) == key {
			return v
		}
	}
	return 0
}
