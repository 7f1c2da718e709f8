// Package pricing loads the baseline per-part cost reference used to
// validate, clamp and gap-fill provider cost breakdowns.
package pricing

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed baseline.json
var baselineData []byte

// RepairTimeHours holds labor-hour estimates by damage severity
type RepairTimeHours struct {
	Minor    int `json:"minor"`
	Moderate int `json:"moderate"`
	Severe   int `json:"severe"`
}

// PartCostRecord is the per-part pricing reference. Immutable after load.
// Invariants enforced at load time: min <= avg <= max, aftermarket <= oem.
type PartCostRecord struct {
	Min             float64         `json:"min"`
	Max             float64         `json:"max"`
	Avg             float64         `json:"avg"`
	OEM             float64         `json:"oem"`
	Aftermarket     float64         `json:"aftermarket"`
	RepairThreshold float64         `json:"repair_threshold"`
	Complexity      string          `json:"complexity"`
	RepairTimeHours RepairTimeHours `json:"repair_time_hours"`
}

// Table is the baseline pricing table, keyed by lower-cased part name
type Table struct {
	Currency string                    `json:"currency"`
	Version  string                    `json:"version"`
	Defaults PartCostRecord            `json:"defaults"`
	Parts    map[string]PartCostRecord `json:"parts"`
}

// Load parses and validates the embedded baseline table
func Load() (*Table, error) {
	return Parse(baselineData)
}

// Parse parses and validates a baseline table from raw JSON
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse baseline pricing: %w", err)
	}

	if err := validateRecord("defaults", t.Defaults); err != nil {
		return nil, err
	}
	for name, rec := range t.Parts {
		if err := validateRecord(name, rec); err != nil {
			return nil, err
		}
	}

	// normalize keys to lower case so lookups are case-insensitive
	parts := make(map[string]PartCostRecord, len(t.Parts))
	for name, rec := range t.Parts {
		parts[strings.ToLower(name)] = rec
	}
	t.Parts = parts

	return &t, nil
}

func validateRecord(name string, rec PartCostRecord) error {
	if rec.Min > rec.Avg || rec.Avg > rec.Max {
		return fmt.Errorf("baseline pricing for %q violates min <= avg <= max (%v, %v, %v)",
			name, rec.Min, rec.Avg, rec.Max)
	}
	if rec.Aftermarket > rec.OEM {
		return fmt.Errorf("baseline pricing for %q violates aftermarket <= oem (%v, %v)",
			name, rec.Aftermarket, rec.OEM)
	}
	return nil
}

// Lookup returns the pricing record for a part, case-insensitive.
// When the part is unknown the defaults record is returned and found is false.
func (t *Table) Lookup(part string) (rec PartCostRecord, found bool) {
	rec, found = t.Parts[strings.ToLower(strings.TrimSpace(part))]
	if !found {
		rec = t.Defaults
	}
	return rec, found
}

// stateMultipliers adjusts pricing by city tier. Unlisted locations use 1.0.
var stateMultipliers = map[string]float64{
	"delhi":         1.3,
	"mumbai":        1.35,
	"bangalore":     1.25,
	"hyderabad":     1.2,
	"pune":          1.2,
	"chennai":       1.25,
	"kolkata":       1.15,
	"ahmedabad":     1.1,
	"surat":         1.05,
	"jaipur":        1.0,
	"lucknow":       0.95,
	"kanpur":        0.9,
	"nagpur":        0.95,
	"indore":        0.95,
	"thane":         1.25,
	"bhopal":        0.9,
	"visakhapatnam": 0.9,
	"patna":         0.85,
	"agra":          0.8,
	"nashik":        0.9,
	"faridabad":     1.1,
	"meerut":        0.85,
	"rajkot":        0.9,
	"varanasi":      0.8,
	"srinagar":      0.85,
	"aurangabad":    0.85,
}

// StateMultiplier returns the cost multiplier for a state or city
func StateMultiplier(state string) float64 {
	if state == "" {
		return 1.0
	}
	if m, ok := stateMultipliers[strings.ToLower(strings.TrimSpace(state))]; ok {
		return m
	}
	return 1.0
}
