package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/google/uuid"

	"autofix-api/internal/corpus"
	"autofix-api/internal/model"
	"autofix-api/internal/orchestrator"
	"autofix-api/internal/pricing"
	"autofix-api/internal/provider"
)

const estimateSystemPrompt = "You are an experienced vehicle damage assessor. " +
	"You reply with minified JSON only, never prose."

// Estimator runs a provider fallback chain
type Estimator interface {
	Do(ctx context.Context, req provider.Request) (*orchestrator.Result, error)
}

// ReportWriter renders a report file and fills the record's file fields
type ReportWriter interface {
	Render(ctx context.Context, rec *model.ReportRecord) error
}

// ReportSaver persists a report record
type ReportSaver interface {
	Create(ctx context.Context, rec *model.ReportRecord) error
}

// EstimateService produces normalized damage cost estimates
type EstimateService struct {
	orch     Estimator
	table    *pricing.Table
	renderer ReportWriter
	reports  ReportSaver
	docs     *corpus.Store
	logger   *slog.Logger
}

// NewEstimateService wires the estimation use case. renderer, reports and
// docs may be nil, which disables report generation.
func NewEstimateService(orch Estimator, table *pricing.Table, renderer ReportWriter, reports ReportSaver, docs *corpus.Store, logger *slog.Logger) *EstimateService {
	return &EstimateService{
		orch:     orch,
		table:    table,
		renderer: renderer,
		reports:  reports,
		docs:     docs,
		logger:   logger,
	}
}

// Estimate runs the full estimation pipeline: provider fallback, cost
// normalization, repair analysis and best-effort report generation.
func (s *EstimateService) Estimate(ctx context.Context, req model.EstimationRequest) (*model.EstimationResponse, error) {
	parts := dedupeParts(req.DetectedParts)
	if len(parts) == 0 {
		return nil, fmt.Errorf("no detected parts to estimate")
	}

	car := model.CarInfo{Name: req.CarName, Model: req.CarModel, Year: req.CarYear}

	result, err := s.orch.Do(ctx, provider.Request{
		Prompt: buildEstimatePrompt(car, parts, req.State),
		System: estimateSystemPrompt,
		Car:    car,
		Parts:  parts,
		State:  req.State,
	})
	if err != nil {
		return nil, fmt.Errorf("estimation failed: %w", err)
	}

	raw, err := parseCostJSON(result.Response.Text)
	if err != nil {
		// the orchestrator validates responses, so this is a defect
		return nil, fmt.Errorf("unparseable provider response: %w", err)
	}

	normalized := NormalizeBreakdown(s.table, parts, raw)

	resp := &model.EstimationResponse{
		Provider:        result.Provider,
		Currency:        s.table.Currency,
		Attempts:        result.Attempts,
		BaselineVersion: s.table.Version,
		CostBreakdown:   normalized.Entries,
		TotalCost:       normalized.TotalCost,
		DualBreakdown:   normalized.Dual(),
		Normalization:   normalized.Notes,
		RepairAnalysis:  s.analyzeRepairs(normalized.Entries, req.DetectionResults),
	}

	s.attachReport(ctx, req, car, normalized, resp)

	s.logger.Info("estimate completed",
		"provider", result.Provider,
		"parts", len(parts),
		"attempts", len(result.Attempts),
		"total", normalized.TotalCost,
	)

	return resp, nil
}

// ValidateCostJSON is the orchestrator validation hook for the estimation
// chain: a response must contain a parseable JSON cost object.
func ValidateCostJSON(text string) error {
	_, err := parseCostJSON(text)
	return err
}

// buildEstimatePrompt asks for the exact JSON shape parseCostJSON expects
func buildEstimatePrompt(car model.CarInfo, parts []string, state string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Estimate repair costs for damaged car parts: %s on a %s %s (%d).",
		strings.Join(parts, ", "), car.Name, car.Model, car.Year)
	if state != "" {
		fmt.Fprintf(&b, " The repair will be done in %s, India.", state)
	}
	b.WriteString(` Return ONLY valid minified JSON mapping each part name to its estimated cost in INR plus a "total" key, like {"bumper":6500,"total":6500}. No markdown, no explanations.`)
	return b.String()
}

// parseCostJSON extracts the first JSON object embedded in the text and
// reads it as a part-to-cost map. Models often wrap the object in prose or
// markdown fences, so everything outside the outermost braces is ignored.
func parseCostJSON(text string) (map[string]float64, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var loose map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &loose); err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %w", err)
	}

	costs := make(map[string]float64, len(loose))
	for key, value := range loose {
		switch v := value.(type) {
		case float64:
			costs[key] = v
		case string:
			var f float64
			if _, err := fmt.Sscanf(strings.ReplaceAll(v, ",", ""), "%f", &f); err == nil {
				costs[key] = f
			}
		}
	}
	if len(costs) == 0 {
		return nil, fmt.Errorf("JSON object contains no numeric costs")
	}
	return costs, nil
}

// dedupeParts trims and case-insensitively deduplicates the detected parts,
// preserving first-seen order.
func dedupeParts(parts []string) []string {
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		key := strings.ToLower(strings.TrimSpace(p))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// analyzeRepairs produces the repair-vs-replace recommendation per part.
// Severity blends detection confidence with how many detections hit the
// part; without detections a mild default applies.
func (s *EstimateService) analyzeRepairs(entries []model.CostBreakdownEntry, detections *model.DetectionResults) []model.RepairAnalysisEntry {
	out := make([]model.RepairAnalysisEntry, 0, len(entries))

	for _, entry := range entries {
		rec, _ := s.table.Lookup(entry.Part)
		severity := partSeverity(entry.Part, detections)

		repairCost := math.Round(rec.Aftermarket * 0.4)
		replaceCost := entry.Cost

		analysis := model.RepairAnalysisEntry{
			Part:          entry.Part,
			Severity:      int(math.Round(severity * 100)),
			SeverityLevel: severityLevel(severity),
			RepairCost:    repairCost,
			ReplaceCost:   replaceCost,
			Complexity:    rec.Complexity,
		}

		hours := baseRepairHours(rec, severity)
		if severity < rec.RepairThreshold && repairCost < replaceCost {
			analysis.Recommendation = "repair"
			analysis.Reason = fmt.Sprintf("Damage severity is %s; repairing saves about %.0f over replacement.",
				analysis.SeverityLevel, replaceCost-repairCost)
			analysis.CostSaving = replaceCost - repairCost
		} else {
			analysis.Recommendation = "replace"
			analysis.Reason = fmt.Sprintf("Damage severity is %s; replacement is the safer option.", analysis.SeverityLevel)
			hours = int(math.Round(float64(hours) * 0.9))
		}
		if hours < 1 {
			hours = 1
		}
		analysis.EstimatedHours = hours
		analysis.EstimatedDays = (hours + 7) / 8

		out = append(out, analysis)
	}

	return out
}

// partSeverity scores damage severity in [0.1, 0.9] from the detections that
// mention the part.
func partSeverity(part string, detections *model.DetectionResults) float64 {
	if detections == nil || len(detections.Detections) == 0 {
		return 0.3
	}

	var confSum float64
	count := 0
	for _, d := range detections.Detections {
		if strings.Contains(strings.ToLower(d.Name), part) {
			confSum += d.Confidence
			count++
		}
	}
	if count == 0 {
		return 0.3
	}

	countFactor := float64(count) / 5
	if countFactor > 1 {
		countFactor = 1
	}
	severity := (confSum/float64(count))*0.7 + countFactor*0.3

	if severity < 0.1 {
		return 0.1
	}
	if severity > 0.9 {
		return 0.9
	}
	return severity
}

func severityLevel(severity float64) string {
	switch {
	case severity < 0.3:
		return "minor"
	case severity < 0.6:
		return "moderate"
	default:
		return "severe"
	}
}

// complexity scales the labor-hour estimate
func baseRepairHours(rec pricing.PartCostRecord, severity float64) int {
	var hours int
	switch severityLevel(severity) {
	case "minor":
		hours = rec.RepairTimeHours.Minor
	case "moderate":
		hours = rec.RepairTimeHours.Moderate
	default:
		hours = rec.RepairTimeHours.Severe
	}

	switch rec.Complexity {
	case "high":
		hours = int(math.Round(float64(hours) * 1.3))
	case "low":
		hours = int(math.Round(float64(hours) * 0.8))
	}
	return hours
}

// attachReport renders and persists the report. Failures are logged and
// swallowed so a storage problem never fails the estimate itself.
func (s *EstimateService) attachReport(ctx context.Context, req model.EstimationRequest, car model.CarInfo, normalized NormalizedBreakdown, resp *model.EstimationResponse) {
	if s.renderer == nil || s.reports == nil {
		return
	}

	rec := &model.ReportRecord{
		ReportID:      uuid.NewString(),
		CarInfo:       car,
		DetectedParts: detectedPartsFor(req),
		CostBreakdown: reportCostEntries(normalized.Entries),
		TotalCost:     normalized.TotalCost,
		OriginalImage: req.OriginalImage,
	}

	if err := s.renderer.Render(ctx, rec); err != nil {
		s.logger.Warn("report rendering failed", "report_id", rec.ReportID, "error", err)
		return
	}
	if err := s.reports.Create(ctx, rec); err != nil {
		s.logger.Warn("report persistence failed", "report_id", rec.ReportID, "error", err)
		return
	}

	if s.docs != nil {
		if data, err := readReportText(rec.FilePath); err == nil {
			s.docs.Upsert(corpus.Document{ID: rec.ReportID, Source: rec.FileName, Text: data})
		}
	}

	resp.ReportID = rec.ReportID
	resp.ReportLink = "/api/history/download/" + rec.ReportID
}

func detectedPartsFor(req model.EstimationRequest) []model.DetectedPart {
	out := make([]model.DetectedPart, 0, len(req.DetectedParts))
	for _, p := range dedupeParts(req.DetectedParts) {
		dp := model.DetectedPart{Name: p}
		if req.DetectionResults != nil {
			for _, d := range req.DetectionResults.Detections {
				if strings.Contains(strings.ToLower(d.Name), p) && d.Confidence > dp.Confidence {
					dp.Confidence = d.Confidence
				}
			}
		}
		out = append(out, dp)
	}
	return out
}

func readReportText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func reportCostEntries(entries []model.CostBreakdownEntry) []model.ReportCostEntry {
	out := make([]model.ReportCostEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.ReportCostEntry{Part: e.Part, Cost: e.Cost})
	}
	return out
}
