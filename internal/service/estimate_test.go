package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autofix-api/internal/model"
	"autofix-api/internal/orchestrator"
	"autofix-api/internal/provider"
)

type stubOrchestrator struct {
	lastReq provider.Request
	result  *orchestrator.Result
	err     error
}

func (s *stubOrchestrator) Do(_ context.Context, req provider.Request) (*orchestrator.Result, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEstimateDedupesPartsAndNormalizes(t *testing.T) {
	orch := &stubOrchestrator{
		result: &orchestrator.Result{
			Provider: "ollama",
			Response: &provider.Response{Text: `{"bumper":6500,"headlight":5000,"total":11500}`},
			Attempts: []model.ProviderAttempt{{Provider: "ollama", OK: true}},
		},
	}
	svc := NewEstimateService(orch, loadTable(t), nil, nil, nil, discardLogger())

	resp, err := svc.Estimate(context.Background(), model.EstimationRequest{
		CarName:       "Honda",
		CarModel:      "Civic",
		CarYear:       2018,
		DetectedParts: []string{"Bumper", "bumper", " headlight "},
	})
	require.NoError(t, err)

	assert.Equal(t, "ollama", resp.Provider)
	assert.Equal(t, "INR", resp.Currency)
	require.Len(t, resp.CostBreakdown, 2)
	assert.Equal(t, 11500.0, resp.TotalCost)
	assert.Equal(t, []string{"bumper", "headlight"}, orch.lastReq.Parts)
	assert.Contains(t, orch.lastReq.Prompt, "Honda Civic (2018)")
	assert.Len(t, resp.RepairAnalysis, 2)
	assert.Empty(t, resp.ReportID)
}

func TestEstimateRejectsEmptyParts(t *testing.T) {
	svc := NewEstimateService(&stubOrchestrator{}, loadTable(t), nil, nil, nil, discardLogger())

	_, err := svc.Estimate(context.Background(), model.EstimationRequest{
		CarName:       "Honda",
		CarModel:      "Civic",
		CarYear:       2018,
		DetectedParts: []string{"  ", ""},
	})
	assert.Error(t, err)
}

func TestEstimateSurfacesAttemptLog(t *testing.T) {
	orch := &stubOrchestrator{
		result: &orchestrator.Result{
			Provider: "local",
			Response: &provider.Response{Text: `{"bumper":6500,"total":6500}`, Local: true},
			Attempts: []model.ProviderAttempt{
				{Provider: "ollama", OK: false, Error: "TRANSPORT"},
				{Provider: "local", OK: true},
			},
		},
	}
	svc := NewEstimateService(orch, loadTable(t), nil, nil, nil, discardLogger())

	resp, err := svc.Estimate(context.Background(), model.EstimationRequest{
		CarName:       "Maruti",
		CarModel:      "Swift",
		CarYear:       2020,
		DetectedParts: []string{"bumper"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Attempts, 2)
	assert.Equal(t, "TRANSPORT", resp.Attempts[0].Error)
	assert.True(t, resp.Attempts[1].OK)
}

func TestEstimateUsesDetectionConfidenceForSeverity(t *testing.T) {
	orch := &stubOrchestrator{
		result: &orchestrator.Result{
			Provider: "ollama",
			Response: &provider.Response{Text: `{"windshield":9000,"total":9000}`},
			Attempts: []model.ProviderAttempt{{Provider: "ollama", OK: true}},
		},
	}
	svc := NewEstimateService(orch, loadTable(t), nil, nil, nil, discardLogger())

	resp, err := svc.Estimate(context.Background(), model.EstimationRequest{
		CarName:       "Honda",
		CarModel:      "City",
		CarYear:       2019,
		DetectedParts: []string{"windshield"},
		DetectionResults: &model.DetectionResults{
			Detections: []model.Detection{
				{Name: "damaged windshield", Confidence: 0.95},
				{Name: "windshield crack", Confidence: 0.90},
			},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.RepairAnalysis, 1)
	analysis := resp.RepairAnalysis[0]
	// avg confidence 0.925*0.7 + (2/5)*0.3 = 0.7675
	assert.Equal(t, 77, analysis.Severity)
	assert.Equal(t, "severe", analysis.SeverityLevel)
	assert.Equal(t, "replace", analysis.Recommendation)
	assert.GreaterOrEqual(t, analysis.EstimatedDays, 1)
}

type stubRenderer struct{ err error }

func (s *stubRenderer) Render(_ context.Context, rec *model.ReportRecord) error {
	if s.err != nil {
		return s.err
	}
	rec.FileName = rec.ReportID + ".txt"
	return nil
}

type stubSaver struct {
	saved []*model.ReportRecord
	err   error
}

func (s *stubSaver) Create(_ context.Context, rec *model.ReportRecord) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, rec)
	return nil
}

func TestEstimateAttachesDownloadLink(t *testing.T) {
	orch := &stubOrchestrator{
		result: &orchestrator.Result{
			Provider: "ollama",
			Response: &provider.Response{Text: `{"bumper":6500,"total":6500}`},
			Attempts: []model.ProviderAttempt{{Provider: "ollama", OK: true}},
		},
	}
	saver := &stubSaver{}
	svc := NewEstimateService(orch, loadTable(t), &stubRenderer{}, saver, nil, discardLogger())

	resp, err := svc.Estimate(context.Background(), model.EstimationRequest{
		CarName:       "Honda",
		CarModel:      "Civic",
		CarYear:       2018,
		DetectedParts: []string{"bumper"},
	})
	require.NoError(t, err)

	require.NotEmpty(t, resp.ReportID)
	assert.Equal(t, "/api/history/download/"+resp.ReportID, resp.ReportLink)
	require.Len(t, saver.saved, 1)
	assert.Equal(t, resp.ReportID, saver.saved[0].ReportID)
}

func TestEstimateSurvivesReportPersistenceFailure(t *testing.T) {
	orch := &stubOrchestrator{
		result: &orchestrator.Result{
			Provider: "ollama",
			Response: &provider.Response{Text: `{"bumper":6500,"total":6500}`},
			Attempts: []model.ProviderAttempt{{Provider: "ollama", OK: true}},
		},
	}
	svc := NewEstimateService(orch, loadTable(t), &stubRenderer{}, &stubSaver{err: fmt.Errorf("db down")}, nil, discardLogger())

	resp, err := svc.Estimate(context.Background(), model.EstimationRequest{
		CarName:       "Honda",
		CarModel:      "Civic",
		CarYear:       2018,
		DetectedParts: []string{"bumper"},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.ReportID)
	assert.Empty(t, resp.ReportLink)
	assert.Equal(t, 6500.0, resp.TotalCost)
}

func TestValidateCostJSON(t *testing.T) {
	assert.NoError(t, ValidateCostJSON(`{"bumper":6500,"total":6500}`))
	assert.NoError(t, ValidateCostJSON("Here is the estimate:\n```json\n{\"bumper\":6500}\n```"))
	assert.Error(t, ValidateCostJSON("I cannot help with that."))
	assert.Error(t, ValidateCostJSON(`{"note":"no numbers here"}`))
}

func TestParseCostJSONStringNumbers(t *testing.T) {
	costs, err := parseCostJSON(`{"bumper":"6,500","total":"6,500"}`)
	require.NoError(t, err)
	assert.Equal(t, 6500.0, costs["bumper"])
}
