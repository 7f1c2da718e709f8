package report

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autofix-api/internal/model"
)

func TestRenderWritesReportFile(t *testing.T) {
	dir := t.TempDir()
	renderer, err := NewFileRenderer(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	rec := &model.ReportRecord{
		ReportID: "abc-123",
		CarInfo:  model.CarInfo{Name: "Honda", Model: "Civic", Year: 2018},
		DetectedParts: []model.DetectedPart{
			{Name: "bumper", Confidence: 0.91},
			{Name: "headlight"},
		},
		CostBreakdown: []model.ReportCostEntry{
			{Part: "bumper", Cost: 6500},
			{Part: "headlight", Cost: 5000},
		},
		TotalCost: 11500,
	}

	require.NoError(t, renderer.Render(context.Background(), rec))

	assert.Equal(t, "abc-123.txt", rec.FileName)
	assert.False(t, rec.CreatedAt.IsZero())

	data, err := os.ReadFile(rec.FilePath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Report ID: abc-123")
	assert.Contains(t, text, "2018 Honda Civic")
	assert.Contains(t, text, "bumper (confidence 91%)")
	assert.Contains(t, text, "11500")
}

func TestRenderRequiresReportID(t *testing.T) {
	renderer, err := NewFileRenderer(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.Error(t, renderer.Render(context.Background(), &model.ReportRecord{}))
}
