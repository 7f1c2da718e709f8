package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autofix-api/internal/model"
)

func TestKeywordRetrievalPrefersStructuredContext(t *testing.T) {
	p := NewKeywordRetrieval(4, testLogger())

	resp, err := p.Attempt(context.Background(), Request{
		Question: "what will this cost me?",
		Context: &model.ReportContext{
			CarInfo:       &model.CarInfo{Name: "Honda", Model: "Civic", Year: 2018},
			DetectedParts: []string{"bumper"},
			CostBreakdown: []model.CostBreakdownEntry{{Part: "bumper", Cost: 6500}},
			TotalCost:     6500,
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Local)
	assert.Contains(t, resp.Text, "2018 Honda Civic")
	assert.Contains(t, resp.Text, "6500")
}

func TestKeywordRetrievalAnswersFromDocuments(t *testing.T) {
	p := NewKeywordRetrieval(2, testLogger())

	resp, err := p.Attempt(context.Background(), Request{
		Question: "how long does a bumper repair take?",
		Docs: []model.RetrievedDoc{
			{ID: "d1", Text: "A bumper repair usually takes one working day. Painting adds a few hours."},
			{ID: "d2", Text: "Windshield replacement is a same-day job."},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Local)
	assert.Contains(t, resp.Text, "bumper repair usually takes")
}

func TestKeywordRetrievalNeverFails(t *testing.T) {
	p := NewKeywordRetrieval(4, testLogger())

	resp, err := p.Attempt(context.Background(), Request{Question: "???"})
	require.NoError(t, err)
	assert.True(t, resp.Local)
	assert.NotEmpty(t, resp.Text)
}
