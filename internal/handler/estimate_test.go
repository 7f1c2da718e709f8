package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autofix-api/internal/model"
)

type stubEstimateService struct {
	resp *model.EstimationResponse
	err  error
}

func (s *stubEstimateService) Estimate(_ context.Context, _ model.EstimationRequest) (*model.EstimationResponse, error) {
	return s.resp, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEstimateHandlerSuccess(t *testing.T) {
	h := NewEstimateHandler(&stubEstimateService{
		resp: &model.EstimationResponse{
			Provider:  "ollama",
			Currency:  "INR",
			TotalCost: 11500,
		},
	}, discardLogger())

	body := `{"carName":"Honda","carModel":"Civic","carYear":2018,"detectedParts":["bumper","headlight"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.Estimate(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"provider":"ollama"`)
}

func TestEstimateHandlerValidation(t *testing.T) {
	h := NewEstimateHandler(&stubEstimateService{}, discardLogger())

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing car fields", `{"detectedParts":["bumper"]}`},
		{"missing year", `{"carName":"Honda","carModel":"Civic","detectedParts":["bumper"]}`},
		{"empty parts", `{"carName":"Honda","carModel":"Civic","carYear":2018,"detectedParts":[]}`},
		{"blank parts", `{"carName":"Honda","carModel":"Civic","carYear":2018,"detectedParts":["  ",""]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			h.Estimate(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestEstimateHandlerServiceErrorIsOpaque(t *testing.T) {
	h := NewEstimateHandler(&stubEstimateService{
		err: fmt.Errorf("pgx: connection refused to db host 10.0.0.5"),
	}, discardLogger())

	body := `{"carName":"Honda","carModel":"Civic","carYear":2018,"detectedParts":["bumper"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.Estimate(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}
