package model

import "time"

// UploadResponse is returned after a successful media upload
type UploadResponse struct {
	Filename string  `json:"filename"`
	CarInfo  CarInfo `json:"carInfo"`
}

// DetectionResponse is the damage-detection result proxied from the model server
type DetectionResponse struct {
	Parts          []string    `json:"parts"`
	Detections     []Detection `json:"detections"`
	ConfidenceUsed float64     `json:"confidence_used"`
	ModelType      string      `json:"model_type,omitempty"`
}

// HistoryResponse lists persisted reports, most recent first
type HistoryResponse struct {
	Reports []ReportRecord `json:"reports"`
	Total   int            `json:"total"`
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the uniform error payload
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
