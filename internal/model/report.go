package model

import "time"

// DetectedPart is a stored detection with its confidence
type DetectedPart struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ReportCostEntry is the per-part cost line persisted with a report
type ReportCostEntry struct {
	Part string  `json:"part"`
	Cost float64 `json:"cost"`
}

// ReportRecord is the persisted metadata for one generated report
type ReportRecord struct {
	ReportID      string            `json:"reportId"`
	FileName      string            `json:"fileName"`
	FilePath      string            `json:"filePath"`
	CarInfo       CarInfo           `json:"carInfo"`
	DetectedParts []DetectedPart    `json:"detectedParts"`
	CostBreakdown []ReportCostEntry `json:"costBreakdown"`
	TotalCost     float64           `json:"totalCost"`
	OriginalImage string            `json:"originalImage,omitempty"`
	DownloadCount int               `json:"downloadCount"`
	CreatedAt     time.Time         `json:"createdAt"`
	DownloadURL   string            `json:"downloadUrl,omitempty"`
}
