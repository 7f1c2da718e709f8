package model

// CarInfo identifies the vehicle being assessed
type CarInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

// Detection is a single damage detection reported by the model server
type Detection struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// DetectionResults carries the raw detections attached to an estimation request
type DetectionResults struct {
	Detections []Detection `json:"detections"`
}

// EstimationRequest represents a cost-estimation request
type EstimationRequest struct {
	CarName          string            `json:"carName"`
	CarModel         string            `json:"carModel"`
	CarYear          int               `json:"carYear"`
	DetectedParts    []string          `json:"detectedParts"`
	State            string            `json:"state,omitempty"`
	DetectionResults *DetectionResults `json:"detectionResults,omitempty"`
	OriginalImage    string            `json:"originalImage,omitempty"`
}

// CostBreakdownEntry is the normalized per-part cost line
type CostBreakdownEntry struct {
	Part       string  `json:"part"`
	Cost       float64 `json:"cost"`
	ThirdParty float64 `json:"thirdParty"`
	OEM        float64 `json:"oem"`
}

// NormalizationNote records one adjustment applied to a raw provider cost.
// Original is nil for entries synthesized for missing detected parts.
type NormalizationNote struct {
	Part     string   `json:"part"`
	Original *float64 `json:"original"`
	Adjusted float64  `json:"adjusted"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Added    bool     `json:"added,omitempty"`
}

// DualEntry exposes the aftermarket/OEM price pair for one part
type DualEntry struct {
	Part       string  `json:"part"`
	ThirdParty float64 `json:"thirdParty"`
	OEM        float64 `json:"oem"`
}

// DualBreakdown is the dual-pricing view of a normalized breakdown
type DualBreakdown struct {
	Parts           []DualEntry `json:"parts"`
	TotalThirdParty float64     `json:"totalThirdParty"`
	TotalOEM        float64     `json:"totalOEM"`
}

// ProviderAttempt is one entry of the ordered attempt log returned to callers
type ProviderAttempt struct {
	Provider  string `json:"provider"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// RepairAnalysisEntry is the per-part repair-vs-replace recommendation
type RepairAnalysisEntry struct {
	Part           string  `json:"part"`
	Severity       int     `json:"severity"` // percent
	SeverityLevel  string  `json:"severityLevel"`
	Recommendation string  `json:"recommendation"`
	Reason         string  `json:"reason"`
	RepairCost     float64 `json:"repairCost"`
	ReplaceCost    float64 `json:"replaceCost"`
	CostSaving     float64 `json:"costSaving"`
	EstimatedHours int     `json:"estimatedHours"`
	EstimatedDays  int     `json:"estimatedDays"`
	Complexity     string  `json:"complexity"`
}

// EstimationResponse is the full /api/estimate payload
type EstimationResponse struct {
	Provider        string                `json:"provider"`
	Currency        string                `json:"currency"`
	Attempts        []ProviderAttempt     `json:"attempts"`
	BaselineVersion string                `json:"baselineVersion"`
	CostBreakdown   []CostBreakdownEntry  `json:"costBreakdown"`
	TotalCost       float64               `json:"totalCost"`
	DualBreakdown   DualBreakdown         `json:"dualBreakdown"`
	Normalization   []NormalizationNote   `json:"normalization"`
	RepairAnalysis  []RepairAnalysisEntry `json:"repairAnalysis,omitempty"`
	ReportID        string                `json:"reportId,omitempty"`
	ReportLink      string                `json:"reportLink,omitempty"`
}
