package model

// ReportContext is an opaque snapshot of a prior estimation result used to
// ground chat answers. It is passed through to providers, never mutated.
type ReportContext struct {
	CarInfo       *CarInfo             `json:"carInfo,omitempty"`
	DetectedParts []string             `json:"detectedParts,omitempty"`
	CostBreakdown []CostBreakdownEntry `json:"costBreakdown,omitempty"`
	TotalCost     float64              `json:"totalCost,omitempty"`
}

// ChatRequest represents an assistant question. Message is accepted as an
// alias for Question for older clients.
type ChatRequest struct {
	Question string         `json:"question"`
	Message  string         `json:"message,omitempty"`
	Context  *ReportContext `json:"context,omitempty"`
}

// ChatSource is a citation for a retrieved source document
type ChatSource struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Score  int    `json:"score"`
}

// RetrievedDoc is a scored corpus document handed to providers for grounding
type RetrievedDoc struct {
	ID     string
	Source string
	Text   string
	Score  int
}

// ChatResponse is the /api/chat payload
type ChatResponse struct {
	Answer   string       `json:"answer"`
	Sources  []ChatSource `json:"sources,omitempty"`
	Provider string       `json:"provider"`
	Local    bool         `json:"local,omitempty"`
}
