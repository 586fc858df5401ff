package domain

import "time"

// RunResult is the immutable outcome of one curation run.
type RunResult struct {
	RunID         string    `json:"runId"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	Fetched       int       `json:"fetched"`
	AutoApproved  int       `json:"autoApproved"`
	PendingReview int       `json:"pendingReview"`
	Rejected      int       `json:"rejected"`
	Filtered      int       `json:"filtered"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
	Scores        []float64 `json:"scores,omitempty"`
	Errors        []string  `json:"errors,omitempty"`
}

// Processed counts candidates that were scored and routed.
func (r RunResult) Processed() int {
	return r.AutoApproved + r.PendingReview + r.Rejected
}

// Accounted sums every outcome bucket; it equals Fetched for a well-formed run.
func (r RunResult) Accounted() int {
	return r.Processed() + r.Filtered + r.Skipped + r.Failed
}

// ScoreBucket is one histogram bin of overall scores.
type ScoreBucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// CurationReport is the operator-facing summary of a run.
type CurationReport struct {
	ID              string        `json:"id"`
	RunID           string        `json:"runId"`
	GeneratedAt     time.Time     `json:"generatedAt"`
	StartedAt       time.Time     `json:"startedAt"`
	FinishedAt      time.Time     `json:"finishedAt"`
	Fetched         int           `json:"fetched"`
	Processed       int           `json:"processed"`
	AutoApproved    int           `json:"autoApproved"`
	PendingReview   int           `json:"pendingReview"`
	Rejected        int           `json:"rejected"`
	Filtered        int           `json:"filtered"`
	Skipped         int           `json:"skipped"`
	Failed          int           `json:"failed"`
	ApprovalRate    float64       `json:"approvalRate"`
	FilterRate      float64       `json:"filterRate"`
	AverageScore    float64       `json:"averageScore"`
	Distribution    []ScoreBucket `json:"distribution"`
	Errors          []string      `json:"errors,omitempty"`
	Recommendations []string      `json:"recommendations"`
}

// SystemStatus is the admin snapshot of the service.
type SystemStatus struct {
	GeneratedAt   time.Time             `json:"generatedAt"`
	Jobs          []JobState            `json:"jobs"`
	Thresholds    []QualityThreshold    `json:"thresholds"`
	Catalog       map[ProductStatus]int `json:"catalog"`
	PendingReview int                   `json:"pendingReview"`
	LatestReport  *CurationReport       `json:"latestReport,omitempty"`
}
