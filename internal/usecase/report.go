package usecase

import (
	"fmt"
	"math"

	"ProductCurator/internal/domain"
)

const (
	highFilterRate     = 0.6
	lowApprovalRate    = 0.1
	highApprovalRate   = 0.8
	minProcessedForMix = 10
	reviewBacklogLimit = 50
	scoreDropAlert     = 10.0
)

var scoreBuckets = []domain.ScoreBucket{
	{Label: "0-49", Min: 0, Max: 49.999},
	{Label: "50-59", Min: 50, Max: 59.999},
	{Label: "60-69", Min: 60, Max: 69.999},
	{Label: "70-79", Min: 70, Max: 79.999},
	{Label: "80-89", Min: 80, Max: 89.999},
	{Label: "90-100", Min: 90, Max: 100},
}

// HistoricalContext carries what a report compares the run against.
type HistoricalContext struct {
	Previous      *domain.CurationReport
	PendingReview int
}

// ReportGenerator turns run results into operator reports. It holds no state.
type ReportGenerator struct{}

// NewReportGenerator returns a ReportGenerator.
func NewReportGenerator() ReportGenerator {
	return ReportGenerator{}
}

// Summarize builds the report for run. The same inputs always give the same report.
func (ReportGenerator) Summarize(run domain.RunResult, history HistoricalContext) domain.CurationReport {
	report := domain.CurationReport{
		ID:            "report-" + run.RunID,
		RunID:         run.RunID,
		GeneratedAt:   run.FinishedAt,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		Fetched:       run.Fetched,
		Processed:     run.Processed(),
		AutoApproved:  run.AutoApproved,
		PendingReview: run.PendingReview,
		Rejected:      run.Rejected,
		Filtered:      run.Filtered,
		Skipped:       run.Skipped,
		Failed:        run.Failed,
		Distribution:  distribution(run.Scores),
		Errors:        append([]string(nil), run.Errors...),
	}
	if report.Processed > 0 {
		report.ApprovalRate = round2(float64(run.AutoApproved) / float64(report.Processed))
	}
	if considered := run.Fetched - run.Skipped; considered > 0 {
		report.FilterRate = round2(float64(run.Filtered) / float64(considered))
	}
	if len(run.Scores) > 0 {
		var sum float64
		for _, s := range run.Scores {
			sum += s
		}
		report.AverageScore = round2(sum / float64(len(run.Scores)))
	}
	report.Recommendations = recommendations(report, history)
	return report
}

func distribution(scores []float64) []domain.ScoreBucket {
	buckets := make([]domain.ScoreBucket, len(scoreBuckets))
	copy(buckets, scoreBuckets)
	for _, s := range scores {
		idx := int(s) / 10
		switch {
		case idx < 5:
			idx = 0
		case idx >= 9:
			idx = len(buckets) - 1
		default:
			idx -= 4
		}
		buckets[idx].Count++
	}
	return buckets
}

func recommendations(r domain.CurationReport, history HistoricalContext) []string {
	if r.Fetched == 0 {
		if len(r.Errors) > 0 {
			return []string{fmt.Sprintf("No candidates fetched: %s. Check supplier connectivity and credentials.", r.Errors[0])}
		}
		return []string{"No candidates fetched. Check supplier configuration and categories."}
	}

	var out []string
	if len(r.Errors) > 0 {
		out = append(out, fmt.Sprintf("%d errors during the run; inspect the error list before the next run.", len(r.Errors)))
	}
	if r.FilterRate > highFilterRate {
		out = append(out, fmt.Sprintf("Filter rate is %.0f%%; consider widening price bounds or revisiting excluded keywords.", r.FilterRate*100))
	}
	if r.Processed >= minProcessedForMix {
		switch {
		case r.ApprovalRate < lowApprovalRate:
			out = append(out, fmt.Sprintf("Approval rate is %.0f%%; auto-approve thresholds may be too strict.", r.ApprovalRate*100))
		case r.ApprovalRate > highApprovalRate:
			out = append(out, fmt.Sprintf("Approval rate is %.0f%%; auto-approve thresholds may be too lenient.", r.ApprovalRate*100))
		}
	}
	if history.PendingReview > reviewBacklogLimit {
		out = append(out, fmt.Sprintf("Review backlog holds %d items; schedule a review session.", history.PendingReview))
	}
	if prev := history.Previous; prev != nil && prev.Processed > 0 && r.Processed > 0 {
		if drop := prev.AverageScore - r.AverageScore; drop > scoreDropAlert {
			out = append(out, fmt.Sprintf("Average score fell by %.1f points since the previous run; check supplier quality.", drop))
		}
	}
	if len(out) == 0 {
		out = append(out, "Run looks healthy; no action needed.")
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
