package usecase

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"ProductCurator/internal/domain"
)

func sampleRun() domain.RunResult {
	return domain.RunResult{
		RunID:         "run-1",
		StartedAt:     testNow,
		FinishedAt:    testNow.Add(2 * time.Minute),
		Fetched:       4,
		AutoApproved:  1,
		PendingReview: 1,
		Rejected:      1,
		Filtered:      1,
		Scores:        []float64{89, 51, 21},
	}
}

func TestSummarizeComputesRatesAndBuckets(t *testing.T) {
	t.Parallel()

	report := NewReportGenerator().Summarize(sampleRun(), HistoricalContext{})

	if report.ID != "report-run-1" || !report.GeneratedAt.Equal(sampleRun().FinishedAt) {
		t.Fatalf("unexpected identity: %s %v", report.ID, report.GeneratedAt)
	}
	if report.Processed != 3 || report.ApprovalRate != 0.33 || report.FilterRate != 0.25 {
		t.Fatalf("unexpected rates: %+v", report)
	}
	if report.AverageScore != 53.67 {
		t.Fatalf("average = %v, want 53.67", report.AverageScore)
	}
	counts := map[string]int{}
	for _, b := range report.Distribution {
		counts[b.Label] = b.Count
	}
	want := map[string]int{"0-49": 1, "50-59": 1, "60-69": 0, "70-79": 0, "80-89": 1, "90-100": 0}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("distribution = %v, want %v", counts, want)
	}
	if len(report.Recommendations) != 1 || !strings.Contains(report.Recommendations[0], "healthy") {
		t.Fatalf("unexpected recommendations: %v", report.Recommendations)
	}
}

func TestSummarizeIsDeterministic(t *testing.T) {
	t.Parallel()

	g := NewReportGenerator()
	history := HistoricalContext{PendingReview: 3}
	if a, b := g.Summarize(sampleRun(), history), g.Summarize(sampleRun(), history); !reflect.DeepEqual(a, b) {
		t.Fatalf("reports differ:\n%+v\n%+v", a, b)
	}
}

func TestSummarizeRecommendations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		run     domain.RunResult
		history HistoricalContext
		want    string
	}{
		{
			name: "nothing fetched",
			run:  domain.RunResult{RunID: "r", Errors: []string{"system: all 2 supplier fetches failed"}},
			want: "No candidates fetched",
		},
		{
			name: "high filter rate",
			run:  domain.RunResult{RunID: "r", Fetched: 10, Filtered: 8, AutoApproved: 1, Rejected: 1, Scores: []float64{80, 30}},
			want: "Filter rate is 80%",
		},
		{
			name: "low approval",
			run:  domain.RunResult{RunID: "r", Fetched: 12, Rejected: 12, Scores: make([]float64, 12)},
			want: "too strict",
		},
		{
			name: "high approval",
			run:  domain.RunResult{RunID: "r", Fetched: 10, AutoApproved: 10, Scores: []float64{90, 90, 90, 90, 90, 90, 90, 90, 90, 90}},
			want: "too lenient",
		},
		{
			name:    "backlog",
			run:     sampleRun(),
			history: HistoricalContext{PendingReview: 51},
			want:    "Review backlog holds 51",
		},
		{
			name:    "score drop",
			run:     sampleRun(),
			history: HistoricalContext{Previous: &domain.CurationReport{Processed: 5, AverageScore: 70}},
			want:    "fell by 16.3",
		},
		{
			name: "errors",
			run:  domain.RunResult{RunID: "r", Fetched: 1, Failed: 1, Errors: []string{"candidate x (score): boom"}},
			want: "1 errors",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			report := NewReportGenerator().Summarize(tc.run, tc.history)
			joined := strings.Join(report.Recommendations, "\n")
			if !strings.Contains(joined, tc.want) {
				t.Fatalf("recommendations %q do not mention %q", joined, tc.want)
			}
		})
	}
}
