// Package ui renders admin API results for the terminal.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ProductCurator/internal/domain"
)

var (
	successColor = text.Colors{text.FgGreen, text.Bold}
	errorColor   = text.Colors{text.FgRed, text.Bold}
	infoColor    = text.Colors{text.FgCyan}
)

// PrintSuccess prints a success message.
func PrintSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, successColor.Sprint("✓ "+fmt.Sprintf(format, args...)))
}

// PrintError prints an error message.
func PrintError(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, errorColor.Sprint("✗ "+fmt.Sprintf(format, args...)))
}

// PrintInfo prints an informational message.
func PrintInfo(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, infoColor.Sprint(fmt.Sprintf(format, args...)))
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// RenderJobs prints one row per scheduled job.
func RenderJobs(w io.Writer, jobs []domain.JobState) {
	t := newTable(w, "Jobs")
	t.AppendHeader(table.Row{"Job", "Enabled", "Status", "Runs", "Last run", "Next run", "Last result"})
	for _, j := range jobs {
		result := j.LastSummary
		if j.LastError != "" {
			result = errorColor.Sprint(j.LastError)
		}
		t.AppendRow(table.Row{j.Name, j.Enabled, colorStatus(j.Status), j.RunCount, formatTime(j.LastRun), formatTime(j.NextRun), result})
	}
	t.Render()
}

// RenderStatus prints jobs, catalog counts and the review backlog.
func RenderStatus(w io.Writer, s domain.SystemStatus) {
	RenderJobs(w, s.Jobs)

	t := newTable(w, "Catalog")
	t.AppendHeader(table.Row{"Status", "Products"})
	for _, status := range []domain.ProductStatus{domain.StatusAutoApproved, domain.StatusManualOverride, domain.StatusPendingReview, domain.StatusRejected} {
		t.AppendRow(table.Row{status, s.Catalog[status]})
	}
	t.AppendFooter(table.Row{"review queue", s.PendingReview})
	t.Render()

	if s.LatestReport != nil {
		PrintInfo(w, "Latest run %s: fetched %d, approved %d, review %d, rejected %d",
			s.LatestReport.RunID, s.LatestReport.Fetched, s.LatestReport.AutoApproved, s.LatestReport.PendingReview, s.LatestReport.Rejected)
	}
}

// RenderThresholds prints thresholds in evaluation order.
func RenderThresholds(w io.Writer, thresholds []domain.QualityThreshold) {
	t := newTable(w, "Thresholds")
	t.AppendHeader(table.Row{"#", "ID", "Name", "Type", "Active", "Version", "Conditions"})
	for i, th := range thresholds {
		t.AppendRow(table.Row{i + 1, th.ID, th.Name, th.Type, th.Active, th.Version, describeConditions(th.Conditions)})
	}
	t.Render()
}

// RenderQueue prints pending review items.
func RenderQueue(w io.Writer, items []domain.ReviewQueueItem) {
	if len(items) == 0 {
		PrintInfo(w, "Review queue is empty.")
		return
	}
	t := newTable(w, "Review queue")
	t.AppendHeader(table.Row{"Item", "Priority", "Product", "Score", "Est. value", "Reason", "Queued"})
	for _, it := range items {
		t.AppendRow(table.Row{it.ID, it.Priority, text.Trim(it.Product.Name, 40), fmt.Sprintf("%.1f", it.Product.Metrics.Overall),
			fmt.Sprintf("%.2f", it.EstimatedValue), it.Reason, formatTime(it.CreatedAt)})
	}
	t.Render()
}

// RenderProducts prints curated products.
func RenderProducts(w io.Writer, products []domain.CuratedProduct) {
	if len(products) == 0 {
		PrintInfo(w, "No products.")
		return
	}
	t := newTable(w, "Products")
	t.AppendHeader(table.Row{"ID", "Name", "Source", "Status", "Score", "Cost", "Retail", "Category"})
	for _, p := range products {
		t.AppendRow(table.Row{p.ID, text.Trim(p.Name, 40), p.Source, p.Status, fmt.Sprintf("%.1f", p.Metrics.Overall),
			fmt.Sprintf("%.2f", p.CostPrice), fmt.Sprintf("%.2f", p.Price), p.Category})
	}
	t.Render()
}

// RenderRejections prints the rejection log.
func RenderRejections(w io.Writer, rejections []domain.Rejection) {
	if len(rejections) == 0 {
		PrintInfo(w, "No rejections.")
		return
	}
	t := newTable(w, "Rejections")
	t.AppendHeader(table.Row{"Source key", "Stage", "Score", "Reason", "At"})
	for _, r := range rejections {
		t.AppendRow(table.Row{r.SourceKey, r.Stage, fmt.Sprintf("%.1f", r.Score), text.Trim(r.Reason, 60), formatTime(r.RejectedAt)})
	}
	t.Render()
}

// RenderReport prints counters, the score histogram and recommendations.
func RenderReport(w io.Writer, r domain.CurationReport) {
	t := newTable(w, "Run "+r.RunID)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"started", formatTime(r.StartedAt)},
		{"finished", formatTime(r.FinishedAt)},
		{"fetched", r.Fetched},
		{"auto-approved", r.AutoApproved},
		{"pending review", r.PendingReview},
		{"rejected", r.Rejected},
		{"filtered", r.Filtered},
		{"skipped", r.Skipped},
		{"failed", r.Failed},
		{"approval rate", fmt.Sprintf("%.0f%%", r.ApprovalRate*100)},
		{"filter rate", fmt.Sprintf("%.0f%%", r.FilterRate*100)},
		{"average score", fmt.Sprintf("%.2f", r.AverageScore)},
	})
	t.Render()

	hist := newTable(w, "Score distribution")
	hist.AppendHeader(table.Row{"Range", "Count", ""})
	for _, b := range r.Distribution {
		hist.AppendRow(table.Row{b.Label, b.Count, strings.Repeat("█", b.Count)})
	}
	hist.Render()

	for _, e := range r.Errors {
		PrintError(w, "%s", e)
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintln(w, "• "+rec)
	}
}

func describeConditions(c domain.ThresholdConditions) string {
	var parts []string
	if c.MinScore > 0 {
		parts = append(parts, fmt.Sprintf("score>=%.0f", c.MinScore))
	}
	if c.MaxScore > 0 {
		parts = append(parts, fmt.Sprintf("score<=%.0f", c.MaxScore))
	}
	if c.MinPrice > 0 {
		parts = append(parts, fmt.Sprintf("price>=%.2f", c.MinPrice))
	}
	if c.MaxPrice > 0 {
		parts = append(parts, fmt.Sprintf("price<=%.2f", c.MaxPrice))
	}
	if c.MinRating > 0 {
		parts = append(parts, fmt.Sprintf("rating>=%.1f", c.MinRating))
	}
	if c.MaxProcessingDays > 0 {
		parts = append(parts, fmt.Sprintf("processing<=%dd", c.MaxProcessingDays))
	}
	if len(c.AllowedRegions) > 0 {
		parts = append(parts, "regions="+strings.Join(c.AllowedRegions, ","))
	}
	if len(c.RequiredKeywords) > 0 {
		parts = append(parts, "requires="+strings.Join(c.RequiredKeywords, ","))
	}
	if len(c.ExcludedKeywords) > 0 {
		parts = append(parts, "excludes="+strings.Join(c.ExcludedKeywords, ","))
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, " ")
}

func colorStatus(s domain.JobStatus) string {
	switch s {
	case domain.JobCompleted:
		return successColor.Sprint(string(s))
	case domain.JobError:
		return errorColor.Sprint(string(s))
	case domain.JobRunning:
		return infoColor.Sprint(string(s))
	}
	return string(s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
