package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"ProductCurator/internal/domain"
)

const testSecret = "s3cret"

type fakeOps struct {
	triggerErr   error
	triggered    string
	enabled      map[string]bool
	updated      domain.QualityThreshold
	updateErr    error
	approved     string
	approveErr   error
	rejectReason string
	reportErr    error
	statusAsked  domain.ProductStatus
	limitAsked   int
}

func (f *fakeOps) SystemStatus(context.Context) (domain.SystemStatus, error) {
	return domain.SystemStatus{PendingReview: 3, Jobs: []domain.JobState{{Name: "inventory-sync", Enabled: true}}}, nil
}

func (f *fakeOps) TriggerJob(_ context.Context, name string) (domain.JobState, error) {
	f.triggered = name
	if f.triggerErr != nil {
		return domain.JobState{Name: name, Status: domain.JobError}, f.triggerErr
	}
	return domain.JobState{Name: name, Status: domain.JobCompleted, RunCount: 1}, nil
}

func (f *fakeOps) SetJobEnabled(_ context.Context, name string, enabled bool) (domain.JobState, error) {
	if f.enabled == nil {
		f.enabled = map[string]bool{}
	}
	f.enabled[name] = enabled
	return domain.JobState{Name: name, Enabled: enabled}, nil
}

func (f *fakeOps) Thresholds() []domain.QualityThreshold {
	return []domain.QualityThreshold{{ID: "auto", Type: domain.ThresholdAutoApprove, Active: true}}
}

func (f *fakeOps) UpdateThreshold(_ context.Context, th domain.QualityThreshold) (domain.QualityThreshold, error) {
	if f.updateErr != nil {
		return domain.QualityThreshold{}, f.updateErr
	}
	th.Version++
	f.updated = th
	return th, nil
}

func (f *fakeOps) ReviewQueue(_ context.Context, limit int) ([]domain.ReviewQueueItem, error) {
	f.limitAsked = limit
	return nil, nil
}

func (f *fakeOps) ApproveReview(_ context.Context, itemID, reviewerID, _ string) (domain.CuratedProduct, error) {
	if f.approveErr != nil {
		return domain.CuratedProduct{}, f.approveErr
	}
	f.approved = itemID + "/" + reviewerID
	return domain.CuratedProduct{ID: "p-1", Status: domain.StatusManualOverride}, nil
}

func (f *fakeOps) RejectReview(_ context.Context, _, _, reason string) (domain.CuratedProduct, error) {
	f.rejectReason = reason
	return domain.CuratedProduct{ID: "p-1", Status: domain.StatusRejected}, nil
}

func (f *fakeOps) LatestReport(context.Context) (domain.CurationReport, error) {
	if f.reportErr != nil {
		return domain.CurationReport{}, f.reportErr
	}
	return domain.CurationReport{ID: "report-r1", RunID: "r1", Fetched: 4}, nil
}

func (f *fakeOps) Products(_ context.Context, status domain.ProductStatus, limit int) ([]domain.CuratedProduct, error) {
	f.statusAsked = status
	f.limitAsked = limit
	return []domain.CuratedProduct{{ID: "p-1", Status: status}}, nil
}

func (f *fakeOps) Rejections(context.Context, int) ([]domain.Rejection, error) {
	return nil, nil
}

func newTestServer(t *testing.T, ops *fakeOps) *Server {
	t.Helper()
	srv, err := NewServer(ops, testSecret, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set("X-Admin-Secret", testSecret)
	}
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &fakeOps{})

	rec := do(t, srv, http.MethodGet, "/health", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminRoutesRequireSecret(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &fakeOps{})

	rec := do(t, srv, http.MethodGet, "/api/v1/status", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer "+testSecret)
	bearer := httptest.NewRecorder()
	srv.Echo.ServeHTTP(bearer, req)
	if bearer.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", bearer.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("X-Admin-Secret", "wrong")
	wrong := httptest.NewRecorder()
	srv.Echo.ServeHTTP(wrong, req)
	if wrong.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong secret, got %d", wrong.Code)
	}
}

func TestEmptySecretIsGenerated(t *testing.T) {
	t.Parallel()
	srv, err := NewServer(&fakeOps{}, "  ", nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if len(srv.secret) < 32 {
		t.Fatalf("expected generated secret, got %q", srv.secret)
	}
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &fakeOps{})

	rec := do(t, srv, http.MethodGet, "/api/v1/status", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status domain.SystemStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.PendingReview != 3 || len(status.Jobs) != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestTriggerJobErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code int
	}{
		{name: "ok", code: http.StatusOK},
		{name: "unknown", err: fmt.Errorf("%w: nope", domain.ErrUnknownJob), code: http.StatusNotFound},
		{name: "busy", err: domain.ErrJobRunning, code: http.StatusConflict},
		{name: "stopped", err: domain.ErrRunnerStopped, code: http.StatusServiceUnavailable},
		{name: "failed", err: &domain.SchedulerError{Job: "inventory-sync", Err: errors.New("supplier down")}, code: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ops := &fakeOps{triggerErr: tc.err}
			srv := newTestServer(t, ops)

			rec := do(t, srv, http.MethodPost, "/api/v1/jobs/inventory-sync/trigger", "", true)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			if ops.triggered != "inventory-sync" {
				t.Fatalf("expected job name from path, got %q", ops.triggered)
			}
			if tc.err != nil && !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("expected error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestToggleJob(t *testing.T) {
	t.Parallel()
	ops := &fakeOps{}
	srv := newTestServer(t, ops)

	rec := do(t, srv, http.MethodPatch, "/api/v1/jobs/weekly-curation-digest", `{"enabled":false}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if enabled, ok := ops.enabled["weekly-curation-digest"]; !ok || enabled {
		t.Fatalf("expected job disabled, got %+v", ops.enabled)
	}

	rec = do(t, srv, http.MethodPatch, "/api/v1/jobs/weekly-curation-digest", `{}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing flag, got %d", rec.Code)
	}
}

func TestUpdateThresholdUsesPathID(t *testing.T) {
	t.Parallel()
	ops := &fakeOps{}
	srv := newTestServer(t, ops)

	body := `{"id":"ignored","name":"Auto","type":"auto_approve","active":true,"conditions":{"minScore":80}}`
	rec := do(t, srv, http.MethodPut, "/api/v1/thresholds/auto", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ops.updated.ID != "auto" || ops.updated.Conditions.MinScore != 80 {
		t.Fatalf("unexpected threshold: %+v", ops.updated)
	}

	ops.updateErr = fmt.Errorf("%w: minScore above maxScore", domain.ErrInvalidThreshold)
	rec = do(t, srv, http.MethodPut, "/api/v1/thresholds/auto", body, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReviewDecisions(t *testing.T) {
	t.Parallel()
	ops := &fakeOps{}
	srv := newTestServer(t, ops)

	rec := do(t, srv, http.MethodPost, "/api/v1/review-queue/item-1/approve", `{"reviewerId":"ana","notes":"fine"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ops.approved != "item-1/ana" {
		t.Fatalf("unexpected approve call: %q", ops.approved)
	}

	rec = do(t, srv, http.MethodPost, "/api/v1/review-queue/item-2/reject", `{"reviewerId":"ana","reason":"blurry"}`, true)
	if rec.Code != http.StatusOK || ops.rejectReason != "blurry" {
		t.Fatalf("unexpected reject: %d %q", rec.Code, ops.rejectReason)
	}

	ops.approveErr = &domain.QueueStateError{ItemID: "item-1", Op: "approve"}
	rec = do(t, srv, http.MethodPost, "/api/v1/review-queue/item-1/approve", `{"reviewerId":"ana"}`, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for resolved item, got %d", rec.Code)
	}
}

func TestReviewQueueEmptyListIsArray(t *testing.T) {
	t.Parallel()
	ops := &fakeOps{}
	srv := newTestServer(t, ops)

	rec := do(t, srv, http.MethodGet, "/api/v1/review-queue?limit=5", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
	if ops.limitAsked != 5 {
		t.Fatalf("expected limit 5, got %d", ops.limitAsked)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/review-queue?limit=abc", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestLatestReportNotFound(t *testing.T) {
	t.Parallel()
	ops := &fakeOps{reportErr: fmt.Errorf("%w: no reports yet", domain.ErrNotFound)}
	srv := newTestServer(t, ops)

	rec := do(t, srv, http.MethodGet, "/api/v1/reports/latest", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestProductsDefaultsToApproved(t *testing.T) {
	t.Parallel()
	ops := &fakeOps{}
	srv := newTestServer(t, ops)

	rec := do(t, srv, http.MethodGet, "/api/v1/products", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ops.statusAsked != domain.StatusAutoApproved {
		t.Fatalf("expected auto_approved default, got %q", ops.statusAsked)
	}

	do(t, srv, http.MethodGet, "/api/v1/products?status=rejected&limit=2", "", true)
	if ops.statusAsked != domain.StatusRejected || ops.limitAsked != 2 {
		t.Fatalf("unexpected query: %q %d", ops.statusAsked, ops.limitAsked)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &fakeOps{})
	do(t, srv, http.MethodGet, "/health", "", false)

	rec := do(t, srv, http.MethodGet, "/metrics", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("expected prometheus exposition, got %.200s", rec.Body.String())
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &fakeOps{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestResponseStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "conflict", err: fmt.Errorf("trigger: %w", domain.ErrJobRunning), want: http.StatusConflict},
		{name: "unknown job", err: domain.ErrUnknownJob, want: http.StatusNotFound},
		{name: "stopped", err: domain.ErrRunnerStopped, want: http.StatusServiceUnavailable},
		{name: "echo error", err: echo.NewHTTPError(http.StatusUnauthorized, "no"), want: http.StatusUnauthorized},
		{name: "unexpected", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if got := responseStatus(c, tc.err); got != tc.want {
				t.Fatalf("responseStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if err := c.NoContent(http.StatusAccepted); err != nil {
		t.Fatalf("NoContent: %v", err)
	}
	if got := responseStatus(c, nil); got != http.StatusAccepted {
		t.Fatalf("responseStatus after write = %d, want %d", got, http.StatusAccepted)
	}
}

func TestEscapedErrorsShareStatusWithMetrics(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &fakeOps{})
	srv.Echo.GET("/busy", func(echo.Context) error {
		return fmt.Errorf("trigger: %w", domain.ErrJobRunning)
	})

	rec := do(t, srv, http.MethodGet, "/busy", "", false)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("expected JSON error body, got %s", rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/metrics", "", false)
	want := `productcurator_http_requests_total{endpoint="/busy",method="GET",status="4xx"} 1`
	if !strings.Contains(rec.Body.String(), want) {
		t.Fatalf("expected %s in metrics output", want)
	}
}
