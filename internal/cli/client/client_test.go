package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ProductCurator/internal/domain"
)

func TestNormalizeServerURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"localhost:8080":              "http://localhost:8080",
		"https://curator.example/api": "https://curator.example",
		" http://10.0.0.1:9000/ ":     "http://10.0.0.1:9000",
	}
	for in, want := range cases {
		got, err := normalizeServerURL(in)
		if err != nil || got != want {
			t.Fatalf("normalizeServerURL(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := normalizeServerURL("http://"); err == nil {
		t.Fatal("expected error for URL without host")
	}
}

func TestClientSendsSecretAndDecodes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Admin-Secret") != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized admin access"}`))
			return
		}
		if r.URL.Path != "/api/v1/review-queue" || r.URL.Query().Get("limit") != "5" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_ = json.NewEncoder(w).Encode([]domain.ReviewQueueItem{{ID: "item-1", Priority: domain.PriorityHigh}})
	}))
	defer srv.Close()

	api, err := New(srv.URL, "s3cret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	items, err := api.ReviewQueue(context.Background(), 5)
	if err != nil {
		t.Fatalf("ReviewQueue: %v", err)
	}
	if len(items) != 1 || items[0].ID != "item-1" {
		t.Fatalf("unexpected items: %+v", items)
	}

	anon, _ := New(srv.URL, "")
	_, err = anon.ReviewQueue(context.Background(), 5)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "unauthorized admin access" {
		t.Fatalf("expected APIError 401, got %v", err)
	}
}

func TestTriggerJobReturnsStateOnFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/jobs/inventory-sync/trigger" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"job inventory-sync: supplier down","job":{"name":"inventory-sync","status":"error","lastError":"supplier down","runCount":2}}`))
	}))
	defer srv.Close()

	api, _ := New(srv.URL, "x")
	state, err := api.TriggerJob(context.Background(), "inventory-sync")
	if err == nil {
		t.Fatal("expected error")
	}
	if state.Name != "inventory-sync" || state.Status != domain.JobError || state.RunCount != 2 {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestSetJobEnabledSendsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]bool
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if r.Method != http.MethodPatch || body["enabled"] {
			t.Errorf("unexpected request %s %+v", r.Method, body)
		}
		_, _ = w.Write([]byte(`{"name":"weekly-curation-digest","enabled":false}`))
	}))
	defer srv.Close()

	api, _ := New(srv.URL, "x")
	state, err := api.SetJobEnabled(context.Background(), "weekly-curation-digest", false)
	if err != nil || state.Enabled || state.Name != "weekly-curation-digest" {
		t.Fatalf("unexpected result: %+v %v", state, err)
	}
}
