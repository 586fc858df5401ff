package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ProductCurator/internal/config"
	"ProductCurator/internal/domain"
)

func TestNotifierSendsForm(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotPath = r.URL.Path
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "tok", ChatID: "42", BaseURL: srv.URL + "/"})
	items := []domain.LowStockItem{{Name: "Premium Leather Tote", SourceKey: "demo:tote-1", Stock: 2, Reason: "low stock"}}
	if err := n.NotifyLowStock(context.Background(), items); err != nil {
		t.Fatalf("NotifyLowStock: %v", err)
	}

	if gotPath != "/bottok/sendMessage" || gotChat != "42" {
		t.Fatalf("unexpected request: %s chat=%s", gotPath, gotChat)
	}
	if !strings.Contains(gotText, "Premium Leather Tote (demo:tote-1): low stock, stock 2") {
		t.Fatalf("unexpected text %q", gotText)
	}
}

func TestNotifierReportsFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "tok", ChatID: "42", BaseURL: srv.URL})
	if err := n.NotifyError(context.Background(), "inventory-sync", "boom"); err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected status error, got %v", err)
	}

	if err := NewNotifier(config.TelegramConfig{}).PublishDigest(context.Background(), "x"); err == nil {
		t.Fatal("expected misconfiguration error")
	}
	if err := n.NotifyLowStock(context.Background(), nil); err != nil {
		t.Fatalf("empty low stock list should be a no-op: %v", err)
	}
}
