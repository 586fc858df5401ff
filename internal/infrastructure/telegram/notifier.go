package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ProductCurator/internal/config"
	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

const (
	defaultBaseURL  = "https://api.telegram.org"
	maxMessageRunes = 4000
	maxLowStockRows = 20
)

// Notifier sends operator messages to a Telegram chat via the bot API.
type Notifier struct {
	baseURL  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Notifier{
		baseURL:  base,
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether both token and chat are set.
func (n *Notifier) Configured() bool {
	return n.botToken != "" && n.chatID != ""
}

// NotifyError reports a failed job.
func (n *Notifier) NotifyError(ctx context.Context, job, message string) error {
	return n.send(ctx, fmt.Sprintf("⚠️ Job %s failed\n%s", job, message))
}

// NotifyLowStock lists live products whose supplier stock is short.
func (n *Notifier) NotifyLowStock(ctx context.Context, items []domain.LowStockItem) error {
	if len(items) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📦 %d products need stock attention\n", len(items))
	for i, item := range items {
		if i == maxLowStockRows {
			fmt.Fprintf(&b, "…and %d more\n", len(items)-maxLowStockRows)
			break
		}
		fmt.Fprintf(&b, "• %s (%s): %s, stock %d\n", item.Name, item.SourceKey, item.Reason, item.Stock)
	}
	return n.send(ctx, strings.TrimRight(b.String(), "\n"))
}

// PublishDigest posts the weekly digest.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	return n.send(ctx, digest)
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if !n.Configured() || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	if runes := []rune(text); len(runes) > maxMessageRunes {
		text = string(runes[:maxMessageRunes]) + "…"
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
