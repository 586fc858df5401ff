package redisstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"ProductCurator/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb, err := NewClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestJobStateRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mr, rdb := newTestClient(t)
	store := NewJobStateStore(rdb, "test")

	if _, ok, err := store.LoadJobState(ctx, "inventory-sync"); err != nil || ok {
		t.Fatalf("missing state: ok=%v err=%v", ok, err)
	}

	lastRun := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	want := domain.JobState{
		Name:      "inventory-sync",
		Interval:  6 * time.Hour,
		Enabled:   true,
		Status:    domain.JobError,
		LastRun:   lastRun,
		LastError: "supplier down",
		RunCount:  4,
	}
	if err := store.SaveJobState(ctx, want); err != nil {
		t.Fatalf("SaveJobState: %v", err)
	}
	if !mr.Exists("test:jobs:inventory-sync") {
		t.Fatal("key not written under prefix")
	}

	got, ok, err := store.LoadJobState(ctx, "inventory-sync")
	if err != nil || !ok {
		t.Fatalf("LoadJobState: ok=%v err=%v", ok, err)
	}
	if got.Status != want.Status || !got.LastRun.Equal(lastRun) || got.RunCount != 4 || got.Interval != want.Interval {
		t.Fatalf("got %+v", got)
	}
}

func TestJobStateCorruptValue(t *testing.T) {
	t.Parallel()

	mr, rdb := newTestClient(t)
	if err := mr.Set("productcurator:jobs:x", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := NewJobStateStore(rdb, "").LoadJobState(context.Background(), "x"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPublisherEmitsEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, rdb := newTestClient(t)
	sub := rdb.Subscribe(ctx, "events")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub := NewPublisher(rdb, "events")
	if err := pub.NotifyLowStock(ctx, []domain.LowStockItem{{ProductID: "p1", Reason: "out of stock"}}); err != nil {
		t.Fatalf("NotifyLowStock: %v", err)
	}

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	if err != nil {
		t.Fatalf("ReceiveMessage: %v", err)
	}
	var ev Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != EventLowStock || len(ev.LowStock) != 1 || ev.LowStock[0].ProductID != "p1" || ev.At.IsZero() {
		t.Fatalf("unexpected event %+v", ev)
	}
}
